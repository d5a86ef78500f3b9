package native

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

var (
	ErrLinkNotSetUp     = errors.New("native: multibody link not set up")
	ErrLinkOutOfRange   = errors.New("native: multibody link index out of range")
	ErrInvalidParent    = errors.New("native: multibody parent must precede its child")
	ErrMultiBodyStarted = errors.New("native: multibody already finalized")
)

type LinkType int

const (
	LinkInvalid LinkType = iota
	LinkFixed
	LinkRevolute
	LinkPrismatic
	LinkSpherical
)

func (t LinkType) String() string {
	switch t {
	case LinkFixed:
		return "fixed"
	case LinkRevolute:
		return "revolute"
	case LinkPrismatic:
		return "prismatic"
	case LinkSpherical:
		return "spherical"
	default:
		return "invalid"
	}
}

// Link is one member of a multibody. Offsets follow the reduced coordinate
// convention: ParentComToPivot is expressed in the parent frame,
// PivotToThisCom in this link's frame, and ParentToThisRot rotates parent
// frame vectors into this link's frame.
type Link struct {
	Index  int
	Parent int
	Type   LinkType

	Mass    float64
	Inertia mgl64.Vec3

	ParentToThisRot  mgl64.Quat
	ParentComToPivot mgl64.Vec3
	PivotToThisCom   mgl64.Vec3
	Axis             mgl64.Vec3

	DisableParentCollision bool
	Collider               *LinkCollider
}

// LinkSetup carries the arguments shared by every link setup call.
type LinkSetup struct {
	Mass                   float64
	Inertia                mgl64.Vec3
	Parent                 int
	ParentToThisRot        mgl64.Quat
	ParentComToPivot       mgl64.Vec3
	PivotToThisCom         mgl64.Vec3
	DisableParentCollision bool
}

// MultiBody is a reduced coordinate articulation whose link count and order
// are fixed at allocation.
type MultiBody struct {
	id uuid.UUID

	BaseMass     float64
	BaseInertia  mgl64.Vec3
	FixedBase    bool
	BaseCollider *LinkCollider

	links     []Link
	finalized bool
}

func NewMultiBody(numLinks int, baseMass float64, baseInertia mgl64.Vec3, fixedBase bool) *MultiBody {
	links := make([]Link, numLinks)
	for i := range links {
		links[i] = Link{Index: i, Parent: -1, ParentToThisRot: mgl64.QuatIdent()}
	}
	return &MultiBody{
		id:          uuid.New(),
		BaseMass:    baseMass,
		BaseInertia: baseInertia,
		FixedBase:   fixedBase,
		links:       links,
	}
}

func (m *MultiBody) ID() uuid.UUID {
	return m.id
}

func (m *MultiBody) NumLinks() int {
	if m == nil {
		return 0
	}
	return len(m.links)
}

// Link returns the link at index, or nil when out of range.
func (m *MultiBody) Link(index int) *Link {
	if m == nil || index < 0 || index >= len(m.links) {
		return nil
	}
	return &m.links[index]
}

func (m *MultiBody) Finalized() bool {
	return m != nil && m.finalized
}

func (m *MultiBody) setup(index int, typ LinkType, axis mgl64.Vec3, s LinkSetup) error {
	if m.finalized {
		return ErrMultiBodyStarted
	}
	if index < 0 || index >= len(m.links) {
		return fmt.Errorf("%w: %d of %d", ErrLinkOutOfRange, index, len(m.links))
	}
	if s.Parent >= index || s.Parent < -1 {
		return fmt.Errorf("%w: link %d parent %d", ErrInvalidParent, index, s.Parent)
	}
	rot := s.ParentToThisRot
	if rot.Len() == 0 {
		rot = mgl64.QuatIdent()
	}
	m.links[index] = Link{
		Index:                  index,
		Parent:                 s.Parent,
		Type:                   typ,
		Mass:                   s.Mass,
		Inertia:                s.Inertia,
		ParentToThisRot:        rot.Normalize(),
		ParentComToPivot:       s.ParentComToPivot,
		PivotToThisCom:         s.PivotToThisCom,
		Axis:                   axis,
		DisableParentCollision: s.DisableParentCollision,
		Collider:               m.links[index].Collider,
	}
	return nil
}

func (m *MultiBody) SetupSpherical(index int, s LinkSetup) error {
	return m.setup(index, LinkSpherical, mgl64.Vec3{}, s)
}

func (m *MultiBody) SetupRevolute(index int, axis mgl64.Vec3, s LinkSetup) error {
	return m.setup(index, LinkRevolute, axis.Normalize(), s)
}

func (m *MultiBody) SetupPrismatic(index int, axis mgl64.Vec3, s LinkSetup) error {
	return m.setup(index, LinkPrismatic, axis.Normalize(), s)
}

func (m *MultiBody) SetupFixed(index int, s LinkSetup) error {
	return m.setup(index, LinkFixed, mgl64.Vec3{}, s)
}

// Finalize validates that every link was configured. No further setup
// calls are accepted afterwards.
func (m *MultiBody) Finalize() error {
	if m.finalized {
		return ErrMultiBodyStarted
	}
	for i := range m.links {
		if m.links[i].Type == LinkInvalid {
			return fmt.Errorf("%w: link %d", ErrLinkNotSetUp, i)
		}
	}
	m.finalized = true
	return nil
}

// SetLinkCollider attaches c to link index, or to the base when index is -1.
func (m *MultiBody) SetLinkCollider(index int, c *LinkCollider) {
	if index == -1 {
		m.BaseCollider = c
		return
	}
	if l := m.Link(index); l != nil {
		l.Collider = c
	}
}
