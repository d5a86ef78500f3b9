package component

import (
	"errors"
	"fmt"

	"github.com/milk9111/articulation/native"
)

var ErrBaseAlreadyAssigned = errors.New("multibody: base already assigned")

// BaseLinkIndex is the link index reported by an articulation's root.
const BaseLinkIndex = -1

// Multibody marks a node as a candidate articulation member. Base, link
// index and link handle are written only by the articulation system during
// rebuilds; applications toggle Enabled and request IsBase.
type Multibody struct {
	Enabled bool
	IsBase  bool

	base      uint64 // ecs.Entity
	linkIndex int
	inLink    bool
	link      *native.Link
	multiBody *native.MultiBody
}

// Base returns the resolved articulation root, or zero.
func (m *Multibody) Base() uint64 {
	if m == nil {
		return 0
	}
	return m.base
}

// AssignBase records the resolved root. A different root can only be
// assigned after DetachBase.
func (m *Multibody) AssignBase(base uint64) error {
	if m.base != 0 && m.base != base {
		return fmt.Errorf("%w: have %d, got %d", ErrBaseAlreadyAssigned, m.base, base)
	}
	m.base = base
	return nil
}

// DetachBase clears the root. Link data must already be cleared.
func (m *Multibody) DetachBase() {
	m.base = 0
}

// LinkIndex returns the assigned index, BaseLinkIndex for the root, and
// false when the node is not part of a built articulation.
func (m *Multibody) LinkIndex() (int, bool) {
	if m == nil || !m.inLink {
		return 0, false
	}
	return m.linkIndex, true
}

// LinkHandle returns the native link, or nil for the base or when unlinked.
func (m *Multibody) LinkHandle() *native.Link {
	if m == nil || !m.inLink {
		return nil
	}
	return m.link
}

// MultiBody returns the articulation this node is part of.
func (m *Multibody) MultiBody() *native.MultiBody {
	if m == nil || !m.inLink {
		return nil
	}
	return m.multiBody
}

func (m *Multibody) IsInMultibody() bool {
	return m != nil && m.inLink
}

func (m *Multibody) AssignLink(index int, mb *native.MultiBody, link *native.Link) {
	m.linkIndex = index
	m.multiBody = mb
	m.link = link
	m.inLink = true
}

func (m *Multibody) ClearLink() {
	m.linkIndex = 0
	m.multiBody = nil
	m.link = nil
	m.inLink = false
}

var MultibodyComponent = NewComponent[Multibody]()
