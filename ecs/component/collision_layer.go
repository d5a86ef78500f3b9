package component

// CollisionLayer lets a body declare a collision group and mask. An
// articulation is registered with its base's layer.
type CollisionLayer struct {
	// Group is a bitmask of this body's collision category. If zero, the
	// physics systems treat it as category 1.
	Group uint32 `yaml:"group,omitempty"`
	// Mask is a bitmask of categories this body collides with. If zero, it
	// is treated as all-bits set.
	Mask uint32 `yaml:"mask,omitempty"`
}

// Resolved returns the layer with defaults applied.
func (c CollisionLayer) Resolved() (group, mask uint32) {
	group, mask = c.Group, c.Mask
	if group == 0 {
		group = 1
	}
	if mask == 0 {
		mask = ^uint32(0)
	}
	return group, mask
}
