// Package native models the solver objects the joint layer drives: rigid
// bodies, articulation link colliders, two-body constraint kinds, reduced
// coordinate multibodies with their limit and motor constraints, and a
// reference in-memory World that owns them.
package native
