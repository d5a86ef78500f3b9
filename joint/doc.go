// Package joint maps joint descriptors onto native solver objects. There is
// one Implementation per joint type; each one knows how to realise the
// joint either as a two-body constraint or as a link of a reduced
// coordinate multibody, and how to push later descriptor changes into the
// handles it created.
package joint
