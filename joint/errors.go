package joint

import "errors"

var (
	// ErrStructuralViolation reports a multibody link whose endpoints do not
	// sit under the same articulation root.
	ErrStructuralViolation = errors.New("joint: structural violation")
	// ErrUnsupportedOperation reports a request the joint type or backend
	// has no native support for.
	ErrUnsupportedOperation = errors.New("joint: unsupported operation")
	// ErrInvalidMotorTarget reports a motor target that does not fit the
	// joint's degrees of freedom.
	ErrInvalidMotorTarget = errors.New("joint: invalid motor target")
)
