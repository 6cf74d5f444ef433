package rbac

import "errors"

var (
	ErrInvalidInput = errors.New("rbac: invalid input")
	ErrDenied       = errors.New("rbac: permission denied")
)
