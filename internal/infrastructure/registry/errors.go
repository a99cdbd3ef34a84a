package registry

import (
	"errors"
	"fmt"
)

// ErrServiceDown indicates the registry answered with its overload
// notice or could not be reached on any configured host. The condition
// is transient; callers may retry later.
var ErrServiceDown = errors.New("registry temporarily unavailable")

// ErrEnvelope indicates the registry answered with a payload that does
// not match any known envelope shape.
var ErrEnvelope = errors.New("unexpected registry envelope")

// Application error codes the client reacts to.
const (
	// codeNumberNotFound is returned when the street exists but the
	// requested number does not.
	codeNumberNotFound = 43
)

// AppError is an application-level error the registry reports inside
// an HTTP 200 response.
type AppError struct {
	Code    int
	Message string
}

func (e *AppError) Error() string {
	return fmt.Sprintf("registry error %d: %s", e.Code, e.Message)
}
