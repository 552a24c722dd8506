package samcard

import "errors"

// Messages of these errors are what callers find in additionalFields["error"].
var (
	ErrApplicationNotFound  = errors.New("SAM application not found")
	ErrAuthenticationFailed = errors.New("SAM authentication failed")
	ErrNoDevice             = errors.New("No device provided")
)
