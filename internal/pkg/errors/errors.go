package errors

import "errors"

// Custom application errors
var (
	ErrReminderNotFound  = errors.New("reminder not found")
	ErrItemNotFound      = errors.New("item not found")
	ErrJobNotFound       = errors.New("job not found")
	ErrStaleAction       = errors.New("notification is no longer live")    // Action on an alert that was already handled
	ErrUnknownAction     = errors.New("unknown notification action")       // Action name not one of open/complete/snooze/dismiss
	ErrMalformedRequest  = errors.New("malformed bridge request")          // Bridge request missing required fields
	ErrDatabaseOperation = errors.New("database operation failed")         // Generic database error
	ErrLineAPI           = errors.New("LINE API request failed")           // Generic LINE API error
	ErrScheduling        = errors.New("scheduling failed")                 // Generic wake timer error
	ErrUnknownJob        = errors.New("unknown job kind")                  // Job row with a kind no handler exists for
	ErrLaunch            = errors.New("failed to launch background entry") // Application background entry point could not start
	ErrInternalServer    = errors.New("internal server error")             // Generic internal error
)
