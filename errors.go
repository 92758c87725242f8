package browserpilot

import "errors"

var (
	// Fatal errors: observing any of these terminates the task.
	ErrConnectionFailed      = errors.New("failed to connect to tool provider")
	ErrNoToolsAvailable      = errors.New("no tools available from provider")
	ErrSessionCreationFailed = errors.New("failed to create browser session")
	ErrCancelled             = errors.New("cancelled by user")
	ErrLoopLimitExceeded     = errors.New("max iterations exceeded")
	ErrNavigationFailed      = errors.New("primary navigation failed")

	// Validation errors: rejected before a task starts.
	ErrEmptyPrompt        = errors.New("prompt is empty")
	ErrTaskAlreadyRunning = errors.New("another task is already running")
	ErrTaskNotFound       = errors.New("task not found")
	ErrNoTrace            = errors.New("task has no stored trace")
	ErrInvalidTrace       = errors.New("invalid replay trace")

	ErrInvalidTool      = errors.New("invalid tool specification")
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrInvalidInput     = errors.New("invalid input")
)
