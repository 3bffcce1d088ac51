package interactions

import "errors"

var (
	ErrAlreadyLoaded     = errors.New("interactions: already loaded")
	ErrNotLoaded         = errors.New("interactions: not loaded")
	ErrMissingCapability = errors.New("interactions: app does not satisfy the required capabilities")

	ErrListenerNotFound = errors.New("interactions: listener not found")
	ErrListenerPanic    = errors.New("interactions: listener panicked")

	ErrDispatcherStopped = errors.New("interactions: dispatcher is stopped")

	ErrAlreadyResponded = errors.New("interactions: interaction was already responded to")
	ErrModalNotAllowed  = errors.New("interactions: a modal cannot be sent in response to a modal")

	ErrTooManyItems     = errors.New("interactions: a view cannot have more than 25 items")
	ErrDuplicateItem    = errors.New("interactions: custom id already used")
	ErrNotPersistent    = errors.New("interactions: view is not persistent")
	ErrViewStarted      = errors.New("interactions: view was already started")
	ErrMissingMessageID = errors.New("interactions: message id is required")

	ErrTooManyInputs = errors.New("interactions: a modal cannot have more than 5 text inputs")
	ErrModalStarted  = errors.New("interactions: modal was already started")
)
