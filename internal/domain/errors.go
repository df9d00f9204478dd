package domain

import "errors"

// Domain errors represent failure conditions shared across layers.
var (
	// Object errors
	ErrObjectNotFound     = errors.New("object not found")
	ErrUnsupportedKind    = errors.New("unsupported object kind")
	ErrInvalidObjectRef   = errors.New("invalid object reference")
	ErrNoImages           = errors.New("no images found")
	ErrChannelOutOfRange  = errors.New("channel index out of range")
	ErrPlaneOutOfRange    = errors.New("default plane outside image dimensions")
	ErrPartialStats       = errors.New("min and max must be set together when the channel has no statistics")
	ErrRenderingEngine    = errors.New("failed to prepare rendering engine")
	ErrMultipleImageStyle = errors.New("output styles not supported for multiple images")

	// Session errors
	ErrNotLoggedIn      = errors.New("not logged in")
	ErrLoginFailed      = errors.New("login failed")
	ErrSessionExpired   = errors.New("session expired")
	ErrMissingServer    = errors.New("no server configured")
	ErrUnsupportedAPI   = errors.New("server does not offer a supported API version")
	ErrNotSupported     = errors.New("operation not supported by the server gateway")
	ErrCommandRenamed   = errors.New("'edit' command has been renamed to 'set'")
	ErrUnsupportedStyle = errors.New("unsupported output style")
)
