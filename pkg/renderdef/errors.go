package renderdef

import "errors"

var (
	ErrUnreadable          = errors.New("could not read rendering settings")
	ErrNoChannels          = errors.New("no channels found")
	ErrUnknownVersion      = errors.New("cannot determine version; specify version or use either start/end or min/max (not both)")
	ErrInvalidDocument     = errors.New("invalid rendering definition")
	ErrInvalidChannelIndex = errors.New("invalid channel index")
	ErrInvalidChannel      = errors.New("invalid channel description")
	ErrInvalidPlane        = errors.New("invalid default plane")
)
