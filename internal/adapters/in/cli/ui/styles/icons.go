package styles

// Plain-text markers; the output is often piped into scripts and logs.
const (
	IconSuccess = "✓"
	IconError   = "✗"
	IconWarning = "!"
	IconInfo    = "i"
	IconBullet  = "▸"
	IconActive  = "●"
	IconOff     = "○"
)
