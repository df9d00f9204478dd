package domain

// Output styles for rendering settings.
const (
	StylePlain = "plain"
	StyleJSON  = "json"
	StyleYAML  = "yaml"
	StyleTable = "table"
)

// Styles lists the accepted output styles.
var Styles = []string{StylePlain, StyleTable, StyleJSON, StyleYAML}

// DefaultBatchSize is the number of target images handled per copy request.
const DefaultBatchSize = 100

// InfoOptions configures the info and get commands.
type InfoOptions struct {
	Style string
}

// CopyOptions configures the copy command.
type CopyOptions struct {
	SkipThumbs bool
	BatchSize  int
}

// SetOptions configures the set command.
type SetOptions struct {
	// Disable turns off every channel not listed in the document.
	Disable bool
	// IgnoreErrors skips settings that do not fit an image instead of failing.
	IgnoreErrors bool
	SkipThumbs   bool
}

// TestOptions configures the test command.
type TestOptions struct {
	// Force lets the server create missing pixel data.
	Force bool
	// Thumb also requests a thumbnail when the pixel data is available.
	Thumb bool
}
