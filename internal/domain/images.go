package domain

// DefaultThumbnailSize is the longest side, in pixels, of warmed thumbnails.
const DefaultThumbnailSize = 96

// Image is a handle to a remote image. Two images are the same image when
// their IDs match.
type Image struct {
	ID         int64
	Name       string
	PixelsID   int64
	PixelsType string
	SizeX      int
	SizeY      int
	SizeZ      int
	SizeC      int
	SizeT      int
}

// Ref returns the object reference for the image.
func (i Image) Ref() ObjectRef {
	return ObjectRef{Kind: KindImage, ID: i.ID}
}

// ApplyResult reports which targets accepted copied rendering settings.
type ApplyResult struct {
	Succeeded []int64
	Failed    []int64
}

// ChannelNameCounts reports the outcome of a bulk channel rename.
type ChannelNameCounts struct {
	ImageCount  int
	UpdateCount int
}

// PixelsStatus is the outcome of probing an image's pixel data.
type PixelsStatus string

const (
	PixelsOK     PixelsStatus = "ok"
	PixelsMiss   PixelsStatus = "miss"
	PixelsFill   PixelsStatus = "fill"
	PixelsCancel PixelsStatus = "cancel"
	PixelsFail   PixelsStatus = "fail"
)
