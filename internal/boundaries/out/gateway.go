package out

import (
	"context"

	"github.com/ome/omero-render/internal/domain"
)

// ObjectBrowser walks the container hierarchy on the server. Listing the
// children of a container that does not exist returns an error wrapping
// domain.ErrObjectNotFound.
type ObjectBrowser interface {
	// GetImage loads a single image.
	GetImage(ctx context.Context, id int64) (*domain.Image, error)

	// ListProjectDatasets returns the IDs of the datasets linked to a project.
	ListProjectDatasets(ctx context.Context, projectID int64) ([]int64, error)

	// ListDatasetImages returns the images of a dataset in server order.
	ListDatasetImages(ctx context.Context, datasetID int64) ([]domain.Image, error)

	// ListScreenPlates returns the IDs of the plates linked to a screen.
	ListScreenPlates(ctx context.Context, screenID int64) ([]int64, error)

	// ListPlateImages returns the image of every well sample, well by well.
	ListPlateImages(ctx context.Context, plateID int64) ([]domain.Image, error)
}

// RenderingStore reads and writes rendering definitions.
type RenderingStore interface {
	// GetRenderingSettings loads the current rendering definition of an image.
	GetRenderingSettings(ctx context.Context, imageID int64) (*domain.RenderingSettings, error)

	// ApplySettingsToSet copies the rendering definition of sourceID to targets.
	ApplySettingsToSet(ctx context.Context, sourceID int64, targetIDs []int64) (domain.ApplyResult, error)

	// SaveRendering applies and saves a rendering change as the image default.
	SaveRendering(ctx context.Context, imageID int64, update domain.RenderingUpdate) error

	// UpdateChannelStats replaces channel statistics bounds.
	UpdateChannelStats(ctx context.Context, imageID int64, stats []domain.ChannelStats) error

	// SetChannelNames renames channels (1-based keys) on every listed image.
	SetChannelNames(ctx context.Context, imageIDs []int64, names map[int]string) (domain.ChannelNameCounts, error)

	// Thumbnail requests a thumbnail so the server caches it.
	Thumbnail(ctx context.Context, imageID int64, size int) error
}

// PixelsProbe checks that the pixel data behind an image is readable.
type PixelsProbe interface {
	// CheckPixels opens the pixel store. With failIfMissing false the server
	// may build missing pixel data before answering.
	CheckPixels(ctx context.Context, img domain.Image, failIfMissing bool) error
}

// FileStore reads files attached to the server.
type FileStore interface {
	// ReadOriginalFile returns the name and content of an original file.
	ReadOriginalFile(ctx context.Context, id int64) (string, []byte, error)
}

// Gateway is the complete server connection used by the render commands.
type Gateway interface {
	ObjectBrowser
	RenderingStore
	PixelsProbe
	FileStore

	// Close releases the server session resources held by the connection.
	Close(ctx context.Context) error
}
