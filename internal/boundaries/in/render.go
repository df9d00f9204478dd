// Package in defines input ports (interfaces) for use cases.
package in

import (
	"context"

	"github.com/ome/omero-render/internal/domain"
)

// RenderService defines the rendering settings commands.
type RenderService interface {
	// Info prints the rendering settings of every image under ref.
	Info(ctx context.Context, ref domain.ObjectRef, opts domain.InfoOptions) error

	// Copy copies the settings of every image under source to the targets.
	Copy(ctx context.Context, source domain.ObjectRef, targets []domain.ObjectRef, opts domain.CopyOptions) error

	// Set applies a settings document to every image under targets.
	Set(ctx context.Context, targets []domain.ObjectRef, source string, opts domain.SetOptions) error

	// Test probes pixel data availability of every image under ref.
	Test(ctx context.Context, ref domain.ObjectRef, opts domain.TestOptions) error
}
