package render

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/ome/omero-render/internal/boundaries/out"
	"github.com/ome/omero-render/internal/domain"
)

// Walk flattens refs into the images they contain. Images come in batches
// of at most batch images; a batch never spans two datasets or plates, and
// a single Image ref is its own batch. Projects expand to their datasets and
// screens to their plates. The sequence stops after the first error.
func Walk(ctx context.Context, browser out.ObjectBrowser, refs []domain.ObjectRef, batch int) iter.Seq2[[]domain.Image, error] {
	if batch < 1 {
		batch = 1
	}
	return func(yield func([]domain.Image, error) bool) {
		w := &walker{ctx: ctx, browser: browser, batch: batch, yield: yield}
		for _, ref := range refs {
			if !w.walk(ref) {
				return
			}
		}
	}
}

type walker struct {
	ctx     context.Context
	browser out.ObjectBrowser
	batch   int
	yield   func([]domain.Image, error) bool
}

// walk returns false once iteration must stop.
func (w *walker) walk(ref domain.ObjectRef) bool {
	if err := w.ctx.Err(); err != nil {
		w.yield(nil, err)
		return false
	}

	switch ref.Kind {
	case domain.KindImage:
		img, err := w.browser.GetImage(w.ctx, ref.ID)
		if err != nil {
			return w.fail(ref, err)
		}
		return w.yield([]domain.Image{*img}, nil)

	case domain.KindDataset:
		images, err := w.browser.ListDatasetImages(w.ctx, ref.ID)
		if err != nil {
			return w.fail(ref, err)
		}
		return w.emit(images)

	case domain.KindPlate:
		images, err := w.browser.ListPlateImages(w.ctx, ref.ID)
		if err != nil {
			return w.fail(ref, err)
		}
		return w.emit(images)

	case domain.KindProject:
		datasets, err := w.browser.ListProjectDatasets(w.ctx, ref.ID)
		if err != nil {
			return w.fail(ref, err)
		}
		for _, id := range datasets {
			if !w.walk(domain.ObjectRef{Kind: domain.KindDataset, ID: id}) {
				return false
			}
		}
		return true

	case domain.KindScreen:
		plates, err := w.browser.ListScreenPlates(w.ctx, ref.ID)
		if err != nil {
			return w.fail(ref, err)
		}
		for _, id := range plates {
			if !w.walk(domain.ObjectRef{Kind: domain.KindPlate, ID: id}) {
				return false
			}
		}
		return true
	}

	w.yield(nil, domain.NewExitError(domain.ExitUnsupportedKind, domain.ErrUnsupportedKind,
		"Unsupported object: %s", ref))
	return false
}

func (w *walker) fail(ref domain.ObjectRef, err error) bool {
	if errors.Is(err, domain.ErrObjectNotFound) {
		err = domain.NewExitError(domain.ExitNoSuchObject, err, "No such %s: %d", ref.Kind, ref.ID)
	} else {
		err = fmt.Errorf("failed to load %s: %w", ref, err)
	}
	w.yield(nil, err)
	return false
}

func (w *walker) emit(images []domain.Image) bool {
	for start := 0; start < len(images); start += w.batch {
		end := min(start+w.batch, len(images))
		if !w.yield(images[start:end:end], nil) {
			return false
		}
	}
	return true
}
