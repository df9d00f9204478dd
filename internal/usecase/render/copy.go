package render

import (
	"context"
	"fmt"

	"github.com/ome/omero-render/internal/domain"
)

// Copy copies the rendering settings of every image under source to the
// images under targets, one server request per target batch.
func (s *Service) Copy(ctx context.Context, source domain.ObjectRef, targets []domain.ObjectRef, opts domain.CopyOptions) error {
	ctx, log := s.withUseCase(ctx, "Copy")

	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = domain.DefaultBatchSize
	}

	for srcBatch, err := range Walk(ctx, s.gw, []domain.ObjectRef{source}, 1) {
		if err != nil {
			return err
		}
		src := srcBatch[0]

		for batch, err := range Walk(ctx, s.gw, targets, batchSize) {
			if err != nil {
				return err
			}

			ids := make([]int64, 0, len(batch))
			byID := make(map[int64]domain.Image, len(batch))
			for _, img := range batch {
				if img.ID == src.ID {
					s.errorf("Skipping: Image:%d itself\n", img.ID)
					continue
				}
				if _, dup := byID[img.ID]; dup {
					continue
				}
				ids = append(ids, img.ID)
				byID[img.ID] = img
			}
			if len(ids) == 0 {
				continue
			}

			start := s.now()
			res, err := s.gw.ApplySettingsToSet(ctx, src.ID, ids)
			if err != nil {
				return fmt.Errorf("failed to copy rendering settings from Image:%d: %w", src.ID, err)
			}
			for _, id := range res.Failed {
				s.errorf("Error: Image:%d\n", id)
			}
			s.printf("Rendering settings successfully copied to %d images.\n", len(res.Succeeded))
			log.Debug().
				Int64("image_id", src.ID).
				Int("targets", len(ids)).
				Dur("duration", s.now().Sub(start)).
				Msg("copied rendering settings")

			if opts.SkipThumbs {
				continue
			}
			warm := make([]domain.Image, 0, len(res.Succeeded))
			for _, id := range res.Succeeded {
				if img, ok := byID[id]; ok {
					warm = append(warm, img)
				}
			}
			s.warmThumbnails(ctx, warm)
		}
	}
	return nil
}
