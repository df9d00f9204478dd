package render

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/ome/omero-render/internal/domain"
)

// warmThumbnails requests a thumbnail for every image so the server caches
// them. Failures are logged and never abort the caller.
func (s *Service) warmThumbnails(ctx context.Context, images []domain.Image) {
	log := s.log.With().Str("layer", "usecase").Logger()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.ThumbnailWorkers)
	for _, img := range images {
		g.Go(func() error {
			start := s.now()
			if err := s.gw.Thumbnail(gctx, img.ID, s.cfg.ThumbnailSize); err != nil {
				log.Warn().Err(err).Int64("image_id", img.ID).Msg("thumbnail generation failed")
				return nil
			}
			log.Debug().
				Int64("image_id", img.ID).
				Dur("duration", s.now().Sub(start)).
				Msgf("Image:%d got thumbnail in %.2fs", img.ID, s.now().Sub(start).Seconds())
			return nil
		})
	}
	_ = g.Wait()
}
