package render

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/ome/omero-render/internal/domain"
)

// Test probes the pixel data of every image under ref and prints one status
// line per image.
func (s *Service) Test(ctx context.Context, ref domain.ObjectRef, opts domain.TestOptions) error {
	ctx, log := s.withUseCase(ctx, "Test")

	start := s.now()
	counts := make(map[domain.PixelsStatus]int)
	total := 0
	for batch, err := range Walk(ctx, s.gw, []domain.ObjectRef{ref}, 1) {
		if err != nil {
			return err
		}
		status := s.testImage(ctx, batch[0], opts)
		counts[status]++
		total++
	}

	log.Info().
		Int(string(domain.PixelsOK), counts[domain.PixelsOK]).
		Int(string(domain.PixelsMiss), counts[domain.PixelsMiss]).
		Int(string(domain.PixelsFill), counts[domain.PixelsFill]).
		Int(string(domain.PixelsFail), counts[domain.PixelsFail]).
		Int(string(domain.PixelsCancel), counts[domain.PixelsCancel]).
		Msgf("tested %s images in %s", humanize.Comma(int64(total)), strings.TrimSpace(humanize.RelTime(start, s.now(), "", "")))
	return nil
}

func (s *Service) testImage(ctx context.Context, img domain.Image, opts domain.TestOptions) domain.PixelsStatus {
	start := s.now()
	status := domain.PixelsOK

	probeErr := s.gw.CheckPixels(ctx, img, true)
	if probeErr != nil {
		status = domain.PixelsMiss
		if opts.Force {
			probeErr = s.gw.CheckPixels(ctx, img, false)
			switch {
			case probeErr == nil:
				status = domain.PixelsFill
			case errors.Is(probeErr, context.Canceled):
				status = domain.PixelsCancel
			default:
				status = domain.PixelsFail
			}
		}
	}

	if probeErr == nil && opts.Thumb {
		probeErr = s.gw.Thumbnail(ctx, img.ID, domain.DefaultThumbnailSize)
	}

	elapsed := s.now().Sub(start)
	s.printf("%s: Pixels:%d Image:%d %s %s\n", status, img.PixelsID, img.ID, seconds(elapsed), firstLine(probeErr))
	return status
}

func seconds(d time.Duration) string {
	return humanize.FtoaWithDigits(d.Seconds(), 3)
}

func firstLine(err error) string {
	if err == nil {
		return ""
	}
	line, _, _ := strings.Cut(err.Error(), "\n")
	return line
}
