package render

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ome/omero-render/internal/domain"
	"github.com/ome/omero-render/pkg/renderdef"
)

// Set applies the settings document at source to every image under targets.
// Source is a local path or an OriginalFile reference.
func (s *Service) Set(ctx context.Context, targets []domain.ObjectRef, source string, opts domain.SetOptions) error {
	ctx, log := s.withUseCase(ctx, "Set")

	doc, err := s.loadDocument(ctx, source)
	if err != nil {
		return documentExitError(source, err)
	}
	for _, ch := range doc.SortedChannels() {
		log.Debug().Int("channel", ch.Index).Interface("settings", ch.Map()).Msg("document channel")
	}

	var touched []int64
	for batch, err := range Walk(ctx, s.gw, targets, 1) {
		if err != nil {
			return err
		}
		img := batch[0]
		touched = append(touched, img.ID)

		if err := s.applyDocument(ctx, log, img, doc, opts); err != nil {
			var exitErr *domain.ExitError
			if errors.As(err, &exitErr) {
				return err
			}
			s.errorf("ERROR: Image:%d %v\n", img.ID, err)
			continue
		}
		log.Debug().Int64("image_id", img.ID).Msg("updated rendering settings")

		if !opts.SkipThumbs {
			s.warmThumbnails(ctx, []domain.Image{img})
		}
	}

	if len(touched) == 0 {
		names := make([]string, len(targets))
		for i, t := range targets {
			names[i] = t.String()
		}
		return domain.NewExitError(domain.ExitNoImages, domain.ErrNoImages,
			"ERROR: No images found for %s", strings.Join(names, " "))
	}

	names := doc.Names()
	if len(names) == 0 {
		return nil
	}
	counts, err := s.gw.SetChannelNames(ctx, touched, names)
	if err != nil {
		return fmt.Errorf("failed to update channel names: %w", err)
	}
	log.Debug().
		Int("images", counts.ImageCount).
		Int("channels", counts.UpdateCount).
		Msgf("Updated channel names for %d/%d images", counts.ImageCount, len(touched))
	return nil
}

// loadDocument reads the document from an OriginalFile reference or a path.
func (s *Service) loadDocument(ctx context.Context, source string) (*renderdef.Document, error) {
	ref, err := domain.ParseObjectRef(source)
	if err != nil || ref.Kind != domain.KindOriginalFile {
		return renderdef.Load(source)
	}

	name, data, err := s.gw.ReadOriginalFile(ctx, ref.ID)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %v", renderdef.ErrUnreadable, ref, err)
	}
	return renderdef.Parse(data, renderdef.FormatFromName(name))
}

func documentExitError(source string, err error) error {
	switch {
	case errors.Is(err, renderdef.ErrUnreadable):
		return domain.NewExitError(domain.ExitUnreadable, err, "Could not read %s: %v", source, err)
	case errors.Is(err, renderdef.ErrNoChannels):
		return domain.NewExitError(domain.ExitNoChannels, err, "ERROR: No channels found in %s", source)
	case errors.Is(err, renderdef.ErrUnknownVersion):
		return domain.NewExitError(domain.ExitUnknownVersion, err,
			"ERROR: Cannot determine version. Specify version or use either start/end or min/max (not both).")
	}
	return domain.NewExitError(domain.ExitInvalidSettings, err, "ERROR: %v", err)
}

// applyDocument saves the document as the rendering default of one image.
func (s *Service) applyDocument(ctx context.Context, log *zerolog.Logger, img domain.Image, doc *renderdef.Document, opts domain.SetOptions) error {
	z, err := checkPlane("Z", doc.Z, img.SizeZ, opts.IgnoreErrors, log)
	if err != nil {
		return err
	}
	t, err := checkPlane("T", doc.T, img.SizeT, opts.IgnoreErrors, log)
	if err != nil {
		return err
	}

	current, err := s.gw.GetRenderingSettings(ctx, img.ID)
	if err != nil {
		return err
	}

	update, stats, err := planUpdate(doc, current, opts, log)
	if err != nil {
		return err
	}
	update.DefaultZ = z
	update.DefaultT = t

	if len(stats) > 0 {
		if err := s.gw.UpdateChannelStats(ctx, img.ID, stats); err != nil {
			return fmt.Errorf("failed to update channel statistics: %w", err)
		}
	}
	if err := s.gw.SaveRendering(ctx, img.ID, update); err != nil {
		return fmt.Errorf("failed to save rendering settings: %w", err)
	}
	return nil
}

// checkPlane returns the plane to save, or nil to keep the current one. A
// size of zero means the image dimension is unknown.
func checkPlane(axis string, plane *int, size int, ignore bool, log *zerolog.Logger) (*int, error) {
	if plane == nil || size <= 0 || *plane <= size {
		return plane, nil
	}
	msg := fmt.Sprintf("Inconsistent default %s plane. Expected to set %d but the image dimension is %d",
		axis, *plane, size)
	if ignore {
		log.Debug().Msg(msg)
		return nil, nil
	}
	return nil, domain.NewExitError(domain.ExitPlaneMismatch, domain.ErrPlaneOutOfRange, "ERROR: %s", msg)
}

// planUpdate computes the full per-channel state to save from the document
// and the current settings, plus the statistics to replace.
func planUpdate(doc *renderdef.Document, current *domain.RenderingSettings, opts domain.SetOptions, log *zerolog.Logger) (domain.RenderingUpdate, []domain.ChannelStats, error) {
	sizeC := len(current.Channels)
	plan := doc.Plan()

	for _, ch := range doc.SortedChannels() {
		if ch.Index <= sizeC {
			continue
		}
		if !opts.IgnoreErrors {
			return domain.RenderingUpdate{}, nil, fmt.Errorf("%w: channel %d, image has %d channels",
				domain.ErrChannelOutOfRange, ch.Index, sizeC)
		}
		log.Debug().Int("channel", ch.Index).Int("size_c", sizeC).Msg("ignoring channel out of range")
	}

	var update domain.RenderingUpdate
	for idx := 1; idx <= sizeC; idx++ {
		cu := domain.ChannelUpdate{Index: idx}
		switch {
		case plan.Activated(idx):
			cu.Active = true
			if w, ok := plan.Windows[idx]; ok {
				cu.Start, cu.End = w.Low, w.High
			}
			if c, ok := plan.Colors[idx]; ok {
				cu.Color = &c
			}
		case plan.Deactivated(idx):
			cu.Active = false
		default:
			cu.Active = !opts.Disable && current.Channels[idx-1].Active
		}
		update.Channels = append(update.Channels, cu)
	}

	if doc.Greyscale != nil {
		update.Model = domain.ModelColor
		if *doc.Greyscale {
			update.Model = domain.ModelGreyscale
		}
	}

	var stats []domain.ChannelStats
	for idx := 1; idx <= sizeC; idx++ {
		r, ok := plan.Stats[idx]
		if !ok {
			continue
		}
		if !current.Channels[idx-1].HasStats && (r.Low == nil || r.High == nil) {
			return domain.RenderingUpdate{}, nil, fmt.Errorf("%w: channel %d", domain.ErrPartialStats, idx)
		}
		stats = append(stats, domain.ChannelStats{Index: idx, Min: r.Low, Max: r.High})
	}

	return update, stats, nil
}
