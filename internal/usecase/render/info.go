package render

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/ome/omero-render/internal/domain"
	"github.com/ome/omero-render/pkg/renderdef"
)

// Info prints the rendering settings of every image under ref.
func (s *Service) Info(ctx context.Context, ref domain.ObjectRef, opts domain.InfoOptions) error {
	ctx, log := s.withUseCase(ctx, "Info")

	style := opts.Style
	if style == "" {
		style = domain.StylePlain
	}
	format, ok := s.formatters[style]
	if !ok {
		return fmt.Errorf("%w: %s (expected one of %s)", domain.ErrUnsupportedStyle, style, strings.Join(s.styles(), ", "))
	}

	first := true
	for batch, err := range Walk(ctx, s.gw, []domain.ObjectRef{ref}, 1) {
		if err != nil {
			return err
		}
		img := batch[0]

		if style == domain.StyleJSON && !first {
			return domain.NewExitError(domain.ExitUnreadable, domain.ErrMultipleImageStyle,
				"Output styles not supported for multiple images")
		}

		rs, err := s.gw.GetRenderingSettings(ctx, img.ID)
		if err != nil {
			log.Debug().Err(err).Int64("image_id", img.ID).Msg("failed to load rendering settings")
			s.errorf("ERROR: %v\n", err)
			continue
		}

		text, err := format(rs)
		if err != nil {
			s.errorf("ERROR: %v\n", err)
			continue
		}
		s.printf("%s\n", strings.TrimRight(text, "\n"))
		first = false
	}
	return nil
}

func (s *Service) styles() []string {
	styles := make([]string, 0, len(s.formatters))
	for style := range s.formatters {
		styles = append(styles, style)
	}
	slices.Sort(styles)
	return styles
}

func formatPlain(rs *domain.RenderingSettings) (string, error) {
	return rs.String(), nil
}

func formatJSON(rs *domain.RenderingSettings) (string, error) {
	b, err := SettingsDocument(rs).Encode(renderdef.FormatJSON)
	return string(b), err
}

func formatYAML(rs *domain.RenderingSettings) (string, error) {
	b, err := SettingsDocument(rs).Encode(renderdef.FormatYAML)
	return string(b), err
}

// SettingsDocument converts server-side settings into a version 2 document
// that "set" accepts back.
func SettingsDocument(rs *domain.RenderingSettings) *renderdef.Document {
	greyscale := rs.Greyscale()
	z := rs.DefaultZ + 1
	t := rs.DefaultT + 1

	doc := &renderdef.Document{
		Version:   renderdef.CurrentVersion,
		Channels:  make(map[int]renderdef.ChannelSetting, len(rs.Channels)),
		Greyscale: &greyscale,
		Z:         &z,
		T:         &t,
	}
	for i, ch := range rs.Channels {
		label := ch.Label
		color := ch.Color
		active := ch.Active
		doc.Channels[i+1] = renderdef.ChannelSetting{
			EmissionWave: ch.EmissionWave,
			Label:        &label,
			Color:        &color,
			Active:       &active,
			Min:          ch.Min,
			Max:          ch.Max,
			Start:        ch.Start,
			End:          ch.End,
		}
	}
	return doc
}
