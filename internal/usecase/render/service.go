// Package render implements the rendering settings use cases.
package render

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/ome/omero-render/internal/boundaries/out"
	"github.com/ome/omero-render/internal/domain"
)

// DefaultThumbnailWorkers bounds concurrent thumbnail requests.
const DefaultThumbnailWorkers = 4

// Config tunes the service.
type Config struct {
	ThumbnailSize    int
	ThumbnailWorkers int
}

// Formatter renders the settings of one image for an output style.
type Formatter func(*domain.RenderingSettings) (string, error)

// Option configures a Service.
type Option func(*Service)

// WithOutput sets the writers for results and per-image errors.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(s *Service) {
		s.out = stdout
		s.errOut = stderr
	}
}

// WithFormatter registers an additional info style.
func WithFormatter(style string, f Formatter) Option {
	return func(s *Service) {
		s.formatters[style] = f
	}
}

// WithClock replaces the time source used for timings.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// Service implements the info, copy, set and test commands.
type Service struct {
	gw         out.Gateway
	cfg        Config
	log        zerolog.Logger
	out        io.Writer
	errOut     io.Writer
	now        func() time.Time
	formatters map[string]Formatter
}

// NewService creates a new render service.
func NewService(gw out.Gateway, cfg Config, log zerolog.Logger, opts ...Option) *Service {
	if cfg.ThumbnailSize <= 0 {
		cfg.ThumbnailSize = domain.DefaultThumbnailSize
	}
	if cfg.ThumbnailWorkers <= 0 {
		cfg.ThumbnailWorkers = DefaultThumbnailWorkers
	}

	s := &Service{
		gw:     gw,
		cfg:    cfg,
		log:    log,
		out:    os.Stdout,
		errOut: os.Stderr,
		now:    time.Now,
		formatters: map[string]Formatter{
			domain.StylePlain: formatPlain,
			domain.StyleJSON:  formatJSON,
			domain.StyleYAML:  formatYAML,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// withUseCase tags the logger for one use case and stores it on ctx.
func (s *Service) withUseCase(ctx context.Context, name string) (context.Context, *zerolog.Logger) {
	log := s.log.With().
		Str("layer", "usecase").
		Str("usecase", name).
		Logger()
	return log.WithContext(ctx), &log
}

func (s *Service) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(s.out, format, args...)
}

func (s *Service) errorf(format string, args ...any) {
	_, _ = fmt.Fprintf(s.errOut, format, args...)
}
