package render

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ome/omero-render/internal/domain"
)

type fakeGateway struct {
	mu sync.Mutex

	images   map[int64]domain.Image
	projects map[int64][]int64
	datasets map[int64][]int64
	screens  map[int64][]int64
	plates   map[int64][]int64

	settings map[int64]*domain.RenderingSettings
	files    map[int64]fakeFile

	settingsErr map[int64]error
	saveErr     map[int64]error
	applyFailed map[int64]bool
	pixelsErr   map[int64]error
	fillErr     map[int64]error

	applyCalls  [][]int64
	saved       map[int64]domain.RenderingUpdate
	stats       map[int64][]domain.ChannelStats
	names       map[int]string
	namedImages []int64
	thumbs      []int64
	probes      []bool
}

type fakeFile struct {
	name string
	data []byte
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		images:      make(map[int64]domain.Image),
		projects:    make(map[int64][]int64),
		datasets:    make(map[int64][]int64),
		screens:     make(map[int64][]int64),
		plates:      make(map[int64][]int64),
		settings:    make(map[int64]*domain.RenderingSettings),
		files:       make(map[int64]fakeFile),
		settingsErr: make(map[int64]error),
		saveErr:     make(map[int64]error),
		applyFailed: make(map[int64]bool),
		pixelsErr:   make(map[int64]error),
		fillErr:     make(map[int64]error),
		saved:       make(map[int64]domain.RenderingUpdate),
		stats:       make(map[int64][]domain.ChannelStats),
	}
}

// addImage registers an image with sizeC active channels without statistics.
func (f *fakeGateway) addImage(id int64, sizeC int) domain.Image {
	img := domain.Image{ID: id, Name: fmt.Sprintf("img-%d", id), PixelsID: id * 10, SizeZ: 5, SizeT: 3, SizeC: sizeC}
	f.images[id] = img
	rs := &domain.RenderingSettings{ImageID: id, Name: img.Name, Model: domain.ModelColor}
	for i := 0; i < sizeC; i++ {
		rs.Channels = append(rs.Channels, domain.ChannelInfo{Label: fmt.Sprintf("ch%d", i+1), Color: "FFFFFF", Active: true})
	}
	f.settings[id] = rs
	return img
}

func (f *fakeGateway) imagesByID(ids []int64) ([]domain.Image, error) {
	out := make([]domain.Image, 0, len(ids))
	for _, id := range ids {
		out = append(out, f.images[id])
	}
	return out, nil
}

func (f *fakeGateway) GetImage(_ context.Context, id int64) (*domain.Image, error) {
	img, ok := f.images[id]
	if !ok {
		return nil, fmt.Errorf("image %d: %w", id, domain.ErrObjectNotFound)
	}
	return &img, nil
}

func (f *fakeGateway) ListProjectDatasets(_ context.Context, id int64) ([]int64, error) {
	ds, ok := f.projects[id]
	if !ok {
		return nil, domain.ErrObjectNotFound
	}
	return ds, nil
}

func (f *fakeGateway) ListDatasetImages(_ context.Context, id int64) ([]domain.Image, error) {
	ids, ok := f.datasets[id]
	if !ok {
		return nil, domain.ErrObjectNotFound
	}
	return f.imagesByID(ids)
}

func (f *fakeGateway) ListScreenPlates(_ context.Context, id int64) ([]int64, error) {
	plates, ok := f.screens[id]
	if !ok {
		return nil, domain.ErrObjectNotFound
	}
	return plates, nil
}

func (f *fakeGateway) ListPlateImages(_ context.Context, id int64) ([]domain.Image, error) {
	ids, ok := f.plates[id]
	if !ok {
		return nil, domain.ErrObjectNotFound
	}
	return f.imagesByID(ids)
}

func (f *fakeGateway) GetRenderingSettings(_ context.Context, id int64) (*domain.RenderingSettings, error) {
	if err := f.settingsErr[id]; err != nil {
		return nil, err
	}
	rs, ok := f.settings[id]
	if !ok {
		return nil, domain.ErrObjectNotFound
	}
	return rs, nil
}

func (f *fakeGateway) ApplySettingsToSet(_ context.Context, _ int64, targets []int64) (domain.ApplyResult, error) {
	f.applyCalls = append(f.applyCalls, append([]int64(nil), targets...))
	var res domain.ApplyResult
	for _, id := range targets {
		if f.applyFailed[id] {
			res.Failed = append(res.Failed, id)
			continue
		}
		res.Succeeded = append(res.Succeeded, id)
	}
	return res, nil
}

func (f *fakeGateway) SaveRendering(_ context.Context, id int64, update domain.RenderingUpdate) error {
	if err := f.saveErr[id]; err != nil {
		return err
	}
	f.saved[id] = update
	return nil
}

func (f *fakeGateway) UpdateChannelStats(_ context.Context, id int64, stats []domain.ChannelStats) error {
	f.stats[id] = stats
	return nil
}

func (f *fakeGateway) SetChannelNames(_ context.Context, ids []int64, names map[int]string) (domain.ChannelNameCounts, error) {
	f.names = names
	f.namedImages = append([]int64(nil), ids...)
	return domain.ChannelNameCounts{ImageCount: len(ids), UpdateCount: len(ids) * len(names)}, nil
}

func (f *fakeGateway) Thumbnail(_ context.Context, id int64, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.thumbs = append(f.thumbs, id)
	return nil
}

func (f *fakeGateway) sortedThumbs() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]int64(nil), f.thumbs...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (f *fakeGateway) CheckPixels(_ context.Context, img domain.Image, failIfMissing bool) error {
	f.probes = append(f.probes, failIfMissing)
	if failIfMissing {
		return f.pixelsErr[img.ID]
	}
	return f.fillErr[img.ID]
}

func (f *fakeGateway) ReadOriginalFile(_ context.Context, id int64) (string, []byte, error) {
	file, ok := f.files[id]
	if !ok {
		return "", nil, domain.ErrObjectNotFound
	}
	return file.name, file.data, nil
}

func (f *fakeGateway) Close(context.Context) error { return nil }

// newTestService returns a service writing to the returned buffers.
func newTestService(gw *fakeGateway, opts ...Option) (*Service, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	opts = append([]Option{
		WithOutput(&stdout, &stderr),
		WithClock(func() time.Time { return clock }),
	}, opts...)
	return NewService(gw, Config{}, zerolog.Nop(), opts...), &stdout, &stderr
}
