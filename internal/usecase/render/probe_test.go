package render

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ome/omero-render/internal/domain"
)

func TestTest_Statuses(t *testing.T) {
	tests := []struct {
		name       string
		pixelsErr  error
		fillErr    error
		opts       domain.TestOptions
		wantLine   string
		wantProbes []bool
		wantThumbs []int64
	}{
		{
			name:       "ok",
			wantLine:   "ok: Pixels:10 Image:1 0 \n",
			wantProbes: []bool{true},
		},
		{
			name:       "ok with thumbnail",
			opts:       domain.TestOptions{Thumb: true},
			wantLine:   "ok: Pixels:10 Image:1 0 \n",
			wantProbes: []bool{true},
			wantThumbs: []int64{1},
		},
		{
			name:       "miss",
			pixelsErr:  errors.New("missing pyramid\nstack trace"),
			opts:       domain.TestOptions{Thumb: true},
			wantLine:   "miss: Pixels:10 Image:1 0 missing pyramid\n",
			wantProbes: []bool{true},
		},
		{
			name:       "fill",
			pixelsErr:  errors.New("missing pyramid"),
			opts:       domain.TestOptions{Force: true},
			wantLine:   "fill: Pixels:10 Image:1 0 \n",
			wantProbes: []bool{true, false},
		},
		{
			name:       "fail",
			pixelsErr:  errors.New("missing pyramid"),
			fillErr:    errors.New("pixels corrupt"),
			opts:       domain.TestOptions{Force: true},
			wantLine:   "fail: Pixels:10 Image:1 0 pixels corrupt\n",
			wantProbes: []bool{true, false},
		},
		{
			name:       "cancel",
			pixelsErr:  errors.New("missing pyramid"),
			fillErr:    fmt.Errorf("pyramid build: %w", context.Canceled),
			opts:       domain.TestOptions{Force: true},
			wantLine:   "cancel: Pixels:10 Image:1 0 pyramid build: context canceled\n",
			wantProbes: []bool{true, false},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := newFakeGateway()
			gw.addImage(1, 1)
			gw.pixelsErr[1] = tt.pixelsErr
			gw.fillErr[1] = tt.fillErr
			svc, stdout, _ := newTestService(gw)

			err := svc.Test(context.Background(), domain.ObjectRef{Kind: domain.KindImage, ID: 1}, tt.opts)

			require.NoError(t, err)
			assert.Equal(t, tt.wantLine, stdout.String())
			assert.Equal(t, tt.wantProbes, gw.probes)
			assert.Equal(t, tt.wantThumbs, gw.thumbs)
		})
	}
}

func TestTest_WalksContainers(t *testing.T) {
	gw := hierarchyGateway()
	svc, stdout, _ := newTestService(gw)

	err := svc.Test(context.Background(), domain.ObjectRef{Kind: domain.KindPlate, ID: 20}, domain.TestOptions{})

	require.NoError(t, err)
	assert.Equal(t, "ok: Pixels:50 Image:5 0 \nok: Pixels:60 Image:6 0 \n", stdout.String())
}

func TestTest_MissingObject(t *testing.T) {
	svc, _, _ := newTestService(newFakeGateway())

	err := svc.Test(context.Background(), domain.ObjectRef{Kind: domain.KindImage, ID: 3}, domain.TestOptions{})

	assert.Equal(t, domain.ExitNoSuchObject, domain.ExitCode(err))
}
