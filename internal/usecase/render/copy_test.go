package render

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ome/omero-render/internal/domain"
)

func copyGateway() *fakeGateway {
	gw := newFakeGateway()
	for id := int64(1); id <= 4; id++ {
		gw.addImage(id, 2)
	}
	gw.datasets[10] = []int64{1, 2, 3, 4}
	return gw
}

func TestCopy_BatchesAndSkipsSource(t *testing.T) {
	gw := copyGateway()
	gw.applyFailed[4] = true
	svc, stdout, stderr := newTestService(gw)

	err := svc.Copy(context.Background(),
		domain.ObjectRef{Kind: domain.KindImage, ID: 1},
		[]domain.ObjectRef{{Kind: domain.KindDataset, ID: 10}},
		domain.CopyOptions{BatchSize: 2})

	require.NoError(t, err)
	assert.Equal(t, [][]int64{{2}, {3, 4}}, gw.applyCalls)
	assert.Equal(t, "Skipping: Image:1 itself\nError: Image:4\n", stderr.String())
	assert.Equal(t,
		"Rendering settings successfully copied to 1 images.\nRendering settings successfully copied to 1 images.\n",
		stdout.String())
	assert.Equal(t, []int64{2, 3}, gw.sortedThumbs())
}

func TestCopy_DefaultBatchAndSkipThumbs(t *testing.T) {
	gw := copyGateway()
	svc, stdout, _ := newTestService(gw)

	err := svc.Copy(context.Background(),
		domain.ObjectRef{Kind: domain.KindImage, ID: 1},
		[]domain.ObjectRef{{Kind: domain.KindDataset, ID: 10}, {Kind: domain.KindImage, ID: 2}},
		domain.CopyOptions{SkipThumbs: true})

	require.NoError(t, err)
	assert.Equal(t, [][]int64{{2, 3, 4}, {2}}, gw.applyCalls)
	assert.Equal(t,
		"Rendering settings successfully copied to 3 images.\nRendering settings successfully copied to 1 images.\n",
		stdout.String())
	assert.Empty(t, gw.sortedThumbs())
}

func TestCopy_EverySourceImage(t *testing.T) {
	gw := copyGateway()
	gw.datasets[11] = []int64{1, 2}
	svc, _, _ := newTestService(gw)

	err := svc.Copy(context.Background(),
		domain.ObjectRef{Kind: domain.KindDataset, ID: 11},
		[]domain.ObjectRef{{Kind: domain.KindImage, ID: 3}},
		domain.CopyOptions{SkipThumbs: true})

	require.NoError(t, err)
	assert.Equal(t, [][]int64{{3}, {3}}, gw.applyCalls)
}

func TestCopy_MissingTarget(t *testing.T) {
	gw := copyGateway()
	svc, _, _ := newTestService(gw)

	err := svc.Copy(context.Background(),
		domain.ObjectRef{Kind: domain.KindImage, ID: 1},
		[]domain.ObjectRef{{Kind: domain.KindPlate, ID: 5}},
		domain.CopyOptions{})

	assert.Equal(t, domain.ExitNoSuchObject, domain.ExitCode(err))
	assert.Empty(t, gw.applyCalls)
}
