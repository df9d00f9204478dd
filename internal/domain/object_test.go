package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ome/omero-render/internal/domain"
)

func TestParseObjectRef(t *testing.T) {
	tests := []struct {
		in   string
		want domain.ObjectRef
	}{
		{"123", domain.ObjectRef{Kind: domain.KindImage, ID: 123}},
		{"Image:5", domain.ObjectRef{Kind: domain.KindImage, ID: 5}},
		{"image:5", domain.ObjectRef{Kind: domain.KindImage, ID: 5}},
		{"Dataset:7", domain.ObjectRef{Kind: domain.KindDataset, ID: 7}},
		{"Project:1", domain.ObjectRef{Kind: domain.KindProject, ID: 1}},
		{"Screen:2", domain.ObjectRef{Kind: domain.KindScreen, ID: 2}},
		{"PLATE:3", domain.ObjectRef{Kind: domain.KindPlate, ID: 3}},
		{"OriginalFile:9", domain.ObjectRef{Kind: domain.KindOriginalFile, ID: 9}},
		{" Image:-1 ", domain.ObjectRef{Kind: domain.KindImage, ID: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := domain.ParseObjectRef(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseObjectRef_Invalid(t *testing.T) {
	_, err := domain.ParseObjectRef("")
	assert.ErrorIs(t, err, domain.ErrInvalidObjectRef)

	_, err = domain.ParseObjectRef("Image:abc")
	assert.ErrorIs(t, err, domain.ErrInvalidObjectRef)

	_, err = domain.ParseObjectRef("Well:3")
	assert.ErrorIs(t, err, domain.ErrUnsupportedKind)
}

func TestParseObjectRefs_StopsOnFirstError(t *testing.T) {
	refs, err := domain.ParseObjectRefs([]string{"1", "Dataset:2"})
	require.NoError(t, err)
	assert.Equal(t, []domain.ObjectRef{
		{Kind: domain.KindImage, ID: 1},
		{Kind: domain.KindDataset, ID: 2},
	}, refs)

	_, err = domain.ParseObjectRefs([]string{"1", "nope:x"})
	assert.Error(t, err)
}

func TestObjectRefString(t *testing.T) {
	assert.Equal(t, "Plate:42", domain.ObjectRef{Kind: domain.KindPlate, ID: 42}.String())
	assert.Equal(t, "Image:3", domain.Image{ID: 3}.Ref().String())
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, domain.ExitCode(nil))
	assert.Equal(t, domain.ExitGeneric, domain.ExitCode(errors.New("boom")))

	exitErr := domain.NewExitError(domain.ExitNoSuchObject, domain.ErrObjectNotFound, "No such %s: %d", domain.KindImage, 4)
	wrapped := fmt.Errorf("walk: %w", exitErr)
	assert.Equal(t, domain.ExitNoSuchObject, domain.ExitCode(wrapped))
	assert.ErrorIs(t, wrapped, domain.ErrObjectNotFound)
	assert.Equal(t, "No such Image: 4", exitErr.Error())
}
