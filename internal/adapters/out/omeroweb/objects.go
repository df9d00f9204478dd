package omeroweb

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/ome/omero-render/internal/domain"
)

// pageSize is the number of children requested per page.
var pageSize = 200

type namedObject struct {
	ID   int64  `json:"@id"`
	Name string `json:"Name"`
}

type pixelsJSON struct {
	ID    int64 `json:"@id"`
	SizeX int   `json:"SizeX"`
	SizeY int   `json:"SizeY"`
	SizeZ int   `json:"SizeZ"`
	SizeC int   `json:"SizeC"`
	SizeT int   `json:"SizeT"`
	Type  struct {
		Value string `json:"value"`
	} `json:"Type"`
}

type imageJSON struct {
	ID     int64      `json:"@id"`
	Name   string     `json:"Name"`
	Pixels pixelsJSON `json:"Pixels"`
}

func (i imageJSON) image() domain.Image {
	return domain.Image{
		ID:         i.ID,
		Name:       i.Name,
		PixelsID:   i.Pixels.ID,
		PixelsType: i.Pixels.Type.Value,
		SizeX:      i.Pixels.SizeX,
		SizeY:      i.Pixels.SizeY,
		SizeZ:      i.Pixels.SizeZ,
		SizeC:      i.Pixels.SizeC,
		SizeT:      i.Pixels.SizeT,
	}
}

type wellJSON struct {
	ID          int64 `json:"@id"`
	WellSamples []struct {
		Image imageJSON `json:"Image"`
	} `json:"WellSamples"`
}

type page[T any] struct {
	Data []T `json:"data"`
	Meta struct {
		TotalCount int `json:"totalCount"`
	} `json:"meta"`
}

// listAll follows limit/offset paging until every child is read.
func listAll[T any](ctx context.Context, c *Client, path string) ([]T, error) {
	var out []T
	offset := 0
	for {
		query := url.Values{
			"limit":  {strconv.Itoa(pageSize)},
			"offset": {strconv.Itoa(offset)},
		}
		var p page[T]
		if err := c.call(ctx, request{method: http.MethodGet, path: path, query: query}, &p); err != nil {
			return nil, err
		}
		out = append(out, p.Data...)
		offset += len(p.Data)
		if len(p.Data) == 0 || offset >= p.Meta.TotalCount {
			return out, nil
		}
	}
}

// exists checks that a container can be loaded.
func (c *Client) exists(ctx context.Context, kind string, id int64) error {
	return c.call(ctx, request{method: http.MethodGet, path: c.api(fmt.Sprintf("/m/%ss/%d/", kind, id))}, nil)
}

// GetImage loads a single image with its pixels description.
func (c *Client) GetImage(ctx context.Context, id int64) (*domain.Image, error) {
	var result struct {
		Data imageJSON `json:"data"`
	}
	if err := c.call(ctx, request{method: http.MethodGet, path: c.api(fmt.Sprintf("/m/images/%d/", id))}, &result); err != nil {
		return nil, err
	}
	img := result.Data.image()
	return &img, nil
}

// ListProjectDatasets returns the IDs of the datasets in a project.
func (c *Client) ListProjectDatasets(ctx context.Context, projectID int64) ([]int64, error) {
	return c.childIDs(ctx, "project", projectID, "datasets")
}

// ListScreenPlates returns the IDs of the plates in a screen.
func (c *Client) ListScreenPlates(ctx context.Context, screenID int64) ([]int64, error) {
	return c.childIDs(ctx, "screen", screenID, "plates")
}

func (c *Client) childIDs(ctx context.Context, kind string, id int64, children string) ([]int64, error) {
	if err := c.exists(ctx, kind, id); err != nil {
		return nil, err
	}
	objects, err := listAll[namedObject](ctx, c, c.api(fmt.Sprintf("/m/%ss/%d/%s/", kind, id, children)))
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(objects))
	for i, o := range objects {
		ids[i] = o.ID
	}
	return ids, nil
}

// ListDatasetImages returns the images of a dataset.
func (c *Client) ListDatasetImages(ctx context.Context, datasetID int64) ([]domain.Image, error) {
	if err := c.exists(ctx, "dataset", datasetID); err != nil {
		return nil, err
	}
	found, err := listAll[imageJSON](ctx, c, c.api(fmt.Sprintf("/m/datasets/%d/images/", datasetID)))
	if err != nil {
		return nil, err
	}
	images := make([]domain.Image, len(found))
	for i, img := range found {
		images[i] = img.image()
	}
	return images, nil
}

// ListPlateImages returns the image of every well sample, well by well.
func (c *Client) ListPlateImages(ctx context.Context, plateID int64) ([]domain.Image, error) {
	if err := c.exists(ctx, "plate", plateID); err != nil {
		return nil, err
	}
	wells, err := listAll[wellJSON](ctx, c, c.api(fmt.Sprintf("/m/plates/%d/wells/", plateID)))
	if err != nil {
		return nil, err
	}
	var images []domain.Image
	for _, well := range wells {
		for _, ws := range well.WellSamples {
			images = append(images, ws.Image.image())
		}
	}
	return images, nil
}
