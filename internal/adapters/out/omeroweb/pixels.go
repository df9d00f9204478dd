package omeroweb

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"net/url"

	"github.com/ome/omero-render/internal/domain"
)

// CheckPixels renders a single-pixel region, which fails when the pixel data
// cannot be read. Building missing pixel data is not available over the web
// gateway, so failIfMissing=false reports domain.ErrNotSupported.
func (c *Client) CheckPixels(ctx context.Context, img domain.Image, failIfMissing bool) error {
	if !failIfMissing {
		return fmt.Errorf("%w: creating pixel data for Image:%d", domain.ErrNotSupported, img.ID)
	}
	resp, err := c.do(ctx, request{
		method: http.MethodGet,
		path:   fmt.Sprintf("/webgateway/render_image_region/%d/0/0/", img.ID),
		query:  url.Values{"tile": {"0,0,0,1,1"}},
	})
	if err != nil {
		return err
	}
	return discard(resp)
}

// ReadOriginalFile downloads an original file.
func (c *Client) ReadOriginalFile(ctx context.Context, id int64) (string, []byte, error) {
	resp, err := c.do(ctx, request{method: http.MethodGet, path: fmt.Sprintf("/webgateway/original_file/%d/", id)})
	if err != nil {
		return "", nil, err
	}
	data, err := readAll(resp)
	if err != nil {
		return "", nil, err
	}

	name := fmt.Sprintf("OriginalFile-%d", id)
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil && params["filename"] != "" {
		name = params["filename"]
	}
	return name, data, nil
}
