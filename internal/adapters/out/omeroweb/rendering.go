package omeroweb

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/ome/omero-render/internal/domain"
)

const statsInfoType = "http://www.openmicroscopy.org/Schemas/OME/2016-06#StatsInfo"

type windowJSON struct {
	Min   *float64 `json:"min"`
	Max   *float64 `json:"max"`
	Start *float64 `json:"start"`
	End   *float64 `json:"end"`
}

type imgDataJSON struct {
	ID   int64 `json:"id"`
	Meta struct {
		ImageName  string `json:"imageName"`
		PixelsType string `json:"pixelsType"`
	} `json:"meta"`
	PixelRange [2]float64 `json:"pixel_range"`
	Tiles      bool       `json:"tiles"`
	TileSize   struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	} `json:"tile_size"`
	Levels   int `json:"levels"`
	Channels []struct {
		EmissionWave *float64   `json:"emissionWave"`
		Label        string     `json:"label"`
		Color        string     `json:"color"`
		Active       bool       `json:"active"`
		Window       windowJSON `json:"window"`
	} `json:"channels"`
	Rdefs struct {
		Model      string `json:"model"`
		Projection string `json:"projection"`
		DefaultZ   int    `json:"defaultZ"`
		DefaultT   int    `json:"defaultT"`
	} `json:"rdefs"`
}

func (d imgDataJSON) settings(imageID int64) *domain.RenderingSettings {
	rs := &domain.RenderingSettings{
		ImageID:    imageID,
		Name:       d.Meta.ImageName,
		PixelsType: d.Meta.PixelsType,
		Tiles:      d.Tiles,
		TileWidth:  d.TileSize.Width,
		TileHeight: d.TileSize.Height,
		Levels:     d.Levels,
		PixelRange: d.PixelRange,
		Model:      d.Rdefs.Model,
		Projection: d.Rdefs.Projection,
		DefaultZ:   d.Rdefs.DefaultZ,
		DefaultT:   d.Rdefs.DefaultT,
	}
	for _, ch := range d.Channels {
		rs.Channels = append(rs.Channels, domain.ChannelInfo{
			EmissionWave: ch.EmissionWave,
			Label:        ch.Label,
			Color:        ch.Color,
			Active:       ch.Active,
			Min:          ch.Window.Min,
			Max:          ch.Window.Max,
			Start:        ch.Window.Start,
			End:          ch.Window.End,
			HasStats:     ch.Window.Min != nil && ch.Window.Max != nil,
		})
	}
	return rs
}

// GetRenderingSettings loads the current rendering definition of an image.
func (c *Client) GetRenderingSettings(ctx context.Context, imageID int64) (*domain.RenderingSettings, error) {
	var data imgDataJSON
	path := fmt.Sprintf("/webgateway/imgData/%d/", imageID)
	if err := c.call(ctx, request{method: http.MethodGet, path: path}, &data); err != nil {
		return nil, fmt.Errorf("failed to load rendering settings of Image:%d: %w", imageID, err)
	}
	return data.settings(imageID), nil
}

// ApplySettingsToSet copies the rendering definition of sourceID to targets.
func (c *Client) ApplySettingsToSet(ctx context.Context, sourceID int64, targetIDs []int64) (domain.ApplyResult, error) {
	src := strconv.FormatInt(sourceID, 10)
	resp, err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/webgateway/copyImgRDef/",
		query:  url.Values{"imageId": {src}},
	})
	if err != nil {
		return domain.ApplyResult{}, err
	}
	if err := discard(resp); err != nil {
		return domain.ApplyResult{}, fmt.Errorf("failed to copy rendering settings of Image:%d: %w", sourceID, err)
	}

	form := url.Values{"to_type": {"image"}}
	for _, id := range targetIDs {
		form.Add("toids", strconv.FormatInt(id, 10))
	}
	var result struct {
		Succeeded []int64 `json:"True"`
		Failed    []int64 `json:"False"`
	}
	err = c.call(ctx, request{
		method: http.MethodPost,
		path:   "/webgateway/applyRenderingSettings/",
		query:  url.Values{"fromid": {src}},
		form:   form,
	}, &result)
	if err != nil {
		return domain.ApplyResult{}, err
	}
	return domain.ApplyResult{Succeeded: result.Succeeded, Failed: result.Failed}, nil
}

// SaveRendering applies update and saves it as the image default.
func (c *Client) SaveRendering(ctx context.Context, imageID int64, update domain.RenderingUpdate) error {
	var current *domain.RenderingSettings
	if needsCurrentWindow(update.Channels) {
		var err error
		if current, err = c.GetRenderingSettings(ctx, imageID); err != nil {
			return err
		}
	}

	form := url.Values{"c": {channelParam(update.Channels, current)}}
	switch update.Model {
	case domain.ModelGreyscale:
		form.Set("m", "g")
	case domain.ModelColor:
		form.Set("m", "c")
	}
	if update.DefaultZ != nil {
		form.Set("z", strconv.Itoa(*update.DefaultZ))
	}
	if update.DefaultT != nil {
		form.Set("t", strconv.Itoa(*update.DefaultT))
	}

	var saved bool
	path := fmt.Sprintf("/webgateway/saveImgRDef/%d/", imageID)
	if err := c.call(ctx, request{method: http.MethodPost, path: path, form: form}, &saved); err != nil {
		return err
	}
	if !saved {
		return fmt.Errorf("%w: Image:%d was not saved", domain.ErrRenderingEngine, imageID)
	}
	return nil
}

func needsCurrentWindow(channels []domain.ChannelUpdate) bool {
	for _, ch := range channels {
		if (ch.Start == nil) != (ch.End == nil) {
			return true
		}
	}
	return false
}

// channelParam encodes channels in the webgateway "c" syntax:
// [-]index[|start:end][$color], comma separated.
func channelParam(channels []domain.ChannelUpdate, current *domain.RenderingSettings) string {
	parts := make([]string, 0, len(channels))
	for _, ch := range channels {
		var sb strings.Builder
		if !ch.Active {
			sb.WriteByte('-')
		}
		sb.WriteString(strconv.Itoa(ch.Index))

		start, end := ch.Start, ch.End
		if current != nil && ch.Index-1 < len(current.Channels) {
			cur := current.Channels[ch.Index-1]
			if start == nil && end != nil {
				start = cur.Start
			}
			if end == nil && start != nil {
				end = cur.End
			}
		}
		if start != nil && end != nil {
			fmt.Fprintf(&sb, "|%s:%s", formatFloat(*start), formatFloat(*end))
		}
		if ch.Color != nil {
			sb.WriteString("$" + *ch.Color)
		}
		parts = append(parts, sb.String())
	}
	return strings.Join(parts, ",")
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// UpdateChannelStats replaces the global min/max of the listed channels.
func (c *Client) UpdateChannelStats(ctx context.Context, imageID int64, stats []domain.ChannelStats) error {
	var result struct {
		Data struct {
			Pixels struct {
				Channels []map[string]any `json:"Channels"`
			} `json:"Pixels"`
		} `json:"data"`
	}
	if err := c.call(ctx, request{method: http.MethodGet, path: c.api(fmt.Sprintf("/m/images/%d/", imageID))}, &result); err != nil {
		return err
	}
	channels := result.Data.Pixels.Channels

	for _, st := range stats {
		if st.Index < 1 || st.Index > len(channels) {
			return fmt.Errorf("%w: channel %d", domain.ErrChannelOutOfRange, st.Index)
		}
		ch := channels[st.Index-1]
		info, _ := ch["StatsInfo"].(map[string]any)
		if info == nil {
			info = map[string]any{"@type": statsInfoType}
		}
		if st.Min != nil {
			info["GlobalMin"] = *st.Min
		}
		if st.Max != nil {
			info["GlobalMax"] = *st.Max
		}
		ch["StatsInfo"] = info

		if err := c.call(ctx, request{method: http.MethodPut, path: c.api("/m/save/"), json: ch}, nil); err != nil {
			return fmt.Errorf("failed to save statistics of channel %d: %w", st.Index, err)
		}
	}
	return nil
}

// SetChannelNames renames channels on every listed image.
func (c *Client) SetChannelNames(ctx context.Context, imageIDs []int64, names map[int]string) (domain.ChannelNameCounts, error) {
	form := url.Values{}
	for idx, name := range names {
		form.Set(fmt.Sprintf("channel%d", idx-1), name)
	}

	var counts domain.ChannelNameCounts
	for _, id := range imageIDs {
		var result struct {
			ImageCount  int `json:"imageCount"`
			UpdateCount int `json:"updateCount"`
		}
		path := fmt.Sprintf("/webclient/edit_channel_names/%d/", id)
		if err := c.call(ctx, request{method: http.MethodPost, path: path, form: form}, &result); err != nil {
			return counts, fmt.Errorf("failed to rename channels of Image:%d: %w", id, err)
		}
		counts.ImageCount += result.ImageCount
		counts.UpdateCount += result.UpdateCount
	}
	return counts, nil
}

// Thumbnail requests a thumbnail so the server caches it.
func (c *Client) Thumbnail(ctx context.Context, imageID int64, size int) error {
	resp, err := c.do(ctx, request{
		method: http.MethodGet,
		path:   fmt.Sprintf("/webgateway/render_thumbnail/%d/%d/", imageID, size),
	})
	if err != nil {
		return err
	}
	return discard(resp)
}
