package omeroweb

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/ome/omero-render/internal/domain"
)

// supportedAPI matches the JSON API major versions this client speaks.
var supportedAPI = mustConstraint(">= 0, < 1")

func mustConstraint(s string) *semver.Constraints {
	c, err := semver.NewConstraint(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Session identifies an authenticated server session.
type Session struct {
	Key       string
	UserID    int64
	UserName  string
	GroupID   int64
	GroupName string
}

// Credentials are the username and password of an OMERO account.
type Credentials struct {
	Username string
	Password string
}

type eventContext struct {
	SessionUUID string `json:"sessionUuid"`
	UserID      int64  `json:"userId"`
	UserName    string `json:"userName"`
	GroupID     int64  `json:"groupId"`
	GroupName   string `json:"groupName"`
}

// Connect negotiates the JSON API version and fetches a CSRF token.
func (c *Client) Connect(ctx context.Context) error {
	var versions struct {
		Data []struct {
			Version string `json:"version"`
			Base    string `json:"url:base"`
		} `json:"data"`
	}
	if err := c.call(ctx, request{method: http.MethodGet, path: "/api/"}, &versions); err != nil {
		return fmt.Errorf("failed to discover api: %w", err)
	}

	var best *semver.Version
	var base string
	offered := make([]string, 0, len(versions.Data))
	for _, v := range versions.Data {
		offered = append(offered, v.Version)
		ver, err := semver.NewVersion(v.Version)
		if err != nil || !supportedAPI.Check(ver) {
			continue
		}
		if best == nil || ver.GreaterThan(best) {
			best = ver
			base = v.Base
		}
	}
	if best == nil {
		return fmt.Errorf("%w: server offers [%s]", domain.ErrUnsupportedAPI, strings.Join(offered, ", "))
	}
	if base != "" {
		c.apiBase = strings.TrimSuffix(base, "/")
	} else {
		c.apiBase = fmt.Sprintf("%s/api/v%s", c.baseURL, best.Original())
	}
	c.log.Debug().Str("version", best.String()).Str("url", c.apiBase).Msg("negotiated api")

	return c.refreshToken(ctx)
}

func (c *Client) refreshToken(ctx context.Context) error {
	var token struct {
		Data string `json:"data"`
	}
	if err := c.call(ctx, request{method: http.MethodGet, path: c.api("/token/")}, &token); err != nil {
		return fmt.Errorf("failed to fetch csrf token: %w", err)
	}
	c.mu.Lock()
	c.csrf = token.Data
	c.mu.Unlock()
	return nil
}

// api returns the absolute URL of a JSON API path.
func (c *Client) api(path string) string {
	return c.apiBase + path
}

// Login opens a new session with a username and password.
func (c *Client) Login(ctx context.Context, creds Credentials) (*Session, error) {
	if err := c.Connect(ctx); err != nil {
		return nil, err
	}

	form := url.Values{
		"server":   {strconv.Itoa(c.serverID)},
		"username": {creds.Username},
		"password": {creds.Password},
	}
	var result struct {
		Success      bool         `json:"success"`
		Message      string       `json:"message"`
		EventContext eventContext `json:"eventContext"`
	}
	err := c.call(ctx, request{method: http.MethodPost, path: c.api("/login/"), form: form}, &result)
	if err != nil {
		if errors.Is(err, domain.ErrNotLoggedIn) {
			return nil, fmt.Errorf("%w: %v", domain.ErrLoginFailed, err)
		}
		return nil, err
	}
	if !result.Success {
		return nil, fmt.Errorf("%w: %s", domain.ErrLoginFailed, result.Message)
	}

	ec := result.EventContext
	sess := &Session{
		Key:       ec.SessionUUID,
		UserID:    ec.UserID,
		UserName:  ec.UserName,
		GroupID:   ec.GroupID,
		GroupName: ec.GroupName,
	}
	c.setSession(sess)

	if err := c.refreshToken(ctx); err != nil {
		return nil, err
	}
	return sess, nil
}

// Join attaches to an existing session by key.
func (c *Client) Join(ctx context.Context, key string) (*Session, error) {
	if err := c.Connect(ctx); err != nil {
		return nil, err
	}

	query := url.Values{
		"bsession": {key},
		"server":   {strconv.Itoa(c.serverID)},
	}
	resp, err := c.do(ctx, request{method: http.MethodGet, path: "/webclient/", query: query})
	if err != nil {
		return nil, err
	}
	if resp.Request != nil && strings.Contains(resp.Request.URL.Path, "/login/") {
		_ = resp.Body.Close()
		return nil, domain.ErrSessionExpired
	}
	if err := discard(resp); err != nil {
		if errors.Is(err, domain.ErrNotLoggedIn) {
			return nil, fmt.Errorf("%w: %v", domain.ErrSessionExpired, err)
		}
		return nil, err
	}

	sess := &Session{Key: key}
	c.setSession(sess)
	if err := c.refreshToken(ctx); err != nil {
		return nil, err
	}
	return sess, nil
}

// SwitchGroup makes group, given by ID or name, the active group.
func (c *Client) SwitchGroup(ctx context.Context, group string) error {
	id, err := strconv.ParseInt(group, 10, 64)
	if err != nil {
		id, err = c.findGroup(ctx, group)
		if err != nil {
			return err
		}
	}

	form := url.Values{"active_group": {strconv.FormatInt(id, 10)}}
	resp, err := c.do(ctx, request{method: http.MethodPost, path: "/webclient/active_group/", form: form})
	if err != nil {
		return err
	}
	if err := discard(resp); err != nil {
		return fmt.Errorf("failed to switch to group %s: %w", group, err)
	}

	c.mu.Lock()
	if c.session != nil {
		c.session.GroupID = id
	}
	c.mu.Unlock()
	return nil
}

func (c *Client) findGroup(ctx context.Context, name string) (int64, error) {
	groups, err := listAll[namedObject](ctx, c, c.api("/m/experimentergroups/"))
	if err != nil {
		return 0, fmt.Errorf("failed to list groups: %w", err)
	}
	for _, g := range groups {
		if g.Name == name {
			return g.ID, nil
		}
	}
	return 0, fmt.Errorf("%w: group %s", domain.ErrObjectNotFound, name)
}

// Logout closes the current session on the server.
func (c *Client) Logout(ctx context.Context) error {
	resp, err := c.do(ctx, request{method: http.MethodPost, path: "/webclient/logout/", form: url.Values{}})
	if err != nil {
		return err
	}
	if err := discard(resp); err != nil {
		return fmt.Errorf("failed to log out: %w", err)
	}
	c.setSession(nil)
	return nil
}

// Session returns the current session, or nil before Login or Join.
func (c *Client) Session() *Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

func (c *Client) setSession(s *Session) {
	c.mu.Lock()
	c.session = s
	c.mu.Unlock()
}

// Close releases idle connections. The server session stays open so it can
// be joined again.
func (c *Client) Close(context.Context) error {
	c.http.HTTPClient.CloseIdleConnections()
	return nil
}
