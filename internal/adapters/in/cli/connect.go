package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/AlecAivazis/survey/v2"

	"github.com/ome/omero-render/internal/adapters/in/cli/session"
	"github.com/ome/omero-render/internal/adapters/in/cli/ui/components"
	"github.com/ome/omero-render/internal/adapters/out/omeroweb"
	"github.com/ome/omero-render/internal/boundaries/in"
	"github.com/ome/omero-render/internal/domain"
	"github.com/ome/omero-render/internal/usecase/render"
)

// EnvPassword is read when --password is not given.
const EnvPassword = "OMERO_RENDER_PASSWORD"

// prompter asks the user for credentials.
type prompter interface {
	Username() (string, error)
	Password(user, server string) (string, error)
}

type surveyPrompter struct{}

func (surveyPrompter) Username() (string, error) {
	var user string
	err := survey.AskOne(&survey.Input{Message: "Username:"}, &user, survey.WithValidator(survey.Required))
	return user, err
}

func (surveyPrompter) Password(user, server string) (string, error) {
	var password string
	prompt := &survey.Password{Message: fmt.Sprintf("Password for %s@%s:", user, server)}
	err := survey.AskOne(prompt, &password)
	return password, err
}

// target resolves the server and session to use from flags, environment,
// config and the saved sessions.
func (a *app) target(store *session.Store) (session.Target, error) {
	explicit := session.Target{
		User:     a.opts.user,
		Group:    a.opts.group,
		Key:      a.opts.key,
		Insecure: a.opts.insecure,
	}
	if a.opts.server != "" {
		u, err := session.NormalizeURL(a.opts.server, a.opts.port)
		if err != nil {
			return session.Target{}, err
		}
		explicit.URL = u
	}

	configured := session.Target{
		User:     a.cfg.Server.User,
		Group:    a.cfg.Server.Group,
		Insecure: a.cfg.Server.Insecure,
	}
	if a.cfg.Server.Host != "" {
		u, err := session.NormalizeURL(a.cfg.Server.Host, a.cfg.Server.Port)
		if err != nil {
			return session.Target{}, fmt.Errorf("server.host: %w", err)
		}
		configured.URL = u
	}

	t := store.Resolve(explicit, configured)
	if t.URL == "" {
		return t, domain.ErrMissingServer
	}
	return t, nil
}

// newClient builds the web client for t from the loaded configuration.
func (a *app) newClient(t session.Target) *omeroweb.Client {
	return omeroweb.NewClient(t.URL,
		omeroweb.WithTimeout(a.cfg.Server.Timeout),
		omeroweb.WithInsecureTLS(t.Insecure),
		omeroweb.WithRateLimit(a.cfg.Client.RateLimit, a.cfg.Client.RateBurst),
		omeroweb.WithServerID(a.cfg.Server.ServerID),
		omeroweb.WithLogger(a.log),
	)
}

// open connects to the resolved server, joining the saved session when
// possible and logging in otherwise. New sessions are saved as active.
func (a *app) open(ctx context.Context, forceLogin bool) (*omeroweb.Client, *omeroweb.Session, error) {
	store, err := session.Load(a.sessionsPath())
	if err != nil {
		return nil, nil, err
	}
	t, err := a.target(store)
	if err != nil {
		return nil, nil, err
	}

	client := a.newClient(t)

	var sess *omeroweb.Session
	if t.Key != "" && !forceLogin {
		sess, err = client.Join(ctx, t.Key)
		switch {
		case err == nil:
			a.log.Debug().Str("url", t.URL).Msg("Joined session")
			if sess.UserName == "" {
				sess.UserName = t.User
			}
		case errors.Is(err, domain.ErrSessionExpired), errors.Is(err, domain.ErrNotLoggedIn):
			_ = cliWriteLine(a.stderr, cliRenderWarning("Session expired, logging in again"))
			sess = nil
		default:
			return nil, nil, fmt.Errorf("failed to join session: %w", err)
		}
	}

	if sess == nil {
		if sess, err = a.login(ctx, client, t); err != nil {
			return nil, nil, fmt.Errorf("failed to log in to %s: %w", t.URL, err)
		}
	}

	if t.Group != "" && t.Group != sess.GroupName {
		if err := client.SwitchGroup(ctx, t.Group); err != nil {
			return nil, nil, fmt.Errorf("failed to switch to group %s: %w", t.Group, err)
		}
		sess = client.Session()
	}

	store.Put(session.Entry{
		URL:      t.URL,
		User:     sess.UserName,
		Group:    t.Group,
		Key:      sess.Key,
		Insecure: t.Insecure,
		Created:  a.now().UTC(),
	})
	if err := session.Save(a.sessionsPath(), store); err != nil {
		a.log.Warn().Err(err).Msg("Failed to save session")
	}

	return client, sess, nil
}

func (a *app) login(ctx context.Context, client *omeroweb.Client, t session.Target) (*omeroweb.Session, error) {
	user := t.User
	if user == "" {
		u, err := a.prompt.Username()
		if err != nil {
			return nil, fmt.Errorf("failed to read username: %w", err)
		}
		user = u
	}

	password := a.opts.password
	if password == "" {
		password = os.Getenv(EnvPassword)
	}
	if password == "" {
		p, err := a.prompt.Password(user, t.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to read password: %w", err)
		}
		password = p
	}

	sess, err := client.Login(ctx, omeroweb.Credentials{Username: user, Password: password})
	if err != nil {
		return nil, err
	}
	a.log.Debug().Str("url", t.URL).Str("user", user).Msg("Logged in")
	return sess, nil
}

// webConnection adapts a logged-in web client to the commands.
type webConnection struct {
	client *omeroweb.Client
	a      *app
}

func connectGateway(ctx context.Context, a *app) (connection, error) {
	client, _, err := a.open(ctx, false)
	if err != nil {
		return nil, err
	}
	return &webConnection{client: client, a: a}, nil
}

func (c *webConnection) Service(stdout, stderr io.Writer) in.RenderService {
	cfg := render.Config{
		ThumbnailSize:    c.a.cfg.Client.ThumbnailSize,
		ThumbnailWorkers: c.a.cfg.Client.ThumbnailWorkers,
	}
	return render.NewService(c.client, cfg, c.a.log,
		render.WithOutput(stdout, stderr),
		render.WithFormatter(domain.StyleTable, tableFormatter),
	)
}

func (c *webConnection) Close(ctx context.Context) error {
	return c.client.Close(ctx)
}

func tableFormatter(rs *domain.RenderingSettings) (string, error) {
	return components.SettingsView(rs), nil
}
