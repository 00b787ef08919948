package cli

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mmcdole/stacks/internal/api"
	"github.com/mmcdole/stacks/internal/config"
	"github.com/mmcdole/stacks/internal/domain"
	"github.com/mmcdole/stacks/internal/log"
	"github.com/mmcdole/stacks/internal/notify"
	"github.com/mmcdole/stacks/internal/session"
	"github.com/mmcdole/stacks/internal/store"
)

// App holds the collaborators shared by every command
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	KV      *store.KV
	Client  *api.Client
	Session *session.Store
	Notify  *notify.Queue
}

// sessionTokens reads the bearer token from the session store, which is
// created after the client it depends on.
type sessionTokens struct {
	session *session.Store
}

func (t *sessionTokens) Token() string {
	if t.session == nil {
		return ""
	}
	return t.session.Token()
}

// NewApp loads configuration and wires the client, session and
// notification stores. Logs go to stderr with --verbose (unless
// quiet is set), otherwise to the configured log file.
func NewApp(cmd *cobra.Command, opts *RootOptions, quiet bool) (*App, error) {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if !cfg.IsConfigured() {
		return nil, NewExitError(ExitCommandError, "no library server configured; run `stacks setup` or pass --server")
	}

	var logger *slog.Logger
	switch {
	case opts.Verbose && !quiet:
		logger = log.NewLogger(cmd.ErrOrStderr(), "DEBUG")
	case cfg.Logging.File == "":
		logger = log.NullLogger()
	default:
		logger, err = log.SetupLogger(&cfg.Logging)
		if err != nil {
			// Fall back to null logger if file logging fails
			logger = log.NullLogger()
		}
	}

	kv, err := store.Open(cfg.Session.StorePath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open session store", err)
	}

	tokens := &sessionTokens{}
	client := api.NewClient(cfg.Server.URL, tokens, logger, api.WithTimeout(cfg.Server.Timeout))
	sess := session.New(client, kv, logger)
	tokens.session = sess
	client.OnUnauthorized(sess.HandleUnauthorized)

	notes := notify.New(notify.Config{
		Logger:     logger,
		DefaultTTL: cfg.Notify.DefaultTTL,
		ErrorTTL:   cfg.Notify.ErrorTTL,
	})

	logger.Debug("app ready", "server", cfg.Server.URL, "store", cfg.Session.StorePath)

	return &App{
		Config:  cfg,
		Logger:  logger,
		KV:      kv,
		Client:  client,
		Session: sess,
		Notify:  notes,
	}, nil
}

// Close releases the session file and stops timers
func (a *App) Close() {
	a.Notify.Close()
	a.Session.Close()
	if err := a.KV.Close(); err != nil {
		a.Logger.Warn("failed to close session store", "error", err)
	}
}

// RequireSession restores the saved session and fails when nobody is signed in
func (a *App) RequireSession(ctx context.Context) (domain.Session, error) {
	a.Session.Init(ctx)
	sess := a.Session.Snapshot()
	if !sess.IsAuthenticated() {
		return sess, NewExitError(ExitFailure, "not signed in; run `stacks login` first")
	}
	return sess, nil
}

// loadConfig reads config.yaml and the environment. --server and --store
// win when given.
func loadConfig(cmd *cobra.Command, opts *RootOptions) (*config.Config, error) {
	v := viper.New()
	if f := cmd.Flag("server"); f != nil {
		if err := v.BindPFlag("server.url", f); err != nil {
			return nil, err
		}
	}
	if f := cmd.Flag("store"); f != nil {
		if err := v.BindPFlag("session.store_path", f); err != nil {
			return nil, err
		}
	}

	paths := config.SearchPaths()
	if opts.ConfigDir != "" {
		paths = []string{opts.ConfigDir}
	}
	return config.Load(v, paths...)
}

// reportFailure prints f and returns an already-reported exit error
func reportFailure(out *OutputFormatter, f *domain.Failure) error {
	_ = out.Error(string(f.Kind), f.Message, f.FieldErrors)
	return &ExitError{Code: ExitFailure}
}
