package cli

import (
	"context"
	"database/sql"
	"io"
	"os"

	"github.com/dmitrijs2005/efactura/internal/archive"
	"github.com/dmitrijs2005/efactura/internal/auth"
	"github.com/dmitrijs2005/efactura/internal/config"
	"github.com/dmitrijs2005/efactura/internal/console"
	"github.com/dmitrijs2005/efactura/internal/dbx"
	"github.com/dmitrijs2005/efactura/internal/efactura"
	"github.com/dmitrijs2005/efactura/internal/ledger"
	"github.com/dmitrijs2005/efactura/internal/logging"
	"github.com/dmitrijs2005/efactura/internal/netx"
	"github.com/dmitrijs2005/efactura/internal/retrieval"
	"github.com/dmitrijs2005/efactura/internal/tokens"
)

// App holds the components shared by the commands. The rate limiter and the
// HTTP client are process-wide: OAuth, data and transform calls all go
// through the same client.
type App struct {
	config  *config.Config
	log     logging.Logger
	console *console.Console
	client  *netx.Client
	store   *tokens.Store
	stdin   *os.File
	stderr  io.Writer

	db *sql.DB
}

func NewApp(c *config.Config, stdout, stderr io.Writer) *App {
	log := logging.NewTextLogger(stderr, c.Debug)
	client := netx.NewClient(netx.NewRateLimiter(c.RateInterval), c.HTTPTimeout)
	endpoint := tokens.NewEndpoint(client, c.TokenURL, c.ClientID, c.ClientSecret)

	return &App{
		config:  c,
		log:     log,
		console: console.New(stdout, c.NoColor),
		client:  client,
		store:   tokens.NewStore(tokens.NewFileRepository(c.TokenFile), endpoint, log),
		stdin:   os.Stdin,
		stderr:  stderr,
	}
}

// Close releases the state database, if it was opened.
func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

func (a *App) openLedger(ctx context.Context) (*ledger.Ledger, error) {
	if a.db == nil {
		db, err := dbx.OpenSQLite(ctx, a.config.StateDB)
		if err != nil {
			return nil, err
		}
		a.db = db
	}
	return ledger.New(a.db, a.config.DailyQuota), nil
}

func (a *App) newFlow() *auth.Flow {
	c := a.config

	var connector auth.Connector
	if c.ConnectorCmd != "" {
		connector = auth.NewCommandConnector(c.ConnectorCmd, c.ConnectorGrace, a.log)
	}

	return auth.NewFlow(auth.Config{
		AuthURL:      c.AuthURL,
		ClientID:     c.ClientID,
		RedirectURI:  c.Redirect(),
		ForceLogin:   c.ForceLogin,
		RedirectWait: c.RedirectWait,
		MaxAttempts:  auth.DefaultMaxAttempts,
	},
		a.store,
		auth.NewCallbackServer(c.CallbackPort, a.log),
		connector,
		auth.BrowserOpener{},
		auth.NewTerminalPrompter(a.stdin, a.stderr),
		a.log,
	)
}

func (a *App) apiBase() (string, error) {
	if a.config.APIBase != "" {
		return a.config.APIBase, nil
	}
	return efactura.BaseURL(a.config.Env)
}

// pipeline builds the fetch pipeline for an authenticated run.
func (a *App) pipeline(ctx context.Context) (*retrieval.Service, error) {
	c := a.config

	base, err := a.apiBase()
	if err != nil {
		return nil, err
	}
	caller := efactura.NewCaller(a.client, base, a.store, a.log)

	l, err := a.openLedger(ctx)
	if err != nil {
		return nil, err
	}

	deps := retrieval.Deps{
		Lister:    efactura.NewLister(caller),
		Fetcher:   efactura.NewDownloader(caller),
		Converter: efactura.NewConverter(caller, c.Standard, c.Validation),
		Ledger:    l,
		Console:   a.console,
		Log:       a.log,
	}
	if c.S3.Enabled() {
		m, err := archive.NewS3Mirror(ctx, c.S3, c.Dest, a.log)
		if err != nil {
			return nil, err
		}
		deps.Mirror = m
	}

	return retrieval.New(deps, retrieval.Options{
		Root: c.Dest,
		Days: c.Days,
		PDF:  c.PDF,
	}), nil
}
