package cli

import (
	"io"

	"github.com/qianfeiqianlan/2048-clash/internal/config"
	"github.com/qianfeiqianlan/2048-clash/internal/identity"
	"github.com/qianfeiqianlan/2048-clash/internal/kv"
	"github.com/qianfeiqianlan/2048-clash/internal/ledger"
	"github.com/qianfeiqianlan/2048-clash/internal/remote"
	"github.com/qianfeiqianlan/2048-clash/internal/scores"
	"golang.org/x/text/message"
)

// App is everything a command needs: local storage, the session, the score
// service client and the coordinator on top of them.
type App struct {
	Config  config.ClientConfig
	Session *identity.Session
	Client  *remote.Client
	Ledger  *ledger.Ledger
	Scores  *scores.Coordinator
	Printer *message.Printer

	closer io.Closer
}

// OpenApp opens the SQLite store at cfg.DataPath.
func OpenApp(cfg config.ClientConfig) (*App, error) {
	store, err := kv.OpenSQLite(cfg.DataPath)
	if err != nil {
		return nil, err
	}
	app := NewApp(cfg, store)
	app.closer = store
	return app, nil
}

func NewApp(cfg config.ClientConfig, store kv.Store) *App {
	session := identity.NewSession(store)
	client := remote.NewClient(cfg.APIURL, cfg.Timeout, session)
	l := ledger.New(store, identity.BrowserID(store), session)
	return &App{
		Config:  cfg,
		Session: session,
		Client:  client,
		Ledger:  l,
		Scores:  scores.New(l, client, session, scores.Options{}),
		Printer: NewPrinter(cfg.Language),
	}
}

func (a *App) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}
