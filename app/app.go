package app

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/mandelsoft/vfs/pkg/memoryfs"

	"go.hackfix.me/switchyard/app/config"
	actx "go.hackfix.me/switchyard/app/context"
	aerrors "go.hackfix.me/switchyard/app/errors"
	"go.hackfix.me/switchyard/cli"
	"go.hackfix.me/switchyard/db"
)

// dbFileName is the name of the SQLite database file in the data directory.
const dbFileName = "switchyard.db"

// App is the application.
type App struct {
	name string
	ctx  *actx.Context
	cli  *cli.CLI
	// the logging level is set via the CLI, if the app was initialized with the
	// WithLogger option.
	logLevel *slog.LevelVar
}

// New initializes a new application.
func New(name, configFilePath, dataDir string, opts ...Option) (*App, error) {
	version, err := actx.GetVersion()
	if err != nil {
		return nil, err
	}

	defaultCtx := &actx.Context{
		Ctx:     context.Background(),
		FS:      memoryfs.New(),
		Logger:  slog.Default(),
		TimeNow: time.Now,
		Version: version,
	}
	app := &App{name: name, ctx: defaultCtx}

	for _, opt := range opts {
		opt(app)
	}

	ver := fmt.Sprintf("%s %s", app.name, app.ctx.Version.String())
	app.cli, err = cli.New(configFilePath, dataDir, ver)
	if err != nil {
		return nil, err
	}

	return app, nil
}

// Run initializes the application environment and starts execution of the
// application.
func (app *App) Run(args []string) error {
	if err := app.cli.Parse(args); err != nil {
		return err
	}

	if app.logLevel != nil {
		app.logLevel.Set(app.cli.Log.Level)
		slog.SetLogLoggerLevel(app.cli.Log.Level)
	}

	if app.ctx.Config == nil {
		cfg := config.NewConfig(app.ctx.FS, app.cli.ConfigFile)
		if err := cfg.Load(); err != nil {
			return aerrors.NewRuntimeError("failed loading configuration", err,
				fmt.Sprintf("Check the contents of %s", app.cli.ConfigFile))
		}
		app.ctx.Config = cfg
	}
	app.ctx.Config.SetDefaults()

	if app.ctx.DB == nil {
		d, err := app.openDB()
		if err != nil {
			return err
		}
		app.ctx.DB = d
		defer func() {
			_ = d.Close()
			app.ctx.DB = nil
		}()
	}

	if err := app.ctx.DB.Init(app.ctx.Version.Semantic, app.ctx.Logger); err != nil {
		return aerrors.NewRuntimeError("failed initializing database", err, "")
	}

	app.cli.ApplyConfig(app.ctx.Config)

	if err := app.cli.Execute(app.ctx); err != nil {
		return err
	}

	return nil
}

func (app *App) openDB() (*db.DB, error) {
	if err := app.ctx.FS.MkdirAll(app.cli.DataDir, 0o700); err != nil {
		return nil, aerrors.NewRuntimeError("failed creating data directory", err, "")
	}

	dbPath := filepath.Join(app.cli.DataDir, dbFileName)
	d, err := db.Open(app.ctx.Ctx, dbPath, app.ctx.TimeNow)
	if err != nil {
		return nil, aerrors.NewRuntimeError("failed opening database", err, "")
	}
	app.ctx.Logger.Debug("opened database", "path", dbPath)

	return d, nil
}
