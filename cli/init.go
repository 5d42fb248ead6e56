package cli

import (
	"fmt"

	"github.com/mandelsoft/vfs/pkg/vfs"

	actx "go.hackfix.me/switchyard/app/context"
	aerrors "go.hackfix.me/switchyard/app/errors"
	"go.hackfix.me/switchyard/db/queries"
)

// The Init command creates the configuration file with default values, unless
// it already exists, and the Switchyard database. The database schema is
// always brought up to date on startup, so this only matters for the first
// run.
type Init struct{}

// Run the init command.
func (c *Init) Run(appCtx *actx.Context) error {
	cfgPath := appCtx.Config.Path()
	exists, err := vfs.Exists(appCtx.FS, cfgPath)
	if err != nil {
		return aerrors.NewRuntimeError("failed checking configuration file", err, "")
	}
	if !exists {
		if err = appCtx.Config.Save(); err != nil {
			return aerrors.NewRuntimeError("failed writing configuration file", err, "")
		}
		appCtx.Logger.Info("created configuration file", "path", cfgPath)
	}

	version, err := queries.Version(appCtx.DB.NewContext(), appCtx.DB)
	if err != nil {
		return aerrors.NewRuntimeError("failed reading database version", err,
			"Make sure the data directory is writable.")
	}
	fmt.Fprintf(appCtx.Stdout, "Switchyard is initialized with version %s\n", version.V)

	return nil
}
