package cli

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/alecthomas/kong"

	"go.hackfix.me/switchyard/app/config"
	actx "go.hackfix.me/switchyard/app/context"
)

// CLI is the command line interface of Switchyard.
type CLI struct {
	Init   Init   `kong:"cmd,help='Create the configuration file and database.'"`
	Serve  Serve  `kong:"cmd,help='Start the web server.'"`
	Routes Routes `kong:"cmd,help='List the API routes and their processing steps.'"`
	User   User   `kong:"cmd,help='Manage API users.'"`

	Log struct {
		Level slog.Level `enum:"DEBUG,INFO,WARN,ERROR" default:"INFO" help:"Set the app logging level."`
	} `embed:"" prefix:"log-"`
	// NOTE: Configuration is managed independently from the CLI, so
	// kong.ConfigFlag isn't used.
	ConfigFile string           `kong:"default='${configFile}',help='Path to the Switchyard configuration file.'"`
	DataDir    string           `kong:"default='${dataDir}',help='Path to the directory where Switchyard data is stored.'"`
	Version    kong.VersionFlag `kong:"help='Output version and exit.'"`

	kong *kong.Kong
	kctx *kong.Context
}

// New initializes the command-line interface.
func New(configFilePath, dataDir, version string) (*CLI, error) {
	c := &CLI{}
	kparser, err := kong.New(c,
		kong.Name("switchyard"),
		kong.Description("A web API server that processes requests through validated chains of steps."),
		kong.UsageOnError(),
		kong.DefaultEnvars("SWITCHYARD"),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			Summary:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"configFile": configFilePath,
			"dataDir":    dataDir,
			"version":    version,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed creating the Kong parser: %w", err)
	}

	c.kong = kparser

	return c, nil
}

// Execute starts the command execution. Parse must be called before this method.
func (c *CLI) Execute(appCtx *actx.Context) error {
	if c.kctx == nil {
		panic("the CLI wasn't initialized properly")
	}
	c.kong.Stdout = appCtx.Stdout
	c.kong.Stderr = appCtx.Stderr

	//nolint:wrapcheck // This is fine.
	return c.kctx.Run(appCtx)
}

// Parse the given command line arguments. This method must be called before
// Execute.
func (c *CLI) Parse(args []string) error {
	kctx, err := c.kong.Parse(args)
	if err != nil {
		return fmt.Errorf("failed parsing CLI arguments: %w", err)
	}
	c.kctx = kctx

	return nil
}

// Command returns the full path of the executed command.
func (c *CLI) Command() string {
	if c.kctx == nil {
		panic("the CLI wasn't initialized properly")
	}
	cmdPath := []string{}
	for _, p := range c.kctx.Path {
		if p.Command != nil {
			cmdPath = append(cmdPath, p.Command.Name)
		}
	}

	return strings.Join(cmdPath, " ")
}

// ApplyConfig applies configuration values to the CLI, but only if they weren't
// already set. The listen address is resolved by the serve command, since the
// PORT environment variable takes precedence over the configured value.
func (c *CLI) ApplyConfig(cfg *config.Config) {
	if !c.Serve.Strict && cfg.Server.StrictChains.Valid {
		c.Serve.Strict = cfg.Server.StrictChains.V
	}
	if c.Serve.ShutdownTimeout == 0 && cfg.Server.ShutdownTimeout.Valid {
		c.Serve.ShutdownTimeout = cfg.Server.ShutdownTimeout.V
	}
}
