package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/xlport/internal/application"
	"github.com/JonMunkholm/xlport/internal/config"
	"github.com/JonMunkholm/xlport/internal/logging"
)

// cli carries the state shared by every subcommand.
type cli struct {
	envFile string
	out     io.Writer
	errOut  io.Writer
	app     *application.App
	cfg     *config.Config
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	c := &cli{out: out, errOut: errOut}

	root := &cobra.Command{
		Use:   "xlport",
		Short: "Export and import records as spreadsheets",
		Long: `xlport writes registered record types to xlsx or csv documents and
reads edited documents back, optionally applying the changes.

Configuration comes from the environment (and an optional .env file).
Without DATABASE_URL records are kept in memory and seeded with demo data.`,
		SilenceUsage:       true,
		PersistentPreRunE:  c.setup,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error { c.close(); return nil },
	}
	root.SetOut(out)
	root.SetErr(errOut)
	root.PersistentFlags().StringVar(&c.envFile, "env", "", "env file to load (default: .env if present)")

	root.AddCommand(c.typesCmd())
	root.AddCommand(c.exportCmd())
	root.AddCommand(c.importCmd())
	root.AddCommand(c.seedCmd())
	return root
}

// setup loads configuration and wires the application. Logs go to errOut
// so documents written to stdout stay clean.
func (c *cli) setup(cmd *cobra.Command, args []string) error {
	var envErr error
	if c.envFile != "" {
		if err := godotenv.Load(c.envFile); err != nil {
			return fmt.Errorf("load env file: %w", err)
		}
	} else {
		envErr = godotenv.Load()
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	c.cfg = cfg

	logger := logging.New(c.errOut, cfg.Logging.Level, cfg.Logging.Format)
	switch {
	case c.envFile != "":
		logger.Debug("loaded env file", "path", c.envFile)
	case envErr == nil:
		logger.Debug("loaded .env file")
	case errors.Is(envErr, fs.ErrNotExist):
		logger.Debug("no .env file found, using environment variables")
	default:
		logger.Warn("ignoring unreadable .env file", "error", envErr)
	}

	app, err := application.New(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	c.app = app
	return nil
}

func (c *cli) close() {
	if c.app != nil {
		c.app.Close()
		c.app = nil
	}
}
