// Command zy runs the pose control session headless: a websocket server for
// browser renderers, plus offline tools for inspecting models and rules.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ChinaCraig/Zy/internal/config"
	"github.com/ChinaCraig/Zy/internal/logging"
)

var version = "dev"

// annotationQuiet marks commands whose stdout is their result, so the
// console log writer stays off.
const annotationQuiet = "quiet"

// cli carries state shared by the subcommands once the root has run.
type cli struct {
	configDir string
	logLevel  string

	cfg    *config.Config
	syslog *logging.Logger
	out    io.Writer
}

func newRootCmd(out io.Writer) *cobra.Command {
	c := &cli{out: out}

	root := &cobra.Command{
		Use:           "zy",
		Short:         "Zy - chat driven pose control for a rigged avatar",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.init(cmd.Annotations[annotationQuiet] == "true")
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.syslog != nil {
				_ = c.syslog.Close()
			}
		},
	}
	root.SetOut(out)
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
	root.PersistentFlags().StringVarP(&c.configDir, "config", "c", "", "config directory (default is ~/.zy)")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "override the configured log level")

	root.AddCommand(
		newServeCmd(c),
		newJointsCmd(c),
		newInterpretCmd(c),
	)
	return root
}

func (c *cli) init(quiet bool) error {
	var err error
	if c.configDir != "" {
		c.cfg, err = config.LoadFrom(c.configDir)
	} else {
		c.cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if c.logLevel != "" {
		c.cfg.Log.Level = c.logLevel
	}
	if quiet {
		c.cfg.Log.Console = false
	}

	c.syslog, err = logging.New(&logging.Config{
		LogDir:     c.cfg.Log.Dir,
		Level:      logging.LogLevel(c.cfg.Log.Level),
		MaxHistory: 200,
		Console:    c.cfg.Log.Console,
	})
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	return nil
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
