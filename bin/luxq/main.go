package main

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gitlab.com/justnurik/luxq/bin"
	"gitlab.com/justnurik/luxq/pkg/scheduler"
)

type globals struct {
	logPath  string
	logLevel string

	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	g := &globals{}

	root := &cobra.Command{
		Use:           "luxq",
		Short:         "Light sensor to display pipeline on a simulated priority kernel",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := bin.ParseLevel(g.logLevel)
			if err != nil {
				return err
			}

			g.logger, err = bin.NewLogger(g.logPath, level)
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = g.logger.Sync()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&g.logPath, "log-file", "", "also write JSON logs to this file")
	flags.StringVar(&g.logLevel, "log-level", "info", "log level")

	root.AddCommand(
		newRunCmd(g),
		newStatusCmd(g),
		newConfigCmd(g),
	)
	return root
}

func main() {
	err := newRootCmd().ExecuteContext(context.Background())
	if err == nil {
		return
	}

	os.Stderr.WriteString("luxq: " + err.Error() + "\n")

	var f *scheduler.Fault
	if errors.As(err, &f) {
		os.Exit(int(f.Code))
	}
	os.Exit(1)
}
