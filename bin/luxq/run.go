package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"gitlab.com/justnurik/luxq/pkg/app"
	"gitlab.com/justnurik/luxq/pkg/scheduler"
)

func newRunCmd(g *globals) *cobra.Command {
	var (
		configPath string
		addr       string
		sensorKind string
		report     string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.Load(configPath)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			override(flags, "addr", &cfg.HTTP.Addr, addr)
			override(flags, "sensor", &cfg.Sensor.Kind, sensorKind)
			override(flags, "report", &cfg.Report.Path, report)
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, unix.SIGTERM)
			defer stop()

			s, err := app.New(g.logger, cfg)
			if err != nil {
				logFault(g.logger, err)
				return err
			}

			if err := s.Run(ctx); err != nil {
				logFault(g.logger, err)
				return err
			}

			g.logger.Info("shutdown complete")
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&configPath, "config", "c", "", "yaml config file")
	flags.StringVar(&addr, "addr", "", "status API listen address, empty to disable")
	flags.StringVar(&sensorKind, "sensor", app.SensorLight, "sensor kind: light, constant or sequence")
	flags.StringVar(&report, "report", "", "append queue depth bars to this file")

	return cmd
}

// override takes a flag value over the config file only when the flag was set.
func override(flags *pflag.FlagSet, name string, dst *string, v string) {
	if flags.Changed(name) {
		*dst = v
	}
}

func logFault(l *zap.Logger, err error) {
	var f *scheduler.Fault
	if errors.As(err, &f) {
		l.Error("kernel fault",
			zap.Stringer("code", f.Code),
			zap.Int("exit_status", int(f.Code)),
			zap.String("task", f.Task),
			zap.Error(f.Cause))
		return
	}

	if !errors.Is(err, context.Canceled) {
		l.Error("run failed", zap.Error(err))
	}
}
