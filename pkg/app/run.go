package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"gitlab.com/justnurik/luxq/pkg/api"
	"gitlab.com/justnurik/luxq/pkg/metrics"
	"gitlab.com/justnurik/luxq/pkg/scheduler"
)

var _ api.StatusService = (*System)(nil)

// Run drives the kernel together with the status API and the depth reporter
// until ctx is done, Stop is called or the kernel faults. Only a fault or a
// failing surface is reported as an error.
func (s *System) Run(ctx context.Context) error {
	defer s.close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	if s.cfg.Report.Path != "" {
		if err := s.report(ctx, g); err != nil {
			return err
		}
	}

	if s.cfg.HTTP.Addr != "" {
		lsn, err := net.Listen("tcp", s.cfg.HTTP.Addr)
		if err != nil {
			s.l.Error("listen failed",
				zap.String("addr", s.cfg.HTTP.Addr),
				zap.Error(err))

			cancel()
			_ = g.Wait()
			return fmt.Errorf("listen %s: %w", s.cfg.HTTP.Addr, err)
		}
		s.serve(ctx, g, lsn)
	}

	g.Go(func() error {
		defer cancel()

		err := s.k.Run(ctx)
		if errors.Is(err, context.Canceled) ||
			errors.Is(err, context.DeadlineExceeded) ||
			errors.Is(err, scheduler.ErrStopped) {
			return nil
		}
		return err
	})

	return g.Wait()
}

func (s *System) serve(ctx context.Context, g *errgroup.Group, lsn net.Listener) {
	l := s.l.With(zap.String("addr", lsn.Addr().String()))
	h := api.NewStatusHandler(s.l, s, s.reg)
	srv := &http.Server{
		Handler:     api.NewRouter(s.l, h),
		ErrorLog:    zap.NewStdLog(l),
		// Watch streams end with the run.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	g.Go(func() error {
		l.Info("status api listening")
		if err := srv.Serve(lsn); !errors.Is(err, http.ErrServerClosed) {
			l.Error("status api failed", zap.Error(err))
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.HTTP.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			l.Warn("status api shutdown", zap.Error(err))
			_ = srv.Close()
		}
		return nil
	})
}

func (s *System) report(ctx context.Context, g *errgroup.Group) error {
	f, err := os.OpenFile(s.cfg.Report.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		s.l.Error("open report failed",
			zap.String("path", s.cfg.Report.Path),
			zap.Error(err))
		return fmt.Errorf("open report: %w", err)
	}

	r := metrics.NewReporter(f, s.clock, s.cfg.Report.Interval, s.q)
	g.Go(func() error {
		<-ctx.Done()
		return r.Stop()
	})
	return nil
}
