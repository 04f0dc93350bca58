package app

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/gofrs/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"gitlab.com/justnurik/luxq/pkg/api"
	"gitlab.com/justnurik/luxq/pkg/display"
	"gitlab.com/justnurik/luxq/pkg/metrics"
	"gitlab.com/justnurik/luxq/pkg/queue"
	"gitlab.com/justnurik/luxq/pkg/scheduler"
	"gitlab.com/justnurik/luxq/pkg/sensor"
	"gitlab.com/justnurik/luxq/pkg/tasks"
)

type Option func(s *System)

// WithClock drives both the tick source and the depth reporter.
func WithClock(clock clockwork.Clock) Option {
	return func(s *System) {
		s.clock = clock
	}
}

func WithKernelOptions(opts ...scheduler.Option) Option {
	return func(s *System) {
		s.kernelOpts = append(s.kernelOpts, opts...)
	}
}

// WithDisplay replaces the configured display output.
func WithDisplay(w io.Writer) Option {
	return func(s *System) {
		s.displayOut = w
	}
}

// System is the whole pipeline: kernel, queue, producers, consumer and the
// status surfaces around them.
type System struct {
	l      *zap.Logger
	cfg    Config
	bootID uuid.UUID
	clock  clockwork.Clock

	kernelOpts []scheduler.Option
	displayOut io.Writer
	closers    []io.Closer

	k         *scheduler.Kernel
	q         *queue.Queue[sensor.Sample]
	oled      *display.OLED
	hub       *display.Hub
	reg       *prometheus.Registry
	metrics   *metrics.Metrics
	producers []*tasks.Producer
	consumer  *tasks.Consumer
}

// New runs the creation sequence. When the kernel heap cannot hold a task or
// the queue the kernel is halted and the returned error is its *scheduler.Fault.
func New(l *zap.Logger, cfg Config, opts ...Option) (*System, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	bootID := uuid.Must(uuid.NewV4())
	s := &System{
		l:      l.With(zap.Stringer("boot_id", bootID)),
		cfg:    cfg,
		bootID: bootID,
		clock:  clockwork.NewRealClock(),
		reg:    prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(s)
	}

	// The fault surfaces as the error of New or Run.
	kernelOpts := append([]scheduler.Option{
		scheduler.WithClock(s.clock),
		scheduler.WithHalt(func(*scheduler.Fault) {}),
	}, s.kernelOpts...)
	s.k = scheduler.New(s.l, cfg.Kernel, kernelOpts...)

	if err := s.create(); err != nil {
		s.close()

		if errors.Is(err, scheduler.ErrOutOfMemory) {
			s.k.MallocFailed(err)
			if f := s.k.Fault(); f != nil {
				return nil, f
			}
		}
		return nil, err
	}

	s.l.Info("system created",
		zap.Int("producers", len(s.producers)),
		zap.Int("queue_capacity", s.q.Cap()),
		zap.Int("heap_used", s.k.Snapshot().HeapUsed))

	return s, nil
}

func (s *System) create() error {
	var err error

	s.q, err = queue.New[sensor.Sample](s.k, s.cfg.Queue.Name, s.cfg.Queue.Capacity)
	if err != nil {
		s.l.Error("queue creation failed", zap.Error(err))
		return fmt.Errorf("create queue: %w", err)
	}

	out, err := s.openDisplay()
	if err != nil {
		return err
	}

	s.oled = display.NewOLED(s.l, out, s.cfg.Display.Columns)
	s.hub = display.NewHub(s.cfg.Display.WatchBuffer)

	s.metrics = metrics.New(s.reg)
	s.metrics.RegisterQueue(s.q)
	s.metrics.RegisterKernel(s.k)

	obs := tasks.Observers{tasks.NewLogObserver(s.l), s.metrics}

	seq := sensor.NewSequence(1)
	for i, pc := range s.cfg.Producers {
		p := tasks.NewProducer(s.l, pc, s.q, s.sensorFor(i, pc, seq), obs)
		if _, err := s.k.CreateTask(p.TaskSpec()); err != nil {
			return fmt.Errorf("create producer: %w", err)
		}
		s.producers = append(s.producers, p)
	}

	s.consumer = tasks.NewConsumer(s.l, s.cfg.Consumer, s.q, display.Tee{s.oled, s.hub}, obs)
	if _, err := s.k.CreateTask(s.consumer.TaskSpec()); err != nil {
		return fmt.Errorf("create consumer: %w", err)
	}

	return nil
}

func (s *System) sensorFor(i int, pc tasks.ProducerConfig, seq *sensor.Sequence) tasks.Sensor {
	switch s.cfg.Sensor.Kind {
	case SensorConstant:
		return sensor.Constant(pc.Param)
	case SensorSequence:
		return seq
	default:
		return sensor.NewLight(s.cfg.Sensor.Seed + uint64(i))
	}
}

func (s *System) openDisplay() (io.Writer, error) {
	if s.displayOut != nil {
		return s.displayOut, nil
	}

	switch s.cfg.Display.Output {
	case "":
		return io.Discard, nil
	case OutputStdout:
		return os.Stdout, nil
	}

	f, err := os.OpenFile(s.cfg.Display.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		s.l.Error("open display output failed",
			zap.String("path", s.cfg.Display.Output),
			zap.Error(err))
		return nil, fmt.Errorf("open display output: %w", err)
	}

	s.closers = append(s.closers, f)
	return f, nil
}

func (s *System) close() {
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			s.l.Warn("close failed", zap.Error(err))
		}
	}
	s.closers = nil
}

func (s *System) Kernel() *scheduler.Kernel {
	return s.k
}

func (s *System) Queue() *queue.Queue[sensor.Sample] {
	return s.q
}

func (s *System) Display() *display.OLED {
	return s.oled
}

func (s *System) Registry() *prometheus.Registry {
	return s.reg
}

func (s *System) BootID() uuid.UUID {
	return s.bootID
}

func (s *System) Status() *api.Status {
	return &api.Status{
		BootID: s.bootID,
		Kernel: s.k.Snapshot(),
		Queue: api.QueueStatus{
			Name: s.q.Name(),
			Len:  s.q.Len(),
			Cap:  s.q.Cap(),
		},
	}
}

func (s *System) Subscribe() (<-chan sensor.Sample, func()) {
	return s.hub.Subscribe()
}

// Stop halts the kernel; Run returns once everything has wound down.
func (s *System) Stop() {
	s.k.Stop()
}
