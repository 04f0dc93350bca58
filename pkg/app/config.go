package app

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"gitlab.com/justnurik/luxq/pkg/display"
	"gitlab.com/justnurik/luxq/pkg/scheduler"
	"gitlab.com/justnurik/luxq/pkg/tasks"
)

const (
	SensorLight    = "light"
	SensorConstant = "constant"
	SensorSequence = "sequence"

	OutputStdout = "stdout"
)

var ErrInvalidConfig = errors.New("invalid config")

type QueueConfig struct {
	Name     string `yaml:"name"`
	Capacity int    `yaml:"capacity"`
}

type SensorConfig struct {
	// Kind is light, constant (each producer sends its param) or sequence
	// (1, 2, 3, ... shared by all producers).
	Kind string `yaml:"kind"`
	Seed uint64 `yaml:"seed"`
}

type DisplayConfig struct {
	Columns int `yaml:"columns"`
	// Output is stdout, a file path, or empty for no output.
	Output string `yaml:"output"`
	// WatchBuffer is the per-watcher backlog of the live feed.
	WatchBuffer int `yaml:"watch_buffer"`
}

type HTTPConfig struct {
	// Addr of the status API. Empty disables it.
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type ReportConfig struct {
	// Path receives the queue depth bars. Empty disables the reporter.
	Path     string        `yaml:"path"`
	Interval time.Duration `yaml:"interval"`
}

type Config struct {
	Kernel    scheduler.Config       `yaml:"kernel"`
	Queue     QueueConfig            `yaml:"queue"`
	Producers []tasks.ProducerConfig `yaml:"producers"`
	Consumer  tasks.ConsumerConfig   `yaml:"consumer"`
	Sensor    SensorConfig           `yaml:"sensor"`
	Display   DisplayConfig          `yaml:"display"`
	HTTP      HTTPConfig             `yaml:"http"`
	Report    ReportConfig           `yaml:"report"`
}

func DefaultConfig() Config {
	return Config{
		Kernel: scheduler.DefaultConfig(),
		Queue: QueueConfig{
			Name:     "samples",
			Capacity: 10,
		},
		Producers: []tasks.ProducerConfig{
			{Name: "Envia-100", Priority: 1, Param: 100, PushTimeout: 100, StackDepth: scheduler.DefaultStackDepth},
			{Name: "Envia-200", Priority: 1, Param: 200, PushTimeout: 100, StackDepth: scheduler.DefaultStackDepth},
		},
		Consumer: tasks.ConsumerConfig{
			Name:       "Recebe",
			Priority:   2,
			PopTimeout: 100,
			StackDepth: scheduler.DefaultStackDepth,
		},
		Sensor: SensorConfig{Kind: SensorLight, Seed: 1},
		Display: DisplayConfig{
			Columns:     display.DefaultColumns,
			Output:      OutputStdout,
			WatchBuffer: 64,
		},
		HTTP: HTTPConfig{
			Addr:            "127.0.0.1:7070",
			ShutdownTimeout: 5 * time.Second,
		},
		Report: ReportConfig{Interval: time.Second},
	}
}

// Load overlays the yaml file at path on DefaultConfig. An empty path loads
// the defaults.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, cfg.Validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.Queue.Capacity <= 0 {
		return fmt.Errorf("%w: queue capacity %d", ErrInvalidConfig, c.Queue.Capacity)
	}
	if c.Kernel.TickPeriod < 0 {
		return fmt.Errorf("%w: negative tick period %s", ErrInvalidConfig, c.Kernel.TickPeriod)
	}
	if len(c.Producers) == 0 {
		return fmt.Errorf("%w: no producers", ErrInvalidConfig)
	}

	maxPrio := scheduler.Priority(c.Kernel.MaxPriorities)
	if maxPrio <= 0 {
		maxPrio = scheduler.Priority(scheduler.DefaultConfig().MaxPriorities)
	}

	names := map[string]bool{}
	for _, p := range c.Producers {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		if p.Priority < 0 || p.Priority >= maxPrio {
			return fmt.Errorf("%w: producer %q priority %d not in [0, %d)", ErrInvalidConfig, p.Name, p.Priority, maxPrio)
		}
		if p.Priority >= c.Consumer.Priority {
			return fmt.Errorf("%w: producer %q priority %d not below consumer priority %d",
				ErrInvalidConfig, p.Name, p.Priority, c.Consumer.Priority)
		}
		if names[p.Name] {
			return fmt.Errorf("%w: duplicate task name %q", ErrInvalidConfig, p.Name)
		}
		names[p.Name] = true
	}

	if err := c.Consumer.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.Consumer.Priority >= maxPrio {
		return fmt.Errorf("%w: consumer priority %d not below %d", ErrInvalidConfig, c.Consumer.Priority, maxPrio)
	}
	if names[c.Consumer.Name] {
		return fmt.Errorf("%w: duplicate task name %q", ErrInvalidConfig, c.Consumer.Name)
	}

	switch c.Sensor.Kind {
	case SensorLight, SensorConstant, SensorSequence:
	default:
		return fmt.Errorf("%w: unknown sensor kind %q", ErrInvalidConfig, c.Sensor.Kind)
	}

	if c.Display.WatchBuffer < 0 {
		return fmt.Errorf("%w: negative watch buffer %d", ErrInvalidConfig, c.Display.WatchBuffer)
	}

	if c.Report.Path != "" && c.Report.Interval <= 0 {
		return fmt.Errorf("%w: report interval %s", ErrInvalidConfig, c.Report.Interval)
	}

	return nil
}

func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
