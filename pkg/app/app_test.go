package app

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"gitlab.com/justnurik/luxq/pkg/scheduler"
	"gitlab.com/justnurik/luxq/pkg/tasks"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func quietLogger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t, zaptest.Level(zap.WarnLevel))
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.HTTP.Addr = ""
	cfg.Display.Output = ""
	cfg.Sensor.Kind = SensorConstant
	return cfg
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.String()
}

func TestConfig_DefaultsAreValid(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Queue.Capacity)
	assert.Equal(t, time.Millisecond, cfg.Kernel.TickPeriod)
	require.Len(t, cfg.Producers, 2)
	assert.Equal(t, "Envia-100", cfg.Producers[0].Name)
	assert.Equal(t, scheduler.Ticks(100), cfg.Producers[1].PushTimeout)
	assert.Equal(t, "Recebe", cfg.Consumer.Name)
	assert.Greater(t, cfg.Consumer.Priority, cfg.Producers[0].Priority)
}

func TestConfig_LoadOverlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "luxq.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
kernel:
  tick_period: 2ms
queue:
  capacity: 2
producers:
  - name: Envia-7
    priority: 1
    param: 7
    push_timeout: 20
sensor:
  kind: sequence
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2*time.Millisecond, cfg.Kernel.TickPeriod)
	assert.Equal(t, 5, cfg.Kernel.MaxPriorities)
	assert.Equal(t, 2, cfg.Queue.Capacity)
	assert.Equal(t, []tasks.ProducerConfig{{Name: "Envia-7", Priority: 1, Param: 7, PushTimeout: 20}}, cfg.Producers)
	assert.Equal(t, "Recebe", cfg.Consumer.Name)
	assert.Equal(t, SensorSequence, cfg.Sensor.Kind)
}

func TestConfig_LoadRejectsUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "luxq.yaml")
	require.NoError(t, os.WriteFile(path, []byte("queue:\n  size: 3\n"), 0644))

	_, err := Load(path)
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestConfig_Validate(t *testing.T) {
	for _, tc := range []struct {
		name   string
		modify func(c *Config)
	}{
		{"zero capacity", func(c *Config) { c.Queue.Capacity = 0 }},
		{"no producers", func(c *Config) { c.Producers = nil }},
		{"consumer not above producers", func(c *Config) { c.Consumer.Priority = 1 }},
		{"priority out of range", func(c *Config) { c.Consumer.Priority = 5 }},
		{"negative producer priority", func(c *Config) { c.Producers[0].Priority = -1 }},
		{"zero push timeout", func(c *Config) { c.Producers[1].PushTimeout = 0 }},
		{"zero pop timeout", func(c *Config) { c.Consumer.PopTimeout = 0 }},
		{"duplicate names", func(c *Config) { c.Producers[1].Name = c.Producers[0].Name }},
		{"consumer shares a name", func(c *Config) { c.Consumer.Name = c.Producers[0].Name }},
		{"unknown sensor", func(c *Config) { c.Sensor.Kind = "uv" }},
		{"negative watch buffer", func(c *Config) { c.Display.WatchBuffer = -1 }},
		{"negative producer param", func(c *Config) { c.Producers[0].Param = -5 }},
		{"report without interval", func(c *Config) { c.Report.Path = "depth.log"; c.Report.Interval = 0 }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.modify(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestConfig_MarshalLoadsBack(t *testing.T) {
	data, err := DefaultConfig().Marshal()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "luxq.yaml")
	require.NoError(t, os.WriteFile(path, data, 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestNew_HeapExhaustionIsCreationFailure(t *testing.T) {
	cfg := testConfig()
	cfg.Kernel.HeapSize = 2000

	_, err := New(quietLogger(t), cfg)
	require.Error(t, err)

	var f *scheduler.Fault
	require.True(t, errors.As(err, &f))
	assert.Equal(t, scheduler.CodeCreationFailure, f.Code)
	assert.ErrorIs(t, err, scheduler.ErrOutOfMemory)
}

func TestNew_HaltHookSeesFault(t *testing.T) {
	cfg := testConfig()
	cfg.Kernel.HeapSize = 100

	var got *scheduler.Fault
	_, err := New(quietLogger(t), cfg, WithKernelOptions(scheduler.WithHalt(func(f *scheduler.Fault) {
		got = f
	})))
	require.Error(t, err)
	require.NotNil(t, got)
	assert.Equal(t, scheduler.CodeCreationFailure, got.Code)
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Producers = nil

	_, err := New(quietLogger(t), cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestSystem_RunsPipeline(t *testing.T) {
	cfg := testConfig()
	cfg.Report.Path = filepath.Join(t.TempDir(), "depth.log")
	cfg.Report.Interval = time.Millisecond

	out := &syncBuffer{}
	s, err := New(quietLogger(t), cfg, WithDisplay(out))
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		done <- s.Run(context.Background())
	}()

	require.Eventually(t, func() bool {
		return s.Display().Frames() >= 50
	}, 5*time.Second, time.Millisecond)
	require.Eventually(t, func() bool {
		depth, err := os.ReadFile(cfg.Report.Path)
		return err == nil && strings.Contains(string(depth), "/10\n")
	}, 5*time.Second, time.Millisecond)

	status := s.Status()
	assert.Equal(t, s.BootID(), status.BootID)
	assert.Equal(t, "samples", status.Queue.Name)
	assert.Equal(t, 10, status.Queue.Cap)
	assert.LessOrEqual(t, status.Queue.Len, status.Queue.Cap)
	require.Len(t, status.Kernel.Tasks, 3)
	assert.Equal(t, "Recebe", status.Kernel.Tasks[2].Name)

	s.Stop()
	require.NoError(t, <-done)

	frame := s.Display().Frame()
	assert.True(t, strings.HasPrefix(frame, "Luz = 100 lx") || strings.HasPrefix(frame, "Luz = 200 lx"), frame)
	assert.Contains(t, out.String(), "Luz = 100 lx")
	assert.Contains(t, out.String(), "Luz = 200 lx")
}

func TestSystem_ContextEndsRun(t *testing.T) {
	s, err := New(quietLogger(t), testConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	assert.NoError(t, s.Run(ctx))
}

type panicWriter struct{}

func (panicWriter) Write([]byte) (int, error) {
	panic("display bus fault")
}

func TestSystem_TaskPanicIsResourceFault(t *testing.T) {
	s, err := New(zap.NewNop(), testConfig(), WithDisplay(panicWriter{}))
	require.NoError(t, err)

	err = s.Run(context.Background())

	var f *scheduler.Fault
	require.True(t, errors.As(err, &f), "%v", err)
	assert.Equal(t, scheduler.CodeResourceFault, f.Code)
	assert.Equal(t, "Recebe", f.Task)
}

func TestSystem_ServesStatusAPI(t *testing.T) {
	cfg := testConfig()
	cfg.HTTP.Addr = "127.0.0.1:0"

	s, err := New(quietLogger(t), cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	assert.NoError(t, s.Run(ctx))
}
