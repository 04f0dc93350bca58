package tasks

import (
	"fmt"

	"go.uber.org/zap"

	"gitlab.com/justnurik/luxq/pkg/scheduler"
)

type ConsumerConfig struct {
	Name       string             `yaml:"name"`
	Priority   scheduler.Priority `yaml:"priority"`
	PopTimeout scheduler.Ticks    `yaml:"pop_timeout"`
	StackDepth int                `yaml:"stack_depth"`
}

func (c ConsumerConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("consumer: empty name")
	}
	return validTimeout(fmt.Sprintf("consumer %q pop timeout", c.Name), c.PopTimeout)
}

// Consumer drains the queue into the sink. Producers are expected to be
// always live, so a receive timeout is reported as an anomaly.
type Consumer struct {
	l    *zap.Logger
	cfg  ConsumerConfig
	q    Receiver
	sink Sink
	obs  Observer
}

func NewConsumer(l *zap.Logger, cfg ConsumerConfig, q Receiver, sink Sink, obs Observer) *Consumer {
	return &Consumer{
		l: l.With(
			zap.String("component", "consumer"),
			zap.String("consumer", cfg.Name)),
		cfg:  cfg,
		q:    q,
		sink: sink,
		obs:  obs,
	}
}

func (c *Consumer) Config() ConsumerConfig {
	return c.cfg
}

func (c *Consumer) TaskSpec() scheduler.TaskSpec {
	return scheduler.TaskSpec{
		Name:       c.cfg.Name,
		Priority:   c.cfg.Priority,
		StackDepth: c.cfg.StackDepth,
		Body:       c.Run,
	}
}

func (c *Consumer) Run(t *scheduler.Task) {
	c.l.Info("consumer started", zap.Uint64("pop_timeout", uint64(c.cfg.PopTimeout)))

	for {
		_ = c.Step(t)
	}
}

func (c *Consumer) Step(t *scheduler.Task) error {
	sample, err := c.q.Receive(t, c.cfg.PopTimeout)
	if err != nil {
		c.obs.Anomaly(c.cfg.Name, c.cfg.PopTimeout)
		return err
	}

	c.sink.Render(sample)
	c.obs.Received(c.cfg.Name, sample)
	return nil
}
