package tasks

import (
	"fmt"

	"go.uber.org/zap"

	"gitlab.com/justnurik/luxq/pkg/scheduler"
)

type ProducerConfig struct {
	Name     string             `yaml:"name"`
	Priority scheduler.Priority `yaml:"priority"`
	// Param identifies the instance; the constant sensor sends it as the sample.
	Param       int             `yaml:"param"`
	PushTimeout scheduler.Ticks `yaml:"push_timeout"`
	// Period, when set, replaces the yield between samples with a delay.
	Period     scheduler.Ticks `yaml:"period"`
	StackDepth int             `yaml:"stack_depth"`
}

func (c ProducerConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("producer with param %d: empty name", c.Param)
	}
	if c.Param < 0 {
		return fmt.Errorf("producer %q: negative param %d", c.Name, c.Param)
	}
	return validTimeout(fmt.Sprintf("producer %q push timeout", c.Name), c.PushTimeout)
}

// Producer samples its sensor and offers every reading to the queue once.
type Producer struct {
	l   *zap.Logger
	cfg ProducerConfig
	q   Sender
	src Sensor
	obs Observer
}

func NewProducer(l *zap.Logger, cfg ProducerConfig, q Sender, src Sensor, obs Observer) *Producer {
	return &Producer{
		l: l.With(
			zap.String("component", "producer"),
			zap.String("producer", cfg.Name),
			zap.Int("param", cfg.Param)),
		cfg: cfg,
		q:   q,
		src: src,
		obs: obs,
	}
}

func (p *Producer) Config() ProducerConfig {
	return p.cfg
}

func (p *Producer) TaskSpec() scheduler.TaskSpec {
	return scheduler.TaskSpec{
		Name:       p.cfg.Name,
		Priority:   p.cfg.Priority,
		StackDepth: p.cfg.StackDepth,
		Param:      p.cfg.Param,
		Body:       p.Run,
	}
}

func (p *Producer) Run(t *scheduler.Task) {
	p.l.Info("producer started", zap.Uint64("push_timeout", uint64(p.cfg.PushTimeout)))

	for {
		_ = p.Step(t)
	}
}

// Step is one loop iteration. A full queue drops the sample; the next
// iteration is the retry.
func (p *Producer) Step(t *scheduler.Task) error {
	sample := p.src.Read()

	err := p.q.Send(t, sample, p.cfg.PushTimeout)
	if err != nil {
		p.obs.Dropped(p.cfg.Name, sample)
	} else {
		p.obs.Sent(p.cfg.Name, sample)
	}

	if p.cfg.Period > 0 {
		t.Delay(p.cfg.Period)
	} else {
		t.Yield()
	}

	return err
}
