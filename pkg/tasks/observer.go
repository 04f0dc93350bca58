package tasks

import (
	"go.uber.org/zap"

	"gitlab.com/justnurik/luxq/pkg/scheduler"
	"gitlab.com/justnurik/luxq/pkg/sensor"
)

// Observer receives the pipeline events. Dropped is producer-side
// backpressure; Anomaly is a consumer-side liveness fault.
type Observer interface {
	Sent(producer string, s sensor.Sample)
	Dropped(producer string, s sensor.Sample)
	Received(consumer string, s sensor.Sample)
	Anomaly(consumer string, waited scheduler.Ticks)
}

type LogObserver struct {
	l *zap.Logger
}

func NewLogObserver(l *zap.Logger) *LogObserver {
	return &LogObserver{l: l.With(zap.String("component", "pipeline"))}
}

func (o *LogObserver) Sent(producer string, s sensor.Sample) {
	o.l.Debug("sent", zap.String("producer", producer), zap.Uint32("sample", uint32(s)))
}

func (o *LogObserver) Dropped(producer string, s sensor.Sample) {
	o.l.Warn("dropped: queue full", zap.String("producer", producer), zap.Uint32("sample", uint32(s)))
}

func (o *LogObserver) Received(consumer string, s sensor.Sample) {
	o.l.Debug("received", zap.String("consumer", consumer), zap.Uint32("sample", uint32(s)))
}

func (o *LogObserver) Anomaly(consumer string, waited scheduler.Ticks) {
	o.l.Warn("anomaly: nothing received, producers stalled",
		zap.String("consumer", consumer),
		zap.Uint64("waited_ticks", uint64(waited)))
}

// Observers fans every event out in order.
type Observers []Observer

func (os Observers) Sent(producer string, s sensor.Sample) {
	for _, o := range os {
		o.Sent(producer, s)
	}
}

func (os Observers) Dropped(producer string, s sensor.Sample) {
	for _, o := range os {
		o.Dropped(producer, s)
	}
}

func (os Observers) Received(consumer string, s sensor.Sample) {
	for _, o := range os {
		o.Received(consumer, s)
	}
}

func (os Observers) Anomaly(consumer string, waited scheduler.Ticks) {
	for _, o := range os {
		o.Anomaly(consumer, waited)
	}
}
