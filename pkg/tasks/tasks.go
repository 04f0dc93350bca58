package tasks

import (
	"errors"
	"fmt"

	"gitlab.com/justnurik/luxq/pkg/scheduler"
	"gitlab.com/justnurik/luxq/pkg/sensor"
)

//go:generate mockgen -destination mock/mock_tasks.go -package mock gitlab.com/justnurik/luxq/pkg/tasks Sensor,Sink,Observer

// MaxTimeout bounds push and pop timeouts. An unbounded push would starve the
// other producers.
const MaxTimeout scheduler.Ticks = 10_000

var ErrInvalidTimeout = errors.New("invalid timeout")

type Sensor interface {
	Read() sensor.Sample
}

type Sink interface {
	Render(s sensor.Sample)
}

type Sender interface {
	Send(t *scheduler.Task, s sensor.Sample, timeout scheduler.Ticks) error
}

type Receiver interface {
	Receive(t *scheduler.Task, timeout scheduler.Ticks) (sensor.Sample, error)
}

func validTimeout(name string, timeout scheduler.Ticks) error {
	if timeout == 0 || timeout > MaxTimeout {
		return fmt.Errorf("%s: %w: %d not in (0, %d]", name, ErrInvalidTimeout, timeout, MaxTimeout)
	}
	return nil
}
