package metrics

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Reporter periodically draws the queue fill level as a bar.
type Reporter struct {
	wg    sync.WaitGroup
	close chan struct{}
	once  sync.Once

	iowc  io.WriteCloser
	clock clockwork.Clock

	period time.Duration
	q      Depth
}

func NewReporter(iowc io.WriteCloser, clock clockwork.Clock, period time.Duration, q Depth) *Reporter {
	r := &Reporter{
		close:  make(chan struct{}),
		iowc:   iowc,
		clock:  clock,
		period: period,
		q:      q,
	}

	r.wg.Add(1)
	go r.show()

	return r
}

func (r *Reporter) show() {
	defer r.wg.Done()

	for {
		select {
		case <-r.close:
			return
		case <-r.clock.After(r.period):
		}

		n, c := r.q.Len(), r.q.Cap()
		fmt.Fprintf(r.iowc, "%s|%s %d/%d\n",
			strings.Repeat("█", n), strings.Repeat(" ", c-n), n, c)
	}
}

// Stop waits for the drawing goroutine and closes the output.
func (r *Reporter) Stop() error {
	var err error
	r.once.Do(func() {
		close(r.close)
		r.wg.Wait()
		err = r.iowc.Close()
	})
	return err
}
