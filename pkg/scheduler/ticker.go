package scheduler

// tickLoop is the tick interrupt: one Tick per TickPeriod of the kernel clock.
func (k *Kernel) tickLoop() {
	defer k.wg.Done()

	ticker := k.clock.NewTicker(k.cfg.TickPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-k.stopped:
			return
		case <-ticker.Chan():
			k.Tick()
		}
	}
}
