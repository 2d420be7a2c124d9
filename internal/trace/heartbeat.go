package trace

import (
	"strconv"
	"sync"
	"time"
)

// Heartbeat emits a periodic event so a trace shows whether a long
// simulation is still making progress.
type Heartbeat struct {
	tracer Tracer
	stop   chan struct{}
	once   sync.Once
	wg     sync.WaitGroup
}

// StartHeartbeat starts beating every interval. It returns nil, which Stop
// accepts, when tracing is off or interval is not positive.
func StartHeartbeat(t Tracer, interval time.Duration) *Heartbeat {
	if t == nil || !t.Enabled() || interval <= 0 {
		return nil
	}
	h := &Heartbeat{tracer: t, stop: make(chan struct{})}
	h.wg.Add(1)
	go h.run(interval)
	return h
}

func (h *Heartbeat) run(interval time.Duration) {
	defer h.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	gid := goroutineID()
	for n := 1; ; n++ {
		select {
		case at := <-ticker.C:
			h.tracer.Emit(&Event{
				Time:   at,
				Kind:   KindHeartbeat,
				Scope:  ScopeDriver,
				GID:    gid,
				Name:   "heartbeat",
				Detail: "#" + strconv.Itoa(n),
			})
		case <-h.stop:
			return
		}
	}
}

// Stop ends the heartbeat and waits for its goroutine.
func (h *Heartbeat) Stop() {
	if h == nil {
		return
	}
	h.once.Do(func() { close(h.stop) })
	h.wg.Wait()
}
