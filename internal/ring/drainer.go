package ring

import (
	"io"
	"runtime"
	"sync/atomic"

	"github.com/hashicorp/go-hclog"
)

// Drainer is the single goroutine that owns consumption of a Ring: it
// spin-waits for each sequence slot to be published (committed or
// aborted) in turn, writes committed payloads to w, and releases the
// gating sequence so producers may reuse the slot. Modeled directly on
// the teacher's EventProcessor.processLoop single-consumer spin loop,
// generalized from "apply to matching engine" to "write frame to
// socket".
type Drainer struct {
	r            *Ring
	w            io.Writer
	log          hclog.Logger
	running      atomic.Bool
	shutdownCh   chan struct{}
	shutdownDone chan struct{}
}

// NewDrainer constructs a Drainer that writes committed frames from r to
// w. w is typically a net.Conn; short writes are retried until drained,
// per SPEC_FULL.md §4.2.
func NewDrainer(r *Ring, w io.Writer, log hclog.Logger) *Drainer {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Drainer{
		r:            r,
		w:            w,
		log:          log.Named("ring-drainer"),
		shutdownCh:   make(chan struct{}),
		shutdownDone: make(chan struct{}),
	}
}

// Start launches the drain loop in its own goroutine.
func (d *Drainer) Start() {
	d.running.Store(true)
	go d.loop()
}

func (d *Drainer) loop() {
	defer close(d.shutdownDone)

	next := uint64(1)
	for d.running.Load() {
		idx := next & d.r.indexMask
		s := &d.r.slots[idx]

		for {
			seq := atomic.LoadUint64(&s.seq)
			if seq == next {
				break
			}
			select {
			case <-d.shutdownCh:
				return
			default:
				runtime.Gosched()
			}
		}

		state := atomic.LoadUint32(&s.state)
		if state == slotCommitted {
			if err := d.writeFully(s.buf[:s.length]); err != nil {
				d.log.Error("socket write failed", "error", err, "seq", next)
			}
		}
		// aborted frames are skipped silently: no bytes ever touched the wire.

		atomic.StoreUint64(&d.r.gatingSequence, next)
		next++
	}
}

// writeFully retries partial writes until the whole frame is drained or
// the underlying writer errors, per the "partial socket writes retry
// until drained or the channel errors" contract in §4.2.
func (d *Drainer) writeFully(p []byte) error {
	for len(p) > 0 {
		n, err := d.w.Write(p)
		if err != nil {
			return err
		}
		p = p[n:]
	}
	return nil
}

// Shutdown stops the drain loop and waits for it to exit.
func (d *Drainer) Shutdown() {
	d.running.Store(false)
	close(d.shutdownCh)
	<-d.shutdownDone
}
