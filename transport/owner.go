package transport

import (
	"sync"
	"time"

	"burstfire-go/errcode"

	"tinygo.org/x/drivers"
)

// request posted to the per-bus worker. w and r belong to the request, not
// the caller: a timed-out request may still reach the wire after the caller
// has reused its own buffers.
type txReq struct {
	addr uint16
	w, r []byte
	done chan error // buffered(1); worker replies best-effort
}

// owner serialises all hardware access behind a single worker goroutine so a
// stuck bus cannot hold the caller beyond its timeout.
type owner struct {
	hw   drivers.I2C
	reqs chan txReq
	quit chan struct{}
	done chan struct{} // closed when loop has returned

	quitOnce sync.Once
}

func newOwner(hw drivers.I2C, queue int) *owner {
	o := &owner{
		hw:   hw,
		reqs: make(chan txReq, queue),
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
	go o.loop()
	return o
}

func (o *owner) loop() {
	defer close(o.done)
	for {
		select {
		case <-o.quit:
			return
		default:
		}
		select {
		case req := <-o.reqs:
			err := o.hw.Tx(req.addr, req.w, req.r)
			select {
			case req.done <- err:
			default:
			}
		case <-o.quit:
			return
		}
	}
}

// stop asks the worker to exit and waits up to timeout (0 = forever) for it
// to leave any Tx in progress. errcode.Timeout means the worker is still on
// the bus; stop may be called again.
func (o *owner) stop(timeout time.Duration) error {
	o.quitOnce.Do(func() { close(o.quit) })
	if timeout <= 0 {
		<-o.done
		return nil
	}
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-o.done:
		return nil
	case <-t.C:
		return errcode.Timeout
	}
}

// tx posts one transaction and waits for it. The timeout bounds the enqueue
// and the completion separately; 0 means wait forever. r is filled only when
// the transaction completes in time.
func (o *owner) tx(addr uint16, w, r []byte, timeout time.Duration) error {
	select {
	case <-o.quit:
		return errcode.InvalidState
	default:
	}

	req := txReq{addr: addr, done: make(chan error, 1)}
	if len(w) > 0 {
		req.w = append([]byte(nil), w...)
	}
	if len(r) > 0 {
		req.r = make([]byte, len(r))
	}

	if timeout <= 0 {
		select {
		case o.reqs <- req:
		case <-o.quit:
			return errcode.InvalidState
		}
		select {
		case err := <-req.done:
			copy(r, req.r)
			return err
		case <-o.quit:
			return errcode.InvalidState
		}
	}

	t := time.NewTimer(timeout)
	select {
	case o.reqs <- req:
		t.Stop()
	case <-t.C:
		return errcode.Busy
	case <-o.quit:
		t.Stop()
		return errcode.InvalidState
	}

	t.Reset(timeout)
	defer t.Stop()
	select {
	case err := <-req.done:
		copy(r, req.r)
		return err
	case <-t.C:
		return errcode.Timeout
	}
}
