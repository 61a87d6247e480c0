package desktop

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// persister mirrors snapshots to the store on a single goroutine. Pending
// snapshots are coalesced so only the newest one is written (last write
// wins); a failed save is retried when the next snapshot arrives.
type persister struct {
	store Store
	log   *logrus.Entry

	mu         sync.Mutex
	pending    *Entity
	pendingVer uint64
	savedVer   uint64
	inflight   bool
	lastErr    error
	saved      chan struct{} // closed after every save attempt

	wake chan struct{}
	stop chan struct{}
	done chan struct{}
}

func newPersister(store Store, log *logrus.Entry) *persister {
	return &persister{
		store: store,
		log:   log,
		saved: make(chan struct{}),
		wake:  make(chan struct{}, 1),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
}

// submit queues root for saving unless that version is already durable.
func (p *persister) submit(root *Entity, version uint64) {
	p.mu.Lock()
	if version <= p.savedVer || version < p.pendingVer {
		p.mu.Unlock()
		return
	}
	p.pending, p.pendingVer = root, version
	p.mu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
}

func (p *persister) run() {
	defer close(p.done)
	for {
		select {
		case <-p.wake:
			p.drain()
		case <-p.stop:
			p.drain()
			return
		}
	}
}

func (p *persister) drain() {
	for {
		p.mu.Lock()
		root, version := p.pending, p.pendingVer
		if root == nil {
			p.mu.Unlock()
			return
		}
		p.pending = nil
		p.inflight = true
		p.mu.Unlock()

		err := p.store.SaveSnapshot(context.Background(), root)

		p.mu.Lock()
		p.inflight = false
		if err != nil {
			p.lastErr = fmt.Errorf("%w: save snapshot v%d: %v", ErrPersistence, version, err)
			p.log.WithError(err).WithField("version", version).Warn("Failed to save desktop, will retry on next change")
		} else {
			if version > p.savedVer {
				p.savedVer = version
			}
			p.lastErr = nil
		}
		close(p.saved)
		p.saved = make(chan struct{})
		p.mu.Unlock()
	}
}

// stopped reports whether the writer goroutine has exited.
func (p *persister) stopped() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// wait blocks until version is durable, the last attempt for it failed, or
// ctx is done.
func (p *persister) wait(ctx context.Context, version uint64) error {
	for {
		p.mu.Lock()
		if p.savedVer >= version {
			p.mu.Unlock()
			return nil
		}
		if p.pending == nil && !p.inflight && p.lastErr != nil {
			err := p.lastErr
			p.mu.Unlock()
			return err
		}
		ch := p.saved
		p.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (p *persister) err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

func (p *persister) close() {
	select {
	case <-p.stop:
	default:
		close(p.stop)
	}
	<-p.done
}
