package desktop

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Store is the durable mirror of the tree. LoadSnapshot returns nil, nil
// when nothing has been saved yet.
type Store interface {
	LoadSnapshot(ctx context.Context) (*Entity, error)
	SaveSnapshot(ctx context.Context, root *Entity) error
}

// Event is published to subscribers after every committed change.
type Event struct {
	Version uint64   `json:"version"`
	Action  string   `json:"action"`
	IDs     []string `json:"ids,omitempty"`
}

// Options configures a Session.
type Options struct {
	Layout           Layout
	Logger           *logrus.Entry
	AutosaveInterval time.Duration
	Now              func() time.Time
	NewID            func(Kind) string
}

// Session owns the live desktop tree together with its selection and
// clipboard. It is the only writer: every mutation runs under one lock
// against the current snapshot and publishes a new one. Snapshots are
// mirrored to the store in the background and never block a mutation.
type Session struct {
	mu      sync.Mutex
	engine  *Engine
	root    *Entity
	version uint64
	clip    Clipboard
	sel     Selection
	log     *logrus.Entry

	persist      *persister
	stopAutosave chan struct{}
	autosaveDone chan struct{}

	subMu   sync.Mutex
	subs    map[int]chan Event
	nextSub int
}

// NewSession starts a session on the default tree. A nil store keeps the
// tree in memory only. Call Load to restore the saved tree and Close to stop
// the background writer.
func NewSession(store Store, opts Options) *Session {
	if opts.Layout == (Layout{}) {
		opts.Layout = DesktopLayout()
	}
	engine := NewEngine(opts.Layout)
	if opts.Now != nil {
		engine.Now = opts.Now
	}
	if opts.NewID != nil {
		engine.NewID = opts.NewID
	}
	log := opts.Logger
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = logrus.NewEntry(l)
	}

	s := &Session{
		engine: engine,
		log:    log.WithField("component", "session"),
		subs:   make(map[int]chan Event),
	}
	s.root, _ = engine.Normalize(DefaultTree(engine.Now()))

	if store != nil {
		s.persist = newPersister(store, s.log)
		go s.persist.run()
		if opts.AutosaveInterval > 0 {
			s.stopAutosave = make(chan struct{})
			s.autosaveDone = make(chan struct{})
			go s.autosave(opts.AutosaveInterval)
		}
	}
	return s
}

// Load reads the saved tree once, falling back to the default desktop when
// nothing is stored or the stored tree is unusable. A store failure is
// returned wrapped in ErrPersistence but the session stays usable.
func (s *Session) Load(ctx context.Context) error {
	var loaded *Entity
	var loadErr error
	if s.persist != nil {
		var err error
		loaded, err = s.persist.store.LoadSnapshot(ctx)
		if err != nil {
			loadErr = fmt.Errorf("%w: load snapshot: %v", ErrPersistence, err)
			s.log.WithError(err).Warn("Failed to load saved desktop, starting from defaults")
			loaded = nil
		}
	}
	if loaded == nil {
		loaded = DefaultTree(s.engine.Now())
	}
	root, err := s.engine.Normalize(loaded)
	if err != nil {
		s.log.WithError(err).Warn("Saved desktop is unusable, starting from defaults")
		root, _ = s.engine.Normalize(DefaultTree(s.engine.Now()))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sel.Clear()
	s.clip.Clear()
	s.commit(root, "load", nil)
	s.log.WithField("entities", Count(root)).Info("Desktop loaded")
	return loadErr
}

// commit publishes next as the current snapshot. Callers hold s.mu.
func (s *Session) commit(next *Entity, action string, ids []string) {
	s.root = next
	s.version++
	if s.persist != nil {
		s.persist.submit(next, s.version)
	}
	s.publish(Event{Version: s.version, Action: action, IDs: ids})
}

// apply runs one engine operation under the lock. Operations that do not
// apply leave the tree untouched and are only logged at debug level.
func (s *Session) apply(action string, op func(root *Entity) (*Entity, []string, error)) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, ids, err := op(s.root)
	if err != nil {
		s.log.WithError(err).WithField("action", action).Debug("Operation did not apply")
		return nil, err
	}
	s.commit(next, action, ids)
	return ids, nil
}

// Snapshot returns the current tree and its version. The tree is shared and
// must not be modified.
func (s *Session) Snapshot() (*Entity, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.root, s.version
}

func (s *Session) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

func (s *Session) Layout() Layout {
	return s.engine.Layout
}

// Find looks up an entity in the current snapshot.
func (s *Session) Find(id string, kinds ...Kind) *Entity {
	root, _ := s.Snapshot()
	return Find(root, id, kinds...)
}

func (s *Session) Create(parentID string, data Entity) (string, error) {
	ids, err := s.apply("create", func(root *Entity) (*Entity, []string, error) {
		next, id, err := s.engine.Create(root, parentID, data)
		return next, []string{id}, err
	})
	if err != nil {
		return "", err
	}
	return ids[0], nil
}

func (s *Session) Rename(id, name string) error {
	_, err := s.apply("rename", func(root *Entity) (*Entity, []string, error) {
		next, err := s.engine.Rename(root, id, name)
		return next, []string{id}, err
	})
	return err
}

func (s *Session) UpdateContent(id, content string) error {
	_, err := s.apply("content", func(root *Entity) (*Entity, []string, error) {
		next, err := s.engine.UpdateContent(root, id, content)
		return next, []string{id}, err
	})
	return err
}

// Delete removes entities and their descendants and drops them from the
// selection. Staged copies stay on the clipboard.
func (s *Session) Delete(ids ...string) error {
	_, err := s.apply("delete", func(root *Entity) (*Entity, []string, error) {
		next, removed, err := s.engine.Delete(root, ids...)
		if err == nil {
			s.sel.Remove(removed...)
		}
		return next, removed, err
	})
	return err
}

// DeleteSelection deletes every selected entity and clears the selection.
func (s *Session) DeleteSelection() error {
	_, err := s.apply("delete", func(root *Entity) (*Entity, []string, error) {
		if s.sel.Len() == 0 {
			return root, nil, fmt.Errorf("delete selection: %w: nothing selected", ErrInvalidArgument)
		}
		next, removed, err := s.engine.Delete(root, s.sel.IDs()...)
		if err == nil {
			s.sel.Clear()
		}
		return next, removed, err
	})
	return err
}

func (s *Session) Move(id, parentID string, drop *Point) error {
	_, err := s.apply("move", func(root *Entity) (*Entity, []string, error) {
		next, err := s.engine.Move(root, id, parentID, drop)
		return next, []string{id}, err
	})
	return err
}

// Sort orders a folder by name. With rearrange set, desktop icons are packed
// into gap-free slots as well.
func (s *Session) Sort(folderID string, rearrange bool) error {
	_, err := s.apply("sort", func(root *Entity) (*Entity, []string, error) {
		next, err := s.engine.Sort(root, folderID, rearrange)
		return next, []string{folderID}, err
	})
	return err
}

// Copy stages snapshots of the named entities for a copy paste.
func (s *Session) Copy(ids ...string) error {
	return s.stage(ClipCopy, ids)
}

// Cut stages the named entities to be moved by the next paste.
func (s *Session) Cut(ids ...string) error {
	return s.stage(ClipCut, ids)
}

func (s *Session) stage(mode ClipMode, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var items []*Entity
	for _, id := range ids {
		if id == RootID {
			continue
		}
		if e := Find(s.root, id); e != nil {
			items = append(items, e)
		}
	}
	if len(items) == 0 {
		return fmt.Errorf("%s %v: %w", mode, ids, ErrNotFound)
	}
	s.clip.Stage(mode, items)
	return nil
}

// Paste applies the clipboard to targetID. A cut paste consumes the
// clipboard and clears the selection; a copy can be pasted again.
func (s *Session) Paste(targetID string) ([]string, error) {
	return s.apply("paste", func(root *Entity) (*Entity, []string, error) {
		if Find(root, targetID, KindFolder) == nil {
			return root, nil, fmt.Errorf("paste into %q: %w", targetID, ErrNotFound)
		}
		next, ids, err := s.engine.Paste(root, s.clip, targetID)
		if s.clip.Mode == ClipCut {
			s.clip.Clear()
			s.sel.Clear()
		}
		return next, ids, err
	})
}

// Clipboard returns the staged mode and items. Items are shared snapshots.
func (s *Session) Clipboard() Clipboard {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Clipboard{Mode: s.clip.Mode, Items: append([]*Entity(nil), s.clip.Items...)}
}

func (s *Session) ClearClipboard() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clip.Clear()
}

// Select replaces the selection with the ids that currently exist.
func (s *Session) Select(ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var live []string
	for _, id := range ids {
		if Find(s.root, id) != nil {
			live = append(live, id)
		}
	}
	s.sel.Set(live...)
}

func (s *Session) ToggleSelect(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if Find(s.root, id) == nil && !s.sel.Has(id) {
		return
	}
	s.sel.Toggle(id)
}

func (s *Session) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sel.Clear()
}

func (s *Session) Selection() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel.IDs()
}

// Menu returns the context menu for targetID, or the desktop menu when
// targetID is empty.
func (s *Session) Menu(targetID string) ([]MenuItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if targetID == "" {
		return MenuFor(nil, s.clip), nil
	}
	target := Find(s.root, targetID)
	if target == nil {
		return nil, fmt.Errorf("menu for %q: %w", targetID, ErrNotFound)
	}
	return MenuFor(target, s.clip), nil
}

func (s *Session) untitled(k Kind) string {
	ts := s.engine.Now().UnixMilli()
	if k == KindFolder {
		return fmt.Sprintf("NewFolder-%d", ts)
	}
	return fmt.Sprintf("NewFile-%d.txt", ts)
}

// Subscribe registers for change events. Slow subscribers miss events
// rather than block the writer. The returned func unsubscribes.
func (s *Session) Subscribe(buffer int) (<-chan Event, func()) {
	ch := make(chan Event, buffer)
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
			close(ch)
		})
	}
}

func (s *Session) publish(ev Event) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// LastSaveError returns the most recent persistence failure, or nil once a
// later save has succeeded.
func (s *Session) LastSaveError() error {
	if s.persist == nil {
		return nil
	}
	return s.persist.err()
}

// Flush waits until the current snapshot has been written to the store.
func (s *Session) Flush(ctx context.Context) error {
	if s.persist == nil {
		return nil
	}
	if s.persist.stopped() {
		return s.persist.err()
	}
	s.mu.Lock()
	root, version := s.root, s.version
	s.mu.Unlock()
	s.persist.submit(root, version)
	return s.persist.wait(ctx, version)
}

// Close stops autosave, flushes the latest snapshot, and stops the writer.
func (s *Session) Close(ctx context.Context) error {
	if s.persist == nil {
		return nil
	}
	if s.stopAutosave != nil {
		close(s.stopAutosave)
		<-s.autosaveDone
		s.stopAutosave = nil
	}
	err := s.Flush(ctx)
	s.persist.close()
	return err
}

// autosave resubmits the current snapshot on every tick. The persister skips
// versions that are already durable, so this only retries failed saves.
func (s *Session) autosave(every time.Duration) {
	defer close(s.autosaveDone)
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.mu.Lock()
			root, version := s.root, s.version
			s.mu.Unlock()
			s.persist.submit(root, version)
		case <-s.stopAutosave:
			return
		}
	}
}
