package desktop

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Engine implements the structural operations on the desktop tree. Every
// operation takes a root snapshot and returns a new one; the input is never
// modified. When an operation cannot apply it returns the input root together
// with an error wrapping ErrNotFound or ErrInvalidArgument.
type Engine struct {
	Layout Layout
	Now    func() time.Time
	NewID  func(Kind) string
}

func NewEngine(layout Layout) *Engine {
	return &Engine{
		Layout: layout,
		Now:    time.Now,
		NewID:  NewID,
	}
}

// NewID generates a fresh entity id prefixed with its kind.
func NewID(k Kind) string {
	return string(k) + "-" + uuid.NewString()
}

func (e *Engine) stamp() string {
	return Timestamp(e.Now())
}

// rewrite returns a copy of root in which the entity id has been replaced by
// a private copy passed through fn. Only the path from root down to id is
// copied; every other node is shared with the input.
func rewrite(root *Entity, id string, fn func(n *Entity)) (*Entity, bool) {
	if root.ID == id {
		c := root.shallowCopy()
		fn(c)
		return c, true
	}
	for i, child := range root.Children {
		if nc, ok := rewrite(child, id, fn); ok {
			c := root.shallowCopy()
			c.Children[i] = nc
			return c, true
		}
	}
	return root, false
}

// idSet collects every id in the tree.
func idSet(root *Entity) map[string]bool {
	ids := make(map[string]bool)
	Walk(root, func(e *Entity) bool {
		ids[e.ID] = true
		return true
	})
	return ids
}

func (e *Engine) freshID(k Kind, used map[string]bool) string {
	id := e.NewID(k)
	for used[id] {
		id = e.NewID(k)
	}
	used[id] = true
	return id
}

// adopt prepares a detached subtree for insertion: ids that are missing or
// already used are regenerated (all of them when renew is set), folders get
// a children slice, non-folders lose theirs, and nested positions are
// dropped because only direct children of the root are laid out.
func (e *Engine) adopt(top *Entity, used map[string]bool, stamp string, renew bool) {
	Walk(top, func(n *Entity) bool {
		if renew || n.ID == "" || used[n.ID] {
			n.ID = e.freshID(n.Kind, used)
		} else {
			used[n.ID] = true
		}
		if strings.TrimSpace(n.Name) == "" {
			n.Name = defaultName(n.Kind)
		}
		if n.IsFolder() {
			if n.Children == nil {
				n.Children = []*Entity{}
			}
		} else {
			n.Children = nil
		}
		if n != top {
			n.Position = nil
		}
		if n == top || n.DateModified == "" {
			n.DateModified = stamp
		}
		return true
	})
}

// position resolves where child should sit inside folder. Only direct
// children of the root carry a position; start is the preferred slot.
func (e *Engine) position(folder *Entity, childID string, start *Point) *Point {
	if !folder.IsRoot() {
		return nil
	}
	from := e.Layout.Origin
	if start != nil {
		from = *start
	}
	p := e.Layout.NextFreePosition(folder.positions(childID), from)
	return &p
}

// snapped moves a caller-supplied position onto the grid.
func (e *Engine) snapped(p *Point) *Point {
	if p == nil {
		return nil
	}
	s := e.Layout.SnapToGrid(float64(p.X), float64(p.Y))
	return &s
}

// Create appends a new entity (or a whole folder subtree) to the folder
// parentID and returns the id it was stored under.
func (e *Engine) Create(root *Entity, parentID string, data Entity) (*Entity, string, error) {
	if Find(root, parentID, KindFolder) == nil {
		return root, "", fmt.Errorf("create in %q: %w", parentID, ErrNotFound)
	}
	var bad *Entity
	Walk(&data, func(n *Entity) bool {
		if !n.Kind.Valid() {
			bad = n
		}
		return bad == nil
	})
	if bad != nil {
		return root, "", fmt.Errorf("create %q: %w: unknown kind %q", bad.Name, ErrInvalidArgument, bad.Kind)
	}

	ent := data.Clone()
	e.adopt(ent, idSet(root), e.stamp(), false)

	next, _ := rewrite(root, parentID, func(p *Entity) {
		ent.Position = e.position(p, ent.ID, e.snapped(ent.Position))
		p.Children = append(p.Children, ent)
	})
	return next, ent.ID, nil
}

// Rename sets a trimmed, non-empty name. The root cannot be renamed.
func (e *Engine) Rename(root *Entity, id, newName string) (*Entity, error) {
	name := strings.TrimSpace(newName)
	if name == "" {
		return root, fmt.Errorf("rename %q: %w: empty name", id, ErrInvalidArgument)
	}
	if id == RootID {
		return root, fmt.Errorf("rename root: %w", ErrInvalidArgument)
	}
	if Find(root, id) == nil {
		return root, fmt.Errorf("rename %q: %w", id, ErrNotFound)
	}
	stamp := e.stamp()
	next, _ := rewrite(root, id, func(n *Entity) {
		n.Name = name
		n.DateModified = stamp
	})
	return next, nil
}

// UpdateContent replaces the payload of a non-folder entity.
func (e *Engine) UpdateContent(root *Entity, id, content string) (*Entity, error) {
	if Find(root, id, KindFile, KindImage, KindVideo, KindApp) == nil {
		return root, fmt.Errorf("update content of %q: %w", id, ErrNotFound)
	}
	stamp := e.stamp()
	next, _ := rewrite(root, id, func(n *Entity) {
		n.Content = content
		n.DateModified = stamp
	})
	return next, nil
}

// Delete removes the named entities and all their descendants. It returns
// every removed id. The root is never removed.
func (e *Engine) Delete(root *Entity, ids ...string) (*Entity, []string, error) {
	var removed []string
	sawRoot := false
	next := root
	for _, id := range ids {
		if id == RootID {
			sawRoot = true
			continue
		}
		parent, idx := FindParent(next, id)
		if parent == nil {
			continue
		}
		Walk(parent.Children[idx], func(n *Entity) bool {
			removed = append(removed, n.ID)
			return true
		})
		next, _ = rewrite(next, parent.ID, func(p *Entity) {
			p.removeChildAt(idx)
		})
	}
	if len(removed) == 0 {
		if sawRoot {
			return root, nil, fmt.Errorf("delete root: %w", ErrInvalidArgument)
		}
		return root, nil, fmt.Errorf("delete %v: %w", ids, ErrNotFound)
	}
	return next, removed, nil
}

// Move detaches id from its parent and appends it to newParentID. drop is a
// raw pixel coordinate; inside the root it is snapped to the grid and then
// moved to the nearest free slot. Moving within the root only repositions.
func (e *Engine) Move(root *Entity, id, newParentID string, drop *Point) (*Entity, error) {
	var at *Point
	if drop != nil {
		p := e.Layout.SnapToGrid(float64(drop.X), float64(drop.Y))
		at = &p
	}
	return e.relocate(root, id, newParentID, at, e.stamp())
}

func (e *Engine) relocate(root *Entity, id, targetID string, at *Point, stamp string) (*Entity, error) {
	if id == RootID {
		return root, fmt.Errorf("move root: %w", ErrInvalidArgument)
	}
	ent := Find(root, id)
	if ent == nil {
		return root, fmt.Errorf("move %q: %w", id, ErrNotFound)
	}
	if Find(root, targetID, KindFolder) == nil {
		return root, fmt.Errorf("move %q into %q: %w", id, targetID, ErrNotFound)
	}
	if Find(ent, targetID) != nil {
		return root, fmt.Errorf("move %q into its own subtree %q: %w", id, targetID, ErrInvalidArgument)
	}
	parent, idx := FindParent(root, id)

	if parent.ID == targetID && parent.IsRoot() {
		next, _ := rewrite(root, id, func(n *Entity) {
			start := at
			if start == nil {
				start = n.Position
			}
			n.Position = e.position(parent, id, start)
			n.DateModified = stamp
		})
		return next, nil
	}

	moved := ent.shallowCopy()
	moved.DateModified = stamp
	if at == nil {
		at = ent.Position
	}
	next, _ := rewrite(root, parent.ID, func(p *Entity) {
		p.removeChildAt(idx)
	})
	next, _ = rewrite(next, targetID, func(t *Entity) {
		moved.Position = e.position(t, moved.ID, at)
		t.Children = append(t.Children, moved)
	})
	return next, nil
}

// Paste applies the clipboard to the folder targetID and returns the ids of
// the pasted entities. Copies get fresh ids throughout their subtree and a
// " (copy)" suffix; a cut moves the live originals, matched by id, skipping
// any that were deleted or would create a cycle. Paste does not clear the
// clipboard.
func (e *Engine) Paste(root *Entity, clip Clipboard, targetID string) (*Entity, []string, error) {
	if clip.Empty() {
		return root, nil, fmt.Errorf("paste: %w: clipboard is empty", ErrInvalidArgument)
	}
	if Find(root, targetID, KindFolder) == nil {
		return root, nil, fmt.Errorf("paste into %q: %w", targetID, ErrNotFound)
	}
	stamp := e.stamp()

	if clip.Mode == ClipCopy {
		used := idSet(root)
		copies := make([]*Entity, 0, len(clip.Items))
		for _, item := range clip.Items {
			c := item.Clone()
			e.adopt(c, used, stamp, true)
			c.Name = item.Name + " (copy)"
			copies = append(copies, c)
		}
		ids := make([]string, len(copies))
		next, _ := rewrite(root, targetID, func(t *Entity) {
			for i, c := range copies {
				c.Position = e.position(t, c.ID, e.snapped(c.Position))
				t.Children = append(t.Children, c)
				ids[i] = c.ID
			}
		})
		return next, ids, nil
	}

	var moved []string
	next := root
	for _, item := range clip.Items {
		var err error
		next, err = e.relocate(next, item.ID, targetID, nil, stamp)
		if err != nil {
			continue
		}
		moved = append(moved, item.ID)
	}
	if len(moved) == 0 {
		return root, nil, fmt.Errorf("paste cut items %v: %w", clip.IDs(), ErrNotFound)
	}
	return next, moved, nil
}

// Sort orders a folder's children by name using locale-aware collation. With
// rearrange set, root children are also packed into gap-free slots.
func (e *Engine) Sort(root *Entity, folderID string, rearrange bool) (*Entity, error) {
	if Find(root, folderID, KindFolder) == nil {
		return root, fmt.Errorf("sort %q: %w", folderID, ErrNotFound)
	}
	next, _ := rewrite(root, folderID, func(f *Entity) {
		SortByName(f.Children)
		if !rearrange || !f.IsRoot() {
			return
		}
		slots := e.Layout.Arrange(len(f.Children))
		for i, c := range f.Children {
			cc := c.shallowCopy()
			cc.Position = &slots[i]
			f.Children[i] = cc
		}
	})
	return next, nil
}

// SortByName orders entities in place the way a person reading the names
// would expect ("apple" < "Banana" < "cherry").
func SortByName(items []*Entity) {
	col := collate.New(language.English)
	sort.SliceStable(items, func(i, j int) bool {
		return col.CompareString(items[i].Name, items[j].Name) < 0
	})
}

// Normalize repairs a tree read from storage: folders get children slices,
// non-folders lose theirs, duplicate or missing ids are regenerated, empty
// dates are filled, built-in apps are restored, and root children without a
// free position are laid out again.
func (e *Engine) Normalize(root *Entity) (*Entity, error) {
	if root == nil || root.ID != RootID || !root.IsFolder() {
		return nil, fmt.Errorf("normalize: %w: missing %q folder", ErrInvalidArgument, RootID)
	}
	out := root.Clone()
	stamp := e.stamp()
	used := make(map[string]bool)
	Walk(out, func(n *Entity) bool {
		if n.ID == "" || used[n.ID] {
			n.ID = e.freshID(n.Kind, used)
		}
		used[n.ID] = true
		if !n.Kind.Valid() {
			n.Kind = KindFile
		}
		if n.IsFolder() && n.Children == nil {
			n.Children = []*Entity{}
		}
		if !n.IsFolder() {
			n.Children = nil
		}
		if n.DateModified == "" {
			n.DateModified = stamp
		}
		return true
	})
	Walk(out, func(n *Entity) bool {
		for _, c := range n.Children {
			if !n.IsRoot() {
				c.Position = nil
			}
		}
		return true
	})

	for _, app := range BuiltinApps {
		if out.childIndex(app.ID) >= 0 {
			continue
		}
		if used[app.ID] {
			continue
		}
		out.Children = append(out.Children, &Entity{
			ID:           app.ID,
			Name:         app.Name,
			Kind:         KindApp,
			Icon:         app.Icon,
			DateModified: stamp,
		})
		used[app.ID] = true
	}

	var placed []Point
	for _, c := range out.Children {
		start := e.Layout.Origin
		if c.Position != nil {
			start = *c.Position
		}
		p := e.Layout.NextFreePosition(placed, start)
		c.Position = &p
		placed = append(placed, p)
	}
	return out, nil
}
