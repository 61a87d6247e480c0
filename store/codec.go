package store

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"webdesk/desktop"
)

// codecVersion is bumped when StoredEntity changes incompatibly.
const codecVersion = 1

// StoredEntity is a serializable version of desktop.Entity without pointers.
// The tree shape is kept as a parent reference plus ordered child ids.
type StoredEntity struct {
	ID           string
	Name         string
	Kind         string
	Content      string
	Icon         string
	HasPosition  bool
	X, Y         int
	DateModified string
	ParentID     string
	ChildIDs     []string
	IsFolder     bool
}

type storedTree struct {
	Version int
	Nodes   []StoredEntity // pre-order, root first
}

func toStored(e *desktop.Entity, parentID string) StoredEntity {
	s := StoredEntity{
		ID:           e.ID,
		Name:         e.Name,
		Kind:         string(e.Kind),
		Content:      e.Content,
		Icon:         e.Icon,
		DateModified: e.DateModified,
		ParentID:     parentID,
		IsFolder:     e.IsFolder(),
	}
	if e.Position != nil {
		s.HasPosition = true
		s.X, s.Y = e.Position.X, e.Position.Y
	}
	if len(e.Children) > 0 {
		s.ChildIDs = make([]string, len(e.Children))
		for i, c := range e.Children {
			s.ChildIDs[i] = c.ID
		}
	}
	return s
}

// Flatten converts a tree into stored records in pre-order.
func Flatten(root *desktop.Entity) []StoredEntity {
	var out []StoredEntity
	var visit func(e *desktop.Entity, parentID string)
	visit = func(e *desktop.Entity, parentID string) {
		out = append(out, toStored(e, parentID))
		for _, c := range e.Children {
			visit(c, e.ID)
		}
	}
	if root != nil {
		visit(root, "")
	}
	return out
}

// Rebuild reconstructs the tree from stored records. The first pass creates
// every node, the second connects children in their stored order. Records
// that are unreachable from the root are dropped.
func Rebuild(nodes []StoredEntity) (*desktop.Entity, error) {
	if len(nodes) == 0 {
		return nil, nil
	}

	all := make(map[string]*desktop.Entity, len(nodes))
	var root *desktop.Entity
	for _, s := range nodes {
		if _, dup := all[s.ID]; dup {
			return nil, fmt.Errorf("corrupt snapshot: duplicate id %q", s.ID)
		}
		e := &desktop.Entity{
			ID:           s.ID,
			Name:         s.Name,
			Kind:         desktop.Kind(s.Kind),
			Content:      s.Content,
			Icon:         s.Icon,
			DateModified: s.DateModified,
		}
		if s.HasPosition {
			e.Position = &desktop.Point{X: s.X, Y: s.Y}
		}
		if s.IsFolder {
			e.Children = []*desktop.Entity{}
		}
		all[s.ID] = e
		if s.ParentID == "" && root == nil {
			root = e
		}
	}
	if root == nil {
		return nil, fmt.Errorf("corrupt snapshot: no root record")
	}

	attached := map[string]bool{root.ID: true}
	for _, s := range nodes {
		node := all[s.ID]
		for _, childID := range s.ChildIDs {
			child := all[childID]
			if child == nil || attached[childID] {
				return nil, fmt.Errorf("corrupt snapshot: bad child %q of %q", childID, s.ID)
			}
			attached[childID] = true
			node.Children = append(node.Children, child)
		}
	}
	return root, nil
}

// Encode gob-encodes a snapshot.
func Encode(root *desktop.Entity) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(storedTree{Version: codecVersion, Nodes: Flatten(root)}); err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode reverses Encode.
func Decode(data []byte) (*desktop.Entity, error) {
	var tree storedTree
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&tree); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if tree.Version != codecVersion {
		return nil, fmt.Errorf("decode snapshot: unsupported version %d", tree.Version)
	}
	return Rebuild(tree.Nodes)
}
