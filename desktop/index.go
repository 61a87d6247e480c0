package desktop

import "fmt"

// Find returns the first entity in pre-order whose id matches and, when
// kinds are given, whose kind is one of them. A nil result is not an error.
func Find(root *Entity, id string, kinds ...Kind) *Entity {
	if root == nil {
		return nil
	}
	if root.ID == id && kindMatches(root.Kind, kinds) {
		return root
	}
	if !root.IsFolder() {
		return nil
	}
	for _, child := range root.Children {
		if found := Find(child, id, kinds...); found != nil {
			return found
		}
	}
	return nil
}

func kindMatches(k Kind, kinds []Kind) bool {
	if len(kinds) == 0 {
		return true
	}
	for _, want := range kinds {
		if k == want {
			return true
		}
	}
	return false
}

// FindParent returns the folder directly containing id and the child's
// index within it. The root has no parent.
func FindParent(root *Entity, id string) (*Entity, int) {
	if root == nil || !root.IsFolder() {
		return nil, -1
	}
	for i, child := range root.Children {
		if child.ID == id {
			return root, i
		}
		if parent, idx := FindParent(child, id); parent != nil {
			return parent, idx
		}
	}
	return nil, -1
}

// Walk visits the subtree in pre-order until fn returns false.
func Walk(root *Entity, fn func(e *Entity) bool) bool {
	if root == nil {
		return true
	}
	if !fn(root) {
		return false
	}
	for _, child := range root.Children {
		if !Walk(child, fn) {
			return false
		}
	}
	return true
}

// Count returns the number of entities in the subtree, root included.
func Count(root *Entity) int {
	n := 0
	Walk(root, func(*Entity) bool {
		n++
		return true
	})
	return n
}

// IsAncestor reports whether the entity ancestorID contains id at any depth.
// An entity counts as its own ancestor.
func IsAncestor(root *Entity, ancestorID, id string) bool {
	anc := Find(root, ancestorID)
	if anc == nil {
		return false
	}
	return Find(anc, id) != nil
}

// Validate checks the tree invariants: a single folder root with the fixed
// id, unique ids, known kinds, and no children on non-folders. Icon
// overlap depends on the layout and is checked by Layout.CheckPositions.
func Validate(root *Entity) error {
	if root == nil {
		return fmt.Errorf("%w: nil tree", ErrInvalidArgument)
	}
	if root.ID != RootID || !root.IsFolder() {
		return fmt.Errorf("%w: root must be folder %q, got %s %q", ErrInvalidArgument, RootID, root.Kind, root.ID)
	}
	seen := make(map[string]bool)
	var err error
	Walk(root, func(e *Entity) bool {
		switch {
		case e.ID == "":
			err = fmt.Errorf("%w: entity %q has no id", ErrInvalidArgument, e.Name)
		case seen[e.ID]:
			err = fmt.Errorf("%w: duplicate id %q", ErrInvalidArgument, e.ID)
		case !e.Kind.Valid():
			err = fmt.Errorf("%w: entity %q has unknown kind %q", ErrInvalidArgument, e.ID, e.Kind)
		case !e.IsFolder() && e.Children != nil:
			err = fmt.Errorf("%w: %s %q has children", ErrInvalidArgument, e.Kind, e.ID)
		}
		seen[e.ID] = true
		return err == nil
	})
	return err
}
