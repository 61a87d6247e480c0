package desktop

import (
	"strings"
	"time"
)

// Kind categorizes the nodes of the desktop tree.
type Kind string

const (
	KindFolder Kind = "folder"
	KindFile   Kind = "file"
	KindImage  Kind = "image"
	KindVideo  Kind = "video"
	KindApp    Kind = "app" // Shortcut that launches a bundled application
)

// RootID is the fixed identifier of the desktop folder.
const RootID = "root"

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindFolder, KindFile, KindImage, KindVideo, KindApp:
		return true
	}
	return false
}

// Point is an icon position in desktop pixels.
type Point struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// Entity is a single node in the desktop tree. Snapshots handed out by the
// engine share nodes with each other and must be treated as read-only.
type Entity struct {
	ID           string    `json:"id" yaml:"id"`
	Name         string    `json:"name" yaml:"name"`
	Kind         Kind      `json:"type" yaml:"type"`
	Content      string    `json:"content,omitempty" yaml:"content,omitempty"`
	Icon         string    `json:"icon,omitempty" yaml:"icon,omitempty"`
	Children     []*Entity `json:"children,omitempty" yaml:"children,omitempty"`
	Position     *Point    `json:"position,omitempty" yaml:"position,omitempty"`
	DateModified string    `json:"dateModified" yaml:"dateModified"`
}

func (e *Entity) IsFolder() bool {
	return e.Kind == KindFolder
}

func (e *Entity) IsRoot() bool {
	return e.ID == RootID
}

// shallowCopy copies the node and its children slice, but not the children.
func (e *Entity) shallowCopy() *Entity {
	c := *e
	if e.Children != nil {
		c.Children = make([]*Entity, len(e.Children))
		copy(c.Children, e.Children)
	}
	return &c
}

// Clone returns a deep copy of the subtree rooted at e.
func (e *Entity) Clone() *Entity {
	if e == nil {
		return nil
	}
	c := *e
	if e.Position != nil {
		p := *e.Position
		c.Position = &p
	}
	if e.Children != nil {
		c.Children = make([]*Entity, len(e.Children))
		for i, child := range e.Children {
			c.Children[i] = child.Clone()
		}
	}
	return &c
}

// childIndex returns the index of the direct child with the given id, or -1.
func (e *Entity) childIndex(id string) int {
	for i, c := range e.Children {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// removeChildAt removes the child at i. The receiver must own its slice.
func (e *Entity) removeChildAt(i int) {
	e.Children = append(e.Children[:i], e.Children[i+1:]...)
}

// positions returns the assigned positions of e's children, skipping the
// child with id exclude.
func (e *Entity) positions(exclude string) []Point {
	var out []Point
	for _, c := range e.Children {
		if c.ID == exclude || c.Position == nil {
			continue
		}
		out = append(out, *c.Position)
	}
	return out
}

func defaultName(k Kind) string {
	switch k {
	case KindFolder:
		return "New Folder"
	case KindFile:
		return "Untitled.txt"
	case KindImage:
		return "Untitled.png"
	case KindVideo:
		return "Untitled.webm"
	default:
		return "Untitled"
	}
}

func isTextFile(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".txt")
}

// Timestamp formats t the way DateModified is stored.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
