package desktop

import (
	"fmt"
	"strings"
)

// Action names a context-menu entry or keyboard command.
type Action string

const (
	ActionRefresh     Action = "refresh"
	ActionSort        Action = "sort"
	ActionNewFile     Action = "newFile"
	ActionNewFolder   Action = "newFolder"
	ActionPersonalize Action = "personalize"
	ActionOpen        Action = "open"
	ActionCut         Action = "cut"
	ActionCopy        Action = "copy"
	ActionPaste       Action = "paste"
	ActionDelete      Action = "delete"
	ActionProperties  Action = "properties"
	ActionRename      Action = "rename"
)

// MenuItem is one entry of a context menu.
type MenuItem struct {
	Label   string `json:"label"`
	Action  Action `json:"action"`
	Enabled bool   `json:"enabled"`
}

var desktopMenu = []MenuItem{
	{Label: "Refresh", Action: ActionRefresh},
	{Label: "Sort", Action: ActionSort},
	{Label: "Paste", Action: ActionPaste},
	{Label: "New File", Action: ActionNewFile},
	{Label: "New Folder", Action: ActionNewFolder},
	{Label: "Personalize", Action: ActionPersonalize},
}

var itemMenu = []MenuItem{
	{Label: "Open", Action: ActionOpen},
	{Label: "Cut", Action: ActionCut},
	{Label: "Copy", Action: ActionCopy},
	{Label: "Paste", Action: ActionPaste},
	{Label: "Rename", Action: ActionRename},
	{Label: "Delete", Action: ActionDelete},
	{Label: "Properties", Action: ActionProperties},
}

// MenuFor builds the context menu for target. A nil target or the root
// yields the desktop menu. Paste is enabled only with a non-empty clipboard
// and only onto folders; the root cannot be cut, renamed, or deleted.
func MenuFor(target *Entity, clip Clipboard) []MenuItem {
	src := itemMenu
	if target == nil || target.IsRoot() {
		src = desktopMenu
	}
	out := make([]MenuItem, len(src))
	for i, item := range src {
		item.Enabled = true
		switch item.Action {
		case ActionPaste:
			item.Enabled = !clip.Empty() && (target == nil || target.IsFolder())
		case ActionCut, ActionCopy, ActionRename, ActionDelete:
			item.Enabled = target != nil && !target.IsRoot()
		}
		out[i] = item
	}
	return out
}

// OpenAction tells the shell which collaborator should handle an open.
type OpenAction string

const (
	OpenExplorer   OpenAction = "explorer"
	OpenEditor     OpenAction = "editor"
	OpenApp        OpenAction = "app"
	OpenProperties OpenAction = "properties"
)

// OpenTarget is the result of opening an entity.
type OpenTarget struct {
	Action OpenAction `json:"action"`
	ID     string     `json:"id"`
	App    string     `json:"app,omitempty"`
}

// ResolveOpen decides how an entity is opened: folders in the explorer,
// .txt files in the text editor, built-in apps by name, and anything else in
// the properties dialog.
func ResolveOpen(e *Entity) OpenTarget {
	t := OpenTarget{Action: OpenProperties, ID: e.ID}
	switch e.Kind {
	case KindFolder:
		t.Action = OpenExplorer
	case KindFile:
		if isTextFile(e.Name) {
			t.Action = OpenEditor
		}
	case KindApp:
		if app, ok := builtinApp(e.ID); ok {
			t.Action = OpenApp
			t.App = app.Name
		}
	}
	return t
}

// Outcome reports what a menu action or shortcut did, for the shell to act on.
type Outcome struct {
	Action      Action      `json:"action"`
	Open        *OpenTarget `json:"open,omitempty"`
	Entity      *Entity     `json:"entity,omitempty"`
	IDs         []string    `json:"ids,omitempty"`
	Personalize bool        `json:"personalize,omitempty"`
}

// InvokeArgs carries the optional inputs of a menu action.
type InvokeArgs struct {
	Name string `json:"name"`
	At   *Point `json:"at"`
}

// Invoke runs a context-menu action against targetID (empty means the
// desktop). Refresh only returns the current snapshot version, and
// personalize is handed back to the shell.
func (s *Session) Invoke(action Action, targetID string, args InvokeArgs) (Outcome, error) {
	out := Outcome{Action: action}
	if targetID == "" {
		targetID = RootID
	}
	switch action {
	case ActionRefresh:
		return out, nil
	case ActionPersonalize:
		out.Personalize = true
		return out, nil
	case ActionSort:
		return out, s.Sort(targetID, true)
	case ActionNewFile, ActionNewFolder:
		data := Entity{Kind: KindFile, Name: args.Name, Position: args.At}
		if action == ActionNewFolder {
			data.Kind = KindFolder
		}
		if data.Name == "" {
			data.Name = s.untitled(data.Kind)
		}
		id, err := s.Create(targetID, data)
		if err != nil {
			return out, err
		}
		out.IDs = []string{id}
		return out, nil
	case ActionPaste:
		ids, err := s.Paste(targetID)
		out.IDs = ids
		return out, err
	}

	ent := s.Find(targetID)
	if ent == nil {
		return out, fmt.Errorf("%s %q: %w", action, targetID, ErrNotFound)
	}
	switch action {
	case ActionOpen:
		t := ResolveOpen(ent)
		out.Open = &t
		out.Entity = ent
		return out, nil
	case ActionProperties:
		out.Entity = ent
		return out, nil
	case ActionCut:
		return out, s.Cut(targetID)
	case ActionCopy:
		return out, s.Copy(targetID)
	case ActionDelete:
		return out, s.Delete(targetID)
	case ActionRename:
		return out, s.Rename(targetID, args.Name)
	}
	return out, fmt.Errorf("%w: unknown action %q", ErrInvalidArgument, action)
}

// HandleKey applies a keyboard shortcut to the current selection. Paste
// targets the desktop.
func (s *Session) HandleKey(key string) (Outcome, error) {
	sel := s.Selection()
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "ctrl+c":
		return Outcome{Action: ActionCopy, IDs: sel}, s.Copy(sel...)
	case "ctrl+x":
		return Outcome{Action: ActionCut, IDs: sel}, s.Cut(sel...)
	case "ctrl+v":
		ids, err := s.Paste(RootID)
		return Outcome{Action: ActionPaste, IDs: ids}, err
	case "delete":
		return Outcome{Action: ActionDelete, IDs: sel}, s.DeleteSelection()
	}
	return Outcome{}, fmt.Errorf("%w: unbound key %q", ErrInvalidArgument, key)
}
