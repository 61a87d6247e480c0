package desktop

import "time"

// App describes a bundled application that always has a desktop shortcut.
type App struct {
	ID   string
	Name string
	Icon string
}

var BuiltinApps = []App{
	{ID: "wordApp", Name: "Word", Icon: "/word.png"},
	{ID: "pptApp", Name: "PowerPoint", Icon: "/ppt.png"},
	{ID: "excelApp", Name: "Excel", Icon: "/excel.png"},
}

// Well-known folders of a fresh desktop.
const (
	ThisPCID   = "thispc"
	PicturesID = "pictures"
)

// DefaultTree returns the desktop a new installation starts with. Positions
// are left empty and assigned by Normalize.
func DefaultTree(now time.Time) *Entity {
	stamp := Timestamp(now)
	root := &Entity{
		ID:           RootID,
		Name:         "Desktop",
		Kind:         KindFolder,
		DateModified: stamp,
		Children: []*Entity{
			{ID: ThisPCID, Name: "This PC", Kind: KindFolder, Children: []*Entity{}, DateModified: stamp},
			{ID: PicturesID, Name: "Pictures", Kind: KindFolder, Children: []*Entity{}, DateModified: stamp},
		},
	}
	for _, app := range BuiltinApps {
		root.Children = append(root.Children, &Entity{
			ID:           app.ID,
			Name:         app.Name,
			Kind:         KindApp,
			Icon:         app.Icon,
			DateModified: stamp,
		})
	}
	return root
}

func builtinApp(id string) (App, bool) {
	for _, app := range BuiltinApps {
		if app.ID == id {
			return app, true
		}
	}
	return App{}, false
}
