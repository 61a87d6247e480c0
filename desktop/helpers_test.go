package desktop

import (
	"fmt"
	"time"
)

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// sequentialIDs returns an id generator that yields kind-1, kind-2, ...
func sequentialIDs() func(Kind) string {
	n := 0
	return func(k Kind) string {
		n++
		return fmt.Sprintf("%s-%d", k, n)
	}
}

func newTestEngine() *Engine {
	e := NewEngine(DesktopLayout())
	e.Now = func() time.Time { return testNow }
	e.NewID = sequentialIDs()
	return e
}

// picturesOnly is a desktop holding a single empty pictures folder.
func picturesOnly() *Entity {
	return &Entity{
		ID:   RootID,
		Name: "Desktop",
		Kind: KindFolder,
		Children: []*Entity{
			{ID: PicturesID, Name: "Pictures", Kind: KindFolder, Children: []*Entity{}, Position: &Point{X: 20, Y: 60}},
		},
	}
}

// nestedTree is root > a(folder) > b(folder) > c(file), plus a loose file d.
func nestedTree() *Entity {
	return &Entity{
		ID:   RootID,
		Name: "Desktop",
		Kind: KindFolder,
		Children: []*Entity{
			{ID: "a", Name: "A", Kind: KindFolder, Position: &Point{X: 20, Y: 60}, Children: []*Entity{
				{ID: "b", Name: "B", Kind: KindFolder, Children: []*Entity{
					{ID: "c", Name: "c.txt", Kind: KindFile, Content: "hello"},
				}},
			}},
			{ID: "d", Name: "d.txt", Kind: KindFile, Position: &Point{X: 20, Y: 160}},
		},
	}
}

func childIDs(e *Entity) []string {
	ids := make([]string, len(e.Children))
	for i, c := range e.Children {
		ids[i] = c.ID
	}
	return ids
}
