package desktop

// ClipMode tags what a paste will do with the staged entities.
type ClipMode string

const (
	ClipNone ClipMode = ""
	ClipCopy ClipMode = "copy"
	ClipCut  ClipMode = "cut"
)

// Clipboard holds entities staged by a copy or cut. Items are snapshots taken
// at staging time, so a copy can still be pasted after its source is deleted.
// A cut paste only uses the ids of its items.
type Clipboard struct {
	Mode  ClipMode  `json:"mode"`
	Items []*Entity `json:"items"`
}

// Stage replaces the clipboard contents with deep copies of items.
func (c *Clipboard) Stage(mode ClipMode, items []*Entity) {
	c.Mode = mode
	c.Items = make([]*Entity, 0, len(items))
	for _, it := range items {
		c.Items = append(c.Items, it.Clone())
	}
}

func (c *Clipboard) Clear() {
	c.Mode = ClipNone
	c.Items = nil
}

func (c Clipboard) Empty() bool {
	return c.Mode == ClipNone || len(c.Items) == 0
}

// IDs returns the ids of the staged items in staging order.
func (c Clipboard) IDs() []string {
	ids := make([]string, len(c.Items))
	for i, it := range c.Items {
		ids[i] = it.ID
	}
	return ids
}

// Selection is the ordered set of highlighted entity ids.
type Selection struct {
	ids []string
}

// Set replaces the selection, dropping duplicates.
func (s *Selection) Set(ids ...string) {
	s.ids = s.ids[:0]
	for _, id := range ids {
		if !s.Has(id) {
			s.ids = append(s.ids, id)
		}
	}
}

// Toggle adds id if absent and removes it otherwise.
func (s *Selection) Toggle(id string) {
	if s.Has(id) {
		s.Remove(id)
		return
	}
	s.ids = append(s.ids, id)
}

func (s *Selection) Remove(ids ...string) {
	kept := s.ids[:0]
	for _, id := range s.ids {
		if !contains(ids, id) {
			kept = append(kept, id)
		}
	}
	s.ids = kept
}

func (s *Selection) Clear() {
	s.ids = nil
}

func (s *Selection) Has(id string) bool {
	return contains(s.ids, id)
}

func (s *Selection) Len() int {
	return len(s.ids)
}

// IDs returns a copy of the selected ids.
func (s *Selection) IDs() []string {
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

func contains(list []string, id string) bool {
	for _, v := range list {
		if v == id {
			return true
		}
	}
	return false
}
