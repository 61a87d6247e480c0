package server

import (
	"sort"
	"strings"
	"sync"

	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"webdesk/desktop"
)

// ListItem is one folder entry sent over the /files socket.
type ListItem struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Type         desktop.Kind   `json:"type"`
	IsDir        bool           `json:"isDir"`
	Size         int64          `json:"size"` // content length in bytes, -1 for folders
	Icon         string         `json:"icon,omitempty"`
	Position     *desktop.Point `json:"position,omitempty"`
	DateModified string         `json:"dateModified"`
}

type WSMessage struct {
	RequestID int        `json:"requestId"`
	Items     []ListItem `json:"items"`
	Missing   bool       `json:"missing,omitempty"`
}

// WSEvent pushes a committed change to the client.
type WSEvent struct {
	Type  string        `json:"type"`
	Event desktop.Event `json:"event"`
}

type WSRequest struct {
	FolderID  string `json:"folderId"`
	RequestID int    `json:"requestId"`
	SortBy    string `json:"sortBy"`
	Dir       string `json:"dir"`
}

const chunkSize = 10

func (s *Server) handleWebSocket(c *websocket.Conn) {
	defer c.Close()
	log := s.log.WithField("remote", c.RemoteAddr().String())
	log.Info("WebSocket connected")

	var writeMu sync.Mutex
	writeJSON := func(v interface{}) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return c.WriteJSON(v)
	}

	events, unsubscribe := s.session.Subscribe(16)
	defer unsubscribe()
	go func() {
		for ev := range events {
			if err := writeJSON(WSEvent{Type: "change", Event: ev}); err != nil {
				return
			}
		}
	}()

	// Listen for folder requests from client
	for {
		var req WSRequest
		if err := c.ReadJSON(&req); err != nil {
			log.WithError(err).Debug("WebSocket closed")
			return
		}
		if req.FolderID == "" {
			req.FolderID = desktop.RootID
		}
		log.WithFields(logrus.Fields{
			"folder": req.FolderID, "requestId": req.RequestID, "sort": req.SortBy + " " + req.Dir,
		}).Debug("WebSocket listing request")

		items, ok := s.listing(req.FolderID, req.SortBy, req.Dir)

		// Send items in chunks, wrapped with requestId
		for i := 0; i < len(items); i += chunkSize {
			end := min(i+chunkSize, len(items))
			if err := writeJSON(WSMessage{RequestID: req.RequestID, Items: items[i:end]}); err != nil {
				log.WithError(err).Warn("Error sending chunk")
				return
			}
		}

		// Send empty array wrapped with requestId to indicate completion
		if err := writeJSON(WSMessage{RequestID: req.RequestID, Items: []ListItem{}, Missing: !ok}); err != nil {
			log.WithError(err).Warn("Error sending completion signal")
			return
		}
	}
}

// listing returns a folder's children, folders first. ok is false when the
// folder does not exist.
func (s *Server) listing(folderID, sortBy, dir string) ([]ListItem, bool) {
	folder := s.session.Find(folderID, desktop.KindFolder)
	if folder == nil {
		return []ListItem{}, false
	}

	var folders, files []ListItem
	for _, e := range folder.Children {
		item := ListItem{
			ID:           e.ID,
			Name:         e.Name,
			Type:         e.Kind,
			IsDir:        e.IsFolder(),
			Size:         int64(len(e.Content)),
			Icon:         e.Icon,
			Position:     e.Position,
			DateModified: e.DateModified,
		}
		if item.IsDir {
			item.Size = -1
			folders = append(folders, item)
		} else {
			files = append(files, item)
		}
	}

	col := collate.New(language.English)
	sortItems := func(items []ListItem) {
		sort.SliceStable(items, func(i, j int) bool {
			a, b := items[i], items[j]
			if dir == "desc" {
				a, b = b, a
			}
			switch sortBy {
			case "size":
				return a.Size < b.Size
			case "date":
				return a.DateModified < b.DateModified
			case "type":
				if a.Type != b.Type {
					return a.Type < b.Type
				}
			}
			return col.CompareString(a.Name, b.Name) < 0
		})
	}
	if sortBy != "" && !strings.EqualFold(sortBy, "none") {
		sortItems(folders)
		sortItems(files)
	}

	return append(folders, files...), true
}
