package server

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"webdesk/desktop"
)

func (s *Server) handleIndex(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "ok",
		"version":   s.cfg.Version,
		"writeMode": s.cfg.WriteMode,
		"uploads":   s.cfg.UploadDir != "" && s.cfg.WriteMode,
	})
}

func (s *Server) handleTree(c *fiber.Ctx) error {
	root, version := s.session.Snapshot()
	return c.JSON(fiber.Map{
		"status":  "ok",
		"version": version,
		"tree":    root,
	})
}

func (s *Server) handleEntity(c *fiber.Ctx) error {
	id := c.Params("id")
	root, version := s.session.Snapshot()
	ent := desktop.Find(root, id)
	if ent == nil {
		return notFound(c, "Entity not found")
	}
	parentID := ""
	if parent, _ := desktop.FindParent(root, id); parent != nil {
		parentID = parent.ID
	}
	return c.JSON(fiber.Map{
		"status":   "ok",
		"version":  version,
		"entity":   ent,
		"parentId": parentID,
	})
}

func (s *Server) handleOpen(c *fiber.Ctx) error {
	ent := s.session.Find(c.Params("id"))
	if ent == nil {
		return notFound(c, "Entity not found")
	}
	return c.JSON(fiber.Map{
		"status": "ok",
		"open":   desktop.ResolveOpen(ent),
	})
}

type createRequest struct {
	ParentID string         `json:"parentId"`
	Entity   desktop.Entity `json:"entity"`
}

func (s *Server) handleCreate(c *fiber.Ctx) error {
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.ParentID == "" {
		req.ParentID = desktop.RootID
	}
	id, err := s.session.Create(req.ParentID, req.Entity)
	s.record("create", []string{req.Entity.Name}, req.ParentID, err)
	if err == nil {
		s.log.WithFields(logrus.Fields{"id": id, "parent": req.ParentID}).Info("Created entity")
	}
	return s.result(c, err, fiber.Map{"id": id})
}

func (s *Server) handleRename(c *fiber.Ctx) error {
	var req struct {
		ID      string `json:"id"`
		NewName string `json:"newName"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.ID == "" {
		return badRequest(c, "id is required")
	}
	err := s.session.Rename(req.ID, req.NewName)
	s.record("rename", []string{req.ID}, req.NewName, err)
	return s.result(c, err, fiber.Map{"id": req.ID})
}

func (s *Server) handleMove(c *fiber.Ctx) error {
	var req struct {
		ID       string         `json:"id"`
		ParentID string         `json:"parentId"`
		Drop     *desktop.Point `json:"drop"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.ParentID == "" {
		req.ParentID = desktop.RootID
	}
	err := s.session.Move(req.ID, req.ParentID, req.Drop)
	s.record("move", []string{req.ID}, req.ParentID, err)
	return s.result(c, err, nil)
}

func (s *Server) handleSort(c *fiber.Ctx) error {
	var req struct {
		FolderID  string `json:"folderId"`
		Rearrange bool   `json:"rearrange"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.FolderID == "" {
		req.FolderID = desktop.RootID
	}
	err := s.session.Sort(req.FolderID, req.Rearrange)
	s.record("sort", []string{req.FolderID}, "", err)
	return s.result(c, err, nil)
}

func (s *Server) handleUpdateContent(c *fiber.Ctx) error {
	var req struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	id := c.Params("id")
	err := s.session.UpdateContent(id, req.Content)
	s.record("content", []string{id}, "", err)
	return s.result(c, err, nil)
}

func (s *Server) handleSelect(c *fiber.Ctx) error {
	var req struct {
		IDs    []string `json:"ids"`
		Toggle string   `json:"toggle"`
		Clear  bool     `json:"clear"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	switch {
	case req.Clear:
		s.session.ClearSelection()
	case req.Toggle != "":
		s.session.ToggleSelect(req.Toggle)
	default:
		s.session.Select(req.IDs...)
	}
	return c.JSON(fiber.Map{
		"status":    "ok",
		"selection": s.session.Selection(),
	})
}

func (s *Server) handleClipboard(c *fiber.Ctx) error {
	clip := s.session.Clipboard()
	return c.JSON(fiber.Map{
		"status": "ok",
		"mode":   clip.Mode,
		"ids":    clip.IDs(),
	})
}

func (s *Server) handleMenu(c *fiber.Ctx) error {
	items, err := s.session.Menu(c.Query("target"))
	if err != nil {
		return notFound(c, "Entity not found")
	}
	return c.JSON(fiber.Map{
		"status": "ok",
		"items":  items,
	})
}

func (s *Server) handleMenuAction(c *fiber.Ctx) error {
	var req struct {
		Target string `json:"target"`
		desktop.InvokeArgs
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "Invalid request body")
		}
	}
	action := desktop.Action(c.Params("action"))
	out, err := s.session.Invoke(action, req.Target, req.InvokeArgs)
	s.record(string(action), append([]string{req.Target}, out.IDs...), "", err)
	return s.result(c, err, fiber.Map{"outcome": out})
}

func (s *Server) handleKey(c *fiber.Ctx) error {
	var req struct {
		Key string `json:"key"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	out, err := s.session.HandleKey(req.Key)
	s.record("key "+req.Key, out.IDs, "", err)
	return s.result(c, err, fiber.Map{"outcome": out})
}

func (s *Server) handleSettings(c *fiber.Ctx) error {
	settings, err := s.settings.Settings(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"status":   "ok",
		"settings": settings,
	})
}

func (s *Server) handlePutSetting(c *fiber.Ctx) error {
	key := c.Params("key")
	if err := s.settings.PutSetting(c.UserContext(), key, append(json.RawMessage(nil), c.Body()...)); err != nil {
		return badRequest(c, err.Error())
	}
	s.log.WithField("key", key).Info("Updated setting")
	return c.JSON(fiber.Map{"status": "ok"})
}
