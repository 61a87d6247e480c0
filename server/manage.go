package server

import (
	"github.com/gofiber/fiber/v2"
)

type manageRequest struct {
	Action string   `json:"action"` // copy, cut, paste or delete
	IDs    []string `json:"ids"`
	Dest   string   `json:"dest"`
}

// handleManage drives the clipboard. copy and cut stage ids, and when dest
// is given they are pasted there straight away. paste applies the clipboard
// to dest. delete never pastes.
func (s *Server) handleManage(c *fiber.Ctx) error {
	var req manageRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	switch req.Action {
	case "copy", "cut", "delete":
		if len(req.IDs) == 0 {
			return badRequest(c, "No entities provided")
		}
		if req.Action == "delete" && req.Dest != "" {
			return badRequest(c, "delete does not take a dest")
		}
	case "paste":
		if req.Dest == "" {
			return badRequest(c, "Missing required parameter: dest")
		}
	default:
		return badRequest(c, "Invalid action. Must be 'copy', 'cut', 'paste' or 'delete'")
	}

	var err error
	var pasted []string
	switch req.Action {
	case "delete":
		s.log.WithField("ids", req.IDs).Info("Deleting entities")
		err = s.session.Delete(req.IDs...)
	case "copy":
		err = s.session.Copy(req.IDs...)
	case "cut":
		err = s.session.Cut(req.IDs...)
	}
	if err == nil && req.Dest != "" {
		pasted, err = s.session.Paste(req.Dest)
		if err == nil {
			s.log.WithField("ids", pasted).WithField("dest", req.Dest).Info("Pasted entities")
		}
	}

	s.record(req.Action, req.IDs, req.Dest, err)
	return s.result(c, err, fiber.Map{"ids": pasted})
}
