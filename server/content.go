package server

import (
	"archive/zip"
	"encoding/base64"
	"io"
	"path"
	"strings"

	"github.com/gofiber/fiber/v2"

	"webdesk/desktop"
)

// decodeContent returns the bytes and media type behind an entity's
// content. Data URIs are decoded; anything else is served as text.
func decodeContent(ent *desktop.Entity) ([]byte, string, error) {
	content := ent.Content
	if !strings.HasPrefix(content, "data:") {
		return []byte(content), "text/plain; charset=utf-8", nil
	}
	meta, payload, ok := strings.Cut(content[len("data:"):], ",")
	if !ok {
		return []byte(content), "text/plain; charset=utf-8", nil
	}
	mediaType := strings.TrimSuffix(meta, ";base64")
	if mediaType == "" {
		mediaType = "text/plain"
	}
	if !strings.HasSuffix(meta, ";base64") {
		return []byte(payload), mediaType, nil
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", err
	}
	return data, mediaType, nil
}

func (s *Server) handleContent(c *fiber.Ctx) error {
	id := c.Params("id")
	ent := s.session.Find(id, desktop.KindFile, desktop.KindImage, desktop.KindVideo, desktop.KindApp)
	if ent == nil {
		return notFound(c, "Entity not found")
	}
	data, mediaType, err := decodeContent(ent)
	if err != nil {
		s.log.WithError(err).WithField("id", id).Warn("Undecodable content")
		return badRequest(c, "Content is not a valid data URI")
	}
	c.Set(fiber.HeaderContentType, mediaType)
	c.Set(fiber.HeaderContentDisposition, "inline; filename=\""+ent.Name+"\"")
	return c.Send(data)
}

// handleZipDownload streams a folder subtree as a zip archive.
func (s *Server) handleZipDownload(c *fiber.Ctx) error {
	id := c.Params("id")
	folder := s.session.Find(id, desktop.KindFolder)
	if folder == nil {
		return notFound(c, "Folder not found")
	}
	s.log.WithField("id", id).Info("Zip download request")

	c.Set(fiber.HeaderContentType, "application/zip")
	c.Set(fiber.HeaderContentDisposition, "attachment; filename=\""+folder.Name+".zip\"")
	return writeZip(c.Response().BodyWriter(), folder)
}

func writeZip(w io.Writer, folder *desktop.Entity) error {
	zipWriter := zip.NewWriter(w)
	var walk func(dir string, e *desktop.Entity) error
	walk = func(dir string, e *desktop.Entity) error {
		for _, child := range e.Children {
			name := path.Join(dir, strings.ReplaceAll(child.Name, "/", "_"))
			if child.IsFolder() {
				if _, err := zipWriter.Create(name + "/"); err != nil {
					return err
				}
				if err := walk(name, child); err != nil {
					return err
				}
				continue
			}
			data, _, err := decodeContent(child)
			if err != nil {
				data = []byte(child.Content)
			}
			writer, err := zipWriter.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
			if err != nil {
				return err
			}
			if _, err := writer.Write(data); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk("", folder); err != nil {
		zipWriter.Close()
		return err
	}
	return zipWriter.Close()
}
