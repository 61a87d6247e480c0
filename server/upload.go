package server

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/sirupsen/logrus"
	"github.com/tus/tusd/pkg/filestore"
	"github.com/tus/tusd/pkg/handler"

	"webdesk/desktop"
	"webdesk/scan"
)

const tusBasePath = "/upload/tus/"

// setupTusUpload mounts resumable uploads. A finished upload becomes an
// image, video, or file entity in the folder named by the "folderId"
// metadata (Pictures by default).
func (s *Server) setupTusUpload() error {
	if !s.cfg.WriteMode || s.cfg.UploadDir == "" {
		s.log.Info("Upload disabled: not in write mode")
		return nil
	}

	uploadsDir := s.cfg.UploadDir
	info, err := os.Stat(uploadsDir)
	switch {
	case err == nil && !info.IsDir():
		return fmt.Errorf("%s exists but is not a directory", uploadsDir)
	case os.IsNotExist(err):
		if err := os.MkdirAll(uploadsDir, 0755); err != nil {
			return fmt.Errorf("create uploads directory: %w", err)
		}
		s.log.WithField("dir", uploadsDir).Info("Created uploads directory")
	case err != nil:
		return fmt.Errorf("check uploads directory: %w", err)
	}

	store := filestore.New(uploadsDir)
	composer := handler.NewStoreComposer()
	store.UseIn(composer)

	tusHandler, err := handler.NewHandler(handler.Config{
		StoreComposer:         composer,
		NotifyCompleteUploads: true,
		BasePath:              tusBasePath,
		MaxSize:               s.cfg.MaxUploadBytes,
	})
	if err != nil {
		return fmt.Errorf("unable to create TUS handler: %w", err)
	}
	s.log.Info("TUS upload handler initialized successfully")

	go func() {
		for event := range tusHandler.CompleteUploads {
			s.completeUpload(event.Upload)
		}
	}()

	group := s.app.Group(tusBasePath, adaptor.HTTPMiddleware(tusHandler.Middleware))
	group.Post("", s.requireWrite, adaptor.HTTPHandlerFunc(tusHandler.PostFile))
	group.Head(":id", adaptor.HTTPHandlerFunc(tusHandler.HeadFile))
	group.Patch(":id", s.requireWrite, adaptor.HTTPHandlerFunc(tusHandler.PatchFile))
	group.Get(":id", adaptor.HTTPHandlerFunc(tusHandler.GetFile))
	group.Delete(":id", s.requireWrite, adaptor.HTTPHandlerFunc(tusHandler.DelFile))
	return nil
}

func (s *Server) completeUpload(upload handler.FileInfo) {
	s.opsInProgress.Add(1)
	defer s.opsInProgress.Done()

	filename := upload.MetaData["filename"]
	folderID := upload.MetaData["folderId"]
	if folderID == "" {
		folderID = desktop.PicturesID
	}
	log := s.log.WithFields(logrus.Fields{"upload": upload.ID, "filename": filename, "folder": folderID})
	log.Info("Upload completed")

	tempFile := filepath.Join(s.cfg.UploadDir, upload.ID)
	defer func() {
		os.Remove(tempFile)
		os.Remove(tempFile + ".info")
	}()

	id, err := s.ingestUpload(tempFile, filename, folderID)
	s.record("upload", []string{filename}, folderID, err)
	if err != nil {
		log.WithError(err).Warn("Failed to add uploaded file to desktop")
		return
	}
	log.WithField("id", id).Info("Uploaded file added to desktop")
}

// ingestUpload turns an uploaded file into an entity under folderID.
func (s *Server) ingestUpload(path, filename, folderID string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if filename == "" {
		filename = filepath.Base(path)
	}
	kind, content := scan.ContentFor(filename, data)
	return s.session.Create(folderID, desktop.Entity{Name: filename, Kind: kind, Content: content})
}
