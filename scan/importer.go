package scan

import (
	"encoding/base64"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"webdesk/desktop"
)

// Options tunes an import.
type Options struct {
	Concurrency  int
	MaxFileBytes int64 // files larger than this are skipped; 0 means no limit
	Spinner      *ProgressSpinner
	Logger       *logrus.Entry
}

// Summary counts what an import produced.
type Summary struct {
	Entities int
	Bytes    int64
	Skipped  int
}

// Import scans a host directory and converts it into a detached folder
// subtree ready for Session.Create. Entity ids are left empty so the engine
// assigns them on insert. Symlinks, special files, unreadable entries and
// oversized files are skipped.
func Import(dir string, opts Options) (*desktop.Entity, Summary, error) {
	var sum Summary
	log := opts.Logger
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	root, err := Scan(dir, opts.Concurrency, opts.MaxFileBytes, opts.Spinner)
	if err != nil {
		return nil, sum, fmt.Errorf("scan %s: %w", dir, err)
	}

	top := &desktop.Entity{
		Name:         root.Name(),
		Kind:         desktop.KindFolder,
		DateModified: desktop.Timestamp(root.Modified),
	}
	top.Children = convert(root, &sum, log)
	sum.Entities++
	return top, sum, nil
}

// convert maps the children of a scanned directory onto entities.
func convert(dir *FileData, sum *Summary, log *logrus.Entry) []*desktop.Entity {
	out := []*desktop.Entity{}
	for _, f := range dir.Children {
		if f.Skip != nil {
			log.WithError(f.Skip).WithField("path", f.Path()).Debug("Skipping host entry")
			sum.Skipped++
			continue
		}
		ent := &desktop.Entity{Name: f.Name(), DateModified: desktop.Timestamp(f.Modified)}
		if f.IsDir {
			ent.Kind = desktop.KindFolder
			ent.Children = convert(f, sum, log)
		} else {
			ent.Kind, ent.Content = ContentFor(f.Name(), f.Data)
			sum.Bytes += f.Size
		}
		out = append(out, ent)
		sum.Entities++
	}
	return out
}

// ContentFor classifies a file by its name and encodes its bytes the way the
// desktop stores them: images and videos as data URIs, valid UTF-8 as plain
// text, and anything else as a generic data URI.
func ContentFor(name string, data []byte) (desktop.Kind, string) {
	ext := strings.ToLower(filepath.Ext(name))
	mediaType := mime.TypeByExtension(ext)
	if mediaType == "" {
		mediaType = videoTypes[ext]
	}
	if i := strings.IndexByte(mediaType, ';'); i >= 0 {
		mediaType = mediaType[:i]
	}
	switch {
	case strings.HasPrefix(mediaType, "image/"):
		return desktop.KindImage, dataURI(mediaType, data)
	case strings.HasPrefix(mediaType, "video/"):
		return desktop.KindVideo, dataURI(mediaType, data)
	case utf8.Valid(data):
		return desktop.KindFile, string(data)
	}
	if mediaType == "" {
		mediaType = "application/octet-stream"
	}
	return desktop.KindFile, dataURI(mediaType, data)
}

// videoTypes covers containers missing from minimal mime tables.
var videoTypes = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/mp4",
	".webm": "video/webm",
	".ogv":  "video/ogg",
	".mov":  "video/quicktime",
	".mkv":  "video/x-matroska",
}

func dataURI(mediaType string, data []byte) string {
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
