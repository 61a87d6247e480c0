package scan

import (
	"errors"
	"path/filepath"
	"strings"
	"time"
)

// Reasons a host entry is left out of an import.
var (
	ErrSymlink  = errors.New("symlinks are not followed")
	ErrTooLarge = errors.New("file exceeds the import size limit")
)

// FileData is one host file or directory found by a scan. Regular files
// that are imported carry their bytes in Data; entries that are left out
// record why in Skip.
type FileData struct {
	parent   *FileData
	path     string
	IsDir    bool
	IsLink   bool
	Size     int64
	Modified time.Time
	Data     []byte
	Skip     error
	Children []*FileData
}

func newRootFileData(dir string, modified time.Time) *FileData {
	return &FileData{path: filepath.Clean(dir), IsDir: true, Modified: modified}
}

func (d *FileData) child(name string) *FileData {
	return &FileData{parent: d, path: filepath.Join(d.path, name)}
}

func (d *FileData) Parent() *FileData {
	return d.parent
}

func (d *FileData) Path() string {
	return d.path
}

func (d *FileData) Name() string {
	return filepath.Base(d.path)
}

// Loaded sums the bytes read beneath d, d included.
func (d *FileData) Loaded() int64 {
	n := int64(len(d.Data))
	for _, c := range d.Children {
		n += c.Loaded()
	}
	return n
}

// Lookup follows a slash-separated path relative to d.
func (d *FileData) Lookup(rel string) *FileData {
	cur := d
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if part == "" || part == "." {
			continue
		}
		var next *FileData
		for _, c := range cur.Children {
			if c.Name() == part {
				next = c
				break
			}
		}
		if next == nil {
			return nil
		}
		cur = next
	}
	return cur
}
