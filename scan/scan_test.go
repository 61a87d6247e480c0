package scan

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"webdesk/desktop"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	tmpDir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(tmpDir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return tmpDir
}

func TestScan(t *testing.T) {
	tmpDir := writeTree(t, map[string]string{
		"file1.txt":        "hello",
		"file2.txt":        "world!",
		"subdir/file3.txt": "test",
	})

	root, err := Scan(tmpDir, 0, 0, nil)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	// Should have 3 items (2 files + 1 dir)
	if len(root.Children) != 3 {
		t.Errorf("Expected 3 children, got %d", len(root.Children))
	}

	subdir := root.Lookup("subdir")
	if subdir == nil || !subdir.IsDir {
		t.Fatal("Could not find subdir")
	}
	if len(subdir.Children) != 1 {
		t.Errorf("Expected subdir to have 1 child, got %d", len(subdir.Children))
	}
	if subdir.Loaded() != 4 {
		t.Errorf("Expected subdir to hold 4 bytes, got %d", subdir.Loaded())
	}
	if root.Loaded() != 15 {
		t.Errorf("Expected 15 bytes in total, got %d", root.Loaded())
	}

	leaf := root.Lookup("subdir/file3.txt")
	if leaf == nil || string(leaf.Data) != "test" {
		t.Fatalf("file3.txt not loaded: %+v", leaf)
	}
	if leaf.Parent() != subdir || leaf.Path() != filepath.Join(tmpDir, "subdir", "file3.txt") {
		t.Errorf("file3.txt has wrong parent or path %q", leaf.Path())
	}
	if root.Lookup("sub") != nil || root.Lookup("subdir/missing") != nil {
		t.Error("Lookup matched a missing entry")
	}
}

func TestScanSkips(t *testing.T) {
	tmpDir := writeTree(t, map[string]string{
		"small.txt": "ok",
		"big.txt":   strings.Repeat("x", 100),
	})
	if err := os.Symlink(filepath.Join(tmpDir, "small.txt"), filepath.Join(tmpDir, "link.txt")); err != nil {
		t.Fatal(err)
	}

	root, err := Scan(tmpDir, 2, 10, nil)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if big := root.Lookup("big.txt"); big == nil || !errors.Is(big.Skip, ErrTooLarge) || big.Data != nil {
		t.Errorf("big.txt should be skipped as too large: %+v", big)
	}
	if link := root.Lookup("link.txt"); link == nil || !errors.Is(link.Skip, ErrSymlink) {
		t.Errorf("link.txt should be skipped as a symlink: %+v", link)
	}
	if small := root.Lookup("small.txt"); small == nil || small.Skip != nil {
		t.Errorf("small.txt should be loaded: %+v", small)
	}
}

func TestScanMissingDir(t *testing.T) {
	if _, err := Scan(filepath.Join(t.TempDir(), "nope"), 2, 0, nil); err == nil {
		t.Error("Expected an error for a missing directory")
	}
	file := writeTree(t, map[string]string{"f.txt": "x"})
	if _, err := Scan(filepath.Join(file, "f.txt"), 2, 0, nil); err == nil {
		t.Error("Expected an error for a regular file")
	}
}

func TestImport(t *testing.T) {
	tmpDir := writeTree(t, map[string]string{
		"notes.txt":          "remember the milk",
		"Pictures/cat.png":   "\x89PNG fake",
		"Pictures/clip.webm": "\x1a\x45\xdf\xa3",
		"big.txt":            strings.Repeat("x", 64),
	})
	if err := os.Symlink(filepath.Join(tmpDir, "notes.txt"), filepath.Join(tmpDir, "link.txt")); err != nil {
		t.Fatal(err)
	}

	top, sum, err := Import(tmpDir, Options{Concurrency: 2, MaxFileBytes: 32})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	if top.Kind != desktop.KindFolder || top.Name != filepath.Base(tmpDir) {
		t.Errorf("Unexpected top entity %s %q", top.Kind, top.Name)
	}
	if sum.Skipped != 2 {
		t.Errorf("Expected big.txt and the symlink to be skipped, got %d", sum.Skipped)
	}
	if sum.Entities != 5 {
		t.Errorf("Expected 5 entities, got %d", sum.Entities)
	}

	var notes, cat, clip *desktop.Entity
	desktop.Walk(top, func(e *desktop.Entity) bool {
		switch e.Name {
		case "notes.txt":
			notes = e
		case "cat.png":
			cat = e
		case "clip.webm":
			clip = e
		}
		if e.ID != "" {
			t.Errorf("Entity %q should not have an id yet", e.Name)
		}
		return true
	})
	if notes == nil || notes.Kind != desktop.KindFile || notes.Content != "remember the milk" {
		t.Errorf("notes.txt imported wrongly: %+v", notes)
	}
	if cat == nil || cat.Kind != desktop.KindImage || !strings.HasPrefix(cat.Content, "data:image/png;base64,") {
		t.Errorf("cat.png imported wrongly: %+v", cat)
	}
	if clip == nil || clip.Kind != desktop.KindVideo || !strings.HasPrefix(clip.Content, "data:video/webm;base64,") {
		t.Errorf("clip.webm imported wrongly: %+v", clip)
	}
}

func TestImportIntoEngine(t *testing.T) {
	tmpDir := writeTree(t, map[string]string{"a/b/c.txt": "c"})
	top, _, err := Import(tmpDir, Options{})
	if err != nil {
		t.Fatal(err)
	}

	e := desktop.NewEngine(desktop.DesktopLayout())
	root, id, err := e.Create(desktop.DefaultTree(time.Now()), desktop.RootID, *top)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := desktop.Validate(root); err != nil {
		t.Fatalf("imported tree is invalid: %v", err)
	}
	if n := desktop.Count(desktop.Find(root, id)); n != 4 {
		t.Errorf("Expected 4 imported entities, got %d", n)
	}
}

func TestContentForBinary(t *testing.T) {
	kind, content := ContentFor("blob.bin", []byte{0xff, 0xfe, 0x00})
	if kind != desktop.KindFile || !strings.HasPrefix(content, "data:application/octet-stream;base64,") {
		t.Errorf("unexpected %s %q", kind, content)
	}
}

func TestProgressSpinner(t *testing.T) {
	var buf bytes.Buffer
	s := NewProgressSpinner(&buf)
	s.discovered(1200)
	s.processed()
	s.loaded(2048)
	s.Stop(Summary{Entities: 1200, Bytes: 2048, Skipped: 1})

	if !strings.Contains(buf.String(), "Imported 1,200 items (2.0 kB)") {
		t.Errorf("unexpected summary %q", buf.String())
	}
}
