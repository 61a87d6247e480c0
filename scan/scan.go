package scan

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"sync"
)

// ErrNotRegular marks devices, sockets and pipes, which are never read.
var ErrNotRegular = errors.New("not a regular file")

// walker loads a host directory with a fixed pool of workers. A queued node
// belongs to the worker that dequeues it: directories list their entries and
// queue them, regular files read their bytes.
type walker struct {
	maxBytes int64
	spinner  *ProgressSpinner
	queue    chan *FileData
	pending  sync.WaitGroup
}

// Scan reads dir and everything below it. Only an unreadable dir is an
// error; problems further down are recorded in the Skip field of the node
// they concern. Files larger than maxBytes (when positive) are not read.
func Scan(dir string, concurrency int, maxBytes int64, spinner *ProgressSpinner) (*FileData, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency()
	}

	root := newRootFileData(dir, info.ModTime())
	w := &walker{maxBytes: maxBytes, spinner: spinner, queue: make(chan *FileData)}
	if err := w.list(root); err != nil {
		return nil, err
	}

	var workers sync.WaitGroup
	workers.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func() {
			defer workers.Done()
			for node := range w.queue {
				w.visit(node)
				w.pending.Done()
			}
		}()
	}
	go func() {
		w.pending.Wait()
		close(w.queue)
	}()
	workers.Wait()

	return root, nil
}

func DefaultConcurrency() int {
	return min(runtime.GOMAXPROCS(0), runtime.NumCPU())
}

func (w *walker) visit(node *FileData) {
	switch {
	case node.IsLink:
		node.Skip = ErrSymlink
	case node.IsDir:
		if err := w.list(node); err != nil {
			node.Skip = err
		}
	case node.Skip == nil:
		w.load(node)
	}
	w.spinner.processed()
}

// list fills node.Children and queues every child.
func (w *walker) list(node *FileData) error {
	entries, err := os.ReadDir(node.Path())
	if err != nil {
		return err
	}

	node.Children = make([]*FileData, 0, len(entries))
	for _, entry := range entries {
		c := node.child(entry.Name())
		c.IsLink = entry.Type()&fs.ModeSymlink != 0
		c.IsDir = entry.IsDir() && !c.IsLink
		if !c.IsDir && !c.IsLink && !entry.Type().IsRegular() {
			c.Skip = ErrNotRegular
		}
		if info, err := entry.Info(); err == nil {
			c.Modified = info.ModTime()
			if !c.IsDir {
				c.Size = info.Size()
			}
		}
		node.Children = append(node.Children, c)
	}
	w.spinner.discovered(len(entries))

	// Sends happen off the worker so a full pool never blocks on itself.
	w.pending.Add(len(node.Children))
	for _, c := range node.Children {
		go func(c *FileData) {
			w.queue <- c
		}(c)
	}
	return nil
}

func (w *walker) load(node *FileData) {
	if w.maxBytes > 0 && node.Size > w.maxBytes {
		node.Skip = ErrTooLarge
		return
	}
	data, err := os.ReadFile(node.Path())
	if err != nil {
		node.Skip = err
		return
	}
	node.Data = data
	node.Size = int64(len(data))
	w.spinner.loaded(node.Size)
}
