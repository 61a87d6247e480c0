package server

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"webdesk/desktop"
)

// ModificationLogEntry is one desktop change in the audit log.
type ModificationLogEntry struct {
	Timestamp string   `json:"timestamp"`
	Action    string   `json:"action"`
	IDs       []string `json:"ids"`
	Dest      string   `json:"dest,omitempty"`
	Result    string   `json:"result"` // ok, noop or error
	Errors    []string `json:"errors,omitempty"`
}

// auditLog appends entries to a JSONL file. It never truncates the file.
type auditLog struct {
	path string
	log  *logrus.Entry
	mu   sync.Mutex
}

func newAuditLog(path string, log *logrus.Entry) *auditLog {
	return &auditLog{path: path, log: log}
}

func (a *auditLog) append(entry ModificationLogEntry) {
	data, err := json.Marshal(entry)
	if err != nil {
		a.log.WithError(err).Warn("Failed to marshal log entry")
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	// Open file with append mode - creates if doesn't exist, never overwrites
	f, err := os.OpenFile(a.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		a.log.WithError(err).Warn("Failed to open modification log")
		return
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		a.log.WithError(err).Warn("Failed to write log entry")
	}
}

// record appends a mutation outcome to the audit log, if one is configured.
func (s *Server) record(action string, ids []string, dest string, err error) {
	if s.audit == nil {
		return
	}
	entry := ModificationLogEntry{
		Timestamp: time.Now().Format(time.RFC3339),
		Action:    action,
		IDs:       ids,
		Dest:      dest,
		Result:    "ok",
	}
	if err != nil {
		entry.Result = "error"
		if desktop.IsNoop(err) {
			entry.Result = "noop"
		}
		entry.Errors = []string{err.Error()}
	}
	s.audit.append(entry)
}
