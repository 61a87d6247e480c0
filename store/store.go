// Package store persists desktop snapshots and user settings.
package store

import (
	"context"
	"encoding/json"
	"fmt"

	"webdesk/desktop"
)

// Driver names accepted by Open.
const (
	DriverBolt   = "bolt"
	DriverSQLite = "sqlite"
)

// Store is the durable mirror of a desktop session. LoadSnapshot returns
// nil, nil when nothing has been saved yet.
type Store interface {
	desktop.Store
	Settings(ctx context.Context) (Settings, error)
	PutSetting(ctx context.Context, key string, value json.RawMessage) error
	Close() error
}

// Open opens the store kept at path using driver.
func Open(driver, path string) (Store, error) {
	switch driver {
	case DriverBolt, "":
		return OpenBolt(path)
	case DriverSQLite:
		return OpenSQLite(path)
	}
	return nil, fmt.Errorf("unknown store driver %q", driver)
}
