package memory

import (
	"fmt"

	"go.uber.org/zap"
)

// #region backends
const (
	BackendJSONL  = "jsonl"
	BackendSQLite = "sqlite"
)

// Open returns the store for the named backend. An empty backend means jsonl.
func Open(backend, path string, maxEvents int, logger *zap.Logger) (Store, error) {
	switch backend {
	case "", BackendJSONL:
		return NewJSONL(path, maxEvents, logger)
	case BackendSQLite:
		return NewSQLite(path, maxEvents, logger)
	default:
		return nil, fmt.Errorf("unknown memory backend %q", backend)
	}
}

// #endregion backends
