package docsource

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// Source lists and reads raw course documents. Backends register themselves
// by type name; which one runs is a config decision.
type Source interface {
	List(ctx context.Context) ([]string, error)
	Read(ctx context.Context, key string) (string, error)
}

type Factory func(args interface{}) (Source, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

func Register(name string, factory Factory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	registryMu.Lock()
	registry[key] = factory
	registryMu.Unlock()
}

func New(typ string, args interface{}) (Source, error) {
	key := strings.ToLower(strings.TrimSpace(typ))
	if key == "" {
		return nil, fmt.Errorf("docs.type is required")
	}
	registryMu.RLock()
	factory := registry[key]
	registryMu.RUnlock()
	if factory == nil {
		return nil, fmt.Errorf("unsupported document source type: %s", typ)
	}
	return factory(args)
}

func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return fmt.Errorf("source config is required")
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode source config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode source config: %w", err)
	}
	return nil
}

// IsCourseFile reports whether a key looks like a loadable course document.
func IsCourseFile(key string) bool {
	lower := strings.ToLower(key)
	return strings.HasSuffix(lower, ".txt") || strings.HasSuffix(lower, ".md")
}
