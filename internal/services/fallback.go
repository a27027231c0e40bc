package services

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/coursekit/scormlite-backend/internal/platform/logger"
)

// CatalogEntry is the metadata the degraded tier keeps for one package.
// File payloads are never retained here; a package persisted only in this
// tier is browsable but not playable.
type CatalogEntry struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	UploadedAt time.Time `json:"uploaded_at"`
	SizeBytes  int64     `json:"size_bytes"`
}

// FallbackCatalog is the degraded storage tier: a flat JSON file holding
// package metadata, used when the primary transactional substrate is
// unavailable. It must keep working with zero external services.
type FallbackCatalog struct {
	path string
	log  *logger.Logger
	mu   sync.Mutex
}

func NewFallbackCatalog(path string, baseLog *logger.Logger) *FallbackCatalog {
	return &FallbackCatalog{path: path, log: baseLog.With("service", "FallbackCatalog")}
}

func (c *FallbackCatalog) Save(entry CatalogEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	entries, err := c.load()
	if err != nil {
		return err
	}
	replaced := false
	for i := range entries {
		if entries[i].ID == entry.ID {
			entries[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		entries = append(entries, entry)
	}
	return c.store(entries)
}

// Get returns (nil, nil) when the entry is absent.
func (c *FallbackCatalog) Get(id string) (*CatalogEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entries, err := c.load()
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].ID == id {
			entry := entries[i]
			return &entry, nil
		}
	}
	return nil, nil
}

func (c *FallbackCatalog) List() ([]CatalogEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load()
}

func (c *FallbackCatalog) Remove(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	entries, err := c.load()
	if err != nil {
		return err
	}
	kept := entries[:0]
	for _, e := range entries {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	return c.store(kept)
}

func (c *FallbackCatalog) load() ([]CatalogEntry, error) {
	raw, err := os.ReadFile(c.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read fallback catalog: %w", err)
	}
	var entries []CatalogEntry
	if len(raw) == 0 {
		return nil, nil
	}
	if err := json.Unmarshal(raw, &entries); err != nil {
		// A corrupt catalog should not take the degraded tier down with it.
		c.log.Warn("fallback catalog unreadable, starting fresh", "error", err)
		return nil, nil
	}
	return entries, nil
}

func (c *FallbackCatalog) store(entries []CatalogEntry) error {
	if entries == nil {
		entries = []CatalogEntry{}
	}
	raw, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode fallback catalog: %w", err)
	}
	if dir := filepath.Dir(c.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create fallback catalog dir: %w", err)
		}
	}
	if err := os.WriteFile(c.path, raw, 0o644); err != nil {
		return fmt.Errorf("write fallback catalog: %w", err)
	}
	return nil
}
