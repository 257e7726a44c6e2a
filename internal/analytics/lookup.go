package analytics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/good-yellow-bee/incidash/internal/models"
)

// Lookup holds the static breakdown tables. They are reference figures and
// are not derived from the ticket store.
type Lookup struct {
	EscalationReasons     []models.BreakdownItem `json:"escalation_reasons" yaml:"escalation_reasons"`
	EscalationsByCategory []models.BreakdownItem `json:"escalations_by_category" yaml:"escalations_by_category"`
}

// DefaultLookup returns the built-in breakdown tables.
func DefaultLookup() Lookup {
	return Lookup{
		EscalationReasons: []models.BreakdownItem{
			{Name: "SLA Breach", Count: 12, Percentage: 35},
			{Name: "Customer Request", Count: 8, Percentage: 24},
			{Name: "Complexity", Count: 7, Percentage: 21},
			{Name: "Resource Unavailable", Count: 4, Percentage: 12},
			{Name: "Other", Count: 3, Percentage: 8},
		},
		EscalationsByCategory: []models.BreakdownItem{
			{Name: "Network", Count: 30},
			{Name: "Security", Count: 25},
			{Name: "Hardware", Count: 20},
			{Name: "Software", Count: 15},
			{Name: "Database", Count: 10},
		},
	}
}

// Clone returns a deep copy of l.
func (l Lookup) Clone() Lookup {
	return Lookup{
		EscalationReasons:     append([]models.BreakdownItem(nil), l.EscalationReasons...),
		EscalationsByCategory: append([]models.BreakdownItem(nil), l.EscalationsByCategory...),
	}
}

// Validate checks that every item is named and counts are in range.
func (l Lookup) Validate() error {
	check := func(section string, items []models.BreakdownItem) error {
		for i, it := range items {
			if it.Name == "" {
				return fmt.Errorf("%s[%d]: name is required", section, i)
			}
			if it.Count < 0 {
				return fmt.Errorf("%s[%d]: count must be non-negative", section, i)
			}
			if it.Percentage < 0 || it.Percentage > 100 {
				return fmt.Errorf("%s[%d]: percentage must be between 0 and 100", section, i)
			}
		}
		return nil
	}

	if err := check("escalation_reasons", l.EscalationReasons); err != nil {
		return err
	}
	return check("escalations_by_category", l.EscalationsByCategory)
}

// LoadLookup reads breakdown tables from YAML. A section missing from the
// document keeps its built-in value.
func LoadLookup(r io.Reader) (Lookup, error) {
	var doc Lookup
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return Lookup{}, fmt.Errorf("parse lookup YAML: %w", err)
	}

	def := DefaultLookup()
	if doc.EscalationReasons == nil {
		doc.EscalationReasons = def.EscalationReasons
	}
	if doc.EscalationsByCategory == nil {
		doc.EscalationsByCategory = def.EscalationsByCategory
	}

	if err := doc.Validate(); err != nil {
		return Lookup{}, fmt.Errorf("invalid lookup: %w", err)
	}
	return doc, nil
}

// LoadLookupFile reads breakdown tables from a YAML file.
func LoadLookupFile(path string) (Lookup, error) {
	f, err := os.Open(path)
	if err != nil {
		return Lookup{}, fmt.Errorf("open lookup file: %w", err)
	}
	defer f.Close()

	return LoadLookup(f)
}

// LookupTable is a concurrency-safe holder for the current Lookup.
type LookupTable struct {
	mu      sync.RWMutex
	current Lookup
}

// NewLookupTable creates a table holding l.
func NewLookupTable(l Lookup) *LookupTable {
	return &LookupTable{current: l.Clone()}
}

// Get returns a copy of the current tables.
func (t *LookupTable) Get() Lookup {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.current.Clone()
}

// Set replaces the current tables.
func (t *LookupTable) Set(l Lookup) {
	t.mu.Lock()
	t.current = l.Clone()
	t.mu.Unlock()
}

// LookupWatcher reloads a LookupTable whenever its YAML file changes.
// A file that fails to load leaves the previous tables in place.
type LookupWatcher struct {
	path    string
	table   *LookupTable
	logger  *zap.Logger
	watcher *fsnotify.Watcher

	// OnReload, if set, is called after every reload attempt.
	OnReload func(err error)
}

// NewLookupWatcher loads path into table and starts watching its
// directory, so rename-based editor saves are seen too.
func NewLookupWatcher(path string, table *LookupTable, logger *zap.Logger) (*LookupWatcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve lookup path: %w", err)
	}

	w := &LookupWatcher{
		path:   absPath,
		table:  table,
		logger: logger,
	}
	if err := w.Reload(); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch directory: %w", err)
	}
	w.watcher = watcher

	return w, nil
}

// Reload reads the file and swaps the table on success.
func (w *LookupWatcher) Reload() error {
	l, err := LoadLookupFile(w.path)
	if err != nil {
		return err
	}
	w.table.Set(l)
	return nil
}

// Run processes file events until ctx is cancelled. It closes the
// underlying watcher on return.
func (w *LookupWatcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("lookup watcher error", zap.Error(err))
		}
	}
}

func (w *LookupWatcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}

	err := w.Reload()
	if err != nil {
		w.logger.Warn("lookup reload failed, keeping previous tables",
			zap.String("path", w.path), zap.Error(err))
	} else {
		w.logger.Info("lookup tables reloaded", zap.String("path", w.path))
	}

	if w.OnReload != nil {
		w.OnReload(err)
	}
}
