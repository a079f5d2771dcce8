package chapter

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

const (
	// eventChannelBuffer is the size of the watch event channel.
	eventChannelBuffer = 500
)

// WatchConfig configures chapter file watching.
type WatchConfig struct {
	// DebounceDelay is how long to wait for more changes before processing.
	DebounceDelay time.Duration

	// FileExtensions lists file extensions to watch.
	FileExtensions []string

	// ExcludePatterns lists doublestar glob patterns, relative to the
	// chapters directory, whose matches are ignored.
	ExcludePatterns []string
}

// DefaultWatchConfig returns default watch configuration.
func DefaultWatchConfig() WatchConfig {
	return WatchConfig{
		DebounceDelay:   2 * time.Second,
		FileExtensions:  []string{".txt", ".md", ".html"},
		ExcludePatterns: []string{"**/.*", "**/drafts/**"},
	}
}

// WatchOperation indicates the type of file operation.
type WatchOperation string

// WatchOpCreate, WatchOpModify, and WatchOpDelete enumerate the file watch operation types.
const (
	WatchOpCreate WatchOperation = "create"
	WatchOpModify WatchOperation = "modify"
	WatchOpDelete WatchOperation = "delete"
)

// WatchEvent represents a chapter file change event.
type WatchEvent struct {
	// Path is the file path relative to the chapters directory.
	Path string

	// Operation is the type of change.
	Operation WatchOperation

	// AbsPath is the absolute file path.
	AbsPath string
}

// Watcher watches a chapters directory and emits debounced change events.
// Content hashing suppresses events for writes that don't change the text.
type Watcher struct {
	config      WatchConfig
	chaptersDir string
	watcher     *fsnotify.Watcher
	logger      *slog.Logger
	extensions  map[string]bool

	// Debouncing: collect changes before processing
	pendingMu sync.Mutex
	pending   map[string]fsnotify.Op

	// Hash-based change detection
	hashMu sync.RWMutex
	hashes map[string]string

	// Output channel
	events chan WatchEvent

	droppedEvents atomic.Int64
}

// NewWatcher creates a new chapter file watcher.
func NewWatcher(config WatchConfig, chaptersDir string, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if logger == nil {
		logger = slog.Default()
	}
	if config.DebounceDelay <= 0 {
		config.DebounceDelay = DefaultWatchConfig().DebounceDelay
	}
	if len(config.FileExtensions) == 0 {
		config.FileExtensions = DefaultWatchConfig().FileExtensions
	}

	extensions := make(map[string]bool)
	for _, ext := range config.FileExtensions {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		extensions[strings.ToLower(ext)] = true
	}

	return &Watcher{
		config:      config,
		chaptersDir: chaptersDir,
		watcher:     fsw,
		logger:      logger,
		extensions:  extensions,
		pending:     make(map[string]fsnotify.Op),
		hashes:      make(map[string]string),
		events:      make(chan WatchEvent, eventChannelBuffer),
	}, nil
}

// Events returns the channel of watch events.
func (w *Watcher) Events() <-chan WatchEvent {
	return w.events
}

// Start begins watching the chapters directory for changes.
func (w *Watcher) Start(ctx context.Context) error {
	// Create the chapters directory if it doesn't exist
	if err := os.MkdirAll(w.chaptersDir, 0755); err != nil {
		return err
	}

	if err := w.addWatchesRecursive(w.chaptersDir); err != nil {
		return err
	}

	go w.processEvents(ctx)

	w.logger.Info("Chapter watcher started",
		"chapters_dir", w.chaptersDir,
		"debounce", w.config.DebounceDelay,
		"extensions", w.config.FileExtensions)

	return nil
}

// Stop stops the watcher.
// The events channel is closed by processEvents when it exits.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

// SetHash records the content hash for a file (used during initial scan).
func (w *Watcher) SetHash(path, hash string) {
	w.hashMu.Lock()
	defer w.hashMu.Unlock()
	w.hashes[path] = hash
}

// GetHash returns the recorded content hash for a file.
func (w *Watcher) GetHash(path string) (string, bool) {
	w.hashMu.RLock()
	defer w.hashMu.RUnlock()
	hash, ok := w.hashes[path]
	return hash, ok
}

// DroppedEvents returns the number of events dropped due to channel overflow.
func (w *Watcher) DroppedEvents() int64 {
	return w.droppedEvents.Load()
}

// excluded reports whether a path relative to the chapters directory
// matches any exclude pattern.
func (w *Watcher) excluded(relPath string) bool {
	relPath = filepath.ToSlash(relPath)
	for _, pattern := range w.config.ExcludePatterns {
		if ok, err := doublestar.Match(pattern, relPath); err == nil && ok {
			return true
		}
	}
	return false
}

// addWatchesRecursive adds watches to all directories.
func (w *Watcher) addWatchesRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !info.IsDir() {
			return nil
		}

		// Skip hidden and excluded directories
		base := filepath.Base(path)
		relPath, _ := filepath.Rel(root, path)
		if (strings.HasPrefix(base, ".") && base != ".") || (relPath != "." && w.excluded(relPath)) {
			return filepath.SkipDir
		}

		if err := w.watcher.Add(path); err != nil {
			w.logger.Warn("Failed to watch directory",
				"path", path,
				"error", err)
		} else {
			w.logger.Debug("Watching directory", "path", path)
		}

		return nil
	})
}

// processEvents handles fsnotify events with debouncing.
func (w *Watcher) processEvents(ctx context.Context) {
	defer close(w.events) // Close events channel when goroutine exits
	ticker := time.NewTicker(w.config.DebounceDelay)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFSEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Watcher error", "error", err)

		case <-ticker.C:
			w.flushPending(ctx)
		}
	}
}

// handleFSEvent processes a single fsnotify event.
func (w *Watcher) handleFSEvent(event fsnotify.Event) {
	path := event.Name

	ext := strings.ToLower(filepath.Ext(path))
	if !w.extensions[ext] {
		// But handle directory creation (for new watches)
		if event.Has(fsnotify.Create) {
			if info, err := os.Stat(path); err == nil && info.IsDir() {
				w.handleNewDirectory(path)
			}
		}
		return
	}

	relPath, _ := filepath.Rel(w.chaptersDir, path)
	if w.excluded(relPath) {
		return
	}

	// Accumulate pending changes
	w.pendingMu.Lock()
	w.pending[path] = event.Op
	w.pendingMu.Unlock()

	w.logger.Debug("Chapter change detected",
		"path", relPath,
		"op", event.Op.String())
}

// handleNewDirectory adds a watch to a newly created directory.
func (w *Watcher) handleNewDirectory(path string) {
	base := filepath.Base(path)
	relPath, _ := filepath.Rel(w.chaptersDir, path)
	if strings.HasPrefix(base, ".") || w.excluded(relPath) {
		return
	}

	if err := w.watcher.Add(path); err != nil {
		w.logger.Warn("Failed to watch new directory",
			"path", path,
			"error", err)
	} else {
		w.logger.Debug("Added watch for new directory", "path", path)
	}
}

// flushPending processes accumulated changes.
func (w *Watcher) flushPending(ctx context.Context) {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}

	// Copy and clear pending
	toProcess := make(map[string]fsnotify.Op)
	for k, v := range w.pending {
		toProcess[k] = v
	}
	w.pending = make(map[string]fsnotify.Op)
	w.pendingMu.Unlock()

	for path, op := range toProcess {
		select {
		case <-ctx.Done():
			return
		default:
		}

		relPath, _ := filepath.Rel(w.chaptersDir, path)
		event := WatchEvent{
			Path:    relPath,
			AbsPath: path,
		}

		if op.Has(fsnotify.Remove) || op.Has(fsnotify.Rename) {
			event.Operation = WatchOpDelete

			w.hashMu.Lock()
			delete(w.hashes, relPath)
			w.hashMu.Unlock()

			w.sendEvent(event)
			continue
		}

		// Check if file still exists
		if _, err := os.Stat(path); os.IsNotExist(err) {
			event.Operation = WatchOpDelete
			w.sendEvent(event)
			continue
		}

		content, err := os.ReadFile(path)
		if err != nil {
			w.logger.Warn("Failed to read chapter for hash check",
				"path", relPath,
				"error", err)
			continue
		}

		newHash := ContentHash(content)

		// Skip writes that didn't change the content
		oldHash, hadHash := w.GetHash(relPath)
		if hadHash && oldHash == newHash {
			continue
		}

		w.SetHash(relPath, newHash)

		if op.Has(fsnotify.Create) || !hadHash {
			event.Operation = WatchOpCreate
		} else {
			event.Operation = WatchOpModify
		}

		w.sendEvent(event)
	}
}

// sendEvent sends an event to the output channel.
func (w *Watcher) sendEvent(event WatchEvent) {
	select {
	case w.events <- event:
		w.logger.Debug("Sent watch event",
			"path", event.Path,
			"op", event.Operation)
	default:
		dropped := w.droppedEvents.Add(1)
		w.logger.Warn("Event channel full, dropping event",
			"path", event.Path,
			"total_dropped", dropped)
	}
}
