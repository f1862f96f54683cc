package snapshot

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long Watch waits for writes to settle.
const DefaultDebounce = 500 * time.Millisecond

// Watch reloads the snapshot whenever one of files changes, until ctx is
// done. The parent directories are watched so editors that replace a file by
// renaming are noticed too.
func (h *Holder) Watch(ctx context.Context, files []string, debounce time.Duration) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	watched := make(map[string]bool, len(files))
	dirs := make(map[string]bool)
	for _, file := range files {
		abs, err := filepath.Abs(file)
		if err != nil {
			return err
		}
		watched[abs] = true
		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		dirs[dir] = true
	}
	h.logger.Info("Watching catalog files", "files", files, "debounce", debounce)

	var settle <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil || !watched[abs] {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				h.logger.Debug("Catalog file changed", "path", event.Name, "op", event.Op.String())
				settle = time.After(debounce)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			h.logger.Error("Watcher error", "error", err)

		case <-settle:
			settle = nil
			if _, err := h.Reload(ctx); err != nil {
				h.logger.Error("Failed to reload catalog, keeping previous snapshot", "error", err)
			}
		}
	}
}
