package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/shop-agent/backend/internal/ingestion"
	"github.com/shop-agent/backend/pkg/logger"
)

// Watcher keeps the vector store in sync with a knowledge directory:
// dropped-in or edited documents are re-ingested, removed files are deleted
// from the index. The source ID is the file name without its extension.
type Watcher struct {
	ingestor *ingestion.Ingestor
	dir      string
	fsw      *fsnotify.Watcher
	done     chan struct{}
}

var watchedExtensions = map[string]bool{
	".txt":  true,
	".md":   true,
	".html": true,
}

func New(ingestor *ingestion.Ingestor, dir string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{
		ingestor: ingestor,
		dir:      dir,
		fsw:      fsw,
		done:     make(chan struct{}),
	}
	go w.run()

	logger.Info("watching knowledge directory", zap.String("dir", dir))
	return w, nil
}

// SyncExisting ingests every watched file already present in the directory.
// Called once at startup so a restart picks up documents added while the
// service was down.
func (w *Watcher) SyncExisting(ctx context.Context) error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(w.dir, entry.Name())
		if !watchedExtensions[strings.ToLower(filepath.Ext(path))] {
			continue
		}
		w.ingestFile(ctx, path)
	}
	return nil
}

func (w *Watcher) run() {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logger.Warn("knowledge watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if !watchedExtensions[strings.ToLower(filepath.Ext(event.Name))] {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	switch {
	case event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename):
		sourceID := sourceIDFor(event.Name)
		if err := w.ingestor.Remove(ctx, sourceID); err != nil {
			logger.Warn("failed to remove deleted document",
				zap.String("source_id", sourceID),
				zap.Error(err))
		} else {
			logger.Info("removed document from index", zap.String("source_id", sourceID))
		}
	case event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Write):
		w.ingestFile(ctx, event.Name)
	}
}

func (w *Watcher) ingestFile(ctx context.Context, path string) {
	content, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("failed to read document", zap.String("path", path), zap.Error(err))
		return
	}

	sourceID := sourceIDFor(path)
	var chunks int
	if strings.EqualFold(filepath.Ext(path), ".html") {
		chunks, err = w.ingestor.IngestHTML(ctx, sourceID, string(content))
	} else {
		chunks, err = w.ingestor.Ingest(ctx, sourceID, string(content))
	}
	if err != nil {
		logger.Warn("failed to ingest document",
			zap.String("source_id", sourceID),
			zap.Error(err))
		return
	}
	logger.Info("ingested document from watch directory",
		zap.String("source_id", sourceID),
		zap.Int("chunks", chunks))
}

func (w *Watcher) Close() error {
	err := w.fsw.Close()
	<-w.done
	return err
}

func sourceIDFor(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
