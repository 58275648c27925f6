package indexer

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ehcaw/codegraph/internal/language"
	"github.com/ehcaw/codegraph/internal/store"
)

// Update reconciles the tree at rootPath against the indexed state under
// rootID. New entries are ingested, stale files are re-ingested and indexed
// objects with no filesystem counterpart are cascade-deleted. A stored root
// name that does not match the directory basename is fatal.
func (e *Engine) Update(ctx context.Context, rootPath, rootID string, interval time.Duration) error {
	storedName, err := e.store.RootName(ctx, rootID)
	if err != nil {
		return fmt.Errorf("failed to fetch root: %w", err)
	}
	if storedName != filepath.Base(rootPath) {
		return fmt.Errorf("root name mismatch: store has %q, directory is %q", storedName, filepath.Base(rootPath))
	}

	folders, err := e.store.RootFolders(ctx, rootID)
	if err != nil {
		return err
	}
	files, err := e.store.RootFiles(ctx, rootID)
	if err != nil {
		return err
	}

	return e.reconcileLevel(ctx, rootPath, rootID, true, folders, files, interval)
}

// updateFolder reconciles one indexed folder against its directory.
func (e *Engine) updateFolder(ctx context.Context, dir, folderID string, interval time.Duration) error {
	folders, err := e.store.SubFolders(ctx, folderID)
	if err != nil {
		return err
	}
	files, err := e.store.FolderFiles(ctx, folderID)
	if err != nil {
		return err
	}

	return e.reconcileLevel(ctx, dir, folderID, false, folders, files, interval)
}

// reconcileLevel walks one directory level, dispatches per-entry tasks and
// then deletes every indexed folder or file whose name is no longer on disk.
func (e *Engine) reconcileLevel(
	ctx context.Context,
	dir, parentID string,
	super bool,
	folders map[string]string,
	files map[string]store.FileRecord,
	interval time.Duration,
) error {
	entries, err := e.listEntries(dir)
	if err != nil {
		return err
	}

	onDisk := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		onDisk[entry.Name()] = struct{}{}
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, entry := range entries {
		name := entry.Name()
		path := filepath.Join(dir, name)

		switch {
		case entry.IsDir():
			if folderID, ok := folders[name]; ok {
				g.Go(func() error {
					return e.updateFolder(gctx, path, folderID, interval)
				})
			} else {
				log.Printf("Folder %s is new, ingesting", name)
				g.Go(func() error {
					return e.ingestFolder(gctx, path, parentID, super)
				})
			}
		case entry.Type().IsRegular():
			if record, ok := files[name]; ok {
				g.Go(func() error {
					if !e.stale(path, record, interval) {
						return nil
					}
					log.Printf("File %s is out of date", name)
					return e.updateFile(gctx, path, record.ID)
				})
			} else {
				log.Printf("File %s is new, ingesting", name)
				g.Go(func() error {
					return e.processFile(gctx, path, parentID, super)
				})
			}
		}
	}
	if err := g.Wait(); err != nil {
		return err
	}

	// Set differences: index minus disk.
	g, gctx = errgroup.WithContext(ctx)
	for name, folderID := range folders {
		if _, ok := onDisk[name]; ok {
			continue
		}
		g.Go(func() error {
			return e.deleteFolder(gctx, folderID)
		})
	}
	var goneFiles []string
	for name := range files {
		if _, ok := onDisk[name]; !ok {
			goneFiles = append(goneFiles, name)
		}
	}
	g.Go(func() error {
		return e.deleteFiles(gctx, goneFiles, files)
	})
	return g.Wait()
}

// stale reports whether a file must be re-ingested: its mtime exceeds the
// stored extraction time by more than the interval. When either timestamp is
// unavailable the file is treated as stale.
func (e *Engine) stale(path string, record store.FileRecord, interval time.Duration) bool {
	info, err := os.Stat(path)
	if err != nil {
		log.Printf("File %s last modified time not available: %v", filepath.Base(path), err)
		return true
	}

	extractedAt, err := time.Parse(time.RFC3339, record.ExtractedAt)
	if err != nil {
		log.Printf("File %s has unparseable extracted_at %q", filepath.Base(path), record.ExtractedAt)
		return true
	}

	return info.ModTime().Sub(extractedAt) > interval
}

// updateFile re-ingests one file wholesale: the text is replaced, every
// existing entity under the file is deleted, and entity extraction or
// whole-file chunking runs again. No sub-file diffing is attempted.
func (e *Engine) updateFile(ctx context.Context, path, fileID string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		logSkip("file", filepath.Base(path), err)
		return nil
	}

	name := filepath.Base(path)
	ext := fileExtension(name)
	source := string(data)
	now := time.Now().UTC().Format(time.RFC3339)

	lang := language.ForExtension(ext)
	if lang == nil {
		log.Printf("Updating unsupported file: %s", name)
		if err := e.store.UpdateFile(ctx, fileID, source, now); err != nil {
			return fmt.Errorf("failed to update file %s: %w", name, err)
		}
		if !e.fileTypes.Unsupported(ext) {
			log.Printf("File %s is skipped", name)
			return nil
		}
		if err := e.deleteEntities(ctx, fileID, true); err != nil {
			log.Printf("Failed to delete entities of %s: %v", name, err)
		}
		return e.ingestFileChunks(ctx, source, fileID)
	}

	nodes, err := extractTopLevel(lang, data)
	if err != nil {
		log.Printf("Failed to parse %s: %v", name, err)
		nodes = nil
	}

	log.Printf("Updating file: %s", name)
	if err := e.store.UpdateFile(ctx, fileID, source, now); err != nil {
		return fmt.Errorf("failed to update file %s: %w", name, err)
	}

	if !e.fileTypes.Supported(ext) {
		log.Printf("File %s is skipped", name)
		return nil
	}

	if err := e.deleteEntities(ctx, fileID, true); err != nil {
		log.Printf("Failed to delete entities of %s: %v", name, err)
	}
	return e.ingestEntities(ctx, nodes, fileID, ext)
}
