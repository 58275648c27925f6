package indexer

import (
	"context"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/ehcaw/codegraph/internal/store"
)

// deleteFolder removes a folder and everything beneath it: subfolders
// recursively, then files with their entities, then the folder itself.
func (e *Engine) deleteFolder(ctx context.Context, folderID string) error {
	subfolders, err := e.store.SubFolders(ctx, folderID)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, subID := range subfolders {
		g.Go(func() error {
			return e.deleteFolder(gctx, subID)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	files, err := e.store.FolderFiles(ctx, folderID)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	if err := e.deleteFiles(ctx, names, files); err != nil {
		return err
	}

	return e.store.DeleteFolder(ctx, folderID)
}

// deleteFiles removes the named files and cascades over their entities.
// Individual failures are logged; deletion is best-effort.
func (e *Engine) deleteFiles(ctx context.Context, names []string, files map[string]store.FileRecord) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, name := range names {
		record, ok := files[name]
		if !ok {
			continue
		}
		g.Go(func() error {
			if err := e.store.DeleteFile(gctx, record.ID); err != nil {
				log.Printf("Failed to delete file %s: %v", name, err)
			}
			if err := e.deleteEntities(gctx, record.ID, true); err != nil {
				log.Printf("Failed to delete entities of %s: %v", name, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// deleteEntities removes every entity under a file (super) or under another
// entity (sub), depth-first so children never outlive their parent's id.
func (e *Engine) deleteEntities(ctx context.Context, parentID string, super bool) error {
	var ids []string
	var err error
	if super {
		ids, err = e.store.FileEntities(ctx, parentID)
	} else {
		ids, err = e.store.SubEntities(ctx, parentID)
	}
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, id := range ids {
		g.Go(func() error {
			if err := e.deleteEntities(gctx, id, false); err != nil {
				log.Printf("Failed to delete sub-entities of %s: %v", id, err)
			}
			if err := e.store.DeleteEntity(gctx, id, super); err != nil {
				log.Printf("Failed to delete entity %s: %v", id, err)
			}
			return nil
		})
	}
	return g.Wait()
}
