package indexer

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ehcaw/codegraph/internal/language"
	"github.com/ehcaw/codegraph/internal/store"
)

// Ingest creates a root for the tree at rootPath and populates it. It
// returns the new root id. Root creation failure is fatal for the pass.
func (e *Engine) Ingest(ctx context.Context, rootPath string) (string, error) {
	log.Printf("Starting ingestion for directory: %s", rootPath)

	rootID, err := e.store.CreateRoot(ctx, filepath.Base(rootPath))
	if err != nil {
		return "", fmt.Errorf("failed to create root: %w", err)
	}

	if err := e.populate(ctx, rootPath, rootID, true); err != nil {
		return "", err
	}
	return rootID, nil
}

// populate ingests one directory level: every entry dispatches a concurrent
// task, directories recurse with super=false. Ordering among sibling tasks
// is unspecified.
func (e *Engine) populate(ctx context.Context, dir, parentID string, super bool) error {
	entries, err := e.listEntries(dir)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			g.Go(func() error {
				return e.ingestFolder(ctx, path, parentID, super)
			})
		} else if entry.Type().IsRegular() {
			g.Go(func() error {
				return e.processFile(ctx, path, parentID, super)
			})
		}
	}
	return g.Wait()
}

// ingestFolder creates the folder node and populates its contents.
func (e *Engine) ingestFolder(ctx context.Context, path, parentID string, super bool) error {
	name := filepath.Base(path)
	log.Printf("Submitting folder %s for processing", name)

	folderID, err := e.store.CreateFolder(ctx, name, parentID, super)
	if err != nil {
		return fmt.Errorf("failed to create folder %s: %w", name, err)
	}
	return e.populate(ctx, path, folderID, false)
}

// processFile ingests a single file: the file node, then its entities
// (supported extensions) or whole-file chunks (unsupported extensions on the
// chunk list). Unreadable files are logged and skipped.
func (e *Engine) processFile(ctx context.Context, path, parentID string, super bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		logSkip("file", filepath.Base(path), err)
		return nil
	}

	name := filepath.Base(path)
	ext := fileExtension(name)
	source := string(data)

	lang := language.ForExtension(ext)
	if lang == nil {
		return e.ingestUnsupportedFile(ctx, name, ext, source, parentID, super)
	}

	nodes, err := extractTopLevel(lang, data)
	if err != nil {
		// Parse failure: keep the file node, drop entity extraction.
		log.Printf("Failed to parse %s: %v", name, err)
		nodes = nil
	}

	log.Printf("Processing file: %s", name)
	fileID, err := e.store.CreateFile(ctx, name, ext, parentID, source, super)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", name, err)
	}

	if !e.fileTypes.Supported(ext) {
		log.Printf("File %s is skipped", name)
		return nil
	}

	return e.ingestEntities(ctx, nodes, fileID, ext)
}

// ingestUnsupportedFile creates the file node and, when the extension is on
// the unsupported chunk list, one "chunk" super entity per chunk of the text.
func (e *Engine) ingestUnsupportedFile(ctx context.Context, name, ext, source, parentID string, super bool) error {
	log.Printf("Processing unsupported file: %s", name)
	fileID, err := e.store.CreateFile(ctx, name, ext, parentID, source, super)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", name, err)
	}

	if !e.fileTypes.Unsupported(ext) {
		log.Printf("File %s is skipped", name)
		return nil
	}

	return e.ingestFileChunks(ctx, source, fileID)
}

// ingestFileChunks creates chunk entities for an unsupported file and emits
// one embedding job per chunk. Orders are assigned in chunk sequence before
// the tasks are spawned. A chunk joins the embedding total only once its
// entity exists; a failed create leaves nothing behind for the wait loop to
// wait on.
func (e *Engine) ingestFileChunks(ctx context.Context, source, fileID string) error {
	chunks := Chunk(source, e.chunkSize)

	g, ctx := errgroup.WithContext(ctx)
	for i, chunk := range chunks {
		order := i + 1
		g.Go(func() error {
			entityID, err := e.store.CreateEntity(ctx, fileID, true, store.Entity{
				Type:      "chunk",
				Text:      chunk,
				StartByte: 0,
				EndByte:   uint(len(chunk)),
				Order:     order,
			})
			if err != nil {
				log.Printf("Failed to create chunk entity: %v", err)
				return nil
			}
			e.counters.AddTotal(1)
			e.enqueue(EmbeddingJob{Chunk: chunk, EntityID: entityID})
			return nil
		})
	}
	return g.Wait()
}

// ingestEntities processes the top-level owned nodes of a file. Sibling
// order values are taken in source order before any task runs, so they are
// deterministic across runs.
func (e *Engine) ingestEntities(ctx context.Context, nodes []OwnedNode, fileID, ext string) error {
	g, ctx := errgroup.WithContext(ctx)
	for i, node := range nodes {
		order := i + 1
		g.Go(func() error {
			return e.processEntity(ctx, node, fileID, true, order, ext)
		})
	}
	return g.Wait()
}

// processEntity creates one entity and recurses over its children with fresh
// sibling counters. Entity creation failures are logged and the subtree is
// skipped; they do not fail the file.
func (e *Engine) processEntity(ctx context.Context, node OwnedNode, parentID string, super bool, order int, ext string) error {
	// The Python grammar wraps a function body in a "block" node that would
	// be reified as a content-less entity; its children are promoted in its
	// place, each with a fresh sibling counter.
	if ext == "py" && node.Kind == "block" && len(node.Children) > 0 {
		for i, child := range node.Children {
			if err := e.processEntity(ctx, child, parentID, false, i+1, ext); err != nil {
				return err
			}
		}
		return nil
	}

	if !e.indexTypes.Match(language.Normalize(ext), node.Kind) {
		return nil
	}

	entityID, err := e.store.CreateEntity(ctx, parentID, super, store.Entity{
		Type:      node.Kind,
		Text:      node.Text,
		StartByte: node.StartByte,
		EndByte:   node.EndByte,
		Order:     order,
	})
	if err != nil {
		log.Printf("Failed to create %s entity: %v", node.Kind, err)
		return nil
	}

	if super {
		e.emitChunks(node.Text, entityID)
	}

	if len(node.Children) == 0 {
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	for i, child := range node.Children {
		childOrder := i + 1
		g.Go(func() error {
			return e.processEntity(ctx, child, entityID, false, childOrder, ext)
		})
	}
	return g.Wait()
}

// fileExtension returns the extension without the leading dot, defaulting to
// "txt" for files that have none.
func fileExtension(name string) string {
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	if ext == "" {
		return "txt"
	}
	return ext
}
