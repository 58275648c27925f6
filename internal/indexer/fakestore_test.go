package indexer

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ehcaw/codegraph/internal/config"
	"github.com/ehcaw/codegraph/internal/store"
)

// fakeStore is an in-memory graph store behind an httptest server. It answers
// every endpoint the client knows and records each call for assertions.
type fakeStore struct {
	t      *testing.T
	server *httptest.Server

	mu       sync.Mutex
	nextID   int
	roots    map[string]string     // id -> name
	folders  map[string]*folderRec // id -> record
	files    map[string]*fileRec
	entities map[string]*entityRec
	calls    []storeCall
	failing  map[string]bool // endpoints answering 500
}

type folderRec struct {
	name     string
	parentID string
}

type fileRec struct {
	name        string
	parentID    string
	text        string
	extractedAt string
}

type entityRec struct {
	parentID string
	super    bool
	typ      string
	text     string
	order    int
}

type storeCall struct {
	endpoint string
	payload  map[string]any
}

func newFakeStore(t *testing.T) *fakeStore {
	t.Helper()

	fs := &fakeStore{
		t:        t,
		roots:    make(map[string]string),
		folders:  make(map[string]*folderRec),
		files:    make(map[string]*fileRec),
		entities: make(map[string]*entityRec),
		failing:  make(map[string]bool),
	}
	fs.server = httptest.NewServer(http.HandlerFunc(fs.handle))
	t.Cleanup(fs.server.Close)
	return fs
}

func (fs *fakeStore) port() int {
	_, portStr, err := net.SplitHostPort(fs.server.Listener.Addr().String())
	require.NoError(fs.t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(fs.t, err)
	return port
}

func (fs *fakeStore) client() *store.Client {
	cfg := config.Default().Store
	cfg.Host = "127.0.0.1"
	cfg.Timeout = 5 * time.Second
	return store.New(cfg, fs.port())
}

func (fs *fakeStore) mint(prefix string) string {
	fs.nextID++
	return fmt.Sprintf("%s%d", prefix, fs.nextID)
}

func (fs *fakeStore) handle(w http.ResponseWriter, r *http.Request) {
	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	endpoint := r.URL.Path[1:]

	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.calls = append(fs.calls, storeCall{endpoint: endpoint, payload: payload})

	if fs.failing[endpoint] {
		http.Error(w, "store unavailable", http.StatusInternalServerError)
		return
	}

	str := func(key string) string {
		s, _ := payload[key].(string)
		return s
	}

	respond := func(body map[string]any) {
		_ = json.NewEncoder(w).Encode(body)
	}

	switch endpoint {
	case "createRoot":
		id := fs.mint("r")
		fs.roots[id] = str("name")
		respond(map[string]any{"root": map[string]any{"id": id}})

	case "createSuperFolder", "createSubFolder":
		parentKey, respKey := "folder_id", "subfolder"
		if endpoint == "createSuperFolder" {
			parentKey, respKey = "root_id", "folder"
		}
		id := fs.mint("fo")
		fs.folders[id] = &folderRec{name: str("name"), parentID: str(parentKey)}
		respond(map[string]any{respKey: map[string]any{"id": id}})

	case "createSuperFile", "createFile":
		parentKey := "folder_id"
		if endpoint == "createSuperFile" {
			parentKey = "root_id"
		}
		id := fs.mint("fi")
		fs.files[id] = &fileRec{
			name:        str("name"),
			parentID:    str(parentKey),
			text:        str("text"),
			extractedAt: time.Now().UTC().Format(time.RFC3339),
		}
		respond(map[string]any{"file": map[string]any{"id": id}})

	case "createSuperEntity", "createSubEntity":
		parentKey := "entity_id"
		super := endpoint == "createSuperEntity"
		if super {
			parentKey = "file_id"
		}
		order, _ := payload["order"].(float64)
		id := fs.mint("e")
		fs.entities[id] = &entityRec{
			parentID: str(parentKey),
			super:    super,
			typ:      str("entity_type"),
			text:     str("text"),
			order:    int(order),
		}
		respond(map[string]any{"entity": map[string]any{"id": id}})

	case "embedSuperEntity", "deleteFolder", "deleteFile",
		"deleteSuperEntity", "deleteSubEntity", "updateFile":
		switch endpoint {
		case "deleteFolder":
			delete(fs.folders, str("folder_id"))
		case "deleteFile":
			delete(fs.files, str("file_id"))
		case "deleteSuperEntity", "deleteSubEntity":
			delete(fs.entities, str("entity_id"))
		case "updateFile":
			if rec, ok := fs.files[str("file_id")]; ok {
				rec.text = str("text")
				if ts := str("extracted_at"); ts != "" {
					rec.extractedAt = ts
				}
			}
		}
		respond(map[string]any{})

	case "getRoot":
		items := make([]any, 0, len(fs.roots))
		for id := range fs.roots {
			items = append(items, map[string]any{"id": id})
		}
		respond(map[string]any{"root": items})

	case "getRootById":
		id := str("root_id")
		respond(map[string]any{"root": map[string]any{"id": id, "name": fs.roots[id]}})

	case "getRootFolders", "getSubFolders":
		parentID, key := str("folder_id"), "subfolders"
		if endpoint == "getRootFolders" {
			parentID, key = str("root_id"), "folders"
		}
		items := make([]any, 0)
		for id, rec := range fs.folders {
			if rec.parentID == parentID {
				items = append(items, map[string]any{"id": id, "name": rec.name})
			}
		}
		respond(map[string]any{key: items})

	case "getRootFiles", "getFolderFiles":
		parentID := str("folder_id")
		if endpoint == "getRootFiles" {
			parentID = str("root_id")
		}
		items := make([]any, 0)
		for id, rec := range fs.files {
			if rec.parentID == parentID {
				items = append(items, map[string]any{
					"id": id, "name": rec.name, "extracted_at": rec.extractedAt,
				})
			}
		}
		respond(map[string]any{"files": items})

	case "getFileEntities", "getSubEntities":
		parentID, key, super := str("entity_id"), "entities", false
		if endpoint == "getFileEntities" {
			parentID, key, super = str("file_id"), "entity", true
		}
		items := make([]any, 0)
		for id, rec := range fs.entities {
			if rec.parentID == parentID && rec.super == super {
				items = append(items, map[string]any{"id": id})
			}
		}
		respond(map[string]any{key: items})

	default:
		http.Error(w, "unknown endpoint "+endpoint, http.StatusNotFound)
	}
}

// failOn makes an endpoint answer 500 until further notice.
func (fs *fakeStore) failOn(endpoint string) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.failing[endpoint] = true
}

// callsTo returns the payloads of every recorded call to an endpoint.
func (fs *fakeStore) callsTo(endpoint string) []map[string]any {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	var payloads []map[string]any
	for _, call := range fs.calls {
		if call.endpoint == endpoint {
			payloads = append(payloads, call.payload)
		}
	}
	return payloads
}

// entitiesOfType returns live entities with the given type, in no order.
func (fs *fakeStore) entitiesOfType(typ string) []*entityRec {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	var out []*entityRec
	for _, rec := range fs.entities {
		if rec.typ == typ {
			out = append(out, rec)
		}
	}
	return out
}

// findEntity returns the first live entity of a type whose text starts with
// the given prefix.
func (fs *fakeStore) findEntity(typ, textPrefix string) (string, entityRec, bool) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	for id, rec := range fs.entities {
		if rec.typ == typ && len(rec.text) >= len(textPrefix) && rec.text[:len(textPrefix)] == textPrefix {
			return id, *rec, true
		}
	}
	return "", entityRec{}, false
}

// seedRoot registers a root directly in the fake state.
func (fs *fakeStore) seedRoot(name string) string {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	id := fs.mint("r")
	fs.roots[id] = name
	return id
}

func (fs *fakeStore) seedFolder(name, parentID string) string {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	id := fs.mint("fo")
	fs.folders[id] = &folderRec{name: name, parentID: parentID}
	return id
}

func (fs *fakeStore) seedFile(name, parentID, extractedAt string) string {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	id := fs.mint("fi")
	fs.files[id] = &fileRec{name: name, parentID: parentID, extractedAt: extractedAt}
	return id
}

func (fs *fakeStore) seedEntity(parentID string, super bool, typ string) string {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	id := fs.mint("e")
	fs.entities[id] = &entityRec{parentID: parentID, super: super, typ: typ}
	return id
}

func (fs *fakeStore) hasFolder(id string) bool {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	_, ok := fs.folders[id]
	return ok
}

func (fs *fakeStore) hasFile(id string) bool {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	_, ok := fs.files[id]
	return ok
}

func (fs *fakeStore) hasEntity(id string) bool {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	_, ok := fs.entities[id]
	return ok
}

func (fs *fakeStore) fileRecord(id string) (fileRec, bool) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	rec, ok := fs.files[id]
	if !ok {
		return fileRec{}, false
	}
	return *rec, true
}

// newTestEngine wires an engine to the fake store with the given type
// configs (JSON strings) and a generously buffered jobs channel.
func newTestEngine(t *testing.T, fs *fakeStore, indexTypesJSON, fileTypesJSON string) (*Engine, chan EmbeddingJob, *Counters) {
	t.Helper()

	dir := t.TempDir()
	indexPath := filepath.Join(dir, "index-types.json")
	filePath := filepath.Join(dir, "file_types.json")
	require.NoError(t, os.WriteFile(indexPath, []byte(indexTypesJSON), 0o644))
	require.NoError(t, os.WriteFile(filePath, []byte(fileTypesJSON), 0o644))

	indexTypes, err := config.LoadIndexTypes(indexPath)
	require.NoError(t, err)
	fileTypes, err := config.LoadFileTypes(filePath)
	require.NoError(t, err)

	cfg := config.Default()
	jobs := make(chan EmbeddingJob, 4096)
	counters := NewCounters()

	engine, err := NewEngine(fs.client(), indexTypes, fileTypes, cfg, jobs, counters)
	require.NoError(t, err)
	return engine, jobs, counters
}

// drainJobs reads every currently buffered job without blocking.
func drainJobs(jobs chan EmbeddingJob) []EmbeddingJob {
	var out []EmbeddingJob
	for {
		select {
		case job := <-jobs:
			out = append(out, job)
		default:
			return out
		}
	}
}
