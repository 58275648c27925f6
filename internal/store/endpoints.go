package store

import (
	"context"
	"fmt"
)

// FileRecord is the indexed view of a file used during reconciliation.
type FileRecord struct {
	ID          string
	ExtractedAt string
}

// Entity carries the attributes of a syntax entity being created.
type Entity struct {
	Type      string
	Text      string
	StartByte uint
	EndByte   uint
	Order     int
}

// CreateRoot creates the per-tree root object and returns its id.
func (c *Client) CreateRoot(ctx context.Context, name string) (string, error) {
	resp, err := c.Post(ctx, "createRoot", map[string]any{"name": name})
	if err != nil {
		return "", err
	}
	id, ok := stringAt(resp, "root", "id")
	if !ok {
		return "", fmt.Errorf("createRoot: %w", ErrMissingID)
	}
	return id, nil
}

// CreateFolder creates a folder under the root (super) or under another
// folder (sub) and returns its id.
func (c *Client) CreateFolder(ctx context.Context, name, parentID string, super bool) (string, error) {
	endpoint, parentKey, respKey := "createSubFolder", "folder_id", "subfolder"
	if super {
		endpoint, parentKey, respKey = "createSuperFolder", "root_id", "folder"
	}

	resp, err := c.Post(ctx, endpoint, map[string]any{"name": name, parentKey: parentID})
	if err != nil {
		return "", err
	}
	id, ok := stringAt(resp, respKey, "id")
	if !ok {
		return "", fmt.Errorf("%s: %w", endpoint, ErrMissingID)
	}
	return id, nil
}

// CreateFile creates a file node with its full text and returns its id.
func (c *Client) CreateFile(ctx context.Context, name, extension, parentID, text string, super bool) (string, error) {
	endpoint, parentKey := "createFile", "folder_id"
	if super {
		endpoint, parentKey = "createSuperFile", "root_id"
	}

	resp, err := c.Post(ctx, endpoint, map[string]any{
		"name":      name,
		"extension": extension,
		parentKey:   parentID,
		"text":      text,
	})
	if err != nil {
		return "", err
	}
	id, ok := stringAt(resp, "file", "id")
	if !ok {
		return "", fmt.Errorf("%s: %w", endpoint, ErrMissingID)
	}
	return id, nil
}

// CreateEntity creates a super entity (direct child of a file) or a sub
// entity (nested in another entity) and returns its id.
func (c *Client) CreateEntity(ctx context.Context, parentID string, super bool, entity Entity) (string, error) {
	endpoint, parentKey := "createSubEntity", "entity_id"
	if super {
		endpoint, parentKey = "createSuperEntity", "file_id"
	}

	resp, err := c.Post(ctx, endpoint, map[string]any{
		parentKey:     parentID,
		"entity_type": entity.Type,
		"text":        entity.Text,
		"start_byte":  entity.StartByte,
		"end_byte":    entity.EndByte,
		"order":       entity.Order,
	})
	if err != nil {
		return "", err
	}
	id, ok := stringAt(resp, "entity", "id")
	if !ok {
		return "", fmt.Errorf("%s: %w", endpoint, ErrMissingID)
	}
	return id, nil
}

// EmbedSuperEntity attaches an embedding vector to a super entity.
func (c *Client) EmbedSuperEntity(ctx context.Context, entityID string, vector []float64) error {
	_, err := c.Post(ctx, "embedSuperEntity", map[string]any{
		"entity_id": entityID,
		"vector":    vector,
	})
	return err
}

// UpdateFile replaces a file's text. A non-empty extractedAt also refreshes
// the stored extraction timestamp.
func (c *Client) UpdateFile(ctx context.Context, fileID, text, extractedAt string) error {
	payload := map[string]any{"file_id": fileID, "text": text}
	if extractedAt != "" {
		payload["extracted_at"] = extractedAt
	}
	_, err := c.Post(ctx, "updateFile", payload)
	return err
}

// RootIDs lists the ids of every root known to the store.
func (c *Client) RootIDs(ctx context.Context) ([]string, error) {
	resp, err := c.Post(ctx, "getRoot", map[string]any{})
	if err != nil {
		return nil, err
	}
	items, ok := arrayAt(resp, "root")
	if !ok {
		return nil, fmt.Errorf("getRoot: %w", ErrMissingID)
	}

	ids := make([]string, 0, len(items))
	for _, item := range items {
		if id, ok := stringAt(asObject(item), "id"); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// RootName fetches the stored name of a root by id.
func (c *Client) RootName(ctx context.Context, rootID string) (string, error) {
	resp, err := c.Post(ctx, "getRootById", map[string]any{"root_id": rootID})
	if err != nil {
		return "", err
	}
	name, ok := stringAt(resp, "root", "name")
	if !ok {
		return "", fmt.Errorf("getRootById: root name not found")
	}
	return name, nil
}

// RootFolders returns the name→id mapping of folders directly under the root.
func (c *Client) RootFolders(ctx context.Context, rootID string) (map[string]string, error) {
	return c.folderMap(ctx, "getRootFolders", map[string]any{"root_id": rootID}, "folders")
}

// SubFolders returns the name→id mapping of folders nested under a folder.
func (c *Client) SubFolders(ctx context.Context, folderID string) (map[string]string, error) {
	return c.folderMap(ctx, "getSubFolders", map[string]any{"folder_id": folderID}, "subfolders")
}

func (c *Client) folderMap(ctx context.Context, endpoint string, payload map[string]any, key string) (map[string]string, error) {
	resp, err := c.Post(ctx, endpoint, payload)
	if err != nil {
		return nil, err
	}
	items, ok := arrayAt(resp, key)
	if !ok {
		return nil, fmt.Errorf("%s: %w", endpoint, ErrMissingID)
	}

	folders := make(map[string]string, len(items))
	for _, item := range items {
		obj := asObject(item)
		id, okID := stringAt(obj, "id")
		name, okName := stringAt(obj, "name")
		if !okID || !okName {
			return nil, fmt.Errorf("%s: folder entry missing id or name", endpoint)
		}
		folders[name] = id
	}
	return folders, nil
}

// RootFiles returns the name→record mapping of files directly under the root.
func (c *Client) RootFiles(ctx context.Context, rootID string) (map[string]FileRecord, error) {
	return c.fileMap(ctx, "getRootFiles", map[string]any{"root_id": rootID})
}

// FolderFiles returns the name→record mapping of files under a folder.
func (c *Client) FolderFiles(ctx context.Context, folderID string) (map[string]FileRecord, error) {
	return c.fileMap(ctx, "getFolderFiles", map[string]any{"folder_id": folderID})
}

func (c *Client) fileMap(ctx context.Context, endpoint string, payload map[string]any) (map[string]FileRecord, error) {
	resp, err := c.Post(ctx, endpoint, payload)
	if err != nil {
		return nil, err
	}
	items, ok := arrayAt(resp, "files")
	if !ok {
		return nil, fmt.Errorf("%s: %w", endpoint, ErrMissingID)
	}

	files := make(map[string]FileRecord, len(items))
	for _, item := range items {
		obj := asObject(item)
		id, okID := stringAt(obj, "id")
		name, okName := stringAt(obj, "name")
		extractedAt, okTS := stringAt(obj, "extracted_at")
		if !okID || !okName || !okTS {
			return nil, fmt.Errorf("%s: file entry missing id, name or extracted_at", endpoint)
		}
		files[name] = FileRecord{ID: id, ExtractedAt: extractedAt}
	}
	return files, nil
}

// FileEntities lists the ids of the super entities under a file.
func (c *Client) FileEntities(ctx context.Context, fileID string) ([]string, error) {
	return c.entityIDs(ctx, "getFileEntities", map[string]any{"file_id": fileID}, "entity")
}

// SubEntities lists the ids of the entities nested under an entity.
func (c *Client) SubEntities(ctx context.Context, entityID string) ([]string, error) {
	return c.entityIDs(ctx, "getSubEntities", map[string]any{"entity_id": entityID}, "entities")
}

func (c *Client) entityIDs(ctx context.Context, endpoint string, payload map[string]any, key string) ([]string, error) {
	resp, err := c.Post(ctx, endpoint, payload)
	if err != nil {
		return nil, err
	}
	items, ok := arrayAt(resp, key)
	if !ok {
		return nil, fmt.Errorf("%s: entities not found", endpoint)
	}

	ids := make([]string, 0, len(items))
	for _, item := range items {
		if id, ok := stringAt(asObject(item), "id"); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// DeleteFolder removes a folder object. Descendants must be deleted first.
func (c *Client) DeleteFolder(ctx context.Context, folderID string) error {
	_, err := c.Post(ctx, "deleteFolder", map[string]any{"folder_id": folderID})
	return err
}

// DeleteFile removes a file object.
func (c *Client) DeleteFile(ctx context.Context, fileID string) error {
	_, err := c.Post(ctx, "deleteFile", map[string]any{"file_id": fileID})
	return err
}

// DeleteEntity removes a super or sub entity.
func (c *Client) DeleteEntity(ctx context.Context, entityID string, super bool) error {
	endpoint := "deleteSubEntity"
	if super {
		endpoint = "deleteSuperEntity"
	}
	_, err := c.Post(ctx, endpoint, map[string]any{"entity_id": entityID})
	return err
}

// stringAt walks nested objects by key and returns the string leaf.
func stringAt(obj map[string]any, path ...string) (string, bool) {
	current := obj
	for i, key := range path {
		value, ok := current[key]
		if !ok {
			return "", false
		}
		if i == len(path)-1 {
			s, ok := value.(string)
			return s, ok
		}
		current = asObject(value)
		if current == nil {
			return "", false
		}
	}
	return "", false
}

// arrayAt returns the array under a top-level key.
func arrayAt(obj map[string]any, key string) ([]any, bool) {
	value, ok := obj[key]
	if !ok {
		return nil, false
	}
	items, ok := value.([]any)
	return items, ok
}

func asObject(value any) map[string]any {
	obj, _ := value.(map[string]any)
	return obj
}
