package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// matchAll is the sentinel that matches every kind or extension.
const matchAll = "ALL"

// IndexTypes maps a file extension to the set of syntax node kinds that are
// indexed as entities. Immutable after load; shared across tasks.
type IndexTypes struct {
	kinds map[string]kindSet
}

type kindSet struct {
	all   bool
	names map[string]struct{}
}

// LoadIndexTypes reads and parses an index-types.json file. The file is an
// object keyed by extension, each value either ["ALL"] or a list of node kinds.
func LoadIndexTypes(path string) (*IndexTypes, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read index types: %w", err)
	}

	var raw map[string][]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse index types: %w", err)
	}

	it := &IndexTypes{kinds: make(map[string]kindSet, len(raw))}
	for ext, names := range raw {
		set := kindSet{names: make(map[string]struct{}, len(names))}
		for _, name := range names {
			if name == matchAll {
				set.all = true
				continue
			}
			set.names[name] = struct{}{}
		}
		it.kinds[ext] = set
	}
	return it, nil
}

// Match reports whether a node of the given kind is indexed under the given
// extension. The extension must already be normalised (language.Normalize).
func (it *IndexTypes) Match(ext, kind string) bool {
	set, ok := it.kinds[ext]
	if !ok {
		return false
	}
	if set.all {
		return true
	}
	_, ok = set.names[kind]
	return ok
}

// HasExtension reports whether any kinds are configured for the extension.
func (it *IndexTypes) HasExtension(ext string) bool {
	_, ok := it.kinds[ext]
	return ok
}

// FileTypes holds the supported and unsupported extension sets that gate
// entity extraction and whole-file chunking respectively.
type FileTypes struct {
	supported   extSet
	unsupported extSet
}

type extSet struct {
	all   bool
	names map[string]struct{}
}

func newExtSet(names []string) extSet {
	set := extSet{names: make(map[string]struct{}, len(names))}
	for _, name := range names {
		if name == matchAll {
			set.all = true
			continue
		}
		set.names[name] = struct{}{}
	}
	return set
}

func (s extSet) contains(ext string) bool {
	if s.all {
		return true
	}
	_, ok := s.names[ext]
	return ok
}

// LoadFileTypes reads and parses a file_types.json file: an object with two
// arrays, "supported" and "unsupported", of extension strings (or "ALL").
func LoadFileTypes(path string) (*FileTypes, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file types: %w", err)
	}

	var raw struct {
		Supported   []string `json:"supported"`
		Unsupported []string `json:"unsupported"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse file types: %w", err)
	}

	return &FileTypes{
		supported:   newExtSet(raw.Supported),
		unsupported: newExtSet(raw.Unsupported),
	}, nil
}

// Supported reports whether entities are extracted for files of this extension.
func (ft *FileTypes) Supported(ext string) bool {
	return ft.supported.contains(ext)
}

// Unsupported reports whether whole-file chunks are produced for files of this
// extension when no grammar covers it.
func (ft *FileTypes) Unsupported(ext string) bool {
	return ft.unsupported.contains(ext)
}
