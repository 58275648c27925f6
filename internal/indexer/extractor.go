package indexer

import (
	"fmt"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// OwnedNode is a detached copy of a syntax-tree subtree. The parse tree
// borrows from the source buffer and is freed when the parse frame ends, so
// the kind, byte range and text are copied out before work is handed to
// parallel tasks. Children are in source order.
type OwnedNode struct {
	Kind      string
	StartByte uint
	EndByte   uint
	Text      string
	Children  []OwnedNode
}

// BuildOwnedNodes returns owned copies of the direct children of node.
// The text of each node is the source byte slice [StartByte, EndByte).
func BuildOwnedNodes(node *sitter.Node, source []byte) []OwnedNode {
	count := node.ChildCount()
	nodes := make([]OwnedNode, 0, count)
	for i := uint(0); i < uint(count); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		nodes = append(nodes, OwnedNode{
			Kind:      child.Kind(),
			StartByte: child.StartByte(),
			EndByte:   child.EndByte(),
			Text:      string(source[child.StartByte():child.EndByte()]),
			Children:  BuildOwnedNodes(child, source),
		})
	}
	return nodes
}

// extractTopLevel parses source with the given grammar and returns the owned
// top-level nodes. The tree is closed before returning; only owned copies
// escape.
func extractTopLevel(lang *sitter.Language, source []byte) ([]OwnedNode, error) {
	parser := sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(lang); err != nil {
		return nil, fmt.Errorf("failed to set parser language: %w", err)
	}

	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, fmt.Errorf("parser produced no tree")
	}
	defer tree.Close()

	return BuildOwnedNodes(tree.RootNode(), source), nil
}
