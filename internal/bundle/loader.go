package bundle

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads and parses the YAML document at path.
//
// An empty document yields an empty mapping. Only the first document of a
// multi-document stream is read. All failures (missing file, I/O error,
// malformed YAML) are returned wrapped in ErrLoad; callers decide whether
// that is fatal.
func Load(path string) (Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Node{}, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	return Parse(data)
}

// Parse parses YAML bytes into a Node.
func Parse(data []byte) (Node, error) {
	var doc yaml.Node
	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return EmptyMapping(), nil
		}
		return Node{}, fmt.Errorf("%w: %w", ErrLoad, err)
	}

	if err := checkAliasCycles(&doc, map[*yaml.Node]bool{}, map[*yaml.Node]bool{}); err != nil {
		return Node{}, fmt.Errorf("%w: %w", ErrLoad, err)
	}

	root := wrap(&doc)
	if root.Kind() == KindMissing || root.Kind() == KindNull {
		return EmptyMapping(), nil
	}
	return root, nil
}

// checkAliasCycles rejects documents whose aliases refer to an enclosing
// node, which would make the tree infinite. done memoizes checked
// subtrees so shared anchors are visited once.
func checkAliasCycles(n *yaml.Node, onPath, done map[*yaml.Node]bool) error {
	if n == nil || done[n] {
		return nil
	}
	if onPath[n] {
		return fmt.Errorf("%w at line %d", ErrAliasCycle, n.Line)
	}

	onPath[n] = true
	if n.Kind == yaml.AliasNode {
		if err := checkAliasCycles(n.Alias, onPath, done); err != nil {
			return err
		}
	}
	for _, c := range n.Content {
		if err := checkAliasCycles(c, onPath, done); err != nil {
			return err
		}
	}
	delete(onPath, n)
	done[n] = true
	return nil
}
