package bundle

import (
	"bytes"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// YAML core schema tags used to classify scalars.
const (
	tagStr   = "!!str"
	tagInt   = "!!int"
	tagFloat = "!!float"
	tagNull  = "!!null"
	tagMerge = "!!merge"
)

// Kind classifies a Node.
type Kind int

const (
	// KindMissing is the kind of a Node that was looked up but not found.
	KindMissing Kind = iota
	KindNull
	KindScalar
	KindSequence
	KindMapping
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindScalar:
		return "scalar"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	default:
		return "missing"
	}
}

// Node is a read-only view over one value of a parsed bundle document.
//
// The zero Node represents a missing value. Every accessor is safe to call
// on any kind and returns a zero result when the kind does not match, so
// lookups chain without type checks:
//
//	tags := root.Get("resources").Get("jobs").Get("Etl").Get("tags")
type Node struct {
	n *yaml.Node
}

// Entry is one key/value pair of a mapping Node.
type Entry struct {
	Key   string
	Value Node
}

// wrap resolves document and alias indirection.
func wrap(n *yaml.Node) Node {
	for n != nil {
		switch n.Kind {
		case yaml.DocumentNode:
			if len(n.Content) == 0 {
				return Node{}
			}
			n = n.Content[0]
		case yaml.AliasNode:
			n = n.Alias
		default:
			return Node{n: n}
		}
	}
	return Node{}
}

// EmptyMapping returns a Node holding an empty mapping.
func EmptyMapping() Node {
	return Node{n: &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}}
}

// Kind reports what the node holds.
func (n Node) Kind() Kind {
	if n.n == nil {
		return KindMissing
	}
	switch n.n.Kind {
	case yaml.MappingNode:
		return KindMapping
	case yaml.SequenceNode:
		return KindSequence
	case yaml.ScalarNode:
		if n.n.ShortTag() == tagNull {
			return KindNull
		}
		return KindScalar
	default:
		return KindMissing
	}
}

// Exists reports whether the node was present in the document.
// An explicit null value exists.
func (n Node) Exists() bool { return n.Kind() != KindMissing }

// IsMapping reports whether the node is a mapping.
func (n Node) IsMapping() bool { return n.Kind() == KindMapping }

// IsSequence reports whether the node is a sequence.
func (n Node) IsSequence() bool { return n.Kind() == KindSequence }

// IsScalar reports whether the node is a non-null scalar.
func (n Node) IsScalar() bool { return n.Kind() == KindScalar }

// IsString reports whether the node is a string scalar.
// Quoted numbers ("15") are strings; bare numbers are not.
func (n Node) IsString() bool {
	return n.IsScalar() && n.n.ShortTag() == tagStr
}

// Len returns the number of entries of a mapping or items of a sequence.
func (n Node) Len() int {
	switch n.Kind() {
	case KindMapping:
		return len(n.Entries())
	case KindSequence:
		return len(n.n.Content)
	default:
		return 0
	}
}

// Get returns the value stored under key in a mapping.
// Merge keys are expanded and duplicate keys resolve to the last occurrence.
func (n Node) Get(key string) Node {
	for _, e := range n.Entries() {
		if e.Key == key {
			return e.Value
		}
	}
	return Node{}
}

// Has reports whether a mapping contains key, even with a null value.
func (n Node) Has(key string) bool {
	return n.Get(key).Exists()
}

// Entries returns the effective pairs of a mapping.
//
// Merge keys (<<: *anchor, or a sequence of anchors) are expanded: merged
// pairs come first, explicit keys override them, and among several merge
// sources the earlier one wins. A key that appears more than once keeps
// its first position and its last value.
func (n Node) Entries() []Entry {
	if !n.IsMapping() {
		return nil
	}

	var merged, explicit []Entry
	for i := 0; i+1 < len(n.n.Content); i += 2 {
		k, v := n.n.Content[i], n.n.Content[i+1]
		if k.Kind == yaml.ScalarNode && k.ShortTag() == tagMerge {
			merged = append(merged, mergeSources(wrap(v))...)
			continue
		}
		explicit = append(explicit, Entry{Key: k.Value, Value: wrap(v)})
	}
	return lastWins(append(merged, explicit...))
}

// mergeSources returns the pairs contributed by the value of a merge key.
// Sources of a sequence are listed last to first so that lastWins lets the
// first source take precedence.
func mergeSources(src Node) []Entry {
	switch src.Kind() {
	case KindMapping:
		return src.Entries()
	case KindSequence:
		items := src.Items()
		var out []Entry
		for i := len(items) - 1; i >= 0; i-- {
			out = append(out, items[i].Entries()...)
		}
		return out
	default:
		return nil
	}
}

// lastWins collapses repeated keys.
func lastWins(in []Entry) []Entry {
	index := make(map[string]int, len(in))
	out := make([]Entry, 0, len(in))
	for _, e := range in {
		if i, ok := index[e.Key]; ok {
			out[i].Value = e.Value
			continue
		}
		index[e.Key] = len(out)
		out = append(out, e)
	}
	return out
}

// Keys returns the keys of a mapping in document order.
func (n Node) Keys() []string {
	entries := n.Entries()
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		keys = append(keys, e.Key)
	}
	return keys
}

// Items returns the elements of a sequence.
func (n Node) Items() []Node {
	if !n.IsSequence() {
		return nil
	}
	items := make([]Node, 0, len(n.n.Content))
	for _, c := range n.n.Content {
		items = append(items, wrap(c))
	}
	return items
}

// Str returns the scalar text and whether the node is a string scalar.
func (n Node) Str() (string, bool) {
	if !n.IsString() {
		return "", false
	}
	return n.n.Value, true
}

// Text returns the raw text of any scalar, or "" for other kinds.
func (n Node) Text() string {
	if !n.IsScalar() {
		return ""
	}
	return n.n.Value
}

// Int returns the value of an integer scalar.
func (n Node) Int() (int64, bool) {
	if !n.IsScalar() || n.n.ShortTag() != tagInt {
		return 0, false
	}
	var v int64
	if err := n.n.Decode(&v); err != nil {
		return 0, false
	}
	return v, true
}

// Number returns the value of an integer or float scalar.
func (n Node) Number() (float64, bool) {
	if !n.IsScalar() {
		return 0, false
	}
	switch n.n.ShortTag() {
	case tagInt, tagFloat:
		var v float64
		if err := n.n.Decode(&v); err != nil {
			return 0, false
		}
		return v, true
	default:
		return 0, false
	}
}

// Truthy mirrors YAML truthiness: missing, null, false, zero, empty
// strings and empty collections are false.
func (n Node) Truthy() bool {
	switch n.Kind() {
	case KindMapping, KindSequence:
		return n.Len() > 0
	case KindScalar:
		switch n.n.ShortTag() {
		case "!!bool":
			b, err := strconv.ParseBool(strings.ToLower(n.n.Value))
			return err == nil && b
		case tagInt, tagFloat:
			v, ok := n.Number()
			return ok && v != 0
		default:
			return n.n.Value != ""
		}
	default:
		return false
	}
}

// Encode renders the effective tree back to YAML text.
//
// The text is built from a resolved copy: comments and anchors are
// dropped, aliases and merge keys are expanded and duplicate keys
// collapsed. Scalar quoting is kept as the author wrote it, so a value
// written as "hunter2" encodes with its quotes.
func (n Node) Encode() (string, error) {
	if n.n == nil {
		return "", nil
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(n.resolved()); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// resolved returns a comment-free deep copy of the effective tree.
func (n Node) resolved() *yaml.Node {
	switch n.Kind() {
	case KindMapping:
		out := &yaml.Node{Kind: yaml.MappingNode, Tag: n.n.Tag, Style: n.n.Style}
		for _, e := range n.Entries() {
			out.Content = append(out.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: tagStr, Value: e.Key},
				e.Value.resolved(),
			)
		}
		return out
	case KindSequence:
		out := &yaml.Node{Kind: yaml.SequenceNode, Tag: n.n.Tag, Style: n.n.Style}
		for _, item := range n.Items() {
			out.Content = append(out.Content, item.resolved())
		}
		return out
	case KindScalar, KindNull:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: n.n.Tag, Value: n.n.Value, Style: n.n.Style}
	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tagNull, Value: "null"}
	}
}
