package mqtt

import (
	"path/filepath"
	"strings"
)

// DefaultTopicPrefix is the root of every dabcheck topic.
const DefaultTopicPrefix = "dabcheck"

// unnamedProject is the slug used when a project path yields no usable name.
const unnamedProject = "project"

// Topics provides builders for dabcheck MQTT topics.
// Using these helpers keeps topic naming consistent across publishers.
//
//	topics := mqtt.NewTopics("dabcheck")
//	topics.ValidationResult("/work/Sales ETL")
//	// Returns: "dabcheck/validation/sales-etl/result"
type Topics struct {
	prefix string
}

// NewTopics creates a topic builder rooted at prefix.
// An empty prefix falls back to DefaultTopicPrefix.
func NewTopics(prefix string) Topics {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return Topics{prefix: prefix}
}

// Prefix returns the topic root.
func (t Topics) Prefix() string {
	if t.prefix == "" {
		return DefaultTopicPrefix
	}
	return t.prefix
}

// ValidationResult returns the topic a run summary is published to.
//
// Example: dabcheck/validation/sales-etl/result
func (t Topics) ValidationResult(projectPath string) string {
	return t.Prefix() + "/validation/" + ProjectSlug(projectPath) + "/result"
}

// Status returns the client presence topic used for the Last Will.
//
// Example: dabcheck/system/status
func (t Topics) Status() string {
	return t.Prefix() + "/system/status"
}

// ProjectSlug turns a project path into a single topic level: the last
// path element, lower-cased, with every run of characters outside
// [a-z0-9_] replaced by one '-'.
func ProjectSlug(projectPath string) string {
	name := projectPath
	if abs, err := filepath.Abs(projectPath); err == nil {
		name = abs
	}
	name = strings.ToLower(filepath.Base(name))

	var b strings.Builder
	dash := false
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
			dash = false
		default:
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		}
	}

	slug := strings.TrimSuffix(b.String(), "-")
	if slug == "" {
		return unnamedProject
	}
	return slug
}

// validTopic reports whether topic can be published to.
func validTopic(topic string) bool {
	return topic != "" && !strings.ContainsAny(topic, "+#")
}
