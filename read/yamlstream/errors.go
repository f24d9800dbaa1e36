package yamlstream

import "fmt"

// YamlSecurityError reports a security-filter violation: an alias/anchor
// when disallowed, a non-core tag when disallowed, a depth overflow, a
// document-count overflow, or an over-length scalar.
type YamlSecurityError struct {
	DocumentNum int64
	Rule        string // "disallow_aliases" | "disallow_custom_tags" | "max_depth" | "max_total_documents" | "max_node_scalar_length"
	Excerpt     string
	Message     string
}

func (e *YamlSecurityError) Error() string {
	return fmt.Sprintf("yaml: security rule %s violated at document %d: %s", e.Rule, e.DocumentNum, e.Message)
}

// TypeRestriction reports a materialized value whose type isn't in the
// configured allow-list.
type TypeRestriction struct {
	DocumentNum int64
	GotType     string
}

func (e *TypeRestriction) Error() string {
	return fmt.Sprintf("yaml: document %d materialized as disallowed type %s", e.DocumentNum, e.GotType)
}

// YamlException reports a decode error from the underlying parser, at
// document/element granularity.
type YamlException struct {
	DocumentNum int64
	Message     string
}

func (e *YamlException) Error() string {
	return fmt.Sprintf("yaml: parse error at document %d: %s", e.DocumentNum, e.Message)
}
