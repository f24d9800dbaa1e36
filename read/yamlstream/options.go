// Package yamlstream implements flowkit's hardened streaming YAML reader
// (§4.8): sequence-root or multi-document detection, a security filter
// over gopkg.in/yaml.v3's node tree, and type restriction, sharing the
// errs package's error/metrics/progress substrate.
package yamlstream

import (
	"reflect"

	"github.com/oakfield-labs/flowkit/errs"
)

// Options configures the YAML reader (§3 base + §4.8 additions).
type Options struct {
	DisallowAliases     bool
	DisallowCustomTags  bool
	MaxDepth            int
	MaxTotalDocuments   int
	MaxNodeScalarLength int

	RestrictTypes bool
	// AllowedTypes restricts materialized objects to this set; nil
	// means "exact T" (enforced by the generic type parameter itself,
	// so RestrictTypes with no AllowedTypes is effectively a no-op
	// beyond what Go's type system already guarantees).
	AllowedTypes []reflect.Type

	Base errs.Options
}

// DefaultOptions returns the documented secure-by-default posture
// (spec.md §4.8's ReadOptions defaults): aliases and custom tags are
// rejected, nesting is capped at 64, and materialized values are
// restricted to the allow-list when one is configured.
func DefaultOptions() Options {
	return Options{
		DisallowAliases:    true,
		DisallowCustomTags: true,
		MaxDepth:           64,
		RestrictTypes:      true,
		Base:               errs.DefaultOptions(),
	}
}

func (o Options) normalize() Options {
	o.Base = o.Base.Normalize()
	return o
}

// coreTags is the YAML 1.2 core schema's built-in tag set; anything
// else is a "custom tag" under DisallowCustomTags.
var coreTags = map[string]bool{
	"!!str": true, "!!int": true, "!!float": true, "!!bool": true,
	"!!null": true, "!!seq": true, "!!map": true, "!!timestamp": true,
	"!!binary": true, "!!merge": true, "!!value": true,
}
