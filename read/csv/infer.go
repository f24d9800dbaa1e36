package csv

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// precedenceOrder is the bool->int->long->decimal->double->datetime->guid
// chain from §4.6, highest precedence first.
var precedenceOrder = []TypeTag{
	TypeBool, TypeInt, TypeLong, TypeDecimal, TypeDouble, TypeDateTime, TypeGUID,
}

var leadingZeroPattern = regexp.MustCompile(`^0\d+$`)

var dateTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
}

// columnSampler accumulates candidate survival per column during the
// sampling phase of §4.6's two-phase inference.
type columnSampler struct {
	alive    map[TypeTag]bool
	failures map[TypeTag]int
	// numericLocked is set once a preserve rule has dropped every
	// numeric candidate, so later observations skip re-checking them.
	numericLocked bool
}

func newColumnSampler() *columnSampler {
	alive := make(map[TypeTag]bool, len(precedenceOrder))
	for _, t := range precedenceOrder {
		alive[t] = true
	}
	return &columnSampler{alive: alive, failures: make(map[TypeTag]int)}
}

// observe folds one sampled value into the column's candidate set.
func (c *columnSampler) observe(raw string, opts Options) {
	if raw == "" {
		return
	}

	if !c.numericLocked {
		if opts.PreserveNumericStringsWithLeadingZeros && leadingZeroPattern.MatchString(raw) {
			c.dropNumeric()
		}
		if opts.PreserveLargeIntegerStrings && isLargeInteger(raw) {
			c.dropNumeric()
		}
	}

	for _, t := range precedenceOrder {
		if !c.alive[t] {
			continue
		}
		if _, ok := parseAs(t, raw); ok {
			continue
		}
		c.failures[t]++
		if c.failures[t] >= 2 {
			c.alive[t] = false
		}
	}
}

func (c *columnSampler) dropNumeric() {
	c.numericLocked = true
	for _, t := range []TypeTag{TypeInt, TypeLong, TypeDecimal, TypeDouble} {
		c.alive[t] = false
	}
}

func (c *columnSampler) inferred() TypeTag {
	for _, t := range precedenceOrder {
		if c.alive[t] {
			return t
		}
	}
	return TypeString
}

func isLargeInteger(raw string) bool {
	s := strings.TrimPrefix(raw, "-")
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 18
}

// normalizeNumeric applies the smart decimal/thousands-separator
// heuristic from §4.6 when no FormatProvider is configured.
func normalizeNumeric(raw string) string {
	hasDot := strings.Contains(raw, ".")
	hasComma := strings.Contains(raw, ",")

	switch {
	case hasDot && hasComma:
		lastDot := strings.LastIndex(raw, ".")
		lastComma := strings.LastIndex(raw, ",")
		decimalSep := byte('.')
		if lastComma > lastDot {
			decimalSep = ','
		}
		thousandsSep := byte(',')
		if decimalSep == ',' {
			thousandsSep = '.'
		}
		raw = strings.ReplaceAll(raw, string(thousandsSep), "")
		if decimalSep != '.' {
			raw = strings.Replace(raw, string(decimalSep), ".", 1)
		}
		return raw
	case hasComma:
		idx := strings.LastIndex(raw, ",")
		trailing := len(raw) - idx - 1
		if trailing == 3 {
			return strings.ReplaceAll(raw, ",", "")
		}
		return strings.Replace(raw, ",", ".", 1)
	case hasDot:
		idx := strings.LastIndex(raw, ".")
		trailing := len(raw) - idx - 1
		if trailing == 3 {
			return strings.ReplaceAll(raw, ".", "")
		}
		return raw
	default:
		return raw
	}
}

// parseAs attempts to parse raw as candidate type t, returning the
// converted value on success.
func parseAs(t TypeTag, raw string) (any, bool) {
	switch t {
	case TypeBool:
		v, err := strconv.ParseBool(raw)
		return v, err == nil
	case TypeInt:
		v, err := strconv.ParseInt(raw, 10, 32)
		return int32(v), err == nil
	case TypeLong:
		v, err := strconv.ParseInt(raw, 10, 64)
		return v, err == nil
	case TypeDecimal:
		v, err := decimal.NewFromString(normalizeNumeric(raw))
		return v, err == nil
	case TypeDouble:
		v, err := strconv.ParseFloat(normalizeNumeric(raw), 64)
		return v, err == nil
	case TypeDateTime:
		for _, layout := range dateTimeLayouts {
			if v, err := time.Parse(layout, raw); err == nil {
				return v, true
			}
		}
		return nil, false
	case TypeGUID:
		v, err := uuid.Parse(raw)
		return v, err == nil
	default:
		return raw, true
	}
}
