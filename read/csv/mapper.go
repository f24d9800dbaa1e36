package csv

import (
	"fmt"
	"reflect"
	"strings"
)

// reconcileWidth implements §4.6 step 3: pad or truncate a record to
// the schema's width, or fail if the configured options forbid it.
func reconcileWidth(fields []string, schema []string, opts Options) ([]string, error) {
	if len(schema) == 0 {
		return fields, nil
	}
	switch {
	case len(fields) < len(schema):
		if !opts.AllowMissingTrailingFields {
			return nil, &SchemaError{Message: fmt.Sprintf("expected %d fields, got %d", len(schema), len(fields))}
		}
		padded := make([]string, len(schema))
		copy(padded, fields)
		return padded, nil
	case len(fields) > len(schema):
		if !opts.AllowExtraFields {
			return nil, &SchemaError{Message: fmt.Sprintf("expected %d fields, got %d", len(schema), len(fields))}
		}
		return fields[:len(schema)], nil
	default:
		return fields, nil
	}
}

// convertRow converts each raw field to its inferred type (§4.6 step
// 4). types is mutated in place: the first conversion failure for a
// column permanently demotes it to TypeString (no rescan of prior
// rows). A non-nil custom bypasses the precedence chain entirely.
func convertRow(fields []string, types []TypeTag, custom func(raw string) (any, error)) []any {
	values := make([]any, len(fields))
	for i, raw := range fields {
		if custom != nil {
			v, err := custom(raw)
			if err != nil {
				values[i] = raw
				continue
			}
			values[i] = v
			continue
		}
		if i >= len(types) || types[i] == TypeString {
			values[i] = raw
			continue
		}
		v, ok := parseAs(types[i], raw)
		if !ok {
			types[i] = TypeString
			values[i] = raw
			continue
		}
		values[i] = v
	}
	return values
}

// materialize maps named columns to T's fields/properties (§4.6 step
// 5). Struct targets match by name; map targets take every column
// whose value converts to the map's value type; anything else is
// returned unmodified (zero value).
func materialize[T any](columns []string, values []any) T {
	var out T
	rv := reflect.ValueOf(&out).Elem()
	switch rv.Kind() {
	case reflect.Struct:
		populateStruct(rv, columns, values)
	case reflect.Map:
		populateMap(rv, columns, values)
	}
	return out
}

func populateStruct(rv reflect.Value, columns []string, values []any) {
	t := rv.Type()
	for i, col := range columns {
		if i >= len(values) {
			break
		}
		idx, ok := matchFieldIndex(t, col)
		if !ok {
			continue
		}
		fv := rv.Field(idx)
		if !fv.CanSet() {
			continue
		}
		assignValue(fv, values[i])
	}
}

func populateMap(rv reflect.Value, columns []string, values []any) {
	mt := rv.Type()
	if rv.IsNil() {
		rv.Set(reflect.MakeMap(mt))
	}
	for i, col := range columns {
		if i >= len(values) {
			break
		}
		vv := reflect.ValueOf(values[i])
		if !vv.IsValid() {
			continue
		}
		if vv.Type() != mt.Elem() {
			if vv.Type().ConvertibleTo(mt.Elem()) {
				vv = vv.Convert(mt.Elem())
			} else if mt.Elem().Kind() == reflect.Interface {
				// any/interface{} element type: keep as-is.
			} else {
				continue
			}
		}
		rv.SetMapIndex(reflect.ValueOf(col), vv)
	}
}

func assignValue(fv reflect.Value, val any) {
	vv := reflect.ValueOf(val)
	if !vv.IsValid() {
		return
	}
	ft := fv.Type()
	if vv.Type().AssignableTo(ft) {
		fv.Set(vv)
		return
	}
	if vv.Type().ConvertibleTo(ft) {
		fv.Set(vv.Convert(ft))
		return
	}
	if ft.Kind() == reflect.String {
		fv.SetString(fmt.Sprintf("%v", val))
	}
}

// matchFieldIndex implements §4.6 step 5's matching precedence:
// case-insensitive exact, snake_case, camelCase, then fuzzy within
// edit distance 2.
func matchFieldIndex(t reflect.Type, col string) (int, bool) {
	if idx, ok := findField(t, col, strings.EqualFold); ok {
		return idx, true
	}
	pascalSnake := snakeToPascal(col)
	if idx, ok := findField(t, pascalSnake, strings.EqualFold); ok {
		return idx, true
	}
	pascalCamel := camelToPascal(col)
	if idx, ok := findField(t, pascalCamel, strings.EqualFold); ok {
		return idx, true
	}

	best, bestDist := -1, 3
	lowerCol := strings.ToLower(col)
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.PkgPath != "" {
			continue
		}
		d := levenshtein(strings.ToLower(f.Name), lowerCol)
		if d <= 2 && d < bestDist {
			bestDist = d
			best = i
		}
	}
	if best >= 0 {
		return best, true
	}
	return 0, false
}

func findField(t reflect.Type, name string, eq func(a, b string) bool) (int, bool) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.PkgPath != "" {
			continue
		}
		if eq(f.Name, name) {
			return i, true
		}
	}
	return 0, false
}

func snakeToPascal(s string) string {
	parts := strings.Split(s, "_")
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]))
		b.WriteString(p[1:])
	}
	return b.String()
}

func camelToPascal(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func levenshtein(a, b string) int {
	la, lb := len(a), len(b)
	dp := make([][]int, la+1)
	for i := range dp {
		dp[i] = make([]int, lb+1)
	}
	for i := 0; i <= la; i++ {
		dp[i][0] = i
	}
	for j := 0; j <= lb; j++ {
		dp[0][j] = j
	}
	for i := 1; i <= la; i++ {
		for j := 1; j <= lb; j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			dp[i][j] = min3(dp[i-1][j]+1, dp[i][j-1]+1, dp[i-1][j-1]+cost)
		}
	}
	return dp[la][lb]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
