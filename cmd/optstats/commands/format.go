package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"reflect"
	"strings"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

// printJSON serializes v to stdout for the presentation layer.
func printJSON(v interface{}) error {
	return encodeJSON(os.Stdout, v)
}

// encodeJSON writes v as indented JSON. Several statistics resolve to
// ±Inf sentinel values (profit factor with no losses, Sortino with no
// downside, Calmar with zero drawdown); JSON has no representation for
// them and encoding/json rejects them, so non-finite floats are rewritten
// to the string sentinels "inf"/"-inf" (NaN → null) before encoding.
func encodeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonSafe(reflect.ValueOf(v)))
}

var jsonMarshalerType = reflect.TypeOf((*json.Marshaler)(nil)).Elem()

// jsonSafe rebuilds v as plain maps/slices/scalars with non-finite
// floats replaced, honoring json struct tags along the way.
func jsonSafe(v reflect.Value) interface{} {
	switch v.Kind() {
	case reflect.Invalid:
		return nil

	case reflect.Ptr, reflect.Interface:
		if v.IsNil() {
			return nil
		}
		return jsonSafe(v.Elem())

	case reflect.Float32, reflect.Float64:
		f := v.Float()
		switch {
		case math.IsInf(f, 1):
			return "inf"
		case math.IsInf(f, -1):
			return "-inf"
		case math.IsNaN(f):
			return nil
		}
		return f

	case reflect.Slice:
		if v.IsNil() {
			return nil
		}
		fallthrough
	case reflect.Array:
		out := make([]interface{}, v.Len())
		for i := 0; i < v.Len(); i++ {
			out[i] = jsonSafe(v.Index(i))
		}
		return out

	case reflect.Map:
		if v.IsNil() {
			return nil
		}
		out := make(map[string]interface{}, v.Len())
		for _, k := range v.MapKeys() {
			out[fmt.Sprint(k.Interface())] = jsonSafe(v.MapIndex(k))
		}
		return out

	case reflect.Struct:
		// time.Time and friends know how to marshal themselves.
		if v.Type().Implements(jsonMarshalerType) {
			return v.Interface()
		}
		t := v.Type()
		out := make(map[string]interface{}, t.NumField())
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			if field.PkgPath != "" { // unexported
				continue
			}
			name, opts, _ := strings.Cut(field.Tag.Get("json"), ",")
			if name == "-" {
				continue
			}
			if name == "" {
				name = field.Name
			}
			val := jsonSafe(v.Field(i))
			if val == nil && strings.Contains(opts, "omitempty") {
				continue
			}
			out[name] = val
		}
		return out

	default:
		return v.Interface()
	}
}

// money formats a dollar amount with sign.
func money(v float64) string {
	if v < 0 {
		return fmt.Sprintf("-$%.2f", -v)
	}
	return fmt.Sprintf("$%.2f", v)
}

// pct formats a percentage with sign.
func pct(v float64) string {
	if math.IsInf(v, 1) {
		return "INF"
	}
	return fmt.Sprintf("%+.2f%%", v)
}

// ratio formats a unitless ratio, INF-aware.
func ratio(v float64) string {
	if math.IsInf(v, 1) {
		return "INF"
	}
	return fmt.Sprintf("%.2f", v)
}

func printSectionHeader(title string) {
	fmt.Println()
	fmt.Println("═══════════════════════════════════════════════════════════")
	fmt.Printf("  %s\n", title)
	fmt.Println("───────────────────────────────────────────────────────────")
}
