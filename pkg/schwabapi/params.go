package schwabapi

import (
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Params maps query parameter names to optional values.
// A nil value (or nil pointer, slice or map) means the parameter is absent.
type Params map[string]any

// FilterParams returns a copy of p holding only the entries whose value is present.
// The input map is not modified.
func FilterParams(p Params) Params {
	out := make(Params, len(p))
	for k, v := range p {
		if isAbsent(v) {
			continue
		}
		out[k] = v
	}
	return out
}

// isAbsent reports whether v is nil or a typed nil.
func isAbsent(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// Values filters p and encodes what remains as query values.
// Empty strings and empty slices are treated as absent.
func (p Params) Values() url.Values {
	query := url.Values{}
	for k, v := range FilterParams(p) {
		if s, ok := encodeParam(v); ok {
			query.Set(k, s)
		}
	}
	return query
}

// encodeParam renders a single parameter value; ok is false when the value
// should not be sent.
func encodeParam(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, val != ""
	case []string:
		s := strings.Join(val, ",")
		return s, s != ""
	case bool:
		return strconv.FormatBool(val), true
	case int:
		return strconv.Itoa(val), true
	case int64:
		return strconv.FormatInt(val, 10), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case time.Time:
		if val.IsZero() {
			return "", false
		}
		return strconv.FormatInt(val.UnixMilli(), 10), true
	case decimal.Decimal:
		return val.String(), true
	case fmt.Stringer:
		s := val.String()
		return s, s != ""
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer:
		return encodeParam(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		parts := make([]string, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			if s, ok := encodeParam(rv.Index(i).Interface()); ok {
				parts = append(parts, s)
			}
		}
		s := strings.Join(parts, ",")
		return s, s != ""
	}
	s := fmt.Sprint(v)
	return s, s != ""
}
