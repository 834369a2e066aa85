package schwabapi

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFilterParams(t *testing.T) {
	in := Params{"a": 1, "b": nil, "c": "x"}

	out := FilterParams(in)

	assert.Equal(t, Params{"a": 1, "c": "x"}, out)
	assert.Len(t, in, 3, "input must not be modified")
}

func TestFilterParams_TypedNil(t *testing.T) {
	var (
		nilInt   *int
		nilSlice []string
		nilMap   map[string]string
	)
	zero := 0

	out := FilterParams(Params{
		"ptr":   nilInt,
		"slice": nilSlice,
		"map":   nilMap,
		"zero":  &zero,
		"empty": "",
		"false": false,
	})

	assert.NotContains(t, out, "ptr")
	assert.NotContains(t, out, "slice")
	assert.NotContains(t, out, "map")
	// Present but zero values are kept.
	assert.Contains(t, out, "zero")
	assert.Contains(t, out, "empty")
	assert.Contains(t, out, "false")
}

func TestFilterParams_Empty(t *testing.T) {
	assert.Empty(t, FilterParams(nil))
	assert.Empty(t, FilterParams(Params{"a": nil}))
}

type stringerParam string

func (s stringerParam) String() string { return "s-" + string(s) }

func TestParams_Values(t *testing.T) {
	count := 5
	flag := true
	var missing *int

	start := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)

	values := Params{
		"str":      "abc",
		"empty":    "",
		"list":     []string{"AAPL", "MSFT"},
		"noList":   []string{},
		"int":      10,
		"int64":    int64(1 << 40),
		"float":    2.5,
		"bool":     false,
		"ptrInt":   &count,
		"ptrBool":  &flag,
		"missing":  missing,
		"nil":      nil,
		"time":     start,
		"zeroTime": time.Time{},
		"decimal":  decimal.RequireFromString("101.25"),
		"stringer": stringerParam("v"),
	}.Values()

	expected := map[string]string{
		"str":      "abc",
		"list":     "AAPL,MSFT",
		"int":      "10",
		"int64":    fmt.Sprint(int64(1 << 40)),
		"float":    "2.5",
		"bool":     "false",
		"ptrInt":   "5",
		"ptrBool":  "true",
		"time":     fmt.Sprint(start.UnixMilli()),
		"decimal":  "101.25",
		"stringer": "s-v",
	}

	assert.Len(t, values, len(expected))
	for k, v := range expected {
		assert.Equal(t, v, values.Get(k), "param %s", k)
	}
	for _, k := range []string{"empty", "noList", "missing", "nil", "zeroTime"} {
		assert.False(t, values.Has(k), "param %s should be absent", k)
	}
}

func TestParams_ValuesNonStringSlices(t *testing.T) {
	values := Params{
		"ints":     []int{1, 2},
		"decimals": []decimal.Decimal{decimal.RequireFromString("1.5"), decimal.RequireFromString("2")},
		"array":    [2]string{"a", "b"},
		"empty":    []int{},
	}.Values()

	assert.Equal(t, "1,2", values.Get("ints"))
	assert.Equal(t, "1.5,2", values.Get("decimals"))
	assert.Equal(t, "a,b", values.Get("array"))
	assert.False(t, values.Has("empty"))
}
