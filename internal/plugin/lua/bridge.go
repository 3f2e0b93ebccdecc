package lua

import (
	"sort"
	"strconv"
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// Bridge converts between Lua values and the JSON-shaped Go values events
// are encoded to: nil, bool, int64, float64, string, []any and
// map[string]any.
type Bridge struct {
	L *lua.LState
}

// NewBridge creates a new Bridge for the given Lua state.
func NewBridge(L *lua.LState) *Bridge {
	return &Bridge{L: L}
}

// ToLuaValue converts a Go value to a Lua value. Values outside the JSON
// shapes are first passed through the JSON codec, so structs arrive as
// tables keyed by their JSON field names.
func (b *Bridge) ToLuaValue(v any) lua.LValue {
	switch val := v.(type) {
	case nil:
		return lua.LNil
	case lua.LValue:
		return val
	case bool:
		return lua.LBool(val)
	case string:
		return lua.LString(val)
	case float64:
		return lua.LNumber(val)
	case int:
		return lua.LNumber(val)
	case int64:
		return lua.LNumber(val)
	case number:
		f, _ := val.Float64()
		return lua.LNumber(f)
	case []any:
		t := b.L.CreateTable(len(val), 0)
		for _, item := range val {
			t.Append(b.ToLuaValue(item))
		}
		return t
	case map[string]any:
		t := b.L.CreateTable(0, len(val))
		// Sorted so table construction is deterministic.
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			t.RawSetString(k, b.ToLuaValue(val[k]))
		}
		return t
	}

	data, err := json.Marshal(v)
	if err != nil {
		return lua.LNil
	}
	var generic any
	if err := numberJSON.Unmarshal(data, &generic); err != nil {
		return lua.LNil
	}
	return b.ToLuaValue(generic)
}

// number is a json.Number as produced by numberJSON.
type number interface {
	Float64() (float64, error)
	String() string
}

// isExact reports whether n converts to a Lua number without losing
// digits. Integers beyond 2^53 usually do not.
func isExact(n number) bool {
	s := n.String()
	if strings.ContainsAny(s, ".eE") {
		return true
	}
	f, err := n.Float64()
	if err != nil {
		return false
	}
	return strconv.FormatFloat(f, 'f', -1, 64) == s
}

// ToGoValue converts a Lua value to a Go value.
// Whole numbers become int64. Tables whose keys are exactly 1..n become
// []any; other tables become map[string]any. Empty tables convert to nil
// since they carry no array/map distinction. Functions, userdata and
// tables already being converted (cycles) become nil.
func (b *Bridge) ToGoValue(lv lua.LValue) any {
	return b.toGo(lv, map[*lua.LTable]struct{}{})
}

func (b *Bridge) toGo(lv lua.LValue, seen map[*lua.LTable]struct{}) any {
	switch v := lv.(type) {
	case lua.LBool:
		return bool(v)
	case lua.LString:
		return string(v)
	case lua.LNumber:
		if n := int64(v); lua.LNumber(n) == v {
			return n
		}
		return float64(v)
	case *lua.LTable:
		if _, ok := seen[v]; ok {
			return nil
		}
		seen[v] = struct{}{}
		defer delete(seen, v)
		return b.tableToGo(v, seen)
	default:
		return nil
	}
}

func (b *Bridge) tableToGo(t *lua.LTable, seen map[*lua.LTable]struct{}) any {
	size, maxIndex := 0, 0
	sequence := true
	t.ForEach(func(k, _ lua.LValue) {
		size++
		n, ok := k.(lua.LNumber)
		if !ok || n < 1 || lua.LNumber(int(n)) != n {
			sequence = false
			return
		}
		maxIndex = max(maxIndex, int(n))
	})

	switch {
	case size == 0:
		return nil
	case sequence && maxIndex == size:
		arr := make([]any, size)
		for i := range arr {
			arr[i] = b.toGo(t.RawGetInt(i+1), seen)
		}
		return arr
	}

	m := make(map[string]any, size)
	t.ForEach(func(k, v lua.LValue) {
		m[tableKey(k)] = b.toGo(v, seen)
	})
	return m
}

func tableKey(k lua.LValue) string {
	switch kv := k.(type) {
	case lua.LString:
		return string(kv)
	case lua.LNumber:
		return strconv.FormatFloat(float64(kv), 'f', -1, 64)
	default:
		return k.String()
	}
}
