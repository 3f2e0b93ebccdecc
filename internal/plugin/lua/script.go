package lua

import (
	"context"
	"fmt"
	"path/filepath"
	"reflect"
	"sort"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/epicenter/internal/event"
)

// DefaultFunction is the global function called for each event when a
// script does not name another one.
const DefaultFunction = "on_event"

var (
	json = jsoniter.ConfigCompatibleWithStandardLibrary

	// numberJSON keeps numbers as json.Number so integers can be checked
	// before they become Lua numbers.
	numberJSON = jsoniter.Config{
		EscapeHTML:             true,
		SortMapKeys:            true,
		ValidateJsonRawMessage: true,
		UseNumber:              true,
	}.Froze()
)

// Script is a loaded Lua chunk whose global function handles events.
//
// The function receives the event as a table keyed by the event's JSON field
// names. It may modify the table in place or return a replacement table.
// Returning false, or nil and a message, fails the dispatch:
//
//	function on_event(ev)
//	    if ev.total > 1000 then
//	        return nil, "order over limit"
//	    end
//	    ev.flagged = true
//	end
type Script struct {
	name     string
	function string
	state    *State

	mu sync.Mutex
}

// LoadScript loads the Lua file at path.
// An empty function name selects DefaultFunction.
func LoadScript(path, function string, opts ...StateOption) (*Script, error) {
	state, err := NewState(opts...)
	if err != nil {
		return nil, errors.Wrap(err, "create lua state")
	}
	if err := state.DoFile(path); err != nil {
		state.Close()
		return nil, errors.Wrapf(err, "load script %s", path)
	}
	return newScript(filepath.Base(path), function, state)
}

// NewScript loads a script from source code.
func NewScript(name, code, function string, opts ...StateOption) (*Script, error) {
	state, err := NewState(opts...)
	if err != nil {
		return nil, errors.Wrap(err, "create lua state")
	}
	if err := state.DoString(code); err != nil {
		state.Close()
		return nil, errors.Wrapf(err, "load script %s", name)
	}
	return newScript(name, function, state)
}

func newScript(name, function string, state *State) (*Script, error) {
	if function == "" {
		function = DefaultFunction
	}
	if !state.HasFunction(function) {
		state.Close()
		return nil, errors.Wrapf(ErrFunctionNotFound, "script %s: %s", name, function)
	}
	return &Script{
		name:     name,
		function: function,
		state:    state,
	}, nil
}

// Name returns the script name.
func (s *Script) Name() string {
	return s.name
}

// Function returns the name of the Lua function called per event.
func (s *Script) Function() string {
	return s.function
}

// Close releases the script's Lua state.
func (s *Script) Close() error {
	return s.state.Close()
}

// Apply runs the script against ev, which must be a non-nil pointer.
// The resulting table replaces every JSON-encoded field of ev: fields the
// script sets to nil, or leaves out of a returned table, end up zero.
// Unexported fields are kept. ev is only written when decoding succeeds.
func (s *Script) Apply(ctx context.Context, ev any) error {
	target := reflect.ValueOf(ev)
	if target.Kind() != reflect.Pointer || target.IsNil() {
		return s.fail(errors.Errorf("event must be a non-nil pointer, got %T", ev))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(ev)
	if err != nil {
		return s.fail(errors.Wrap(err, "encode event"))
	}
	fields := map[string]any{}
	if err := numberJSON.Unmarshal(data, &fields); err != nil {
		return s.fail(errors.Wrap(err, "encode event"))
	}
	if err := checkNumbers(fields, "ev"); err != nil {
		return s.fail(err)
	}

	var (
		bridge *Bridge
		table  *lua.LTable
	)
	results, err := s.state.Call(ctx, s.function, func(b *Bridge) []lua.LValue {
		bridge = b
		if t, ok := b.ToLuaValue(fields).(*lua.LTable); ok {
			table = t
		} else {
			table = b.L.NewTable()
		}
		return []lua.LValue{table}
	})
	if err != nil {
		return s.fail(err)
	}

	out := table
	if len(results) > 0 {
		switch r := results[0].(type) {
		case *lua.LTable:
			out = r
		case lua.LBool:
			if !bool(r) {
				return s.reject(results)
			}
		case *lua.LNilType:
			if len(results) > 1 {
				return s.reject(results)
			}
		}
	}

	data, err = json.Marshal(bridge.ToGoValue(out))
	if err != nil {
		return s.fail(errors.Wrap(err, "decode event"))
	}

	fresh := reflect.New(target.Elem().Type())
	fresh.Elem().Set(target.Elem())
	clearEncoded(fresh.Elem())
	if err := json.Unmarshal(data, fresh.Interface()); err != nil {
		return s.fail(errors.Wrap(err, "decode event"))
	}
	target.Elem().Set(fresh.Elem())
	return nil
}

// clearEncoded zeroes the fields of v that the JSON codec writes, leaving
// unexported state in place. Non-struct values are zeroed entirely.
func clearEncoded(v reflect.Value) {
	if v.Kind() != reflect.Struct {
		v.SetZero()
		return
	}
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.Tag.Get("json") == "-" {
			continue
		}
		f := v.Field(i)
		if sf.Anonymous && f.Kind() == reflect.Struct {
			clearEncoded(f)
			continue
		}
		if sf.IsExported() && f.CanSet() {
			f.SetZero()
		}
	}
}

// checkNumbers returns ErrInexactNumber for the first integer in v that a
// Lua number cannot hold.
func checkNumbers(v any, path string) error {
	switch val := v.(type) {
	case number:
		if !isExact(val) {
			return errors.Wrapf(ErrInexactNumber, "%s = %s", path, val.String())
		}
	case []any:
		for i, item := range val {
			if err := checkNumbers(item, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if err := checkNumbers(val[k], path+"."+k); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Script) fail(err error) error {
	return &ScriptError{
		Script:   s.name,
		Function: s.function,
		Err:      err,
	}
}

func (s *Script) reject(results []lua.LValue) error {
	serr := &ScriptError{
		Script:   s.name,
		Function: s.function,
		Err:      ErrRejected,
	}
	if len(results) > 1 {
		if msg, ok := results[1].(lua.LString); ok {
			serr.Message = string(msg)
		}
	}
	return serr
}

// Listener adapts s to an event listener for T.
func Listener[T event.Event](s *Script) event.AsyncListener[T] {
	return func(ctx context.Context, ev *T) error {
		return s.Apply(ctx, ev)
	}
}
