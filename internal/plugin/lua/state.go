package lua

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	lua "github.com/yuin/gopher-lua"
)

// DefaultExecutionTimeout bounds a single script call when the caller's
// context has no earlier deadline.
const DefaultExecutionTimeout = 5 * time.Second

// State wraps gopher-lua with a sandbox and a mutex.
//
// gopher-lua's LState is not goroutine-safe. Every method on State takes
// the mutex, so a State may be shared by listeners running on different
// goroutines; calls are serialized.
type State struct {
	L *lua.LState

	mu sync.Mutex

	executionTimeout time.Duration
	logger           hclog.Logger

	closed bool
}

// StateOption configures a State.
type StateOption func(*State)

// WithExecutionTimeout sets the execution timeout for Lua calls.
// Zero disables the timeout.
func WithExecutionTimeout(d time.Duration) StateOption {
	return func(s *State) {
		s.executionTimeout = d
	}
}

// WithLogger routes the script's print and log calls to l.
func WithLogger(l hclog.Logger) StateOption {
	return func(s *State) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewState creates a new sandboxed Lua state.
func NewState(opts ...StateOption) (*State, error) {
	state := &State{
		executionTimeout: DefaultExecutionTimeout,
		logger:           hclog.NewNullLogger(),
	}

	for _, opt := range opts {
		opt(state)
	}

	L := lua.NewState(lua.Options{
		SkipOpenLibs: true,
	})
	state.L = L

	openSafeLibraries(L)
	installSandbox(L, state.logger)

	return state, nil
}

// DoFile executes a Lua file.
func (s *State) DoFile(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStateClosed
	}

	return s.doWithRecovery(func() error {
		return s.L.DoFile(path)
	})
}

// DoString executes a Lua string.
func (s *State) DoString(code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStateClosed
	}

	return s.doWithRecovery(func() error {
		return s.L.DoString(code)
	})
}

// doWithRecovery executes a function with panic recovery.
func (s *State) doWithRecovery(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return fn()
}

// HasFunction reports whether fn is a global Lua function.
func (s *State) HasFunction(fn string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	return s.L.GetGlobal(fn).Type() == lua.LTFunction
}

// Call calls a global Lua function. args builds the arguments with a
// Bridge bound to the state; the results are converted back with the same
// Bridge by the caller.
// The call is aborted when ctx is done or the execution timeout passes.
func (s *State) Call(ctx context.Context, fn string, args func(b *Bridge) []lua.LValue) ([]lua.LValue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStateClosed
	}

	fnVal := s.L.GetGlobal(fn)
	if fnVal == lua.LNil {
		return nil, fmt.Errorf("%w: %q", ErrFunctionNotFound, fn)
	}
	if fnVal.Type() != lua.LTFunction {
		return nil, fmt.Errorf("%q is not a function (got %s)", fn, fnVal.Type())
	}

	if s.executionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.executionTimeout)
		defer cancel()
	}
	s.L.SetContext(ctx)
	defer s.L.RemoveContext()

	var argv []lua.LValue
	if args != nil {
		argv = args(NewBridge(s.L))
	}

	// Record stack top before pushing anything
	stackTop := s.L.GetTop()

	s.L.Push(fnVal)
	for _, arg := range argv {
		s.L.Push(arg)
	}

	var callErr error
	func() {
		defer func() {
			if r := recover(); r != nil {
				callErr = fmt.Errorf("lua panic: %v", r)
			}
		}()
		callErr = s.L.PCall(len(argv), lua.MultRet, nil)
	}()

	if callErr != nil {
		s.L.SetTop(stackTop)
		return nil, callErr
	}

	// Collect return values (only the new values added after the call)
	nRet := s.L.GetTop() - stackTop
	if nRet <= 0 {
		return []lua.LValue{}, nil
	}
	results := make([]lua.LValue, nRet)
	for i := 0; i < nRet; i++ {
		results[i] = s.L.Get(stackTop + i + 1)
	}
	s.L.Pop(nRet)

	return results, nil
}

// GetGlobal returns a global variable value.
func (s *State) GetGlobal(name string) lua.LValue {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return lua.LNil
	}

	return s.L.GetGlobal(name)
}

// IsClosed returns true if the state has been closed.
func (s *State) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close releases all resources associated with the Lua state.
// After Close is called, all other methods will return ErrStateClosed.
func (s *State) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.L.Close()
	s.closed = true
	return nil
}
