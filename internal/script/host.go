package script

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/Shopify/go-lua"
)

// Host wraps one embedded interpreter state behind a mutex.
type Host struct {
	mu    sync.Mutex
	state *lua.State
	out   io.Writer
}

// NewHost creates a host whose script print output is written to out.
// The interpreter itself is not created until the first call.
func NewHost(out io.Writer) *Host {
	if out == nil {
		out = io.Discard
	}
	return &Host{out: out}
}

// ensureState lazily creates the interpreter state. Caller must hold h.mu.
func (h *Host) ensureState() {
	if h.state != nil {
		return
	}
	state := lua.NewState()
	lua.OpenLibraries(state)

	// Route print into the console instead of the process stdout.
	state.Register("print", func(l *lua.State) int {
		top := l.Top()
		parts := make([]string, 0, top)
		for i := 1; i <= top; i++ {
			parts = append(parts, fmt.Sprint(l.ToValue(i)))
		}
		fmt.Fprintln(h.out, strings.Join(parts, "\t"))
		return 0
	})

	h.state = state
}

// Exec runs a chunk of statements. Calls are serialized; ctx is only
// consulted before the chunk starts, a running chunk is not interruptible.
func (h *Host) Exec(ctx context.Context, src string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	h.ensureState()

	if err := lua.DoString(h.state, src); err != nil {
		h.state.SetTop(0)
		return fmt.Errorf("exec script: %w", err)
	}
	return nil
}

// Eval evaluates an expression and returns its result rendered as a string.
// Plain statements are accepted too and yield an empty result.
func (h *Host) Eval(ctx context.Context, src string) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	h.ensureState()

	// Prefer expression form so `1 + 2` works without an explicit return.
	if err := lua.LoadString(h.state, "return "+src); err != nil {
		h.state.SetTop(0)
		if err := lua.LoadString(h.state, src); err != nil {
			h.state.SetTop(0)
			return "", fmt.Errorf("compile script: %w", err)
		}
	}

	if err := h.state.ProtectedCall(0, 1, 0); err != nil {
		h.state.SetTop(0)
		return "", fmt.Errorf("eval script: %w", err)
	}

	var result string
	if !h.state.IsNil(-1) {
		result = fmt.Sprint(h.state.ToValue(-1))
	}
	h.state.Pop(1)
	return result, nil
}

// RunFile loads and runs a script file.
func (h *Host) RunFile(ctx context.Context, path string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	h.ensureState()
	return h.runFile(path)
}

// RunFileWithGlobals publishes a string table as a global and runs the file
// under one lock acquisition, so a concurrent caller can never swap the
// global out between the set and the run.
func (h *Host) RunFileWithGlobals(ctx context.Context, path, global string, values map[string]string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	h.ensureState()
	h.setGlobal(global, values)
	return h.runFile(path)
}

// runFile loads and runs path. Caller must hold h.mu.
func (h *Host) runFile(path string) error {
	if err := lua.LoadFile(h.state, path, ""); err != nil {
		h.state.SetTop(0)
		return fmt.Errorf("load script %s: %w", path, err)
	}
	if err := h.state.ProtectedCall(0, 0, 0); err != nil {
		h.state.SetTop(0)
		return fmt.Errorf("run script %s: %w", path, err)
	}
	return nil
}

// SetGlobalTable publishes a string table as a global, used to expose the
// hook environment (checkout dir, venv dir, ...) to scripts.
func (h *Host) SetGlobalTable(name string, values map[string]string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ensureState()
	h.setGlobal(name, values)
}

// setGlobal pushes a string table and binds it to a global name. Caller must
// hold h.mu.
func (h *Host) setGlobal(name string, values map[string]string) {
	h.state.NewTable()
	for k, v := range values {
		h.state.PushString(v)
		h.state.SetField(-2, k)
	}
	h.state.SetGlobal(name)
}
