package command

import (
	"sort"
	"time"

	"go.uber.org/multierr"

	"github.com/ajitpratap0/framekit/pkg/errors"
	"github.com/ajitpratap0/framekit/pkg/frame"
)

// Context is the state a pipeline runs against: the current frame, the
// variable store and the layout used for loads. It is owned by one pipeline
// run and is not safe for concurrent use.
type Context struct {
	current *frame.Frame
	vars    map[string]*frame.Frame
	layout  frame.Layout
	started time.Time

	// wrote is set when the last executed step produced output
	wrote bool
}

// NewContext returns a context whose current frame is initial, which may be
// nil. The context takes ownership of initial's reference.
func NewContext(initial *frame.Frame, layout frame.Layout) *Context {
	return &Context{
		current: initial,
		vars:    make(map[string]*frame.Frame),
		layout:  layout,
		started: time.Now(),
	}
}

// Current returns the current frame, or nil
func (c *Context) Current() *frame.Frame { return c.current }

// Layout returns the layout used when loading frames
func (c *Context) Layout() frame.Layout { return c.layout }

// Elapsed returns the time since the context was created
func (c *Context) Elapsed() time.Duration { return time.Since(c.started) }

// Wrote reports whether the most recent step wrote output
func (c *Context) Wrote() bool { return c.wrote }

// frame returns the current frame or an operation error naming op
func (c *Context) frame(op Op) (*frame.Frame, error) {
	if c.current == nil {
		return nil, errors.Newf(errors.ErrorTypeOperation, "%s: no current frame", op).
			WithDetail("command", op.String())
	}
	return c.current, nil
}

// replace makes f the current frame, taking ownership of its reference and
// releasing the previous one.
func (c *Context) replace(f *frame.Frame) error {
	prev := c.current
	c.current = f
	if prev != nil {
		return prev.Release()
	}
	return nil
}

// Var returns the frame stored under name
func (c *Context) Var(name string) (*frame.Frame, error) {
	f, ok := c.vars[name]
	if !ok {
		return nil, errors.Newf(errors.ErrorTypeOperation, "variable not found: %s", name).
			WithDetail("variable", name)
	}
	return f, nil
}

// SetVar stores f under name. The store retains f and releases the frame it
// replaces.
func (c *Context) SetVar(name string, f *frame.Frame) error {
	prev := c.vars[name]
	c.vars[name] = f.Retain()
	if prev != nil {
		return prev.Release()
	}
	return nil
}

// Vars returns the variable names in sorted order
func (c *Context) Vars() []string {
	names := make([]string, 0, len(c.vars))
	for name := range c.vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close releases the current frame and every stored variable
func (c *Context) Close() error {
	var err error
	if c.current != nil {
		err = multierr.Append(err, c.current.Release())
		c.current = nil
	}
	for name, f := range c.vars {
		err = multierr.Append(err, f.Release())
		delete(c.vars, name)
	}
	return err
}
