package handler

import (
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"strings"
)

// Chain errors.
var (
	ErrEmptyChain        = errors.New("chain has no steps")
	ErrMalformedChain    = errors.New("malformed chain")
	ErrMissingCapability = errors.New("missing capability")
	ErrMissingAttribute  = errors.New("missing context attribute")
)

// Step is a single unit of request processing. Serve must do exactly one of:
//   - return c.Next() to pass control to the next step,
//   - return a non-nil Response to terminate the chain,
//   - return an error to abort the request.
//
// Steps may modify the Context before continuing. The last step of a chain
// must always produce a Response.
type Step interface {
	Serve(c *Context) (*Response, error)
}

// StepFunc adapts an ordinary function to the Step interface.
type StepFunc func(c *Context) (*Response, error)

// Serve calls f(c).
func (f StepFunc) Serve(c *Context) (*Response, error) {
	return f(c)
}

// Capability is something a step establishes in the Context that later steps
// depend on.
type Capability string

// Built-in capabilities.
const (
	CapIdentity Capability = "identity"
	CapBody     Capability = "body"
)

// Provider is implemented by steps that establish capabilities.
type Provider interface {
	Provides() []Capability
}

// Requirer is implemented by steps that depend on capabilities established by
// earlier steps.
type Requirer interface {
	Requires() []Capability
}

// Chain is a validated, ordered sequence of steps. A Chain is itself a Step,
// so chains can be nested; a nested chain that runs out of steps continues
// the outer chain.
type Chain struct {
	steps    []Step
	provides []Capability
}

var (
	_ Step     = (*Chain)(nil)
	_ Provider = (*Chain)(nil)
)

// NewChain validates steps and returns a new Chain. The chain must not be
// empty, and every capability required by a step must be provided by a step
// strictly before it.
func NewChain(steps ...Step) (*Chain, error) {
	if len(steps) == 0 {
		return nil, ErrEmptyChain
	}

	ch := &Chain{steps: steps}
	provided := map[Capability]struct{}{}
	for i, step := range steps {
		if isNilStep(step) {
			return nil, fmt.Errorf("nil step at position %d", i)
		}
		if r, ok := step.(Requirer); ok {
			for _, cp := range r.Requires() {
				if _, ok := provided[cp]; !ok {
					return nil, fmt.Errorf(
						"%w: step %d (%s) requires %q, which no earlier step provides",
						ErrMissingCapability, i, StepName(step), cp)
				}
			}
		}
		if p, ok := step.(Provider); ok {
			for _, cp := range p.Provides() {
				provided[cp] = struct{}{}
				ch.provides = appendUnique(ch.provides, cp)
			}
		}
	}

	return ch, nil
}

// Len returns the number of steps in the chain.
func (ch *Chain) Len() int {
	return len(ch.steps)
}

// Steps returns a copy of the chain's steps.
func (ch *Chain) Steps() []Step {
	return append([]Step(nil), ch.steps...)
}

// Provides implements the Provider interface.
func (ch *Chain) Provides() []Capability {
	return ch.provides
}

// Run executes the chain's steps in order, and returns the response produced
// by the first step that terminates the chain. If the last step continues
// instead of responding, the chain is malformed. Step errors, including
// *types.Error client errors, are returned as is and left to the caller to
// convert into a response.
func (ch *Chain) Run(c *Context) (*Response, error) {
	resp, continued, err := ch.run(c)
	if err != nil {
		return nil, err
	}
	if continued {
		return nil, c.malformed("terminal step %s continued the chain",
			StepName(ch.steps[len(ch.steps)-1]))
	}

	return resp, nil
}

// Serve runs the chain as a step of an enclosing chain.
func (ch *Chain) Serve(c *Context) (*Response, error) {
	resp, continued, err := ch.run(c)
	if err != nil || !continued {
		return resp, err
	}
	// Hand a fresh token to the enclosing chain.
	c.continued = false

	return c.Next()
}

func (ch *Chain) run(c *Context) (resp *Response, continued bool, err error) {
	for _, step := range ch.steps {
		c.continued = false
		resp, err = step.Serve(c)
		next := c.continued

		switch {
		case err != nil:
			return nil, false, err
		case resp != nil && next:
			// First outcome wins: the step already handed over control.
			_ = c.malformed("step %s produced a response after continuing", StepName(step))
			continue
		case resp != nil:
			return resp, false, nil
		case !next:
			return nil, false, c.malformed(
				"step %s neither continued nor produced a response", StepName(step))
		}
	}

	return nil, true, nil
}

// StepName returns a human readable name of the step, used in logs and
// diagnostics.
func StepName(step Step) string {
	if n, ok := step.(interface{ Name() string }); ok {
		return n.Name()
	}
	if f, ok := step.(StepFunc); ok {
		name := runtime.FuncForPC(reflect.ValueOf(f).Pointer()).Name()
		if i := strings.LastIndex(name, "/"); i >= 0 {
			name = name[i+1:]
		}
		return strings.TrimSuffix(name, "-fm")
	}
	return fmt.Sprintf("%T", step)
}

func isNilStep(step Step) bool {
	if step == nil {
		return true
	}
	v := reflect.ValueOf(step)
	switch v.Kind() {
	case reflect.Ptr, reflect.Func, reflect.Map, reflect.Slice, reflect.Interface:
		return v.IsNil()
	default:
		return false
	}
}

func appendUnique(caps []Capability, cp Capability) []Capability {
	for _, c := range caps {
		if c == cp {
			return caps
		}
	}
	return append(caps, cp)
}
