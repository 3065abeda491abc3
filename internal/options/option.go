// Package options implements the typed, named settings operators change at runtime.
//
// Every option keeps its parameters as text so it can be persisted and echoed back, and
// notifies subscribers when its value changes. Values that fail to parse are rejected with a
// descriptive error and the previous value stays in effect.
package options

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrArgumentCount is returned when an option receives the wrong number of parameters.
	ErrArgumentCount = errors.New("invalid number of arguments")
	// ErrInvalidValue is returned when a parameter cannot be parsed.
	ErrInvalidValue = errors.New("invalid argument")
)

// Option is a named setting with text parameters and change notification.
type Option interface {
	Name() string
	// Parameters returns the text form of the current value.
	Parameters() []string
	// SetParameters parses and applies new parameters.
	SetParameters(params ...string) error
	// OnChanged subscribes fn to value changes.
	OnChanged(fn func())
}

type base struct {
	name      string
	params    []string
	listeners []func()
}

func (b *base) Name() string {
	return b.name
}

func (b *base) Parameters() []string {
	return append([]string(nil), b.params...)
}

func (b *base) OnChanged(fn func()) {
	b.listeners = append(b.listeners, fn)
}

func (b *base) changed() {
	for _, fn := range b.listeners {
		fn()
	}
}

func (b *base) errorf(kind string, err error, params []string) error {
	return fmt.Errorf("%w for %s : %s(%s)", err, kind, b.name, strings.Join(params, ", "))
}

// Boolean accepts true/false, on/off and toggle.
type Boolean struct {
	base
	value bool
}

// NewBoolean creates a boolean option.
func NewBoolean(name string, defaultValue bool) *Boolean {
	return &Boolean{
		base:  base{name: name, params: []string{strconv.FormatBool(defaultValue)}},
		value: defaultValue,
	}
}

// Value returns the current value.
func (b *Boolean) Value() bool {
	return b.value
}

// Set assigns v, notifying subscribers if it differs.
func (b *Boolean) Set(v bool) {
	if v == b.value {
		return
	}
	b.value = v
	b.params = []string{strconv.FormatBool(v)}
	b.changed()
}

func (b *Boolean) SetParameters(params ...string) error {
	if len(params) != 1 {
		return b.errorf("boolean", ErrArgumentCount, params)
	}
	switch strings.ToLower(params[0]) {
	case "true", "on":
		b.Set(true)
	case "false", "off":
		b.Set(false)
	case "toggle":
		b.Set(!b.value)
	default:
		return b.errorf("boolean", ErrInvalidValue, params)
	}
	return nil
}

// Integer holds a whole number.
type Integer struct {
	base
	value int
}

// NewInteger creates an integer option.
func NewInteger(name string, defaultValue int) *Integer {
	return &Integer{
		base:  base{name: name, params: []string{strconv.Itoa(defaultValue)}},
		value: defaultValue,
	}
}

func (i *Integer) Value() int {
	return i.value
}

// Set assigns v, notifying subscribers if it differs.
func (i *Integer) Set(v int) {
	if v == i.value {
		return
	}
	i.value = v
	i.params = []string{strconv.Itoa(v)}
	i.changed()
}

func (i *Integer) SetParameters(params ...string) error {
	if len(params) != 1 {
		return i.errorf("integer", ErrArgumentCount, params)
	}
	v, err := strconv.Atoi(params[0])
	if err != nil {
		return i.errorf("integer", ErrInvalidValue, params)
	}
	i.Set(v)
	return nil
}

// Numeric holds a floating point number.
type Numeric struct {
	base
	value float64
}

// NewNumeric creates a numeric option.
func NewNumeric(name string, defaultValue float64) *Numeric {
	return &Numeric{
		base:  base{name: name, params: []string{formatFloat(defaultValue)}},
		value: defaultValue,
	}
}

func (n *Numeric) Value() float64 {
	return n.value
}

// Set assigns v, notifying subscribers if it differs.
func (n *Numeric) Set(v float64) {
	if v == n.value {
		return
	}
	n.value = v
	n.params = []string{formatFloat(v)}
	n.changed()
}

func (n *Numeric) SetParameters(params ...string) error {
	if len(params) != 1 {
		return n.errorf("numeric", ErrArgumentCount, params)
	}
	v, err := parseFinite(params[0])
	if err != nil {
		return n.errorf("numeric", ErrInvalidValue, params)
	}
	n.Set(v)
	return nil
}

// HandlerFunc applies the parameters of a Custom option. It must not change any state
// unless every parameter is valid.
type HandlerFunc func(params ...string) error

// Custom delegates parsing of any number of parameters to its handler.
type Custom struct {
	base
	handler HandlerFunc
}

// NewCustom creates a custom option. The defaults are recorded as the current parameters;
// the owner is expected to start in the matching state.
func NewCustom(name string, handler HandlerFunc, defaults ...string) *Custom {
	return &Custom{
		base:    base{name: name, params: append([]string(nil), defaults...)},
		handler: handler,
	}
}

func (c *Custom) SetParameters(params ...string) error {
	if err := c.handler(params...); err != nil {
		return fmt.Errorf("%s(%s): %w", c.name, strings.Join(params, ", "), err)
	}
	c.params = append([]string(nil), params...)
	c.changed()
	return nil
}

// ParseFloats parses exactly n numeric parameters.
func ParseFloats(n int, params ...string) ([]float64, error) {
	if len(params) != n {
		return nil, fmt.Errorf("%w: want %d, got %d", ErrArgumentCount, n, len(params))
	}
	out := make([]float64, n)
	for i, p := range params {
		v, err := parseFinite(p)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidValue, p)
		}
		out[i] = v
	}
	return out, nil
}

// parseFinite rejects NaN and infinities along with malformed numbers.
func parseFinite(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("not a finite number: %s", s)
	}
	return v, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
