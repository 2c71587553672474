package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ValueKind is the closed set of property value kinds.
type ValueKind string

const (
	KindString ValueKind = "string"
	KindNumber ValueKind = "number"
	KindBool   ValueKind = "boolean"
)

// ErrInvalidValue is returned when a property value is not a string, number or boolean.
var ErrInvalidValue = errors.New("invalid property value")

// Value is a property value: a string, a number or a boolean.
// The zero Value is invalid and is rejected at mutation time.
type Value struct {
	kind ValueKind
	str  string
	num  float64
	b    bool
}

func String(s string) Value  { return Value{kind: KindString, str: s} }
func Number(n float64) Value { return Value{kind: KindNumber, num: n} }
func Bool(b bool) Value      { return Value{kind: KindBool, b: b} }

func (v Value) Kind() ValueKind { return v.kind }

// Valid reports whether v holds one of the allowed kinds.
func (v Value) Valid() bool {
	switch v.kind {
	case KindString, KindNumber, KindBool:
		return true
	}
	return false
}

func (v Value) Str() (string, bool)    { return v.str, v.kind == KindString }
func (v Value) Float() (float64, bool) { return v.num, v.kind == KindNumber }
func (v Value) Boolean() (bool, bool)  { return v.b, v.kind == KindBool }
func (v Value) Equal(other Value) bool { return v == other }
func (v Value) IsZero() bool           { return v.kind == "" }

// Interface returns the underlying Go value, or nil for the zero Value.
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.num
	case KindBool:
		return v.b
	}
	return nil
}

func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	}
	return "<invalid>"
}

// ValueOf converts a decoded JSON/YAML scalar into a Value.
func ValueOf(x any) (Value, error) {
	switch t := x.(type) {
	case string:
		return String(t), nil
	case bool:
		return Bool(t), nil
	case float64:
		return Number(t), nil
	case float32:
		return Number(float64(t)), nil
	case int:
		return Number(float64(t)), nil
	case int64:
		return Number(float64(t)), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("%w: %v", ErrInvalidValue, err)
		}
		return Number(f), nil
	}
	return Value{}, fmt.Errorf("%w: unsupported kind %T", ErrInvalidValue, x)
}

func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

func (v *Value) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return fmt.Errorf("%w: null", ErrInvalidValue)
	}
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ValueOf(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func (v Value) MarshalYAML() (any, error) {
	return v.Interface(), nil
}

func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("%w: line %d: expected a scalar", ErrInvalidValue, node.Line)
	}
	switch node.Tag {
	case "!!str":
		*v = String(node.Value)
	case "!!int", "!!float":
		var f float64
		if err := node.Decode(&f); err != nil {
			return fmt.Errorf("%w: line %d: %v", ErrInvalidValue, node.Line, err)
		}
		*v = Number(f)
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return fmt.Errorf("%w: line %d: %v", ErrInvalidValue, node.Line, err)
		}
		*v = Bool(b)
	default:
		return fmt.Errorf("%w: line %d: unsupported tag %s", ErrInvalidValue, node.Line, node.Tag)
	}
	return nil
}

// CloneProperties returns a copy of props that shares nothing with it.
func CloneProperties(props map[string]Value) map[string]Value {
	if props == nil {
		return nil
	}
	out := make(map[string]Value, len(props))
	for k, v := range props {
		out[k] = v
	}
	return out
}
