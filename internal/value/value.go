package value

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Kind tags the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "NULL"
	case KindBool:
		return "BOOL"
	case KindInt:
		return "INT"
	case KindText:
		return "TEXT"
	default:
		return "UNKNOWN"
	}
}

// Value is the tagged union stored in rows: NULL, BOOL, INT or TEXT.
// It is comparable, so it can be used directly as a map key (the index
// layer relies on this).
type Value struct {
	Kind Kind
	Bool bool
	Int  int64
	Text string
}

func Null() Value          { return Value{Kind: KindNull} }
func NewBool(b bool) Value { return Value{Kind: KindBool, Bool: b} }
func NewInt(i int64) Value { return Value{Kind: KindInt, Int: i} }
func NewText(s string) Value {
	return Value{Kind: KindText, Text: s}
}

func (v Value) IsNull() bool { return v.Kind == KindNull }

// String renders the value for display; NULL renders as the literal word.
func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return "NULL"
	case KindBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	default:
		return v.Text
	}
}

// IsIntTag reports whether a declared column type tag selects integer
// coercion. Tags are opaque strings matched by substring only, so "INT",
// "INTEGER", "BIGINT" and friends all qualify.
func IsIntTag(tag string) bool {
	return strings.Contains(strings.ToUpper(tag), "INT")
}

// CoerceToken converts a bare (unquoted) statement token to a Value using
// the destination column's type tag: NULL/TRUE/FALSE keywords first, then
// integer coercion only when the tag selects it, otherwise text.
func CoerceToken(tok, tag string) Value {
	switch strings.ToUpper(tok) {
	case "NULL":
		return Null()
	case "TRUE":
		return NewBool(true)
	case "FALSE":
		return NewBool(false)
	}
	if IsIntTag(tag) {
		if i, err := strconv.ParseInt(tok, 10, 64); err == nil {
			return NewInt(i)
		}
	}
	return NewText(tok)
}

// FromAny converts a native Go value into a Value, applying the same
// schema-driven coercion as the statement path: strings pass through
// CoerceToken against the destination tag, numbers become INT, bools BOOL.
// Unsupported types fall back to their fmt rendering as TEXT.
func FromAny(v any, tag string) Value {
	switch x := v.(type) {
	case nil:
		return Null()
	case bool:
		return NewBool(x)
	case int:
		return NewInt(int64(x))
	case int32:
		return NewInt(int64(x))
	case int64:
		return NewInt(x)
	case float64:
		return NewInt(int64(x))
	case string:
		return CoerceToken(x, tag)
	case Value:
		return x
	default:
		return NewText(fmt.Sprintf("%v", x))
	}
}

// Equal reports value equality after the one-directional INT/TEXT coercion:
// a TEXT operand is re-read as INT when compared against an INT. NULL equals
// only NULL.
func Equal(a, b Value) bool {
	a, b = align(a, b)
	return a == b
}

// Compare orders two values. ok is false when no meaningful ordering exists
// (either side NULL, or mixed variants that coercion cannot reconcile);
// callers treat that as "exclude the row" or "keep input order". Booleans
// order false before true.
func Compare(a, b Value) (int, bool) {
	a, b = align(a, b)
	if a.Kind != b.Kind {
		return 0, false
	}
	switch a.Kind {
	case KindBool:
		switch {
		case !a.Bool && b.Bool:
			return -1, true
		case a.Bool && !b.Bool:
			return 1, true
		}
		return 0, true
	case KindInt:
		switch {
		case a.Int < b.Int:
			return -1, true
		case a.Int > b.Int:
			return 1, true
		}
		return 0, true
	case KindText:
		return strings.Compare(a.Text, b.Text), true
	default:
		return 0, false
	}
}

// align applies the INT/TEXT coercion used by predicate evaluation: when one
// side is INT and the other TEXT, the text is re-read as an integer if it
// parses.
func align(a, b Value) (Value, Value) {
	if a.Kind == KindInt && b.Kind == KindText {
		if i, err := strconv.ParseInt(strings.TrimSpace(b.Text), 10, 64); err == nil {
			b = NewInt(i)
		}
	} else if a.Kind == KindText && b.Kind == KindInt {
		if i, err := strconv.ParseInt(strings.TrimSpace(a.Text), 10, 64); err == nil {
			a = NewInt(i)
		}
	}
	return a, b
}

// MarshalJSON encodes the value as native JSON: null, boolean, number or
// string, matching the snapshot layout.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindNull:
		return []byte("null"), nil
	case KindBool:
		return json.Marshal(v.Bool)
	case KindInt:
		return json.Marshal(v.Int)
	default:
		return json.Marshal(v.Text)
	}
}

// UnmarshalJSON decodes a native JSON scalar back into a tagged Value.
// Numbers load as INT (fractional input is truncated; the engine never
// writes it).
func (v *Value) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	switch {
	case s == "null":
		*v = Null()
		return nil
	case s == "true":
		*v = NewBool(true)
		return nil
	case s == "false":
		*v = NewBool(false)
		return nil
	case len(s) > 0 && s[0] == '"':
		var t string
		if err := json.Unmarshal(data, &t); err != nil {
			return err
		}
		*v = NewText(t)
		return nil
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		*v = NewInt(i)
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("value: unsupported JSON scalar %q", s)
	}
	*v = NewInt(int64(f))
	return nil
}
