package econogix

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// TaggedValueType is the discriminant of a TaggedValue.
type TaggedValueType string

const (
	TaggedValueTypeInt64   TaggedValueType = "int64"
	TaggedValueTypeFloat64 TaggedValueType = "float64"
	TaggedValueTypeBool    TaggedValueType = "bool"
	TaggedValueTypeString  TaggedValueType = "string"
)

// floatEpsilon is the tolerance used for Float64 equality and for the
// rounding grid of HashKey, so hashing stays consistent with equality.
const floatEpsilon = 1e-9

// TaggedValue is the closed value type carried by item instance properties.
// It holds exactly one payload, selected by Type, and is copied by value.
//
// Integer and float values widen to float when combined; every other
// cross-type operation fails with a TaggedValueTypeError.
type TaggedValue struct {
	Type TaggedValueType

	intValue    int64
	floatValue  float64
	boolValue   bool
	stringValue string
}

func NewInt64Value(v int64) TaggedValue {
	return TaggedValue{Type: TaggedValueTypeInt64, intValue: v}
}

func NewFloat64Value(v float64) TaggedValue {
	return TaggedValue{Type: TaggedValueTypeFloat64, floatValue: v}
}

func NewBoolValue(v bool) TaggedValue {
	return TaggedValue{Type: TaggedValueTypeBool, boolValue: v}
}

func NewStringValue(v string) TaggedValue {
	return TaggedValue{Type: TaggedValueTypeString, stringValue: v}
}

// TaggedValueTypeError reports an operation attempted on an unsupported
// discriminant or a discriminant mismatch between operands.
type TaggedValueTypeError struct {
	Op   string
	From TaggedValueType
	To   TaggedValueType
}

func (e *TaggedValueTypeError) Error() string {
	if e.To != "" {
		return fmt.Sprintf("tagged value: cannot %s %s and %s", e.Op, e.From, e.To)
	}
	return fmt.Sprintf("tagged value: cannot %s %s", e.Op, e.From)
}

func newTypeError(op string, from, to TaggedValueType) error {
	return &TaggedValueTypeError{Op: op, From: from, To: to}
}

// AsInt converts to int32. Only an Int64 value can narrow to int32.
func (v TaggedValue) AsInt() (int32, error) {
	if v.Type != TaggedValueTypeInt64 {
		return 0, newTypeError("cast to int32 from", v.Type, "")
	}
	return int32(v.intValue), nil
}

// AsLong converts to int64.
func (v TaggedValue) AsLong() (int64, error) {
	if v.Type != TaggedValueTypeInt64 {
		return 0, newTypeError("cast to int64 from", v.Type, "")
	}
	return v.intValue, nil
}

// AsFloat converts to float32, widening Int64 the same way arithmetic does.
func (v TaggedValue) AsFloat() (float32, error) {
	f, err := v.AsDouble()
	if err != nil {
		return 0, newTypeError("cast to float32 from", v.Type, "")
	}
	return float32(f), nil
}

// AsDouble converts to float64, widening Int64 the same way arithmetic does.
func (v TaggedValue) AsDouble() (float64, error) {
	switch v.Type {
	case TaggedValueTypeInt64:
		return float64(v.intValue), nil
	case TaggedValueTypeFloat64:
		return v.floatValue, nil
	default:
		return 0, newTypeError("cast to float64 from", v.Type, "")
	}
}

func (v TaggedValue) AsBool() (bool, error) {
	if v.Type != TaggedValueTypeBool {
		return false, newTypeError("cast to bool from", v.Type, "")
	}
	return v.boolValue, nil
}

func (v TaggedValue) AsString() (string, error) {
	if v.Type != TaggedValueTypeString {
		return "", newTypeError("cast to string from", v.Type, "")
	}
	return v.stringValue, nil
}

// Add combines two values. Numeric operands follow the promotion rules,
// string operands concatenate, everything else is a type error.
func (v TaggedValue) Add(other TaggedValue) (TaggedValue, error) {
	switch {
	case v.Type == TaggedValueTypeInt64 && other.Type == TaggedValueTypeInt64:
		return NewInt64Value(v.intValue + other.intValue), nil
	case v.isNumeric() && other.isNumeric():
		a, _ := v.AsDouble()
		b, _ := other.AsDouble()
		return NewFloat64Value(a + b), nil
	case v.Type == TaggedValueTypeString && other.Type == TaggedValueTypeString:
		return NewStringValue(v.stringValue + other.stringValue), nil
	default:
		return TaggedValue{}, newTypeError("add", v.Type, other.Type)
	}
}

// Subtract combines two numeric values following the promotion rules.
func (v TaggedValue) Subtract(other TaggedValue) (TaggedValue, error) {
	switch {
	case v.Type == TaggedValueTypeInt64 && other.Type == TaggedValueTypeInt64:
		return NewInt64Value(v.intValue - other.intValue), nil
	case v.isNumeric() && other.isNumeric():
		a, _ := v.AsDouble()
		b, _ := other.AsDouble()
		return NewFloat64Value(a - b), nil
	default:
		return TaggedValue{}, newTypeError("subtract", v.Type, other.Type)
	}
}

// compare returns -1, 0 or +1 for numeric operands.
func (v TaggedValue) compare(other TaggedValue) (int, error) {
	if !v.isNumeric() || !other.isNumeric() {
		return 0, newTypeError("order", v.Type, other.Type)
	}
	if v.Type == TaggedValueTypeInt64 && other.Type == TaggedValueTypeInt64 {
		switch {
		case v.intValue < other.intValue:
			return -1, nil
		case v.intValue > other.intValue:
			return 1, nil
		default:
			return 0, nil
		}
	}
	a, _ := v.AsDouble()
	b, _ := other.AsDouble()
	switch {
	case math.Abs(a-b) <= floatEpsilon:
		return 0, nil
	case a < b:
		return -1, nil
	default:
		return 1, nil
	}
}

func (v TaggedValue) Less(other TaggedValue) (bool, error) {
	c, err := v.compare(other)
	return c < 0, err
}

func (v TaggedValue) LessOrEqual(other TaggedValue) (bool, error) {
	c, err := v.compare(other)
	return c <= 0, err
}

func (v TaggedValue) Greater(other TaggedValue) (bool, error) {
	c, err := v.compare(other)
	return c > 0, err
}

func (v TaggedValue) GreaterOrEqual(other TaggedValue) (bool, error) {
	c, err := v.compare(other)
	return c >= 0, err
}

// Equals reports value equality. Float64 comparison is epsilon tolerant, and
// Int64/Float64 operands are mutually comparable through promotion. Any other
// discriminant mismatch is simply not equal.
func (v TaggedValue) Equals(other TaggedValue) bool {
	switch {
	case v.Type == TaggedValueTypeInt64 && other.Type == TaggedValueTypeInt64:
		return v.intValue == other.intValue
	case v.isNumeric() && other.isNumeric():
		a, _ := v.AsDouble()
		b, _ := other.AsDouble()
		return math.Abs(a-b) <= floatEpsilon
	case v.Type != other.Type:
		return false
	case v.Type == TaggedValueTypeBool:
		return v.boolValue == other.boolValue
	default:
		return v.stringValue == other.stringValue
	}
}

// HashKey returns a stable string key consistent with Equals, so tagged
// values can be used as map keys. Floats are snapped to the epsilon grid.
func (v TaggedValue) HashKey() string {
	switch v.Type {
	case TaggedValueTypeInt64:
		// Int64 shares the numeric key space with Float64 because the two are
		// mutually comparable.
		return numericHashKey(float64(v.intValue))
	case TaggedValueTypeFloat64:
		return numericHashKey(v.floatValue)
	case TaggedValueTypeBool:
		return "b:" + strconv.FormatBool(v.boolValue)
	default:
		return "s:" + v.stringValue
	}
}

func numericHashKey(f float64) string {
	return "n:" + strconv.FormatFloat(math.Round(f/floatEpsilon), 'g', -1, 64)
}

// String renders the payload as its literal form, the inverse of
// TryParseTaggedValue for every discriminant.
func (v TaggedValue) String() string {
	switch v.Type {
	case TaggedValueTypeInt64:
		return strconv.FormatInt(v.intValue, 10)
	case TaggedValueTypeFloat64:
		return strconv.FormatFloat(v.floatValue, 'g', -1, 64)
	case TaggedValueTypeBool:
		return strconv.FormatBool(v.boolValue)
	default:
		return v.stringValue
	}
}

// TryParseTaggedValue parses a discriminant name and a raw literal. It
// returns false, not an error, for an unknown discriminant name or an
// unparsable literal. String literals always parse.
func TryParseTaggedValue(typeName, raw string) (TaggedValue, bool) {
	switch TaggedValueType(typeName) {
	case TaggedValueTypeInt64:
		i, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return TaggedValue{}, false
		}
		return NewInt64Value(i), true
	case TaggedValueTypeFloat64:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return TaggedValue{}, false
		}
		return NewFloat64Value(f), true
	case TaggedValueTypeBool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return TaggedValue{}, false
		}
		return NewBoolValue(b), true
	case TaggedValueTypeString:
		return NewStringValue(raw), true
	default:
		return TaggedValue{}, false
	}
}

func (v TaggedValue) isNumeric() bool {
	return v.Type == TaggedValueTypeInt64 || v.Type == TaggedValueTypeFloat64
}

// taggedValueJson is the wire shape used by snapshots and catalog defaults.
type taggedValueJson struct {
	Type  TaggedValueType `json:"type"`
	Value string          `json:"value"`
}

func (v TaggedValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(&taggedValueJson{Type: v.Type, Value: v.String()})
}

func (v *TaggedValue) UnmarshalJSON(data []byte) error {
	wire := &taggedValueJson{}
	if err := json.Unmarshal(data, wire); err != nil {
		return err
	}
	parsed, ok := TryParseTaggedValue(string(wire.Type), wire.Value)
	if !ok {
		return fmt.Errorf("tagged value: cannot parse %q as %s", wire.Value, wire.Type)
	}
	*v = parsed
	return nil
}
