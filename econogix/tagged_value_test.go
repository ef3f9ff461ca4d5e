package econogix

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaggedValue_Arithmetic(t *testing.T) {
	sum, err := NewInt64Value(2).Add(NewInt64Value(3))
	require.NoError(t, err)
	assert.Equal(t, TaggedValueTypeInt64, sum.Type)
	long, err := sum.AsLong()
	require.NoError(t, err)
	assert.Equal(t, int64(5), long)

	// Integer widens to float when combined with a float.
	mixed, err := NewInt64Value(5).Add(NewFloat64Value(2.5))
	require.NoError(t, err)
	assert.Equal(t, TaggedValueTypeFloat64, mixed.Type)
	double, err := mixed.AsDouble()
	require.NoError(t, err)
	assert.InDelta(t, 7.5, double, floatEpsilon)

	diff, err := NewFloat64Value(2.5).Subtract(NewInt64Value(1))
	require.NoError(t, err)
	assert.Equal(t, TaggedValueTypeFloat64, diff.Type)

	concat, err := NewStringValue("foo").Add(NewStringValue("bar"))
	require.NoError(t, err)
	text, err := concat.AsString()
	require.NoError(t, err)
	assert.Equal(t, "foobar", text)

	_, err = NewStringValue("foo").Subtract(NewStringValue("bar"))
	assert.Error(t, err)

	_, err = NewBoolValue(true).Add(NewBoolValue(false))
	assert.Error(t, err)

	_, err = NewInt64Value(1).Add(NewStringValue("x"))
	var typeErr *TaggedValueTypeError
	require.ErrorAs(t, err, &typeErr)
	assert.Equal(t, TaggedValueTypeInt64, typeErr.From)
	assert.Equal(t, TaggedValueTypeString, typeErr.To)
}

func TestTaggedValue_Ordering(t *testing.T) {
	less, err := NewInt64Value(3).Less(NewInt64Value(4))
	require.NoError(t, err)
	assert.True(t, less)

	// Int and float are mutually comparable through promotion.
	greater, err := NewFloat64Value(4.5).Greater(NewInt64Value(4))
	require.NoError(t, err)
	assert.True(t, greater)

	ge, err := NewInt64Value(4).GreaterOrEqual(NewFloat64Value(4.0))
	require.NoError(t, err)
	assert.True(t, ge)

	_, err = NewInt64Value(5).Less(NewStringValue("text"))
	assert.Error(t, err)

	_, err = NewBoolValue(true).Less(NewBoolValue(false))
	assert.Error(t, err)
}

func TestTaggedValue_Casts(t *testing.T) {
	i32, err := NewInt64Value(7).AsInt()
	require.NoError(t, err)
	assert.Equal(t, int32(7), i32)

	f32, err := NewInt64Value(7).AsFloat()
	require.NoError(t, err)
	assert.Equal(t, float32(7), f32)

	_, err = NewFloat64Value(1.5).AsLong()
	assert.Error(t, err, "narrowing float to int must fail")

	_, err = NewStringValue("true").AsBool()
	assert.Error(t, err)

	b, err := NewBoolValue(true).AsBool()
	require.NoError(t, err)
	assert.True(t, b)

	_, err = NewInt64Value(1).AsString()
	assert.Error(t, err)
}

func TestTaggedValue_Equality(t *testing.T) {
	assert.True(t, NewInt64Value(5).Equals(NewInt64Value(5)))
	assert.False(t, NewInt64Value(5).Equals(NewInt64Value(6)))

	// Epsilon tolerant float equality, also across promotion.
	assert.True(t, NewFloat64Value(0.1+0.2).Equals(NewFloat64Value(0.3)))
	assert.True(t, NewInt64Value(5).Equals(NewFloat64Value(5.0)))
	assert.False(t, NewInt64Value(5).Equals(NewFloat64Value(5.1)))

	assert.False(t, NewInt64Value(1).Equals(NewBoolValue(true)))
	assert.False(t, NewStringValue("1").Equals(NewInt64Value(1)))

	// Hashing must be consistent with equality.
	assert.Equal(t, NewInt64Value(5).HashKey(), NewFloat64Value(5.0).HashKey())
	assert.Equal(t, NewFloat64Value(0.1+0.2).HashKey(), NewFloat64Value(0.3).HashKey())
	assert.NotEqual(t, NewStringValue("true").HashKey(), NewBoolValue(true).HashKey())
}

func TestTryParseTaggedValue(t *testing.T) {
	v, ok := TryParseTaggedValue("int64", "42")
	require.True(t, ok)
	assert.Equal(t, TaggedValueTypeInt64, v.Type)

	v, ok = TryParseTaggedValue("float64", "2.5")
	require.True(t, ok)
	assert.Equal(t, TaggedValueTypeFloat64, v.Type)

	v, ok = TryParseTaggedValue("bool", "true")
	require.True(t, ok)
	assert.Equal(t, TaggedValueTypeBool, v.Type)

	// Text always parses.
	v, ok = TryParseTaggedValue("string", "anything at all")
	require.True(t, ok)
	assert.Equal(t, TaggedValueTypeString, v.Type)

	_, ok = TryParseTaggedValue("decimal", "1")
	assert.False(t, ok, "unknown discriminant name is not an error, just a miss")

	_, ok = TryParseTaggedValue("int64", "not a number")
	assert.False(t, ok)

	_, ok = TryParseTaggedValue("bool", "yep")
	assert.False(t, ok)
}

func TestTaggedValue_JsonRoundTrip(t *testing.T) {
	values := []TaggedValue{
		NewInt64Value(-12),
		NewFloat64Value(3.25),
		NewBoolValue(true),
		NewStringValue("hello world"),
	}
	for _, value := range values {
		data, err := json.Marshal(value)
		require.NoError(t, err)

		var decoded TaggedValue
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.True(t, value.Equals(decoded), "round trip changed %s", value.String())
		assert.Equal(t, value.Type, decoded.Type)
	}

	var bad TaggedValue
	err := json.Unmarshal([]byte(`{"type":"int64","value":"abc"}`), &bad)
	assert.Error(t, err)
}
