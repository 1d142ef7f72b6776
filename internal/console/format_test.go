package console

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/go-rod/rod/lib/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ysmood/gson"
)

func preview(properties ...*proto.RuntimePropertyPreview) *proto.RuntimeObjectPreview {
	return &proto.RuntimeObjectPreview{Type: "object", Properties: properties}
}

func prop(name string, value string) *proto.RuntimePropertyPreview {
	return &proto.RuntimePropertyPreview{Name: name, Type: "number", Value: value}
}

func TestFormatPrimitives(t *testing.T) {
	cases := []struct {
		name  string
		value *proto.RuntimeRemoteObject
		want  string
	}{
		{"string", &proto.RuntimeRemoteObject{Type: "string", Value: gson.New("a")}, "a"},
		{"string keeps escapes raw", &proto.RuntimeRemoteObject{Type: "string", Value: gson.New("tab\there \"q\"")}, "tab\there \"q\""},
		{"empty string", &proto.RuntimeRemoteObject{Type: "string", Value: gson.New("")}, ""},
		{"true", &proto.RuntimeRemoteObject{Type: "boolean", Value: gson.New(true)}, "true"},
		{"false", &proto.RuntimeRemoteObject{Type: "boolean", Value: gson.New(false)}, "false"},
		{"number", &proto.RuntimeRemoteObject{Type: "number", Value: gson.New(1), Description: "1"}, "1"},
		{"negative zero", &proto.RuntimeRemoteObject{Type: "number", UnserializableValue: "-0", Description: "-0"}, "-0"},
		{"NaN", &proto.RuntimeRemoteObject{Type: "number", UnserializableValue: "NaN", Description: "NaN"}, "NaN"},
		{"bigint", &proto.RuntimeRemoteObject{Type: "bigint", UnserializableValue: "10n", Description: "10n"}, "10n"},
		{"symbol", &proto.RuntimeRemoteObject{Type: "symbol", Description: "Symbol(x)"}, "Symbol(x)"},
		{"function", &proto.RuntimeRemoteObject{Type: "function", ClassName: "Function", Description: "function() { return 1}"}, "function() { return 1}"},
		{"undefined", &proto.RuntimeRemoteObject{Type: "undefined"}, "undefined"},
		{"null", &proto.RuntimeRemoteObject{Type: "object", Subtype: "null", Value: gson.New(nil)}, "null"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Format(tc.value)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFormatErrorKeepsMessageLine(t *testing.T) {
	got, err := Format(&proto.RuntimeRemoteObject{
		Type:        "object",
		Subtype:     "error",
		ClassName:   "Error",
		Description: "Error: boom\n    at f",
	})
	require.NoError(t, err)
	assert.Equal(t, "Error: boom", got)
}

func TestFormatRegExp(t *testing.T) {
	got, err := Format(&proto.RuntimeRemoteObject{
		Type:        "object",
		Subtype:     "regexp",
		ClassName:   "RegExp",
		Description: "/a+b/gi",
		Preview:     preview(prop("lastIndex", "0")),
	})
	require.NoError(t, err)
	assert.Equal(t, "/a+b/gi", got)
}

func TestFormatArray(t *testing.T) {
	got, err := Format(&proto.RuntimeRemoteObject{
		Type:      "object",
		Subtype:   "array",
		ClassName: "Array",
		Preview:   preview(prop("0", "1"), prop("1", "2")),
	})
	require.NoError(t, err)
	assert.Equal(t, "[1, 2]", got)
}

func TestFormatArrayOrdersIndicesNumerically(t *testing.T) {
	got, err := Format(&proto.RuntimeRemoteObject{
		Type:      "object",
		ClassName: "Array",
		Preview:   preview(prop("10", "c"), prop("2", "b"), prop("0", "a")),
	})
	require.NoError(t, err)
	assert.Equal(t, "[a, b, c]", got)
}

func TestFormatArrayWithNamedProperties(t *testing.T) {
	got, err := Format(&proto.RuntimeRemoteObject{
		Type:      "object",
		ClassName: "Array",
		Preview:   preview(prop("0", "1"), prop("y", "2"), prop("1", "Number"), prop("x", "x1")),
	})
	require.NoError(t, err)
	assert.Equal(t, "[1, Number, x: x1, y: 2]", got)
}

func TestFormatEmptyArray(t *testing.T) {
	got, err := Format(&proto.RuntimeRemoteObject{Type: "object", ClassName: "Array", Preview: preview()})
	require.NoError(t, err)
	assert.Equal(t, "[]", got)
}

func TestFormatPlainObjectSortsByName(t *testing.T) {
	got, err := Format(&proto.RuntimeRemoteObject{
		Type:      "object",
		ClassName: "Object",
		Preview:   preview(prop("b", "2"), prop("a", "1")),
	})
	require.NoError(t, err)
	assert.Equal(t, "{a: 1, b: 2}", got)
}

func TestFormatPlainObjectNameOrderBeatsPairOrder(t *testing.T) {
	got, err := Format(&proto.RuntimeRemoteObject{
		Type:      "object",
		ClassName: "Object",
		Preview:   preview(prop("a-b", "2"), prop("a", "1")),
	})
	require.NoError(t, err)
	assert.Equal(t, "{a: 1, a-b: 2}", got)
}

func TestFormatBoxedPrimitives(t *testing.T) {
	for className, value := range map[string]string{"Number": "1", "String": "abc", "Boolean": "false"} {
		got, err := Format(&proto.RuntimeRemoteObject{
			Type:      "object",
			ClassName: className,
			Preview:   preview(&proto.RuntimePropertyPreview{Name: "[[PrimitiveValue]]", Value: value}),
		})
		require.NoError(t, err, className)
		assert.Equal(t, value, got, className)
	}
}

func TestFormatArgsJoinsWithSpaces(t *testing.T) {
	args := []*proto.RuntimeRemoteObject{
		{Type: "string", Value: gson.New("x")},
		{Type: "number", Description: "3"},
		{Type: "object", ClassName: "Object", Preview: preview(prop("k", "v"))},
	}
	got, err := FormatArgs(args)
	require.NoError(t, err)
	assert.Equal(t, "x 3 {k: v}", got)

	empty, err := FormatArgs(nil)
	require.NoError(t, err)
	assert.Equal(t, "", empty)
}

func TestFormatDecodesWireDescriptors(t *testing.T) {
	raw := `[
		{"type":"string","value":"a"},
		{"type":"boolean","value":true},
		{"type":"object","subtype":"array","className":"Array","description":"Array(2)","objectId":"1",
		 "preview":{"type":"object","subtype":"array","description":"Array(2)","overflow":false,
		  "properties":[{"name":"0","type":"number","value":"1"},{"name":"1","type":"number","value":"2"}]}}
	]`
	var args []*proto.RuntimeRemoteObject
	require.NoError(t, json.Unmarshal([]byte(raw), &args))

	got, err := FormatArgs(args)
	require.NoError(t, err)
	assert.Equal(t, "a true [1, 2]", got)
}

func TestFormatRejectsUnrecognizedShapes(t *testing.T) {
	cases := map[string]*proto.RuntimeRemoteObject{
		"nil":                    nil,
		"unknown type":           {Type: "accessor"},
		"string without value":   {Type: "string"},
		"number without text":    {Type: "number"},
		"object without preview": {Type: "object", ClassName: "Map"},
		"array without preview":  {Type: "object", ClassName: "Array"},
		"error without text":     {Type: "object", Subtype: "error"},
		"empty boxed primitive":  {Type: "object", ClassName: "Number", Preview: preview()},
	}
	for name, value := range cases {
		_, err := Format(value)
		assert.True(t, errors.Is(err, ErrUnrecognizedValue), "%s: got %v", name, err)
	}
}

func TestFormatArgsReportsArgumentIndex(t *testing.T) {
	_, err := FormatArgs([]*proto.RuntimeRemoteObject{
		{Type: "undefined"},
		{Type: "mystery"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnrecognizedValue)
	assert.Contains(t, err.Error(), "argument 1")
	assert.Contains(t, err.Error(), "mystery")
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "TypeError: x", FirstLine("TypeError: x\n    at <anonymous>:1:1"))
	assert.Equal(t, "single", FirstLine("single"))
}
