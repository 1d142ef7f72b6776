// Package console renders devtools remote values the way fixture files
// record console output.
package console

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/go-rod/rod/lib/proto"
)

// ErrUnrecognizedValue indicates a descriptor shape the renderer has no rule for.
var ErrUnrecognizedValue = errors.New("unrecognized remote value")

// Type, subtype and class names as reported on the wire.
const (
	typeString    = "string"
	typeBoolean   = "boolean"
	typeNumber    = "number"
	typeBigint    = "bigint"
	typeSymbol    = "symbol"
	typeFunction  = "function"
	typeUndefined = "undefined"
	typeObject    = "object"

	subtypeNull  = "null"
	subtypeError = "error"

	classRegExp = "RegExp"
	classArray  = "Array"
)

var boxedClasses = map[string]bool{
	"Boolean": true,
	"String":  true,
	"Number":  true,
}

// FormatArgs renders the arguments of one console call as a single line.
func FormatArgs(args []*proto.RuntimeRemoteObject) (string, error) {
	parts := make([]string, 0, len(args))
	for index, arg := range args {
		text, err := Format(arg)
		if err != nil {
			return "", fmt.Errorf("argument %d: %w", index, err)
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, " "), nil
}

// Format renders one remote value.
func Format(value *proto.RuntimeRemoteObject) (string, error) {
	if value == nil {
		return "", fmt.Errorf("%w: nil descriptor", ErrUnrecognizedValue)
	}

	switch string(value.Type) {
	case typeString:
		text, ok := value.Value.Val().(string)
		if !ok {
			return "", unrecognized("string without value", value)
		}
		return text, nil
	case typeBoolean:
		flag, ok := value.Value.Val().(bool)
		if !ok {
			return "", unrecognized("boolean without value", value)
		}
		return strconv.FormatBool(flag), nil
	case typeNumber, typeBigint, typeSymbol, typeFunction:
		if value.Description == "" {
			return "", unrecognized(string(value.Type)+" without description", value)
		}
		return value.Description, nil
	case typeUndefined:
		return "undefined", nil
	case typeObject:
		return formatObject(value)
	default:
		return "", unrecognized("unknown type", value)
	}
}

func formatObject(value *proto.RuntimeRemoteObject) (string, error) {
	switch string(value.Subtype) {
	case subtypeNull:
		return "null", nil
	case subtypeError:
		if value.Description == "" {
			return "", unrecognized("error without description", value)
		}
		return FirstLine(value.Description), nil
	}

	switch {
	case value.ClassName == classRegExp:
		if value.Description == "" {
			return "", unrecognized("regexp without description", value)
		}
		return value.Description, nil
	case value.ClassName == classArray:
		properties, err := previewProperties(value)
		if err != nil {
			return "", err
		}
		return formatArray(properties), nil
	case boxedClasses[value.ClassName]:
		properties, err := previewProperties(value)
		if err != nil {
			return "", err
		}
		if len(properties) == 0 || properties[0] == nil {
			return "", unrecognized("boxed primitive without value", value)
		}
		return properties[0].Value, nil
	default:
		properties, err := previewProperties(value)
		if err != nil {
			return "", err
		}
		return "{" + strings.Join(namedPairs(properties), ", ") + "}", nil
	}
}

// formatArray lists indexed elements in index order, then any named
// properties sorted by name, inside one pair of brackets.
func formatArray(properties []*proto.RuntimePropertyPreview) string {
	type element struct {
		index uint64
		value string
	}
	var elements []element
	var named []*proto.RuntimePropertyPreview
	for _, property := range properties {
		if property == nil {
			continue
		}
		if index, ok := arrayIndex(property.Name); ok {
			elements = append(elements, element{index: index, value: property.Value})
			continue
		}
		named = append(named, property)
	}
	sort.SliceStable(elements, func(i, j int) bool {
		return elements[i].index < elements[j].index
	})

	parts := make([]string, 0, len(properties))
	for _, element := range elements {
		parts = append(parts, element.value)
	}
	parts = append(parts, namedPairs(named)...)
	return "[" + strings.Join(parts, ", ") + "]"
}

func namedPairs(properties []*proto.RuntimePropertyPreview) []string {
	sorted := make([]*proto.RuntimePropertyPreview, 0, len(properties))
	for _, property := range properties {
		if property != nil {
			sorted = append(sorted, property)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})

	pairs := make([]string, 0, len(sorted))
	for _, property := range sorted {
		pairs = append(pairs, property.Name+": "+property.Value)
	}
	return pairs
}

func arrayIndex(name string) (uint64, bool) {
	if name == "" {
		return 0, false
	}
	for _, r := range name {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	index, err := strconv.ParseUint(name, 10, 64)
	if err != nil {
		return 0, false
	}
	return index, true
}

func previewProperties(value *proto.RuntimeRemoteObject) ([]*proto.RuntimePropertyPreview, error) {
	if value.Preview == nil {
		return nil, unrecognized(value.ClassName+" object without preview", value)
	}
	return value.Preview.Properties, nil
}

// FirstLine returns text up to the first newline: the message line of an
// error description, without its stack frames.
func FirstLine(text string) string {
	line, _, _ := strings.Cut(text, "\n")
	return line
}

func unrecognized(reason string, value *proto.RuntimeRemoteObject) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrUnrecognizedValue, reason)
	}
	return fmt.Errorf("%w: %s: %s", ErrUnrecognizedValue, reason, raw)
}
