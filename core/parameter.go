package core

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ParameterType is the set of scalar types supported for named query
// parameters.
type ParameterType string

const (
	ParameterString ParameterType = "STRING"
	ParameterInt64  ParameterType = "INT64"
)

var ErrParamsNotSupported = errors.New("driver does not support query parameters")

// Parameter is a single named query parameter. Parameters are always bound
// by name through the driver - the value never ends up in the query text.
type Parameter struct {
	Name  string
	Type  ParameterType
	Value any
}

func NewStringParameter(name, value string) Parameter {
	return Parameter{Name: name, Type: ParameterString, Value: value}
}

func NewInt64Parameter(name string, value int64) Parameter {
	return Parameter{Name: name, Type: ParameterInt64, Value: value}
}

// ParseParameter parses the "name:TYPE:value" form used on the command line.
// The value part may contain further colons.
func ParseParameter(s string) (Parameter, error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) != 3 || parts[0] == "" {
		return Parameter{}, fmt.Errorf("invalid parameter %q: expected name:TYPE:value", s)
	}

	p := Parameter{
		Name:  parts[0],
		Type:  ParameterType(strings.ToUpper(parts[1])),
		Value: parts[2],
	}
	if _, err := p.BindValue(); err != nil {
		return Parameter{}, err
	}

	return p, nil
}

// BindValue converts the raw value to the go type matching the declared
// parameter type.
func (p Parameter) BindValue() (any, error) {
	switch p.Type {
	case ParameterString:
		switch v := p.Value.(type) {
		case string:
			return v, nil
		default:
			return nil, fmt.Errorf("parameter %q: expected string value, got %T", p.Name, p.Value)
		}
	case ParameterInt64:
		switch v := p.Value.(type) {
		case int64:
			return v, nil
		case int:
			return int64(v), nil
		case string:
			i, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("parameter %q: %w", p.Name, err)
			}
			return i, nil
		default:
			return nil, fmt.Errorf("parameter %q: expected int64 value, got %T", p.Name, p.Value)
		}
	default:
		return nil, fmt.Errorf("parameter %q: unsupported type %q", p.Name, p.Type)
	}
}

var (
	placeholderRegex = regexp.MustCompile(`@([A-Za-z_][A-Za-z0-9_]*)`)
	// quoted string literals and backtick identifiers are opaque to the
	// scanner - an "@" inside them is literal text, not a placeholder.
	quotedRegionRegex = regexp.MustCompile("'(?:[^'\\\\]|\\\\.)*'|\"(?:[^\"\\\\]|\\\\.)*\"|`[^`]*`")
)

// Placeholders returns the ordered set of unique @name placeholders in a
// query template. Quoted regions are skipped.
func Placeholders(template string) []string {
	seen := make(map[string]struct{})
	var out []string

	stripped := quotedRegionRegex.ReplaceAllString(template, "")
	for _, match := range placeholderRegex.FindAllStringSubmatch(stripped, -1) {
		name := match[1]
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}

	return out
}

// ValidateParameters checks that the parameter list matches the placeholders
// of a template exactly: every placeholder has a binding, every binding has a
// placeholder and all values convert to their declared types.
func ValidateParameters(template string, params []Parameter) error {
	placeholders := Placeholders(template)

	byName := make(map[string]Parameter, len(params))
	for _, p := range params {
		if _, ok := byName[p.Name]; ok {
			return fmt.Errorf("duplicate parameter %q", p.Name)
		}
		if _, err := p.BindValue(); err != nil {
			return err
		}
		byName[p.Name] = p
	}

	for _, name := range placeholders {
		if _, ok := byName[name]; !ok {
			return fmt.Errorf("no parameter bound for placeholder @%s", name)
		}
	}

	if len(params) != len(placeholders) {
		return fmt.Errorf("parameter count mismatch: %d placeholders, %d parameters",
			len(placeholders), len(params))
	}

	return nil
}
