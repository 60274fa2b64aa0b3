// Package template provides {{variable}} substitution for message content
// and node parameters.
package template

import (
	"strconv"
	"strings"
)

// Render substitutes every {{name}} placeholder with the value from vars.
// Non-placeholder text passes through byte for byte; an absent key
// substitutes the empty string. Whitespace inside the braces is tolerated:
// {{ name }} and {{name}} are equivalent.
func Render(input string, vars map[string]any) string {
	if !strings.Contains(input, "{{") {
		return input
	}

	var out strings.Builder

	out.Grow(len(input))

	for {
		open := strings.Index(input, "{{")
		if open < 0 {
			out.WriteString(input)
			break
		}

		close := strings.Index(input[open:], "}}")
		if close < 0 {
			out.WriteString(input)
			break
		}

		close += open

		out.WriteString(input[:open])

		name := strings.TrimSpace(input[open+2 : close])
		if value, ok := lookup(vars, name); ok {
			out.WriteString(Stringify(value))
		}

		input = input[close+2:]
	}

	return out.String()
}

func lookup(vars map[string]any, name string) (any, bool) {
	if vars == nil || name == "" {
		return nil, false
	}

	value, ok := vars[name]

	return value, ok
}

// Stringify renders a variable value the way it should appear in message
// text: strings unchanged, numbers without a float artifact, everything
// else via strconv-ish formatting.
func Stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}

		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return Stringify(float64(v))
	default:
		return ""
	}
}
