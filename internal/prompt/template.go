package prompt

import (
	"fmt"
	"strings"
)

// FormatTemplate substitutes {name} placeholders with values. Doubled
// braces escape literal braces.
func FormatTemplate(template string, values map[string]string) (string, error) {
	var builder strings.Builder
	builder.Grow(len(template))

	for i := 0; i < len(template); {
		switch template[i] {
		case '{':
			if i+1 < len(template) && template[i+1] == '{' {
				builder.WriteByte('{')
				i += 2
				continue
			}
			end := strings.IndexByte(template[i+1:], '}')
			if end < 0 {
				return "", fmt.Errorf("invalid template: missing '}'")
			}
			key := template[i+1 : i+1+end]
			value, ok := values[key]
			if !ok {
				return "", fmt.Errorf("missing template value for %q", key)
			}
			builder.WriteString(value)
			i += end + 2
		case '}':
			if i+1 < len(template) && template[i+1] == '}' {
				builder.WriteByte('}')
				i += 2
				continue
			}
			return "", fmt.Errorf("invalid template: unexpected '}'")
		default:
			builder.WriteByte(template[i])
			i++
		}
	}

	return builder.String(), nil
}

// ValidateStatic rejects prompt text that still carries template
// variables. Static sections are sent to the model verbatim, so a
// leftover placeholder is a packaging mistake.
func ValidateStatic(name string, text string) error {
	for i := 0; i < len(text); {
		switch text[i] {
		case '{':
			if i+1 < len(text) && text[i+1] == '{' {
				i += 2
				continue
			}
			end := strings.IndexByte(text[i+1:], '}')
			if end < 0 {
				return fmt.Errorf("%s: invalid prompt template syntax", name)
			}
			key := text[i+1 : i+1+end]
			return fmt.Errorf("%s: static prompt must not contain template variables %q", name, key)
		case '}':
			if i+1 < len(text) && text[i+1] == '}' {
				i += 2
				continue
			}
			return fmt.Errorf("%s: invalid prompt template syntax", name)
		default:
			i++
		}
	}
	return nil
}
