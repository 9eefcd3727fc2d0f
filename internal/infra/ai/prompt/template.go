package prompt

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Fixed system messages sent with every completion call.
const (
	SystemAnalyst   = "You are a business analyst providing detailed company analysis."
	SystemValidator = "You are a data validation expert specializing in JSON data analysis and comparison."
)

// CompanyPlaceholder is the single substitution slot user templates may carry.
const CompanyPlaceholder = "{company_name}"

// CleanJSONSyntax prepares a user template for placeholder substitution.
// Step 1 strips // comments: a line starting with // is dropped entirely, a
// trailing comment is cut and the remainder right-trimmed. Step 2 doubles
// every literal brace so JSON examples survive substitution, then restores
// the doubled {{company_name}} back to its single-brace placeholder form.
func CleanJSONSyntax(text string) string {
	lines := strings.Split(text, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		if idx := strings.Index(line, "//"); idx >= 0 {
			if idx == 0 {
				continue
			}
			cleaned = append(cleaned, strings.TrimRight(line[:idx], " \t\r"))
			continue
		}
		cleaned = append(cleaned, line)
	}
	out := strings.Join(cleaned, "\n")
	out = strings.ReplaceAll(out, "{", "{{")
	out = strings.ReplaceAll(out, "}", "}}")
	out = strings.ReplaceAll(out, "{{company_name}}", CompanyPlaceholder)
	return out
}

// expand substitutes {name} slots from vars. Doubled braces collapse to
// literals; a stray single brace is an error, matching the str.format
// behavior downstream prompts were written against.
func expand(template string, vars map[string]string) (string, error) {
	var b strings.Builder
	for i := 0; i < len(template); i++ {
		switch template[i] {
		case '{':
			if i+1 < len(template) && template[i+1] == '{' {
				b.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexByte(template[i+1:], '}')
			if end < 0 {
				return "", fmt.Errorf("single '{' encountered in template")
			}
			name := template[i+1 : i+1+end]
			val, ok := vars[name]
			if !ok {
				return "", fmt.Errorf("unknown placeholder %q", name)
			}
			b.WriteString(val)
			i += end + 1
		case '}':
			if i+1 < len(template) && template[i+1] == '}' {
				b.WriteByte('}')
				i++
				continue
			}
			return "", fmt.Errorf("single '}' encountered in template")
		default:
			b.WriteByte(template[i])
		}
	}
	return b.String(), nil
}

// FormatCompanyPrompt builds the user message for one company. When the
// cleaned template carries the placeholder it is substituted; otherwise the
// company is appended as a trailing line so the model always receives the
// target even if the user's template omitted the slot. The fallback keeps
// the escaped template text as-is.
func FormatCompanyPrompt(template, companyName string) (string, error) {
	cleaned := CleanJSONSyntax(template)
	if strings.Contains(cleaned, CompanyPlaceholder) {
		return expand(cleaned, map[string]string{"company_name": companyName})
	}
	return fmt.Sprintf("%s\n\nCompany to analyze: %s", cleaned, companyName), nil
}

// FormatValidationPrompt substitutes the three JSON documents, each
// serialized with 2-space indentation, into the validation template's named
// slots. The template is used as-is, without comment stripping.
func FormatValidationPrompt(template string, input, expected, actual any) (string, error) {
	vars := make(map[string]string, 3)
	for name, doc := range map[string]any{
		"input_json":    input,
		"expected_json": expected,
		"actual_json":   actual,
	} {
		blob, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshal %s: %w", name, err)
		}
		vars[name] = string(blob)
	}
	return expand(template, vars)
}
