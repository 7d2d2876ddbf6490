package reasoning

import (
	"encoding/json"
	"fmt"
	"strings"
)

// renderSystem builds the system message: the task instructions plus
// the JSON output contract.
func renderSystem(sig Signature) string {
	var sb strings.Builder

	sb.WriteString(sig.Instructions)
	sb.WriteString("\n\nRespond with a JSON object containing:\n")
	for _, f := range sig.Outputs {
		sb.WriteString(fmt.Sprintf("- %q: %s\n", f.Name, f.Desc))
	}
	sb.WriteString("\nRespond ONLY with the JSON object, no additional text.")

	return sb.String()
}

// renderInputs builds the user message from the declared inputs.
// Values absent from the map are skipped; undeclared values are never
// sent.
func renderInputs(sig Signature, inputs map[string]any) string {
	var sb strings.Builder

	for _, f := range sig.Inputs {
		v, ok := inputs[f.Name]
		if !ok {
			continue
		}
		sb.WriteString(fmt.Sprintf("%s:\n%s\n\n", f.Name, formatValue(v)))
	}

	return strings.TrimSpace(sb.String())
}

// formatValue renders a prompt input. Strings pass through; everything
// else is JSON encoded.
func formatValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

// extractObject returns the first balanced JSON object in text.
// Models sometimes wrap JSON in markdown fences or lead with prose;
// scanning for the object tolerates both.
func extractObject(text string) string {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}

	return ""
}
