// internal/review/json_scan.go
package review

// extractJSONObjects scans free text for top-level JSON object candidates.
// Model replies often wrap the verdict in commentary or markdown fences,
// so the parser cannot assume the body is pure JSON.
//
// Byte-level state machine: tracks brace depth and skips over string
// literals (including escapes). Iterating bytes is safe for the ASCII
// delimiters involved because UTF-8 never embeds ASCII bytes inside a
// multi-byte sequence.
func extractJSONObjects(s string) []string {
	var candidates []string
	var depth int
	start := -1
	var inString, escape bool

	for i := 0; i < len(s); i++ {
		b := s[i]

		if escape {
			escape = false
			continue
		}

		if inString {
			if b == '\\' {
				escape = true
			} else if b == '"' {
				inString = false
			}
			continue
		}

		if b == '"' {
			inString = true
			continue
		}

		if b == '{' {
			if depth == 0 {
				start = i
			}
			depth++
		} else if b == '}' {
			if depth > 0 {
				depth--
				if depth == 0 && start != -1 {
					candidates = append(candidates, s[start:i+1])
					start = -1
				}
			}
		}
	}

	return candidates
}
