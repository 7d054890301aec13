package agents

import (
	"encoding/json"
	"os"
	"strings"
)

// ExtractJSON returns the first JSON object found in s, unwrapping
// markdown code fences and double-encoded strings along the way. It
// returns "" when s holds no balanced object.
func ExtractJSON(s string) string {
	s = strings.TrimSpace(s)

	// Content that arrived inside a JSON string still carries escaped
	// newlines and quotes; decode it first.
	if strings.Contains(s, `\n`) || strings.Contains(s, `\"`) {
		var decoded string
		if err := json.Unmarshal([]byte(s), &decoded); err == nil {
			s = decoded
		}
	}

	if strings.HasPrefix(s, "```") {
		return spanObject(s)
	}
	if strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") {
		return s
	}
	return balancedObject(s)
}

// spanObject cuts from the first opening brace to the last closing one,
// which tolerates fence markers around the object.
func spanObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}

// balancedObject scans prose for the first brace-balanced object.
func balancedObject(s string) string {
	start := strings.Index(s, "{")
	if start < 0 {
		return ""
	}
	depth := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

// contentText flattens a message content value, which may be a bare
// string, a single block, or a list of blocks mixing text with tool
// calls.
func contentText(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case map[string]any:
		text, _ := v["text"].(string)
		return text
	case []any:
		var parts []string
		for _, block := range v {
			if text := contentText(block); text != "" {
				parts = append(parts, text)
			}
		}
		return strings.Join(parts, "\n")
	}
	return ""
}

// messageText pulls assistant text out of a decoded event, trying the
// nested message envelope first, then top-level content and text fields.
func messageText(raw map[string]any) string {
	if msg, ok := raw["message"].(map[string]any); ok {
		if text := contentText(msg["content"]); text != "" {
			return text
		}
	}
	if text := contentText(raw["content"]); text != "" {
		return text
	}
	text, _ := raw["text"].(string)
	return text
}

// writeReplyFile stores the reply text at path for consumers that tail
// the run directory. Empty paths and replies are skipped.
func writeReplyFile(path string, r *Reply) error {
	if path == "" || r == nil {
		return nil
	}
	text := strings.TrimSpace(r.Text)
	if text == "" {
		return nil
	}
	return os.WriteFile(path, []byte(text+"\n"), 0644)
}

// readReplyFile loads a reply from a last-message file, unwrapping a
// JSON envelope when one is present.
func readReplyFile(path string) (*Reply, bool) {
	if path == "" {
		return nil, false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	body := strings.TrimSpace(string(data))
	if body == "" {
		return nil, false
	}
	var raw map[string]any
	if err := json.Unmarshal([]byte(body), &raw); err == nil {
		if text := messageText(raw); text != "" {
			return &Reply{Text: text, Raw: body}, true
		}
	}
	return &Reply{Text: body}, true
}
