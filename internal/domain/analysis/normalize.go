package analysis

import "encoding/json"

// Normalize attempts a strict JSON parse of raw model text and returns the
// parsed value, or the text unchanged when it is not valid JSON. No fence
// stripping or repair: a non-JSON response degrades to a display string.
func Normalize(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	return v
}
