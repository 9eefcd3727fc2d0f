package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrNotCompanyArray = errors.New("JSON file must contain an array of companies")

// DecodeCompanyList parses an uploaded or default company file. Each element
// is either a bare name or an object carrying a "name" field; shape checks
// happen later, per record, so a mixed list still decodes.
func DecodeCompanyList(data []byte) ([]any, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	arr, ok := v.([]any)
	if !ok {
		return nil, ErrNotCompanyArray
	}
	return arr, nil
}

// DisplayName resolves the record's company name. Records that are neither a
// string nor an object with a "name" field report ok=false and are skipped
// by the batch runner (permissive policy, not a validation error).
func DisplayName(record any) (string, bool) {
	switch r := record.(type) {
	case string:
		return r, true
	case map[string]any:
		name, ok := r["name"]
		if !ok {
			return "", false
		}
		if s, isStr := name.(string); isStr {
			return s, true
		}
		return fmt.Sprint(name), true
	default:
		return "", false
	}
}
