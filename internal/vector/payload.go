package vector

import (
	"encoding/json"
	"strings"
)

// ResolveCustomer picks a display-friendly customer label for a match.
// Priority: explicit reference, then category, then the payload's customer
// sub-field. Malformed payloads yield an empty label rather than failing the
// retrieval that carried them.
func ResolveCustomer(reference, category, payload string) string {
	if r := strings.TrimSpace(reference); r != "" {
		return r
	}
	if c := strings.TrimSpace(category); c != "" {
		return c
	}
	return customerFromPayload(payload)
}

func customerFromPayload(payload string) string {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return ""
	}
	var data map[string]any
	if err := json.Unmarshal([]byte(payload), &data); err != nil {
		return ""
	}
	if c, ok := data["customer"].(string); ok {
		return strings.TrimSpace(c)
	}
	return ""
}
