package providers

import "strings"

// ProviderRef is one parsed entry of the provider list. Name selects the
// client implementation; KeyAlias selects an alternate credential
// (RFPGEN_<PROVIDER>_KEY_<ALIAS>) so two entries can share a protocol with
// different accounts.
type ProviderRef struct {
	Raw      string
	Name     string
	KeyAlias string
}

// ParseProviderList splits a pipe-separated provider spec such as
// "openai|anthropic|deepseek" or "openai:team2". Blank entries are dropped;
// an entirely empty list falls back to the mock provider so a keyless
// environment still runs.
func ParseProviderList(raw string) []ProviderRef {
	parts := strings.Split(raw, "|")
	refs := make([]ProviderRef, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		ref := ProviderRef{Raw: part, Name: part}
		if name, alias, ok := strings.Cut(part, ":"); ok {
			ref.Name = strings.TrimSpace(name)
			ref.KeyAlias = strings.TrimSpace(alias)
		}
		refs = append(refs, ref)
	}
	if len(refs) == 0 {
		refs = append(refs, ProviderRef{Raw: "mock", Name: "mock"})
	}
	return refs
}
