package providers

import "strings"

// ProviderRef is a parsed provider setting such as "ollama",
// "ollama:nomic-embed-text" or "mock".
type ProviderRef struct {
	Raw   string
	Name  string
	Model string
}

func ParseProviderRef(raw string) ProviderRef {
	raw = strings.TrimSpace(raw)
	ref := ProviderRef{Raw: raw, Name: raw}
	if name, model, ok := strings.Cut(raw, ":"); ok {
		ref.Name = strings.TrimSpace(name)
		ref.Model = strings.TrimSpace(model)
	}
	ref.Name = strings.ToLower(ref.Name)
	if ref.Name == "" {
		ref.Name = "ollama"
	}
	return ref
}
