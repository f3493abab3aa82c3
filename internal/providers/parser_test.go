package providers

import "testing"

func TestParseProviderRef(t *testing.T) {
	cases := []struct {
		raw   string
		name  string
		model string
	}{
		{"ollama", "ollama", ""},
		{" Ollama:llama3.1:8b-instruct-q4_K_M ", "ollama", "llama3.1:8b-instruct-q4_K_M"},
		{"mock", "mock", ""},
		{"", "ollama", ""},
	}
	for _, tc := range cases {
		ref := ParseProviderRef(tc.raw)
		if ref.Name != tc.name || ref.Model != tc.model {
			t.Fatalf("parse %q: got %+v", tc.raw, ref)
		}
	}
}

func TestFactoryRejectsUnknownProvider(t *testing.T) {
	if _, err := NewEmbedder("groq", OllamaConfig{}, 8); err == nil {
		t.Fatalf("expected error for unknown embed provider")
	}
	if _, err := NewChatModel("openai", OllamaConfig{}, 8); err == nil {
		t.Fatalf("expected error for unknown chat provider")
	}
}

func TestFactoryModelOverride(t *testing.T) {
	e, err := NewEmbedder("ollama:bge-m3", OllamaConfig{EmbedModel: DefaultEmbedModel}, 8)
	if err != nil {
		t.Fatalf("new embedder: %v", err)
	}
	if e.Model() != "bge-m3" {
		t.Fatalf("model override: got %q", e.Model())
	}
	c, err := NewChatModel("mock", OllamaConfig{}, 8)
	if err != nil {
		t.Fatalf("new chat: %v", err)
	}
	if c.Model() != "mock-8" {
		t.Fatalf("mock model: got %q", c.Model())
	}
}
