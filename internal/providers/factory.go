package providers

import "fmt"

// NewEmbedder builds the embedding backend named by provider. A model in the
// provider setting overrides cfg.EmbedModel.
func NewEmbedder(provider string, cfg OllamaConfig, dim int) (Embedder, error) {
	ref := ParseProviderRef(provider)
	switch ref.Name {
	case "ollama":
		if ref.Model != "" {
			cfg.EmbedModel = ref.Model
		}
		return NewOllamaEmbedder(cfg), nil
	case "mock":
		return NewMockProvider(dim), nil
	default:
		return nil, fmt.Errorf("unsupported embed provider %q", ref.Raw)
	}
}

// NewChatModel builds the chat backend named by provider. A model in the
// provider setting overrides cfg.ChatModel.
func NewChatModel(provider string, cfg OllamaConfig, dim int) (ChatModel, error) {
	ref := ParseProviderRef(provider)
	switch ref.Name {
	case "ollama":
		if ref.Model != "" {
			cfg.ChatModel = ref.Model
		}
		return NewOllamaChat(cfg), nil
	case "mock":
		return NewMockProvider(dim), nil
	default:
		return nil, fmt.Errorf("unsupported chat provider %q", ref.Raw)
	}
}
