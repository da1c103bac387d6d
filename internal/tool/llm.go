package tool

import (
	"context"
	"fmt"
	"os"
)

// #region config
// ProviderEnv overrides the provider name reported by LLMTool.
const ProviderEnv = "AWARENESS_LLM_PROVIDER"

const defaultProvider = "stub"

// #endregion config

// #region llm-tool
// LLMTool is a stand-in language model that echoes the query back.
type LLMTool struct {
	provider string
}

// NewLLMTool creates the echo tool. An empty provider is read from
// AWARENESS_LLM_PROVIDER, falling back to "stub".
func NewLLMTool(provider string) *LLMTool {
	if provider == "" {
		provider = os.Getenv(ProviderEnv)
	}
	if provider == "" {
		provider = defaultProvider
	}
	return &LLMTool{provider: provider}
}

func (t *LLMTool) Name() string { return "llm" }

// Provider returns the configured provider name.
func (t *LLMTool) Provider() string { return t.provider }

// Call returns "[<provider> LLM reply] <content>". It fails only on a cancelled context.
func (t *LLMTool) Call(ctx context.Context, q Query) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	return Result{
		Content: fmt.Sprintf("[%s LLM reply] %s", t.provider, q.Content),
		Metadata: map[string]any{
			"provider": t.provider,
			"echo":     true,
		},
	}, nil
}

// #endregion llm-tool
