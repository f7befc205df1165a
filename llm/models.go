// Package llm provides shared data models for LLM providers.
package llm

import "sort"

// ProtocolVariant selects which streaming wire protocol a model speaks.
type ProtocolVariant string

const (
	// ProtocolChat is the delta-based chunked completion protocol where
	// each chunk carries an incremental choices[0].delta.
	ProtocolChat ProtocolVariant = "chat"
	// ProtocolResponses is the event-stream protocol where each
	// server-sent unit is a fully typed response.* event.
	ProtocolResponses ProtocolVariant = "responses"
)

// CacheRetention is how long a provider keeps cached prompt prefixes.
type CacheRetention string

const (
	CacheRetentionInMemory CacheRetention = "in_memory"
	CacheRetention24h      CacheRetention = "24h"
)

// ModelInfo is the static capability record for one model. Records are
// looked up per call from the catalog and never mutated.
type ModelInfo struct {
	MaxTokens               int
	ContextWindow           int
	SupportsNativeTools     bool
	Protocol                ProtocolVariant
	SupportsReasoningEffort bool
	DefaultReasoningEffort  ReasoningEffort // empty when not applicable
	SupportsPromptCache     bool
	PromptCacheRetention    CacheRetention // empty when not applicable
	SupportsTemperature     bool

	// Cost in USD per million tokens, for display and accounting.
	InputPrice  float64
	OutputPrice float64
}

// Model pairs a model identifier with its capability record.
type Model struct {
	ID   string
	Info ModelInfo
}

// OpenAI model identifiers (January 2026)
const (
	// ModelOpenAIGPT52 is GPT-5.2: Latest flagship model (December 2025).
	ModelOpenAIGPT52 = "gpt-5.2"
	// ModelOpenAIGPT52Codex is GPT-5.2-Codex: Agentic coding specialist.
	ModelOpenAIGPT52Codex = "gpt-5.2-codex"
	// ModelOpenAIGPT5 is GPT-5: Previous flagship (August 2025).
	ModelOpenAIGPT5 = "gpt-5"
	// ModelOpenAIO3Mini is O3-mini: Efficient reasoning model.
	ModelOpenAIO3Mini = "o3-mini"
	// ModelOpenAIGPT4o is GPT-4o: Legacy chat-protocol model.
	ModelOpenAIGPT4o = "gpt-4o"
	// ModelOpenAIGPT4oMini is GPT-4o-mini: Legacy chat-protocol model.
	ModelOpenAIGPT4oMini = "gpt-4o-mini"
)

// Anthropic model identifiers (January 2026)
const (
	// ModelAnthropicClaudeOpus45 is Claude Opus 4.5: Latest flagship.
	ModelAnthropicClaudeOpus45 = "claude-opus-4-5-20251101"
	// ModelAnthropicClaudeSonnet4 is Claude Sonnet 4: Balanced performance.
	ModelAnthropicClaudeSonnet4 = "claude-sonnet-4-20250514"
	// ModelAnthropicClaudeHaiku4 is Claude Haiku 4: Fast and efficient.
	ModelAnthropicClaudeHaiku4 = "claude-haiku-4-20250514"
)

// Gemini model identifiers (January 2026)
const (
	// ModelGeminiPro3 is Gemini 3 Pro: Advanced reasoning, 1M context window.
	ModelGeminiPro3 = "gemini-3-pro"
	// ModelGeminiFlash3 is Gemini 3 Flash: Speed optimized.
	ModelGeminiFlash3 = "gemini-3-flash"
)

// openAINativeModels maps OpenAI model ids to capability records. New
// reasoning-era models speak the responses protocol; legacy models stay
// on chat completions.
var openAINativeModels = map[string]ModelInfo{
	ModelOpenAIGPT52: {
		MaxTokens:               128000,
		ContextWindow:           400000,
		SupportsNativeTools:     true,
		Protocol:                ProtocolResponses,
		SupportsReasoningEffort: true,
		DefaultReasoningEffort:  ReasoningMedium,
		SupportsPromptCache:     true,
		PromptCacheRetention:    CacheRetentionInMemory,
		InputPrice:              1.25,
		OutputPrice:             10,
	},
	ModelOpenAIGPT52Codex: {
		MaxTokens:               128000,
		ContextWindow:           400000,
		SupportsNativeTools:     true,
		Protocol:                ProtocolResponses,
		SupportsReasoningEffort: true,
		DefaultReasoningEffort:  ReasoningMedium,
		SupportsPromptCache:     true,
		PromptCacheRetention:    CacheRetention24h,
		InputPrice:              1.25,
		OutputPrice:             10,
	},
	ModelOpenAIGPT5: {
		MaxTokens:               128000,
		ContextWindow:           400000,
		SupportsNativeTools:     true,
		Protocol:                ProtocolResponses,
		SupportsReasoningEffort: true,
		DefaultReasoningEffort:  ReasoningMedium,
		SupportsPromptCache:     true,
		PromptCacheRetention:    CacheRetentionInMemory,
		InputPrice:              1.25,
		OutputPrice:             10,
	},
	ModelOpenAIO3Mini: {
		MaxTokens:               100000,
		ContextWindow:           200000,
		SupportsNativeTools:     true,
		Protocol:                ProtocolResponses,
		SupportsReasoningEffort: true,
		DefaultReasoningEffort:  ReasoningMedium,
		InputPrice:              1.1,
		OutputPrice:             4.4,
	},
	ModelOpenAIGPT4o: {
		MaxTokens:           16384,
		ContextWindow:       128000,
		SupportsNativeTools: true,
		Protocol:            ProtocolChat,
		SupportsTemperature: true,
		InputPrice:          2.5,
		OutputPrice:         10,
	},
	ModelOpenAIGPT4oMini: {
		MaxTokens:           16384,
		ContextWindow:       128000,
		SupportsNativeTools: true,
		Protocol:            ProtocolChat,
		SupportsTemperature: true,
		InputPrice:          0.15,
		OutputPrice:         0.6,
	},
}

var anthropicModels = map[string]ModelInfo{
	ModelAnthropicClaudeOpus45: {
		MaxTokens:            32000,
		ContextWindow:        200000,
		SupportsNativeTools:  true,
		SupportsPromptCache:  true,
		PromptCacheRetention: CacheRetentionInMemory,
		SupportsTemperature:  true,
		InputPrice:           5,
		OutputPrice:          25,
	},
	ModelAnthropicClaudeSonnet4: {
		MaxTokens:            64000,
		ContextWindow:        200000,
		SupportsNativeTools:  true,
		SupportsPromptCache:  true,
		PromptCacheRetention: CacheRetentionInMemory,
		SupportsTemperature:  true,
		InputPrice:           3,
		OutputPrice:          15,
	},
	ModelAnthropicClaudeHaiku4: {
		MaxTokens:            32000,
		ContextWindow:        200000,
		SupportsNativeTools:  true,
		SupportsPromptCache:  true,
		PromptCacheRetention: CacheRetentionInMemory,
		SupportsTemperature:  true,
		InputPrice:           1,
		OutputPrice:          5,
	},
}

var geminiModels = map[string]ModelInfo{
	ModelGeminiPro3: {
		MaxTokens:           65536,
		ContextWindow:       1048576,
		SupportsNativeTools: true,
		SupportsTemperature: true,
		InputPrice:          2,
		OutputPrice:         12,
	},
	ModelGeminiFlash3: {
		MaxTokens:           65536,
		ContextWindow:       1048576,
		SupportsNativeTools: true,
		SupportsTemperature: true,
		InputPrice:          0.3,
		OutputPrice:         2.5,
	},
}

// openAINativeModelInfo returns the capability record for an OpenAI model
// id, falling back to a conservative chat-protocol record for ids the
// catalog does not know.
func openAINativeModelInfo(id string) ModelInfo {
	if info, ok := openAINativeModels[id]; ok {
		return info
	}
	return ModelInfo{
		MaxTokens:           16384,
		ContextWindow:       128000,
		SupportsNativeTools: true,
		Protocol:            ProtocolChat,
		SupportsTemperature: true,
	}
}

func anthropicModelInfo(id string) ModelInfo {
	if info, ok := anthropicModels[id]; ok {
		return info
	}
	return anthropicModels[ModelAnthropicClaudeSonnet4]
}

func geminiModelInfo(id string) ModelInfo {
	if info, ok := geminiModels[id]; ok {
		return info
	}
	return geminiModels[ModelGeminiFlash3]
}

// KnownModels returns a provider's catalog entries sorted by id.
func KnownModels(provider ProviderType) []Model {
	var catalog map[string]ModelInfo
	switch provider {
	case ProviderOpenAINative:
		catalog = openAINativeModels
	case ProviderAnthropic:
		catalog = anthropicModels
	case ProviderGemini:
		catalog = geminiModels
	default:
		return nil
	}

	models := make([]Model, 0, len(catalog))
	for id, info := range catalog {
		models = append(models, Model{ID: id, Info: info})
	}
	sort.Slice(models, func(i, j int) bool { return models[i].ID < models[j].ID })
	return models
}
