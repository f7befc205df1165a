// OpenAI-native Provider implementation.
//
// Information Hiding:
// - API endpoint and bearer authentication
// - Protocol variant selection per capability record
// - One interpreter instance per call; no state crosses calls

package llm

import (
	"context"
	"net/http"
	"strings"
)

const openAIDefaultBaseURL = "https://api.openai.com/v1"

// OpenAINativeProvider speaks both of OpenAI's streaming protocols: the
// chat-completions protocol for legacy models and the responses protocol
// for reasoning-era ones. The variant is fixed per call from the model's
// capability record, before the first byte is read.
type OpenAINativeProvider struct {
	credentials CredentialSource
	modelID     string
	baseURL     string
	temperature float32
	httpClient  *http.Client
}

// NewOpenAINativeProvider creates a new OpenAI provider. baseURL may be
// empty for the public endpoint; it is the one environment-driven
// override this provider honors.
func NewOpenAINativeProvider(credentials CredentialSource, model, baseURL string, temperature float32) *OpenAINativeProvider {
	return &OpenAINativeProvider{
		credentials: credentials,
		modelID:     model,
		baseURL:     strings.TrimRight(baseURL, "/"),
		temperature: temperature,
	}
}

// Name returns the provider name.
func (p *OpenAINativeProvider) Name() string {
	return "openai-native"
}

// GetModel returns the model id and capability record.
func (p *OpenAINativeProvider) GetModel() Model {
	return Model{ID: p.modelID, Info: openAINativeModelInfo(p.modelID)}
}

// CreateMessage opens a completion stream. The credential is fetched
// first so a signed-out caller fails fast, before any network traffic.
func (p *OpenAINativeProvider) CreateMessage(ctx context.Context, systemPrompt string, messages []Message, opts *CallOptions) (*Stream, error) {
	token, err := p.credentials.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	model := p.GetModel()
	switch model.Info.Protocol {
	case ProtocolResponses:
		return p.streamResponses(ctx, token, model, systemPrompt, messages, opts)
	default:
		return p.streamChat(ctx, token, model, systemPrompt, messages, opts)
	}
}

// CompletePrompt collects a single completion as plain text.
func (p *OpenAINativeProvider) CompletePrompt(ctx context.Context, prompt string) (string, error) {
	return completeViaStream(ctx, p, prompt)
}

func (p *OpenAINativeProvider) endpoint() string {
	if p.baseURL != "" {
		return p.baseURL
	}
	return openAIDefaultBaseURL
}

// Verify OpenAINativeProvider implements Provider
var _ Provider = (*OpenAINativeProvider)(nil)
