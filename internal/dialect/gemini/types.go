// Package gemini implements the Google Gemini v1beta generateContent
// dialect adapter.
package gemini

// WireRequest mirrors the public v1beta generateContent request body.
type WireRequest struct {
	Contents          []WireContent      `json:"contents"`
	SystemInstruction *WireContent       `json:"systemInstruction,omitempty"`
	GenerationConfig  *WireGenConfig     `json:"generationConfig,omitempty"`
	Tools             []WireTool         `json:"tools,omitempty"`
}

type WireContent struct {
	Role  string     `json:"role,omitempty"`
	Parts []WirePart `json:"parts"`
}

type WirePart struct {
	Text             string              `json:"text,omitempty"`
	Thought          bool                `json:"thought,omitempty"`
	ThoughtSignature string              `json:"thoughtSignature,omitempty"`
	FunctionCall     *WireFunctionCall   `json:"functionCall,omitempty"`
	FunctionResponse *WireFunctionResp   `json:"functionResponse,omitempty"`
	InlineData       *WireInlineData     `json:"inlineData,omitempty"`
}

type WireFunctionCall struct {
	Name string `json:"name"`
	Args map[string]any `json:"args"`
	ID   string `json:"id,omitempty"`
}

type WireFunctionResp struct {
	Name     string              `json:"name"`
	Response WireFunctionRespInner `json:"response"`
	ID       string              `json:"id,omitempty"`
}

type WireFunctionRespInner struct {
	Result string `json:"result"`
}

type WireInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type WireGenConfig struct {
	MaxOutputTokens int             `json:"maxOutputTokens,omitempty"`
	Temperature     *float64        `json:"temperature,omitempty"`
	TopP            *float64        `json:"topP,omitempty"`
	ThinkingConfig  *WireThinkingCfg `json:"thinkingConfig,omitempty"`
}

type WireThinkingCfg struct {
	IncludeThoughts bool `json:"includeThoughts,omitempty"`
	ThinkingBudget  int  `json:"thinkingBudget,omitempty"`
}

type WireTool struct {
	GoogleSearch         *WireGoogleSearch          `json:"googleSearch,omitempty"`
	FunctionDeclarations []WireFunctionDeclaration  `json:"functionDeclarations,omitempty"`
}

type WireGoogleSearch struct{}

type WireFunctionDeclaration struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// WireResponse mirrors the non-streaming generateContent response.
type WireResponse struct {
	Candidates    []WireCandidate `json:"candidates"`
	UsageMetadata WireUsage       `json:"usageMetadata"`
	ModelVersion  string          `json:"modelVersion,omitempty"`
}

type WireCandidate struct {
	Content      WireContent `json:"content"`
	FinishReason string      `json:"finishReason"`
	Index        int         `json:"index"`
}

type WireUsage struct {
	PromptTokenCount        int `json:"promptTokenCount"`
	CandidatesTokenCount    int `json:"candidatesTokenCount"`
	TotalTokenCount         int `json:"totalTokenCount"`
	CachedContentTokenCount int `json:"cachedContentTokenCount,omitempty"`
}

const defaultThinkingBudget = 10000
