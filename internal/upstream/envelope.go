// Package upstream implements the request transformer (C4) and the
// upstream client (C7): OAuth2 token refresh, the rotating endpoint pool,
// the sliding-window rate limiter, and SSE dispatch against the private
// Google Antigravity v1internal protocol.
package upstream

import "encoding/json"

// Envelope is the upstream v1internal request body (spec.md §3).
type Envelope struct {
	Project     string  `json:"project,omitempty"`
	RequestID   string  `json:"requestId"`
	UserAgent   string  `json:"userAgent"`
	RequestType string  `json:"requestType"`
	Model       string  `json:"model"`
	Request     Payload `json:"request"`
}

// Payload is the envelope's nested `request` object.
type Payload struct {
	Contents          []Content          `json:"contents"`
	ToolConfig        *ToolConfig        `json:"toolConfig,omitempty"`
	SessionID         string             `json:"sessionId"`
	SystemInstruction *SystemInstruction `json:"systemInstruction,omitempty"`
	GenerationConfig  *GenerationConfig  `json:"generationConfig,omitempty"`
	Tools             []Tool             `json:"tools,omitempty"`
}

// SystemInstruction carries the (always identity-patched) system prompt.
type SystemInstruction struct {
	Parts []Part `json:"parts"`
}

// Content is one upstream `contents[i]` entry.
type Content struct {
	Role  string `json:"role"`
	Parts []Part `json:"parts"`
}

// Part is the upstream part union: text, functionCall, functionResponse, or
// inlineData, plus the thinking-carrying `thought`/`thoughtSignature` pair.
type Part struct {
	Text             string            `json:"text,omitempty"`
	Thought          bool              `json:"thought,omitempty"`
	ThoughtSignature string            `json:"thoughtSignature,omitempty"`
	FunctionCall     *FunctionCall     `json:"functionCall,omitempty"`
	FunctionResponse *FunctionResponse `json:"functionResponse,omitempty"`
	InlineData       *InlineData       `json:"inlineData,omitempty"`
}

// FunctionCall is the upstream `functionCall` part payload.
type FunctionCall struct {
	Name string          `json:"name"`
	Args json.RawMessage `json:"args"`
	ID   string          `json:"id,omitempty"`
}

// FunctionResponse is the upstream `functionResponse` part payload.
type FunctionResponse struct {
	Name     string                    `json:"name"`
	Response FunctionResponseInnerBody `json:"response"`
	ID       string                    `json:"id,omitempty"`
}

// FunctionResponseInnerBody wraps the tool result text.
type FunctionResponseInnerBody struct {
	Result string `json:"result"`
}

// InlineData is the upstream `inlineData` part payload (images).
type InlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

// GenerationConfig is the upstream `generationConfig` object.
type GenerationConfig struct {
	MaxOutputTokens int             `json:"maxOutputTokens"`
	StopSequences   []string        `json:"stopSequences"`
	Temperature     *float64        `json:"temperature,omitempty"`
	TopP            *float64        `json:"topP,omitempty"`
	ThinkingConfig  *ThinkingConfig `json:"thinkingConfig,omitempty"`
}

// ThinkingConfig is the upstream `thinkingConfig` object.
type ThinkingConfig struct {
	IncludeThoughts bool `json:"includeThoughts"`
	ThinkingBudget  int  `json:"thinkingBudget,omitempty"`
}

// ToolConfig is the upstream `toolConfig` object.
type ToolConfig struct {
	FunctionCallingConfig FunctionCallingConfig `json:"functionCallingConfig"`
}

// FunctionCallingConfig always requests VALIDATED mode (spec.md §4.4).
type FunctionCallingConfig struct {
	Mode string `json:"mode"`
}

// Tool is one upstream `tools[]` entry: either a googleSearch tool or a
// group of function declarations.
type Tool struct {
	GoogleSearch        *GoogleSearch        `json:"googleSearch,omitempty"`
	FunctionDeclarations []FunctionDeclaration `json:"functionDeclarations,omitempty"`
}

// GoogleSearch is the flattened shape used whenever a canonical tool named
// web_search is present.
type GoogleSearch struct {
	EnhancedContent GoogleSearchEnhancedContent `json:"enhancedContent"`
}

type GoogleSearchEnhancedContent struct {
	ImageSearch GoogleSearchImageSearch `json:"imageSearch"`
}

type GoogleSearchImageSearch struct {
	MaxResultCount int `json:"maxResultCount"`
}

// FunctionDeclaration is one upstream tool declaration.
type FunctionDeclaration struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters"`
}
