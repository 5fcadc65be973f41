package api

// GenerateRequest is the body of POST /v1/generate. Sampling fields are
// pointers so absent fields fall back to the server defaults.
type GenerateRequest struct {
	Prompt            string   `json:"prompt"`
	MaxTokens         *int     `json:"max_tokens,omitempty"`
	Seed              *int64   `json:"seed,omitempty"`
	Temperature       *float64 `json:"temperature,omitempty"`
	TopK              *int     `json:"top_k,omitempty"`
	TopP              *float64 `json:"top_p,omitempty"`
	RepetitionPenalty *float64 `json:"repetition_penalty,omitempty"`
}

// GenerateResponse is the stored outcome of one generation.
type GenerateResponse struct {
	ID              string  `json:"id"`
	Object          string  `json:"object"`
	CreatedAt       int64   `json:"created_at"`
	Text            string  `json:"text"`
	State           string  `json:"state"`
	TokensGenerated int     `json:"tokens_generated"`
	DurationMS      int64   `json:"duration_ms"`
	TokensPerSecond float64 `json:"tokens_per_second"`
}

// ChatRequest is the body of POST /v1/chat.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse carries the assistant's reply.
type ChatResponse struct {
	ID    string `json:"id"`
	Reply string `json:"reply"`
}

// ModelInfo describes the loaded model for GET /v1/model.
type ModelInfo struct {
	VocabSize   int     `json:"vocab_size"`
	EmbedDim    int     `json:"embed_dim"`
	NumHeads    int     `json:"num_heads"`
	HiddenDim   int     `json:"hidden_dim"`
	NumLayers   int     `json:"num_layers"`
	MaxSeqLen   int     `json:"max_seq_len"`
	Precision   string  `json:"precision"`
	FootprintMB float64 `json:"footprint_mb"`
}

// MemoryItem is one search hit from GET /v1/memory/search.
type MemoryItem struct {
	Content    string  `json:"content"`
	Category   string  `json:"category"`
	Importance float64 `json:"importance"`
}

// MemorySearchResponse lists the hits for a memory query.
type MemorySearchResponse struct {
	Query string       `json:"query"`
	Items []MemoryItem `json:"items"`
}

// APIError is the error envelope every failed request returns.
type APIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
}
