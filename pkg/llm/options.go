package llm

// Options contains model inference parameters.
type Options struct {
	// Sampling parameters
	Temperature *float64 `json:"temperature,omitempty"` // Creativity (0.0-2.0)
	TopP        *float64 `json:"top_p,omitempty"`       // Nucleus sampling threshold
	TopK        *int     `json:"top_k,omitempty"`       // Top-k sampling
	Seed        *int     `json:"seed,omitempty"`        // Random seed for reproducibility

	// Length parameters
	NumPredict *int `json:"num_predict,omitempty"` // Max tokens to generate
	NumCtx     *int `json:"num_ctx,omitempty"`     // Context window size

	// Repetition control
	RepeatPenalty *float64 `json:"repeat_penalty,omitempty"`
	RepeatLastN   *int     `json:"repeat_last_n,omitempty"`

	// Stop sequences
	Stop []string `json:"stop,omitempty"`
}

// Float returns a pointer to v, for optional option fields.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v, for optional option fields.
func Int(v int) *int { return &v }
