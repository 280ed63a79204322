package api

// PredictRequest asks for the k best classes for a set of input
// feature indices.
type PredictRequest struct {
	Features []int `json:"features"`
	K        int   `json:"k"`
}

// ScoredClass is one ranked prediction. Score is a path
// log-probability under the hierarchical loss and a raw activation
// otherwise.
type ScoredClass struct {
	Class int     `json:"class"`
	Score float32 `json:"score"`
}

// PredictResponse carries the ranked classes for one request.
type PredictResponse struct {
	ID          string        `json:"id"`
	Loss        string        `json:"loss"`
	Predictions []ScoredClass `json:"predictions"`
	TookMicros  int64         `json:"took_us"`
}

// ModelInfo describes the model behind the service.
type ModelInfo struct {
	Dim            int     `json:"dim"`
	InputSize      int     `json:"input_size"`
	OutputSize     int     `json:"output_size"`
	Loss           string  `json:"loss"`
	Examples       int64   `json:"examples"`
	AvgLoss        float32 `json:"avg_loss"`
	TreeDepth      int     `json:"tree_depth,omitempty"`
	MeanCodeLength float64 `json:"mean_code_length,omitempty"`
}

// HealthResponse is the /healthz body.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// ResponseError is the error envelope handlers return.
type ResponseError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}
