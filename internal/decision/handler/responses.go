package handler

// CandidateResponse is the HTTP response for POST /v1/candidates.
type CandidateResponse struct {
	FlagCreated bool   `json:"flag_created"`
	FlagID      string `json:"flag_id,omitempty"`
}
