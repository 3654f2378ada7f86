package dto

// AccrualRunResponse reports a manually triggered accrual run. Partial is set
// when some batches failed and were left for the next run.
type AccrualRunResponse struct {
	Credited int    `json:"credited"`
	Partial  bool   `json:"partial"`
	Error    string `json:"error,omitempty"`
}
