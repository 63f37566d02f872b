package model

// DeliveryResult records the outcome of one channel's send attempt for an
// alert. A batch of results is produced per delivery; only the aggregate
// delivered flag is written back onto the alert record.
type DeliveryResult struct {
	Channel string `json:"method"`
	Success bool   `json:"success"`
	Detail  string `json:"result,omitempty"`
	Error   string `json:"error,omitempty"`
}

// AnySuccess reports whether at least one channel in the batch succeeded.
func AnySuccess(results []DeliveryResult) bool {
	for _, r := range results {
		if r.Success {
			return true
		}
	}
	return false
}
