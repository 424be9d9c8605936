package shared

// ItemOutcome is the per-item record of a batch reconciliation.
type ItemOutcome struct {
	Index      int     `json:"index" bson:"index"`
	ExternalID string  `json:"external_id,omitempty" bson:"external_id,omitempty"`
	RecordID   int64   `json:"record_id,omitempty" bson:"record_id,omitempty"`
	Reference  string  `json:"reference,omitempty" bson:"reference,omitempty"` // order number or SKU
	Outcome    Outcome `json:"outcome" bson:"outcome"`
	Reason     string  `json:"reason,omitempty" bson:"reason,omitempty"`
}

// BatchResult aggregates item outcomes. Skipped counts failed items as well,
// Failed isolates the subset that errored.
type BatchResult struct {
	Imported int           `json:"imported" bson:"imported"`
	Updated  int           `json:"updated" bson:"updated"`
	Skipped  int           `json:"skipped" bson:"skipped"`
	Failed   int           `json:"failed" bson:"failed"`
	Total    int           `json:"total" bson:"total"`
	Items    []ItemOutcome `json:"items" bson:"items"`
}

// NewBatchResult tallies the given outcomes.
func NewBatchResult(items []ItemOutcome) *BatchResult {
	res := &BatchResult{Items: items, Total: len(items)}
	if res.Items == nil {
		res.Items = []ItemOutcome{}
	}
	for _, it := range items {
		switch it.Outcome {
		case OutcomeCreated:
			res.Imported++
		case OutcomeUpdated:
			res.Updated++
		case OutcomeFailed:
			res.Failed++
			res.Skipped++
		default:
			res.Skipped++
		}
	}
	return res
}
