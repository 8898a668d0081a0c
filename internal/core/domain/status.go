package domain

// SyncStatus reports the sync progress of the monitored node.
type SyncStatus struct {
	Acceptable         bool    `json:"acceptable"`
	PendingMessages    float64 `json:"pending_messages"`
	PendingTxs         float64 `json:"pending_txs"`
	EthHeightRemaining float64 `json:"eth_height_remaining"`
}

// MetricsAge reports, in seconds, how old the most recent network metrics
// message is on the monitored (scoring) node and on the reference node.
type MetricsAge struct {
	Acceptable    bool    `json:"acceptable"`
	ScoringNode   float64 `json:"scoring_node"`
	ReferenceNode float64 `json:"reference_node"`
}
