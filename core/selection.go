package core

// AgentSelection is the outcome of one dispatch decision. It is produced per
// Select call and never persisted.
type AgentSelection struct {
	AgentID    string  `json:"agent_id"`
	Confidence float64 `json:"confidence"` // in [0,1]
	Reason     string  `json:"reason"`
}
