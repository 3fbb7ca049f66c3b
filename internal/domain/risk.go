package domain

// RiskLevel is the nominal risk tier assigned by the risk service.
type RiskLevel string

const (
	RiskLevelLow     RiskLevel = "LOW"
	RiskLevelMedium  RiskLevel = "MEDIUM"
	RiskLevelHigh    RiskLevel = "HIGH"
	RiskLevelUnknown RiskLevel = "UNKNOWN"
)

// RiskCheckRequest is the payload sent to the risk service for one transfer
// attempt.
type RiskCheckRequest struct {
	FromParty   string   `json:"from_party"`
	ToParty     string   `json:"to_party"`
	Currency    Currency `json:"currency"`
	Amount      int64    `json:"amount"`
	Type        string   `json:"type"`
	Description string   `json:"description"`
}

// RiskDecision is produced once per transfer attempt and never mutated. A
// failed or unreachable risk service degrades to an allow decision tagged
// RiskLevelUnknown (fail-open).
type RiskDecision struct {
	Blocked   bool      `json:"blocked"`
	Reason    string    `json:"reason"`
	RiskLevel RiskLevel `json:"risk_level"`
	CheckID   string    `json:"check_id"`
}
