package domain

// AccountBalance is the ledger service's answer to a balance lookup.
// Exists=false means the party holds no account in this currency, which is
// distinct from a zero balance and gates transfers on its own.
type AccountBalance struct {
	Party    string   `json:"party"`
	Currency Currency `json:"currency"`
	Amount   int64    `json:"amount"`
	Exists   bool     `json:"exists"`
}

// LedgerOperationOutcome is returned by every mutating ledger call. Transport
// failures are translated into Success=false by the ledger client so the
// orchestrator never has to unwind a partially applied step through panics.
type LedgerOperationOutcome struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Operation tags attached to signed ledger deltas.
const (
	OpTagTransfer = "TRANSFER"
	OpTagRollback = "TRANSFER_ROLLBACK"
)
