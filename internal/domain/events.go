package domain

// Bus channel / stream names for bond lifecycle events.
const (
	EventBondCreated  = "bond_created"
	EventBondRedeemed = "bond_redeemed"
	EventBondUnlocked = "bond_unlocked"
)

// BondCreatedEvent is published after an issuance commits.
type BondCreatedEvent struct {
	EventID  string `json:"event_id"`
	BondID   uint64 `json:"bond_id"`
	Account  string `json:"account"`
	Asset    string `json:"asset"`
	Amount   uint64 `json:"amount"`
	Maturity int64  `json:"maturity_ms"`
}

// BondRedeemedEvent is published after a redemption commits.
type BondRedeemedEvent struct {
	EventID   string `json:"event_id"`
	BondID    uint64 `json:"bond_id"`
	Account   string `json:"account"`
	Asset     string `json:"asset"`
	Redeemed  uint64 `json:"redeemed"`
	Fee       uint64 `json:"fee"`
	NetPayout uint64 `json:"net_payout"`
	Remaining uint64 `json:"remaining"`
}

// BondUnlockedEvent is published after an administrative unlock commits.
type BondUnlockedEvent struct {
	EventID  string `json:"event_id"`
	BondID   uint64 `json:"bond_id"`
	Maturity int64  `json:"maturity_ms"`
}
