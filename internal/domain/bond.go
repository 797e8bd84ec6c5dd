package domain

// Bond is a time-locked principal claim against escrowed collateral. It is
// the sole persistent entity of the registry: a stored bond always has
// Amount > 0, and the record is deleted the moment its principal is drained.
type Bond struct {
	ID       uint64 `json:"id"`
	Asset    string `json:"asset"`
	Amount   uint64 `json:"amount"`
	Maturity int64  `json:"maturity_ms"` // unix milliseconds
}

// Matured reports whether the bond is eligible for redemption at the given
// time. Maturity is a derived predicate, not a stored state.
func (b Bond) Matured(nowMs int64) bool {
	return nowMs >= b.Maturity
}

// Caller is an already-authenticated request identity. Resolution from raw
// credentials happens at the edge (HTTP middleware); the engines only ever
// see this struct.
type Caller struct {
	Account    string
	Privileged bool
}

// SolvencyReport is a diagnostic snapshot for one asset: the principal still
// owed to bond holders against the collateral actually sitting in escrow.
type SolvencyReport struct {
	Asset       string `json:"asset"`
	Outstanding uint64 `json:"outstanding"`
	Escrowed    uint64 `json:"escrowed"`
	BondCount   int    `json:"bond_count"`
}

// Solvent reports whether escrowed collateral covers outstanding principal.
func (r SolvencyReport) Solvent() bool {
	return r.Escrowed >= r.Outstanding
}
