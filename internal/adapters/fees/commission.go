package fees

import (
	"marketplace-escrow-engine/internal/config"
)

// CommissionRule computes the marketplace commission as a flat
// percentage of the sale amount, expressed in basis points.
type CommissionRule struct {
	bps int64
}

// NewCommissionRule creates a commission rule from configuration
func NewCommissionRule(cfg config.CommissionConfig) *CommissionRule {
	return &CommissionRule{bps: cfg.Bps}
}

// Fee returns the commission withheld from amount
func (r *CommissionRule) Fee(amount int64) int64 {
	return amount * r.bps / 10000
}
