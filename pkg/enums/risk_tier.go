package enums

// RiskTier classifies the stock-to-PAR ratio of a counted item.
type RiskTier string

const (
	RiskRed    RiskTier = "red"
	RiskYellow RiskTier = "yellow"
	RiskGreen  RiskTier = "green"
)

// String implements fmt.Stringer.
func (r RiskTier) String() string {
	return string(r)
}

// IsValid reports whether the value is a known RiskTier.
func (r RiskTier) IsValid() bool {
	switch r {
	case RiskRed, RiskYellow, RiskGreen:
		return true
	}
	return false
}
