package factors

// Name identifies one of the ten commodity factors
type Name string

const (
	AVG             Name = "AVG"
	Momentum        Name = "Momentum"
	Basis           Name = "Basis"
	BasisMomentum   Name = "Basis-Momentum"
	HedgingPressure Name = "Hedging Pressure"
	Value           Name = "Value"
	Skewness        Name = "Skewness"
	InflationBeta   Name = "Inflation Beta"
	Volatility      Name = "Volatility"
	OpenInterest    Name = "Open Interest"
)

var allNames = []Name{
	AVG, Momentum, Basis, BasisMomentum, HedgingPressure,
	Value, Skewness, InflationBeta, Volatility, OpenInterest,
}

// AllNames returns the ten factor names in their canonical order
func AllNames() []Name {
	out := make([]Name, len(allNames))
	copy(out, allNames)
	return out
}

// ParseName resolves a factor name from its canonical spelling or its slug
func ParseName(s string) (Name, bool) {
	for _, n := range allNames {
		if string(n) == s || n.Slug() == s {
			return n, true
		}
	}
	return "", false
}

// Slug returns a file-name friendly form, e.g. "hedging_pressure"
func (n Name) Slug() string {
	b := make([]byte, 0, len(n))
	for i := 0; i < len(n); i++ {
		c := n[i]
		switch {
		case c >= 'A' && c <= 'Z':
			b = append(b, c+'a'-'A')
		case c == ' ' || c == '-':
			b = append(b, '_')
		default:
			b = append(b, c)
		}
	}
	return string(b)
}

func (n Name) order() int {
	for i, m := range allNames {
		if m == n {
			return i
		}
	}
	return len(allNames)
}
