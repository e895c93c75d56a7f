package tier

import "fmt"

// Tier is a subscription level. Tiers are totally ordered by their rank;
// the zero value is Free.
type Tier uint8

const (
	Free Tier = iota
	Pro
	ProPlus
	Portfolio
	Enterprise
)

var names = [...]string{
	Free:       "free",
	Pro:        "pro",
	ProPlus:    "pro_plus",
	Portfolio:  "portfolio",
	Enterprise: "enterprise",
}

// All returns every tier from lowest to highest.
func All() []Tier {
	return []Tier{Free, Pro, ProPlus, Portfolio, Enterprise}
}

// Parse converts the canonical lowercase name into a Tier.
func Parse(s string) (Tier, error) {
	for i, name := range names {
		if name == s {
			return Tier(i), nil
		}
	}
	return Free, fmt.Errorf("%w: %q", ErrInvalidTier, s)
}

// MustParse is like Parse but panics on unknown names.
// Intended for static declarations only.
func MustParse(s string) Tier {
	t, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return t
}

// Valid reports whether t is one of the declared tiers.
func (t Tier) Valid() bool {
	return int(t) < len(names)
}

func (t Tier) String() string {
	if !t.Valid() {
		return fmt.Sprintf("tier(%d)", uint8(t))
	}
	return names[t]
}

// Rank is the position of the tier in the total order.
func (t Tier) Rank() int {
	return int(t)
}

func (t Tier) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidTier, uint8(t))
	}
	return []byte(names[t]), nil
}

func (t *Tier) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// IsSufficient reports whether actual grants everything required grants.
// This is the only place tiers are compared.
func IsSufficient(actual, required Tier) bool {
	return actual.Rank() >= required.Rank()
}

// Max returns the higher of two tiers.
func Max(a, b Tier) Tier {
	if IsSufficient(a, b) {
		return a
	}
	return b
}
