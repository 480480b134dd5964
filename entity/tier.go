package entity

import "fmt"

// Tier is a named membership level. Access decisions compare ranks,
// never raw strings.
type Tier string

const (
	TierFree     Tier = "free"
	TierFan      Tier = "fan"
	TierSuperFan Tier = "super_fan"
	TierVIP      Tier = "vip"
	TierAdmin    Tier = "admin"
)

var tierRanks = map[Tier]int{
	TierFree:     0,
	TierFan:      1,
	TierSuperFan: 2,
	TierVIP:      3,
	TierAdmin:    4,
}

// Rank returns the ordinal rank of a tier. Unknown or empty tiers rank
// as free, so an unrecognized viewer tier can never unlock anything.
func (t Tier) Rank() int {
	return tierRanks[t]
}

// CanAccess reports whether a viewer with tier t may access a resource
// requiring the given tier.
func (t Tier) CanAccess(required Tier) bool {
	return t.Rank() >= required.Rank()
}

func (t Tier) IsAdmin() bool {
	return t == TierAdmin
}

// ParseTier validates a tier value coming from untrusted input.
// Required tiers on catalog records must go through here at write time:
// defaulting an unknown requirement would over-expose content.
func ParseTier(s string) (Tier, error) {
	t := Tier(s)
	if _, ok := tierRanks[t]; !ok {
		return "", fmt.Errorf("%w: unknown tier %q", ErrValidation, s)
	}
	return t, nil
}
