// Package rarity maps an entity's base experience to a rarity tier.
package rarity

// Label is one of the four rarity tiers
type Label string

const (
	Common    Label = "Common"
	Uncommon  Label = "Uncommon"
	Rare      Label = "Rare"
	Legendary Label = "Legendary"
)

// Threshold is the lowest base experience that earns Label
type Threshold struct {
	Min   int
	Label Label
}

// Thresholds lists the tiers in ascending order. Each tier covers
// [Min, next Min); the last one is unbounded.
var Thresholds = []Threshold{
	{Min: 0, Label: Common},
	{Min: 159, Label: Uncommon},
	{Min: 248, Label: Rare},
	{Min: 301, Label: Legendary},
}

// Classify returns the tier for baseExperience. Values below zero are Common.
func Classify(baseExperience int) Label {
	switch {
	case baseExperience < 159:
		return Common
	case baseExperience < 248:
		return Uncommon
	case baseExperience < 301:
		return Rare
	default:
		return Legendary
	}
}

// Rank returns the ordinal of the label, 0 for Common through 3 for Legendary,
// or -1 for an unknown label.
func (l Label) Rank() int {
	for i, t := range Thresholds {
		if t.Label == l {
			return i
		}
	}
	return -1
}

func (l Label) String() string {
	return string(l)
}
