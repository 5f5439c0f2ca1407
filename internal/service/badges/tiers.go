package badges

// Tier names ordered by the presence-day count that unlocks them.
const (
	TierRookie     = "rookie"
	TierExplorer   = "explorer"
	TierAdventurer = "adventurer"
	TierElite      = "elite"
	TierChampion   = "champion"
	TierLegend     = "legend"
)

// tierLadder maps minimum present-day counts to tier names, highest first
// so a user meeting a higher bound gets the higher tier.
var tierLadder = []struct {
	minDays int
	name    string
}{
	{180, TierLegend},
	{150, TierChampion},
	{120, TierElite},
	{90, TierAdventurer},
	{60, TierExplorer},
	{30, TierRookie},
}

// TierForDays maps a present-day count to its tier name. Below the lowest
// rung there is no tier and the empty string is returned.
func TierForDays(daysActive int) string {
	for _, rung := range tierLadder {
		if daysActive >= rung.minDays {
			return rung.name
		}
	}
	return ""
}
