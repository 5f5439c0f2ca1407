package badges

import "testing"

func TestTierForDays(t *testing.T) {
	tests := []struct {
		daysActive int
		expected   string
	}{
		{0, ""},
		{29, ""},
		{30, TierRookie},
		{59, TierRookie},
		{60, TierExplorer},
		{90, TierAdventurer},
		{119, TierAdventurer},
		{120, TierElite},
		{150, TierChampion},
		{179, TierChampion},
		{180, TierLegend},
		{500, TierLegend},
	}

	for _, tt := range tests {
		if got := TierForDays(tt.daysActive); got != tt.expected {
			t.Errorf("TierForDays(%d) = %q, want %q", tt.daysActive, got, tt.expected)
		}
	}
}
