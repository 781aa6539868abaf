package geekistics

import "github.com/wonny/optstats/internal/model"

// computeStreaks walks trades chronologically by open date and tracks the
// longest runs of consecutive wins and losses. A breakeven (zero P/L)
// trade resets both running streaks.
func computeStreaks(portfolio *model.Portfolio) StreakStats {
	var s StreakStats

	for _, t := range portfolio.SortedByOpen() {
		switch {
		case t.PL > 0:
			s.CurrentWinStreak++
			s.CurrentLossStreak = 0
			if s.CurrentWinStreak > s.MaxWinStreak {
				s.MaxWinStreak = s.CurrentWinStreak
			}
		case t.PL < 0:
			s.CurrentLossStreak++
			s.CurrentWinStreak = 0
			if s.CurrentLossStreak > s.MaxLossStreak {
				s.MaxLossStreak = s.CurrentLossStreak
			}
		default:
			s.CurrentWinStreak = 0
			s.CurrentLossStreak = 0
		}
	}

	return s
}
