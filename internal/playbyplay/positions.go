package playbyplay

import "fmt"

// LineupPositions derives batting-order positions from the sequential order
// of batter appearances within each half-inning grouping. The Nth distinct
// batter of a grouping gets position N, capped at 9.
//
// The counter restarts for every (half, inning) pair rather than tracking a
// team's order across the whole game, and each new grouping overwrites a
// batter's previously assigned position, so a leadoff hitter in a later
// inning is recorded as position 1 regardless of their true lineup slot.
// Downstream scores depend on this exact definition, so it is preserved
// as-is.
func LineupPositions(game *Game) map[string]int {
	positions := make(map[string]int)
	sequence := make(map[string]map[string]int) // "{half}_{inning}" -> batter -> position

	for _, play := range game.Plays {
		if play.Batter == "" {
			continue
		}

		key := fmt.Sprintf("%s_%d", play.InningHalf, play.Inning)
		group, ok := sequence[key]
		if !ok {
			group = make(map[string]int)
			sequence[key] = group
		}

		if _, seen := group[play.Batter]; seen {
			continue
		}

		position := len(group) + 1
		if position > 9 {
			continue
		}
		group[play.Batter] = position
		positions[play.Batter] = position
	}

	return positions
}
