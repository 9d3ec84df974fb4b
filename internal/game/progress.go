package game

import "sort"

// Progress is the collection ratio shown on the host screen. It never gates
// a transition.
type Progress struct {
	Submitted int     `json:"submitted"`
	Expected  int     `json:"expected"`
	Ratio     float64 `json:"ratio"`
	Revealed  int     `json:"revealed"`
}

func ComputeProgress(g *Game, players []Player, submissions []Submission) Progress {
	progress := Progress{
		Expected: len(players) * g.Settings.Effective().MaxSubmissionsPerPlayer,
	}
	for _, submission := range submissions {
		if submission.Round != g.CurrentRound {
			continue
		}
		progress.Submitted++
		if submission.IsRevealed {
			progress.Revealed++
		}
	}
	if progress.Expected > 0 {
		progress.Ratio = float64(progress.Submitted) / float64(progress.Expected)
		if progress.Ratio > 1 {
			progress.Ratio = 1
		}
	}
	return progress
}

// SortByCreation orders submissions by creation time, oldest first, then
// by id.
func SortByCreation(submissions []Submission) {
	sort.Slice(submissions, func(i, j int) bool {
		a, b := submissions[i], submissions[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

// NextToReveal picks the oldest unrevealed submission of the current round.
func NextToReveal(g *Game, submissions []Submission) (*Submission, bool) {
	ordered := make([]Submission, len(submissions))
	copy(ordered, submissions)
	SortByCreation(ordered)
	for i := range ordered {
		if ordered[i].Round != g.CurrentRound || ordered[i].IsRevealed {
			continue
		}
		next := ordered[i]
		return &next, true
	}
	return nil, false
}
