package game

import "time"

const MinPlayersToStart = 2

// Counts is what the transition guards look at.
type Counts struct {
	Players     int
	Submissions int
}

// CheckTransition validates a host-triggered move from the game's current
// status to the requested one.
func CheckTransition(g *Game, to Status, counts Counts) error {
	if g == nil {
		return NotFound("game not found")
	}
	if g.Status == StatusCompleted {
		return Completed("this game has already finished")
	}
	if !CanTransition(g.Status, to) {
		return Conflict("cannot move from %s to %s", g.Status, to)
	}
	switch to {
	case StatusCollecting:
		if counts.Players < MinPlayersToStart {
			return Conflict("need at least %d players to start", MinPlayersToStart)
		}
	case StatusRevealing:
		if counts.Submissions < 1 {
			return Conflict("need at least one submission to start revealing")
		}
	case StatusVoting:
		if !g.Settings.Effective().EnableVoting {
			return Conflict("voting is disabled for this game")
		}
	}
	return nil
}

// StatusPatch is the single-row update a transition writes.
type StatusPatch struct {
	From        Status
	To          Status
	At          time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
}

func NewStatusPatch(from, to Status, at time.Time) StatusPatch {
	patch := StatusPatch{From: from, To: to, At: at}
	switch to {
	case StatusCollecting:
		patch.StartedAt = &at
	case StatusCompleted:
		patch.CompletedAt = &at
	}
	return patch
}

// Apply writes the patch into g. It is used by stores that keep games in
// memory.
func (p StatusPatch) Apply(g *Game) {
	g.Status = p.To
	g.UpdatedAt = p.At
	if p.StartedAt != nil {
		started := *p.StartedAt
		g.StartedAt = &started
	}
	if p.CompletedAt != nil {
		completed := *p.CompletedAt
		g.CompletedAt = &completed
	}
}

func CheckJoin(g *Game) error {
	if g == nil {
		return NotFound("game not found")
	}
	if g.Status == StatusCompleted {
		return Completed("this game has already finished")
	}
	if !g.Status.AcceptsPlayers() {
		return Conflict("this game has already started")
	}
	return nil
}

// SubmissionDraft is a player's entry before it is stored.
type SubmissionDraft struct {
	Type           SubmissionType
	Content        string
	TargetPlayerID *string
}

// CheckSubmission validates a draft against the game and returns the cleaned
// content. players is the game's roster, used to resolve the roast target.
func CheckSubmission(g *Game, author *Player, draft SubmissionDraft, players []Player) (string, error) {
	if g.Status == StatusCompleted {
		return "", Completed("this game has already finished")
	}
	if !g.Status.AcceptsSubmissions() {
		return "", Conflict("submissions are closed")
	}
	if !draft.Type.Valid() {
		return "", Validation("type must be gratitude or roast")
	}
	if !g.Mode.Allows(draft.Type) {
		return "", Validation("%s submissions are not part of this game", draft.Type)
	}
	content, err := ValidateContent(draft.Content)
	if err != nil {
		return "", err
	}
	target := draft.TargetPlayerID
	if target != nil && *target == "" {
		target = nil
	}
	if draft.Type == SubmissionRoast && target == nil && g.Settings.Effective().RequireTargetForRoast {
		return "", ErrTargetMissing
	}
	if target != nil {
		if *target == author.ID {
			return "", Validation("you cannot target yourself")
		}
		if !hasPlayer(players, *target) {
			return "", Validation("target player is not in this game")
		}
	}
	return content, nil
}

// CheckQuota is run by the store with the author's current submission count
// for the round, under the same lock as the insert.
func CheckQuota(settings Settings, existing int) error {
	if RemainingQuota(settings, existing) <= 0 {
		return ErrQuotaExceeded
	}
	return nil
}

func RemainingQuota(settings Settings, existing int) int {
	remaining := settings.Effective().MaxSubmissionsPerPlayer - existing
	if remaining < 0 {
		return 0
	}
	return remaining
}

func CheckVote(g *Game, voter *Player, submission *Submission, guessed *string, players []Player) error {
	if !g.Settings.Effective().EnableVoting {
		return Conflict("voting is disabled for this game")
	}
	if g.Status == StatusCompleted {
		return Completed("this game has already finished")
	}
	if !g.Status.AcceptsVotes() {
		return Conflict("voting is not open")
	}
	if !submission.IsRevealed {
		return Conflict("submission has not been revealed")
	}
	if submission.PlayerID == voter.ID {
		return Validation("you cannot vote on your own submission")
	}
	if guessed != nil && !hasPlayer(players, *guessed) {
		return Validation("guessed player is not in this game")
	}
	return nil
}

func CheckReaction(g *Game, submission *Submission) error {
	if !g.Settings.Effective().EnableReactions {
		return Conflict("reactions are disabled for this game")
	}
	if !g.Status.AcceptsReactions() {
		return Conflict("reactions are not open")
	}
	if !submission.IsRevealed {
		return Conflict("submission has not been revealed")
	}
	return nil
}

// ResolveVote compares a guess with the submission's author. Points are not
// awarded yet.
func ResolveVote(submission *Submission, guessed *string) (bool, int) {
	if guessed == nil {
		return false, 0
	}
	return *guessed == submission.PlayerID, 0
}

func hasPlayer(players []Player, id string) bool {
	for _, player := range players {
		if player.ID == id {
			return true
		}
	}
	return false
}
