package game

// Snapshot is the full state of one game as read from the store.
type Snapshot struct {
	Game        Game
	Players     []Player
	Submissions []Submission
	Votes       []Vote
	Reactions   []Reaction
}

type Viewer struct {
	Host     bool
	PlayerID string
}

type View struct {
	Game        Game              `json:"game"`
	Settings    EffectiveSettings `json:"effective_settings"`
	Players     []Player          `json:"players"`
	Submissions []Submission      `json:"submissions"`
	Votes       []Vote            `json:"votes"`
	Reactions   []Reaction        `json:"reactions"`
	Progress    Progress          `json:"progress"`
	Remaining   *int              `json:"remaining_submissions,omitempty"`
}

// AuthorsVisible reports whether players may see who wrote what.
func (s *Snapshot) AuthorsVisible() bool {
	return s.Game.Status == StatusCompleted && s.Game.Settings.Effective().RevealAuthorsAfterVoting
}

// ViewFor builds what a viewer is allowed to read. Hosts see everything;
// players see their own entries, the revealed content of others without the
// author, and only their own votes.
func (s *Snapshot) ViewFor(viewer Viewer) View {
	submissions := make([]Submission, len(s.Submissions))
	copy(submissions, s.Submissions)
	SortByCreation(submissions)

	view := View{
		Game:      s.Game,
		Settings:  s.Game.Settings.Effective(),
		Players:   append([]Player(nil), s.Players...),
		Reactions: append([]Reaction(nil), s.Reactions...),
		Progress:  ComputeProgress(&s.Game, s.Players, s.Submissions),
	}
	if viewer.Host {
		view.Submissions = submissions
		view.Votes = append([]Vote(nil), s.Votes...)
		return view
	}

	view.Game.HostID = ""
	authors := s.AuthorsVisible()
	view.Submissions = make([]Submission, 0, len(submissions))
	own := 0
	for _, submission := range submissions {
		if submission.PlayerID == viewer.PlayerID {
			if submission.Round == s.Game.CurrentRound {
				own++
			}
			view.Submissions = append(view.Submissions, submission)
			continue
		}
		if !submission.IsRevealed {
			continue
		}
		if !authors {
			submission.PlayerID = ""
		}
		view.Submissions = append(view.Submissions, submission)
	}
	view.Votes = make([]Vote, 0)
	for _, vote := range s.Votes {
		if vote.VoterPlayerID != viewer.PlayerID {
			continue
		}
		if !authors {
			vote.IsCorrect = nil
		}
		view.Votes = append(view.Votes, vote)
	}
	remaining := RemainingQuota(s.Game.Settings, own)
	view.Remaining = &remaining
	return view
}

// ViewGuard drops snapshots that would move a viewer backwards. Snapshots are
// applied only when their version is newer and their status does not rank
// below the last applied one.
type ViewGuard struct {
	applied bool
	version int64
	status  Status
}

func (g *ViewGuard) Apply(version int64, status Status) bool {
	if g.applied {
		if version <= g.version {
			return false
		}
		if status.Rank() < g.status.Rank() {
			return false
		}
	}
	g.applied = true
	g.version = version
	g.status = status
	return true
}

func (g *ViewGuard) Version() int64 {
	return g.version
}

func (g *ViewGuard) Status() Status {
	return g.status
}
