package game

const (
	DefaultMaxSubmissions  = 1
	MaxSubmissionsCeiling  = 10
	MaxVotingTimeLimitSecs = 600
)

// Settings mirrors the JSON bag stored with a game. Absent keys stay nil so
// defaults are applied where the value is used.
type Settings struct {
	AllowAnonymous           *bool `json:"allow_anonymous,omitempty"`
	RequireTargetForRoast    *bool `json:"require_target_for_roast,omitempty"`
	EnableVoting             *bool `json:"enable_voting,omitempty"`
	VotingTimeLimit          *int  `json:"voting_time_limit,omitempty"`
	RevealAuthorsAfterVoting *bool `json:"reveal_authors_after_voting,omitempty"`
	MaxSubmissionsPerPlayer  *int  `json:"max_submissions_per_player,omitempty"`
	EnableReactions          *bool `json:"enable_reactions,omitempty"`
}

type EffectiveSettings struct {
	AllowAnonymous           bool `json:"allow_anonymous"`
	RequireTargetForRoast    bool `json:"require_target_for_roast"`
	EnableVoting             bool `json:"enable_voting"`
	VotingTimeLimit          int  `json:"voting_time_limit"`
	RevealAuthorsAfterVoting bool `json:"reveal_authors_after_voting"`
	MaxSubmissionsPerPlayer  int  `json:"max_submissions_per_player"`
	EnableReactions          bool `json:"enable_reactions"`
}

func (s Settings) Effective() EffectiveSettings {
	eff := EffectiveSettings{
		AllowAnonymous:           boolOr(s.AllowAnonymous, true),
		RequireTargetForRoast:    boolOr(s.RequireTargetForRoast, true),
		EnableVoting:             boolOr(s.EnableVoting, true),
		RevealAuthorsAfterVoting: boolOr(s.RevealAuthorsAfterVoting, false),
		EnableReactions:          boolOr(s.EnableReactions, true),
		MaxSubmissionsPerPlayer:  DefaultMaxSubmissions,
	}
	if s.VotingTimeLimit != nil && *s.VotingTimeLimit > 0 {
		eff.VotingTimeLimit = *s.VotingTimeLimit
	}
	if s.MaxSubmissionsPerPlayer != nil && *s.MaxSubmissionsPerPlayer > 0 {
		eff.MaxSubmissionsPerPlayer = *s.MaxSubmissionsPerPlayer
	}
	return eff
}

func (s Settings) Validate() error {
	if s.MaxSubmissionsPerPlayer != nil {
		value := *s.MaxSubmissionsPerPlayer
		if value < 1 || value > MaxSubmissionsCeiling {
			return Validation("max_submissions_per_player must be between 1 and %d", MaxSubmissionsCeiling)
		}
	}
	if s.VotingTimeLimit != nil {
		value := *s.VotingTimeLimit
		if value < 0 || value > MaxVotingTimeLimitSecs {
			return Validation("voting_time_limit must be between 0 and %d seconds", MaxVotingTimeLimitSecs)
		}
	}
	return nil
}

func boolOr(value *bool, fallback bool) bool {
	if value == nil {
		return fallback
	}
	return *value
}
