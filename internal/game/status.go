package game

type Status string

const (
	StatusSetup      Status = "setup"
	StatusCollecting Status = "collecting"
	StatusRevealing  Status = "revealing"
	StatusVoting     Status = "voting"
	StatusCompleted  Status = "completed"
)

var statusOrder = []Status{
	StatusSetup,
	StatusCollecting,
	StatusRevealing,
	StatusVoting,
	StatusCompleted,
}

// Rank is the position of the status in the forward-only order, or -1 for an
// unknown status.
func (s Status) Rank() int {
	for i, candidate := range statusOrder {
		if candidate == s {
			return i
		}
	}
	return -1
}

func (s Status) Valid() bool {
	return s.Rank() >= 0
}

// Next returns the single status reachable from s.
func (s Status) Next() (Status, bool) {
	rank := s.Rank()
	if rank < 0 || rank+1 >= len(statusOrder) {
		return "", false
	}
	return statusOrder[rank+1], true
}

// CanTransition is true only for one step forward.
func CanTransition(from, to Status) bool {
	next, ok := from.Next()
	return ok && next == to
}

func (s Status) AcceptsPlayers() bool {
	return s == StatusSetup
}

func (s Status) AcceptsSubmissions() bool {
	return s == StatusCollecting
}

func (s Status) AcceptsVotes() bool {
	return s == StatusRevealing || s == StatusVoting
}

func (s Status) AcceptsReactions() bool {
	return s == StatusRevealing || s == StatusVoting || s == StatusCompleted
}
