package models

// Participant is a snapshot of a joined user, taken at join time.
type Participant struct {
	ID        int64
	FirstName string
	Username  string
}

// State is the per-chat giveaway record. Participants is non-empty only
// while Active; AnchorID points at the live announcement message.
type State struct {
	Active       bool
	Participants map[int64]Participant
	Order        []int64
	AnchorID     int64
}

func NewState() *State {
	return &State{
		Participants: make(map[int64]Participant),
	}
}

// Reset returns the state to Idle, dropping participants and the anchor.
func (s *State) Reset() {
	s.Active = false
	s.Participants = make(map[int64]Participant)
	s.Order = nil
	s.AnchorID = 0
}
