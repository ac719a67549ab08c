package entities

import "time"

type ElectionStatus string

const (
	ElectionStatusUpcoming  ElectionStatus = "upcoming"
	ElectionStatusActive    ElectionStatus = "active"
	ElectionStatusCompleted ElectionStatus = "completed"
)

type Candidate struct {
	CandidateID string
	Name        string
	Party       string
	ImageURL    string
	VoteCount   int
}

// Election is a time-boxed contest among candidates. Status is never part of
// the stored record; callers derive it from the window via StatusAt so a
// record written yesterday cannot report a stale status today.
type Election struct {
	ElectionID  string
	Title       string
	Description string
	StartDate   time.Time
	EndDate     time.Time
	Candidates  []Candidate
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// StatusAt derives the election status from the voting window alone.
func (e Election) StatusAt(now time.Time) ElectionStatus {
	now = now.UTC()
	if now.Before(e.StartDate.UTC()) {
		return ElectionStatusUpcoming
	}
	if now.After(e.EndDate.UTC()) {
		return ElectionStatusCompleted
	}
	return ElectionStatusActive
}

// Candidate returns the candidate with the given id, if it exists.
func (e Election) Candidate(candidateID string) (Candidate, bool) {
	for _, candidate := range e.Candidates {
		if candidate.CandidateID == candidateID {
			return candidate, true
		}
	}
	return Candidate{}, false
}

// TotalVotes sums candidate tallies.
func (e Election) TotalVotes() int {
	total := 0
	for _, candidate := range e.Candidates {
		total += candidate.VoteCount
	}
	return total
}
