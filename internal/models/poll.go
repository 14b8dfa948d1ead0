package models

import (
	"time"
)

type PollStatus string

const (
	StatusDraft  PollStatus = "draft"
	StatusOpen   PollStatus = "open"
	StatusClosed PollStatus = "closed"
)

// statusRank orders the linear lifecycle draft -> open -> closed.
var statusRank = map[PollStatus]int{
	StatusDraft:  0,
	StatusOpen:   1,
	StatusClosed: 2,
}

// IsValid reports whether s is a known poll status.
func (s PollStatus) IsValid() bool {
	_, ok := statusRank[s]
	return ok
}

// CanTransitionTo reports whether moving from s to next is a forward
// transition. The lifecycle is linear; closed is terminal.
func (s PollStatus) CanTransitionTo(next PollStatus) bool {
	from, ok := statusRank[s]
	if !ok {
		return false
	}
	to, ok := statusRank[next]
	if !ok {
		return false
	}
	return to > from
}

// Poll is a data transfer object for live poll state.
// All persistent state is managed in the database via PollStore.
type Poll struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	Status           PollStatus `json:"status"`
	ActiveQuestionID string     `json:"activeQuestionId,omitempty"`
	OwnerID          string     `json:"-"`
	CreatedAt        time.Time  `json:"createdAt"`
}

// AcceptsVotes reports whether the poll is currently open for voting.
func (p *Poll) AcceptsVotes() bool {
	return p.Status == StatusOpen
}

type Question struct {
	ID       string   `json:"id"`
	PollID   string   `json:"pollId"`
	Text     string   `json:"text"`
	Position int      `json:"position"`
	Options  []Option `json:"options"`
}

// HasOption reports whether optionID belongs to this question.
func (q *Question) HasOption(optionID string) bool {
	for _, opt := range q.Options {
		if opt.ID == optionID {
			return true
		}
	}
	return false
}

type Option struct {
	ID         string `json:"id"`
	QuestionID string `json:"questionId"`
	Text       string `json:"text"`
}

// OptionCount is one entry of a question's tally.
type OptionCount struct {
	OptionID string `json:"optionId"`
	Count    int    `json:"count"`
}

// TallyUpdate is the recomputed per-option tally for one question,
// emitted after every accepted vote mutation.
type TallyUpdate struct {
	QuestionID string        `json:"questionId"`
	Results    []OptionCount `json:"results"`
}

// NewTallyUpdate builds a tally for q from raw per-option counts,
// zero-filling every option of the question in display order so
// recipients always receive the full result set.
func NewTallyUpdate(q *Question, counts map[string]int) *TallyUpdate {
	tally := &TallyUpdate{
		QuestionID: q.ID,
		Results:    make([]OptionCount, 0, len(q.Options)),
	}
	for _, opt := range q.Options {
		tally.Results = append(tally.Results, OptionCount{
			OptionID: opt.ID,
			Count:    counts[opt.ID],
		})
	}
	return tally
}
