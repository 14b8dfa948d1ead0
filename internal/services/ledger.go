package services

import (
	"fmt"

	"github.com/jhalickman/live-poll/internal/models"
)

// Ledger enforces one current vote per (voter, question) and recomputes
// per-option tallies after every accepted mutation.
type Ledger struct {
	store Store
}

func NewLedger(store Store) *Ledger {
	return &Ledger{store: store}
}

// CastVote records voterID's choice of optionID on questionID.
// Preconditions are checked in order and the first failure wins:
//
//  1. the poll exists and is open,
//  2. questionID is the poll's current active question (a vote for a
//     question the presenter has advanced past must not corrupt the
//     displayed tally),
//  3. optionID belongs to the question.
//
// The write itself is an upsert keyed by (voterID, questionID):
// resubmissions replace the prior choice and the result deterministically
// reflects the latest submitted option. Returns the recomputed tally
// for broadcast.
func (l *Ledger) CastVote(pollID, questionID, optionID, voterID string) (*models.TallyUpdate, error) {
	poll, err := l.store.GetPoll(pollID)
	if err != nil {
		return nil, err
	}
	if !poll.AcceptsVotes() {
		return nil, fmt.Errorf("poll %s is %s: %w", pollID, poll.Status, ErrPollNotAcceptingVotes)
	}

	if questionID != poll.ActiveQuestionID {
		return nil, fmt.Errorf("question %s is not active on poll %s: %w", questionID, pollID, ErrStaleQuestion)
	}

	question, err := l.store.GetQuestion(questionID)
	if err != nil {
		return nil, err
	}
	if !question.HasOption(optionID) {
		return nil, fmt.Errorf("option %s on question %s: %w", optionID, questionID, ErrInvalidOption)
	}

	if err := l.store.UpsertVote(voterID, questionID, optionID); err != nil {
		return nil, err
	}

	return l.CurrentTally(question)
}

// CurrentTally recomputes the tally for a question from current vote
// rows, zero-filled for every option.
func (l *Ledger) CurrentTally(question *models.Question) (*models.TallyUpdate, error) {
	counts, err := l.store.CountVotesByOption(question.ID)
	if err != nil {
		return nil, err
	}
	return models.NewTallyUpdate(question, counts), nil
}
