package services

import (
	"fmt"

	"github.com/jhalickman/live-poll/internal/models"
)

// StateMachine owns a poll's status and active-question transitions.
// The lifecycle is linear (draft -> open -> closed); the active
// question is orthogonal state that may point at any of the poll's
// questions, or none, but only gates voting while the poll is open.
type StateMachine struct {
	store Store
	guard *Guard
}

func NewStateMachine(store Store, guard *Guard) *StateMachine {
	return &StateMachine{store: store, guard: guard}
}

// SetStatus transitions a poll to next on behalf of requesterID.
// Returns the persisted status for broadcast.
func (sm *StateMachine) SetStatus(pollID, requesterID string, next models.PollStatus) (models.PollStatus, error) {
	if !sm.guard.VerifyOwner(pollID, requesterID) {
		return "", fmt.Errorf("set status on poll %s: %w", pollID, ErrForbidden)
	}

	poll, err := sm.store.GetPoll(pollID)
	if err != nil {
		return "", err
	}

	if !next.IsValid() || !poll.Status.CanTransitionTo(next) {
		return "", fmt.Errorf("%s -> %s: %w", poll.Status, next, ErrInvalidTransition)
	}

	if err := sm.store.SetPollStatus(pollID, next); err != nil {
		return "", err
	}
	return next, nil
}

// SetActiveQuestion points the poll at questionID, or clears the active
// question when questionID is empty. Returns the full
// question-with-options payload for broadcast (nil when cleared).
// Votes recorded for previously active questions are left untouched;
// re-activating a question simply surfaces its existing tally.
func (sm *StateMachine) SetActiveQuestion(pollID, requesterID, questionID string) (*models.Question, error) {
	if !sm.guard.VerifyOwner(pollID, requesterID) {
		return nil, fmt.Errorf("set active question on poll %s: %w", pollID, ErrForbidden)
	}

	var question *models.Question
	if questionID != "" {
		var err error
		question, err = sm.store.GetQuestion(questionID)
		if err != nil {
			return nil, err
		}
		if question.PollID != pollID {
			return nil, fmt.Errorf("question %s does not belong to poll %s: %w", questionID, pollID, ErrNotFound)
		}
	}

	if err := sm.store.SetActiveQuestion(pollID, questionID); err != nil {
		return nil, err
	}
	return question, nil
}
