package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhalickman/live-poll/internal/models"
	"github.com/jhalickman/live-poll/internal/services"
)

func newStateMachine(store *fakeStore) *services.StateMachine {
	return services.NewStateMachine(store, services.NewGuard(store))
}

func TestStateMachine_SetStatus(t *testing.T) {
	t.Run("owner can walk the lifecycle forward", func(t *testing.T) {
		store := newFakeStore()
		store.seedPoll("p1", "owner-1", models.StatusDraft)
		sm := newStateMachine(store)

		status, err := sm.SetStatus("p1", "owner-1", models.StatusOpen)
		require.NoError(t, err)
		assert.Equal(t, models.StatusOpen, status)

		status, err = sm.SetStatus("p1", "owner-1", models.StatusClosed)
		require.NoError(t, err)
		assert.Equal(t, models.StatusClosed, status)

		poll, _ := store.GetPoll("p1")
		assert.Equal(t, models.StatusClosed, poll.Status)
	})

	t.Run("closed is terminal", func(t *testing.T) {
		store := newFakeStore()
		store.seedPoll("p1", "owner-1", models.StatusClosed)
		sm := newStateMachine(store)

		_, err := sm.SetStatus("p1", "owner-1", models.StatusOpen)
		assert.ErrorIs(t, err, services.ErrInvalidTransition)
	})

	t.Run("non-owner is rejected regardless of payload validity", func(t *testing.T) {
		store := newFakeStore()
		store.seedPoll("p1", "owner-1", models.StatusDraft)
		sm := newStateMachine(store)

		_, err := sm.SetStatus("p1", "intruder", models.StatusOpen)
		assert.ErrorIs(t, err, services.ErrForbidden)

		poll, _ := store.GetPoll("p1")
		assert.Equal(t, models.StatusDraft, poll.Status, "status must be unchanged")
	})

	t.Run("unknown status is an invalid transition", func(t *testing.T) {
		store := newFakeStore()
		store.seedPoll("p1", "owner-1", models.StatusDraft)
		sm := newStateMachine(store)

		_, err := sm.SetStatus("p1", "owner-1", models.PollStatus("archived"))
		assert.ErrorIs(t, err, services.ErrInvalidTransition)
	})
}

func TestStateMachine_SetActiveQuestion(t *testing.T) {
	setup := func() (*fakeStore, *services.StateMachine) {
		store := newFakeStore()
		store.seedPoll("p1", "owner-1", models.StatusOpen)
		store.seedPoll("p2", "owner-2", models.StatusOpen)
		store.seedQuestion("q1", "p1", "a", "b")
		store.seedQuestion("q2", "p2", "c")
		return store, newStateMachine(store)
	}

	t.Run("returns the question with options for broadcast", func(t *testing.T) {
		store, sm := setup()

		question, err := sm.SetActiveQuestion("p1", "owner-1", "q1")
		require.NoError(t, err)
		require.NotNil(t, question)
		assert.Equal(t, "q1", question.ID)
		assert.Len(t, question.Options, 2)

		poll, _ := store.GetPoll("p1")
		assert.Equal(t, "q1", poll.ActiveQuestionID)
	})

	t.Run("empty id clears the active question", func(t *testing.T) {
		store, sm := setup()
		_, err := sm.SetActiveQuestion("p1", "owner-1", "q1")
		require.NoError(t, err)

		question, err := sm.SetActiveQuestion("p1", "owner-1", "")
		require.NoError(t, err)
		assert.Nil(t, question)

		poll, _ := store.GetPoll("p1")
		assert.Empty(t, poll.ActiveQuestionID)
	})

	t.Run("question from another poll is not found", func(t *testing.T) {
		store, sm := setup()

		_, err := sm.SetActiveQuestion("p1", "owner-1", "q2")
		assert.ErrorIs(t, err, services.ErrNotFound)

		poll, _ := store.GetPoll("p1")
		assert.Empty(t, poll.ActiveQuestionID)
	})

	t.Run("unknown question is not found", func(t *testing.T) {
		_, sm := setup()

		_, err := sm.SetActiveQuestion("p1", "owner-1", "missing")
		assert.ErrorIs(t, err, services.ErrNotFound)
	})

	t.Run("non-owner is forbidden and state is unchanged", func(t *testing.T) {
		store, sm := setup()

		_, err := sm.SetActiveQuestion("p1", "owner-2", "q1")
		assert.ErrorIs(t, err, services.ErrForbidden)

		poll, _ := store.GetPoll("p1")
		assert.Empty(t, poll.ActiveQuestionID)
	})

	t.Run("changing the active question keeps existing votes", func(t *testing.T) {
		store, sm := setup()
		store.seedQuestion("q3", "p1", "x")
		_, err := sm.SetActiveQuestion("p1", "owner-1", "q1")
		require.NoError(t, err)

		ledger := services.NewLedger(store)
		_, err = ledger.CastVote("p1", "q1", "a", "v1")
		require.NoError(t, err)

		_, err = sm.SetActiveQuestion("p1", "owner-1", "q3")
		require.NoError(t, err)

		assert.Equal(t, 1, store.voteCount("q1"), "historical tallies must survive")
	})
}
