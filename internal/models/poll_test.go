package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhalickman/live-poll/internal/models"
)

func TestPollStatus_CanTransitionTo(t *testing.T) {
	cases := []struct {
		from    models.PollStatus
		to      models.PollStatus
		allowed bool
	}{
		{models.StatusDraft, models.StatusOpen, true},
		{models.StatusDraft, models.StatusClosed, true},
		{models.StatusOpen, models.StatusClosed, true},
		{models.StatusOpen, models.StatusDraft, false},
		{models.StatusClosed, models.StatusOpen, false},
		{models.StatusClosed, models.StatusDraft, false},
		{models.StatusDraft, models.StatusDraft, false},
		{models.StatusOpen, models.StatusOpen, false},
		{models.StatusOpen, models.PollStatus("archived"), false},
		{models.PollStatus(""), models.StatusOpen, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestPoll_AcceptsVotes(t *testing.T) {
	assert.False(t, (&models.Poll{Status: models.StatusDraft}).AcceptsVotes())
	assert.True(t, (&models.Poll{Status: models.StatusOpen}).AcceptsVotes())
	assert.False(t, (&models.Poll{Status: models.StatusClosed}).AcceptsVotes())
}

func TestQuestion_HasOption(t *testing.T) {
	q := &models.Question{
		ID: "q1",
		Options: []models.Option{
			{ID: "a", QuestionID: "q1"},
			{ID: "b", QuestionID: "q1"},
		},
	}

	assert.True(t, q.HasOption("a"))
	assert.True(t, q.HasOption("b"))
	assert.False(t, q.HasOption("c"))
	assert.False(t, q.HasOption(""))
}

func TestNewTallyUpdate(t *testing.T) {
	q := &models.Question{
		ID: "q1",
		Options: []models.Option{
			{ID: "a"},
			{ID: "b"},
			{ID: "c"},
		},
	}

	t.Run("zero-fills options without votes", func(t *testing.T) {
		tally := models.NewTallyUpdate(q, map[string]int{"b": 2})

		assert.Equal(t, "q1", tally.QuestionID)
		assert.Equal(t, []models.OptionCount{
			{OptionID: "a", Count: 0},
			{OptionID: "b", Count: 2},
			{OptionID: "c", Count: 0},
		}, tally.Results)
	})

	t.Run("ignores counts for unknown options", func(t *testing.T) {
		tally := models.NewTallyUpdate(q, map[string]int{"zz": 5})

		for _, result := range tally.Results {
			assert.Zero(t, result.Count)
		}
	})
}
