package services_test

import (
	"fmt"
	"sync"

	"github.com/jhalickman/live-poll/internal/models"
	"github.com/jhalickman/live-poll/internal/services"
)

// fakeStore is an in-memory services.Store for unit tests.
type fakeStore struct {
	mu        sync.Mutex
	polls     map[string]*models.Poll
	questions map[string]*models.Question
	votes     map[string]map[string]string // questionID -> voterID -> optionID

	upsertErr error // injected failure for the next UpsertVote
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		polls:     make(map[string]*models.Poll),
		questions: make(map[string]*models.Question),
		votes:     make(map[string]map[string]string),
	}
}

func (f *fakeStore) seedPoll(id, ownerID string, status models.PollStatus) *models.Poll {
	f.mu.Lock()
	defer f.mu.Unlock()

	poll := &models.Poll{ID: id, Title: "poll " + id, Status: status, OwnerID: ownerID}
	f.polls[id] = poll
	return poll
}

func (f *fakeStore) seedQuestion(id, pollID string, optionIDs ...string) *models.Question {
	f.mu.Lock()
	defer f.mu.Unlock()

	question := &models.Question{ID: id, PollID: pollID, Text: "question " + id}
	for _, optID := range optionIDs {
		question.Options = append(question.Options, models.Option{
			ID:         optID,
			QuestionID: id,
			Text:       "option " + optID,
		})
	}
	f.questions[id] = question
	return question
}

func (f *fakeStore) GetPoll(pollID string) (*models.Poll, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	poll, ok := f.polls[pollID]
	if !ok {
		return nil, fmt.Errorf("poll %s: %w", pollID, services.ErrNotFound)
	}
	copied := *poll
	return &copied, nil
}

func (f *fakeStore) GetPollOwner(pollID string) (string, error) {
	poll, err := f.GetPoll(pollID)
	if err != nil {
		return "", err
	}
	return poll.OwnerID, nil
}

func (f *fakeStore) GetQuestion(questionID string) (*models.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	question, ok := f.questions[questionID]
	if !ok {
		return nil, fmt.Errorf("question %s: %w", questionID, services.ErrNotFound)
	}
	copied := *question
	copied.Options = append([]models.Option(nil), question.Options...)
	return &copied, nil
}

func (f *fakeStore) SetPollStatus(pollID string, status models.PollStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	poll, ok := f.polls[pollID]
	if !ok {
		return fmt.Errorf("poll %s: %w", pollID, services.ErrNotFound)
	}
	poll.Status = status
	return nil
}

func (f *fakeStore) SetActiveQuestion(pollID, questionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	poll, ok := f.polls[pollID]
	if !ok {
		return fmt.Errorf("poll %s: %w", pollID, services.ErrNotFound)
	}
	poll.ActiveQuestionID = questionID
	return nil
}

func (f *fakeStore) UpsertVote(voterID, questionID, optionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.upsertErr != nil {
		err := f.upsertErr
		f.upsertErr = nil
		return err
	}

	if f.votes[questionID] == nil {
		f.votes[questionID] = make(map[string]string)
	}
	f.votes[questionID][voterID] = optionID
	return nil
}

func (f *fakeStore) CountVotesByOption(questionID string) (map[string]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	counts := make(map[string]int)
	for _, optionID := range f.votes[questionID] {
		counts[optionID]++
	}
	return counts, nil
}

// voteCount returns the number of vote rows recorded for a question.
func (f *fakeStore) voteCount(questionID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.votes[questionID])
}
