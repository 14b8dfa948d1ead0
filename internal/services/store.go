package services

import (
	"fmt"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/security"
	"github.com/pocketbase/pocketbase/tools/types"

	"github.com/jhalickman/live-poll/internal/models"
)

// Store is the durable-store surface the coordinator depends on. The
// database is the only resource shared across processes and is the
// final arbiter of vote uniqueness via its unique index on
// (voter_id, question_id).
type Store interface {
	GetPoll(pollID string) (*models.Poll, error)
	GetPollOwner(pollID string) (string, error)
	GetQuestion(questionID string) (*models.Question, error)
	SetPollStatus(pollID string, status models.PollStatus) error
	SetActiveQuestion(pollID, questionID string) error
	UpsertVote(voterID, questionID, optionID string) error
	CountVotesByOption(questionID string) (map[string]int, error)
}

// PollStore implements Store on top of the PocketBase app.
type PollStore struct {
	app core.App
}

func NewPollStore(app core.App) *PollStore {
	return &PollStore{app: app}
}

// GetPoll retrieves a poll by ID from the database.
func (s *PollStore) GetPoll(pollID string) (*models.Poll, error) {
	record, err := s.app.FindRecordById("polls", pollID)
	if err != nil {
		return nil, fmt.Errorf("poll %s: %w", pollID, ErrNotFound)
	}
	return pollFromRecord(record), nil
}

// GetPollOwner returns the owner identity recorded for a poll.
func (s *PollStore) GetPollOwner(pollID string) (string, error) {
	poll, err := s.GetPoll(pollID)
	if err != nil {
		return "", err
	}
	return poll.OwnerID, nil
}

// GetQuestion retrieves a question and its options.
func (s *PollStore) GetQuestion(questionID string) (*models.Question, error) {
	record, err := s.app.FindRecordById("questions", questionID)
	if err != nil {
		return nil, fmt.Errorf("question %s: %w", questionID, ErrNotFound)
	}

	question := questionFromRecord(record)

	optionRecords, err := s.app.FindRecordsByFilter(
		"options",
		"question_id = {:questionId}",
		"created",
		100,
		0,
		map[string]any{"questionId": questionID},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load options for question %s: %w", questionID, err)
	}
	for _, opt := range optionRecords {
		question.Options = append(question.Options, models.Option{
			ID:         opt.Id,
			QuestionID: questionID,
			Text:       opt.GetString("text"),
		})
	}

	return question, nil
}

// GetPollQuestions retrieves all of a poll's questions in display order.
func (s *PollStore) GetPollQuestions(pollID string) ([]*models.Question, error) {
	records, err := s.app.FindRecordsByFilter(
		"questions",
		"poll_id = {:pollId}",
		"position",
		100,
		0,
		map[string]any{"pollId": pollID},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load questions: %w", err)
	}

	questions := make([]*models.Question, 0, len(records))
	for _, record := range records {
		question, err := s.GetQuestion(record.Id)
		if err != nil {
			return nil, err
		}
		questions = append(questions, question)
	}
	return questions, nil
}

// SetPollStatus persists a poll's status.
func (s *PollStore) SetPollStatus(pollID string, status models.PollStatus) error {
	record, err := s.app.FindRecordById("polls", pollID)
	if err != nil {
		return fmt.Errorf("poll %s: %w", pollID, ErrNotFound)
	}

	record.Set("status", string(status))
	if err := s.app.Save(record); err != nil {
		return fmt.Errorf("failed to save poll status: %w", err)
	}
	return nil
}

// SetActiveQuestion persists a poll's active question. An empty
// questionID clears it.
func (s *PollStore) SetActiveQuestion(pollID, questionID string) error {
	record, err := s.app.FindRecordById("polls", pollID)
	if err != nil {
		return fmt.Errorf("poll %s: %w", pollID, ErrNotFound)
	}

	record.Set("active_question_id", questionID)
	if err := s.app.Save(record); err != nil {
		return fmt.Errorf("failed to save active question: %w", err)
	}
	return nil
}

// UpsertVote records a voter's current choice for a question as a
// single atomic conditional write keyed by (voter_id, question_id).
// Repeated submissions are not additive: the row's option is
// overwritten, so the old and new choice never coexist.
func (s *PollStore) UpsertVote(voterID, questionID, optionID string) error {
	now := types.NowDateTime().String()

	_, err := s.app.DB().NewQuery(`
		INSERT INTO votes (id, voter_id, question_id, option_id, voted_at, created, updated)
		VALUES ({:id}, {:voter}, {:question}, {:option}, {:now}, {:now}, {:now})
		ON CONFLICT (voter_id, question_id)
		DO UPDATE SET option_id = {:option}, voted_at = {:now}, updated = {:now}
	`).Bind(dbx.Params{
		"id":       security.RandomString(15),
		"voter":    voterID,
		"question": questionID,
		"option":   optionID,
		"now":      now,
	}).Execute()
	if err != nil {
		return fmt.Errorf("failed to upsert vote: %w", err)
	}
	return nil
}

// CountVotesByOption recomputes a question's tally by counting current
// vote rows per option. Counting (rather than incrementally maintained
// counters) cannot drift from lost updates.
func (s *PollStore) CountVotesByOption(questionID string) (map[string]int, error) {
	var rows []struct {
		OptionID string `db:"option_id"`
		Total    int    `db:"total"`
	}

	err := s.app.DB().NewQuery(`
		SELECT option_id, COUNT(*) AS total
		FROM votes
		WHERE question_id = {:question}
		GROUP BY option_id
	`).Bind(dbx.Params{"question": questionID}).All(&rows)
	if err != nil {
		return nil, fmt.Errorf("failed to count votes: %w", err)
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.OptionID] = row.Total
	}
	return counts, nil
}

// CreatePoll creates a new poll record in draft status. Poll CRUD
// beyond this is a dashboard concern, not the coordinator's.
func (s *PollStore) CreatePoll(ownerID, title string) (*models.Poll, error) {
	collection, err := s.app.FindCollectionByNameOrId("polls")
	if err != nil {
		return nil, fmt.Errorf("failed to find polls collection: %w", err)
	}

	record := core.NewRecord(collection)
	record.Set("title", title)
	record.Set("status", string(models.StatusDraft))
	record.Set("owner", ownerID)

	if err := s.app.Save(record); err != nil {
		return nil, fmt.Errorf("failed to save poll: %w", err)
	}
	return pollFromRecord(record), nil
}

// AddQuestion appends a question to a poll.
func (s *PollStore) AddQuestion(pollID, text string, position int) (*models.Question, error) {
	collection, err := s.app.FindCollectionByNameOrId("questions")
	if err != nil {
		return nil, fmt.Errorf("failed to find questions collection: %w", err)
	}

	record := core.NewRecord(collection)
	record.Set("poll_id", pollID)
	record.Set("text", text)
	record.Set("position", position)

	if err := s.app.Save(record); err != nil {
		return nil, fmt.Errorf("failed to save question: %w", err)
	}
	return questionFromRecord(record), nil
}

// AddOption appends an option to a question.
func (s *PollStore) AddOption(questionID, text string) (*models.Option, error) {
	collection, err := s.app.FindCollectionByNameOrId("options")
	if err != nil {
		return nil, fmt.Errorf("failed to find options collection: %w", err)
	}

	record := core.NewRecord(collection)
	record.Set("question_id", questionID)
	record.Set("text", text)

	if err := s.app.Save(record); err != nil {
		return nil, fmt.Errorf("failed to save option: %w", err)
	}
	return &models.Option{
		ID:         record.Id,
		QuestionID: questionID,
		Text:       text,
	}, nil
}

func pollFromRecord(record *core.Record) *models.Poll {
	return &models.Poll{
		ID:               record.Id,
		Title:            record.GetString("title"),
		Status:           models.PollStatus(record.GetString("status")),
		ActiveQuestionID: record.GetString("active_question_id"),
		OwnerID:          record.GetString("owner"),
		CreatedAt:        record.GetDateTime("created").Time(),
	}
}

func questionFromRecord(record *core.Record) *models.Question {
	return &models.Question{
		ID:       record.Id,
		PollID:   record.GetString("poll_id"),
		Text:     record.GetString("text"),
		Position: record.GetInt("position"),
	}
}
