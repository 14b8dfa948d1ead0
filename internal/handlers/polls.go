package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase/core"

	"github.com/jhalickman/live-poll/internal/models"
	"github.com/jhalickman/live-poll/internal/security"
	"github.com/jhalickman/live-poll/internal/services"
)

// PollHandlers covers the thin HTTP surface around the coordinator:
// creating a poll with its questions and reading current results.
// Everything live goes over the WebSocket command protocol.
type PollHandlers struct {
	store  *services.PollStore
	ledger *services.Ledger
}

func NewPollHandlers(store *services.PollStore) *PollHandlers {
	return &PollHandlers{
		store:  store,
		ledger: services.NewLedger(store),
	}
}

type createPollRequest struct {
	Title     string `json:"title"`
	Questions []struct {
		Text    string   `json:"text"`
		Options []string `json:"options"`
	} `json:"questions"`
}

type createPollResponse struct {
	Poll      *models.Poll       `json:"poll"`
	Questions []*models.Question `json:"questions"`
}

// CreatePoll creates a draft poll owned by the authenticated user.
func (h *PollHandlers) CreatePoll(re *core.RequestEvent) error {
	if re.Auth == nil {
		return re.JSON(http.StatusUnauthorized, map[string]string{
			"error": "authentication required",
		})
	}

	var req createPollRequest
	if err := re.BindBody(&req); err != nil {
		return re.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid request body",
		})
	}

	title, err := security.ValidatePollTitle(req.Title)
	if err != nil {
		return re.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	poll, err := h.store.CreatePoll(re.Auth.Id, title)
	if err != nil {
		return re.JSON(http.StatusInternalServerError, map[string]string{
			"error": security.SanitizeErrorMessage(err),
		})
	}

	questions := make([]*models.Question, 0, len(req.Questions))
	for i, q := range req.Questions {
		text, err := security.ValidateQuestionText(q.Text)
		if err != nil {
			return re.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}

		question, err := h.store.AddQuestion(poll.ID, text, i)
		if err != nil {
			return re.JSON(http.StatusInternalServerError, map[string]string{
				"error": security.SanitizeErrorMessage(err),
			})
		}

		for _, optText := range q.Options {
			optText, err := security.ValidateOptionText(optText)
			if err != nil {
				return re.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
			}
			option, err := h.store.AddOption(question.ID, optText)
			if err != nil {
				return re.JSON(http.StatusInternalServerError, map[string]string{
					"error": security.SanitizeErrorMessage(err),
				})
			}
			question.Options = append(question.Options, *option)
		}
		questions = append(questions, question)
	}

	return re.JSON(http.StatusCreated, createPollResponse{Poll: poll, Questions: questions})
}

// Results returns the current tally for the poll's active question.
// Read access is intentionally public: takers are anonymous.
func (h *PollHandlers) Results(re *core.RequestEvent) error {
	pollID := re.Request.PathValue("id")
	if err := security.ValidateRecordID(pollID); err != nil {
		return re.JSON(http.StatusNotFound, map[string]string{"error": "poll not found"})
	}

	poll, err := h.store.GetPoll(pollID)
	if err != nil {
		return re.JSON(http.StatusNotFound, map[string]string{"error": "poll not found"})
	}

	payload := models.PollStatePayload{Status: poll.Status}
	if poll.ActiveQuestionID != "" {
		question, err := h.store.GetQuestion(poll.ActiveQuestionID)
		if err == nil {
			payload.ActiveQuestion = question
			if tally, err := h.ledger.CurrentTally(question); err == nil {
				payload.Tally = tally
			}
		}
	}

	return re.JSON(http.StatusOK, payload)
}
