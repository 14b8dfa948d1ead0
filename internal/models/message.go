package models

import "encoding/json"

type WSMessage struct {
	Type    string          `json:"type"`
	PollID  string          `json:"pollId,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Client → Server command types
const (
	MsgTypeJoin                 = "join"
	MsgTypeChangeActiveQuestion = "change_active_question"
	MsgTypeChangeStatus         = "change_status"
	MsgTypeSubmitVote           = "submit_vote"
)

// Server → Client event types
const (
	MsgTypePollState       = "poll_state" // Initial state sync on join
	MsgTypeQuestionChanged = "question_changed"
	MsgTypeStatusChanged   = "status_changed"
	MsgTypeResultsUpdate   = "results_update"
	MsgTypeError           = "error"
)

// Inbound command payloads.

type JoinPayload struct {
	PollID string `json:"pollId"`
}

type ChangeActiveQuestionPayload struct {
	PollID         string `json:"pollId"`
	NextQuestionID string `json:"nextQuestionId"` // empty clears the active question
}

type ChangeStatusPayload struct {
	PollID string     `json:"pollId"`
	Status PollStatus `json:"status"`
}

type SubmitVotePayload struct {
	PollID          string `json:"pollId"`
	QuestionID      string `json:"questionId"`
	OptionID        string `json:"optionId"`
	VoterIdentifier string `json:"voterIdentifier"`
}

// Outbound event payloads. Every connection in a poll's room receives
// the identical payload.

type QuestionChangedPayload struct {
	ActiveQuestion *Question `json:"activeQuestion"` // nil when cleared
}

type StatusChangedPayload struct {
	Status PollStatus `json:"status"`
}

// PollStatePayload is sent only to the joining connection so a late
// joiner can render without waiting for the next mutation.
type PollStatePayload struct {
	Status         PollStatus   `json:"status"`
	ActiveQuestion *Question    `json:"activeQuestion,omitempty"`
	Tally          *TallyUpdate `json:"tally,omitempty"`
}

// ErrorPayload is a command-rejection acknowledgment, delivered only to
// the originating connection and never broadcast.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewEvent marshals payload into a WSMessage. Marshal failures are a
// programming error on our own payload types, so they surface as an
// empty payload rather than an error return.
func NewEvent(msgType, pollID string, payload any) *WSMessage {
	raw, err := json.Marshal(payload)
	if err != nil {
		raw = nil
	}
	return &WSMessage{Type: msgType, PollID: pollID, Payload: raw}
}
