package services

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/jhalickman/live-poll/internal/config"
	"github.com/jhalickman/live-poll/internal/models"
	"github.com/jhalickman/live-poll/internal/security"
)

// Coordinator receives inbound commands and votes, invokes the state
// machine or vote ledger, and triggers dispatch to the poll's room.
//
// Commands for one poll are serialized through a per-poll queue: a
// single goroutine drains each queue, so a second command for the same
// poll never runs concurrently with an in-flight write for that poll
// and broadcasts leave in the order their mutations were accepted.
// Distinct polls proceed independently.
type Coordinator struct {
	store      Store
	state      *StateMachine
	ledger     *Ledger
	registry   *Registry
	dispatcher *Dispatcher
	metrics    *Metrics

	mu     sync.Mutex
	queues map[string]chan func()
}

func NewCoordinator(store Store, registry *Registry, metrics *Metrics) *Coordinator {
	return &Coordinator{
		store:      store,
		state:      NewStateMachine(store, NewGuard(store)),
		ledger:     NewLedger(store),
		registry:   registry,
		dispatcher: NewDispatcher(registry, metrics),
		metrics:    metrics,
		queues:     make(map[string]chan func()),
	}
}

// Registry exposes room membership for health reporting.
func (co *Coordinator) Registry() *Registry {
	return co.registry
}

// Connect registers a new live connection.
func (co *Coordinator) Connect(c *Client) {
	co.metrics.IncrementConnections()
}

// Disconnect removes a connection from its room. Safe to call for
// connections that never joined one.
func (co *Coordinator) Disconnect(c *Client) {
	co.registry.Leave(c)
	co.metrics.DecrementConnections()
}

// HandleCommand parses one inbound logical message and routes it
// through the owning poll's sequencing queue. Malformed messages are
// rejected straight back to the sender without touching any queue.
func (co *Coordinator) HandleCommand(c *Client, raw []byte) {
	var msg models.WSMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		co.rejectRaw(c, CodeInvalidPayload, "malformed message")
		return
	}
	if !security.IsValidCommandType(msg.Type) {
		co.rejectRaw(c, CodeInvalidPayload, "unknown command type: "+msg.Type)
		return
	}

	switch msg.Type {
	case models.MsgTypeJoin:
		var p models.JoinPayload
		if !co.decodePayload(c, &msg, &p, &p.PollID) {
			return
		}
		co.enqueue(c, p.PollID, msg.Type, func() error {
			return co.handleJoin(c, p)
		})

	case models.MsgTypeChangeStatus:
		var p models.ChangeStatusPayload
		if !co.decodePayload(c, &msg, &p, &p.PollID) {
			return
		}
		co.enqueue(c, p.PollID, msg.Type, func() error {
			return co.handleChangeStatus(c, p)
		})

	case models.MsgTypeChangeActiveQuestion:
		var p models.ChangeActiveQuestionPayload
		if !co.decodePayload(c, &msg, &p, &p.PollID) {
			return
		}
		co.enqueue(c, p.PollID, msg.Type, func() error {
			return co.handleChangeActiveQuestion(c, p)
		})

	case models.MsgTypeSubmitVote:
		var p models.SubmitVotePayload
		if !co.decodePayload(c, &msg, &p, &p.PollID) {
			return
		}
		co.enqueue(c, p.PollID, msg.Type, func() error {
			return co.handleSubmitVote(c, p)
		})
	}
}

// decodePayload unmarshals the command payload and resolves the target
// poll id, falling back to the envelope's pollId. Reports failure to
// the sender and returns false when the command cannot be routed.
func (co *Coordinator) decodePayload(c *Client, msg *models.WSMessage, payload any, pollID *string) bool {
	if len(msg.Payload) > 0 {
		if err := json.Unmarshal(msg.Payload, payload); err != nil {
			co.rejectRaw(c, CodeInvalidPayload, "malformed "+msg.Type+" payload")
			return false
		}
	}
	if *pollID == "" {
		*pollID = msg.PollID
	}
	if *pollID == "" {
		co.rejectRaw(c, CodeInvalidPayload, msg.Type+" requires a pollId")
		return false
	}
	return true
}

// enqueue schedules fn on pollID's sequencing queue. Each command runs
// isolated: a panic rejects only that command and leaves the queue
// draining, so a fault never takes down unrelated polls' rooms.
func (co *Coordinator) enqueue(c *Client, pollID, cmd string, fn func() error) {
	co.queue(pollID) <- func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("panic handling %s for poll %s: %v", cmd, pollID, r)
				co.metrics.IncrementCommandsRejected()
				co.rejectRaw(c, CodeInternal, "internal error")
			}
		}()

		if err := fn(); err != nil {
			co.reject(c, pollID, cmd, err)
			return
		}
		co.metrics.IncrementCommandsAccepted()
	}
}

func (co *Coordinator) queue(pollID string) chan func() {
	co.mu.Lock()
	defer co.mu.Unlock()

	q, ok := co.queues[pollID]
	if !ok {
		q = make(chan func(), config.PollQueueBufferSize)
		co.queues[pollID] = q
		go func() {
			for fn := range q {
				fn()
			}
		}()
	}
	return q
}

// handleJoin adds the connection to the poll's room and replies with a
// state snapshot so late joiners can render immediately. Join is
// anonymous and idempotent.
func (co *Coordinator) handleJoin(c *Client, p models.JoinPayload) error {
	poll, err := co.store.GetPoll(p.PollID)
	if err != nil {
		return err
	}

	co.registry.Join(poll.ID, c)
	log.Printf("Connection joined room: poll=%s identity=%s", poll.ID, c.identity)

	snapshot := models.PollStatePayload{Status: poll.Status}
	if poll.ActiveQuestionID != "" {
		question, err := co.store.GetQuestion(poll.ActiveQuestionID)
		if err == nil {
			snapshot.ActiveQuestion = question
			if tally, err := co.ledger.CurrentTally(question); err == nil {
				snapshot.Tally = tally
			}
		}
	}
	co.dispatcher.Send(c, models.NewEvent(models.MsgTypePollState, poll.ID, snapshot))
	return nil
}

// handleChangeStatus is owner-only and broadcasts the accepted status
// to the room.
func (co *Coordinator) handleChangeStatus(c *Client, p models.ChangeStatusPayload) error {
	status, err := co.state.SetStatus(p.PollID, c.identity, p.Status)
	if err != nil {
		return err
	}

	co.dispatcher.Broadcast(p.PollID, models.NewEvent(
		models.MsgTypeStatusChanged,
		p.PollID,
		models.StatusChangedPayload{Status: status},
	))
	return nil
}

// handleChangeActiveQuestion is owner-only and broadcasts the new
// active question (with options) to the room; an empty nextQuestionId
// clears it.
func (co *Coordinator) handleChangeActiveQuestion(c *Client, p models.ChangeActiveQuestionPayload) error {
	question, err := co.state.SetActiveQuestion(p.PollID, c.identity, p.NextQuestionID)
	if err != nil {
		return err
	}

	co.dispatcher.Broadcast(p.PollID, models.NewEvent(
		models.MsgTypeQuestionChanged,
		p.PollID,
		models.QuestionChangedPayload{ActiveQuestion: question},
	))
	return nil
}

// handleSubmitVote is anonymous; an accepted vote broadcasts the
// recomputed tally to the room. A missing voterIdentifier falls back
// to the connection-scoped one.
func (co *Coordinator) handleSubmitVote(c *Client, p models.SubmitVotePayload) error {
	voterID := p.VoterIdentifier
	if voterID == "" {
		voterID = c.voterFallback
	}
	if err := security.ValidateVoterIdentifier(voterID); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	tally, err := co.ledger.CastVote(p.PollID, p.QuestionID, p.OptionID, voterID)
	if err != nil {
		return err
	}

	co.dispatcher.Broadcast(p.PollID, models.NewEvent(
		models.MsgTypeResultsUpdate,
		p.PollID,
		tally,
	))
	return nil
}

// reject reports a command failure back to the originating connection
// only; rejections are never broadcast to the room.
func (co *Coordinator) reject(c *Client, pollID, cmd string, err error) {
	log.Printf("Rejected %s for poll %s: %v", cmd, pollID, err)
	co.metrics.IncrementCommandsRejected()
	co.dispatcher.Send(c, models.NewEvent(models.MsgTypeError, pollID, models.ErrorPayload{
		Code:    RejectionCode(err),
		Message: security.SanitizeErrorMessage(err),
	}))
}

func (co *Coordinator) rejectRaw(c *Client, code, message string) {
	co.metrics.IncrementCommandsRejected()
	co.dispatcher.Send(c, models.NewEvent(models.MsgTypeError, "", models.ErrorPayload{
		Code:    code,
		Message: message,
	}))
}
