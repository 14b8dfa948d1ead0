package services_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jhalickman/live-poll/internal/models"
	"github.com/jhalickman/live-poll/internal/services"
	"github.com/jhalickman/live-poll/internal/testutil"
)

func startTestClient(t *testing.T) (*services.Client, *testutil.MockConn) {
	t.Helper()
	client, conn := newTestClient("")
	client.Start()
	t.Cleanup(client.Close)
	return client, conn
}

func messagesOfType(conn *testutil.MockConn, msgType string) []models.WSMessage {
	var matched []models.WSMessage
	for _, raw := range conn.ReceivedMessages() {
		var msg models.WSMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}
		if msg.Type == msgType {
			matched = append(matched, msg)
		}
	}
	return matched
}

func TestDispatcher_Broadcast(t *testing.T) {
	t.Run("reaches every room member and only those", func(t *testing.T) {
		registry := services.NewRegistry()
		dispatcher := services.NewDispatcher(registry, services.NewMetrics())

		c1, conn1 := startTestClient(t)
		c2, conn2 := startTestClient(t)
		c3, conn3 := startTestClient(t)
		registry.Join("p1", c1)
		registry.Join("p1", c2)
		registry.Join("p2", c3)

		dispatcher.Broadcast("p1", models.NewEvent(
			models.MsgTypeStatusChanged, "p1",
			models.StatusChangedPayload{Status: models.StatusOpen},
		))

		assert.Eventually(t, func() bool {
			return len(messagesOfType(conn1, models.MsgTypeStatusChanged)) == 1 &&
				len(messagesOfType(conn2, models.MsgTypeStatusChanged)) == 1
		}, time.Second, 10*time.Millisecond)

		time.Sleep(50 * time.Millisecond)
		assert.Empty(t, messagesOfType(conn3, models.MsgTypeStatusChanged),
			"other rooms must not receive the event")
	})

	t.Run("double join yields exactly one delivery", func(t *testing.T) {
		registry := services.NewRegistry()
		dispatcher := services.NewDispatcher(registry, services.NewMetrics())

		c1, conn1 := startTestClient(t)
		registry.Join("p1", c1)
		registry.Join("p1", c1)

		dispatcher.Broadcast("p1", models.NewEvent(
			models.MsgTypeStatusChanged, "p1",
			models.StatusChangedPayload{Status: models.StatusOpen},
		))

		assert.Eventually(t, func() bool {
			return len(messagesOfType(conn1, models.MsgTypeStatusChanged)) == 1
		}, time.Second, 10*time.Millisecond)

		time.Sleep(50 * time.Millisecond)
		assert.Len(t, messagesOfType(conn1, models.MsgTypeStatusChanged), 1)
	})

	t.Run("one dead connection does not abort the others", func(t *testing.T) {
		registry := services.NewRegistry()
		dispatcher := services.NewDispatcher(registry, services.NewMetrics())

		c1, conn1 := startTestClient(t)
		c2, conn2 := startTestClient(t)
		registry.Join("p1", c1)
		registry.Join("p1", c2)

		conn1.SetWriteErr(errors.New("connection reset"))

		assert.NotPanics(t, func() {
			dispatcher.Broadcast("p1", models.NewEvent(
				models.MsgTypeStatusChanged, "p1",
				models.StatusChangedPayload{Status: models.StatusClosed},
			))
		})

		assert.Eventually(t, func() bool {
			return len(messagesOfType(conn2, models.MsgTypeStatusChanged)) == 1
		}, time.Second, 10*time.Millisecond)
	})

	t.Run("per-connection delivery preserves broadcast order", func(t *testing.T) {
		registry := services.NewRegistry()
		dispatcher := services.NewDispatcher(registry, services.NewMetrics())

		c1, conn1 := startTestClient(t)
		registry.Join("p1", c1)

		for _, status := range []models.PollStatus{models.StatusOpen, models.StatusClosed} {
			dispatcher.Broadcast("p1", models.NewEvent(
				models.MsgTypeStatusChanged, "p1",
				models.StatusChangedPayload{Status: status},
			))
		}

		assert.Eventually(t, func() bool {
			return len(messagesOfType(conn1, models.MsgTypeStatusChanged)) == 2
		}, time.Second, 10*time.Millisecond)

		events := messagesOfType(conn1, models.MsgTypeStatusChanged)
		var first, second models.StatusChangedPayload
		assert.NoError(t, json.Unmarshal(events[0].Payload, &first))
		assert.NoError(t, json.Unmarshal(events[1].Payload, &second))
		assert.Equal(t, models.StatusOpen, first.Status)
		assert.Equal(t, models.StatusClosed, second.Status)
	})
}

func TestDispatcher_Send(t *testing.T) {
	registry := services.NewRegistry()
	dispatcher := services.NewDispatcher(registry, services.NewMetrics())

	c1, conn1 := startTestClient(t)
	c2, conn2 := startTestClient(t)
	registry.Join("p1", c1)
	registry.Join("p1", c2)

	dispatcher.Send(c1, models.NewEvent(models.MsgTypeError, "p1", models.ErrorPayload{
		Code: services.CodeForbidden,
	}))

	assert.Eventually(t, func() bool {
		return len(messagesOfType(conn1, models.MsgTypeError)) == 1
	}, time.Second, 10*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, messagesOfType(conn2, models.MsgTypeError),
		"rejections go only to the originating connection")
}
