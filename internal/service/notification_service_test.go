package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/queue-service/internal/domain"
	"github.com/spec-kit/queue-service/internal/events"
)

func TestNotificationBroadcastsClientCalled(t *testing.T) {
	client, mock := redismock.NewClientMock()
	mock.Regexp().ExpectPublish("queue:display", `.*client_called.*`).SetVal(1)

	dispatcher := events.NewInMemoryDispatcher(nil)
	svc := NewNotificationService(dispatcher, zap.NewNop(), client, "queue:display")
	svc.RegisterHandlers()

	attendantID := "att-1"
	err := dispatcher.Publish(context.Background(), events.Event{
		ID:        "evt-1",
		Type:      events.EventClientCalled,
		Actor:     events.Actor{Role: domain.RoleBox, AttendantID: &attendantID},
		Timestamp: time.Now(),
		Payload: events.ClientCalledPayload{
			AssignmentID:  "asg-1",
			TicketID:      "tic-1",
			DisplayNumber: "REG-1",
			ServiceName:   "Registration",
			AttendantID:   attendantID,
			Desk:          domain.Desk{Label: "Box", Number: "1"},
			CalledAt:      time.Now(),
		},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationBroadcastsTicketIssued(t *testing.T) {
	client, mock := redismock.NewClientMock()
	mock.Regexp().ExpectPublish("queue:display", `.*ticket_issued.*`).SetVal(1)

	dispatcher := events.NewInMemoryDispatcher(nil)
	svc := NewNotificationService(dispatcher, zap.NewNop(), client, "queue:display")
	svc.RegisterHandlers()

	err := dispatcher.Publish(context.Background(), events.Event{
		ID:        "evt-2",
		Type:      events.EventTicketIssued,
		Actor:     events.Actor{Role: domain.RoleIntake},
		Timestamp: time.Now(),
		Payload: events.TicketIssuedPayload{
			TicketID:       "tic-1",
			ServiceCode:    "REG",
			SequenceNumber: 1,
			DisplayNumber:  "REG-1",
			IssuedAt:       time.Now(),
		},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationSkipsBroadcastWithoutRedis(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher(nil)
	svc := NewNotificationService(dispatcher, zap.NewNop(), nil, "queue:display")
	svc.RegisterHandlers()

	err := dispatcher.Publish(context.Background(), events.Event{
		ID:        "evt-3",
		Type:      events.EventAvailabilityChanged,
		Actor:     events.Actor{Role: domain.RoleBox},
		Timestamp: time.Now(),
		Payload: events.AvailabilityChangedPayload{
			AttendantID: "att-1",
			OldState:    domain.AvailabilityOffline,
			NewState:    domain.AvailabilityAvailable,
			Version:     1,
		},
	})
	require.NoError(t, err)
}
