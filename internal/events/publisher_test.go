package events

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/najah-ai/learner-service/internal/estimator"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewMessage(t *testing.T) {
	event := NewAbilityUpdatedEvent(AbilityUpdatedEvent{
		StudentID: "student-1",
		Subject:   "maths",
		Correct:   true,
		Previous:  estimator.AbilityState{Ability: 0.5, Confidence: 0.3},
		Current:   estimator.AbilityState{Ability: 0.55, Confidence: 0.35},
	})

	msg, err := NewMessage(event)
	require.NoError(t, err)

	assert.Equal(t, event.ID, msg.UUID)
	assert.Equal(t, string(EventAbilityUpdated), msg.Metadata.Get("event_type"))
	assert.Equal(t, EventSource, msg.Metadata.Get("source"))
	assert.Equal(t, EventVersion, msg.Metadata.Get("version"))
	assert.Equal(t, "student-1", msg.Metadata.Get("student_id"))

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(msg.Payload, &decoded))
	assert.Equal(t, "ability.updated", decoded["type"])
	data := decoded["data"].(map[string]interface{})
	assert.Equal(t, "maths", data["subject"])
}

func TestEventFactories(t *testing.T) {
	t.Run("ids are unique", func(t *testing.T) {
		a := NewTrendAnalyzedEvent(TrendAnalyzedEvent{StudentID: "s"})
		b := NewTrendAnalyzedEvent(TrendAnalyzedEvent{StudentID: "s"})
		assert.NotEqual(t, a.ID, b.ID)
	})

	t.Run("student id is read from every payload", func(t *testing.T) {
		assert.Equal(t, "s1", NewAbilityUpdatedEvent(AbilityUpdatedEvent{StudentID: "s1"}).StudentID())
		assert.Equal(t, "s2", NewAbilityLevelChangedEvent(AbilityLevelChangedEvent{StudentID: "s2"}).StudentID())
		assert.Equal(t, "s3", NewAbilityResetEvent(AbilityResetEvent{StudentID: "s3"}).StudentID())
		assert.Equal(t, "s4", NewTrendAnalyzedEvent(TrendAnalyzedEvent{StudentID: "s4"}).StudentID())
		assert.Empty(t, (&LearnerEvent{Data: "other"}).StudentID())
	})
}

func TestWatermillEventPublisher(t *testing.T) {
	logger := testLogger()
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NewSlogLogger(logger))
	defer pubSub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	messages, err := pubSub.Subscribe(ctx, "learner-events")
	require.NoError(t, err)

	publisher := NewWatermillEventPublisher(pubSub, "learner-events", logger)
	event := NewAbilityLevelChangedEvent(AbilityLevelChangedEvent{
		StudentID:     "student-7",
		Subject:       "francais",
		PreviousLevel: 4,
		CurrentLevel:  5,
	})

	require.NoError(t, publisher.PublishLearnerEvent(ctx, event))

	select {
	case msg := <-messages:
		msg.Ack()
		assert.Equal(t, event.ID, msg.UUID)
		assert.Equal(t, "student-7", msg.Metadata.Get("student_id"))
	case <-ctx.Done():
		t.Fatal("message was not delivered")
	}
}

func TestPartitionByStudent(t *testing.T) {
	msg := message.NewMessage("id", nil)
	msg.Metadata.Set("student_id", "student-42")

	key, err := partitionByStudent("learner-events", msg)
	require.NoError(t, err)
	assert.Equal(t, "student-42", key)
}

func TestMockEventPublisher(t *testing.T) {
	publisher := NewMockEventPublisher(testLogger())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = publisher.PublishLearnerEvent(ctx, NewTrendAnalyzedEvent(TrendAnalyzedEvent{StudentID: "s"}))
		}()
	}
	wg.Wait()

	require.NoError(t, publisher.PublishLearnerEvent(ctx, NewAbilityResetEvent(AbilityResetEvent{StudentID: "s"})))

	assert.Len(t, publisher.GetPublishedEvents(), 21)
	assert.Len(t, publisher.EventsOfType(EventTrendAnalyzed), 20)
	assert.Len(t, publisher.EventsOfType(EventAbilityReset), 1)

	publisher.ClearEvents()
	assert.Empty(t, publisher.GetPublishedEvents())
	assert.NoError(t, publisher.Close())
}
