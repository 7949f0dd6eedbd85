package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/najah-ai/learner-service/internal/events"
)

const (
	PublisherKafka = "kafka"
	PublisherMock  = "mock"
)

// EventConfig holds configuration for event publishing
type EventConfig struct {
	Enabled      bool   `koanf:"enabled"`
	Publisher    string `koanf:"publisher"` // kafka or mock
	KafkaBrokers string `koanf:"kafka_brokers"`
	Topic        string `koanf:"topic"`
}

func (c *EventConfig) Validate() error {
	switch c.Publisher {
	case PublisherKafka:
		if len(c.GetKafkaBrokers()) == 0 {
			return fmt.Errorf("events.kafka_brokers must not be empty")
		}
		if c.Topic == "" {
			return fmt.Errorf("events.topic must not be empty")
		}
	case PublisherMock:
	default:
		return fmt.Errorf("events.publisher must be %q or %q, got %q", PublisherKafka, PublisherMock, c.Publisher)
	}
	return nil
}

// GetKafkaBrokers returns Kafka brokers as a slice
func (c *EventConfig) GetKafkaBrokers() []string {
	return cleanList(strings.Split(c.KafkaBrokers, ","))
}

// CreateEventPublisher creates an event publisher based on configuration
func (c *EventConfig) CreateEventPublisher(logger *slog.Logger) (events.EventPublisher, error) {
	if !c.Enabled {
		logger.Info("Event publishing disabled, using mock publisher")
		return events.NewMockEventPublisher(logger), nil
	}

	switch c.Publisher {
	case PublisherKafka:
		logger.Info("Creating Kafka event publisher",
			"brokers", c.KafkaBrokers,
			"topic", c.Topic)

		return events.NewKafkaEventPublisher(events.PublisherConfig{
			KafkaBrokers: c.GetKafkaBrokers(),
			TopicName:    c.Topic,
			Logger:       logger,
		})
	default:
		logger.Info("Using mock event publisher")
		return events.NewMockEventPublisher(logger), nil
	}
}
