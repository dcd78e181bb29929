package events

import (
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// PubSubConfig selects the transport. With no brokers an in-process
// channel is used, which is enough for a single instance.
type PubSubConfig struct {
	Brokers       []string
	ConsumerGroup string
}

// PubSub bundles a publisher and subscriber on the same transport.
type PubSub struct {
	Publisher  message.Publisher
	Subscriber message.Subscriber
	Backend    string
}

func NewPubSub(cfg PubSubConfig, logger *slog.Logger) (*PubSub, error) {
	wmLogger := NewWatermillLogger(logger)

	if len(cfg.Brokers) == 0 {
		ch := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 256}, wmLogger)
		return &PubSub{Publisher: ch, Subscriber: ch, Backend: "gochannel"}, nil
	}

	publisher, err := kafka.NewPublisher(kafka.PublisherConfig{
		Brokers:   cfg.Brokers,
		Marshaler: kafka.DefaultMarshaler{},
	}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka publisher: %w", err)
	}

	subscriber, err := kafka.NewSubscriber(kafka.SubscriberConfig{
		Brokers:               cfg.Brokers,
		Unmarshaler:           kafka.DefaultMarshaler{},
		OverwriteSaramaConfig: kafka.DefaultSaramaSubscriberConfig(),
		ConsumerGroup:         cfg.ConsumerGroup,
	}, wmLogger)
	if err != nil {
		publisher.Close()
		return nil, fmt.Errorf("failed to create kafka subscriber: %w", err)
	}

	return &PubSub{Publisher: publisher, Subscriber: subscriber, Backend: "kafka"}, nil
}

// Close closes the subscriber and the publisher. For gochannel both are the
// same object and closing twice is harmless.
func (p *PubSub) Close() error {
	subErr := p.Subscriber.Close()
	pubErr := p.Publisher.Close()
	if subErr != nil {
		return subErr
	}
	return pubErr
}
