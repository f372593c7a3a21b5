// Package stimulus triggers the scraper pipeline whose effects the
// verification core observes. Publishing is the only write this tool
// performs; everything downstream of it is read-only.
package stimulus

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/pubsub"
	"github.com/sirupsen/logrus"
)

// Request is the pipeline trigger payload.
type Request struct {
	Keywords    []string `json:"keywords"`
	URLs        []string `json:"urls"`
	ScrapeDepth int      `json:"scrape_depth"`
	Persist     bool     `json:"persist"`
	LogLevel    string   `json:"log_level"`
}

// DefaultRequest returns the canonical trigger payload used when the
// caller does not override keywords or URLs.
func DefaultRequest() *Request {
	return &Request{
		Keywords: []string{"fenerbahce", "galatasaray", "mourinho", "transfer", "derbi"},
		URLs: []string{
			"https://www.fanatik.com.tr",
			"https://www.ntvspor.net",
			"https://www.trtspor.com.tr/haber/futbol",
		},
		ScrapeDepth: 1,
		Persist:     false,
		LogLevel:    "INFO",
	}
}

// Publisher publishes pipeline trigger requests to Pub/Sub.
type Publisher struct {
	client *pubsub.Client
	topic  string
	log    logrus.FieldLogger
}

// NewPublisher creates a publisher for one project and topic.
func NewPublisher(ctx context.Context, log logrus.FieldLogger, projectID, topic string) (*Publisher, error) {
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	return &Publisher{
		client: client,
		topic:  topic,
		log:    log.WithField("component", "stimulus_publisher"),
	}, nil
}

// Publish sends one trigger request and returns the message ID.
func (p *Publisher) Publish(ctx context.Context, req *Request) (string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}

	result := p.client.Topic(p.topic).Publish(ctx, &pubsub.Message{Data: payload})

	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publishing to %s: %w", p.topic, err)
	}

	p.log.WithFields(logrus.Fields{
		"topic":      p.topic,
		"message_id": id,
	}).Info("pipeline trigger published")

	return id, nil
}

// Close releases the underlying client.
func (p *Publisher) Close() error {
	return p.client.Close()
}
