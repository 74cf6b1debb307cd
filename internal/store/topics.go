// Package store implements the data gateway over SQLite and Firestore.
package store

import (
	"context"
	"strings"

	"github.com/evcraddock/rent-finder/internal/live"
)

// TopicApartments is published whenever any apartment changes.
const TopicApartments = "apartments"

// ApartmentTopic is published when one apartment changes.
func ApartmentTopic(id string) string { return "apartment/" + id }

// CommentsTopic is published when a top-level comment is added to an apartment.
func CommentsTopic(apartmentID string) string { return "comments/" + apartmentID }

// RepliesTopic is published when a reply is added to a comment.
func RepliesTopic(parentID string) string { return "replies/" + parentID }

// Publisher announces changed topics to every watcher of the store.
type Publisher interface {
	Publish(ctx context.Context, topics ...string) error
}

// HubPublisher publishes straight into an in-process hub.
type HubPublisher struct {
	Hub *live.Hub
}

// Publish implements Publisher.
func (p HubPublisher) Publish(_ context.Context, topics ...string) error {
	p.Hub.Publish(topics...)
	return nil
}

func encodeTopics(topics []string) string {
	return strings.Join(topics, "\n")
}

func decodeTopics(payload string) []string {
	var topics []string
	for _, t := range strings.Split(payload, "\n") {
		if t = strings.TrimSpace(t); t != "" {
			topics = append(topics, t)
		}
	}
	return topics
}
