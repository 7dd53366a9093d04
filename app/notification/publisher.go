package notification

import (
	"log/slog"

	"github.com/contentops/review-cycle/app/database"
)

// Publisher hands a notification record to the delivery fan-out system
// (watchers/subscribers of the content item). Delivery and retry are the
// collaborator's responsibility.
type Publisher interface {
	Publish(n *database.ReviewNotification) error
}

// LogPublisher is the default publisher: it records the publish event in
// the log. Deployments wire a real delivery integration in its place.
type LogPublisher struct{}

func NewLogPublisher() *LogPublisher {
	return &LogPublisher{}
}

func (p *LogPublisher) Publish(n *database.ReviewNotification) error {
	slog.Info("Review due notification published",
		"content_id", n.ContentID,
		"site", n.SiteName,
		"label", n.ContentLabel,
		"due_date", n.DueDate)
	return nil
}
