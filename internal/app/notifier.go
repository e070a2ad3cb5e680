package app

import (
	"context"
	"log"

	"github.com/Dsek-LTH/new-web/internal/domain"
)

// Notification tells a buyer that a unit of a Shoppable became available to
// them: either their lottery entry won, or their queue position reached the
// front and a hold was created for them.
type Notification struct {
	Identification domain.Identification
	ShoppableID    string
}

// Notifier delivers availability notifications. Delivery is fire-and-forget;
// implementations must not fail the caller. Notifications are always emitted
// after the transaction that produced them has committed.
type Notifier interface {
	NotifyAvailable(ctx context.Context, notifications []Notification)
}

// LogNotifier writes notifications to a logger. It stands in for the real
// delivery channel (mail, push) which lives outside this core.
type LogNotifier struct {
	logger *log.Logger
}

func NewLogNotifier(logger *log.Logger) *LogNotifier {
	if logger == nil {
		logger = log.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) NotifyAvailable(_ context.Context, notifications []Notification) {
	for _, note := range notifications {
		who := note.Identification.MemberID
		if note.Identification.Anonymous() {
			who = note.Identification.ExternalCode
		}
		n.logger.Printf("notify available shoppable=%s recipient=%s", note.ShoppableID, who)
	}
}
