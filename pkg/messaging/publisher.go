package messaging

import (
	"context"
)

// PurchasesStream is the JetStream stream holding purchase events.
const PurchasesStream = "PURCHASES"

// PurchasesCompletedSubject is the subject purchase completion events are published to.
const PurchasesCompletedSubject = "purchases.completed"

type Event interface {
	Subject() string
	Payload() ([]byte, error)
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}
