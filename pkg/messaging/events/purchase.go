package events

import (
	"encoding/json"
	"time"

	"github.com/SauloAssisEngMec/API-shopping-cart/pkg/messaging"
	"github.com/google/uuid"
)

type PurchaseCompletedEvent struct {
	PurchaseID uuid.UUID `json:"purchase_id"`
	UserID     uuid.UUID `json:"user_id"`
	Total      int64     `json:"total"`
	Items      int       `json:"items"`
	CreatedAt  time.Time `json:"created_at"`
}

func (p PurchaseCompletedEvent) Subject() string {
	return messaging.PurchasesCompletedSubject
}

func (p PurchaseCompletedEvent) Payload() ([]byte, error) {
	return json.Marshal(p)
}
