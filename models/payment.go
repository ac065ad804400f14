package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentSuccess PaymentStatus = "SUCCESS"
	PaymentFailed  PaymentStatus = "FAILED"
)

// Payment is the client's read-only projection of a payment record. The
// backend creates it when a deal is accepted; the client only carries the
// fields the card provider's checkout needs.
type Payment struct {
	ID            int64           `json:"paymentId"`
	DealID        int64           `json:"dealId"`
	BuyerID       int64           `json:"buyerId"`
	Status        PaymentStatus   `json:"paymentStatus"`
	Amount        decimal.Decimal `json:"amount"`
	OrderID       string          `json:"orderId,omitempty"`
	TransactionID string          `json:"tid,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	CompletedAt   *time.Time      `json:"completedAt,omitempty"`
}

// PaymentDetail is the composite the payment detail endpoint returns.
type PaymentDetail struct {
	Payment Payment `json:"payments"`
	Ticket  Ticket  `json:"ticket"`
	Deal    Deal    `json:"deal"`
}
