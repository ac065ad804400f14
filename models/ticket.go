package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TicketStatus string

const (
	TicketAvailable TicketStatus = "AVAILABLE"
	TicketReserved  TicketStatus = "RESERVED"
	TicketSold      TicketStatus = "SOLD"
)

// Ticket is a listing owned by a seller. The client never mutates it
// directly; its status moves as a side effect of deal transitions.
type Ticket struct {
	ID           int64           `json:"ticketId"`
	SellerID     int64           `json:"sellerId"`
	EventName    string          `json:"eventName"`
	EventDate    time.Time       `json:"eventDate"`
	Venue        string          `json:"venue,omitempty"`
	SellingPrice decimal.Decimal `json:"sellingPrice"`
	Quantity     int             `json:"quantity"`
	Status       TicketStatus    `json:"status"`
}
