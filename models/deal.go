package models

import (
	"time"
)

// DealStatus is the server-owned lifecycle status of a deal.
type DealStatus string

const (
	DealRequested DealStatus = "REQUESTED"
	DealAccepted  DealStatus = "ACCEPTED"
	DealRejected  DealStatus = "REJECTED"
	DealCancelled DealStatus = "CANCELLED"
	DealPaid      DealStatus = "PAID"
	DealCompleted DealStatus = "COMPLETED"
)

// Terminal reports whether no further transition can leave this status.
func (s DealStatus) Terminal() bool {
	switch s {
	case DealRejected, DealCancelled, DealCompleted:
		return true
	}
	return false
}

// Deal is a buyer/seller negotiation over a ticket. The backend owns the
// lifecycle; the client only holds the most recently fetched snapshot.
type Deal struct {
	ID           int64      `json:"dealId"`
	TicketID     int64      `json:"ticketId"`
	BuyerID      int64      `json:"buyerId"`
	SellerID     int64      `json:"sellerId"`
	Quantity     int        `json:"quantity"`
	Status       DealStatus `json:"status"`
	BuyerMessage string     `json:"buyerMessage,omitempty"`
	CancelReason string     `json:"cancelReason,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	ExpiresAt    time.Time  `json:"expiresAt"`
}

// DealPage is one page of a deal listing (my-deals, purchase/sales history).
type DealPage struct {
	Content       []Deal `json:"content"`
	Page          int    `json:"page"`
	Size          int    `json:"size"`
	TotalPages    int    `json:"totalPages"`
	TotalElements int64  `json:"totalElements"`
}
