package trade

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"trade-client/internal/gateway"
	"trade-client/models"
)

// CreateRequest opens a new deal on a ticket and returns a machine holding
// the created REQUESTED snapshot.
func CreateRequest(ctx context.Context, gw *gateway.Gateway, ticketID int64, quantity int, buyerMessage string) (*Machine, error) {
	var reply struct {
		Success bool        `json:"success"`
		Data    models.Deal `json:"data"`
		Error   string      `json:"error"`
	}

	err := gw.SendJSON(ctx, &gateway.Request{
		Method: http.MethodPost,
		Path:   "/api/deals/request",
		Body: map[string]any{
			"ticketId":     ticketID,
			"quantity":     quantity,
			"buyerMessage": buyerMessage,
		},
	}, &reply)
	if err != nil {
		return nil, fmt.Errorf("CreateRequest: %w", err)
	}
	if !reply.Success {
		return nil, fmt.Errorf("CreateRequest: reply.Error: %v", reply.Error)
	}

	return NewMachine(gw, reply.Data), nil
}

// ListParams narrows a deal listing.
type ListParams struct {
	Status models.DealStatus
	Role   string // "buyer" or "seller", empty for both
	Page   int
	Size   int
}

func (p ListParams) query() url.Values {
	q := url.Values{}
	if p.Status != "" {
		q.Set("status", string(p.Status))
	}
	if p.Role != "" {
		q.Set("role", p.Role)
	}
	q.Set("page", strconv.Itoa(p.Page))
	if p.Size > 0 {
		q.Set("size", strconv.Itoa(p.Size))
	}
	return q
}

// MyDeals lists the caller's deals on both sides of the table.
func MyDeals(ctx context.Context, gw *gateway.Gateway, params ListParams) (*models.DealPage, error) {
	return listDeals(ctx, gw, "/api/deals/my", params)
}

// PurchaseHistory lists the caller's buyer-side deals.
func PurchaseHistory(ctx context.Context, gw *gateway.Gateway, params ListParams) (*models.DealPage, error) {
	return listDeals(ctx, gw, "/api/deals/purchases", params)
}

// SalesHistory lists the caller's seller-side deals.
func SalesHistory(ctx context.Context, gw *gateway.Gateway, params ListParams) (*models.DealPage, error) {
	return listDeals(ctx, gw, "/api/deals/sales", params)
}

func listDeals(ctx context.Context, gw *gateway.Gateway, path string, params ListParams) (*models.DealPage, error) {
	var reply struct {
		Success bool            `json:"success"`
		Data    models.DealPage `json:"data"`
		Error   string          `json:"error"`
	}

	err := gw.SendJSON(ctx, &gateway.Request{
		Method: http.MethodGet,
		Path:   path,
		Query:  params.query(),
	}, &reply)
	if err != nil {
		return nil, fmt.Errorf("listDeals: %s: %w", path, err)
	}
	if !reply.Success {
		return nil, fmt.Errorf("listDeals: %s: reply.Error: %v", path, reply.Error)
	}

	return &reply.Data, nil
}
