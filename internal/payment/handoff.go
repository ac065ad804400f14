package payment

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"trade-client/internal/gateway"
	"trade-client/models"
)

// PrepareInfo is what the checkout provider needs to open a payment.
type PrepareInfo struct {
	ClientID  string          `json:"clientId"`
	OrderID   string          `json:"orderId"`
	Amount    decimal.Decimal `json:"amount"`
	GoodsName string          `json:"goodsName"`
	ReturnURL string          `json:"returnUrl"`
}

// DelegationOutcome is the provider's immediate answer. Redirected means
// control left for the provider's checkout and the real outcome is unknown
// until Complete; it is never success by itself.
type DelegationOutcome int

const (
	OutcomeRedirected DelegationOutcome = iota
	OutcomeImmediateFailure
)

type DelegationResult struct {
	Outcome DelegationOutcome
	Reason  string // provider message, set on immediate failure
}

// Provider is the external checkout the handoff delegates to.
type Provider interface {
	RequestPay(ctx context.Context, info *PrepareInfo) (*DelegationResult, error)
}

// DealCompleter receives the system transition once completion is
// confirmed server-side.
type DealCompleter interface {
	MarkPaid(ctx context.Context) error
}

// BeginResult pairs the provider's immediate answer with the backend's
// authoritative payment record, re-fetched whenever the provider reported
// failure locally.
type BeginResult struct {
	Delegation *DelegationResult
	Payment    *models.Payment
}

// Handoff runs the two-phase prepare/complete flow around the external
// checkout. The two phases are not atomic: the deal stays ACCEPTED until
// Complete succeeds.
type Handoff struct {
	gw       *gateway.Gateway
	provider Provider
	deal     DealCompleter
}

func NewHandoff(gw *gateway.Gateway, provider Provider, deal DealCompleter) *Handoff {
	return &Handoff{gw: gw, provider: provider, deal: deal}
}

// Prepare fetches the provider order for this payment.
func (h *Handoff) Prepare(ctx context.Context, paymentID int64) (*PrepareInfo, error) {
	var info PrepareInfo

	err := h.gw.SendJSON(ctx, &gateway.Request{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("/api/payments/%d/prepare", paymentID),
	}, &info)
	if err != nil {
		return nil, fmt.Errorf("Prepare: %w", err)
	}

	return &info, nil
}

// Detail fetches the backend's view of the payment.
func (h *Handoff) Detail(ctx context.Context, paymentID int64) (*models.PaymentDetail, error) {
	var detail models.PaymentDetail

	err := h.gw.SendJSON(ctx, &gateway.Request{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("/api/payments/%d/detail", paymentID),
	}, &detail)
	if err != nil {
		return nil, fmt.Errorf("Detail: %w", err)
	}

	return &detail, nil
}

// Begin prepares the payment and delegates to the provider. On an
// immediate provider failure the backend's payment status is re-fetched
// rather than trusted from the local callback: the two can disagree.
func (h *Handoff) Begin(ctx context.Context, paymentID int64) (*BeginResult, error) {
	info, err := h.Prepare(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("Begin: %w", err)
	}

	result, err := h.provider.RequestPay(ctx, info)
	if err != nil {
		result = &DelegationResult{Outcome: OutcomeImmediateFailure, Reason: err.Error()}
	}

	out := &BeginResult{Delegation: result}

	if result.Outcome == OutcomeImmediateFailure {
		detail, detailErr := h.Detail(ctx, paymentID)
		if detailErr != nil {
			log.Printf("Begin: re-fetch after provider failure: %v", detailErr)
		} else {
			out.Payment = &detail.Payment
		}
	}

	return out, nil
}

// Complete confirms the transaction server-side with the credentials the
// provider redirect carried. One attempt only; the backend is idempotent
// on tid, so a user-initiated retry with the same id is safe.
func (h *Handoff) Complete(ctx context.Context, paymentID int64, tid, authToken string) error {
	resp, err := h.gw.Send(ctx, &gateway.Request{
		Method: http.MethodPost,
		Path:   fmt.Sprintf("/api/payments/%d/complete", paymentID),
		Body: map[string]string{
			"tid":       tid,
			"authToken": authToken,
		},
	})
	if err != nil {
		return fmt.Errorf("Complete: %w", err)
	}

	if reply := strings.Trim(strings.TrimSpace(string(resp.Body)), `"`); reply != "" && reply != "SUCCESS" {
		return fmt.Errorf("Complete: unexpected reply: %v", reply)
	}

	if h.deal != nil {
		if err := h.deal.MarkPaid(ctx); err != nil {
			return fmt.Errorf("Complete: %w", err)
		}
	}
	return nil
}
