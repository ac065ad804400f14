package chat

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"trade-client/internal/gateway"
	"trade-client/internal/status"
	"trade-client/internal/trade"
	"trade-client/models"
	"trade-client/monitoring"
)

// Action codes a SYSTEM_ACTION message may carry.
const (
	CodeDealAccept   = "DEAL_ACCEPT"
	CodeDealReject   = "DEAL_REJECT"
	CodeDealCancel   = "DEAL_CANCEL"
	CodeDealConfirm  = "DEAL_CONFIRM"
	CodePaymentStart = "PAYMENT_START"
)

var codeToAction = map[string]trade.Action{
	CodeDealAccept:  trade.ActionAccept,
	CodeDealReject:  trade.ActionReject,
	CodeDealCancel:  trade.ActionCancel,
	CodeDealConfirm: trade.ActionConfirm,
}

// Dispatcher is the slice of the trade machine the bridge drives.
type Dispatcher interface {
	Transition(ctx context.Context, action trade.Action, callerID int64, reason string) error
	Deal() models.Deal
}

// RenderableAction is one button ready for display, in wire order.
type RenderableAction struct {
	ActionCode string
	Label      string
	Primary    bool
}

// SelectionResult reports what a selection did. PaymentEntry signals the
// caller to navigate to the payment handoff for the deal's ticket; the
// bridge performs no payment steps itself.
type SelectionResult struct {
	ActionCode   string
	PaymentEntry bool
	DealID       int64
	TicketID     int64
}

// Bridge decodes inbound system-action messages, filters them by audience,
// and forwards selected actions into the trade machine.
type Bridge struct {
	gw         *gateway.Gateway
	dispatcher Dispatcher

	// mu guards pending. A selection is pending from dispatch until its
	// transition resolves; a repeat click of the same message/action pair in
	// that window is dropped, not queued.
	mu      sync.Mutex
	pending map[string]struct{}
}

func NewBridge(gw *gateway.Gateway, dispatcher Dispatcher) *Bridge {
	return &Bridge{
		gw:         gw,
		dispatcher: dispatcher,
		pending:    make(map[string]struct{}),
	}
}

// Present returns the message's actions for rendering, or nil when the
// message is not an action message or names a role the user does not hold.
// Audience is resolved against the ids embedded in the message, never the
// deal's, since a message can arrive before the deal detail is cached.
func (b *Bridge) Present(msg *models.ChatMessage, currentUserID int64) []RenderableAction {
	if msg == nil || msg.Type != models.MessageSystemAction {
		return nil
	}
	meta := msg.Metadata
	if meta == nil || len(meta.Actions) == 0 {
		return nil
	}

	switch meta.VisibleTarget {
	case models.TargetBuyer:
		if currentUserID != meta.BuyerID {
			return nil
		}
	case models.TargetSeller:
		if currentUserID != meta.SellerID {
			return nil
		}
	}

	actions := make([]RenderableAction, 0, len(meta.Actions))
	for _, a := range meta.Actions {
		actions = append(actions, RenderableAction{
			ActionCode: a.ActionCode,
			Label:      a.Label,
			Primary:    a.IsPrimary,
		})
	}
	return actions
}

// Select dispatches the chosen action. A second selection of the same
// message/action pair while the first is pending returns
// ErrDuplicateSubmission and produces no call.
func (b *Bridge) Select(ctx context.Context, msg *models.ChatMessage, actionCode string, userID int64, reason string) (*SelectionResult, error) {
	if msg == nil || msg.Type != models.MessageSystemAction {
		return nil, fmt.Errorf("Select: message is not a system action")
	}
	if !carriesAction(msg, actionCode) {
		return nil, fmt.Errorf("Select: message %s does not offer action %s", msg.ID, actionCode)
	}

	key := msg.ID + "/" + actionCode
	b.mu.Lock()
	if _, exists := b.pending[key]; exists {
		b.mu.Unlock()
		return nil, fmt.Errorf("Select: %s: %w", key, status.ErrDuplicateSubmission)
	}
	b.pending[key] = struct{}{}
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		delete(b.pending, key)
		b.mu.Unlock()
	}()

	monitoring.TrackChatAction(actionCode)

	if actionCode == CodePaymentStart {
		if err := b.notifySelection(ctx, msg.ChatroomID, actionCode, userID); err != nil {
			return nil, fmt.Errorf("Select: %w", err)
		}
		deal := b.dispatcher.Deal()
		return &SelectionResult{
			ActionCode:   actionCode,
			PaymentEntry: true,
			DealID:       deal.ID,
			TicketID:     deal.TicketID,
		}, nil
	}

	action, ok := codeToAction[actionCode]
	if !ok {
		return nil, fmt.Errorf("Select: unknown action code %s", actionCode)
	}

	if err := b.dispatcher.Transition(ctx, action, userID, reason); err != nil {
		return nil, fmt.Errorf("Select: %w", err)
	}

	// The chat service records the selection so other participants see the
	// offer as handled. Losing the record does not undo the transition.
	if err := b.notifySelection(ctx, msg.ChatroomID, actionCode, userID); err != nil {
		log.Printf("Select: notifySelection: %v", err)
	}

	deal := b.dispatcher.Deal()
	return &SelectionResult{ActionCode: actionCode, DealID: deal.ID, TicketID: deal.TicketID}, nil
}

func (b *Bridge) notifySelection(ctx context.Context, chatroomID, actionCode string, userID int64) error {
	_, err := b.gw.Send(ctx, &gateway.Request{
		Method: http.MethodPost,
		Path:   "/api/chat/rooms/system-action",
		Query:  url.Values{"userId": []string{strconv.FormatInt(userID, 10)}},
		Body: map[string]string{
			"chatroomId": chatroomID,
			"actionCode": actionCode,
		},
	})
	return err
}

func carriesAction(msg *models.ChatMessage, actionCode string) bool {
	if msg.Metadata == nil {
		return false
	}
	for _, a := range msg.Metadata.Actions {
		if a.ActionCode == actionCode {
			return true
		}
	}
	return false
}
