package trade

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"trade-client/internal/gateway"
	"trade-client/internal/status"
	"trade-client/models"
	"trade-client/monitoring"
)

// Action is a role-gated deal transition.
type Action string

const (
	ActionAccept  Action = "accept"
	ActionReject  Action = "reject"
	ActionCancel  Action = "cancel"
	ActionConfirm Action = "confirm"

	// actionMarkPaid is the system edge driven by payment completion. It is
	// never dispatched as a user action.
	actionMarkPaid Action = "mark-paid"
)

// Role names which party may walk an edge.
type Role int

const (
	RoleBuyer Role = iota
	RoleSeller
	RoleSystem
)

type edge struct {
	from        models.DealStatus
	action      Action
	role        Role
	needsReason bool
	remote      bool // whether the edge has its own backend endpoint
}

// edges is the complete transition table. An action invoked from a state
// that does not list it is rejected locally, before any network call.
var edges = []edge{
	{from: models.DealRequested, action: ActionAccept, role: RoleSeller, remote: true},
	{from: models.DealRequested, action: ActionReject, role: RoleSeller, needsReason: true, remote: true},
	{from: models.DealRequested, action: ActionCancel, role: RoleBuyer, remote: true},
	{from: models.DealAccepted, action: actionMarkPaid, role: RoleSystem},
	{from: models.DealPaid, action: ActionConfirm, role: RoleBuyer, remote: true},
}

func findEdge(from models.DealStatus, action Action) *edge {
	for i := range edges {
		if edges[i].from == from && edges[i].action == action {
			return &edges[i]
		}
	}
	return nil
}

// Machine mirrors one deal's server-side lifecycle. It never computes the
// next state itself: after a confirmed transition it re-fetches the full
// detail and replaces its working copy wholesale.
type Machine struct {
	gw *gateway.Gateway

	mu       sync.Mutex
	deal     models.Deal
	inFlight bool
}

func NewMachine(gw *gateway.Gateway, deal models.Deal) *Machine {
	return &Machine{gw: gw, deal: deal}
}

// Load fetches the deal detail and builds a machine around it.
func Load(ctx context.Context, gw *gateway.Gateway, dealID int64) (*Machine, error) {
	deal, err := fetchDetail(ctx, gw, dealID)
	if err != nil {
		return nil, fmt.Errorf("Load: %w", err)
	}
	return NewMachine(gw, *deal), nil
}

// Deal returns a copy of the current working snapshot.
func (m *Machine) Deal() models.Deal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deal
}

// LegalActions returns the user actions the caller may invoke from the
// current state.
func (m *Machine) LegalActions(userID int64) []Action {
	m.mu.Lock()
	defer m.mu.Unlock()

	var actions []Action
	for i := range edges {
		e := &edges[i]
		if e.from != m.deal.Status {
			continue
		}
		switch e.role {
		case RoleSeller:
			if userID == m.deal.SellerID {
				actions = append(actions, e.action)
			}
		case RoleBuyer:
			if userID == m.deal.BuyerID {
				actions = append(actions, e.action)
			}
		}
	}
	return actions
}

// Transition validates and dispatches one user-driven transition. Local
// rejections (illegal edge, role mismatch, missing reason, a transition
// already in flight) return before any network call.
func (m *Machine) Transition(ctx context.Context, action Action, callerID int64, reason string) error {
	m.mu.Lock()

	e := findEdge(m.deal.Status, action)
	if e == nil {
		m.mu.Unlock()
		monitoring.TrackTransition(string(action), "illegal")
		return fmt.Errorf("Transition: %s from %s: %w", action, m.deal.Status, status.ErrIllegalTransition)
	}

	switch e.role {
	case RoleSeller:
		if callerID != m.deal.SellerID {
			m.mu.Unlock()
			return fmt.Errorf("Transition: %s: caller %d is not the seller: %w", action, callerID, status.ErrPermission)
		}
	case RoleBuyer:
		if callerID != m.deal.BuyerID {
			m.mu.Unlock()
			return fmt.Errorf("Transition: %s: caller %d is not the buyer: %w", action, callerID, status.ErrPermission)
		}
	case RoleSystem:
		m.mu.Unlock()
		return fmt.Errorf("Transition: %s is system-driven: %w", action, status.ErrPermission)
	}

	if e.needsReason && reason == "" {
		m.mu.Unlock()
		return fmt.Errorf("Transition: %s: %w", action, status.ErrReasonRequired)
	}

	if m.inFlight {
		m.mu.Unlock()
		return fmt.Errorf("Transition: %s: %w", action, status.ErrTransitionInFlight)
	}
	m.inFlight = true
	dealID := m.deal.ID
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.inFlight = false
		m.mu.Unlock()
	}()

	req := &gateway.Request{
		Method: http.MethodPut,
		Path:   fmt.Sprintf("/api/deals/%d/%s", dealID, action),
	}
	if e.needsReason {
		req.Body = map[string]string{"cancelReason": reason}
	}

	if _, err := m.gw.Send(ctx, req); err != nil {
		monitoring.TrackTransition(string(action), "error")
		return fmt.Errorf("Transition: %s: %w", action, err)
	}

	// The backend's view is the only truth. Re-fetch instead of locally
	// synthesizing the new state.
	if err := m.Refresh(ctx); err != nil {
		monitoring.TrackTransition(string(action), "refetch_error")
		return fmt.Errorf("Transition: %s: %w", action, err)
	}

	monitoring.TrackTransition(string(action), "ok")
	return nil
}

// MarkPaid is the system edge out of ACCEPTED, driven by a successful
// payment completion. There is no dedicated endpoint: the completion call
// already moved the deal server-side, so the machine only re-fetches and
// adopts whatever the backend now reports.
func (m *Machine) MarkPaid(ctx context.Context) error {
	m.mu.Lock()
	if e := findEdge(m.deal.Status, actionMarkPaid); e == nil {
		m.mu.Unlock()
		return fmt.Errorf("MarkPaid: from %s: %w", m.deal.Status, status.ErrIllegalTransition)
	}
	if m.inFlight {
		m.mu.Unlock()
		return fmt.Errorf("MarkPaid: %w", status.ErrTransitionInFlight)
	}
	m.inFlight = true
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.inFlight = false
		m.mu.Unlock()
	}()

	if err := m.Refresh(ctx); err != nil {
		monitoring.TrackTransition(string(actionMarkPaid), "refetch_error")
		return fmt.Errorf("MarkPaid: %w", err)
	}

	monitoring.TrackTransition(string(actionMarkPaid), "ok")
	return nil
}

// Refresh replaces the working copy with the backend's authoritative
// snapshot. Callers invalidating a stale view call this directly.
func (m *Machine) Refresh(ctx context.Context) error {
	m.mu.Lock()
	dealID := m.deal.ID
	m.mu.Unlock()

	deal, err := fetchDetail(ctx, m.gw, dealID)
	if err != nil {
		return fmt.Errorf("Refresh: %w", err)
	}

	m.mu.Lock()
	m.deal = *deal
	m.mu.Unlock()
	return nil
}

func fetchDetail(ctx context.Context, gw *gateway.Gateway, dealID int64) (*models.Deal, error) {
	var reply struct {
		Success bool        `json:"success"`
		Data    models.Deal `json:"data"`
		Error   string      `json:"error"`
	}

	err := gw.SendJSON(ctx, &gateway.Request{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("/api/deals/%d/detail", dealID),
	}, &reply)
	if err != nil {
		return nil, fmt.Errorf("fetchDetail: %w", err)
	}
	if !reply.Success {
		return nil, fmt.Errorf("fetchDetail: reply.Error: %v", reply.Error)
	}

	return &reply.Data, nil
}
