package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trade-client/internal/auth"
	"trade-client/internal/gateway"
	"trade-client/internal/status"
	"trade-client/internal/trade"
	"trade-client/models"
)

// fakeDispatcher records transitions and optionally blocks each one until
// released, so tests can hold a selection pending.
type fakeDispatcher struct {
	mu          sync.Mutex
	transitions []trade.Action
	block       chan struct{}
	err         error
	deal        models.Deal
}

func (d *fakeDispatcher) Transition(_ context.Context, action trade.Action, _ int64, _ string) error {
	d.mu.Lock()
	d.transitions = append(d.transitions, action)
	block := d.block
	d.mu.Unlock()

	if block != nil {
		<-block
	}
	return d.err
}

func (d *fakeDispatcher) Deal() models.Deal {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.deal
}

func (d *fakeDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.transitions)
}

func actionMessage(target models.VisibleTarget, codes ...string) *models.ChatMessage {
	actions := make([]models.MessageAction, 0, len(codes))
	for i, code := range codes {
		actions = append(actions, models.MessageAction{
			ActionCode: code,
			Label:      code,
			IsPrimary:  i == 0,
		})
	}
	return &models.ChatMessage{
		ID:         "msg-1",
		ChatroomID: "room-1",
		Type:       models.MessageSystemAction,
		Metadata: &models.MessageMetadata{
			VisibleTarget: target,
			BuyerID:       2,
			SellerID:      1,
			Actions:       actions,
		},
	}
}

func newTestBridge(t *testing.T, dispatcher Dispatcher, handler http.Handler) *Bridge {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	store := auth.NewMemoryStore()
	require.NoError(t, store.Save(context.Background(), models.Credential{AccessToken: "t", RefreshToken: "r"}, nil))
	gw := gateway.New(&gateway.Config{BaseURL: server.URL}, store)

	return NewBridge(gw, dispatcher)
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"success": true})
	})
}

func TestPresent_AudienceFilter(t *testing.T) {
	b := NewBridge(nil, nil)

	tests := []struct {
		name   string
		target models.VisibleTarget
		userID int64
		shown  bool
	}{
		{"seller message to seller", models.TargetSeller, 1, true},
		{"seller message to buyer", models.TargetSeller, 2, false},
		{"buyer message to buyer", models.TargetBuyer, 2, true},
		{"buyer message to seller", models.TargetBuyer, 1, false},
		{"all message to buyer", models.TargetAll, 2, true},
		{"all message to seller", models.TargetAll, 1, true},
		{"all message to outsider", models.TargetAll, 99, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := actionMessage(tt.target, CodeDealAccept, CodeDealReject)
			got := b.Present(msg, tt.userID)
			if tt.shown {
				assert.Len(t, got, 2)
			} else {
				assert.Nil(t, got)
			}
		})
	}
}

func TestPresent_PreservesWireOrder(t *testing.T) {
	b := NewBridge(nil, nil)
	msg := actionMessage(models.TargetSeller, CodeDealReject, CodeDealAccept)

	got := b.Present(msg, 1)
	require.Len(t, got, 2)
	assert.Equal(t, CodeDealReject, got[0].ActionCode)
	assert.True(t, got[0].Primary)
	assert.Equal(t, CodeDealAccept, got[1].ActionCode)
	assert.False(t, got[1].Primary)
}

func TestPresent_IgnoresNonActionMessages(t *testing.T) {
	b := NewBridge(nil, nil)

	assert.Nil(t, b.Present(nil, 1))
	assert.Nil(t, b.Present(&models.ChatMessage{Type: models.MessageText, Content: "hi"}, 1))
	assert.Nil(t, b.Present(&models.ChatMessage{Type: models.MessageSystemInfo}, 1))
	assert.Nil(t, b.Present(&models.ChatMessage{Type: models.MessageSystemAction}, 1), "no metadata, nothing to render")
}

func TestSelect_DispatchesTransitionAndNotifies(t *testing.T) {
	var notified struct {
		sync.Mutex
		body   map[string]string
		userID string
	}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/chat/rooms/system-action", r.URL.Path)
		notified.Lock()
		json.NewDecoder(r.Body).Decode(&notified.body)
		notified.userID = r.URL.Query().Get("userId")
		notified.Unlock()
		json.NewEncoder(w).Encode(map[string]any{"success": true})
	})

	dispatcher := &fakeDispatcher{deal: models.Deal{ID: 42, TicketID: 7}}
	b := newTestBridge(t, dispatcher, handler)

	msg := actionMessage(models.TargetSeller, CodeDealAccept)
	result, err := b.Select(context.Background(), msg, CodeDealAccept, 1, "")
	require.NoError(t, err)

	assert.Equal(t, []trade.Action{trade.ActionAccept}, dispatcher.transitions)
	assert.False(t, result.PaymentEntry)
	assert.Equal(t, int64(42), result.DealID)

	notified.Lock()
	defer notified.Unlock()
	assert.Equal(t, "room-1", notified.body["chatroomId"])
	assert.Equal(t, CodeDealAccept, notified.body["actionCode"])
	assert.Equal(t, "1", notified.userID)
}

func TestSelect_DoubleClickYieldsOneTransition(t *testing.T) {
	dispatcher := &fakeDispatcher{block: make(chan struct{})}
	b := newTestBridge(t, dispatcher, okHandler())

	msg := actionMessage(models.TargetSeller, CodeDealAccept)

	firstDone := make(chan error, 1)
	go func() {
		_, err := b.Select(context.Background(), msg, CodeDealAccept, 1, "")
		firstDone <- err
	}()

	// Wait until the first selection is inside the dispatcher.
	require.Eventually(t, func() bool { return dispatcher.count() == 1 }, waitFor, tick)

	_, err := b.Select(context.Background(), msg, CodeDealAccept, 1, "")
	assert.ErrorIs(t, err, status.ErrDuplicateSubmission)

	close(dispatcher.block)
	require.NoError(t, <-firstDone)
	assert.Equal(t, 1, dispatcher.count())
}

func TestSelect_SameMessageDifferentActionsAreIndependent(t *testing.T) {
	dispatcher := &fakeDispatcher{block: make(chan struct{})}
	b := newTestBridge(t, dispatcher, okHandler())

	msg := actionMessage(models.TargetSeller, CodeDealAccept, CodeDealReject)

	done := make(chan error, 2)
	go func() {
		_, err := b.Select(context.Background(), msg, CodeDealAccept, 1, "")
		done <- err
	}()
	require.Eventually(t, func() bool { return dispatcher.count() == 1 }, waitFor, tick)

	go func() {
		_, err := b.Select(context.Background(), msg, CodeDealReject, 1, "busy")
		done <- err
	}()
	require.Eventually(t, func() bool { return dispatcher.count() == 2 }, waitFor, tick)

	close(dispatcher.block)
	require.NoError(t, <-done)
	require.NoError(t, <-done)
}

func TestSelect_RetryAfterFailureIsAllowed(t *testing.T) {
	dispatcher := &fakeDispatcher{err: status.ErrIllegalTransition}
	b := newTestBridge(t, dispatcher, okHandler())

	msg := actionMessage(models.TargetSeller, CodeDealAccept)

	_, err := b.Select(context.Background(), msg, CodeDealAccept, 1, "")
	require.ErrorIs(t, err, status.ErrIllegalTransition)

	// The pending window closed with the failure; an explicit retry goes out.
	dispatcher.err = nil
	_, err = b.Select(context.Background(), msg, CodeDealAccept, 1, "")
	require.NoError(t, err)
	assert.Equal(t, 2, dispatcher.count())
}

func TestSelect_PaymentStartSkipsMachine(t *testing.T) {
	dispatcher := &fakeDispatcher{deal: models.Deal{ID: 42, TicketID: 7}}
	b := newTestBridge(t, dispatcher, okHandler())

	msg := actionMessage(models.TargetBuyer, CodePaymentStart)
	result, err := b.Select(context.Background(), msg, CodePaymentStart, 2, "")
	require.NoError(t, err)

	assert.True(t, result.PaymentEntry)
	assert.Equal(t, int64(42), result.DealID)
	assert.Equal(t, int64(7), result.TicketID)
	assert.Zero(t, dispatcher.count(), "payment entry drives no deal transition")
}

func TestSelect_ActionNotOnMessage(t *testing.T) {
	b := NewBridge(nil, &fakeDispatcher{})

	msg := actionMessage(models.TargetSeller, CodeDealAccept)
	_, err := b.Select(context.Background(), msg, CodeDealConfirm, 1, "")
	assert.Error(t, err)
}
