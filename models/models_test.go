package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDealStatus_Terminal(t *testing.T) {
	assert.False(t, DealRequested.Terminal())
	assert.False(t, DealAccepted.Terminal())
	assert.False(t, DealPaid.Terminal())
	assert.True(t, DealRejected.Terminal())
	assert.True(t, DealCancelled.Terminal())
	assert.True(t, DealCompleted.Terminal())
}

func TestDeal_WireDecode(t *testing.T) {
	raw := `{
		"dealId": 42,
		"ticketId": 7,
		"buyerId": 2,
		"sellerId": 1,
		"quantity": 2,
		"status": "REQUESTED",
		"buyerMessage": "two please",
		"createdAt": "2026-08-30T12:00:00Z",
		"expiresAt": "2026-08-31T12:00:00Z"
	}`

	var deal Deal
	require.NoError(t, json.Unmarshal([]byte(raw), &deal))

	assert.Equal(t, int64(42), deal.ID)
	assert.Equal(t, int64(7), deal.TicketID)
	assert.Equal(t, DealRequested, deal.Status)
	assert.Equal(t, "two please", deal.BuyerMessage)
	assert.True(t, deal.ExpiresAt.After(deal.CreatedAt))
}

func TestChatMessage_WireDecode(t *testing.T) {
	raw := `{
		"id": "msg-1",
		"chatroomId": "room-1",
		"senderId": 0,
		"type": "SYSTEM_ACTION",
		"content": "The buyer requested 2 tickets.",
		"sentAt": "2026-08-30T12:00:00Z",
		"metadata": {
			"visibleTarget": "SELLER",
			"buyerId": 2,
			"sellerId": 1,
			"actions": [
				{"actionCode": "DEAL_ACCEPT", "label": "Accept", "isPrimary": true},
				{"actionCode": "DEAL_REJECT", "label": "Decline"}
			]
		}
	}`

	var msg ChatMessage
	require.NoError(t, json.Unmarshal([]byte(raw), &msg))

	assert.Equal(t, MessageSystemAction, msg.Type)
	require.NotNil(t, msg.Metadata)
	assert.Equal(t, TargetSeller, msg.Metadata.VisibleTarget)
	assert.Equal(t, int64(2), msg.Metadata.BuyerID)
	require.Len(t, msg.Metadata.Actions, 2)
	assert.Equal(t, "DEAL_ACCEPT", msg.Metadata.Actions[0].ActionCode)
	assert.True(t, msg.Metadata.Actions[0].IsPrimary)
}

func TestChatMessage_TextHasNoMetadata(t *testing.T) {
	raw := `{"id": "msg-2", "chatroomId": "room-1", "senderId": 2, "type": "TEXT", "content": "hi"}`

	var msg ChatMessage
	require.NoError(t, json.Unmarshal([]byte(raw), &msg))
	assert.Equal(t, MessageText, msg.Type)
	assert.Nil(t, msg.Metadata)
}

func TestPayment_WireDecode(t *testing.T) {
	raw := `{
		"paymentId": 9,
		"dealId": 42,
		"buyerId": 2,
		"paymentStatus": "PENDING",
		"amount": 55000,
		"orderId": "order-1"
	}`

	var p Payment
	require.NoError(t, json.Unmarshal([]byte(raw), &p))

	assert.Equal(t, int64(9), p.ID)
	assert.Equal(t, PaymentPending, p.Status)
	assert.True(t, p.Amount.Equal(decimal.NewFromInt(55000)))
	assert.Empty(t, p.TransactionID)
}

func TestCredential_Empty(t *testing.T) {
	assert.True(t, Credential{}.Empty())
	assert.False(t, Credential{AccessToken: "a"}.Empty())
	assert.False(t, Credential{RefreshToken: "r"}.Empty())
}
