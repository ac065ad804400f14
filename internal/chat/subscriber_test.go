package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trade-client/models"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

const wireMessage = `{
	"id": "msg-9",
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

func TestDecodeMessage_StringPayload(t *testing.T) {
	msg, err := decodeMessage(wireMessage)
	require.NoError(t, err)

	assert.Equal(t, "msg-9", msg.ID)
	assert.Equal(t, models.MessageSystemAction, msg.Type)
	require.NotNil(t, msg.Metadata)
	assert.Equal(t, models.TargetSeller, msg.Metadata.VisibleTarget)
	assert.Equal(t, int64(1), msg.Metadata.SellerID)
	require.Len(t, msg.Metadata.Actions, 2)
	assert.Equal(t, "DEAL_ACCEPT", msg.Metadata.Actions[0].ActionCode)
	assert.True(t, msg.Metadata.Actions[0].IsPrimary)
	assert.False(t, msg.Metadata.Actions[1].IsPrimary)
}

func TestDecodeMessage_MapPayload(t *testing.T) {
	raw := map[string]interface{}{
		"id":         "msg-10",
		"chatroomId": "room-1",
		"type":       "TEXT",
		"content":    "see you there",
	}

	msg, err := decodeMessage(raw)
	require.NoError(t, err)
	assert.Equal(t, "msg-10", msg.ID)
	assert.Equal(t, models.MessageText, msg.Type)
	assert.Nil(t, msg.Metadata)
}

func TestDecodeMessage_UnexpectedPayload(t *testing.T) {
	_, err := decodeMessage(42)
	assert.Error(t, err)

	_, err = decodeMessage("{not json")
	assert.Error(t, err)
}

func TestChannelName(t *testing.T) {
	assert.Equal(t, "chat-room-room-1", channelName("room-1"))
}
