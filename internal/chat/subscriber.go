package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	pubnub "github.com/pubnub/go/v7"

	"trade-client/models"
)

type SubscriberConfig struct {
	SubscribeKey string `json:"subscribe_key" mapstructure:"subscribe_key"`
	PublishKey   string `json:"publish_key" mapstructure:"publish_key"`
	SecretKey    string `json:"secret_key" mapstructure:"secret_key"`
	CipherKey    string `json:"cipher_key" mapstructure:"cipher_key"`

	// UserID identifies this client on the channel. Generated when empty.
	UserID string `json:"user_id" mapstructure:"user_id"`
}

// Subscriber listens on chat room channels and hands decoded messages to
// the consumer. One topic per chat room.
type Subscriber struct {
	pn   *pubnub.PubNub
	lis  *pubnub.Listener
	msgs chan *models.ChatMessage
}

// NewSubscriber connects to the realtime channel service and starts the
// listener loop. Messages arrive on Messages() until ctx is cancelled.
func NewSubscriber(ctx context.Context, cfg *SubscriberConfig) *Subscriber {
	userID := cfg.UserID
	if userID == "" {
		userID = uuid.New().String()
	}

	pnCfg := pubnub.NewConfigWithUserId(pubnub.UserId(userID))
	pnCfg.SubscribeKey = cfg.SubscribeKey
	pnCfg.PublishKey = cfg.PublishKey
	pnCfg.SecretKey = cfg.SecretKey
	pnCfg.CipherKey = cfg.CipherKey

	s := &Subscriber{
		pn:   pubnub.NewPubNub(pnCfg),
		lis:  pubnub.NewListener(),
		msgs: make(chan *models.ChatMessage, 64),
	}

	s.pn.AddListener(s.lis)
	go s.processSubscription(ctx)

	return s
}

// Messages is the stream of decoded inbound chat messages.
func (s *Subscriber) Messages() <-chan *models.ChatMessage {
	return s.msgs
}

// Join subscribes to a chat room's channel.
func (s *Subscriber) Join(roomID string) {
	s.pn.Subscribe().Channels([]string{channelName(roomID)}).Execute()
}

// Leave unsubscribes from a chat room's channel.
func (s *Subscriber) Leave(roomID string) {
	s.pn.Unsubscribe().Channels([]string{channelName(roomID)}).Execute()
}

func channelName(roomID string) string {
	return fmt.Sprintf("chat-room-%s", roomID)
}

func (s *Subscriber) processSubscription(ctx context.Context) {
	listener := s.lis
	for {
		select {
		case st := <-listener.Status:
			switch st.Category {
			case pubnub.PNConnectedCategory:
				log.Println("connected to pubnub")

			case pubnub.PNReconnectedCategory:
				log.Println("reconnected to pubnub")

			case pubnub.PNDisconnectedCategory:
				log.Println("disconnected from pubnub")

			case pubnub.PNAccessDeniedCategory:
				log.Println("access denied connect to pubnub")

			case pubnub.PNTimeoutCategory:
				log.Println("timeout connect to pubnub")

			case pubnub.PNReconnectionAttemptsExhausted:
				log.Println("reconnection attempts exhausted connect to pubnub")

			default:
				log.Println("pubnub status category:", st.Category)
			}

		case message := <-listener.Message:
			msg, err := decodeMessage(message.Message)
			if err != nil {
				log.Printf("processSubscription: %v", err)
				continue
			}

			select {
			case s.msgs <- msg:
			default:
				// Consumer fell behind; drop rather than block the listener.
				log.Printf("processSubscription: message buffer full, dropped %s", msg.ID)
			}

		case <-ctx.Done():
			log.Println("close subscribe")
			s.pn.UnsubscribeAll()
			close(s.msgs)
			return
		}
	}
}

// decodeMessage tolerates both wire encodings the channel service emits:
// a JSON string or an already-decoded map.
func decodeMessage(raw any) (*models.ChatMessage, error) {
	var msg models.ChatMessage

	switch v := raw.(type) {
	case string:
		dec := json.NewDecoder(strings.NewReader(v))
		if err := dec.Decode(&msg); err != nil {
			return nil, fmt.Errorf("decodeMessage: json.Decode: %w", err)
		}

	case map[string]interface{}:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("decodeMessage: json.Marshal: %w", err)
		}
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("decodeMessage: json.Unmarshal: %w", err)
		}

	default:
		return nil, fmt.Errorf("decodeMessage: unexpected payload type %T", raw)
	}

	return &msg, nil
}
