package chat

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"trade-client/internal/gateway"
	"trade-client/models"
)

// Rooms lists the user's chat rooms.
func Rooms(ctx context.Context, gw *gateway.Gateway, userID int64) ([]models.ChatRoom, error) {
	var reply struct {
		Success bool              `json:"success"`
		Data    []models.ChatRoom `json:"data"`
		Error   string            `json:"error"`
	}

	err := gw.SendJSON(ctx, &gateway.Request{
		Method: http.MethodGet,
		Path:   "/api/chat/rooms",
		Query:  url.Values{"userId": []string{strconv.FormatInt(userID, 10)}},
	}, &reply)
	if err != nil {
		return nil, fmt.Errorf("Rooms: %w", err)
	}
	if !reply.Success {
		return nil, fmt.Errorf("Rooms: reply.Error: %v", reply.Error)
	}

	return reply.Data, nil
}

// History fetches a room's past messages, ordered by sentAt.
func History(ctx context.Context, gw *gateway.Gateway, roomID string) ([]models.ChatMessage, error) {
	var reply struct {
		Success bool                 `json:"success"`
		Data    []models.ChatMessage `json:"data"`
		Error   string               `json:"error"`
	}

	err := gw.SendJSON(ctx, &gateway.Request{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("/api/chat/rooms/%s/messages", roomID),
	}, &reply)
	if err != nil {
		return nil, fmt.Errorf("History: %w", err)
	}
	if !reply.Success {
		return nil, fmt.Errorf("History: reply.Error: %v", reply.Error)
	}

	return reply.Data, nil
}
