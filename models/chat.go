package models

import (
	"time"
)

type MessageType string

const (
	MessageText         MessageType = "TEXT"
	MessageSystemInfo   MessageType = "SYSTEM_INFO"
	MessageSystemAction MessageType = "SYSTEM_ACTION"
)

// VisibleTarget names which party of the deal a system message is meant for.
type VisibleTarget string

const (
	TargetBuyer  VisibleTarget = "BUYER"
	TargetSeller VisibleTarget = "SELLER"
	TargetAll    VisibleTarget = "ALL"
)

// MessageAction is one button embedded in a SYSTEM_ACTION message.
type MessageAction struct {
	ActionCode string `json:"actionCode"`
	Label      string `json:"label"`
	IsPrimary  bool   `json:"isPrimary"`
}

// MessageMetadata carries the audience and action buttons of a system
// message. BuyerID/SellerID are embedded here because a message can arrive
// before the deal detail is cached locally.
type MessageMetadata struct {
	VisibleTarget VisibleTarget   `json:"visibleTarget,omitempty"`
	BuyerID       int64           `json:"buyerId,omitempty"`
	SellerID      int64           `json:"sellerId,omitempty"`
	Actions       []MessageAction `json:"actions,omitempty"`
}

// ChatMessage is one inbound message on a chat room channel. Messages are
// append-only and ordered by SentAt.
type ChatMessage struct {
	ID         string           `json:"id"`
	ChatroomID string           `json:"chatroomId"`
	SenderID   int64            `json:"senderId"`
	Type       MessageType      `json:"type"`
	Content    string           `json:"content"`
	SentAt     time.Time        `json:"sentAt"`
	Metadata   *MessageMetadata `json:"metadata,omitempty"`
}

// ChatRoom is one buyer/seller conversation bound to a ticket.
type ChatRoom struct {
	ID              string      `json:"chatroomId"`
	TicketID        int64       `json:"ticketId"`
	BuyerID         int64       `json:"buyerId"`
	SellerID        int64       `json:"sellerId"`
	LastMessage     string      `json:"lastMessage,omitempty"`
	LastMessageType MessageType `json:"lastMessageType,omitempty"`
	UpdatedAt       time.Time   `json:"updatedAt"`
}
