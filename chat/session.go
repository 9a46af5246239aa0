// Package chat defines the boundary with the messaging platform.
// The guard never talks to the wire directly; it goes through Session.
package chat

import (
	"context"
	"fmt"

	"groupguard/domain"
)

// Credentials is what the gateway needs to open a session.
type Credentials struct {
	URL   string
	Token string
}

// Session is an authenticated connection to the chat platform.
//
// Events delivers the inbound stream one event at a time; the channel is
// closed only on fatal transport failure. The three mutation calls block
// until the platform acks or rejects; callers decide whether to run them
// off the event timeline.
type Session interface {
	Events() <-chan domain.InboundEvent
	SendMessage(ctx context.Context, out domain.Outbound, group domain.GroupID) error
	SetTitle(ctx context.Context, title string, group domain.GroupID) error
	SetNickname(ctx context.Context, nick string, group domain.GroupID, member domain.MemberID) error
	Close() error
}

// RemoteError is a rejection reported by the platform for a mutation or
// delivery request.
type RemoteError struct {
	Code    string
	Message string
}

func (e RemoteError) Error() string {
	return fmt.Sprintf("remote error %s: %s", e.Code, e.Message)
}
