// Package ws implements the chat.Session boundary over the gateway's
// websocket protocol.
package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"groupguard/chat"
	"groupguard/domain"
	guarderrors "groupguard/errors"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 1 << 20 // 1MB

	eventBuffer = 256
	sendBuffer  = 256
)

// Client is an authenticated gateway connection. It owns two pumps: the
// read pump routes responses to pending calls and events to the event
// channel; the write pump serializes all writes and keeps the ping cadence.
type Client struct {
	log    *slog.Logger
	conn   *websocket.Conn
	send   chan []byte
	events chan domain.InboundEvent
	done   chan struct{}

	mu      sync.Mutex
	pending map[string]chan frame

	closeOnce sync.Once
}

// Authenticate dials the gateway with a bearer token and returns a live
// session. A rejected dial is the only authentication failure mode; the
// gateway closes the socket before the handshake completes.
func Authenticate(ctx context.Context, log *slog.Logger, creds chat.Credentials) (*Client, error) {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+creds.Token)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, creds.URL, header)
	if err != nil {
		return nil, fmt.Errorf("gateway authentication failed: %w", err)
	}

	c := &Client{
		log:     log,
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
		events:  make(chan domain.InboundEvent, eventBuffer),
		done:    make(chan struct{}),
		pending: make(map[string]chan frame),
	}

	go c.readPump()
	go c.writePump()

	return c, nil
}

func (c *Client) Events() <-chan domain.InboundEvent {
	return c.events
}

func (c *Client) SendMessage(ctx context.Context, out domain.Outbound, group domain.GroupID) error {
	params := sendMessageParams{
		Group: string(group),
		Text:  out.Text,
	}
	for _, m := range out.Mentions {
		params.Mentions = append(params.Mentions, wireMention{
			Member: string(m.Member),
			Tag:    m.DisplayTag,
		})
	}
	return c.call(ctx, methodSendMessage, params)
}

func (c *Client) SetTitle(ctx context.Context, title string, group domain.GroupID) error {
	return c.call(ctx, methodSetTitle, setTitleParams{
		Group: string(group),
		Title: title,
	})
}

func (c *Client) SetNickname(ctx context.Context, nick string, group domain.GroupID, member domain.MemberID) error {
	return c.call(ctx, methodSetNickname, setNicknameParams{
		Group:    string(group),
		Member:   string(member),
		Nickname: nick,
	})
}

func (c *Client) Close() error {
	c.shutdown()
	return nil
}

// call sends one correlated request and blocks until the matching response,
// context cancellation, or connection loss.
func (c *Client) call(ctx context.Context, method string, params any) error {
	id := uuid.NewString()
	req, err := newRequest(id, method, params)
	if err != nil {
		return err
	}
	data, err := json.Marshal(req)
	if err != nil {
		return err
	}

	respCh := make(chan frame, 1)
	c.mu.Lock()
	c.pending[id] = respCh
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	select {
	case c.send <- data:
	case <-c.done:
		return guarderrors.ErrStreamClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case resp := <-respCh:
		if !resp.OK {
			if resp.Error != nil {
				return chat.RemoteError{Code: resp.Error.Code, Message: resp.Error.Message}
			}
			return chat.RemoteError{Code: "unknown", Message: "request rejected"}
		}
		return nil
	case <-c.done:
		return guarderrors.ErrStreamClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) readPump() {
	// The read pump is the only writer to the event channel, so it is also
	// the one that closes it. The engine observes that close as the fatal
	// end of the stream.
	defer func() {
		c.shutdown()
		close(c.events)
	}()

	c.conn.SetReadLimit(maxMsgSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Error("gateway connection lost", "err", err)
			}
			return
		}

		var f frame
		if err := json.Unmarshal(message, &f); err != nil {
			c.log.Warn("dropping unparseable frame", "err", err)
			continue
		}

		switch f.Type {
		case frameResponse:
			c.mu.Lock()
			ch, ok := c.pending[f.ID]
			c.mu.Unlock()
			if ok {
				ch <- f
			}
		case frameEvent:
			evt, err := decodeEvent(f)
			if err != nil {
				c.log.Warn("dropping malformed event", "event", f.Event, "err", err)
				continue
			}
			if evt != nil {
				select {
				case c.events <- evt:
				case <-c.done:
					return
				}
			}
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) shutdown() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// decodeEvent maps a gateway event frame to a domain event. Unknown event
// names are ignored; the gateway is free to grow its vocabulary.
func decodeEvent(f frame) (domain.InboundEvent, error) {
	switch f.Event {
	case eventMessagePosted:
		var p messagePostedPayload
		if err := json.Unmarshal(f.Payload, &p); err != nil {
			return nil, err
		}
		return domain.CommandCandidate{
			Sender: domain.MemberID(p.Sender),
			Room:   domain.GroupID(p.Group),
			Text:   p.Text,
		}, nil
	case eventTitleChanged:
		var p titleChangedPayload
		if err := json.Unmarshal(f.Payload, &p); err != nil {
			return nil, err
		}
		return domain.TitleChanged{Room: domain.GroupID(p.Group)}, nil
	case eventNicknameChanged:
		var p nicknameChangedPayload
		if err := json.Unmarshal(f.Payload, &p); err != nil {
			return nil, err
		}
		return domain.NicknameChanged{
			Room:   domain.GroupID(p.Group),
			Member: domain.MemberID(p.Member),
		}, nil
	default:
		return nil, nil
	}
}
