package ws

import "encoding/json"

// frame is the type-peek for every message on the wire. The gateway speaks
// a small JSON protocol: requests carry an id and a method, responses echo
// the id, events carry an event name and a payload.
type frame struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Event   string          `json:"event,omitempty"`
	OK      bool            `json:"ok,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Error   *wireError      `json:"error,omitempty"`
}

type wireError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

const (
	frameRequest  = "req"
	frameResponse = "res"
	frameEvent    = "event"
)

// Event names pushed by the gateway.
const (
	eventMessagePosted   = "message.posted"
	eventTitleChanged    = "thread.title_changed"
	eventNicknameChanged = "thread.nickname_changed"
)

// Methods we invoke on the gateway.
const (
	methodSendMessage = "message.send"
	methodSetTitle    = "thread.set_title"
	methodSetNickname = "thread.set_nickname"
)

type messagePostedPayload struct {
	Group  string `json:"group"`
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

type titleChangedPayload struct {
	Group string `json:"group"`
}

type nicknameChangedPayload struct {
	Group  string `json:"group"`
	Member string `json:"member"`
}

type sendMessageParams struct {
	Group    string        `json:"group"`
	Text     string        `json:"text"`
	Mentions []wireMention `json:"mentions,omitempty"`
}

type wireMention struct {
	Member string `json:"member"`
	Tag    string `json:"tag"`
}

type setTitleParams struct {
	Group string `json:"group"`
	Title string `json:"title"`
}

type setNicknameParams struct {
	Group    string `json:"group"`
	Member   string `json:"member"`
	Nickname string `json:"nickname"`
}

func newRequest(id, method string, params any) (frame, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return frame{}, err
	}
	return frame{Type: frameRequest, ID: id, Method: method, Params: raw}, nil
}
