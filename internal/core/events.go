package core

import (
	"encoding/json"
	"fmt"
)

// Inbound events.
const (
	EventPing              = "ping"
	EventPeersCountRequest = "peers:count:request"
	EventRoomCreate        = "room:create"
	EventRoomJoin          = "room:join"
	EventRoomInfo          = "room:info"
	EventQueueGet          = "queue:get"
	EventQueueAdd          = "queue:add"
)

// Outbound events.
const (
	EventAck          = "ack"
	EventConnected    = "connected"
	EventPeersCount   = "peers:count"
	EventGuestsUpdate = "room:guests:update"
	EventQueueUpdate  = "queue:update"
	EventRoomClosed   = "room:closed"
)

const (
	ReasonHostDisconnected = "host_disconnected"
	ReasonServerShutdown   = "server_shutdown"
)

// Envelope wraps every frame on the wire. Ack is echoed back on replies.
type Envelope struct {
	Type string          `json:"type"`
	Ack  string          `json:"ack,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Event is an outbound message before encoding.
type Event struct {
	Type string
	Ack  string
	Data any
}

func (e Event) Encode() (Frame, error) {
	out := struct {
		Type string `json:"type"`
		Ack  string `json:"ack,omitempty"`
		Data any    `json:"data,omitempty"`
	}{e.Type, e.Ack, e.Data}
	b, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", e.Type, err)
	}
	return b, nil
}
