package broadcast

import (
	"encoding/json"

	"github.com/wfunc/unoserver/network"
)

// Actor is the outbound capability of a seated player. Human players are
// backed by a live connection; bots and disconnected players by Nop, so the
// room can emit events without caring who is listening.
type Actor interface {
	Send(msgID uint16, data []byte) error
}

// SendJSON marshals payload and delivers it through the actor.
func SendJSON(a Actor, msgID uint16, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return a.Send(msgID, data)
}

type connActor struct {
	conn network.Connection
}

// NewConnActor wraps a live connection as an actor.
func NewConnActor(conn network.Connection) Actor {
	return connActor{conn: conn}
}

func (a connActor) Send(msgID uint16, data []byte) error {
	return a.conn.Send(msgID, data)
}

type nopActor struct{}

// Nop is the actor for bots and for seats whose connection is gone.
func Nop() Actor {
	return nopActor{}
}

func (nopActor) Send(uint16, []byte) error {
	return nil
}
