package datanode

import (
	"context"

	"github.com/looplab/fsm"
)

// Connection states.
const (
	StateStopped      = "STOPPED"
	StateConnecting   = "CONNECTING"
	StateConnected    = "CONNECTED"
	StateDisconnected = "DISCONNECTED"
)

// Connection events.
const (
	EventConnect    = "CONNECT"
	EventConnected  = "CONNECTED"
	EventDisconnect = "DISCONNECT"
	EventStop       = "STOP"
)

// NewFiniteStateMachine creates the connection state machine of the data node.
// The finite state machine has the following states:
// - Stopped
// - Connecting
// - Connected
// - Disconnected
// The finite state machine has the following events:
// - Connect
// - Connected
// - Disconnect
// - Stop
func (d *DataNode) NewFiniteStateMachine(opts ...func(*fsm.FSM)) *fsm.FSM {
	finiteStateMachine := fsm.NewFSM(
		StateStopped,
		fsm.Events{
			{
				Name: EventConnect,
				Src: []string{
					StateStopped,
					StateDisconnected,
				},
				Dst: StateConnecting,
			},
			{
				Name: EventConnected,
				Src: []string{
					StateConnecting,
				},
				Dst: StateConnected,
			},
			{
				Name: EventDisconnect,
				Src: []string{
					StateConnecting,
					StateConnected,
				},
				Dst: StateDisconnected,
			},
			{
				Name: EventStop,
				Src: []string{
					StateConnecting,
					StateConnected,
					StateDisconnected,
				},
				Dst: StateStopped,
			},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				d.logger.Debugf("[DataNode][%s] %s -> %s (%s)", d.options.Name, e.Src, e.Dst, e.Event)
			},
		},
	)

	// apply options
	for _, opt := range opts {
		opt(finiteStateMachine)
	}

	return finiteStateMachine
}
