package client

import (
	"context"
	"io"
	"time"

	"github.com/sirupsen/logrus"
)

// drawInterval matches the server's tick rate; the renderer redraws on the
// same cadence the arena steps, whether or not a new Step just arrived.
const drawInterval = time.Second / 30

// App is the client's single-threaded event loop: it owns State and is
// the only goroutine that calls Reduce. Network Actions arrive over the
// Transport's channel; local input Actions arrive over Input.
type App struct {
	state     *State
	transport *Transport
	input     <-chan Action
	out       io.Writer

	closed chan struct{}
}

// NewApp wires a fresh App around cfg's initial state, a Transport ready
// to be driven, and an input channel of local Actions (e.g. keypresses
// already translated to RequestMove/RequestSkill/RequestClose upstream).
// out receives a text snapshot once per draw tick; pass io.Discard to run
// headless.
func NewApp(cfg Config, transport *Transport, input <-chan Action, out io.Writer) *App {
	return &App{
		state:     NewState(cfg),
		transport: transport,
		input:     input,
		out:       out,
		closed:    make(chan struct{}),
	}
}

// State returns the current state snapshot. Safe to call only from the
// goroutine running Run, or after Run has returned.
func (a *App) State() *State {
	return a.state
}

// Run drives the event loop until ctx is cancelled or a RequestClose
// action is processed. It always tears down the transport before
// returning.
func (a *App) Run(ctx context.Context) {
	defer a.transport.Close()
	defer close(a.closed)

	draw := time.NewTicker(drawInterval)
	defer draw.Stop()

	a.dispatch(StartApp{})

	for {
		select {
		case <-ctx.Done():
			logrus.Info("client: closing")
			return

		case action, ok := <-a.transport.Actions():
			if !ok {
				return
			}
			a.dispatch(action)

		case action, ok := <-a.input:
			if !ok {
				a.input = nil
				continue
			}
			if _, isClose := action.(RequestClose); isClose {
				a.dispatch(action)
				return
			}
			a.dispatch(action)

		case <-draw.C:
			a.render()
		}
	}
}

func (a *App) dispatch(action Action) {
	logrus.WithField("action", action).Trace("client: dispatch")
	calls := Reduce(a.state, action)

	if info, ok := action.(GotServerInfo); ok && a.state.Server.Addr != nil {
		a.transport.BindUDPServer(a.state.Server.Addr.IP.String(), info.UDPPort)
	}

	for _, call := range calls {
		a.transport.Execute(call)
	}
}

func (a *App) render() {
	writeSnapshot(a.out, a.state)
}
