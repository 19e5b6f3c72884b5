package event

import "context"

/* Listener is told about captures and replay attempts
 * Implementations must not block for long; they run on the request path
 * and never receive the store lock
 */
type Listener interface {
	OnCapture(ctx context.Context, ev Event)
	OnReplay(ctx context.Context, ev Event, outcome ReplayOutcome)
	OnReplayFailure(ctx context.Context, ev Event, err error)
}

// Listeners fans every notification out to each listener in order
type Listeners []Listener

func (ls Listeners) OnCapture(ctx context.Context, ev Event) {
	for _, l := range ls {
		l.OnCapture(ctx, ev)
	}
}

func (ls Listeners) OnReplay(ctx context.Context, ev Event, outcome ReplayOutcome) {
	for _, l := range ls {
		l.OnReplay(ctx, ev, outcome)
	}
}

func (ls Listeners) OnReplayFailure(ctx context.Context, ev Event, err error) {
	for _, l := range ls {
		l.OnReplayFailure(ctx, ev, err)
	}
}
