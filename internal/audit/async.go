package audit

import "context"

// AsyncEmitter queues events on an inbox drained by a Worker, keeping the
// audit store's write latency off the request path. The send blocks when the
// inbox is full rather than dropping: audit events of human-gated actions
// are not droppable.
type AsyncEmitter struct {
	inbox chan<- Event
}

func NewAsyncEmitter(inbox chan<- Event) *AsyncEmitter {
	return &AsyncEmitter{inbox: inbox}
}

func (e *AsyncEmitter) Emit(ctx context.Context, event Event) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case e.inbox <- event:
		return nil
	}
}
