package audit

import "context"

// Worker consumes audit events from a channel and persists them. It keeps
// background processing testable without wiring queue implementations.
type Worker struct {
	publisher *Publisher
	inbox     <-chan Event
}

func NewWorker(publisher *Publisher, inbox <-chan Event) *Worker {
	return &Worker{publisher: publisher, inbox: inbox}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.publisher.Emit(ctx, event); err != nil {
				return err
			}
		}
	}
}
