package service

import "context"

// ProcessOutboxEvents exposes processEvents for tests.
func (w *OutboxWorker) ProcessOutboxEvents(ctx context.Context) {
	w.processEvents(ctx)
}
