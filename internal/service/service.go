// Package service implements the enrollment and certificate business rules
// and orchestrates them over the Catalog Store, locks and event publishing.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/Shivanand-hulikatti/event-enrollment/internal/model"
)

// txManager runs fn inside a store transaction.
type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// catalogReader resolves the entities both services need.
type catalogReader interface {
	GetStudent(ctx context.Context, id int64) (*model.Student, error)
	GetEvent(ctx context.Context, id int64) (*model.Event, error)
	LockEvent(ctx context.Context, id int64) (*model.Event, error)
}

// warnIfFailed logs a best-effort side effect that did not succeed.
func warnIfFailed(ctx context.Context, log *slog.Logger, msg string, err error, attrs ...any) {
	if err == nil {
		return
	}
	log.WarnContext(ctx, msg, append(attrs, slog.String("error", err.Error()))...)
}

func utcNow() time.Time {
	return time.Now().UTC()
}
