package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/SscSPs/mining_ledger/internal/apperrors"
	"github.com/SscSPs/mining_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/mining_ledger/internal/core/ports/services"
	"github.com/SscSPs/mining_ledger/internal/middleware"
	"github.com/SscSPs/mining_ledger/internal/platform/metrics"
)

// BaseService provides common functionality for all services
type BaseService struct {
	Notifier portssvc.Notifier
	Clock    func() time.Time
}

// ServiceOption is a functional option for configuring a service
type ServiceOption func(*BaseService)

// WithNotifier sets the post-commit notification sink.
func WithNotifier(n portssvc.Notifier) ServiceOption {
	return func(b *BaseService) {
		b.Notifier = n
	}
}

// WithClock overrides the time source.
func WithClock(clock func() time.Time) ServiceOption {
	return func(b *BaseService) {
		b.Clock = clock
	}
}

func newBaseService(options ...ServiceOption) BaseService {
	b := BaseService{Clock: func() time.Time { return time.Now().UTC() }}
	for _, opt := range options {
		opt(&b)
	}
	return b
}

// GetLogger gets the logger from context or returns a default one
func (s *BaseService) GetLogger(ctx context.Context) *slog.Logger {
	return middleware.GetLoggerFromCtx(ctx)
}

// LogError logs an error with consistent formatting
func (s *BaseService) LogError(ctx context.Context, err error, msg string, keyvals ...any) {
	args := make([]any, 0, len(keyvals)+1)
	args = append(args, slog.String("error", err.Error()))
	args = append(args, keyvals...)
	s.GetLogger(ctx).Error(msg, args...)
}

// LogInfo logs an info message with consistent formatting
func (s *BaseService) LogInfo(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Info(msg, keyvals...)
}

// logFailure logs business rejections at warn level and counts them; anything else is an error.
func (s *BaseService) logFailure(ctx context.Context, err error, msg string, keyvals ...any) {
	if reason := apperrors.Reason(err); reason != "" {
		metrics.BusinessRejections.WithLabelValues(reason).Inc()
		args := append([]any{slog.String("reason", reason), slog.String("error", err.Error())}, keyvals...)
		s.GetLogger(ctx).Warn(msg, args...)
		return
	}
	s.LogError(ctx, err, msg, keyvals...)
}

func (s *BaseService) now() time.Time {
	return s.Clock()
}

// committed records ledger entries that are durably stored.
func (s *BaseService) committed(txns ...domain.Transaction) {
	for _, t := range txns {
		metrics.TransactionsTotal.WithLabelValues(string(t.Type)).Inc()
	}
}

// notify hands n to the notifier. Call only after the session has committed.
func (s *BaseService) notify(ctx context.Context, n domain.Notification) {
	if s.Notifier == nil {
		return
	}
	if n.OccurredAt.IsZero() {
		n.OccurredAt = s.now()
	}
	s.Notifier.Notify(ctx, n)
}
