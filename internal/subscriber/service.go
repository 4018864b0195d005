// Package subscriber manages the notification mailing list.
package subscriber

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sitekit/sitekit/internal/metrics"
	"github.com/sitekit/sitekit/internal/model"
)

// ErrInvalidEmail is returned for an empty address or one without '@'.
var ErrInvalidEmail = errors.New("valid email is required")

// Response messages shown to the visitor.
const (
	MsgSubscribed          = "Thank you for your subscription!"
	MsgAlreadySubscribed   = "You are already subscribed!"
	MsgUnsubscribed        = "You have been successfully unsubscribed. We're sorry to see you go!"
	MsgAlreadyUnsubscribed = "This email is not in our subscription list."
)

// Result is the outcome of Subscribe or Unsubscribe.
type Result struct {
	Message             string
	Total               int
	AlreadySubscribed   bool
	AlreadyUnsubscribed bool
}

// Service applies subscription rules on top of a Repository.
type Service struct {
	repo    Repository
	metrics metrics.Recorder
	now     func() time.Time
}

// NewService creates a new Service.
func NewService(repo Repository, recorder metrics.Recorder) *Service {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Service{repo: repo, metrics: recorder, now: time.Now}
}

// Subscribe adds email to the list. Subscribing twice is not an error.
func (s *Service) Subscribe(ctx context.Context, email string) (Result, error) {
	email = model.NormalizeEmail(email)
	if !model.ValidEmail(email) {
		return Result{}, ErrInvalidEmail
	}

	added, total, err := s.repo.Add(ctx, email)
	if err != nil {
		return Result{}, err
	}

	if !added {
		s.metrics.IncSubscribe(metrics.OutcomeDuplicate)
		return Result{Message: MsgAlreadySubscribed, Total: total, AlreadySubscribed: true}, nil
	}

	s.metrics.IncSubscribe(metrics.OutcomeAdded)
	slog.InfoContext(ctx, "subscriber added", "total", total)
	return Result{Message: MsgSubscribed, Total: total}, nil
}

// Unsubscribe removes email from the list. Removing an unknown address is not an error.
func (s *Service) Unsubscribe(ctx context.Context, email string) (Result, error) {
	email = model.NormalizeEmail(email)
	if !model.ValidEmail(email) {
		return Result{}, ErrInvalidEmail
	}

	removed, total, err := s.repo.Remove(ctx, email)
	if err != nil {
		return Result{}, err
	}

	if !removed {
		s.metrics.IncUnsubscribe(metrics.OutcomeMissing)
		return Result{Message: MsgAlreadyUnsubscribed, Total: total, AlreadyUnsubscribed: true}, nil
	}

	s.metrics.IncUnsubscribe(metrics.OutcomeRemoved)
	slog.InfoContext(ctx, "subscriber removed", "total", total)
	return Result{Message: MsgUnsubscribed, Total: total}, nil
}

// List returns every subscriber.
func (s *Service) List(ctx context.Context) ([]string, error) {
	return s.repo.List(ctx)
}

// Export returns the full list with a count and timestamp.
func (s *Service) Export(ctx context.Context) (model.SubscriberExport, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return model.SubscriberExport{}, err
	}
	return model.SubscriberExport{
		Subscribers: list,
		Count:       len(list),
		ExportedAt:  s.now().UTC(),
	}, nil
}
