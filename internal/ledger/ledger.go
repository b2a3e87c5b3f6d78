// Package ledger composes the split calculator, validator, balance
// aggregator and settlement lifecycle against a storage.Store. It is the only
// layer with side effects; everything it delegates to is pure.
package ledger

import (
	"time"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/storage"
)

// Service is the ledger orchestrator.
type Service struct {
	store     storage.Store
	validator calculator.Validator
	policy    calculator.SettlementPolicy
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithValidator sets the locale and currency used for validation messages.
func WithValidator(v calculator.Validator) Option {
	return func(s *Service) { s.validator = v }
}

// WithSettlementPolicy selects which settlements GetGroupBalances applies.
// The default is calculator.CompletedOnly.
func WithSettlementPolicy(p calculator.SettlementPolicy) Option {
	return func(s *Service) { s.policy = p }
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a Service backed by store.
func New(store storage.Store, opts ...Option) *Service {
	s := &Service{
		store:     store,
		validator: calculator.DefaultValidator,
		policy:    calculator.CompletedOnly,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Validator returns the validator used for split messages.
func (s *Service) Validator() calculator.Validator {
	return s.validator
}
