// Package numbering reserves per-user sequential document numbers for
// quotations and invoices, in the user-visible format
// {PREFIX}-{4-digit year}-{sequence zero-padded to 3 digits}.
package numbering

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Kind selects which counter a number is drawn from.
type Kind string

const (
	KindInvoice   Kind = "invoice"
	KindQuotation Kind = "quotation"
)

// ErrExhausted is returned when repeated collisions prevent reserving a
// number within the attempt budget. It indicates counter/document drift that
// retrying will not fix.
var ErrExhausted = errors.New("numbering: allocation attempts exhausted")

const defaultMaxAttempts = 50

// CounterStore atomically reserves the next sequence value for a user and
// kind, lazily creating default settings on first use. The increment must be
// a single fetch-and-increment so concurrent callers never observe the same
// value.
type CounterStore interface {
	NextSequence(ctx context.Context, userID uuid.UUID, kind Kind) (prefix string, seq int64, err error)
}

// DocumentIndex reports whether a document of the given kind already carries
// a number for the user. It is the safety net against drift between the
// counter and the documents actually stored.
type DocumentIndex interface {
	NumberExists(ctx context.Context, userID uuid.UUID, kind Kind, number string) (bool, error)
}

// Allocator composes collision-checked document numbers.
type Allocator struct {
	counters    CounterStore
	docs        DocumentIndex
	maxAttempts int
	now         func() time.Time
	onRetry     func()
}

// Option adjusts allocator behavior.
type Option func(*Allocator)

// WithRetryHook registers a callback invoked once per collision retry.
func WithRetryHook(fn func()) Option {
	return func(a *Allocator) { a.onRetry = fn }
}

// NewAllocator constructs an Allocator with the default attempt budget.
func NewAllocator(counters CounterStore, docs DocumentIndex, opts ...Option) *Allocator {
	a := &Allocator{
		counters:    counters,
		docs:        docs,
		maxAttempts: defaultMaxAttempts,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Allocate reserves and returns a fresh document number for the user. The
// underlying counter is advanced before returning, so a number handed out is
// never handed out again even if the caller's write later fails.
func (a *Allocator) Allocate(ctx context.Context, userID uuid.UUID, kind Kind) (string, error) {
	year := a.now().Year()
	for attempt := 0; attempt < a.maxAttempts; attempt++ {
		prefix, seq, err := a.counters.NextSequence(ctx, userID, kind)
		if err != nil {
			return "", fmt.Errorf("numbering: next sequence: %w", err)
		}

		candidate := Format(prefix, year, seq)

		exists, err := a.docs.NumberExists(ctx, userID, kind, candidate)
		if err != nil {
			return "", fmt.Errorf("numbering: check collision: %w", err)
		}
		if !exists {
			return candidate, nil
		}
		if a.onRetry != nil {
			a.onRetry()
		}
	}
	return "", fmt.Errorf("%w: %s for user %s", ErrExhausted, kind, userID)
}

// Format renders a document number. The sequence keeps growing past 999; the
// padding only guarantees a minimum width.
func Format(prefix string, year int, seq int64) string {
	return fmt.Sprintf("%s-%d-%03d", prefix, year, seq)
}
