// Package memory is an in-process implementation of every repository. It
// backs DB_DRIVER=memory for local runs and the service tests.
//
// Transactions are serialized by a single mutex, which gives the same
// guarantee as the row locks taken by the gorm repositories. Writes made
// inside a failed transaction are not rolled back.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"loanportal/internal/adapters/persistence/models"
	"loanportal/internal/adapters/persistence/repositories"
)

type txKey struct{}

// Store holds all tables in memory
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex

	seq         map[string]uint
	users       map[uint]models.User
	sessions    map[uint]models.Session
	profiles    map[uint]models.Profile
	banks       map[uint]models.BankDetail
	loans       map[uint]models.Loan
	withdrawals map[uint]models.WithdrawalRequest
	agreements  map[uint]models.LoanAgreement
	audits      []models.AuditLog

	now func() time.Time
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		seq:         map[string]uint{},
		users:       map[uint]models.User{},
		sessions:    map[uint]models.Session{},
		profiles:    map[uint]models.Profile{},
		banks:       map[uint]models.BankDetail{},
		loans:       map[uint]models.Loan{},
		withdrawals: map[uint]models.WithdrawalRequest{},
		agreements:  map[uint]models.LoanAgreement{},
		now:         time.Now,
	}
}

// Set exposes the store through the repository interfaces
func (s *Store) Set() *repositories.Set {
	return &repositories.Set{
		Tx:          s,
		Users:       &userRepo{s},
		Sessions:    &sessionRepo{s},
		Profiles:    &profileRepo{s},
		BankDetails: &bankRepo{s},
		Loans:       &loanRepo{s},
		Withdrawals: &withdrawalRepo{s},
		AuditLogs:   &auditRepo{s},
		Agreements:  &agreementRepo{s},
	}
}

// WithinTransaction runs fn while holding the store-wide transaction lock.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return fn(context.WithValue(ctx, txKey{}, true))
}

func (s *Store) nextID(table string) uint {
	s.seq[table]++
	return s.seq[table]
}

func (s *Store) stamp(created *time.Time) {
	if created.IsZero() {
		*created = s.now()
	}
}

// newestFirst orders by creation time then id, both descending
func newestFirst[T any](items []T, key func(T) (time.Time, uint)) {
	sort.Slice(items, func(i, j int) bool {
		ti, ii := key(items[i])
		tj, ij := key(items[j])
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return ii > ij
	})
}

func page[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}
