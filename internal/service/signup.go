// Package service provides signup business logic, delegating persistence
// to a UserRepository.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/atinyakov/signupform/internal/metrics"
	"github.com/atinyakov/signupform/internal/models"
	"github.com/atinyakov/signupform/internal/repository"
	"github.com/atinyakov/signupform/internal/rules"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	msgIDNumberTaken   = rules.TakenMessage
	msgPasswordTooLong = "Password should contain at most 72 bytes."
)

// ErrStoreWrite reports that a valid submission could not be persisted.
var ErrStoreWrite = errors.New("store write failed")

// ValidationError carries the per-field failures of a submission.
type ValidationError struct {
	Result rules.Result
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %d field(s)", len(e.Result.Violations))
}

func fieldError(key, msg string) *ValidationError {
	return &ValidationError{Result: rules.Result{Violations: []rules.Violation{{Key: key, Message: msg}}}}
}

// UserRepository defines the persistence operations
// required by the signup service.
type UserRepository interface {
	// InsertUser stores u and returns its record id. It must fail with
	// repository.ErrIDNumberTaken, without writing, when the id number is in use.
	InsertUser(ctx context.Context, u models.User) (string, error)
	// FindIDNumber returns idNumber if a stored user holds it, or "".
	FindIDNumber(ctx context.Context, idNumber string) (string, error)
}

// SignupService validates submissions and registers users.
type SignupService struct {
	repo    UserRepository
	rules   *rules.Set
	metrics *metrics.Metrics
	cost    int
}

// NewSignupService constructs a SignupService. m may be nil.
func NewSignupService(repo UserRepository, set *rules.Set, m *metrics.Metrics) *SignupService {
	return &SignupService{
		repo:    repo,
		rules:   set,
		metrics: m,
		cost:    bcrypt.DefaultCost,
	}
}

// Validate runs the rule set against sub without touching the store.
func (s *SignupService) Validate(sub models.Submission) rules.Result {
	return s.rules.Check(sub.Value)
}

// Register validates sub and, if every rule passes, stores it as a new user.
// It returns *ValidationError for rule failures and for an id number that is
// already taken, and an error wrapping ErrStoreWrite when the write fails.
func (s *SignupService) Register(ctx context.Context, sub models.Submission) (models.Identity, error) {
	if res := s.Validate(sub); !res.OK() {
		s.metrics.ObserveSignup(metrics.OutcomeInvalid)
		return models.Identity{}, &ValidationError{Result: res}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(sub.Password), s.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			s.metrics.ObserveSignup(metrics.OutcomeInvalid)
			return models.Identity{}, fieldError(rules.Password, msgPasswordTooLong)
		}
		return models.Identity{}, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		ID:           uuid.NewString(),
		FirstName:    sub.FirstName,
		LastName:     sub.LastName,
		IDNumber:     sub.IDNumber,
		PasswordHash: hash,
	}
	if _, err := s.repo.InsertUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrIDNumberTaken) {
			s.metrics.ObserveSignup(metrics.OutcomeDuplicate)
			return models.Identity{}, fieldError(rules.IDNumber, msgIDNumberTaken)
		}
		s.metrics.ObserveSignup(metrics.OutcomeStoreError)
		return models.Identity{}, fmt.Errorf("%w: %w", ErrStoreWrite, err)
	}

	s.metrics.ObserveSignup(metrics.OutcomeCreated)
	return models.Identity{
		FirstName: sub.FirstName,
		LastName:  sub.LastName,
		IDNumber:  sub.IDNumber,
	}, nil
}

// CheckID looks up whether idNumber is taken. It returns the stored value when
// it is and "" when it is not. A candidate failing the id number rule is
// rejected with *ValidationError before the store is queried.
func (s *SignupService) CheckID(ctx context.Context, idNumber string) (string, error) {
	if !s.rules.Passes(rules.IDNumber, idNumber) {
		s.metrics.ObserveIDLookup(metrics.LookupRejected)
		r, _ := s.rules.Lookup(rules.IDNumber)
		return "", fieldError(rules.IDNumber, r.Message)
	}

	found, err := s.repo.FindIDNumber(ctx, idNumber)
	if err != nil {
		s.metrics.ObserveIDLookup(metrics.LookupError)
		return "", err
	}
	if found == "" {
		s.metrics.ObserveIDLookup(metrics.LookupAvailable)
	} else {
		s.metrics.ObserveIDLookup(metrics.LookupTaken)
	}
	return found, nil
}
