package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/sandeepkv93/account-onboarding-service/internal/domain"
	"github.com/sandeepkv93/account-onboarding-service/internal/repository"
)

const maxAccountIDAttempts = 8

type NewAccount struct {
	Kind         domain.AccountKind
	Name         string
	Email        string
	Phone        string
	BusinessName string
	TaxID        string
}

func (n NewAccount) normalized() NewAccount {
	n.Name = strings.TrimSpace(n.Name)
	n.Email = normalizeEmail(n.Email)
	n.Phone = strings.TrimSpace(n.Phone)
	n.BusinessName = strings.TrimSpace(n.BusinessName)
	n.TaxID = strings.TrimSpace(n.TaxID)
	return n
}

func (n NewAccount) validate() error {
	if _, ok := domain.ParseAccountKind(string(n.Kind)); !ok {
		return ErrInvalidAccountKind
	}
	if n.Name == "" || n.Email == "" || n.Phone == "" {
		return fmt.Errorf("%w for %s", ErrMissingFields, strings.ToLower(string(n.Kind)))
	}
	return nil
}

// AccountRegistry owns account creation and verification-state transitions.
// Uniqueness of email and phone is enforced by the storage layer; callers
// pre-check for friendlier errors.
type AccountRegistry struct {
	repo repository.AccountRepository
	now  func() time.Time
	intN func(n int) int
}

func NewAccountRegistry(repo repository.AccountRepository) *AccountRegistry {
	return &AccountRegistry{repo: repo, now: time.Now, intN: rand.IntN}
}

func (r *AccountRegistry) FindByID(ctx context.Context, id string) (*domain.Account, error) {
	return r.repo.FindByID(ctx, id)
}

func (r *AccountRegistry) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.repo.FindByEmail(ctx, normalizeEmail(email))
}

func (r *AccountRegistry) FindByPhone(ctx context.Context, phone string) (*domain.Account, error) {
	return r.repo.FindByPhone(ctx, strings.TrimSpace(phone))
}

// FindByIdentifier classifies identifier as email or phone and looks the
// account up by that column.
func (r *AccountRegistry) FindByIdentifier(ctx context.Context, identifier string) (*domain.Account, IdentifierKind, error) {
	kind, value, err := ClassifyIdentifier(identifier)
	if err != nil {
		return nil, "", err
	}
	var account *domain.Account
	if kind == IdentifierEmail {
		account, err = r.repo.FindByEmail(ctx, value)
	} else {
		account, err = r.repo.FindByPhone(ctx, value)
	}
	return account, kind, err
}

// Create persists a new unverified account without a password. Generated
// ids that collide are retried.
func (r *AccountRegistry) Create(ctx context.Context, in NewAccount) (*domain.Account, error) {
	in = in.normalized()
	if err := in.validate(); err != nil {
		return nil, err
	}
	for attempt := 0; attempt < maxAccountIDAttempts; attempt++ {
		id := r.generateID(in.Kind)
		exists, err := r.repo.ExistsByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("check account id: %w", err)
		}
		if exists {
			continue
		}
		account := &domain.Account{
			ID:    id,
			Kind:  in.Kind,
			Name:  in.Name,
			Email: in.Email,
			Phone: in.Phone,
		}
		if in.BusinessName != "" {
			account.BusinessName = &in.BusinessName
		}
		if in.TaxID != "" {
			account.TaxID = &in.TaxID
		}
		err = r.repo.Create(ctx, account)
		if err == nil {
			return account, nil
		}
		if !errors.Is(err, repository.ErrDuplicateAccount) {
			return nil, fmt.Errorf("create account: %w", err)
		}
		// Lost a race on the id; anything else is an email or phone clash.
		if taken, checkErr := r.repo.ExistsByID(ctx, id); checkErr != nil || !taken {
			return nil, err
		}
	}
	return nil, ErrIDSpaceExhausted
}

func (r *AccountRegistry) MarkVerifiedWithPassword(ctx context.Context, accountID, passwordHash string) error {
	return r.repo.MarkVerifiedWithPassword(ctx, accountID, passwordHash, r.now().UTC())
}

// generateID returns {IND|BSN}{year}{10000..99999}.
func (r *AccountRegistry) generateID(kind domain.AccountKind) string {
	return fmt.Sprintf("%s%d%d", kind.IDPrefix(), r.now().UTC().Year(), 10000+r.intN(90000))
}
