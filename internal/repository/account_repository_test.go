package repository

import (
	"errors"
	"testing"

	"github.com/sandeepkv93/account-onboarding-service/internal/domain"
)

func TestAccountRepositoryLookups(t *testing.T) {
	db := newRepositoryDBForTest(t)
	repo := NewAccountRepository(db)
	ctx := t.Context()
	seedAccount(t, repo, "IND202512345", "a@x.com", "5551234567")

	byEmail, err := repo.FindByEmail(ctx, "a@x.com")
	if err != nil || byEmail.ID != "IND202512345" {
		t.Fatalf("find by email: %+v %v", byEmail, err)
	}
	byPhone, err := repo.FindByPhone(ctx, "5551234567")
	if err != nil || byPhone.Email != "a@x.com" {
		t.Fatalf("find by phone: %+v %v", byPhone, err)
	}
	if byPhone.HasPassword() || byPhone.IsEmailVerified() {
		t.Fatalf("new account must start without password and unverified: %+v", byPhone)
	}
	if _, err := repo.FindByEmail(ctx, "missing@x.com"); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
	exists, err := repo.ExistsByID(ctx, "IND202512345")
	if err != nil || !exists {
		t.Fatalf("expected id to exist, got %v %v", exists, err)
	}
	exists, err = repo.ExistsByID(ctx, "IND202599999")
	if err != nil || exists {
		t.Fatalf("expected id to be free, got %v %v", exists, err)
	}
}

func TestAccountRepositoryUniqueConstraints(t *testing.T) {
	db := newRepositoryDBForTest(t)
	repo := NewAccountRepository(db)
	seedAccount(t, repo, "IND202510001", "a@x.com", "5551234567")

	cases := []struct {
		name string
		acc  domain.Account
	}{
		{name: "duplicate email", acc: domain.Account{ID: "IND202510002", Kind: domain.AccountKindIndividual, Email: "a@x.com", Phone: "5550000000"}},
		{name: "duplicate phone", acc: domain.Account{ID: "IND202510003", Kind: domain.AccountKindIndividual, Email: "b@x.com", Phone: "5551234567"}},
		{name: "duplicate id", acc: domain.Account{ID: "IND202510001", Kind: domain.AccountKindIndividual, Email: "c@x.com", Phone: "5559999999"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			acc := tc.acc
			if err := repo.Create(t.Context(), &acc); !errors.Is(err, ErrDuplicateAccount) {
				t.Fatalf("expected ErrDuplicateAccount, got %v", err)
			}
		})
	}
}

func TestAccountRepositoryMarkVerifiedWithPassword(t *testing.T) {
	db := newRepositoryDBForTest(t)
	repo := NewAccountRepository(db)
	ctx := t.Context()
	seedAccount(t, repo, "BSN202512345", "biz@x.com", "5551112222")

	if err := repo.MarkVerifiedWithPassword(ctx, "BSN202512345", "$2a$hash", fixedNow); err != nil {
		t.Fatalf("mark verified: %v", err)
	}
	got, err := repo.FindByID(ctx, "BSN202512345")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if !got.HasPassword() || !got.IsEmailVerified() || got.EmailVerifiedAt == nil {
		t.Fatalf("expected verified account with password, got %+v", got)
	}
	if err := repo.MarkVerifiedWithPassword(ctx, "BSN209900000", "x", fixedNow); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}
