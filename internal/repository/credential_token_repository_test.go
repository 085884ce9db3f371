package repository

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sandeepkv93/account-onboarding-service/internal/domain"
)

func TestCredentialTokenRepositoryFindActiveFilters(t *testing.T) {
	db := newRepositoryDBForTest(t)
	accounts := NewAccountRepository(db)
	repo := NewCredentialTokenRepository(db)
	ctx := t.Context()
	seedAccount(t, accounts, "IND202512345", "a@x.com", "5551234567")

	active := &domain.CredentialToken{AccountID: "IND202512345", TokenHash: "hash-active", ExpiresAt: fixedNow.Add(time.Hour)}
	expired := &domain.CredentialToken{AccountID: "IND202512345", TokenHash: "hash-expired", ExpiresAt: fixedNow.Add(-time.Second)}
	used := &domain.CredentialToken{AccountID: "IND202512345", TokenHash: "hash-used", ExpiresAt: fixedNow.Add(time.Hour), Used: true}
	for _, tok := range []*domain.CredentialToken{active, expired, used} {
		if err := repo.Create(ctx, tok); err != nil {
			t.Fatalf("create token: %v", err)
		}
	}

	got, err := repo.FindActiveByHash(ctx, "hash-active", fixedNow)
	if err != nil || got.ID != active.ID {
		t.Fatalf("expected active token, got %+v %v", got, err)
	}
	for _, hash := range []string{"hash-expired", "hash-used", "hash-unknown"} {
		if _, err := repo.FindActiveByHash(ctx, hash, fixedNow); !errors.Is(err, ErrCredentialTokenNotFound) {
			t.Fatalf("hash %s: expected ErrCredentialTokenNotFound, got %v", hash, err)
		}
	}
}

func TestCredentialTokenRepositoryHashIsUnique(t *testing.T) {
	db := newRepositoryDBForTest(t)
	seedAccount(t, NewAccountRepository(db), "IND202512345", "a@x.com", "5551234567")
	repo := NewCredentialTokenRepository(db)
	ctx := t.Context()

	if err := repo.Create(ctx, &domain.CredentialToken{AccountID: "IND202512345", TokenHash: "same", ExpiresAt: fixedNow.Add(time.Hour)}); err != nil {
		t.Fatalf("create first: %v", err)
	}
	if err := repo.Create(ctx, &domain.CredentialToken{AccountID: "IND202512345", TokenHash: "same", ExpiresAt: fixedNow.Add(time.Hour)}); err == nil {
		t.Fatal("expected unique violation on token_hash")
	}
}

func TestCredentialTokenRepositoryConsumeOnce(t *testing.T) {
	db := newRepositoryDBForTest(t)
	seedAccount(t, NewAccountRepository(db), "IND202512345", "a@x.com", "5551234567")
	repo := NewCredentialTokenRepository(db)
	ctx := t.Context()

	tok := &domain.CredentialToken{AccountID: "IND202512345", TokenHash: "h", ExpiresAt: fixedNow.Add(time.Hour)}
	if err := repo.Create(ctx, tok); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Consume(ctx, tok.ID, fixedNow); err != nil {
		t.Fatalf("first consume: %v", err)
	}
	if err := repo.Consume(ctx, tok.ID, fixedNow); !errors.Is(err, ErrCredentialTokenNotFound) {
		t.Fatalf("second consume should fail, got %v", err)
	}
}

func TestCredentialTokenRepositoryConsumeRejectsExpired(t *testing.T) {
	db := newRepositoryDBForTest(t)
	seedAccount(t, NewAccountRepository(db), "IND202512345", "a@x.com", "5551234567")
	repo := NewCredentialTokenRepository(db)
	ctx := t.Context()

	tok := &domain.CredentialToken{AccountID: "IND202512345", TokenHash: "h", ExpiresAt: fixedNow}
	if err := repo.Create(ctx, tok); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Consume(ctx, tok.ID, fixedNow.Add(time.Second)); !errors.Is(err, ErrCredentialTokenNotFound) {
		t.Fatalf("expected expired token to be rejected, got %v", err)
	}
}

func TestCredentialTokenRepositoryConcurrentConsumeSingleWinner(t *testing.T) {
	db := newRepositoryDBForTest(t)
	seedAccount(t, NewAccountRepository(db), "IND202512345", "a@x.com", "5551234567")
	repo := NewCredentialTokenRepository(db)
	tx := NewTransactor(db)

	tok := &domain.CredentialToken{AccountID: "IND202512345", TokenHash: "race", ExpiresAt: fixedNow.Add(time.Hour)}
	if err := repo.Create(t.Context(), tok); err != nil {
		t.Fatalf("create: %v", err)
	}

	const workers = 8
	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := tx.InTx(context.Background(), func(ctx context.Context) error {
				return repo.Consume(ctx, tok.ID, fixedNow)
			})
			if err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	if got := wins.Load(); got != 1 {
		t.Fatalf("expected exactly one successful consume, got %d", got)
	}
}

func TestCredentialTokenRepositoryInvalidateActiveByAccount(t *testing.T) {
	db := newRepositoryDBForTest(t)
	accounts := NewAccountRepository(db)
	seedAccount(t, accounts, "IND202512345", "a@x.com", "5551234567")
	seedAccount(t, accounts, "IND202554321", "b@x.com", "5557654321")
	repo := NewCredentialTokenRepository(db)
	ctx := t.Context()

	for _, tok := range []*domain.CredentialToken{
		{AccountID: "IND202512345", TokenHash: "a1", ExpiresAt: fixedNow.Add(time.Hour)},
		{AccountID: "IND202512345", TokenHash: "a2", ExpiresAt: fixedNow.Add(time.Hour)},
		{AccountID: "IND202554321", TokenHash: "b1", ExpiresAt: fixedNow.Add(time.Hour)},
	} {
		if err := repo.Create(ctx, tok); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	n, err := repo.InvalidateActiveByAccount(ctx, "IND202512345", fixedNow)
	if err != nil || n != 2 {
		t.Fatalf("expected 2 invalidated, got %d %v", n, err)
	}
	if _, err := repo.FindActiveByHash(ctx, "a1", fixedNow); !errors.Is(err, ErrCredentialTokenNotFound) {
		t.Fatalf("a1 should be revoked, got %v", err)
	}
	if _, err := repo.FindActiveByHash(ctx, "b1", fixedNow); err != nil {
		t.Fatalf("other account's token must stay active: %v", err)
	}
}
