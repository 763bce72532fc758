package repository

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/inkwell-labs/inkwell/internal/constant"
	"github.com/inkwell-labs/inkwell/internal/model"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// The tests below run the consumption sequence against a real database so the
// conditional updates and row locking behave as they do in production. Set
// TEST_DATABASE_DSN to a throwaway Postgres instance to enable them, for
// example:
//
//	TEST_DATABASE_DSN="host=localhost user=postgres password=postgres dbname=inkwell_test sslmode=disable" go test ./internal/repository/
func setupTestRepository(t *testing.T) *Repository {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set, skipping database tests")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	db.Exec(`CREATE EXTENSION IF NOT EXISTS citext`)
	if err := db.AutoMigrate(&model.Contract{}, &model.Party{}, &model.Signature{}, &model.SigningToken{}); err != nil {
		t.Fatalf("failed to migrate test schema: %v", err)
	}

	return NewRepository(db, zap.NewNop().Sugar(), nil, nil)
}

// createPendingContract creates a contract with one party per role, moves it
// to pending and issues a signing token per party. Rows are removed when the
// test finishes.
func createPendingContract(t *testing.T, repo *Repository, roles ...string) (*model.Contract, map[string]string) {
	t.Helper()
	ctx := context.Background()

	parties := make([]model.Party, 0, len(roles))
	for _, role := range roles {
		parties = append(parties, model.Party{Name: role, Email: role + "@example.com", Role: role})
	}

	contract, err := repo.Contract.Create(ctx, nil, &model.Contract{
		Title:   "Consumption test",
		Type:    "service-agreement",
		Parties: parties,
	})
	if err != nil {
		t.Fatalf("failed to create contract: %v", err)
	}
	t.Cleanup(func() {
		repo.DB.Where("contract_id = ?", contract.ID).Delete(&model.SigningToken{})
		repo.DB.Where("contract_id = ?", contract.ID).Delete(&model.Signature{})
		repo.DB.Where("contract_id = ?", contract.ID).Delete(&model.Party{})
		repo.DB.Where("id = ?", contract.ID).Delete(&model.Contract{})
	})

	marked, err := repo.Contract.MarkPending(ctx, nil, contract.ID)
	if err != nil || !marked {
		t.Fatalf("failed to mark contract pending: marked=%v err=%v", marked, err)
	}

	tokens := make(map[string]string, len(roles))
	for _, role := range roles {
		token, err := repo.SigningToken.Issue(ctx, nil, contract.ID, role+"@example.com", role, time.Hour)
		if err != nil {
			t.Fatalf("failed to issue token for %s: %v", role, err)
		}
		tokens[role] = token.Token
	}

	return contract, tokens
}

func countSignatures(t *testing.T, repo *Repository, contractId string) int64 {
	t.Helper()
	var n int64
	if err := repo.DB.Model(&model.Signature{}).Where("contract_id = ?", contractId).Count(&n).Error; err != nil {
		t.Fatalf("failed to count signatures: %v", err)
	}
	return n
}

// A token consumed by several racing callers must record exactly one
// signature. Losers that read the token after the winner committed are
// rejected as used; losers that were already waiting on the contract row lock
// see the fresh party state instead and are rejected as already signed.
func TestConsumeConcurrentDuplicate(t *testing.T) {
	repo := setupTestRepository(t)
	contract, tokens := createPendingContract(t, repo, "PartyA", "PartyB")

	const callers = 8
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = repo.SigningToken.Consume(context.Background(), nil, tokens["PartyA"], "c2lnbmF0dXJl", "10.0.0.1")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for i, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, model.ErrSigningTokenUsed):
		case errors.Is(err, model.ErrPartyAlreadySigned):
		default:
			t.Errorf("caller %d: unexpected error: %v", i, err)
		}
	}
	if succeeded != 1 {
		t.Errorf("Consume() succeeded %d times, want exactly 1", succeeded)
	}

	if got := countSignatures(t, repo, contract.ID); got != 1 {
		t.Errorf("signature count = %d, want 1", got)
	}
}

// Two last signers racing on different tokens of the same contract: both
// signatures must land, the contract must end up completed, and exactly one
// caller must observe the completing consumption so the finalized
// notification is sent once, never zero or twice.
func TestConsumeLastSignersCompleteOnce(t *testing.T) {
	repo := setupTestRepository(t)
	contract, tokens := createPendingContract(t, repo, "PartyA", "PartyB")

	results := make([]*ConsumeResult, 2)
	errs := make([]error, 2)

	var wg sync.WaitGroup
	for i, role := range []string{"PartyA", "PartyB"} {
		wg.Add(1)
		go func(i int, role string) {
			defer wg.Done()
			results[i], errs[i] = repo.SigningToken.Consume(context.Background(), nil, tokens[role], "c2lnbmF0dXJl", "10.0.0.2")
		}(i, role)
	}
	wg.Wait()

	completed := 0
	for i := range results {
		if errs[i] != nil {
			t.Fatalf("caller %d: Consume() error: %v", i, errs[i])
		}
		if results[i].Completed {
			completed++
		}
	}
	if completed != 1 {
		t.Errorf("Completed observed by %d callers, want exactly 1", completed)
	}

	refreshed, err := repo.Contract.GetById(context.Background(), nil, contract.ID)
	if err != nil {
		t.Fatalf("failed to reload contract: %v", err)
	}
	if refreshed.Status != constant.ContractStatusCompleted {
		t.Errorf("contract status = %s, want %s", refreshed.Status, constant.ContractStatusCompleted)
	}
	if !refreshed.AllPartiesSigned() {
		t.Errorf("AllPartiesSigned() = false after both consumptions")
	}
	if got := countSignatures(t, repo, contract.ID); got != 2 {
		t.Errorf("signature count = %d, want 2", got)
	}
}

// A live token presented after the contract already completed must be
// rejected without creating a signature.
func TestConsumeAfterContractCompleted(t *testing.T) {
	repo := setupTestRepository(t)
	contract, tokens := createPendingContract(t, repo, "PartyA", "PartyB")

	if err := repo.DB.Model(&model.Contract{}).Where("id = ?", contract.ID).
		Update("status", constant.ContractStatusCompleted).Error; err != nil {
		t.Fatalf("failed to force contract status: %v", err)
	}

	_, err := repo.SigningToken.Consume(context.Background(), nil, tokens["PartyA"], "c2lnbmF0dXJl", "10.0.0.3")
	if !errors.Is(err, model.ErrContractCompleted) {
		t.Errorf("Consume() error = %v, want %v", err, model.ErrContractCompleted)
	}

	if got := countSignatures(t, repo, contract.ID); got != 0 {
		t.Errorf("signature count = %d, want 0", got)
	}
}

// Tokens past their expiry are rejected at consumption even before the
// sweeper has deleted them.
func TestConsumeExpiredToken(t *testing.T) {
	repo := setupTestRepository(t)
	contract, tokens := createPendingContract(t, repo, "PartyA")

	if err := repo.DB.Model(&model.SigningToken{}).Where("contract_id = ?", contract.ID).
		Update("expires_at", time.Now().Add(-time.Minute)).Error; err != nil {
		t.Fatalf("failed to backdate token: %v", err)
	}

	_, err := repo.SigningToken.Consume(context.Background(), nil, tokens["PartyA"], "c2lnbmF0dXJl", "10.0.0.4")
	if !errors.Is(err, model.ErrSigningTokenExpired) {
		t.Errorf("Consume() error = %v, want %v", err, model.ErrSigningTokenExpired)
	}

	if got := countSignatures(t, repo, contract.ID); got != 0 {
		t.Errorf("signature count = %d, want 0", got)
	}
}
