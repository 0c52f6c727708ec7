package repository

import (
	"context"
	"testing"

	"github.com/Pikkuherkko/HH-Lotto/models"
	"github.com/Pikkuherkko/HH-Lotto/repository/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountRepository(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewAccountRepository(testDB.DB)
	ctx := context.Background()

	t.Run("get missing account returns nil", func(t *testing.T) {
		account, err := repo.GetByAddress(ctx, "nobody")
		require.NoError(t, err)
		assert.Nil(t, account)
	})

	t.Run("create and get", func(t *testing.T) {
		created, err := repo.Create(ctx, "alice", 1000)
		require.NoError(t, err)
		assert.Equal(t, models.Participant("alice"), created.Address)
		assert.Equal(t, int64(1000), created.Balance)

		account, err := repo.GetByAddress(ctx, "alice")
		require.NoError(t, err)
		require.NotNil(t, account)
		assert.Equal(t, int64(1000), account.Balance)
	})

	t.Run("add balance", func(t *testing.T) {
		require.NoError(t, repo.AddBalance(ctx, "alice", 500))

		account, err := repo.GetByAddress(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, int64(1500), account.Balance)
	})

	t.Run("add balance to missing account fails", func(t *testing.T) {
		err := repo.AddBalance(ctx, "nobody", 500)
		assert.Error(t, err)
	})

	t.Run("deduct balance", func(t *testing.T) {
		require.NoError(t, repo.DeductBalance(ctx, "alice", 300))

		account, err := repo.GetByAddress(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, int64(1200), account.Balance)
	})

	t.Run("deduct more than balance fails without mutation", func(t *testing.T) {
		err := repo.DeductBalance(ctx, "alice", 999999)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "insufficient balance")

		account, err := repo.GetByAddress(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, int64(1200), account.Balance)
	})
}

func TestTransactionLogRepository(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	accountRepo := NewAccountRepository(testDB.DB)
	logRepo := NewTransactionLogRepository(testDB.DB)
	ctx := context.Background()

	_, err := accountRepo.Create(ctx, "alice", 1000)
	require.NoError(t, err)

	t.Run("record assigns id and timestamp", func(t *testing.T) {
		tx := testutil.CreateTestTransaction("alice", models.TransactionTypeEntryFee)
		require.NoError(t, logRepo.Record(ctx, tx))
		assert.NotZero(t, tx.ID)
		assert.False(t, tx.CreatedAt.IsZero())
	})

	t.Run("get by address newest first", func(t *testing.T) {
		second := testutil.CreateTestTransaction("alice", models.TransactionTypeDeposit)
		require.NoError(t, logRepo.Record(ctx, second))

		transactions, err := logRepo.GetByAddress(ctx, "alice", 10)
		require.NoError(t, err)
		require.Len(t, transactions, 2)
		assert.Equal(t, models.TransactionTypeDeposit, transactions[0].TransactionType)
		assert.Equal(t, true, transactions[0].Metadata["test"])
	})
}

func TestClaimRepository(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewClaimRepository(testDB.DB)
	ctx := context.Background()

	t.Run("get missing claim returns nil", func(t *testing.T) {
		claim, err := repo.Get(ctx, "nobody")
		require.NoError(t, err)
		assert.Nil(t, claim)
	})

	t.Run("credit accumulates", func(t *testing.T) {
		require.NoError(t, repo.Credit(ctx, "bob", 300))
		require.NoError(t, repo.Credit(ctx, "bob", 200))

		claim, err := repo.Get(ctx, "bob")
		require.NoError(t, err)
		require.NotNil(t, claim)
		assert.Equal(t, int64(500), claim.Amount)
		assert.True(t, claim.HasFunds())
	})

	t.Run("redeem empties the claim", func(t *testing.T) {
		amount, err := repo.Redeem(ctx, "bob")
		require.NoError(t, err)
		assert.Equal(t, int64(500), amount)

		claim, err := repo.Get(ctx, "bob")
		require.NoError(t, err)
		require.NotNil(t, claim)
		assert.Equal(t, int64(0), claim.Amount)
	})

	t.Run("redeem with nothing held returns zero", func(t *testing.T) {
		amount, err := repo.Redeem(ctx, "bob")
		require.NoError(t, err)
		assert.Equal(t, int64(0), amount)

		amount, err = repo.Redeem(ctx, "nobody")
		require.NoError(t, err)
		assert.Equal(t, int64(0), amount)
	})
}
