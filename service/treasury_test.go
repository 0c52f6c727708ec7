package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/Pikkuherkko/HH-Lotto/events"
	"github.com/Pikkuherkko/HH-Lotto/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	testEntrant models.Participant = "alice"
	testWinner  models.Participant = "bob"
)

func recordOfType(txType models.TransactionType) interface{} {
	return mock.MatchedBy(func(tx *models.AccountTransaction) bool {
		return tx.TransactionType == txType
	})
}

func TestTreasury_Collect(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("moves fee from entrant to pot", func(t *testing.T) {
		mocks := NewTestMocks()
		factory := newFakeUowFactory(mocks)
		treasury := NewTreasury(factory)

		mocks.AccountRepo.On("GetByAddress", ctx, testEntrant).
			Return(&models.Account{Address: testEntrant, Balance: 100}, nil)
		mocks.AccountRepo.On("DeductBalance", ctx, testEntrant, int64(5)).Return(nil)
		mocks.AccountRepo.On("GetByAddress", ctx, models.PotAccount).
			Return(&models.Account{Address: models.PotAccount, Balance: 10}, nil)
		mocks.AccountRepo.On("AddBalance", ctx, models.PotAccount, int64(5)).Return(nil)
		mocks.TxLogRepo.On("Record", ctx, recordOfType(models.TransactionTypeEntryFee)).Return(nil)
		mocks.TxLogRepo.On("Record", ctx, recordOfType(models.TransactionTypePotCollect)).Return(nil)

		err := treasury.Collect(ctx, testEntrant, 5)
		require.NoError(t, err)

		require.Len(t, factory.created, 1)
		assert.True(t, factory.created[0].committed)
		mocks.AssertAllExpectations(t)
	})

	t.Run("creates pot account on first collection", func(t *testing.T) {
		mocks := NewTestMocks()
		factory := newFakeUowFactory(mocks)
		treasury := NewTreasury(factory)

		mocks.AccountRepo.On("GetByAddress", ctx, testEntrant).
			Return(&models.Account{Address: testEntrant, Balance: 100}, nil)
		mocks.AccountRepo.On("DeductBalance", ctx, testEntrant, int64(5)).Return(nil)
		mocks.AccountRepo.On("GetByAddress", ctx, models.PotAccount).Return(nil, nil)
		mocks.AccountRepo.On("Create", ctx, models.PotAccount, int64(0)).
			Return(&models.Account{Address: models.PotAccount, Balance: 0}, nil)
		mocks.AccountRepo.On("AddBalance", ctx, models.PotAccount, int64(5)).Return(nil)
		mocks.TxLogRepo.On("Record", ctx, mock.AnythingOfType("*models.AccountTransaction")).
			Return(nil).Times(2)

		err := treasury.Collect(ctx, testEntrant, 5)
		require.NoError(t, err)
		mocks.AssertAllExpectations(t)
	})

	t.Run("rejects unknown entrant without moving money", func(t *testing.T) {
		mocks := NewTestMocks()
		factory := newFakeUowFactory(mocks)
		treasury := NewTreasury(factory)

		mocks.AccountRepo.On("GetByAddress", ctx, testEntrant).Return(nil, nil)

		err := treasury.Collect(ctx, testEntrant, 5)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "account not found")

		assert.False(t, factory.created[0].committed)
		mocks.AccountRepo.AssertNotCalled(t, "DeductBalance", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("insufficient balance rolls back", func(t *testing.T) {
		mocks := NewTestMocks()
		factory := newFakeUowFactory(mocks)
		treasury := NewTreasury(factory)

		mocks.AccountRepo.On("GetByAddress", ctx, testEntrant).
			Return(&models.Account{Address: testEntrant, Balance: 2}, nil)
		mocks.AccountRepo.On("DeductBalance", ctx, testEntrant, int64(5)).
			Return(fmt.Errorf("insufficient balance: have 2, need 5"))

		err := treasury.Collect(ctx, testEntrant, 5)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "insufficient balance")
		assert.True(t, factory.created[0].rolledBack)
	})
}

func TestTreasury_Pay(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("push mode credits winner account", func(t *testing.T) {
		mocks := NewTestMocks()
		factory := newFakeUowFactory(mocks)
		treasury := NewTreasury(factory)

		mocks.AccountRepo.On("GetByAddress", ctx, models.PotAccount).
			Return(&models.Account{Address: models.PotAccount, Balance: 30}, nil)
		mocks.AccountRepo.On("DeductBalance", ctx, models.PotAccount, int64(30)).Return(nil)
		mocks.AccountRepo.On("GetByAddress", ctx, testWinner).
			Return(&models.Account{Address: testWinner, Balance: 95}, nil)
		mocks.AccountRepo.On("AddBalance", ctx, testWinner, int64(30)).Return(nil)
		mocks.TxLogRepo.On("Record", ctx, recordOfType(models.TransactionTypePrizePayout)).
			Return(nil).Times(2)

		err := treasury.Pay(ctx, testWinner, 30)
		require.NoError(t, err)
		assert.True(t, factory.created[0].committed)
		mocks.AssertAllExpectations(t)
	})

	t.Run("pull mode accrues a claim instead", func(t *testing.T) {
		mocks := NewTestMocks()
		factory := newFakeUowFactory(mocks)
		treasury := NewPullTreasury(factory)

		mocks.AccountRepo.On("GetByAddress", ctx, models.PotAccount).
			Return(&models.Account{Address: models.PotAccount, Balance: 30}, nil)
		mocks.AccountRepo.On("DeductBalance", ctx, models.PotAccount, int64(30)).Return(nil)
		mocks.TxLogRepo.On("Record", ctx, recordOfType(models.TransactionTypePrizePayout)).Return(nil)
		mocks.ClaimRepo.On("Credit", ctx, testWinner, int64(30)).Return(nil)

		err := treasury.Pay(ctx, testWinner, 30)
		require.NoError(t, err)

		mocks.AccountRepo.AssertNotCalled(t, "AddBalance", mock.Anything, testWinner, mock.Anything)
		mocks.AssertAllExpectations(t)
	})

	t.Run("missing winner account fails payout", func(t *testing.T) {
		mocks := NewTestMocks()
		factory := newFakeUowFactory(mocks)
		treasury := NewTreasury(factory)

		mocks.AccountRepo.On("GetByAddress", ctx, models.PotAccount).
			Return(&models.Account{Address: models.PotAccount, Balance: 30}, nil)
		mocks.AccountRepo.On("DeductBalance", ctx, models.PotAccount, int64(30)).Return(nil)
		mocks.TxLogRepo.On("Record", ctx, recordOfType(models.TransactionTypePrizePayout)).Return(nil)
		mocks.AccountRepo.On("GetByAddress", ctx, testWinner).Return(nil, nil)

		err := treasury.Pay(ctx, testWinner, 30)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "winner account not found")
		assert.False(t, factory.created[0].committed)
	})
}

func TestAccountService_Deposit(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("first deposit seeds starting balance", func(t *testing.T) {
		mocks := NewTestMocks()
		factory := newFakeUowFactory(mocks)
		svc := NewAccountService(factory, 100)

		mocks.AccountRepo.On("GetByAddress", ctx, testEntrant).Return(nil, nil)
		mocks.AccountRepo.On("Create", ctx, testEntrant, int64(100)).
			Return(&models.Account{Address: testEntrant, Balance: 100}, nil)
		mocks.TxLogRepo.On("Record", ctx, recordOfType(models.TransactionTypeInitial)).Return(nil)
		mocks.AccountRepo.On("AddBalance", ctx, testEntrant, int64(25)).Return(nil)
		mocks.TxLogRepo.On("Record", ctx, recordOfType(models.TransactionTypeDeposit)).Return(nil)

		account, err := svc.Deposit(ctx, testEntrant, 25)
		require.NoError(t, err)
		assert.Equal(t, int64(125), account.Balance)
		mocks.AssertAllExpectations(t)
	})

	t.Run("existing account just accrues", func(t *testing.T) {
		mocks := NewTestMocks()
		factory := newFakeUowFactory(mocks)
		svc := NewAccountService(factory, 100)

		mocks.AccountRepo.On("GetByAddress", ctx, testEntrant).
			Return(&models.Account{Address: testEntrant, Balance: 40}, nil)
		mocks.AccountRepo.On("AddBalance", ctx, testEntrant, int64(25)).Return(nil)
		mocks.TxLogRepo.On("Record", ctx, recordOfType(models.TransactionTypeDeposit)).Return(nil)

		account, err := svc.Deposit(ctx, testEntrant, 25)
		require.NoError(t, err)
		assert.Equal(t, int64(65), account.Balance)
		mocks.AccountRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejects non-positive amounts", func(t *testing.T) {
		mocks := NewTestMocks()
		svc := NewAccountService(newFakeUowFactory(mocks), 100)

		_, err := svc.Deposit(ctx, testEntrant, 0)
		require.Error(t, err)
		_, err = svc.Deposit(ctx, testEntrant, -5)
		require.Error(t, err)
	})
}

func TestAccountService_Claim(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("redeems claim into account", func(t *testing.T) {
		mocks := NewTestMocks()
		factory := newFakeUowFactory(mocks)
		svc := NewAccountService(factory, 0)

		mocks.ClaimRepo.On("Redeem", ctx, testWinner).Return(int64(30), nil)
		mocks.AccountRepo.On("GetByAddress", ctx, testWinner).
			Return(&models.Account{Address: testWinner, Balance: 95}, nil)
		mocks.AccountRepo.On("AddBalance", ctx, testWinner, int64(30)).Return(nil)
		mocks.TxLogRepo.On("Record", ctx, recordOfType(models.TransactionTypeClaimRedeem)).Return(nil)
		mocks.Publisher.On("Publish", events.PayoutClaimedEvent{Participant: testWinner, Amount: 30}).Return()

		amount, err := svc.Claim(ctx, testWinner)
		require.NoError(t, err)
		assert.Equal(t, int64(30), amount)
		assert.True(t, factory.created[0].committed)
		mocks.AssertAllExpectations(t)
	})

	t.Run("creates account for first-time claimant", func(t *testing.T) {
		mocks := NewTestMocks()
		factory := newFakeUowFactory(mocks)
		svc := NewAccountService(factory, 0)

		mocks.ClaimRepo.On("Redeem", ctx, testWinner).Return(int64(30), nil)
		mocks.AccountRepo.On("GetByAddress", ctx, testWinner).Return(nil, nil)
		mocks.AccountRepo.On("Create", ctx, testWinner, int64(0)).
			Return(&models.Account{Address: testWinner, Balance: 0}, nil)
		mocks.AccountRepo.On("AddBalance", ctx, testWinner, int64(30)).Return(nil)
		mocks.TxLogRepo.On("Record", ctx, recordOfType(models.TransactionTypeClaimRedeem)).Return(nil)
		mocks.Publisher.On("Publish", mock.Anything).Return()

		amount, err := svc.Claim(ctx, testWinner)
		require.NoError(t, err)
		assert.Equal(t, int64(30), amount)
	})

	t.Run("empty claim is an error", func(t *testing.T) {
		mocks := NewTestMocks()
		factory := newFakeUowFactory(mocks)
		svc := NewAccountService(factory, 0)

		mocks.ClaimRepo.On("Redeem", ctx, testWinner).Return(int64(0), nil)

		_, err := svc.Claim(ctx, testWinner)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "nothing to claim")
		assert.False(t, factory.created[0].committed)
	})
}
