package service

import (
	"context"
	"fmt"

	"github.com/Pikkuherkko/HH-Lotto/events"
	"github.com/Pikkuherkko/HH-Lotto/models"

	log "github.com/sirupsen/logrus"
)

// Treasury moves money between participant accounts and the pot account.
// It implements raffle.PaymentCollector and raffle.Payer on top of the
// account ledger, so every engine-side balance change is mirrored by a
// committed pair of account rows plus audit entries.
type Treasury struct {
	uowFactory  UnitOfWorkFactory
	pullPayouts bool
}

// NewTreasury creates a treasury in push-payout mode
func NewTreasury(uowFactory UnitOfWorkFactory) *Treasury {
	return &Treasury{uowFactory: uowFactory}
}

// NewPullTreasury creates a treasury that credits prizes to a claim balance
// instead of pushing them straight into the winner's account
func NewPullTreasury(uowFactory UnitOfWorkFactory) *Treasury {
	return &Treasury{uowFactory: uowFactory, pullPayouts: true}
}

// Collect debits the entrance fee from the entrant and credits the pot
// account in a single transaction. A failure here means no money moved.
func (t *Treasury) Collect(ctx context.Context, from models.Participant, amount int64) error {
	uow := t.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	entrant, err := uow.AccountRepository().GetByAddress(ctx, from)
	if err != nil {
		return fmt.Errorf("failed to get entrant account: %w", err)
	}
	if entrant == nil {
		return fmt.Errorf("account not found: %s", from)
	}

	if err := uow.AccountRepository().DeductBalance(ctx, from, amount); err != nil {
		return fmt.Errorf("failed to deduct entrance fee: %w", err)
	}

	pot, err := t.getOrCreatePot(ctx, uow)
	if err != nil {
		return err
	}
	if err := uow.AccountRepository().AddBalance(ctx, models.PotAccount, amount); err != nil {
		return fmt.Errorf("failed to credit pot: %w", err)
	}

	if err := uow.TransactionLogRepository().Record(ctx, &models.AccountTransaction{
		Address:         from,
		BalanceBefore:   entrant.Balance,
		BalanceAfter:    entrant.Balance - amount,
		ChangeAmount:    -amount,
		TransactionType: models.TransactionTypeEntryFee,
	}); err != nil {
		return fmt.Errorf("failed to record entry fee: %w", err)
	}
	if err := uow.TransactionLogRepository().Record(ctx, &models.AccountTransaction{
		Address:         models.PotAccount,
		BalanceBefore:   pot.Balance,
		BalanceAfter:    pot.Balance + amount,
		ChangeAmount:    amount,
		TransactionType: models.TransactionTypePotCollect,
		Metadata:        map[string]any{"entrant": string(from)},
	}); err != nil {
		return fmt.Errorf("failed to record pot collection: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit entry payment: %w", err)
	}
	return nil
}

// Pay transfers the pot to the winner. In push mode the amount lands directly
// on the winner's account; in pull mode it accrues on a claim balance that the
// winner redeems later, so a broken destination account cannot wedge
// settlement.
func (t *Treasury) Pay(ctx context.Context, to models.Participant, amount int64) error {
	uow := t.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	pot, err := uow.AccountRepository().GetByAddress(ctx, models.PotAccount)
	if err != nil {
		return fmt.Errorf("failed to get pot account: %w", err)
	}
	if pot == nil {
		return fmt.Errorf("pot account not found")
	}

	if err := uow.AccountRepository().DeductBalance(ctx, models.PotAccount, amount); err != nil {
		return fmt.Errorf("failed to drain pot: %w", err)
	}
	if err := uow.TransactionLogRepository().Record(ctx, &models.AccountTransaction{
		Address:         models.PotAccount,
		BalanceBefore:   pot.Balance,
		BalanceAfter:    pot.Balance - amount,
		ChangeAmount:    -amount,
		TransactionType: models.TransactionTypePrizePayout,
		Metadata:        map[string]any{"winner": string(to)},
	}); err != nil {
		return fmt.Errorf("failed to record pot payout: %w", err)
	}

	if t.pullPayouts {
		if err := uow.ClaimRepository().Credit(ctx, to, amount); err != nil {
			return fmt.Errorf("failed to credit prize claim: %w", err)
		}
	} else {
		winner, err := uow.AccountRepository().GetByAddress(ctx, to)
		if err != nil {
			return fmt.Errorf("failed to get winner account: %w", err)
		}
		if winner == nil {
			return fmt.Errorf("winner account not found: %s", to)
		}
		if err := uow.AccountRepository().AddBalance(ctx, to, amount); err != nil {
			return fmt.Errorf("failed to credit winner: %w", err)
		}
		if err := uow.TransactionLogRepository().Record(ctx, &models.AccountTransaction{
			Address:         to,
			BalanceBefore:   winner.Balance,
			BalanceAfter:    winner.Balance + amount,
			ChangeAmount:    amount,
			TransactionType: models.TransactionTypePrizePayout,
		}); err != nil {
			return fmt.Errorf("failed to record prize payout: %w", err)
		}
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit payout: %w", err)
	}

	log.WithFields(log.Fields{
		"winner": to,
		"amount": amount,
		"pull":   t.pullPayouts,
	}).Info("Prize paid out")
	return nil
}

func (t *Treasury) getOrCreatePot(ctx context.Context, uow UnitOfWork) (*models.Account, error) {
	pot, err := uow.AccountRepository().GetByAddress(ctx, models.PotAccount)
	if err != nil {
		return nil, fmt.Errorf("failed to get pot account: %w", err)
	}
	if pot == nil {
		pot, err = uow.AccountRepository().Create(ctx, models.PotAccount, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to create pot account: %w", err)
		}
	}
	return pot, nil
}

// accountService implements AccountService on top of the account ledger
type accountService struct {
	uowFactory      UnitOfWorkFactory
	startingBalance int64
}

// NewAccountService creates a new account service. New accounts are seeded
// with startingBalance on their first deposit.
func NewAccountService(uowFactory UnitOfWorkFactory, startingBalance int64) AccountService {
	return &accountService{
		uowFactory:      uowFactory,
		startingBalance: startingBalance,
	}
}

func (s *accountService) Deposit(ctx context.Context, address models.Participant, amount int64) (*models.Account, error) {
	if !address.Valid() {
		return nil, fmt.Errorf("address is required")
	}
	if amount <= 0 {
		return nil, fmt.Errorf("deposit amount must be positive")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	account, err := uow.AccountRepository().GetByAddress(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		account, err = uow.AccountRepository().Create(ctx, address, s.startingBalance)
		if err != nil {
			return nil, fmt.Errorf("failed to create account: %w", err)
		}
		if s.startingBalance > 0 {
			if err := uow.TransactionLogRepository().Record(ctx, &models.AccountTransaction{
				Address:         address,
				BalanceBefore:   0,
				BalanceAfter:    s.startingBalance,
				ChangeAmount:    s.startingBalance,
				TransactionType: models.TransactionTypeInitial,
			}); err != nil {
				return nil, fmt.Errorf("failed to record initial balance: %w", err)
			}
		}
	}

	if err := uow.AccountRepository().AddBalance(ctx, address, amount); err != nil {
		return nil, fmt.Errorf("failed to credit deposit: %w", err)
	}
	if err := uow.TransactionLogRepository().Record(ctx, &models.AccountTransaction{
		Address:         address,
		BalanceBefore:   account.Balance,
		BalanceAfter:    account.Balance + amount,
		ChangeAmount:    amount,
		TransactionType: models.TransactionTypeDeposit,
	}); err != nil {
		return nil, fmt.Errorf("failed to record deposit: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit deposit: %w", err)
	}

	account.Balance += amount
	return account, nil
}

func (s *accountService) GetAccount(ctx context.Context, address models.Participant) (*models.Account, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return uow.AccountRepository().GetByAddress(ctx, address)
}

func (s *accountService) Claim(ctx context.Context, address models.Participant) (int64, error) {
	if !address.Valid() {
		return 0, fmt.Errorf("address is required")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	amount, err := uow.ClaimRepository().Redeem(ctx, address)
	if err != nil {
		return 0, fmt.Errorf("failed to redeem claim: %w", err)
	}
	if amount == 0 {
		return 0, fmt.Errorf("nothing to claim for %s", address)
	}

	account, err := uow.AccountRepository().GetByAddress(ctx, address)
	if err != nil {
		return 0, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		account, err = uow.AccountRepository().Create(ctx, address, 0)
		if err != nil {
			return 0, fmt.Errorf("failed to create account: %w", err)
		}
	}
	if err := uow.AccountRepository().AddBalance(ctx, address, amount); err != nil {
		return 0, fmt.Errorf("failed to credit claim: %w", err)
	}
	if err := uow.TransactionLogRepository().Record(ctx, &models.AccountTransaction{
		Address:         address,
		BalanceBefore:   account.Balance,
		BalanceAfter:    account.Balance + amount,
		ChangeAmount:    amount,
		TransactionType: models.TransactionTypeClaimRedeem,
	}); err != nil {
		return 0, fmt.Errorf("failed to record claim redemption: %w", err)
	}

	uow.EventBus().Publish(events.PayoutClaimedEvent{
		Participant: address,
		Amount:      amount,
	})

	if err := uow.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit claim: %w", err)
	}
	return amount, nil
}
