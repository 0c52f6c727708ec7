package service

import (
	"context"
	"testing"

	"github.com/Pikkuherkko/HH-Lotto/events"
	"github.com/Pikkuherkko/HH-Lotto/models"

	"github.com/stretchr/testify/mock"
)

// MockAccountRepository is a mock implementation of AccountRepository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) GetByAddress(ctx context.Context, address models.Participant) (*models.Account, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountRepository) Create(ctx context.Context, address models.Participant, initialBalance int64) (*models.Account, error) {
	args := m.Called(ctx, address, initialBalance)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountRepository) AddBalance(ctx context.Context, address models.Participant, amount int64) error {
	args := m.Called(ctx, address, amount)
	return args.Error(0)
}

func (m *MockAccountRepository) DeductBalance(ctx context.Context, address models.Participant, amount int64) error {
	args := m.Called(ctx, address, amount)
	return args.Error(0)
}

// MockTransactionLogRepository is a mock implementation of TransactionLogRepository
type MockTransactionLogRepository struct {
	mock.Mock
}

func (m *MockTransactionLogRepository) Record(ctx context.Context, tx *models.AccountTransaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockTransactionLogRepository) GetByAddress(ctx context.Context, address models.Participant, limit int) ([]*models.AccountTransaction, error) {
	args := m.Called(ctx, address, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.AccountTransaction), args.Error(1)
}

// MockEntryRepository is a mock implementation of EntryRepository
type MockEntryRepository struct {
	mock.Mock
}

func (m *MockEntryRepository) Create(ctx context.Context, entry *models.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockEntryRepository) GetOpen(ctx context.Context) ([]*models.Entry, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Entry), args.Error(1)
}

func (m *MockEntryRepository) MarkSettled(ctx context.Context, drawID int64) error {
	args := m.Called(ctx, drawID)
	return args.Error(0)
}

// MockWinnerRepository is a mock implementation of WinnerRepository
type MockWinnerRepository struct {
	mock.Mock
}

func (m *MockWinnerRepository) Create(ctx context.Context, record *models.WinnerRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockWinnerRepository) GetLatest(ctx context.Context) (*models.WinnerRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WinnerRecord), args.Error(1)
}

func (m *MockWinnerRepository) List(ctx context.Context, limit int) ([]*models.WinnerRecord, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.WinnerRecord), args.Error(1)
}

// MockClaimRepository is a mock implementation of ClaimRepository
type MockClaimRepository struct {
	mock.Mock
}

func (m *MockClaimRepository) Credit(ctx context.Context, address models.Participant, amount int64) error {
	args := m.Called(ctx, address, amount)
	return args.Error(0)
}

func (m *MockClaimRepository) Get(ctx context.Context, address models.Participant) (*models.PayoutClaim, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PayoutClaim), args.Error(1)
}

func (m *MockClaimRepository) Redeem(ctx context.Context, address models.Participant) (int64, error) {
	args := m.Called(ctx, address)
	return args.Get(0).(int64), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Called(event)
}

// TestMocks holds all mock repositories for easy access
type TestMocks struct {
	AccountRepo *MockAccountRepository
	TxLogRepo   *MockTransactionLogRepository
	EntryRepo   *MockEntryRepository
	WinnerRepo  *MockWinnerRepository
	ClaimRepo   *MockClaimRepository
	Publisher   *MockEventPublisher
}

// NewTestMocks creates a new set of mocks
func NewTestMocks() *TestMocks {
	return &TestMocks{
		AccountRepo: new(MockAccountRepository),
		TxLogRepo:   new(MockTransactionLogRepository),
		EntryRepo:   new(MockEntryRepository),
		WinnerRepo:  new(MockWinnerRepository),
		ClaimRepo:   new(MockClaimRepository),
		Publisher:   new(MockEventPublisher),
	}
}

// AssertAllExpectations asserts all mock expectations
func (m *TestMocks) AssertAllExpectations(t *testing.T) {
	m.AccountRepo.AssertExpectations(t)
	m.TxLogRepo.AssertExpectations(t)
	m.EntryRepo.AssertExpectations(t)
	m.WinnerRepo.AssertExpectations(t)
	m.ClaimRepo.AssertExpectations(t)
	m.Publisher.AssertExpectations(t)
}

// fakeUnitOfWork routes repository access to the shared mocks without a
// real transaction. Begin/Commit/Rollback outcomes are scriptable.
type fakeUnitOfWork struct {
	mocks     *TestMocks
	beginErr  error
	commitErr error

	begun      bool
	committed  bool
	rolledBack bool
}

func (u *fakeUnitOfWork) Begin(ctx context.Context) error {
	if u.beginErr != nil {
		return u.beginErr
	}
	u.begun = true
	return nil
}

func (u *fakeUnitOfWork) Commit() error {
	if u.commitErr != nil {
		return u.commitErr
	}
	u.committed = true
	return nil
}

func (u *fakeUnitOfWork) Rollback() error {
	if !u.committed {
		u.rolledBack = true
	}
	return nil
}

func (u *fakeUnitOfWork) AccountRepository() AccountRepository { return u.mocks.AccountRepo }
func (u *fakeUnitOfWork) TransactionLogRepository() TransactionLogRepository {
	return u.mocks.TxLogRepo
}
func (u *fakeUnitOfWork) EntryRepository() EntryRepository   { return u.mocks.EntryRepo }
func (u *fakeUnitOfWork) WinnerRepository() WinnerRepository { return u.mocks.WinnerRepo }
func (u *fakeUnitOfWork) ClaimRepository() ClaimRepository   { return u.mocks.ClaimRepo }
func (u *fakeUnitOfWork) EventBus() EventPublisher           { return u.mocks.Publisher }

// fakeUowFactory hands out fake units of work over one set of mocks
type fakeUowFactory struct {
	mocks     *TestMocks
	beginErr  error
	commitErr error

	created []*fakeUnitOfWork
}

func newFakeUowFactory(mocks *TestMocks) *fakeUowFactory {
	return &fakeUowFactory{mocks: mocks}
}

func (f *fakeUowFactory) Create() UnitOfWork {
	uow := &fakeUnitOfWork{
		mocks:     f.mocks,
		beginErr:  f.beginErr,
		commitErr: f.commitErr,
	}
	f.created = append(f.created, uow)
	return uow
}
