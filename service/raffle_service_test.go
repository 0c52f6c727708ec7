package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/Pikkuherkko/HH-Lotto/models"
	"github.com/Pikkuherkko/HH-Lotto/raffle"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	requests int
}

func (s *stubSource) Request(ctx context.Context, params raffle.RequestParams) (string, error) {
	s.requests++
	return fmt.Sprintf("req-%d", s.requests), nil
}

type stubPayer struct {
	payments []int64
}

func (p *stubPayer) Pay(ctx context.Context, to models.Participant, amount int64) error {
	p.payments = append(p.payments, amount)
	return nil
}

func testRoundConfig() models.RoundConfig {
	return models.RoundConfig{
		EntranceFee:   1,
		Interval:      10 * time.Second,
		KeyParams:     "test-key",
		Confirmations: 3,
		CallbackLimit: 500000,
		NumWords:      1,
	}
}

func newServiceUnderTest(t *testing.T) (RaffleService, *TestMocks, *raffle.Engine, *time.Time) {
	t.Helper()

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	engine, err := raffle.New(testRoundConfig(), &stubSource{}, nil, &stubPayer{}, nil,
		raffle.WithClock(func() time.Time { return now }))
	require.NoError(t, err)

	mocks := NewTestMocks()
	return NewRaffleService(engine, newFakeUowFactory(mocks)), mocks, engine, &now
}

func TestRaffleService_Enter(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("journals the accepted entry", func(t *testing.T) {
		svc, mocks, engine, _ := newServiceUnderTest(t)

		mocks.EntryRepo.On("Create", ctx, mock.MatchedBy(func(e *models.Entry) bool {
			return e.Participant == "alice" && e.Amount == 2
		})).Return(nil)

		require.NoError(t, svc.Enter(ctx, "alice", 2))
		assert.Equal(t, 1, engine.ParticipantCount())
		assert.Equal(t, int64(2), engine.Pot())
		mocks.AssertAllExpectations(t)
	})

	t.Run("rejected entry is never journaled", func(t *testing.T) {
		svc, mocks, engine, _ := newServiceUnderTest(t)

		err := svc.Enter(ctx, "alice", 0)
		require.ErrorIs(t, err, raffle.ErrInsufficientPayment)
		assert.Equal(t, 0, engine.ParticipantCount())
		mocks.EntryRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("journal failure does not fail the entry", func(t *testing.T) {
		svc, mocks, engine, _ := newServiceUnderTest(t)

		mocks.EntryRepo.On("Create", ctx, mock.Anything).Return(fmt.Errorf("db down"))

		require.NoError(t, svc.Enter(ctx, "alice", 1))
		assert.Equal(t, 1, engine.ParticipantCount())
	})
}

func TestRaffleService_DeliverRandomness(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("persists the settled draw", func(t *testing.T) {
		svc, mocks, _, now := newServiceUnderTest(t)

		mocks.EntryRepo.On("Create", ctx, mock.Anything).Return(nil).Times(3)
		require.NoError(t, svc.Enter(ctx, "alice", 1))
		require.NoError(t, svc.Enter(ctx, "bob", 1))
		require.NoError(t, svc.Enter(ctx, "carol", 1))

		*now = now.Add(11 * time.Second)
		requestID, err := svc.TriggerDraw(ctx)
		require.NoError(t, err)

		mocks.WinnerRepo.On("Create", ctx, mock.MatchedBy(func(r *models.WinnerRecord) bool {
			return r.Winner == "bob" && r.Amount == 3 && r.RequestID == requestID
		})).Run(func(args mock.Arguments) {
			args.Get(1).(*models.WinnerRecord).ID = 42
		}).Return(nil)
		mocks.EntryRepo.On("MarkSettled", ctx, int64(42)).Return(nil)

		record, err := svc.DeliverRandomness(ctx, requestID, []uint64{7})
		require.NoError(t, err)
		assert.Equal(t, models.Participant("bob"), record.Winner)
		assert.Equal(t, int64(42), record.ID)
		mocks.AssertAllExpectations(t)
	})

	t.Run("unknown request touches nothing", func(t *testing.T) {
		svc, mocks, _, _ := newServiceUnderTest(t)

		_, err := svc.DeliverRandomness(ctx, "req-bogus", []uint64{7})
		require.ErrorIs(t, err, raffle.ErrUnknownRequest)
		mocks.WinnerRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		mocks.EntryRepo.AssertNotCalled(t, "MarkSettled", mock.Anything, mock.Anything)
	})

	t.Run("persistence failure still returns the settled record", func(t *testing.T) {
		svc, mocks, engine, now := newServiceUnderTest(t)

		mocks.EntryRepo.On("Create", ctx, mock.Anything).Return(nil)
		require.NoError(t, svc.Enter(ctx, "alice", 1))

		*now = now.Add(11 * time.Second)
		requestID, err := svc.TriggerDraw(ctx)
		require.NoError(t, err)

		mocks.WinnerRepo.On("Create", ctx, mock.Anything).Return(fmt.Errorf("db down"))

		record, err := svc.DeliverRandomness(ctx, requestID, []uint64{0})
		require.NoError(t, err)
		assert.Equal(t, models.Participant("alice"), record.Winner)
		assert.Equal(t, models.RaffleStateOpen, engine.State())
	})
}

func TestRaffleService_Status(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc, mocks, _, now := newServiceUnderTest(t)

	status := svc.Status()
	assert.Equal(t, models.RaffleStateOpen, status.State)
	assert.Zero(t, status.ParticipantCount)
	assert.Empty(t, status.PendingRequestID)
	assert.Nil(t, status.LastWinner)

	mocks.EntryRepo.On("Create", ctx, mock.Anything).Return(nil)
	require.NoError(t, svc.Enter(ctx, "alice", 2))

	*now = now.Add(11 * time.Second)
	requestID, err := svc.TriggerDraw(ctx)
	require.NoError(t, err)

	status = svc.Status()
	assert.Equal(t, models.RaffleStateCalculating, status.State)
	assert.Equal(t, 1, status.ParticipantCount)
	assert.Equal(t, int64(2), status.PotBalance)
	assert.Equal(t, requestID, status.PendingRequestID)
}

func TestRestoreFromJournal(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("reloads open entries and last draw time", func(t *testing.T) {
		now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
		engine, err := raffle.New(testRoundConfig(), &stubSource{}, nil, &stubPayer{}, nil,
			raffle.WithClock(func() time.Time { return now }))
		require.NoError(t, err)

		drawnAt := now.Add(-5 * time.Second)
		mocks := NewTestMocks()
		mocks.EntryRepo.On("GetOpen", ctx).Return([]*models.Entry{
			{ID: 1, Participant: "alice", Amount: 1},
			{ID: 2, Participant: "bob", Amount: 1},
		}, nil)
		mocks.WinnerRepo.On("GetLatest", ctx).
			Return(&models.WinnerRecord{ID: 1, Winner: "carol", DrawnAt: drawnAt}, nil)

		require.NoError(t, RestoreFromJournal(ctx, engine, newFakeUowFactory(mocks)))
		assert.Equal(t, []models.Participant{"alice", "bob"}, engine.Participants())
		assert.Equal(t, int64(2), engine.Pot())
		assert.Equal(t, drawnAt, engine.LastDrawAt())

		lastWinner := engine.LastWinner()
		require.NotNil(t, lastWinner)
		assert.Equal(t, models.Participant("carol"), lastWinner.Winner)
	})

	t.Run("fresh database restores an empty round", func(t *testing.T) {
		engine, err := raffle.New(testRoundConfig(), &stubSource{}, nil, &stubPayer{}, nil)
		require.NoError(t, err)

		mocks := NewTestMocks()
		mocks.EntryRepo.On("GetOpen", ctx).Return([]*models.Entry{}, nil)
		mocks.WinnerRepo.On("GetLatest", ctx).Return(nil, nil)

		require.NoError(t, RestoreFromJournal(ctx, engine, newFakeUowFactory(mocks)))
		assert.Zero(t, engine.ParticipantCount())
		assert.Zero(t, engine.Pot())
	})
}
