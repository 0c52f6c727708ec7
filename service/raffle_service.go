package service

import (
	"context"
	"fmt"

	"github.com/Pikkuherkko/HH-Lotto/models"
	"github.com/Pikkuherkko/HH-Lotto/raffle"

	log "github.com/sirupsen/logrus"
)

// raffleService wraps the in-memory engine with durable journaling. The
// engine is the authority for round state; the journal exists so an open
// round survives a restart and settled draws are queryable afterwards.
type raffleService struct {
	engine     *raffle.Engine
	uowFactory UnitOfWorkFactory
}

// NewRaffleService creates a new raffle service around an engine
func NewRaffleService(engine *raffle.Engine, uowFactory UnitOfWorkFactory) RaffleService {
	return &raffleService{
		engine:     engine,
		uowFactory: uowFactory,
	}
}

// RestoreFromJournal reloads the open round into a freshly constructed
// engine. It must run before the service accepts traffic.
func RestoreFromJournal(ctx context.Context, engine *raffle.Engine, uowFactory UnitOfWorkFactory) error {
	uow := uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	entries, err := uow.EntryRepository().GetOpen(ctx)
	if err != nil {
		return fmt.Errorf("failed to load open entries: %w", err)
	}

	lastWinner, err := uow.WinnerRepository().GetLatest(ctx)
	if err != nil {
		return fmt.Errorf("failed to load last winner: %w", err)
	}

	return engine.Restore(entries, lastWinner)
}

func (s *raffleService) Enter(ctx context.Context, participant models.Participant, amount int64) error {
	if err := s.engine.Enter(ctx, participant, amount); err != nil {
		return err
	}

	// Write-behind journaling: the entry is already accepted and paid for,
	// so a journal failure degrades crash recovery but never the round.
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		s.logJournalFailure(participant, err)
		return nil
	}
	defer uow.Rollback()

	if err := uow.EntryRepository().Create(ctx, &models.Entry{
		Participant: participant,
		Amount:      amount,
	}); err != nil {
		s.logJournalFailure(participant, err)
		return nil
	}
	if err := uow.Commit(); err != nil {
		s.logJournalFailure(participant, err)
	}
	return nil
}

func (s *raffleService) logJournalFailure(participant models.Participant, err error) {
	log.WithFields(log.Fields{
		"participant": participant,
		"error":       err,
	}).Error("Failed to journal accepted entry")
}

func (s *raffleService) CheckReady() models.ReadinessCheck {
	return s.engine.CheckReady()
}

func (s *raffleService) TriggerDraw(ctx context.Context) (string, error) {
	return s.engine.TriggerDraw(ctx)
}

func (s *raffleService) DeliverRandomness(ctx context.Context, requestID string, words []uint64) (*models.WinnerRecord, error) {
	record, err := s.engine.DeliverRandomness(ctx, requestID, words)
	if err != nil {
		return nil, err
	}

	// Settlement already happened inside the engine; persist the outcome.
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		s.logSettlementFailure(record, err)
		return record, nil
	}
	defer uow.Rollback()

	if err := uow.WinnerRepository().Create(ctx, record); err != nil {
		s.logSettlementFailure(record, err)
		return record, nil
	}
	if err := uow.EntryRepository().MarkSettled(ctx, record.ID); err != nil {
		s.logSettlementFailure(record, err)
		return record, nil
	}
	if err := uow.Commit(); err != nil {
		s.logSettlementFailure(record, err)
	}
	return record, nil
}

func (s *raffleService) logSettlementFailure(record *models.WinnerRecord, err error) {
	log.WithFields(log.Fields{
		"requestId": record.RequestID,
		"winner":    record.Winner,
		"error":     err,
	}).Error("Failed to persist settled draw")
}

func (s *raffleService) Status() models.RaffleStatus {
	status := models.RaffleStatus{
		State:            s.engine.State(),
		EntranceFee:      s.engine.EntranceFee(),
		Interval:         s.engine.Interval(),
		ParticipantCount: s.engine.ParticipantCount(),
		PotBalance:       s.engine.Pot(),
		LastDrawAt:       s.engine.LastDrawAt(),
		LastWinner:       s.engine.LastWinner(),
	}
	if pending := s.engine.PendingRequest(); pending != nil {
		status.PendingRequestID = pending.ID
	}
	return status
}

func (s *raffleService) Participants() []models.Participant {
	return s.engine.Participants()
}

func (s *raffleService) WinnerHistory(ctx context.Context, limit int) ([]*models.WinnerRecord, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return uow.WinnerRepository().List(ctx, limit)
}
