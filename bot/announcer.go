package bot

import (
	"context"
	"fmt"

	"github.com/Pikkuherkko/HH-Lotto/events"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// Config holds announcer configuration
type Config struct {
	Token     string
	ChannelID string
}

// Announcer posts raffle milestones to a Discord channel. It is a passive
// consumer of the event bus and never drives the raffle itself.
type Announcer struct {
	config  Config
	session *discordgo.Session
}

// New creates an announcer and opens its Discord session
func New(config Config, eventBus *events.Bus) (*Announcer, error) {
	dg, err := discordgo.New("Bot " + config.Token)
	if err != nil {
		return nil, fmt.Errorf("error creating discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuildMessages

	announcer := &Announcer{
		config:  config,
		session: dg,
	}

	if err := dg.Open(); err != nil {
		return nil, fmt.Errorf("error opening connection: %w", err)
	}

	eventBus.Subscribe(events.EventTypeEntryRecorded, announcer.handleEntryRecorded)
	eventBus.Subscribe(events.EventTypeRandomnessRequested, announcer.handleRandomnessRequested)
	eventBus.Subscribe(events.EventTypeWinnerSelected, announcer.handleWinnerSelected)
	eventBus.Subscribe(events.EventTypePayoutClaimed, announcer.handlePayoutClaimed)

	log.Info("Discord announcer connected")
	return announcer, nil
}

// Close shuts down the Discord session
func (a *Announcer) Close() error {
	return a.session.Close()
}

func (a *Announcer) handleEntryRecorded(ctx context.Context, event events.Event) {
	e, ok := event.(events.EntryRecordedEvent)
	if !ok {
		return
	}
	a.send(fmt.Sprintf("🎟️ **%s** entered the raffle! Pot is now **%d** across %d entries.",
		e.Participant, e.PotBalance, e.ParticipantCount))
}

func (a *Announcer) handleRandomnessRequested(ctx context.Context, event events.Event) {
	e, ok := event.(events.RandomnessRequestedEvent)
	if !ok {
		return
	}
	a.send(fmt.Sprintf("🎲 Draw armed! **%d** entries compete for **%d**. Waiting on the oracle...",
		e.ParticipantCount, e.PotBalance))
}

func (a *Announcer) handleWinnerSelected(ctx context.Context, event events.Event) {
	e, ok := event.(events.WinnerSelectedEvent)
	if !ok {
		return
	}
	a.send(fmt.Sprintf("🏆 **%s** won **%d**! A new round is open.", e.Winner, e.Amount))
}

func (a *Announcer) handlePayoutClaimed(ctx context.Context, event events.Event) {
	e, ok := event.(events.PayoutClaimedEvent)
	if !ok {
		return
	}
	a.send(fmt.Sprintf("💰 **%s** claimed their prize of **%d**.", e.Participant, e.Amount))
}

func (a *Announcer) send(message string) {
	if _, err := a.session.ChannelMessageSend(a.config.ChannelID, message); err != nil {
		log.WithFields(log.Fields{
			"channelId": a.config.ChannelID,
			"error":     err,
		}).Error("Failed to send announcement")
	}
}
