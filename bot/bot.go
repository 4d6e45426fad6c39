package bot

import (
	"context"
	"fmt"

	"challenger/events"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// Config holds notifier configuration
type Config struct {
	Token     string
	ChannelID string
}

// messageSender is the slice of discordgo.Session the notifier uses
type messageSender interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Notifier posts match results and audit notices to a Discord channel
type Notifier struct {
	config  Config
	session *discordgo.Session
	sender  messageSender
}

// New creates a notifier backed by a REST-only Discord session
func New(config Config) (*Notifier, error) {
	if config.ChannelID == "" {
		return nil, fmt.Errorf("discord channel id is required")
	}

	dg, err := discordgo.New("Bot " + config.Token)
	if err != nil {
		return nil, fmt.Errorf("error creating discord session: %w", err)
	}

	return &Notifier{
		config:  config,
		session: dg,
		sender:  dg,
	}, nil
}

func newWithSender(config Config, sender messageSender) *Notifier {
	return &Notifier{config: config, sender: sender}
}

// Attach subscribes the notifier to the events it announces
func (n *Notifier) Attach(bus *events.Bus) {
	bus.Subscribe(events.EventTypeMatchStateChanged, n.Handle)
	bus.Subscribe(events.EventTypeSettlementCompleted, n.Handle)
	bus.Subscribe(events.EventTypeDuplicatesRemoved, n.Handle)
	bus.Subscribe(events.EventTypeEmergencyAccess, n.Handle)
	log.WithField("channelID", n.config.ChannelID).Info("Discord notifier subscribed to events")
}

// Handle posts an embed for event, if it is one worth announcing
func (n *Notifier) Handle(ctx context.Context, event events.Event) {
	embed := buildEmbed(event)
	if embed == nil {
		return
	}

	ctx = context.WithoutCancel(ctx)
	if _, err := n.sender.ChannelMessageSendEmbed(n.config.ChannelID, embed, discordgo.WithContext(ctx)); err != nil {
		log.WithFields(log.Fields{
			"eventType": event.Type(),
			"channelID": n.config.ChannelID,
			"error":     err,
		}).Error("Failed to post Discord notification")
	}
}

// Close closes the underlying Discord session
func (n *Notifier) Close() error {
	if n.session == nil {
		return nil
	}
	return n.session.Close()
}
