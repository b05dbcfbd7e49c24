package share

import (
	"context"
	"fmt"

	"reviewant/internal/config"
	"reviewant/internal/metrics"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
)

// Announcer publishes a composed share post somewhere outside the service.
type Announcer interface {
	Announce(ctx context.Context, text string) error
}

type NopAnnouncer struct{}

func (NopAnnouncer) Announce(context.Context, string) error { return nil }

type webhookExecutor interface {
	WebhookExecute(webhookID, token string, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordAnnouncer posts to a channel through an incoming webhook.
type DiscordAnnouncer struct {
	session webhookExecutor
	id      string
	token   string
	metrics *metrics.Recorder
	logger  zerolog.Logger
}

// NewAnnouncer returns a Discord announcer when a webhook is configured and
// a NopAnnouncer otherwise.
func NewAnnouncer(cfg *config.Config, rec *metrics.Recorder, logger zerolog.Logger) (Announcer, error) {
	if !cfg.DiscordEnabled() {
		logger.Debug().Msg("discord webhook not configured, share announcements disabled")
		return NopAnnouncer{}, nil
	}

	// webhooks authenticate with their token, the session needs none
	s, err := discordgo.New("")
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	return &DiscordAnnouncer{
		session: s,
		id:      cfg.DiscordWebhookID,
		token:   cfg.DiscordWebhookToken,
		metrics: rec,
		logger:  logger,
	}, nil
}

func (a *DiscordAnnouncer) Announce(ctx context.Context, text string) error {
	_, err := a.session.WebhookExecute(a.id, a.token, false, &discordgo.WebhookParams{
		Content: text,
		AllowedMentions: &discordgo.MessageAllowedMentions{
			Parse: []discordgo.AllowedMentionType{},
		},
	}, discordgo.WithContext(ctx))
	a.metrics.SharePosted(err)
	if err != nil {
		a.logger.Warn().Err(err).Msg("failed to post share announcement")
		return fmt.Errorf("failed to execute discord webhook: %w", err)
	}
	a.logger.Debug().Int("length", len(text)).Msg("share announcement posted")
	return nil
}
