package services

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"

	"pnodewatch/config"
)

// DiscordService posts operational notices to a configured channel. When the
// bot token or channel is missing the service constructs in a disabled state
// and every Send is a silent no-op, so callers never branch on configuration.
type DiscordService struct {
	session   *discordgo.Session
	channelID string
	logger    *logrus.Logger
	enabled   bool
}

func NewDiscordService(cfg *config.Config, logger *logrus.Logger) (*DiscordService, error) {
	if cfg.Discord.BotToken == "" || cfg.Discord.ChannelID == "" {
		logger.Info("Discord not configured, alert delivery disabled")
		return &DiscordService{logger: logger}, nil
	}

	session, err := discordgo.New("Bot " + cfg.Discord.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}

	if err := session.Open(); err != nil {
		return nil, fmt.Errorf("failed to open discord session: %w", err)
	}

	logger.WithField("channel", cfg.Discord.ChannelID).Info("Discord alert delivery enabled")

	return &DiscordService{
		session:   session,
		channelID: cfg.Discord.ChannelID,
		logger:    logger,
		enabled:   true,
	}, nil
}

func (d *DiscordService) Enabled() bool {
	return d != nil && d.enabled
}

// Send posts a plain message to the alert channel.
func (d *DiscordService) Send(message string) error {
	if !d.Enabled() {
		return nil
	}

	if _, err := d.session.ChannelMessageSend(d.channelID, message); err != nil {
		return fmt.Errorf("failed to send discord message: %w", err)
	}
	return nil
}

// SendEmbed posts a titled embed, used for the richer alert layout.
func (d *DiscordService) SendEmbed(title, description string, color int) error {
	if !d.Enabled() {
		return nil
	}

	embed := &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       color,
	}

	if _, err := d.session.ChannelMessageSendEmbed(d.channelID, embed); err != nil {
		return fmt.Errorf("failed to send discord embed: %w", err)
	}
	return nil
}

func (d *DiscordService) Close() {
	if d != nil && d.session != nil {
		d.session.Close()
	}
}
