package notify

import (
	"context"
	"fmt"
	"net/http"

	"github.com/alanyoungcy/liqscope/internal/domain"
)

// DiscordSender posts alerts as embeds to a Discord webhook.
type DiscordSender struct {
	webhookURL string
	client     *http.Client
}

// NewDiscordSender creates a sender for the given webhook URL.
func NewDiscordSender(webhookURL string) *DiscordSender {
	return &DiscordSender{
		webhookURL: webhookURL,
		client:     newHTTPClient(),
	}
}

type discordEmbed struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Color       int    `json:"color"`
}

// Send posts one embed coloured by risk tier.
func (d *DiscordSender) Send(ctx context.Context, msg Message) error {
	payload := map[string]any{
		"embeds": []discordEmbed{{
			Title:       msg.Title,
			Description: msg.Body,
			Color:       tierColor(msg.Tier),
		}},
	}
	if err := postJSON(ctx, d.client, d.webhookURL, payload); err != nil {
		return fmt.Errorf("discord: %w", err)
	}
	return nil
}

// Name returns the sender identifier.
func (d *DiscordSender) Name() string { return "discord" }

func tierColor(tier domain.RiskTier) int {
	switch tier {
	case domain.RiskHigh:
		return 0xE74C3C
	case domain.RiskMedium:
		return 0xE67E22
	case domain.RiskLow:
		return 0xF1C40F
	default:
		return 0x95A5A6
	}
}
