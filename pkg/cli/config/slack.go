package config

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/caseops/workbasket/pkg/service/notify"
)

// Slack holds CLI flags for Slack notification configuration
type Slack struct {
	botToken  string
	channelID string
}

// Flags returns CLI flags for Slack configuration
func (s *Slack) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-bot-token",
			Usage:       "Slack Bot token for offer/claim notifications",
			Category:    "Notification",
			Sources:     cli.EnvVars("WORKBASKET_SLACK_BOT_TOKEN"),
			Destination: &s.botToken,
		},
		&cli.StringFlag{
			Name:        "slack-channel-id",
			Usage:       "Slack channel ID to post notifications to",
			Category:    "Notification",
			Sources:     cli.EnvVars("WORKBASKET_SLACK_CHANNEL_ID"),
			Destination: &s.channelID,
		},
	}
}

// IsConfigured reports whether both the token and the channel are set
func (s *Slack) IsConfigured() bool {
	return s.botToken != "" && s.channelID != ""
}

// Configure builds the Slack notification service. Returns nil when not
// configured; notifications are optional.
func (s *Slack) Configure() (notify.Service, error) {
	if s.botToken == "" && s.channelID == "" {
		return nil, nil
	}
	if !s.IsConfigured() {
		return nil, goerr.New("both slack-bot-token and slack-channel-id are required for notifications")
	}

	return notify.NewSlack(s.botToken, s.channelID)
}
