package notify

import (
	"context"
	"fmt"

	"github.com/caseops/workbasket/pkg/domain/model"
	"github.com/caseops/workbasket/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"github.com/slack-go/slack"
)

// slackService posts claim-protocol events to a fixed Slack channel
type slackService struct {
	api       *slack.Client
	channelID string
}

var _ Service = &slackService{}

// NewSlack creates a Slack-backed notification service posting to channelID
func NewSlack(token, channelID string) (Service, error) {
	if token == "" {
		return nil, goerr.New("Slack bot token is required")
	}
	if channelID == "" {
		return nil, goerr.New("Slack channel ID is required")
	}

	return &slackService{
		api:       slack.New(token),
		channelID: channelID,
	}, nil
}

func (s *slackService) ActivityOffered(ctx context.Context, a *model.Activity, g *model.WorkGroup) error {
	text := fmt.Sprintf("Activity #%d offered to *%s* (%d members)", a.ID, g.Name, len(g.Members))

	blocks := []slack.Block{
		slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, text, false, false),
			nil, nil,
		),
		slack.NewContextBlock("",
			slack.NewTextBlockObject(slack.MarkdownType,
				fmt.Sprintf("kind: %s | case: %d | member: %d", a.Kind, a.CaseID, a.MemberID),
				false, false),
		),
	}

	if _, _, err := s.api.PostMessageContext(ctx, s.channelID,
		slack.MsgOptionBlocks(blocks...),
		slack.MsgOptionText(text, false),
	); err != nil {
		return goerr.Wrap(err, "failed to post offer notification",
			goerr.V("activity_id", a.ID), goerr.V("group_id", g.ID))
	}

	return nil
}

func (s *slackService) ActivityClaimed(ctx context.Context, a *model.Activity, userID types.UserID) error {
	text := fmt.Sprintf("Activity #%d claimed by <@%s>", a.ID, userID)
	return s.postSimple(ctx, a, userID, text, "claim")
}

func (s *slackService) ActivityRejected(ctx context.Context, a *model.Activity, userID types.UserID) error {
	text := fmt.Sprintf("Activity #%d rejected by all eligible members (last: <@%s>)", a.ID, userID)
	return s.postSimple(ctx, a, userID, text, "rejection")
}

func (s *slackService) ActivityCompleted(ctx context.Context, a *model.Activity, userID types.UserID) error {
	text := fmt.Sprintf("Activity #%d completed by <@%s>", a.ID, userID)
	return s.postSimple(ctx, a, userID, text, "completion")
}

func (s *slackService) postSimple(ctx context.Context, a *model.Activity, userID types.UserID, text, event string) error {
	blocks := []slack.Block{
		slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, text, false, false),
			nil, nil,
		),
	}

	if _, _, err := s.api.PostMessageContext(ctx, s.channelID,
		slack.MsgOptionBlocks(blocks...),
		slack.MsgOptionText(text, false),
	); err != nil {
		return goerr.Wrap(err, "failed to post "+event+" notification",
			goerr.V("activity_id", a.ID), goerr.V("user_id", userID))
	}

	return nil
}
