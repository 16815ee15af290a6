package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bailiff/pkg/domain/model"
	"github.com/secmon-lab/bailiff/pkg/domain/model/config"
	"github.com/secmon-lab/bailiff/pkg/service/slack"
	"github.com/secmon-lab/bailiff/pkg/utils/logging"
)

// AnnouncementUseCase posts server start-up and shut-down announcements
type AnnouncementUseCase struct {
	slack    slack.Service
	policy   *model.AccessPolicy
	channels *config.Channels
	cfg      *config.Announcement
}

func NewAnnouncementUseCase(slackSvc slack.Service, policy *model.AccessPolicy, channels *config.Channels, cfg *config.Announcement) *AnnouncementUseCase {
	return &AnnouncementUseCase{
		slack:    slackSvc,
		policy:   policy,
		channels: channels,
		cfg:      cfg,
	}
}

// StartupPanel renders the server start-up announcement
func StartupPanel(cfg *config.Announcement) *model.Panel {
	var b strings.Builder
	b.WriteString("Our whitelisted server has now started up.")
	if cfg.RulesChannel != "" {
		fmt.Fprintf(&b, " We highly recommend you review our <#%s> prior to joining.", cfg.RulesChannel)
	}
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "*Server Name:* %s\n", cfg.ServerName)
	fmt.Fprintf(&b, "*Code:* %s\n\n", cfg.ServerCode)
	b.WriteString("If you have voted, you have *15 minutes* to join or you will face moderation actions. " +
		"Ensure to join a voice channel as it is required.")
	if cfg.GroupURL != "" {
		fmt.Fprintf(&b, " To join in-game you must be in our Roblox group found <%s|here>.", cfg.GroupURL)
	}

	return &model.Panel{
		Title:    "Server Start-Up",
		Text:     b.String(),
		Color:    model.ColorAnnounce,
		ImageURL: cfg.ImageURL,
		Footer:   announcementFooter(cfg),
	}
}

// ShutdownPanel renders the server shut-down announcement
func ShutdownPanel(cfg *config.Announcement) *model.Panel {
	return &model.Panel{
		Title: "Server Shut Down",
		Text: "Our whitelisted server has now shut down. Thank you for joining. We hope you enjoyed our session.\n\n" +
			"Ensure to stay on the lookout for future whitelisted sessions.",
		Color:    model.ColorAnnounce,
		ImageURL: cfg.ImageURL,
		Footer:   announcementFooter(cfg),
	}
}

func announcementFooter(cfg *config.Announcement) string {
	if cfg.Footer != "" {
		return cfg.Footer
	}
	return cfg.ServerName
}

// Startup announces that the game server is up and pings the channel
func (uc *AnnouncementUseCase) Startup(ctx context.Context, actor *model.Actor) (*model.Reply, error) {
	return uc.announce(ctx, actor, "SSU", StartupPanel(uc.cfg), "<!channel> Server Start-Up")
}

// Shutdown announces that the game server is down
func (uc *AnnouncementUseCase) Shutdown(ctx context.Context, actor *model.Actor) (*model.Reply, error) {
	return uc.announce(ctx, actor, "SSD", ShutdownPanel(uc.cfg), "Server Shut Down")
}

func (uc *AnnouncementUseCase) announce(ctx context.Context, actor *model.Actor, name string, panel *model.Panel, text string) (*model.Reply, error) {
	if !uc.policy.Allows(actor, model.RuleAnnounce) {
		return nil, goerr.Wrap(ErrPermissionDenied, "cannot announce", goerr.V(ActorIDKey, actor.ID))
	}

	channelID := uc.channels.Announcement
	if channelID == "" {
		return nil, goerr.Wrap(model.ErrChannelUnavailable, "no announcement channel configured")
	}

	if _, err := uc.slack.PostPanel(ctx, channelID, panel, text); err != nil {
		return nil, goerr.Wrap(err, "failed to post announcement",
			goerr.V("announcement", name), goerr.V(model.ChannelIDKey, channelID))
	}

	logging.From(ctx).Info("announcement sent",
		"announcement", name,
		"channel_id", channelID,
		"actor_id", actor.ID)

	return model.TextReply(fmt.Sprintf("%s announcement sent in <#%s>.", name, channelID)), nil
}
