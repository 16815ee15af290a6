package slack

import (
	"github.com/secmon-lab/bailiff/pkg/domain/model"
	"github.com/secmon-lab/bailiff/pkg/domain/types"
	"github.com/slack-go/slack"
)

const controlsBlockID = "bailiff_controls"

func toAttachment(p *model.Panel) slack.Attachment {
	att := slack.Attachment{
		Color:      p.Color,
		Fallback:   p.Title,
		AuthorName: p.Author,
		Title:      p.Title,
		Text:       p.Text,
		ImageURL:   p.ImageURL,
		Footer:     p.Footer,
		MarkdownIn: []string{"text", "fields"},
	}
	for _, f := range p.Fields {
		att.Fields = append(att.Fields, slack.AttachmentField{Title: f.Name, Value: f.Value})
	}
	return att
}

func fromAttachment(att slack.Attachment) *model.Panel {
	p := &model.Panel{
		Title:    att.Title,
		Author:   att.AuthorName,
		Text:     att.Text,
		Color:    att.Color,
		ImageURL: att.ImageURL,
		Footer:   att.Footer,
	}
	for _, f := range att.Fields {
		p.Fields = append(p.Fields, model.Field{Name: f.Title, Value: f.Value})
	}
	return p
}

// panelOf picks the panel out of a message's attachments. Attachments
// without a title or footer are link unfurls and similar, not panels.
func panelOf(atts []slack.Attachment) *model.Panel {
	for _, att := range atts {
		if att.Title != "" || att.Footer != "" {
			return fromAttachment(att)
		}
	}
	return nil
}

// toBlocks renders controls as a single actions block. The result is never
// nil so that an update without controls clears the previous buttons.
func toBlocks(controls []model.Control) []slack.Block {
	if len(controls) == 0 {
		return []slack.Block{}
	}

	elements := make([]slack.BlockElement, 0, len(controls))
	for _, c := range controls {
		btn := slack.NewButtonBlockElement(
			c.Action.String(),
			c.Value,
			slack.NewTextBlockObject(slack.PlainTextType, c.Label, false, false),
		)
		switch c.Style {
		case types.ControlStylePrimary:
			btn = btn.WithStyle(slack.StylePrimary)
		case types.ControlStyleDanger:
			btn = btn.WithStyle(slack.StyleDanger)
		}
		elements = append(elements, btn)
	}

	return []slack.Block{slack.NewActionBlock(controlsBlockID, elements...)}
}

func toWebhookMessage(reply *model.Reply) *slack.WebhookMessage {
	msg := &slack.WebhookMessage{
		Text:            reply.Text,
		ResponseType:    slack.ResponseTypeEphemeral,
		ReplaceOriginal: reply.ReplaceOriginal,
	}
	if reply.Panel != nil {
		msg.Attachments = []slack.Attachment{toAttachment(reply.Panel)}
		if msg.Text == "" {
			msg.Text = reply.Panel.Title
		}
	}
	if len(reply.Controls) > 0 {
		msg.Blocks = &slack.Blocks{BlockSet: toBlocks(reply.Controls)}
		// With blocks present Slack shows them instead of text, so the
		// text goes into a section of its own.
		if reply.Text != "" {
			section := slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, reply.Text, false, false), nil, nil)
			msg.Blocks.BlockSet = append([]slack.Block{section}, msg.Blocks.BlockSet...)
		}
	}
	return msg
}
