package discord

import (
	"github.com/bwmarrin/discordgo"
)

// Responder is the reply surface handed to command handlers. Ack must be
// sent once, inside the interaction latency window; Reply and ReplyEmbed
// deliver followups after it. Every response is ephemeral.
type Responder interface {
	Ack() error
	Reply(content string) error
	ReplyEmbed(embed *discordgo.MessageEmbed) error
}

type interactionResponder struct {
	session     *discordgo.Session
	interaction *discordgo.Interaction
}

func newInteractionResponder(session *discordgo.Session, interaction *discordgo.Interaction) *interactionResponder {
	return &interactionResponder{session: session, interaction: interaction}
}

func (r *interactionResponder) Ack() error {
	return r.session.InteractionRespond(r.interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags: discordgo.MessageFlagsEphemeral,
		},
	})
}

func (r *interactionResponder) Reply(content string) error {
	_, err := r.session.FollowupMessageCreate(r.interaction, true, &discordgo.WebhookParams{
		Content: content,
		Flags:   discordgo.MessageFlagsEphemeral,
	})
	return err
}

func (r *interactionResponder) ReplyEmbed(embed *discordgo.MessageEmbed) error {
	_, err := r.session.FollowupMessageCreate(r.interaction, true, &discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{embed},
		Flags:  discordgo.MessageFlagsEphemeral,
	})
	return err
}
