package discord

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/Revixit-Net/discord-bot/internal/usecase"
)

func (b *Bot) handleDelete(ctx context.Context, r Responder, i *discordgo.InteractionCreate) string {
	if !b.requireAdmin(r, commandDelete, i) {
		return outcomeDenied
	}

	options := optionMap(i.ApplicationCommandData().Options)
	username := stringOption(options, "username")

	deleted, err := b.admin.Delete(ctx, interactionUserID(i), username)
	if err != nil {
		return b.replyError(r, commandDelete, err, nil)
	}
	if deleted == 0 {
		b.replyOrLog(r, commandDelete, "❌ User not found")
		return outcomeRejected
	}

	b.replyOrLog(r, commandDelete, fmt.Sprintf("✅ Account **%s** deleted!", username))
	return outcomeOK
}

func (b *Bot) handleUserInfo(ctx context.Context, r Responder, i *discordgo.InteractionCreate) string {
	if !b.requireAdmin(r, commandUserInfo, i) {
		return outcomeDenied
	}

	options := optionMap(i.ApplicationCommandData().Options)
	username := stringOption(options, "username")

	account, err := b.admin.Lookup(ctx, username)
	if err != nil {
		return b.replyError(r, commandUserInfo, err, []replyCase{
			{usecase.ErrAccountNotFound, "🔍 User not found"},
		})
	}

	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("Account %s", account.Username),
		Color: 0x00ff00,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Identity token", Value: fmt.Sprintf("`%s`", account.IdentityToken)},
			{Name: "Discord ID", Value: fmt.Sprintf("`%s`", account.ExternalAccountID)},
			{Name: "Server", Value: account.ServerBinding},
			{Name: "Registered", Value: account.RegisteredAt.UTC().Format(time.RFC3339)},
		},
	}
	if err := r.ReplyEmbed(embed); err != nil {
		b.logger.Warn("failed to deliver reply",
			zap.String("command", commandUserInfo),
			zap.Error(err),
		)
	}
	return outcomeOK
}

func (b *Bot) handleSetPassword(ctx context.Context, r Responder, i *discordgo.InteractionCreate) string {
	if !b.requireAdmin(r, commandSetPassword, i) {
		return outcomeDenied
	}

	options := optionMap(i.ApplicationCommandData().Options)
	username := stringOption(options, "username")
	newPassword := stringOption(options, "new_password")

	err := b.passwords.AdminReset(ctx, interactionUserID(i), username, newPassword)
	if err != nil {
		return b.replyError(r, commandSetPassword, err, []replyCase{
			{usecase.ErrAccountNotFound, "❌ User not found"},
		})
	}

	b.replyOrLog(r, commandSetPassword, fmt.Sprintf("✅ Password for **%s** updated!", username))
	return outcomeOK
}
