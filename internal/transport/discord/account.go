package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/Revixit-Net/discord-bot/internal/usecase"
)

func (b *Bot) handleRegister(ctx context.Context, r Responder, i *discordgo.InteractionCreate) string {
	options := optionMap(i.ApplicationCommandData().Options)
	login := stringOption(options, "login")
	password := stringOption(options, "password")

	account, err := b.registration.Register(ctx, interactionUserID(i), login, password)
	if err != nil {
		return b.replyError(r, commandRegister, err, []replyCase{
			{usecase.ErrAccountExists, "❌ That login is taken or an account is already linked to you!"},
			{usecase.ErrCooldownActive, "⏳ You are registering too often. Try again later."},
		})
	}

	b.replyOrLog(r, commandRegister, fmt.Sprintf(
		"✅ Registration complete! Use **%s** and your password in the launcher.",
		account.Username,
	))
	return outcomeOK
}

func (b *Bot) handleChangePassword(ctx context.Context, r Responder, i *discordgo.InteractionCreate) string {
	options := optionMap(i.ApplicationCommandData().Options)
	oldPassword := stringOption(options, "old_password")
	newPassword := stringOption(options, "new_password")

	err := b.passwords.ChangePassword(ctx, interactionUserID(i), oldPassword, newPassword)
	if err != nil {
		return b.replyError(r, commandChangePassword, err, []replyCase{
			{usecase.ErrAccountNotFound, "❌ No account is linked to you. Register with /reg first."},
			{usecase.ErrCurrentPasswordInvalid, "❌ The current password is incorrect!"},
		})
	}

	b.replyOrLog(r, commandChangePassword, "✅ Password changed!")
	return outcomeOK
}
