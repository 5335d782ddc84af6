package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/Revixit-Net/discord-bot/internal/core/domain"
	"github.com/Revixit-Net/discord-bot/internal/usecase"
)

func (b *Bot) handleUpload(ctx context.Context, r Responder, i *discordgo.InteractionCreate) string {
	data := i.ApplicationCommandData()
	options := optionMap(data.Options)
	kind := domain.AssetKind(stringOption(options, "type"))

	attachment := attachmentOption(data, options, "file")
	if attachment == nil {
		b.replyOrLog(r, commandUpload, "❌ Attach a PNG file.")
		return outcomeRejected
	}
	if attachment.Size > usecase.MaxAssetBytes {
		b.replyOrLog(r, commandUpload, "❌ The file is larger than 256KB.")
		return outcomeRejected
	}

	content, err := b.fetchAttachment(ctx, attachment.URL)
	if err != nil {
		return b.replyError(r, commandUpload, err, nil)
	}

	if err := b.assets.Upload(ctx, interactionUserID(i), kind, attachment.Filename, content); err != nil {
		return b.replyError(r, commandUpload, err, []replyCase{
			{usecase.ErrAccountNotFound, "❌ Register with /reg first."},
		})
	}

	b.replyOrLog(r, commandUpload, fmt.Sprintf("✅ %s uploaded!", assetLabel(kind)))
	return outcomeOK
}

func assetLabel(kind domain.AssetKind) string {
	switch kind {
	case domain.AssetCloak:
		return "Cloak"
	default:
		return "Skin"
	}
}
