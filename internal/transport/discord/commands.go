package discord

import (
	"github.com/bwmarrin/discordgo"
)

const (
	commandRegister       = "reg"
	commandChangePassword = "changepassword"
	commandDelete         = "delete"
	commandUserInfo       = "userinfo"
	commandSetPassword    = "setpassword"
	commandUpload         = "upload"
)

// commandDefinitions returns the full slash command set the bot overwrites
// on startup.
func commandDefinitions() []*discordgo.ApplicationCommand {
	usernameOption := func(description string) *discordgo.ApplicationCommandOption {
		return &discordgo.ApplicationCommandOption{
			Type:         discordgo.ApplicationCommandOptionString,
			Name:         "username",
			Description:  description,
			Required:     true,
			Autocomplete: true,
		}
	}

	return []*discordgo.ApplicationCommand{
		{
			Name:        commandRegister,
			Description: "Register a launcher account",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "login",
					Description: "Login (3-16 characters: a-Z, 0-9, _)",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "password",
					Description: "Password (at least 8 characters)",
					Required:    true,
				},
			},
		},
		{
			Name:        commandChangePassword,
			Description: "Change your launcher password",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "old_password",
					Description: "Current password",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "new_password",
					Description: "New password (at least 8 characters)",
					Required:    true,
				},
			},
		},
		{
			Name:        commandDelete,
			Description: "[ADMIN] Delete a launcher account",
			Options: []*discordgo.ApplicationCommandOption{
				usernameOption("Account login"),
			},
		},
		{
			Name:        commandUserInfo,
			Description: "[ADMIN] Show account details",
			Options: []*discordgo.ApplicationCommandOption{
				usernameOption("Account login"),
			},
		},
		{
			Name:        commandSetPassword,
			Description: "[ADMIN] Set a new password for an account",
			Options: []*discordgo.ApplicationCommandOption{
				usernameOption("Account login"),
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "new_password",
					Description: "New password (at least 8 characters)",
					Required:    true,
				},
			},
		},
		{
			Name:        commandUpload,
			Description: "Upload a skin or cloak",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "type",
					Description: "Asset type",
					Required:    true,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "Skin", Value: "skin"},
						{Name: "Cloak", Value: "cloak"},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionAttachment,
					Name:        "file",
					Description: "PNG file (max 256KB)",
					Required:    true,
				},
			},
		},
	}
}

func optionMap(options []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(options))
	for _, opt := range options {
		m[opt.Name] = opt
	}
	return m
}

func stringOption(options map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	opt, ok := options[name]
	if !ok {
		return ""
	}
	value, _ := opt.Value.(string)
	return value
}

// attachmentOption resolves an attachment-typed option against the
// interaction's resolved data.
func attachmentOption(data discordgo.ApplicationCommandInteractionData, options map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) *discordgo.MessageAttachment {
	id := stringOption(options, name)
	if id == "" || data.Resolved == nil {
		return nil
	}
	return data.Resolved.Attachments[id]
}

func interactionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}
