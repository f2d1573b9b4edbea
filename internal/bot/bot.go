package bot

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/lil-gargs/backend/internal/config"
	"github.com/lil-gargs/backend/internal/registry"
	"github.com/lil-gargs/backend/internal/services"
	"go.uber.org/zap"
)

const verifyButtonID = "verify_wallet"

// Bot владеет Discord-стороной верификации: команда/кнопка создаёт сессию,
// регистрирует interaction в registry и отдаёт ссылку на портал. Результат
// приходит асинхронно через Redis (см. notifier.go).
type Bot struct {
	cfg          *config.Config
	log          *zap.Logger
	session      *discordgo.Session
	verification *services.VerificationService
	registry     *registry.InteractionRegistry
}

func New(cfg *config.Config, verification *services.VerificationService, reg *registry.InteractionRegistry, log *zap.Logger) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.DiscordBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds

	b := &Bot{
		cfg:          cfg,
		log:          log,
		session:      session,
		verification: verification,
		registry:     reg,
	}
	session.AddHandler(b.onInteractionCreate)
	return b, nil
}

func (b *Bot) Start(ctx context.Context) error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord gateway: %w", err)
	}

	commands := []*discordgo.ApplicationCommand{
		{Name: "verify", Description: "Verify your Solana wallet to receive holder roles"},
		{Name: "verify-panel", Description: "Post a verification panel with a button (moderators)"},
	}
	for _, cmd := range commands {
		if _, err := b.session.ApplicationCommandCreate(b.cfg.DiscordAppID, "", cmd); err != nil {
			b.log.Warn("failed to register slash command", zap.String("name", cmd.Name), zap.Error(err))
		}
	}

	b.log.Info("discord bot started", zap.String("app_id", b.cfg.DiscordAppID))
	return nil
}

func (b *Bot) Close() error {
	return b.session.Close()
}

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		switch i.ApplicationCommandData().Name {
		case "verify":
			b.handleVerify(s, i)
		case "verify-panel":
			b.handleVerifyPanel(s, i)
		}
	case discordgo.InteractionMessageComponent:
		if i.MessageComponentData().CustomID == verifyButtonID {
			b.handleVerify(s, i)
		}
	}
}

// handleVerify создаёт сессию и отвечает ephemeral-сообщением со ссылкой на
// портал. Interaction попадает в registry, чтобы результат можно было
// доставить follow-up'ом вместо DM.
func (b *Bot) handleVerify(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.GuildID == "" || i.Member == nil || i.Member.User == nil {
		b.respondEphemeral(s, i, "Wallet verification only works inside a server.")
		return
	}
	user := i.Member.User

	result, err := b.verification.CreateSession(context.Background(), services.CreateSessionInput{
		DiscordID: user.ID,
		GuildID:   i.GuildID,
		Username:  user.Username,
	})
	if err != nil {
		b.log.Warn("failed to create verification session",
			zap.String("discord_id", user.ID), zap.Error(err))
		b.respondEphemeral(s, i, "Could not start verification right now, please try again in a minute.")
		return
	}

	b.registry.Register(result.Token, registry.Entry{
		InteractionID:    i.ID,
		InteractionToken: i.Token,
		ChannelID:        i.ChannelID,
		UserID:           user.ID,
		GuildID:          i.GuildID,
	})

	link := fmt.Sprintf("%s/verify?session=%s", b.cfg.PortalBaseURL, result.Token)
	minutes := int(b.cfg.SessionTTL.Minutes())
	b.respondEphemeral(s, i, fmt.Sprintf(
		"Connect your wallet and sign the message here: %s\nThe link expires in %d minutes.", link, minutes))
}

// handleVerifyPanel постит публичное сообщение с кнопкой верификации.
func (b *Bot) handleVerifyPanel(s *discordgo.Session, i *discordgo.InteractionCreate) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: "Prove you hold a Lil Garg to unlock holder roles.",
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.Button{
							Label:    "Verify wallet",
							Style:    discordgo.PrimaryButton,
							CustomID: verifyButtonID,
						},
					},
				},
			},
		},
	})
	if err != nil {
		b.log.Warn("failed to post verify panel", zap.Error(err))
	}
}

func (b *Bot) respondEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		b.log.Warn("failed to respond to interaction", zap.Error(err))
	}
}
