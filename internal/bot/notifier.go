package bot

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"github.com/lil-gargs/backend/internal/events"
	"go.uber.org/zap"
)

// StartNotifier подписывается на результаты верификации. Доставка выбирается
// ровно один раз: если interaction ещё жив в registry — ephemeral follow-up,
// иначе fallback на DM.
func (b *Bot) StartNotifier(ctx context.Context, subscriber events.Subscriber) error {
	return subscriber.Subscribe(ctx, events.StreamVerification, func(event events.Event) {
		switch event.Type {
		case events.EventVerificationCompleted:
			b.handleCompleted(event)
		case events.EventVerificationFailed:
			b.handleFailed(event)
		}
	})
}

func (b *Bot) handleCompleted(event events.Event) {
	token, _ := event.Payload["token"].(string)
	userID, _ := event.Payload["discord_id"].(string)
	guildID, _ := event.Payload["guild_id"].(string)
	isVerified, _ := event.Payload["is_verified"].(bool)
	nftCount, _ := event.Payload["nft_count"].(float64)

	var msg string
	if isVerified {
		msg = "Your wallet is verified! Holder roles are on the way."
		b.grantRoles(guildID, userID, event.Payload["role_ids"])
	} else {
		msg = "Wallet signature checked out, but no qualifying Lil Gargs were found in it."
	}
	b.log.Info("verification completed",
		zap.String("discord_id", userID),
		zap.String("guild_id", guildID),
		zap.Bool("is_verified", isVerified),
		zap.Int("nft_count", int(nftCount)),
	)

	b.deliver(token, userID, msg)
}

func (b *Bot) handleFailed(event events.Event) {
	token, _ := event.Payload["token"].(string)
	userID, _ := event.Payload["discord_id"].(string)

	b.deliver(token, userID, "Wallet verification failed: the signature did not match. Run /verify to start over.")
}

// grantRoles выдаёт роли по выполненным правилам, best-effort.
func (b *Bot) grantRoles(guildID, userID string, rawRoleIDs any) {
	roleIDs, ok := rawRoleIDs.([]any)
	if !ok {
		return
	}
	for _, raw := range roleIDs {
		roleID, ok := raw.(string)
		if !ok || roleID == "" {
			continue
		}
		if err := b.session.GuildMemberRoleAdd(guildID, userID, roleID); err != nil {
			b.log.Warn("failed to grant role",
				zap.String("guild_id", guildID),
				zap.String("user_id", userID),
				zap.String("role_id", roleID),
				zap.Error(err),
			)
		}
	}
}

func (b *Bot) deliver(token, userID, msg string) {
	if entry, ok := b.registry.Consume(token); ok {
		_, err := b.session.FollowupMessageCreate(&discordgo.Interaction{
			AppID: b.cfg.DiscordAppID,
			Token: entry.InteractionToken,
		}, true, &discordgo.WebhookParams{
			Content: msg,
			Flags:   discordgo.MessageFlagsEphemeral,
		})
		if err == nil {
			return
		}
		b.log.Debug("ephemeral follow-up failed, falling back to DM", zap.Error(err))
	}

	ch, err := b.session.UserChannelCreate(userID)
	if err != nil {
		b.log.Warn("failed to open DM channel", zap.String("user_id", userID), zap.Error(err))
		return
	}
	if _, err := b.session.ChannelMessageSend(ch.ID, msg); err != nil {
		b.log.Warn("failed to send DM", zap.String("user_id", userID), zap.Error(err))
	}
}
