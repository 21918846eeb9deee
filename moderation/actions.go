package moderation

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"group-inactivity-bot/logger"
	"group-inactivity-bot/security"
)

// API is the slice of the Telegram client the moderation layer needs.
// *tgbotapi.BotAPI satisfies it; tests substitute a stub.
type API interface {
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetChatMember(config tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error)
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Result is the typed outcome of a moderation action, so callers branch on
// it instead of swallowing errors.
type Result struct {
	OK  bool
	Err error
}

type Actions struct {
	api                 API
	logger              *logger.Logger
	selfID              int64
	unknownIsPrivileged bool
}

func New(api API, selfID int64, unknownIsPrivileged bool, log *logger.Logger) *Actions {
	return &Actions{
		api:                 api,
		logger:              log,
		selfID:              selfID,
		unknownIsPrivileged: unknownIsPrivileged,
	}
}

// IsPrivileged reports whether the member is a chat administrator or the
// chat creator. When the status query fails the configured fallback applies;
// the default treats unknown status as privileged so the member is never
// acted on.
func (a *Actions) IsPrivileged(chatID, userID int64) bool {
	member, err := a.api.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
			ChatID: chatID,
			UserID: userID,
		},
	})
	if err != nil {
		a.logger.Errorf("Failed to get member status for user %d in chat %d: %v", userID, chatID, err)
		return a.unknownIsPrivileged
	}

	return member.IsAdministrator() || member.IsCreator()
}

// IsChatAdmin reports whether the member administers the chat, for command
// authorization. Unlike IsPrivileged it denies on query errors: an API
// hiccup must never grant command access.
func (a *Actions) IsChatAdmin(chatID, userID int64) bool {
	member, err := a.api.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
			ChatID: chatID,
			UserID: userID,
		},
	})
	if err != nil {
		a.logger.Errorf("Failed to check admin status for user %d in chat %d: %v", userID, chatID, err)
		return false
	}

	return member.IsAdministrator() || member.IsCreator()
}

// BotCanRestrict reports whether the bot itself holds ban rights in the chat.
func (a *Actions) BotCanRestrict(chatID int64) bool {
	member, err := a.api.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
			ChatID: chatID,
			UserID: a.selfID,
		},
	})
	if err != nil {
		a.logger.Errorf("Failed to check bot permissions in chat %d: %v", chatID, err)
		return false
	}

	if member.IsCreator() {
		return true
	}
	return member.IsAdministrator() && member.CanRestrictMembers
}

// RemoveMember kicks a member: ban followed by unban, leaving the door open
// to rejoin via an invite link. A failed ban fails the removal; a failed
// unban after a successful ban is logged but the removal still counts.
func (a *Actions) RemoveMember(chatID, userID int64) Result {
	ban := tgbotapi.BanChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{
			ChatID: chatID,
			UserID: userID,
		},
	}
	if _, err := a.api.Request(ban); err != nil {
		return Result{Err: fmt.Errorf("ban failed: %w", err)}
	}

	unban := tgbotapi.UnbanChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{
			ChatID: chatID,
			UserID: userID,
		},
		OnlyIfBanned: true,
	}
	if _, err := a.api.Request(unban); err != nil {
		// Secondary failure only: the member is out either way.
		a.logger.Warnf("Unban after kick failed for user %d in chat %d: %v", userID, chatID, err)
	}

	return Result{OK: true}
}

// SendNotice is a best-effort broadcast; failures are logged and swallowed
// so notification delivery never blocks the moderation workflow.
func (a *Actions) SendNotice(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, security.TruncateMessage(text))
	if _, err := a.api.Send(msg); err != nil {
		a.logger.Errorf("Failed to send notice to chat %d: %v", chatID, err)
	}
}

// SendPrompt sends a notice carrying an inline keyboard, used for the
// one-tap "I'm still here" affordance.
func (a *Actions) SendPrompt(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, security.TruncateMessage(text))
	msg.ReplyMarkup = keyboard
	if _, err := a.api.Send(msg); err != nil {
		a.logger.Errorf("Failed to send prompt to chat %d: %v", chatID, err)
	}
}
