package telegram

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"group-inactivity-bot/config"
	"group-inactivity-bot/database"
	"group-inactivity-bot/ledger"
	"group-inactivity-bot/logger"
	"group-inactivity-bot/moderation"
	"group-inactivity-bot/security"
)

// allowedUpdates limits delivery to the update kinds the dispatcher handles.
var allowedUpdates = []string{"message", "edited_message", "callback_query", "chat_member"}

type Bot struct {
	client  *tgbotapi.BotAPI // transport only; handlers go through api
	api     moderation.API
	cfg     *config.Config
	ledger  *ledger.Ledger
	actions *moderation.Actions
	db      *database.DB
	logger  *logger.Logger
}

func New(cfg *config.Config, led *ledger.Ledger, db *database.DB, log *logger.Logger) (*Bot, error) {
	client, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}

	client.Debug = false

	return &Bot{
		client:  client,
		api:     client,
		cfg:     cfg,
		ledger:  led,
		actions: moderation.New(client, client.Self.ID, cfg.Moderation.UnknownIsPrivileged, log),
		db:      db,
		logger:  log,
	}, nil
}

// Start serves updates until the process exits: webhook delivery when a
// public base URL is configured, long polling otherwise.
func (b *Bot) Start() error {
	b.logger.Infof("Authorized on account %s", b.client.Self.UserName)

	if b.cfg.Telegram.WebhookURL != "" {
		return b.serveWebhook()
	}
	return b.pollUpdates()
}

func (b *Bot) pollUpdates() error {
	// Drop any webhook left over from a previous deployment, otherwise
	// getUpdates is rejected.
	if _, err := b.client.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		b.logger.Errorf("Failed to remove webhook: %v", err)
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	u.AllowedUpdates = allowedUpdates

	updates := b.client.GetUpdatesChan(u)

	for update := range updates {
		b.HandleUpdate(&update)
	}

	return nil
}

// HandleUpdate routes one inbound update to the matching handler.
func (b *Bot) HandleUpdate(update *tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallbackQuery(update.CallbackQuery)
	case update.ChatMember != nil:
		b.handleMemberUpdate(update.ChatMember)
	case update.Message != nil:
		b.handleMessage(update.Message, false)
	case update.EditedMessage != nil:
		b.handleMessage(update.EditedMessage, true)
	}
}

func (b *Bot) handleMessage(message *tgbotapi.Message, edited bool) {
	chat := message.Chat
	if chat == nil {
		return
	}
	isGroup := chat.IsGroup() || chat.IsSuperGroup()

	// Membership-change service messages.
	if isGroup && len(message.NewChatMembers) > 0 {
		for _, user := range message.NewChatMembers {
			if user.IsBot {
				continue
			}
			// Joining counts as implicit activity.
			b.ledger.Record(chat.ID, user.ID, displayName(&user))
		}
		return
	}
	if isGroup && message.LeftChatMember != nil {
		b.ledger.Remove(chat.ID, message.LeftChatMember.ID)
		return
	}

	if message.From == nil {
		return
	}

	if message.IsCommand() {
		if edited {
			return
		}
		b.handleCommand(message)
		return
	}

	if !isGroup || message.From.IsBot {
		return
	}
	if edited && !b.cfg.Inactivity.CountEdits {
		return
	}

	b.ledger.Record(chat.ID, message.From.ID, displayName(message.From))
}

// handleMemberUpdate consumes chat_member updates, which are delivered even
// when join/leave service messages are disabled in the group.
func (b *Bot) handleMemberUpdate(upd *tgbotapi.ChatMemberUpdated) {
	user := upd.NewChatMember.User
	if user == nil {
		return
	}

	switch upd.NewChatMember.Status {
	case "member", "administrator", "creator":
		if !user.IsBot {
			b.ledger.Record(upd.Chat.ID, user.ID, displayName(user))
		}
	case "left", "kicked":
		b.ledger.Remove(upd.Chat.ID, user.ID)
	}
}

func (b *Bot) handleCallbackQuery(callback *tgbotapi.CallbackQuery) {
	if callback.From == nil {
		return
	}

	parts := strings.Split(callback.Data, ":")

	switch parts[0] {
	case "active":
		if callback.Message != nil && callback.Message.Chat != nil {
			chat := callback.Message.Chat
			if chat.IsGroup() || chat.IsSuperGroup() {
				b.ledger.Record(chat.ID, callback.From.ID, displayName(callback.From))
			}
		}

		// Answer callback query to remove loading state
		answer := tgbotapi.NewCallback(callback.ID, "Thanks, your activity is recorded ✅")
		if _, err := b.api.Request(answer); err != nil {
			b.logger.Errorf("Failed to answer callback: %v", err)
		}
	}
}

func (b *Bot) isAuthorized(message *tgbotapi.Message) bool {
	if message.From == nil {
		return false
	}

	// A configured operator list wins over per-chat admin status.
	if len(b.cfg.Moderation.OperatorIDs) > 0 {
		return b.cfg.IsOperator(message.From.ID)
	}

	chat := message.Chat
	if chat.IsGroup() || chat.IsSuperGroup() {
		return b.actions.IsChatAdmin(chat.ID, message.From.ID)
	}

	// Private chats have no admins; without an operator list nobody is
	// authorized there.
	return false
}

func (b *Bot) reply(message *tgbotapi.Message, text string) {
	msg := tgbotapi.NewMessage(message.Chat.ID, security.TruncateMessage(text))
	msg.ReplyToMessageID = message.MessageID
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Errorf("Failed to reply in chat %d: %v", message.Chat.ID, err)
	}
}

func (b *Bot) audit(chatID, userID int64, name, action string, success bool, detail string) {
	if b.db == nil {
		return
	}

	err := b.db.LogAction(&database.LogEntry{
		ChatID:      chatID,
		UserID:      userID,
		DisplayName: name,
		Action:      action,
		Success:     success,
		Detail:      detail,
	})
	if err != nil {
		b.logger.Errorf("Failed to record audit entry: %v", err)
	}
}

// displayName picks the best-known handle: @username, else the full name,
// else the raw numeric ID.
func displayName(user *tgbotapi.User) string {
	if user.UserName != "" {
		return security.SanitizeDisplayName("@" + user.UserName)
	}

	full := strings.TrimSpace(strings.TrimSpace(user.FirstName) + " " + strings.TrimSpace(user.LastName))
	if name := security.SanitizeDisplayName(full); name != "" {
		return name
	}

	return fmt.Sprintf("ID:%d", user.ID)
}

func nameOrID(name string, userID int64) string {
	if name != "" {
		return name
	}
	return fmt.Sprintf("ID:%d", userID)
}

func activityKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✋ I'm still here", "active:here"),
		),
	)
}
