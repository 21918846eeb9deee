package telegram

import (
	"fmt"
	"os"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"group-inactivity-bot/database"
	"group-inactivity-bot/policy"
)

func (b *Bot) handleCommand(message *tgbotapi.Message) {
	command := message.Command()

	// /start and /help are open to everyone.
	if command == "start" || command == "help" {
		b.handleHelpCommand(message)
		return
	}

	if !b.isAuthorized(message) {
		b.reply(message, "⛔ You are not allowed to use this command.")
		return
	}

	switch command {
	case "config":
		b.handleConfigCommand(message)
	case "stats":
		b.handleStatsCommand(message)
	case "check", "scan":
		b.handleScanCommand(message)
	case "ping":
		b.handlePingCommand(message)
	case "backup":
		b.handleBackupCommand(message)
	default:
		b.reply(message, "Unknown command. Use /help to see available commands.")
	}
}

func (b *Bot) handleHelpCommand(message *tgbotapi.Message) {
	if message.Chat.IsPrivate() {
		b.reply(message, `👋 Hi! I watch group activity and flag members who go silent.

Setup:
1) Add me to your group
2) Make me an administrator with ban permission
3) Use /config in the group to review the settings

Commands:
• /config – show the current settings
• /stats – activity counts for this group
• /scan – check inactivity now (admins only)
• /ping – ask everyone to confirm they are still around
• /backup – export the activity ledger`)
		return
	}

	b.reply(message, "✅ Bot is up. Use /config to review settings and /scan to check inactivity.")
}

func (b *Bot) handleConfigCommand(message *tgbotapi.Message) {
	mode := "safe (warn only, nobody is removed)"
	if !b.cfg.DryRun() {
		mode = "enforcing (inactive members are removed)"
	}

	edits := "no"
	if b.cfg.Inactivity.CountEdits {
		edits = "yes"
	}

	text := fmt.Sprintf(`⚙️ Current settings
• Inactivity threshold: %d days
• Warning lead time: %d days
• Mode: %s
• Sweep interval: every %d hours
• Edited messages count as activity: %s

The bot must be an administrator with ban permission to remove members.`,
		b.cfg.Inactivity.ThresholdDays,
		b.cfg.Inactivity.WarningLeadDays,
		mode,
		b.cfg.Inactivity.SweepHours,
		edits,
	)

	b.reply(message, text)
}

func (b *Bot) handleStatsCommand(message *tgbotapi.Message) {
	chat := message.Chat
	if !chat.IsGroup() && !chat.IsSuperGroup() {
		b.reply(message, "ℹ️ /stats works in groups.")
		return
	}

	now := time.Now()
	threshold := b.cfg.Inactivity.ThresholdDays
	lead := b.cfg.Inactivity.WarningLeadDays

	var active, warnBand, due int
	entries := b.ledger.EntriesFor(chat.ID)
	for _, e := range entries {
		switch policy.Classify(now, e.Record.LastSeen, e.Record.Warned, threshold, lead) {
		case policy.Active:
			active++
		case policy.WarnDue, policy.AwaitingRemoval:
			warnBand++
		case policy.RemovalDue:
			due++
		}
	}

	text := fmt.Sprintf(`📊 Activity stats
• Tracked members: %d
• Active: %d
• In warning band: %d
• Due for removal: %d`,
		len(entries), active, warnBand, due)

	if b.db != nil {
		since := now.AddDate(0, 0, -30)
		warned, err := b.db.CountActionsSince(chat.ID, database.ActionWarn, since)
		if err != nil {
			b.logger.Errorf("Failed to count warnings for chat %d: %v", chat.ID, err)
		}
		removed, err := b.db.CountActionsSince(chat.ID, database.ActionRemove, since)
		if err != nil {
			b.logger.Errorf("Failed to count removals for chat %d: %v", chat.ID, err)
		}
		text += fmt.Sprintf("\n\nLast 30 days: %d warned, %d removed", warned, removed)
	}

	b.reply(message, text)
}

func (b *Bot) handleScanCommand(message *tgbotapi.Message) {
	chat := message.Chat
	if !chat.IsGroup() && !chat.IsSuperGroup() {
		b.reply(message, "ℹ️ /scan works in groups.")
		return
	}

	if !b.cfg.DryRun() && !b.actions.BotCanRestrict(chat.ID) {
		b.reply(message, "⚠️ I need administrator rights with ban permission to remove members in this group.")
		return
	}

	report := b.SweepChat(chat.ID)
	b.reply(message, report.Summary())
}

func (b *Bot) handlePingCommand(message *tgbotapi.Message) {
	chat := message.Chat
	if !chat.IsGroup() && !chat.IsSuperGroup() {
		b.reply(message, "ℹ️ /ping works in groups.")
		return
	}

	b.actions.SendPrompt(chat.ID,
		"👋 Quick check: are you still around? Tap the button or send a message to count as active.",
		activityKeyboard())
}

func (b *Bot) handleBackupCommand(message *tgbotapi.Message) {
	path := b.ledger.Path()
	if _, err := os.Stat(path); err != nil {
		b.reply(message, "ℹ️ There is no ledger file yet.")
		return
	}

	doc := tgbotapi.NewDocument(message.Chat.ID, tgbotapi.FilePath(path))
	doc.Caption = "Activity ledger backup"
	if _, err := b.api.Send(doc); err != nil {
		b.logger.Errorf("Failed to send ledger backup: %v", err)
		b.reply(message, "❌ Failed to export the ledger.")
	}
}
