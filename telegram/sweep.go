package telegram

import (
	"fmt"
	"strings"
	"time"

	"group-inactivity-bot/database"
	"group-inactivity-bot/policy"
)

// SweepReport collects the per-member outcomes of one sweep so the invoking
// admin gets a plain-language summary instead of raw errors.
type SweepReport struct {
	ChatID  int64
	DryRun  bool
	Active  int
	Pending int      // warning band, warning already sent earlier
	Warned  []string // warned during this sweep
	Flagged []string // removal due, safe mode: notice only
	Removed []string
	Failed  []string // "name (reason)"
	Skipped []string // privileged members left alone
}

func (r *SweepReport) Summary() string {
	var sb strings.Builder

	if r.DryRun {
		sb.WriteString("🧪 Safe mode is on: inactive members are listed, not removed.\n")
	}

	if len(r.Warned) == 0 && len(r.Flagged) == 0 && len(r.Removed) == 0 &&
		len(r.Failed) == 0 && len(r.Skipped) == 0 {
		sb.WriteString("✅ No inactive members according to the current ledger.")
		return sb.String()
	}

	if len(r.Warned) > 0 {
		sb.WriteString("🔔 Warned: " + strings.Join(r.Warned, ", ") + "\n")
	}
	if len(r.Flagged) > 0 {
		sb.WriteString("💤 Inactive: " + strings.Join(r.Flagged, ", ") + "\n")
	}
	if len(r.Removed) > 0 {
		sb.WriteString("🗑️ Removed: " + strings.Join(r.Removed, ", ") + "\n")
	}
	if len(r.Failed) > 0 {
		sb.WriteString("❌ Failed: " + strings.Join(r.Failed, ", ") + "\n")
	}
	if len(r.Skipped) > 0 {
		sb.WriteString("🛡️ Skipped admins: " + strings.Join(r.Skipped, ", ") + "\n")
	}

	return strings.TrimRight(sb.String(), "\n")
}

// SweepChat classifies every ledger entry of one chat and acts on due
// warnings and removals. The ledger snapshot is taken under its lock; all
// Telegram calls happen outside it. One member failing never aborts the rest.
func (b *Bot) SweepChat(chatID int64) *SweepReport {
	// Read once per sweep so mode changes mid-sweep cannot mix behavior.
	dryRun := b.cfg.DryRun()
	threshold := b.cfg.Inactivity.ThresholdDays
	lead := b.cfg.Inactivity.WarningLeadDays
	now := time.Now()

	report := &SweepReport{ChatID: chatID, DryRun: dryRun}

	for _, e := range b.ledger.EntriesFor(chatID) {
		name := nameOrID(e.Record.DisplayName, e.UserID)
		age := policy.AgeDays(now, e.Record.LastSeen)

		switch policy.Classify(now, e.Record.LastSeen, e.Record.Warned, threshold, lead) {
		case policy.Active:
			report.Active++

		case policy.AwaitingRemoval:
			report.Pending++

		case policy.WarnDue:
			// Admin status can change between sweeps, so check right
			// before acting.
			if b.actions.IsPrivileged(chatID, e.UserID) {
				report.Skipped = append(report.Skipped, name)
				continue
			}

			daysLeft := threshold - age
			b.actions.SendPrompt(chatID, fmt.Sprintf(
				"⚠️ %s has been quiet for %d days. Members silent for %d days are removed from the group — tap the button or send a message to stay.",
				name, age, threshold),
				activityKeyboard())
			b.ledger.MarkWarned(chatID, e.UserID)
			b.audit(chatID, e.UserID, name, database.ActionWarn, true,
				fmt.Sprintf("inactive %d days, %d left", age, daysLeft))
			report.Warned = append(report.Warned, name)

		case policy.RemovalDue:
			if b.actions.IsPrivileged(chatID, e.UserID) {
				report.Skipped = append(report.Skipped, name)
				continue
			}

			if dryRun {
				b.actions.SendNotice(chatID, fmt.Sprintf(
					"🔔 Inactive member: %s (last activity %d days ago)", name, age))
				b.audit(chatID, e.UserID, name, database.ActionFlag, true,
					fmt.Sprintf("inactive %d days", age))
				report.Flagged = append(report.Flagged, name)
				continue
			}

			res := b.actions.RemoveMember(chatID, e.UserID)
			if !res.OK {
				b.logger.Errorf("Failed to remove user %d from chat %d: %v", e.UserID, chatID, res.Err)
				b.audit(chatID, e.UserID, name, database.ActionRemove, false, res.Err.Error())
				report.Failed = append(report.Failed, fmt.Sprintf("%s (%v)", name, res.Err))
				continue
			}

			b.ledger.Remove(chatID, e.UserID)
			b.audit(chatID, e.UserID, name, database.ActionRemove, true,
				fmt.Sprintf("inactive %d days", age))
			report.Removed = append(report.Removed, name)
		}
	}

	return report
}

// SweepAll runs one sweep for every chat present in the ledger. Used by the
// periodic sweeper; per-chat summaries go to the log, not the chats.
func (b *Bot) SweepAll() {
	for _, chatID := range b.ledger.Chats() {
		report := b.SweepChat(chatID)
		b.logger.Infof("Sweep of chat %d: %d active, %d pending, warned %d, flagged %d, removed %d, failed %d",
			chatID, report.Active, report.Pending,
			len(report.Warned), len(report.Flagged), len(report.Removed), len(report.Failed))
	}
}
