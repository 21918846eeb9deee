package moderation

import (
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"group-inactivity-bot/logger"
)

type fakeAPI struct {
	requests  []tgbotapi.Chattable
	sent      []tgbotapi.Chattable
	banErr    error
	unbanErr  error
	member    tgbotapi.ChatMember
	memberErr error
	sendErr   error
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.requests = append(f.requests, c)
	switch c.(type) {
	case tgbotapi.BanChatMemberConfig:
		if f.banErr != nil {
			return nil, f.banErr
		}
	case tgbotapi.UnbanChatMemberConfig:
		if f.unbanErr != nil {
			return nil, f.unbanErr
		}
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) GetChatMember(config tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error) {
	if f.memberErr != nil {
		return tgbotapi.ChatMember{}, f.memberErr
	}
	return f.member, nil
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, f.sendErr
}

func newTestActions(t *testing.T, api *fakeAPI, unknownIsPrivileged bool) *Actions {
	t.Helper()

	log, err := logger.New("", "info")
	require.NoError(t, err)

	return New(api, 999, unknownIsPrivileged, log)
}

func TestRemoveMemberKickSemantics(t *testing.T) {
	api := &fakeAPI{}
	actions := newTestActions(t, api, true)

	res := actions.RemoveMember(-100, 42)

	assert.True(t, res.OK)
	assert.NoError(t, res.Err)
	require.Len(t, api.requests, 2, "ban then unban")

	ban, ok := api.requests[0].(tgbotapi.BanChatMemberConfig)
	require.True(t, ok)
	assert.Equal(t, int64(42), ban.UserID)

	unban, ok := api.requests[1].(tgbotapi.UnbanChatMemberConfig)
	require.True(t, ok)
	assert.Equal(t, int64(42), unban.UserID)
	assert.True(t, unban.OnlyIfBanned, "unban must not touch members banned by someone else")
}

func TestRemoveMemberBanFailureAborts(t *testing.T) {
	api := &fakeAPI{banErr: errors.New("not enough rights")}
	actions := newTestActions(t, api, true)

	res := actions.RemoveMember(-100, 42)

	assert.False(t, res.OK)
	assert.Error(t, res.Err)
	assert.Len(t, api.requests, 1, "no unban after failed ban")
}

func TestRemoveMemberUnbanFailureStillSucceeds(t *testing.T) {
	api := &fakeAPI{unbanErr: errors.New("network blip")}
	actions := newTestActions(t, api, true)

	res := actions.RemoveMember(-100, 42)

	assert.True(t, res.OK, "the unban is a courtesy, not a correctness requirement")
	assert.NoError(t, res.Err)
}

func TestIsPrivileged(t *testing.T) {
	tests := []struct {
		name     string
		status   string
		expected bool
	}{
		{"administrator", "administrator", true},
		{"creator", "creator", true},
		{"member", "member", false},
		{"restricted", "restricted", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{member: tgbotapi.ChatMember{Status: tt.status}}
			actions := newTestActions(t, api, true)

			assert.Equal(t, tt.expected, actions.IsPrivileged(-100, 42))
		})
	}
}

func TestIsPrivilegedQueryFailureFallback(t *testing.T) {
	api := &fakeAPI{memberErr: errors.New("user not found")}

	assert.True(t, newTestActions(t, api, true).IsPrivileged(-100, 42),
		"default fails closed: unknown status is privileged")
	assert.False(t, newTestActions(t, api, false).IsPrivileged(-100, 42),
		"configurable to treat unknown status as actionable")
}

func TestIsChatAdmin(t *testing.T) {
	t.Run("administrator", func(t *testing.T) {
		api := &fakeAPI{member: tgbotapi.ChatMember{Status: "administrator"}}
		assert.True(t, newTestActions(t, api, true).IsChatAdmin(-100, 42))
	})

	t.Run("plain member", func(t *testing.T) {
		api := &fakeAPI{member: tgbotapi.ChatMember{Status: "member"}}
		assert.False(t, newTestActions(t, api, true).IsChatAdmin(-100, 42))
	})

	t.Run("query failure denies regardless of fallback", func(t *testing.T) {
		api := &fakeAPI{memberErr: errors.New("bad gateway")}
		assert.False(t, newTestActions(t, api, true).IsChatAdmin(-100, 42),
			"authorization must fail closed even when unknown status protects members elsewhere")
	})
}

func TestBotCanRestrict(t *testing.T) {
	t.Run("creator", func(t *testing.T) {
		api := &fakeAPI{member: tgbotapi.ChatMember{Status: "creator"}}
		assert.True(t, newTestActions(t, api, true).BotCanRestrict(-100))
	})

	t.Run("admin with ban rights", func(t *testing.T) {
		api := &fakeAPI{member: tgbotapi.ChatMember{Status: "administrator", CanRestrictMembers: true}}
		assert.True(t, newTestActions(t, api, true).BotCanRestrict(-100))
	})

	t.Run("admin without ban rights", func(t *testing.T) {
		api := &fakeAPI{member: tgbotapi.ChatMember{Status: "administrator"}}
		assert.False(t, newTestActions(t, api, true).BotCanRestrict(-100))
	})

	t.Run("plain member", func(t *testing.T) {
		api := &fakeAPI{member: tgbotapi.ChatMember{Status: "member"}}
		assert.False(t, newTestActions(t, api, true).BotCanRestrict(-100))
	})

	t.Run("query failure", func(t *testing.T) {
		api := &fakeAPI{memberErr: errors.New("bad gateway")}
		assert.False(t, newTestActions(t, api, true).BotCanRestrict(-100))
	})
}

func TestSendNoticeSwallowsErrors(t *testing.T) {
	api := &fakeAPI{sendErr: errors.New("chat not found")}
	actions := newTestActions(t, api, true)

	actions.SendNotice(-100, "hello") // must not panic or propagate
	assert.Len(t, api.sent, 1)
}
