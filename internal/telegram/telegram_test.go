package telegram_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"cleantrack/backend/internal/complaint"
	"cleantrack/backend/internal/localization"
	"cleantrack/backend/internal/models"
	"cleantrack/backend/internal/storage"
	"cleantrack/backend/internal/telegram"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const officialsChat int64 = -100500

type MockSender struct {
	mock.Mock
}

func (m *MockSender) SendText(chatID int64, text string) error {
	return m.Called(chatID, text).Error(0)
}

func setup(t *testing.T) (*storage.MemoryStore, *localization.Localizer) {
	t.Helper()
	ctx := context.Background()

	store := storage.NewMemoryStore()
	require.NoError(t, storage.SeedDemo(ctx, store, "hash"))

	john, err := store.GetUserByID(ctx, "demo-citizen-john")
	require.NoError(t, err)
	john.TelegramChatID = 111
	john.Language = "uk"
	require.NoError(t, store.UpdateUser(ctx, john))

	l, err := localization.Default()
	require.NoError(t, err)
	return store, l
}

func TestNotifier_Submitted_GoesToOfficialsChat(t *testing.T) {
	store, l := setup(t)
	sender := new(MockSender)
	n := telegram.NewNotifier(sender, store, l, officialsChat)

	ev := models.Event{Type: models.EventComplaintSubmitted, ComplaintID: "c9", Title: "Overflowing bin", ReporterID: "demo-citizen-john"}
	sender.On("SendText", officialsChat, l.Format("en", "notify_submitted", "Overflowing bin", "c9")).Return(nil).Once()

	err := n.Deliver(context.Background(), ev)

	assert.NoError(t, err)
	sender.AssertExpectations(t)
}

func TestNotifier_Submitted_NoOfficialsChat(t *testing.T) {
	store, l := setup(t)
	sender := new(MockSender)
	n := telegram.NewNotifier(sender, store, l, 0)

	err := n.Deliver(context.Background(), models.Event{Type: models.EventComplaintSubmitted, ComplaintID: "c9"})

	assert.NoError(t, err)
	sender.AssertNotCalled(t, "SendText", mock.Anything, mock.Anything)
}

func TestNotifier_StatusUpdate_ReporterInTheirLanguage(t *testing.T) {
	store, l := setup(t)
	sender := new(MockSender)
	n := telegram.NewNotifier(sender, store, l, officialsChat)

	ev := models.Event{
		Type:        models.EventStatusUpdated,
		ComplaintID: "c2",
		Title:       "Broken Street Light",
		ReporterID:  "demo-citizen-john",
		Status:      models.StatusInProgress,
		Note:        &models.Note{Text: "Crew assigned", AuthorName: "Officer Johnson"},
	}
	reporterText := l.Format("uk", "notify_status_updated", "Broken Street Light", l.StatusLabel("uk", "in-progress"), "Crew assigned")
	officialText := l.Format("en", "notify_status_updated_official", "Broken Street Light", "In Progress", "Officer Johnson", "Crew assigned")
	sender.On("SendText", int64(111), reporterText).Return(nil).Once()
	sender.On("SendText", officialsChat, officialText).Return(nil).Once()

	err := n.Deliver(context.Background(), ev)

	assert.NoError(t, err)
	sender.AssertExpectations(t)
}

func TestNotifier_StatusUpdate_ReporterWithoutChat(t *testing.T) {
	store, l := setup(t)
	sender := new(MockSender)
	n := telegram.NewNotifier(sender, store, l, 0)

	ev := models.Event{Type: models.EventStatusUpdated, ComplaintID: "c6", ReporterID: "demo-citizen-sarah", Status: models.StatusResolved}

	err := n.Deliver(context.Background(), ev)

	assert.NoError(t, err)
	sender.AssertNotCalled(t, "SendText", mock.Anything, mock.Anything)
}

func TestNotifier_StatusUpdate_JoinsErrors(t *testing.T) {
	store, l := setup(t)
	sender := new(MockSender)
	n := telegram.NewNotifier(sender, store, l, officialsChat)

	boom := errors.New("telegram down")
	sender.On("SendText", int64(111), mock.Anything).Return(boom).Once()
	sender.On("SendText", officialsChat, mock.Anything).Return(nil).Once()

	err := n.Deliver(context.Background(), models.Event{Type: models.EventStatusUpdated, ReporterID: "demo-citizen-john", Status: models.StatusResolved})

	assert.ErrorIs(t, err, boom)
	sender.AssertExpectations(t)
}

func TestNotifier_PublishAndRun(t *testing.T) {
	store, l := setup(t)
	sender := new(MockSender)
	n := telegram.NewNotifier(sender, store, l, officialsChat)

	delivered := make(chan struct{})
	sender.On("SendText", officialsChat, mock.Anything).Return(nil).Once().Run(func(mock.Arguments) {
		close(delivered)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go n.Run(ctx)

	require.NoError(t, n.Publish(ctx, models.Event{Type: models.EventComplaintSubmitted, ComplaintID: "c1"}))

	select {
	case <-delivered:
	case <-time.After(time.Second):
		t.Fatal("notification was not delivered")
	}
}

func newBot(t *testing.T) (*telegram.BotService, *MockSender, *localization.Localizer) {
	store, l := setup(t)
	sender := new(MockSender)
	bot := &telegram.BotService{
		Sender:          sender,
		Complaints:      complaint.NewService(store, nil),
		Users:           store,
		Localizer:       l,
		OfficialsChatID: officialsChat,
	}
	return bot, sender, l
}

func TestBot_Start_ShowsChatID(t *testing.T) {
	bot, sender, l := newBot(t)
	sender.On("SendText", int64(42), l.Format("en", "bot_start", int64(42))).Return(nil).Once()

	bot.HandleCommand(context.Background(), 42, "en", "/start")

	sender.AssertExpectations(t)
}

func TestBot_Help_WithBotSuffix(t *testing.T) {
	bot, sender, l := newBot(t)
	sender.On("SendText", int64(42), l.GetString("uk", "bot_help")).Return(nil).Once()

	bot.HandleCommand(context.Background(), 42, "uk", "/help@cleantrack_bot")

	sender.AssertExpectations(t)
}

func TestBot_UnknownCommand(t *testing.T) {
	bot, sender, l := newBot(t)
	sender.On("SendText", int64(42), l.GetString("en", "bot_unknown_command")).Return(nil).Once()

	bot.HandleCommand(context.Background(), 42, "en", "/dance")

	sender.AssertExpectations(t)
}

func TestBot_IgnoresPlainText(t *testing.T) {
	bot, sender, _ := newBot(t)

	bot.HandleCommand(context.Background(), 42, "en", "hello there")

	sender.AssertNotCalled(t, "SendText", mock.Anything, mock.Anything)
}

func TestBot_Status(t *testing.T) {
	tests := []struct {
		name   string
		chatID int64
		text   string
		check  func(t *testing.T, l *localization.Localizer, reply string)
	}{
		{
			name:   "usage without id",
			chatID: 111,
			text:   "/status",
			check: func(t *testing.T, l *localization.Localizer, reply string) {
				assert.Equal(t, l.GetString("en", "bot_status_usage"), reply)
			},
		},
		{
			name:   "reporter chat sees own complaint with last note",
			chatID: 111,
			text:   "/status c1",
			check: func(t *testing.T, l *localization.Localizer, reply string) {
				assert.Contains(t, reply, "Garbage Pile Near Bus Stop")
				assert.Contains(t, reply, "In Progress")
				assert.Contains(t, reply, "Cleanup crew scheduled for tomorrow morning.")
			},
		},
		{
			name:   "officials chat sees any complaint",
			chatID: officialsChat,
			text:   "/status c6",
			check: func(t *testing.T, l *localization.Localizer, reply string) {
				assert.Contains(t, reply, "Broken Public Bench")
			},
		},
		{
			name:   "other chat is told not found",
			chatID: 111,
			text:   "/status c6",
			check: func(t *testing.T, l *localization.Localizer, reply string) {
				assert.Equal(t, l.Format("en", "bot_status_not_found", "c6"), reply)
			},
		},
		{
			name:   "missing complaint",
			chatID: officialsChat,
			text:   "/status nope",
			check: func(t *testing.T, l *localization.Localizer, reply string) {
				assert.Equal(t, l.Format("en", "bot_status_not_found", "nope"), reply)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bot, sender, l := newBot(t)
			var reply string
			sender.On("SendText", tt.chatID, mock.Anything).Return(nil).Once().Run(func(args mock.Arguments) {
				reply = args.String(1)
			})

			bot.HandleCommand(context.Background(), tt.chatID, "en", tt.text)

			sender.AssertExpectations(t)
			tt.check(t, l, reply)
		})
	}
}
