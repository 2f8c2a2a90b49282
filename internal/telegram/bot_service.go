// Package telegram integrates with the Telegram Bot API. It delivers
// complaint notifications and answers a few bot commands.
package telegram

import (
	"context"
	"errors"
	"log"
	"strings"

	"cleantrack/backend/internal/apperr"
	"cleantrack/backend/internal/localization"
	"cleantrack/backend/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// ComplaintReader loads a complaint by id.
type ComplaintReader interface {
	Get(ctx context.Context, id string) (*models.Complaint, error)
}

// UserDirectory is used to decide who may query a complaint.
type UserDirectory interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	ListUsers(ctx context.Context, role models.Role) ([]models.User, error)
}

// BotService answers bot commands.
type BotService struct {
	BotAPI          *tgbotapi.BotAPI
	Sender          Sender
	Complaints      ComplaintReader
	Users           UserDirectory
	Localizer       *localization.Localizer
	OfficialsChatID int64
}

// NewBotService creates a new BotService instance.
func NewBotService(token string, complaints ComplaintReader, users UserDirectory, l *localization.Localizer, officialsChatID int64) (*BotService, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	bot.Debug = false
	log.Printf("INFO: Telegram bot authorized on account %s", bot.Self.UserName)

	return &BotService{
		BotAPI:          bot,
		Sender:          &BotSender{BotAPI: bot},
		Complaints:      complaints,
		Users:           users,
		Localizer:       l,
		OfficialsChatID: officialsChatID,
	}, nil
}

// Run is the main loop for receiving Telegram updates.
func (s *BotService) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := s.BotAPI.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			s.BotAPI.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}
			lang := localization.DefaultLanguage
			if update.Message.From != nil {
				lang = languageOf(update.Message.From.LanguageCode)
			}
			s.HandleCommand(ctx, update.Message.Chat.ID, lang, update.Message.Text)
		}
	}
}

func languageOf(code string) string {
	if strings.HasPrefix(strings.ToLower(code), "uk") {
		return "uk"
	}
	return localization.DefaultLanguage
}

// HandleCommand answers one command message such as "/status c1".
func (s *BotService) HandleCommand(ctx context.Context, chatID int64, lang, text string) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return
	}
	command := strings.TrimPrefix(fields[0], "/")
	if i := strings.IndexByte(command, '@'); i >= 0 {
		command = command[:i]
	}

	var reply string
	switch command {
	case "start":
		reply = s.Localizer.Format(lang, "bot_start", chatID)
	case "help":
		reply = s.Localizer.GetString(lang, "bot_help")
	case "status":
		reply = s.statusReply(ctx, chatID, lang, fields[1:])
	default:
		reply = s.Localizer.GetString(lang, "bot_unknown_command")
	}

	if err := s.Sender.SendText(chatID, reply); err != nil {
		log.Printf("ERROR: Failed to reply to chat %d: %v", chatID, err)
	}
}

func (s *BotService) statusReply(ctx context.Context, chatID int64, lang string, args []string) string {
	if len(args) != 1 {
		return s.Localizer.GetString(lang, "bot_status_usage")
	}
	id := args[0]

	c, err := s.Complaints.Get(ctx, id)
	var nf *apperr.NotFoundError
	switch {
	case errors.As(err, &nf):
		return s.Localizer.Format(lang, "bot_status_not_found", id)
	case err != nil:
		log.Printf("ERROR: /status %s: %v", id, err)
		return s.Localizer.GetString(lang, "bot_error")
	}

	allowed, err := s.canView(ctx, chatID, c)
	if err != nil {
		log.Printf("ERROR: /status %s access check: %v", id, err)
		return s.Localizer.GetString(lang, "bot_error")
	}
	if !allowed {
		return s.Localizer.Format(lang, "bot_status_not_found", id)
	}

	reply := s.Localizer.Format(lang, "bot_status_reply",
		c.Title, c.Location, s.Localizer.StatusLabel(lang, string(c.Status)), c.SubmittedAt.Format("2006-01-02"))
	if note := c.LatestNote(); note != nil {
		reply += "\n" + s.Localizer.Format(lang, "bot_status_last_note", note.Text, note.AuthorName)
	}
	return reply
}

// canView allows the officials chat, officials' linked chats and the
// reporter's linked chat.
func (s *BotService) canView(ctx context.Context, chatID int64, c *models.Complaint) (bool, error) {
	if s.OfficialsChatID != 0 && chatID == s.OfficialsChatID {
		return true, nil
	}
	if s.Users == nil {
		return false, nil
	}

	reporter, err := s.Users.GetUserByID(ctx, c.ReportedByID)
	if err == nil && reporter.TelegramChatID != 0 && reporter.TelegramChatID == chatID {
		return true, nil
	}

	officials, err := s.Users.ListUsers(ctx, models.RoleOfficial)
	if err != nil {
		return false, err
	}
	for _, o := range officials {
		if o.TelegramChatID != 0 && o.TelegramChatID == chatID {
			return true, nil
		}
	}
	return false, nil
}
