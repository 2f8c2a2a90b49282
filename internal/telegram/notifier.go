package telegram

import (
	"context"
	"errors"
	"log"

	"cleantrack/backend/internal/localization"
	"cleantrack/backend/internal/models"
)

var ErrQueueFull = errors.New("telegram notification queue is full")

// UserLookup is the part of the user repository the notifier needs.
type UserLookup interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// Notifier sends complaint events to Telegram: new complaints and status
// changes go to the officials chat, status changes also go to the reporter
// when they linked a chat id to their profile.
type Notifier struct {
	Sender          Sender
	Users           UserLookup
	Localizer       *localization.Localizer
	OfficialsChatID int64

	queue chan models.Event
}

func NewNotifier(sender Sender, users UserLookup, l *localization.Localizer, officialsChatID int64) *Notifier {
	return &Notifier{
		Sender:          sender,
		Users:           users,
		Localizer:       l,
		OfficialsChatID: officialsChatID,
		queue:           make(chan models.Event, 100),
	}
}

// Publish queues the event without waiting for Telegram.
func (n *Notifier) Publish(ctx context.Context, ev models.Event) error {
	select {
	case n.queue <- ev:
		return nil
	default:
		return ErrQueueFull
	}
}

// Run delivers queued events until ctx is cancelled. Failed deliveries are
// logged and not retried.
func (n *Notifier) Run(ctx context.Context) {
	for {
		select {
		case ev := <-n.queue:
			if err := n.Deliver(ctx, ev); err != nil {
				log.Printf("ERROR: Telegram notification for complaint %s failed: %v", ev.ComplaintID, err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// Deliver sends the messages for one event.
func (n *Notifier) Deliver(ctx context.Context, ev models.Event) error {
	switch ev.Type {
	case models.EventComplaintSubmitted:
		if n.OfficialsChatID == 0 {
			return nil
		}
		text := n.Localizer.Format(localization.DefaultLanguage, "notify_submitted", ev.Title, ev.ComplaintID)
		return n.Sender.SendText(n.OfficialsChatID, text)

	case models.EventStatusUpdated:
		var errs []error
		if err := n.notifyReporter(ctx, ev); err != nil {
			errs = append(errs, err)
		}
		if n.OfficialsChatID != 0 {
			lang := localization.DefaultLanguage
			text := n.Localizer.Format(lang, "notify_status_updated_official",
				ev.Title, n.Localizer.StatusLabel(lang, string(ev.Status)), noteAuthor(ev), noteText(ev))
			if err := n.Sender.SendText(n.OfficialsChatID, text); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
	return nil
}

func (n *Notifier) notifyReporter(ctx context.Context, ev models.Event) error {
	if n.Users == nil || ev.ReporterID == "" {
		return nil
	}
	user, err := n.Users.GetUserByID(ctx, ev.ReporterID)
	if err != nil {
		return err
	}
	if user.TelegramChatID == 0 {
		return nil
	}

	lang := user.Language
	text := n.Localizer.Format(lang, "notify_status_updated",
		ev.Title, n.Localizer.StatusLabel(lang, string(ev.Status)), noteText(ev))
	return n.Sender.SendText(user.TelegramChatID, text)
}

func noteText(ev models.Event) string {
	if ev.Note == nil {
		return ""
	}
	return ev.Note.Text
}

func noteAuthor(ev models.Event) string {
	if ev.Note == nil {
		return ""
	}
	return ev.Note.AuthorName
}
