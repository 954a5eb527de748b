package services

import (
	"context"
	"fmt"
	"html"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"autodealer/internal/models"
)

type tgSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramService sends HTML messages through the bot and implements
// Notifier for admins that linked a chat.
type TelegramService struct {
	bot tgSender
}

func NewTelegramService(botToken string) (*TelegramService, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}
	logrus.WithField("bot", bot.Self.UserName).Info("[tg] bot authorized")
	return &TelegramService{bot: bot}, nil
}

func (t *TelegramService) SendMessage(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	return t.send(chatID, msg)
}

// SendReplyKeyboard sends text with a persistent keyboard under the input
// line.
func (t *TelegramService) SendReplyKeyboard(chatID int64, text string, keyboard [][]string) error {
	rows := make([][]tgbotapi.KeyboardButton, 0, len(keyboard))
	for _, labels := range keyboard {
		row := make([]tgbotapi.KeyboardButton, 0, len(labels))
		for _, label := range labels {
			row = append(row, tgbotapi.NewKeyboardButton(label))
		}
		rows = append(rows, row)
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = tgbotapi.NewReplyKeyboard(rows...)
	return t.send(chatID, msg)
}

func (t *TelegramService) send(chatID int64, msg tgbotapi.MessageConfig) error {
	if t == nil || t.bot == nil || chatID == 0 {
		logrus.WithField("chat_id", chatID).Debug("[tg][skip] bot or chat id empty")
		return nil
	}
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	if _, err := t.bot.Send(msg); err != nil {
		logrus.WithField("chat_id", chatID).WithError(err).Warn("[tg][send] failed")
		return fmt.Errorf("telegram sendMessage: %w", err)
	}
	logrus.WithField("chat_id", chatID).Debug("[tg][send] ok")
	return nil
}

func wantsTelegram(admin *models.Admin) bool {
	return admin != nil && admin.NotifyTelegram && admin.TelegramChatID != 0
}

func (t *TelegramService) LeadAssigned(_ context.Context, admin *models.Admin, lead *models.Lead) error {
	if !wantsTelegram(admin) {
		return nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "🆕 <b>Вам назначен лид #%d</b>\n", lead.ID)
	fmt.Fprintf(&b, "Имя: %s\n", html.EscapeString(lead.Name))
	if lead.Phone != "" {
		fmt.Fprintf(&b, "Телефон: %s\n", html.EscapeString(lead.Phone))
	}
	if lead.Email != "" {
		fmt.Fprintf(&b, "Email: %s\n", html.EscapeString(lead.Email))
	}
	fmt.Fprintf(&b, "Источник: %s, приоритет: %s, оценка: %d", lead.Source, lead.Priority, lead.Score)
	return t.SendMessage(admin.TelegramChatID, b.String())
}

func (t *TelegramService) TasksCreated(_ context.Context, admin *models.Admin, lead *models.Lead, tasks []models.LeadTask) error {
	if !wantsTelegram(admin) || len(tasks) == 0 {
		return nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "📝 <b>Новые задачи по лиду #%d</b> (%s)\n", lead.ID, html.EscapeString(lead.Name))
	for _, task := range tasks {
		due := "—"
		if task.DueDate != nil {
			due = task.DueDate.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(&b, "• %s [до: %s]\n", html.EscapeString(task.Title), due)
	}
	return t.SendMessage(admin.TelegramChatID, b.String())
}
