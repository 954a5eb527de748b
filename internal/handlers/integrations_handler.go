package handlers

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"autodealer/internal/models"
	"autodealer/internal/repositories"
	"autodealer/internal/utils"
)

const (
	btnMyTasks   = "📋 Мои задачи"
	linkCodeTTL  = 30 * time.Minute
	digestLimit  = 10
	noDueSortKey = 1_000_000
)

// TelegramClient is what the webhook needs from services.TelegramService.
type TelegramClient interface {
	SendMessage(chatID int64, text string) error
	SendReplyKeyboard(chatID int64, text string, keyboard [][]string) error
}

type telegramAdmins interface {
	GetByChatID(ctx context.Context, chatID int64) (*models.Admin, error)
	UpdateTelegramLink(ctx context.Context, adminID, chatID int64, enable bool) error
	GetTelegramSettings(ctx context.Context, adminID int64) (int64, bool, error)
}

type taskFinder interface {
	FindAll(ctx context.Context, filter models.TaskFilter) ([]models.LeadTask, error)
}

type IntegrationsHandler struct {
	TG     TelegramClient
	Links  repositories.TelegramLinkRepository
	Admins telegramAdmins
	Tasks  taskFinder
	now    func() time.Time
}

// NewIntegrationsHandler wires the bot webhook. tg may be nil when no bot
// token is configured; the webhook then acknowledges and ignores updates.
func NewIntegrationsHandler(tg TelegramClient, links repositories.TelegramLinkRepository, admins telegramAdmins, tasks taskFinder) *IntegrationsHandler {
	return &IntegrationsHandler{TG: tg, Links: links, Admins: admins, Tasks: tasks, now: time.Now}
}

func normalizeLinkCode(s string) (string, bool) {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "\"'`“”«»<>.,;:()[]{}\\")
	s = strings.ToUpper(strings.TrimSpace(s))

	var b strings.Builder
	for _, r := range s {
		if unicode.Is(unicode.Hex_Digit, r) {
			b.WriteRune(r)
		}
	}
	code := b.String()
	if len(code) != 32 {
		return "", false
	}
	return code, true
}

// POST /integrations/telegram/webhook
//
// Telegram retries on anything but 200, so every branch answers 200.
func (h *IntegrationsHandler) Webhook(c *gin.Context) {
	if h.TG == nil {
		logrus.Debug("[tg][webhook] bot disabled, update ignored")
		c.Status(http.StatusOK)
		return
	}

	var up tgbotapi.Update
	if err := c.ShouldBindJSON(&up); err != nil {
		logrus.WithError(err).Warn("[tg][webhook] bad update")
		c.Status(http.StatusOK)
		return
	}
	if up.Message == nil || up.Message.Chat == nil {
		c.Status(http.StatusOK)
		return
	}

	ctx := c.Request.Context()
	chatID := up.Message.Chat.ID
	text := strings.TrimSpace(up.Message.Text)
	log := logrus.WithField("chat_id", chatID)

	switch {
	case strings.HasPrefix(text, "/start"):
		log.Info("[tg][webhook] /start")
		h.reply(chatID, h.TG.SendReplyKeyboard(chatID,
			"Здравствуйте! Чтобы получать уведомления о лидах, отправьте:\n<code>/link &lt;код&gt;</code>\nКод выдаётся в личном кабинете.",
			[][]string{{btnMyTasks}},
		))

	case strings.HasPrefix(text, "/link"):
		h.link(ctx, log, chatID, strings.TrimSpace(strings.TrimPrefix(text, "/link")))

	case text == btnMyTasks || strings.HasPrefix(text, "/tasks"):
		h.sendMyTasksDigest(ctx, chatID)

	default:
		h.reply(chatID, h.TG.SendMessage(chatID, "Не понял команду. Используйте <code>/link &lt;код&gt;</code> или кнопку меню."))
	}

	c.Status(http.StatusOK)
}

func (h *IntegrationsHandler) link(ctx context.Context, log *logrus.Entry, chatID int64, raw string) {
	code, ok := normalizeLinkCode(raw)
	if !ok {
		log.WithField("raw", raw).Info("[tg][link] malformed code")
		h.reply(chatID, h.TG.SendMessage(chatID, "Неверный формат кода. Отправьте ровно 32 HEX-символа:\n<code>/link 0123456789ABCDEF0123456789ABCDEF</code>"))
		return
	}

	link, err := h.Links.UseByCode(ctx, code)
	if err != nil {
		log.WithError(err).Info("[tg][link] code rejected")
		h.reply(chatID, h.TG.SendMessage(chatID, "Код недействителен или истёк. Сгенерируйте новый в личном кабинете."))
		return
	}
	if err := h.Admins.UpdateTelegramLink(ctx, link.AdminID, chatID, true); err != nil {
		log.WithField("admin_id", link.AdminID).WithError(err).Error("[tg][link] update admin failed")
		h.reply(chatID, h.TG.SendMessage(chatID, "Не удалось привязать аккаунт, попробуйте позже."))
		return
	}

	log.WithField("admin_id", link.AdminID).Info("[tg][link] chat linked")
	h.reply(chatID, h.TG.SendMessage(chatID, "Готово! Аккаунт привязан. Новые лиды и задачи будут приходить сюда."))
	h.sendMyTasksDigest(ctx, chatID)
}

func (h *IntegrationsHandler) reply(chatID int64, err error) {
	if err != nil {
		logrus.WithField("chat_id", chatID).WithError(err).Warn("[tg][webhook] reply failed")
	}
}

// daysLeft buckets a due date relative to now. Tasks without a due date
// sort last.
func daysLeft(now time.Time, due *time.Time) (bucket string, sortKey int) {
	if due == nil {
		return "Без срока", noDueSortKey
	}
	days := int(due.Sub(now).Hours() / 24)
	if due.Before(now) && days == 0 {
		days = -1
	}
	switch {
	case days < 0:
		bucket = fmt.Sprintf("Просрочено (%d дн.)", -days)
	case days == 0:
		bucket = "Сегодня"
	case days == 1:
		bucket = "Через 1 день"
	default:
		bucket = fmt.Sprintf("Через %d дн.", days)
	}
	return bucket, days
}

// buildTasksDigest groups open tasks by due bucket, soonest first, and
// lists at most digestLimit of them.
func buildTasksDigest(now time.Time, tasks []models.LeadTask) string {
	var open []models.LeadTask
	for _, t := range tasks {
		if !t.Completed {
			open = append(open, t)
		}
	}
	if len(open) == 0 {
		return ""
	}

	sort.SliceStable(open, func(i, j int) bool {
		di, dj := open[i].DueDate, open[j].DueDate
		switch {
		case di == nil && dj == nil:
			return open[i].ID < open[j].ID
		case di == nil:
			return false
		case dj == nil:
			return true
		default:
			return di.Before(*dj)
		}
	})
	shown := open
	if len(shown) > digestLimit {
		shown = shown[:digestLimit]
	}

	var b strings.Builder
	b.WriteString("📋 <b>Мои задачи по срокам</b>\n")
	lastBucket := ""
	for _, t := range shown {
		bucket, _ := daysLeft(now, t.DueDate)
		if bucket != lastBucket {
			b.WriteString("\n— <b>" + html.EscapeString(bucket) + "</b>\n")
			lastBucket = bucket
		}
		line := "• " + html.EscapeString(t.Title) + " (лид #" + strconv.FormatInt(t.LeadID, 10) + ")"
		if t.DueDate != nil {
			line += " [до " + t.DueDate.Format("02.01 15:04") + "]"
		}
		b.WriteString(line + "\n")
	}
	if rest := len(open) - len(shown); rest > 0 {
		b.WriteString(fmt.Sprintf("\n…и ещё %d.\n", rest))
	}
	return b.String()
}

func (h *IntegrationsHandler) sendMyTasksDigest(ctx context.Context, chatID int64) {
	admin, err := h.Admins.GetByChatID(ctx, chatID)
	if err != nil || admin == nil {
		h.reply(chatID, h.TG.SendMessage(chatID, "Этот чат не привязан к аккаунту. Используйте /link."))
		return
	}

	open := false
	tasks, err := h.Tasks.FindAll(ctx, models.TaskFilter{AdminID: &admin.ID, Completed: &open})
	if err != nil {
		logrus.WithField("admin_id", admin.ID).WithError(err).Error("[tg][tasks] fetch failed")
		h.reply(chatID, h.TG.SendMessage(chatID, "Не удалось загрузить задачи."))
		return
	}

	text := buildTasksDigest(h.now(), tasks)
	if text == "" {
		text = "У вас нет открытых задач. 👍"
	}
	h.reply(chatID, h.TG.SendReplyKeyboard(chatID, text, [][]string{{btnMyTasks}}))
}

// POST /me/telegram/link
func (h *IntegrationsHandler) RequestTelegramLink(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	if actor.AdminID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	code, err := utils.NewLinkCode(16)
	if err != nil {
		respondError(c, "tg.link_code", err)
		return
	}
	link, err := h.Links.Create(c.Request.Context(), actor.AdminID, code, linkCodeTTL)
	if err != nil {
		respondError(c, "tg.link_create", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":       link.Code,
		"expires_at": link.ExpiresAt,
		"hint":       "Откройте чат с ботом и отправьте: /link " + link.Code,
	})
}

// GET /me/telegram
func (h *IntegrationsHandler) TelegramSettings(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	chatID, notify, err := h.Admins.GetTelegramSettings(c.Request.Context(), actor.AdminID)
	if err != nil {
		respondError(c, "tg.settings", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"linked": chatID != 0, "notify": notify})
}

// DELETE /me/telegram
func (h *IntegrationsHandler) UnlinkTelegram(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	if err := h.Admins.UpdateTelegramLink(c.Request.Context(), actor.AdminID, 0, false); err != nil {
		respondError(c, "tg.unlink", err)
		return
	}
	c.Status(http.StatusNoContent)
}
