// internal/bot/bot.go
package bot

import (
	"cashback-optimizer/internal/domain"
	"cashback-optimizer/internal/service"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/text/encoding/charmap"
)

const replyTimeout = 10 * time.Second

// Sender is the part of *tgbotapi.BotAPI the bot needs to answer.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Bot is a chat front end over the service. The Telegram user id is the owner id,
// and the current period comes from the bot's own clock.
type Bot struct {
	svc *service.Service
	now func() time.Time
}

func New(svc *service.Service) *Bot {
	return &Bot{svc: svc, now: time.Now}
}

// Run polls Telegram for updates until ctx is done.
func (b *Bot) Run(ctx context.Context, api *tgbotapi.BotAPI) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := api.GetUpdatesChan(u)
	defer api.StopReceivingUpdates()

	slog.Info("Bot started", "username", api.Self.UserName)
	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.reply(ctx, api, update)
		}
	}
}

// SetWebhook регистрирует url как адрес для входящих обновлений.
func SetWebhook(api *tgbotapi.BotAPI, url string) error {
	wh, err := tgbotapi.NewWebhook(url)
	if err != nil {
		return fmt.Errorf("build webhook: %w", err)
	}
	if _, err := api.Request(wh); err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}
	slog.Info("Telegram webhook установлен", "url", url)
	return nil
}

// Webhook handles updates pushed by Telegram.
func (b *Bot) Webhook(s Sender) gin.HandlerFunc {
	return func(c *gin.Context) {
		var update tgbotapi.Update
		if err := c.ShouldBindJSON(&update); err != nil {
			slog.Error("Ошибка парсинга обновления", "error", err)
			c.Status(http.StatusBadRequest)
			return
		}
		b.reply(c.Request.Context(), s, update)
		c.Status(http.StatusOK)
	}
}

func (b *Bot) reply(ctx context.Context, s Sender, update tgbotapi.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, replyTimeout)
	defer cancel()

	userID := update.Message.From.ID
	text := strings.TrimSpace(fixEncoding(update.Message.Text))
	slog.Info("📥 Получено сообщение", "user_id", userID, "text", text)

	msg := tgbotapi.NewMessage(update.Message.Chat.ID, b.Handle(ctx, userID, text))
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := s.Send(msg); err != nil {
		slog.Error("Не удалось отправить ответ", "error", err, "user_id", userID)
	}
}

// Handle executes one chat command for userID and returns the reply text.
func (b *Bot) Handle(ctx context.Context, userID int64, text string) string {
	cmd, args, _ := strings.Cut(text, " ")
	// "/help@my_bot" в группах
	cmd, _, _ = strings.Cut(cmd, "@")
	args = strings.TrimSpace(args)
	period := currentPeriod(b.now())

	var (
		reply string
		err   error
	)
	switch cmd {
	case "/start", "/help":
		reply = helpText
	case "/banks", "/month":
		reply, err = b.banks(ctx, userID, period)
	case "/categories":
		reply, err = b.categories(ctx, userID, period)
	case "/bank_add":
		reply, err = b.addBank(ctx, userID, args)
	case "/card_add":
		reply, err = b.addCard(ctx, userID, args)
	case "/add":
		reply, err = b.ingest(ctx, userID, args, period)
	case "/best":
		reply, err = b.best(ctx, userID, args, period)
	case "/delete_bank":
		reply, err = b.delete(args, "/delete_bank <id>", "✅ Банк удалён вместе с картами", func(id int64) error {
			return b.svc.DeleteBank(ctx, userID, id)
		})
	case "/delete_card":
		reply, err = b.delete(args, "/delete_card <id>", "✅ Карта удалена", func(id int64) error {
			return b.svc.DeleteCard(ctx, userID, id)
		})
	case "/delete_cat":
		reply, err = b.delete(args, "/delete_cat <id>", "✅ Категория удалена", func(id int64) error {
			return b.svc.DeleteCategory(ctx, userID, id)
		})
	default:
		reply = "Неизвестная команда. Напиши /help"
	}

	if err != nil {
		return errorText(err, userID)
	}
	return reply
}

const helpText = "🏦 *Кэшбэк-оптимизатор*\n\n" +
	"Команды:\n" +
	"`/banks` — банки, карты и кэшбэк за текущий месяц\n" +
	"`/bank_add Сбер` — добавить банк\n" +
	"`/card_add 1 Прайм` — добавить карту в банк с id 1\n" +
	"`/add 3: Аптеки 5, Такси 10` — добавить категории карте с id 3\n" +
	"`/best Аптеки` — какой картой платить\n" +
	"`/categories` — категории текущего месяца\n" +
	"`/delete_bank 1`, `/delete_card 3`, `/delete_cat 7` — удалить"

// usageError is shown to the user as is.
type usageError string

func (e usageError) Error() string { return string(e) }

func errorText(err error, userID int64) string {
	var usage usageError
	switch {
	case errors.As(err, &usage):
		return "❌ " + usage.Error()
	case errors.Is(err, domain.ErrNotFound):
		return "❌ Не найдено"
	}
	if ve, ok := domain.AsValidation(err); ok {
		return "❌ Ошибка: " + escape(ve.Error())
	}
	slog.Error("Bot command failed", "error", err, "user_id", userID)
	return "❌ Сервис временно недоступен, попробуй позже"
}

func currentPeriod(t time.Time) domain.Period {
	return domain.Period{Month: int(t.Month()), Year: t.Year()}
}

func escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}

func fixEncoding(s string) string {
	// Проверим, является ли строка валидной UTF-8
	if utf8.ValidString(s) {
		return s
	}

	// Пробуем перекодировать из windows-1251
	decoder := charmap.Windows1251.NewDecoder()
	fixed, err := decoder.String(s)
	if err == nil && utf8.ValidString(fixed) {
		return fixed
	}

	// Если не получилось — заменяем невалидные символы
	return strings.ToValidUTF8(s, "")
}
