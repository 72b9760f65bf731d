package bot

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/evyataryagoni/ipgeobot/internal/format"
	"github.com/evyataryagoni/ipgeobot/internal/logger"
	"github.com/evyataryagoni/ipgeobot/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	telegramMaxMsgLen     = 4000
	telegramPollTimeout   = 30
	telegramParseModeName = tgbotapi.ModeMarkdown
)

// BotAPI is the part of *tgbotapi.BotAPI the transport uses
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Handler processes one incoming message (see Router)
type Handler interface {
	Handle(ctx context.Context, msg models.IncomingMessage, resp Responder)
}

// TelegramConfig configures the transport. The token is only used by NewBotAPI.
type TelegramConfig struct {
	AllowFrom   []int64 // allowed user IDs, empty = everyone
	BotUserName string  // commands addressed to another @bot are ignored
}

// Telegram polls for updates and hands each message to the handler
// in its own goroutine. Messages from different chats are handled concurrently.
type Telegram struct {
	api       BotAPI
	handler   Handler
	allowFrom map[int64]struct{}
	botName   string
	logger    *logger.Logger

	inflight sync.WaitGroup
}

// NewBotAPI authenticates against Telegram with the access token
func NewBotAPI(token string, debug bool) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}
	api.Debug = debug
	return api, nil
}

// NewTelegram creates the transport
func NewTelegram(api BotAPI, handler Handler, cfg TelegramConfig, log *logger.Logger) *Telegram {
	if log == nil {
		log = logger.NewDefault()
	}
	allowed := make(map[int64]struct{}, len(cfg.AllowFrom))
	for _, id := range cfg.AllowFrom {
		allowed[id] = struct{}{}
	}
	return &Telegram{
		api:       api,
		handler:   handler,
		allowFrom: allowed,
		botName:   cfg.BotUserName,
		logger:    log.WithComponent("Telegram"),
	}
}

// Run polls until ctx is cancelled, then waits for in-flight messages.
// Handlers run on a context detached from ctx so shutdown does not cut a
// lookup short; each outbound call still has its own timeout.
func (t *Telegram) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = telegramPollTimeout
	updates := t.api.GetUpdatesChan(u)

	handlerCtx := context.WithoutCancel(ctx)
	t.logger.Info().Msg("Telegram polling started")

	for {
		select {
		case <-ctx.Done():
			t.logger.Info().Msg("Telegram polling stopping")
			t.api.StopReceivingUpdates()
			t.inflight.Wait()
			return nil
		case update, ok := <-updates:
			if !ok {
				t.inflight.Wait()
				return nil
			}
			t.dispatch(handlerCtx, update)
		}
	}
}

func (t *Telegram) dispatch(ctx context.Context, update tgbotapi.Update) {
	msg, ok := ToIncoming(update, t.botName)
	if !ok {
		return
	}

	resp := &chatResponder{telegram: t, chatID: msg.ChatID}
	allowed := t.isAllowed(msg.SenderID)

	t.inflight.Add(1)
	go func() {
		defer t.inflight.Done()
		if !allowed {
			t.reject(ctx, msg, resp)
			return
		}
		t.handler.Handle(ctx, msg, resp)
	}()
}

func (t *Telegram) reject(ctx context.Context, msg models.IncomingMessage, resp Responder) {
	t.logger.Warn().
		Int64("user_id", msg.SenderID).
		Int64("chat_id", msg.ChatID).
		Msg("Unauthorized telegram user")
	if err := resp.Respond(ctx, models.OutgoingMessage{Text: format.UnauthorizedText}); err != nil {
		t.logger.Error().Err(err).Msg("Failed to reject unauthorized user")
	}
}

func (t *Telegram) isAllowed(userID int64) bool {
	if len(t.allowFrom) == 0 {
		return true
	}
	_, ok := t.allowFrom[userID]
	return ok
}

// ToIncoming converts a Telegram update into an IncomingMessage.
// Updates without text (stickers, edits, callbacks) are skipped, and so are
// commands like /ip@otherbot when botName is set and does not match.
func ToIncoming(update tgbotapi.Update, botName string) (models.IncomingMessage, bool) {
	m := update.Message
	if m == nil || m.Chat == nil {
		return models.IncomingMessage{}, false
	}

	text := strings.TrimSpace(m.Text)
	if text == "" {
		return models.IncomingMessage{}, false
	}

	msg := models.IncomingMessage{
		ChatID:  m.Chat.ID,
		Kind:    models.KindText,
		RawText: text,
	}
	if m.From != nil {
		msg.SenderID = m.From.ID
	}

	if m.IsCommand() {
		if !addressedTo(m.CommandWithAt(), botName) {
			return models.IncomingMessage{}, false
		}
		msg.Kind = models.KindCommand
		msg.CommandName = strings.ToLower(m.Command())
		msg.Args = strings.Fields(m.CommandArguments())
	}

	return msg, true
}

// addressedTo reports whether a command without @name, or with this bot's name, is for us
func addressedTo(commandWithAt, botName string) bool {
	at := strings.Index(commandWithAt, "@")
	if at == -1 || botName == "" {
		return true
	}
	return strings.EqualFold(commandWithAt[at+1:], botName)
}

// chatResponder sends replies to one chat
type chatResponder struct {
	telegram *Telegram
	chatID   int64
}

// Respond splits long texts and sends each chunk
func (r *chatResponder) Respond(_ context.Context, msg models.OutgoingMessage) error {
	for _, chunk := range splitText(msg.Text, telegramMaxMsgLen) {
		if err := r.telegram.sendChunk(r.chatID, chunk, msg.Markdown); err != nil {
			return err
		}
	}
	return nil
}

// sendChunk sends with Markdown when asked and falls back to plain text
// if Telegram cannot parse the entities (addresses or details with "_").
func (t *Telegram) sendChunk(chatID int64, text string, markdown bool) error {
	out := tgbotapi.NewMessage(chatID, text)
	if markdown {
		out.ParseMode = telegramParseModeName
	}

	_, err := t.api.Send(out)
	if err == nil {
		return nil
	}

	if markdown && strings.Contains(err.Error(), "can't parse entities") {
		t.logger.Warn().Err(err).Int64("chat_id", chatID).Msg("Telegram markdown parse error, retrying as plain text")
		plain := tgbotapi.NewMessage(chatID, text)
		if _, err := t.api.Send(plain); err != nil {
			return fmt.Errorf("telegram send: %w", err)
		}
		return nil
	}

	return fmt.Errorf("telegram send: %w", err)
}

// splitText cuts text into chunks of at most maxLen bytes, preferring newlines
func splitText(text string, maxLen int) []string {
	var chunks []string
	for len(text) > maxLen {
		cutAt := strings.LastIndex(text[:maxLen], "\n")
		if cutAt < maxLen/2 {
			cutAt = maxLen
			for cutAt > 0 && !utf8.RuneStart(text[cutAt]) {
				cutAt--
			}
		}
		chunks = append(chunks, text[:cutAt])
		text = text[cutAt:]
	}
	return append(chunks, text)
}
