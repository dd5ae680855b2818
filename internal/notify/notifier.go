package notify

import (
	"context"
	"fmt"
	"sync"

	"swap_engine/internal/modules/config"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

type Notifier interface {
	Send(msg string)
	Sendf(format string, args ...any)
}

// Commands — ответы на команды оператора.
type Commands interface {
	PositionsReport() string
	StatusReport() string
}

// New: Telegram, если заданы токен и чат, иначе только лог.
func New(cfg *config.Config, log *zap.Logger) Notifier {
	if cfg.Telegram.Token == "" || cfg.Telegram.ChatID == 0 {
		return NewLog(log)
	}
	tg, err := NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID, log)
	if err != nil {
		log.Warn("[NOTIFY] telegram unavailable, falling back to log", zap.Error(err))
		return NewLog(log)
	}
	return tg
}

// Telegram — пассивный нотифайер + команды /positions и /status.
type Telegram struct {
	bot    *tgbot.BotAPI
	chatID int64
	log    *zap.Logger

	mu       sync.Mutex
	commands Commands
}

func NewTelegram(token string, chatID int64, log *zap.Logger) (*Telegram, error) {
	b, err := tgbot.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &Telegram{
		bot:    b,
		chatID: chatID,
		log:    log.Named("telegram"),
	}, nil
}

func (t *Telegram) Send(msg string) {
	if t == nil || t.bot == nil || t.chatID == 0 {
		return
	}
	if _, err := t.bot.Send(tgbot.NewMessage(t.chatID, msg)); err != nil {
		t.log.Warn("[NOTIFY] send failed", zap.Error(err))
	}
}

func (t *Telegram) Sendf(format string, args ...any) { t.Send(fmt.Sprintf(format, args...)) }

func (t *Telegram) handle(cmd string) {
	t.mu.Lock()
	c := t.commands
	t.mu.Unlock()
	if c == nil {
		return
	}
	switch cmd {
	case "positions":
		t.Send(c.PositionsReport())
	case "status":
		t.Send(c.StatusReport())
	}
}

// Start: long-polling команд из чата оператора.
func (t *Telegram) Start(ctx context.Context, c Commands) {
	if t == nil || t.bot == nil {
		return
	}
	t.mu.Lock()
	t.commands = c
	t.mu.Unlock()

	u := tgbot.NewUpdate(0)
	u.Timeout = 30
	u.AllowedUpdates = []string{"message"}

	updates := t.bot.GetUpdatesChan(u)
	go func() {
		for {
			select {
			case <-ctx.Done():
				t.bot.StopReceivingUpdates()
				return
			case upd := <-updates:
				if upd.Message != nil && upd.Message.Chat != nil &&
					upd.Message.Chat.ID == t.chatID && upd.Message.IsCommand() {
					t.handle(upd.Message.Command())
				}
			}
		}
	}()
}

// Log — заглушка без Telegram, всё уходит в zap.
type Log struct {
	log *zap.Logger
}

func NewLog(log *zap.Logger) *Log               { return &Log{log: log.Named("notify")} }
func (l *Log) Send(msg string)                  { l.log.Info("[NOTIFY] " + msg) }
func (l *Log) Sendf(format string, args ...any) { l.Send(fmt.Sprintf(format, args...)) }
