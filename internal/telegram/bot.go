package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	"communitybot/internal/model"
	"communitybot/internal/service"
	"communitybot/pkg/logger"
	"go.uber.org/zap"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Config struct {
	Token           string
	Debug           bool
	AdminIDs        []int64
	CommunityChatID int64
}

// Bot is the telegram transport. It translates updates into service
// calls and renders result values back; no points logic lives here.
type Bot struct {
	api *tgbotapi.BotAPI
	svc *service.Service

	admins          map[int64]bool
	communityChatID int64
}

func New(cfg Config, svc *service.Service) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize bot: %w", err)
	}
	api.Debug = cfg.Debug

	admins := make(map[int64]bool, len(cfg.AdminIDs))
	for _, id := range cfg.AdminIDs {
		admins[id] = true
	}

	return &Bot{
		api:             api,
		svc:             svc,
		admins:          admins,
		communityChatID: cfg.CommunityChatID,
	}, nil
}

// Start consumes the update long-poll until the context is canceled.
func (b *Bot) Start(ctx context.Context) {
	log := logger.Logger()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	u.AllowedUpdates = []string{"message", "callback_query", "chat_member"}

	updates := b.api.GetUpdatesChan(u)
	log.Info("bot started", zap.String("username", b.api.Self.UserName))

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	log := logger.Logger()

	defer func() {
		if r := recover(); r != nil {
			log.Error("panic in update handler", zap.Any("panic", r))
		}
	}()

	switch {
	case update.ChatMember != nil:
		b.handleChatMember(ctx, update.ChatMember)
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.From.IsBot {
		return
	}

	user, err := b.svc.EnsureUser(ctx, model.Identity{
		TelegramID: msg.From.ID,
		Username:   msg.From.UserName,
		FirstName:  msg.From.FirstName,
		LastName:   msg.From.LastName,
	})
	if err != nil {
		logger.Logger().Error("failed to ensure user", zap.Error(err))
		return
	}

	if len(msg.Photo) > 0 {
		b.handlePhoto(ctx, msg, user)
		return
	}

	if !msg.IsCommand() {
		return
	}

	switch msg.Command() {
	case "start":
		b.handleStart(ctx, msg, user)
	case "checkin":
		b.handleCheckin(ctx, msg, user)
	case "quiz":
		b.handleQuiz(ctx, msg, user)
	case "spin":
		b.handleSpin(ctx, msg, user)
	case "leaderboard":
		b.handleLeaderboard(ctx, msg, user)
	case "status":
		b.handleStatus(ctx, msg, user)
	case "ref":
		b.handleRef(ctx, msg, user)
	case "adjust", "queue", "newquiz", "newpoll", "cancelpoll", "winners":
		if b.admins[msg.From.ID] {
			b.handleAdminCommand(ctx, msg, user)
		}
	}
}

func (b *Bot) handleChatMember(ctx context.Context, upd *tgbotapi.ChatMemberUpdated) {
	if upd.Chat.ID != b.communityChatID {
		return
	}
	if upd.NewChatMember.Status != "member" {
		return
	}

	outcome, err := b.svc.ProcessJoin(ctx, upd.NewChatMember.User.ID, time.Now().UTC())
	if err != nil {
		logger.Logger().Error("failed to process community join", zap.Error(err))
		return
	}

	if outcome.Awarded {
		b.send(outcome.ReferrerTelegramID, "Your invite just joined the community. +1 point!")
	}
}

func (b *Bot) send(chatID int64, text string) {
	b.sendWithMarkup(chatID, text, nil)
}

func (b *Bot) sendWithMarkup(chatID int64, text string, markup *tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	if _, err := b.api.Send(msg); err != nil {
		logger.Logger().Error("failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (b *Bot) answerCallback(id, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(id, text)); err != nil {
		logger.Logger().Error("failed to answer callback", zap.Error(err))
	}
}

// PostPoll publishes a due poll into the community chat with one button
// per option and reports the posted message id back. Called by the
// scheduler.
func (b *Bot) PostPoll(ctx context.Context, poll *model.Poll) (int, error) {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(poll.Options))
	for i, opt := range poll.Options {
		data := fmt.Sprintf("poll:%s:%d", poll.ID, i)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(opt, data),
		))
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(rows...)

	msg := tgbotapi.NewMessage(poll.ChatID, "📊 "+poll.Question)
	msg.ReplyMarkup = markup

	sent, err := b.api.Send(msg)
	if err != nil {
		return 0, fmt.Errorf("failed to post poll: %w", err)
	}
	return sent.MessageID, nil
}

// ClosePoll strips the vote buttons from a closed poll's message.
func (b *Bot) ClosePoll(ctx context.Context, poll *model.Poll) error {
	if poll.MessageID == nil {
		return nil
	}

	edit := tgbotapi.NewEditMessageText(poll.ChatID, *poll.MessageID, "📊 "+poll.Question+"\n\nVoting is closed.")
	if _, err := b.api.Send(edit); err != nil {
		return fmt.Errorf("failed to close poll message: %w", err)
	}
	return nil
}

// AnnounceWinners posts the frozen top-3 of a finished week.
func (b *Bot) AnnounceWinners(ctx context.Context, periodStart time.Time, winners []model.WinnerRow) error {
	if len(winners) == 0 {
		return nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🏆 Winners for the week of %s:\n", periodStart.Format("Jan 2"))
	medals := []string{"🥇", "🥈", "🥉"}
	for _, w := range winners {
		medal := "🏅"
		if w.Rank-1 < len(medals) {
			medal = medals[w.Rank-1]
		}
		u := model.User{Username: w.Username, FirstName: w.FirstName, LastName: w.LastName}
		fmt.Fprintf(&sb, "%s %s - %d points\n", medal, u.DisplayName(), w.Points)
	}

	if _, err := b.api.Send(tgbotapi.NewMessage(b.communityChatID, sb.String())); err != nil {
		return fmt.Errorf("failed to announce winners: %w", err)
	}
	return nil
}
