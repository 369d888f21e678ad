package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"communitybot/internal/model"
	"communitybot/internal/service"
	"communitybot/pkg/logger"
	"go.uber.org/zap"

	"github.com/google/uuid"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (b *Bot) handleAdminCommand(ctx context.Context, msg *tgbotapi.Message, user *model.User) {
	switch msg.Command() {
	case "adjust":
		b.handleAdjust(ctx, msg)
	case "queue":
		b.handleQueue(ctx, msg)
	case "newquiz":
		b.handleNewQuiz(ctx, msg)
	case "newpoll":
		b.handleNewPoll(ctx, msg, user)
	case "cancelpoll":
		b.handleCancelPoll(ctx, msg)
	case "winners":
		b.handleWinnersOverride(ctx, msg)
	}
}

// /adjust <telegram_id> <points>
func (b *Bot) handleAdjust(ctx context.Context, msg *tgbotapi.Message) {
	fields := strings.Fields(msg.CommandArguments())
	if len(fields) != 2 {
		b.send(msg.Chat.ID, "Usage: /adjust <telegram_id> <points>")
		return
	}

	telegramID, err1 := strconv.ParseInt(fields[0], 10, 64)
	points, err2 := strconv.Atoi(fields[1])
	if err1 != nil || err2 != nil {
		b.send(msg.Chat.ID, "Usage: /adjust <telegram_id> <points>")
		return
	}

	target, err := b.svc.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		b.send(msg.Chat.ID, "No such user.")
		return
	}

	res, err := b.svc.AdjustPoints(ctx, target.ID, points, time.Now().UTC())
	if err != nil {
		b.send(msg.Chat.ID, "Adjustment failed: "+err.Error())
		return
	}

	b.send(msg.Chat.ID, fmt.Sprintf("Adjusted %s by %+d. New week total: %d.", target.DisplayName(), points, res.NewTotal))
}

func (b *Bot) handleQueue(ctx context.Context, msg *tgbotapi.Message) {
	counts, err := b.svc.QueueCounts(ctx, nil)
	if err != nil {
		logger.Logger().Error("failed to load queue counts", zap.Error(err))
		return
	}

	b.send(msg.Chat.ID, fmt.Sprintf(
		"Review queue:\npending %d\napproved %d\nrejected %d\nexpired %d",
		counts.Pending, counts.Approved, counts.Rejected, counts.Expired))
}

// /newquiz YYYY-MM-DD | question | opt1 | opt2 [| ...] | correct_index | points
func (b *Bot) handleNewQuiz(ctx context.Context, msg *tgbotapi.Message) {
	const usage = "Usage: /newquiz YYYY-MM-DD | question | option1 | option2 [| ...] | correct_index | points"

	parts := splitPipes(msg.CommandArguments())
	if len(parts) < 5 {
		b.send(msg.Chat.ID, usage)
		return
	}

	day, err := time.Parse("2006-01-02", parts[0])
	if err != nil {
		b.send(msg.Chat.ID, usage)
		return
	}

	correctIndex, err1 := strconv.Atoi(parts[len(parts)-2])
	points, err2 := strconv.Atoi(parts[len(parts)-1])
	if err1 != nil || err2 != nil {
		b.send(msg.Chat.ID, usage)
		return
	}

	question := parts[1]
	options := parts[2 : len(parts)-2]

	quiz, err := b.svc.CreateQuiz(ctx, day, question, options, correctIndex, points, 0)
	if err != nil {
		b.send(msg.Chat.ID, "Quiz not created: "+err.Error())
		return
	}

	b.send(msg.Chat.ID, fmt.Sprintf("Quiz scheduled for %s with %d options.", quiz.DayUTC.Format("2006-01-02"), len(quiz.Options)))
}

// /newpoll YYYY-MM-DDTHH:MM | question | opt1 | opt2 [| ...] | points
func (b *Bot) handleNewPoll(ctx context.Context, msg *tgbotapi.Message, admin *model.User) {
	const usage = "Usage: /newpoll YYYY-MM-DDTHH:MM | question | option1 | option2 [| ...] | points"

	parts := splitPipes(msg.CommandArguments())
	if len(parts) < 5 {
		b.send(msg.Chat.ID, usage)
		return
	}

	scheduled, err := time.Parse("2006-01-02T15:04", parts[0])
	if err != nil {
		b.send(msg.Chat.ID, usage)
		return
	}

	points, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil {
		b.send(msg.Chat.ID, usage)
		return
	}

	poll, err := b.svc.Create(ctx, service.CreatePollInput{
		ChatID:           b.communityChatID,
		ScheduledForUTC:  scheduled.UTC(),
		Question:         parts[1],
		Options:          parts[2 : len(parts)-1],
		Points:           points,
		CreatedByAdminID: &admin.ID,
	})
	if err != nil {
		b.send(msg.Chat.ID, "Poll not created: "+err.Error())
		return
	}

	b.send(msg.Chat.ID, fmt.Sprintf("Poll scheduled for %s.", poll.ScheduledForUTC.Format("2006-01-02 15:04")))
}

// /cancelpoll <id> freezes a scheduled or posted poll. No points are paid.
func (b *Bot) handleCancelPoll(ctx context.Context, msg *tgbotapi.Message) {
	pollID, err := uuid.Parse(strings.TrimSpace(msg.CommandArguments()))
	if err != nil {
		b.send(msg.Chat.ID, "Usage: /cancelpoll <poll_id>")
		return
	}

	ok, err := b.svc.Cancel(ctx, pollID)
	if err != nil {
		b.send(msg.Chat.ID, "Cancel failed: "+err.Error())
		return
	}
	if !ok {
		b.send(msg.Chat.ID, "Poll is already closed or canceled.")
		return
	}

	if poll, err := b.svc.GetPoll(ctx, pollID); err == nil && poll.MessageID != nil {
		if err := b.ClosePoll(ctx, poll); err != nil {
			logger.Logger().Error("failed to strip canceled poll message", zap.Error(err))
		}
	}

	b.send(msg.Chat.ID, "Poll canceled.")
}

// /winners [YYYY-MM-DD] resnapshots a period from current standings.
func (b *Bot) handleWinnersOverride(ctx context.Context, msg *tgbotapi.Message) {
	periodStart := model.WeekStart(time.Now().UTC()).AddDate(0, 0, -7)
	if arg := strings.TrimSpace(msg.CommandArguments()); arg != "" {
		parsed, err := time.Parse("2006-01-02", arg)
		if err != nil {
			b.send(msg.Chat.ID, "Usage: /winners [YYYY-MM-DD]")
			return
		}
		periodStart = model.WeekStart(parsed)
	}

	winners, err := b.svc.Override(ctx, periodStart)
	if err != nil {
		logger.Logger().Error("failed to override winners", zap.Error(err))
		return
	}

	if err := b.AnnounceWinners(ctx, periodStart, winners); err != nil {
		logger.Logger().Error("failed to announce winners", zap.Error(err))
	}
}

func (b *Bot) handleReviewCallback(ctx context.Context, cb *tgbotapi.CallbackQuery, action, rawID string) {
	subID, err := uuid.Parse(rawID)
	if err != nil {
		b.answerCallback(cb.ID, "")
		return
	}

	switch action {
	case "claim":
		ok, err := b.svc.Claim(ctx, subID, cb.From.ID)
		if err != nil {
			logger.Logger().Error("claim failed", zap.Error(err))
			b.answerCallback(cb.ID, "Something went wrong.")
			return
		}
		if !ok {
			b.answerCallback(cb.ID, "Another admin holds this one.")
			return
		}
		b.answerCallback(cb.ID, "Claimed. Approve or reject below.")
		b.swapReviewButtons(cb, subID)

	case "ok", "no":
		approve := action == "ok"
		res, err := b.svc.Decide(ctx, subID, cb.From.ID, approve, "")
		if err != nil {
			logger.Logger().Error("decide failed", zap.Error(err))
			b.answerCallback(cb.ID, "Something went wrong.")
			return
		}
		if res.AlreadyDecided {
			b.answerCallback(cb.ID, "Already decided by someone else.")
			return
		}
		if approve {
			b.answerCallback(cb.ID, fmt.Sprintf("Approved, +%d points.", res.PointsAwarded))
			b.notifySubmitter(ctx, subID, true, res.PointsAwarded)
		} else {
			b.answerCallback(cb.ID, "Rejected.")
			b.notifySubmitter(ctx, subID, false, 0)
		}

	default:
		b.answerCallback(cb.ID, "")
	}
}

func (b *Bot) swapReviewButtons(cb *tgbotapi.CallbackQuery, subID uuid.UUID) {
	if cb.Message == nil {
		return
	}

	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Approve", "rv:ok:"+subID.String()),
			tgbotapi.NewInlineKeyboardButtonData("❌ Reject", "rv:no:"+subID.String()),
		),
	)

	edit := tgbotapi.NewEditMessageReplyMarkup(cb.Message.Chat.ID, cb.Message.MessageID, markup)
	if _, err := b.api.Send(edit); err != nil {
		logger.Logger().Error("failed to update review buttons", zap.Error(err))
	}
}

func (b *Bot) notifySubmitter(ctx context.Context, subID uuid.UUID, approved bool, points int) {
	sub, err := b.svc.ScreenshotService.Get(ctx, subID)
	if err != nil {
		return
	}
	user, err := b.svc.GetUserByID(ctx, sub.UserID)
	if err != nil {
		return
	}

	if approved {
		b.send(user.TelegramID, fmt.Sprintf("Your screenshot was approved. +%d points!", points))
	} else {
		b.send(user.TelegramID, "Your screenshot was rejected. You can try again tomorrow.")
	}
}

func splitPipes(s string) []string {
	raw := strings.Split(s, "|")
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
