package telegram

import (
	"context"
	"errors"
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

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message, user *model.User) {
	payload := msg.CommandArguments()
	if strings.HasPrefix(payload, "ref_") {
		referrerTelegramID, err := strconv.ParseInt(strings.TrimPrefix(payload, "ref_"), 10, 64)
		if err == nil {
			if err := b.svc.AttachReferrer(ctx, user, referrerTelegramID); err != nil {
				logger.Logger().Error("failed to attach referrer", zap.Error(err))
			}
		}
	}

	b.send(msg.Chat.ID, "Welcome! Use /checkin, /quiz and /spin to earn points, /status to see your day and /leaderboard to see where you stand.")
}

func (b *Bot) handleCheckin(ctx context.Context, msg *tgbotapi.Message, user *model.User) {
	res, err := b.svc.Checkin(ctx, user.ID, time.Now().UTC())
	if err != nil {
		logger.Logger().Error("checkin failed", zap.Error(err))
		b.send(msg.Chat.ID, "Something went wrong, try again in a bit.")
		return
	}

	if res.Already {
		b.send(msg.Chat.ID, fmt.Sprintf("Already checked in today. Week total: %d points, streak %d.", res.WeekPoints, res.WeekStreak))
		return
	}
	b.send(msg.Chat.ID, fmt.Sprintf("Checked in! +%d points. Week total: %d, streak %d.", res.PointsAwarded, res.WeekPoints, res.WeekStreak))
}

func (b *Bot) handleQuiz(ctx context.Context, msg *tgbotapi.Message, user *model.User) {
	quiz, err := b.svc.GetToday(ctx, time.Now().UTC())
	if err != nil {
		if errors.Is(err, service.ErrNoQuizToday) {
			b.send(msg.Chat.ID, "No quiz today, check back tomorrow.")
			return
		}
		logger.Logger().Error("failed to load quiz", zap.Error(err))
		return
	}

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(quiz.Options))
	for i, opt := range quiz.Options {
		data := fmt.Sprintf("quiz:%s:%d", quiz.ID, i)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(opt, data),
		))
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(rows...)
	b.sendWithMarkup(msg.Chat.ID, "❓ "+quiz.Question, &markup)
}

func (b *Bot) handleSpin(ctx context.Context, msg *tgbotapi.Message, user *model.User) {
	res, err := b.svc.Spin(ctx, user.ID, time.Now().UTC())
	if err != nil {
		logger.Logger().Error("spin failed", zap.Error(err))
		return
	}

	switch {
	case res.Locked:
		names := make([]string, 0, len(res.Missing))
		for _, kind := range res.Missing {
			names = append(names, string(kind))
		}
		b.send(msg.Chat.ID, "The wheel unlocks after you finish today's tasks. Still missing: "+strings.Join(names, ", ")+".")
	case res.Already:
		b.send(msg.Chat.ID, "You already spun today. Come back tomorrow!")
	case res.RewardType == model.SpinRewardCash:
		b.send(msg.Chat.ID, fmt.Sprintf("🎉 Jackpot! You won $%.2f.", float64(res.RewardValue)/100))
	case res.RewardType == model.SpinRewardPoints:
		b.send(msg.Chat.ID, fmt.Sprintf("🎰 You won %d points! Week total: %d.", res.RewardValue, res.WeekPoints))
	default:
		b.send(msg.Chat.ID, "🎰 Nothing this time. Better luck tomorrow!")
	}
}

func (b *Bot) handleLeaderboard(ctx context.Context, msg *tgbotapi.Message, user *model.User) {
	lb, err := b.svc.LeaderboardService.Get(ctx, user.ID, time.Now().UTC())
	if err != nil {
		logger.Logger().Error("failed to build leaderboard", zap.Error(err))
		return
	}

	var sb strings.Builder
	if lb.Window.Kind == model.WindowCampaign {
		sb.WriteString("🏁 Campaign leaderboard\n")
	} else {
		sb.WriteString("📈 This week's leaderboard\n")
	}
	for i, row := range lb.Top {
		u := model.User{Username: row.Username, FirstName: row.FirstName, LastName: row.LastName}
		fmt.Fprintf(&sb, "%d. %s - %d\n", i+1, u.DisplayName(), row.Points)
	}
	if lb.MyRank != nil {
		fmt.Fprintf(&sb, "\nYou: #%d with %d points", *lb.MyRank, lb.MyPoints)
	} else {
		sb.WriteString("\nYou have no points in this window yet.")
	}

	b.send(msg.Chat.ID, sb.String())
}

func (b *Bot) handleStatus(ctx context.Context, msg *tgbotapi.Message, user *model.User) {
	status, err := b.svc.Status(ctx, user.ID, time.Now().UTC())
	if err != nil {
		logger.Logger().Error("failed to build status", zap.Error(err))
		return
	}

	mark := func(kind model.ActionKind) string {
		if status.Done[kind] {
			return "✅"
		}
		return "⬜"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Today (%s):\n", status.DayUTC.Format("Jan 2"))
	fmt.Fprintf(&sb, "%s check-in\n%s quiz\n%s screenshot\n%s poll vote\n%s spin\n",
		mark(model.ActionCheckin), mark(model.ActionQuiz), mark(model.ActionScreenshot),
		mark(model.ActionPollVote), mark(model.ActionSpin))
	if status.SpinsUnlock && !status.Done[model.ActionSpin] {
		sb.WriteString("\n🎰 The wheel is unlocked, /spin away!")
	}
	fmt.Fprintf(&sb, "\nWeek: %d points, streak %d.", status.WeekPoints, status.WeekStreak)

	b.send(msg.Chat.ID, sb.String())
}

func (b *Bot) handleRef(ctx context.Context, msg *tgbotapi.Message, user *model.User) {
	stats, err := b.svc.Stats(ctx, user.ID)
	if err != nil {
		logger.Logger().Error("failed to load referral stats", zap.Error(err))
		return
	}

	link := fmt.Sprintf("https://t.me/%s?start=ref_%d", b.api.Self.UserName, user.TelegramID)
	b.send(msg.Chat.ID, fmt.Sprintf("Your invite link:\n%s\n\nSuccessful invites: %d (%d left before the cap).", link, stats.Total, stats.Remaining))
}

func (b *Bot) handlePhoto(ctx context.Context, msg *tgbotapi.Message, user *model.User) {
	// Largest rendition carries the best file id for review.
	fileID := msg.Photo[len(msg.Photo)-1].FileID

	res, err := b.svc.ScreenshotService.Submit(ctx, user.ID, time.Now().UTC(), fileID)
	if err != nil {
		logger.Logger().Error("failed to submit screenshot", zap.Error(err))
		return
	}

	if !res.Created {
		b.send(msg.Chat.ID, "You already submitted a screenshot today; it is waiting for review.")
		return
	}

	b.send(msg.Chat.ID, "Screenshot received! An admin will review it soon.")
	b.notifyReviewers(res.Submission, user)
}

func (b *Bot) notifyReviewers(sub *model.Submission, user *model.User) {
	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Claim for review", "rv:claim:"+sub.ID.String()),
		),
	)

	for adminID := range b.admins {
		photo := tgbotapi.NewPhoto(adminID, tgbotapi.FileID(sub.ImageFileID))
		photo.Caption = fmt.Sprintf("New screenshot from %s (%s)", user.DisplayName(), sub.DayUTC.Format("2006-01-02"))
		photo.ReplyMarkup = markup
		if _, err := b.api.Send(photo); err != nil {
			logger.Logger().Error("failed to notify reviewer", zap.Int64("admin_id", adminID), zap.Error(err))
		}
	}
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.From == nil {
		return
	}

	user, err := b.svc.EnsureUser(ctx, model.Identity{
		TelegramID: cb.From.ID,
		Username:   cb.From.UserName,
		FirstName:  cb.From.FirstName,
		LastName:   cb.From.LastName,
	})
	if err != nil {
		logger.Logger().Error("failed to ensure user", zap.Error(err))
		return
	}

	parts := strings.Split(cb.Data, ":")
	switch {
	case len(parts) == 3 && parts[0] == "quiz":
		b.handleQuizAnswer(ctx, cb, user, parts[1], parts[2])
	case len(parts) == 3 && parts[0] == "poll":
		b.handlePollVote(ctx, cb, user, parts[1], parts[2])
	case len(parts) == 3 && parts[0] == "rv":
		if b.admins[cb.From.ID] {
			b.handleReviewCallback(ctx, cb, parts[1], parts[2])
		}
	default:
		b.answerCallback(cb.ID, "")
	}
}

func (b *Bot) handleQuizAnswer(ctx context.Context, cb *tgbotapi.CallbackQuery, user *model.User, rawID, rawIndex string) {
	quizID, err := uuid.Parse(rawID)
	if err != nil {
		b.answerCallback(cb.ID, "")
		return
	}
	index, err := strconv.Atoi(rawIndex)
	if err != nil {
		b.answerCallback(cb.ID, "")
		return
	}

	res, err := b.svc.QuizService.Submit(ctx, user.ID, quizID, index, time.Now().UTC())
	if err != nil {
		if errors.Is(err, service.ErrNoQuizToday) {
			b.answerCallback(cb.ID, "That quiz is over.")
			return
		}
		logger.Logger().Error("quiz submit failed", zap.Error(err))
		b.answerCallback(cb.ID, "Something went wrong.")
		return
	}

	switch {
	case res.Already:
		b.answerCallback(cb.ID, "You already answered today's quiz.")
	case res.Correct:
		b.answerCallback(cb.ID, fmt.Sprintf("Correct! +%d points.", res.PointsAwarded))
	default:
		b.answerCallback(cb.ID, "Not quite. See you tomorrow!")
	}
}

func (b *Bot) handlePollVote(ctx context.Context, cb *tgbotapi.CallbackQuery, user *model.User, rawID, rawIndex string) {
	pollID, err := uuid.Parse(rawID)
	if err != nil {
		b.answerCallback(cb.ID, "")
		return
	}
	index, err := strconv.Atoi(rawIndex)
	if err != nil {
		b.answerCallback(cb.ID, "")
		return
	}

	res, err := b.svc.Vote(ctx, pollID, user.ID, index, time.Now().UTC())
	if err != nil {
		if errors.Is(err, service.ErrPollNotFound) {
			b.answerCallback(cb.ID, "That poll is gone.")
			return
		}
		logger.Logger().Error("poll vote failed", zap.Error(err))
		b.answerCallback(cb.ID, "Something went wrong.")
		return
	}

	switch {
	case res.Already:
		b.answerCallback(cb.ID, "You already voted in this poll.")
	case !res.Accepted:
		b.answerCallback(cb.ID, "Voting is closed.")
	case res.PointsAwarded > 0:
		b.answerCallback(cb.ID, fmt.Sprintf("Vote counted! +%d points.", res.PointsAwarded))
	default:
		b.answerCallback(cb.ID, "Vote counted!")
	}
}
