package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"yourday/internal/model"
	"yourday/internal/repository"
	"yourday/internal/service"
)

type conversationStage int

const (
	stageNone conversationStage = iota
	stageTitle
	stageStart
	stageEnd
	stageCategory
)

const (
	cbDeletePrefix = "delete:"

	btnSkip         = "⏭️ Skip"
	btnConfirm      = "✅ Confirm"
	btnCancel       = "↩️ Cancel"
	btnCancelDialog = "⏪ Stop"
)

type conversationState struct {
	stage conversationStage
	draft model.TaskDraft
	start time.Time
}

// Bot is a chat front end over the task service. It only answers messages.
type Bot struct {
	api           *tgbotapi.BotAPI
	userRepo      *repository.UserRepository
	taskSvc       *service.TaskService
	categorySvc   *service.CategoryService
	reminderSvc   *service.ReminderService
	loc           *time.Location
	window        time.Duration
	timeout       time.Duration
	log           zerolog.Logger
	conversations map[int64]*conversationState
	confirmations map[int64]string
	mu            sync.Mutex
}

func New(token string, userRepo *repository.UserRepository, taskSvc *service.TaskService, categorySvc *service.CategoryService, reminderSvc *service.ReminderService, window, requestTimeout time.Duration, log zerolog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log = log.With().Str("component", "bot").Logger()
	log.Info().Str("account", api.Self.UserName).Msg("bot authorized")

	return &Bot{
		api:           api,
		userRepo:      userRepo,
		taskSvc:       taskSvc,
		categorySvc:   categorySvc,
		reminderSvc:   reminderSvc,
		loc:           time.Local,
		window:        window,
		timeout:       requestTimeout,
		log:           log,
		conversations: make(map[int64]*conversationState),
		confirmations: make(map[int64]string),
	}, nil
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	b.log.Info().Msg("start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		b.handleUpdate(ctx, update)
	}

	return nil
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	ctx, cancel := b.callContext(ctx)
	defer cancel()

	switch {
	case update.CallbackQuery != nil:
		if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
			b.log.Error().Err(err).Msg("handle callback")
		}
	case update.Message != nil:
		if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
			return
		}
		if err := b.handleMessage(ctx, update.Message); err != nil {
			b.log.Error().Err(err).Msg("handle message")
		}
	}
}

// callContext bounds the work done for one update.
func (b *Bot) callContext(parent context.Context) (context.Context, context.CancelFunc) {
	if b.timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, b.timeout)
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}

	if !msg.IsCommand() && strings.TrimSpace(msg.Text) == btnCancelDialog {
		b.clearConversation(msg.From.ID)
		b.clearConfirmation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Task creation cancelled.")
	}

	if msg.IsCommand() {
		b.log.Debug().Int64("from", msg.From.ID).Str("command", msg.Command()).Msg("command")
		return b.handleCommand(ctx, msg)
	}

	if taskID, ok := b.getConfirmation(msg.From.ID); ok {
		return b.handleConfirmationResponse(ctx, msg, taskID)
	}

	if b.hasConversation(msg.From.ID) {
		return b.handleConversation(ctx, msg)
	}

	return b.sendText(msg.Chat.ID, "I did not get that. Send /newtask to plan something or /help for the command list.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start", "help":
		return b.sendText(msg.Chat.ID, helpText)
	case "newtask":
		b.setConversation(msg.From.ID, &conversationState{stage: stageTitle})
		return b.sendWithReplyMarkup(msg.Chat.ID, "🆕 New task.\n<b>Step 1:</b> what should it be called?", cancelKeyboard())
	case "today":
		return b.handleToday(ctx, msg)
	case "tasks":
		return b.handleListTasks(ctx, msg)
	case "delete":
		return b.handleDelete(ctx, msg)
	case "categories":
		return b.handleCategories(ctx, msg)
	case "cancel":
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Task creation cancelled.")
	default:
		return b.sendText(msg.Chat.ID, "Unknown command. See /help.")
	}
}

func (b *Bot) handleConversation(ctx context.Context, msg *tgbotapi.Message) error {
	state := b.getConversation(msg.From.ID)
	if state == nil {
		return nil
	}

	text := strings.TrimSpace(msg.Text)
	switch state.stage {
	case stageTitle:
		if _, err := model.ValidateTitle(text); err != nil {
			return b.sendText(msg.Chat.ID, "The title must be 1 to 255 characters.")
		}
		state.draft.Title = text
		state.stage = stageStart
		return b.sendWithReplyMarkup(msg.Chat.ID, "🕘 When does it start? Use <code>2025-11-30 09:00</code> or <code>09:00</code> for today.", cancelKeyboard())
	case stageStart:
		start, err := parseLocalTime(text, time.Now().In(b.loc), b.loc)
		if err != nil {
			return b.sendText(msg.Chat.ID, "Cannot read that time. Use <code>2025-11-30 09:00</code> or <code>09:00</code>.")
		}
		state.start = start
		state.draft.StartTime = start.Format(time.RFC3339)
		state.stage = stageEnd
		return b.sendWithReplyMarkup(msg.Chat.ID, "🕙 When does it end? <code>10:30</code> means the same day.", cancelKeyboard())
	case stageEnd:
		end, err := parseLocalTime(text, state.start, b.loc)
		if err != nil {
			return b.sendText(msg.Chat.ID, "Cannot read that time. Use <code>2025-11-30 10:30</code> or <code>10:30</code>.")
		}
		if !end.After(state.start) {
			return b.sendText(msg.Chat.ID, "The end must be after the start.")
		}
		state.draft.EndTime = end.Format(time.RFC3339)
		state.stage = stageCategory
		return b.sendWithReplyMarkup(msg.Chat.ID, "🏷 Pick a category (or skip for “Other”).", categoryKeyboard())
	case stageCategory:
		if text != btnSkip {
			category, ok := categoryFromLabel(text)
			if !ok {
				return b.sendWithReplyMarkup(msg.Chat.ID, "Pick one of the buttons.", categoryKeyboard())
			}
			state.draft.Category = string(category)
		}
		err := b.finishTaskCreation(ctx, msg.From, state.draft, msg.Chat.ID)
		b.clearConversation(msg.From.ID)
		return err
	default:
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "Conversation reset. Try /newtask again.")
	}
}

func (b *Bot) finishTaskCreation(ctx context.Context, from *tgbotapi.User, draft model.TaskDraft, chatID int64) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}

	task, err := b.taskSvc.CreateTask(ctx, user.OwnerID, draft)
	if err != nil {
		return b.sendText(chatID, describeError(err, b.loc))
	}

	var summary strings.Builder
	summary.WriteString("✅ <b>Task saved</b>\n")
	summary.WriteString(service.FormatTaskLine(*task, b.loc))
	return b.sendText(chatID, strings.TrimSpace(summary.String()))
}

func (b *Bot) handleToday(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	text, err := b.reminderSvc.Agenda(ctx, user.OwnerID, time.Now(), b.window, b.loc)
	if err != nil {
		return b.sendText(msg.Chat.ID, describeError(err, b.loc))
	}
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleListTasks(ctx context.Context, msg *tgbotapi.Message) error {
	day, err := parseDay(msg.CommandArguments(), time.Now().In(b.loc), b.loc)
	if err != nil {
		return b.sendText(msg.Chat.ID, "Use /tasks or /tasks 2025-11-30.")
	}
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	return b.sendTaskList(ctx, msg.Chat.ID, user, day)
}

func (b *Bot) sendTaskList(ctx context.Context, chatID int64, user *model.User, day time.Time) error {
	from := day
	to := day.AddDate(0, 0, 1).Add(-time.Nanosecond)
	tasks, err := b.taskSvc.ListTasks(ctx, user.OwnerID, repository.TaskFilter{From: &from, To: &to})
	if err != nil {
		return b.sendText(chatID, describeError(err, b.loc))
	}
	if len(tasks) == 0 {
		return b.sendText(chatID, fmt.Sprintf("Nothing planned on %s. Add something with /newtask.", day.Format("2006-01-02")))
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("📋 <b>%s</b>\n\n", day.Format("Monday, 2006-01-02")))
	var buttons [][]tgbotapi.InlineKeyboardButton
	for _, task := range tasks {
		builder.WriteString(service.FormatTaskLine(task, b.loc))
		label := fmt.Sprintf("🗑 %s %s", task.StartTime.In(b.loc).Format("15:04"), shortTitle(task.Title, 24))
		buttons = append(buttons, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, cbDeletePrefix+task.ID),
		))
	}

	msg := tgbotapi.NewMessage(chatID, strings.TrimSpace(builder.String()))
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(buttons...)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err = b.api.Send(msg)
	return err
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil {
		return nil
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.log.Warn().Err(err).Msg("callback ack")
	}

	if !strings.HasPrefix(cb.Data, cbDeletePrefix) {
		return nil
	}
	return b.askDeleteConfirmation(ctx, cb.Message.Chat.ID, cb.From, strings.TrimPrefix(cb.Data, cbDeletePrefix))
}

func (b *Bot) handleDelete(ctx context.Context, msg *tgbotapi.Message) error {
	taskID := strings.TrimSpace(msg.CommandArguments())
	if taskID == "" {
		return b.sendText(msg.Chat.ID, "Give the task id: /delete &lt;id&gt;, or use the buttons under /tasks.")
	}
	return b.askDeleteConfirmation(ctx, msg.Chat.ID, msg.From, taskID)
}

func (b *Bot) askDeleteConfirmation(ctx context.Context, chatID int64, from *tgbotapi.User, taskID string) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}
	task, err := b.taskSvc.GetTask(ctx, user.OwnerID, taskID)
	if err != nil {
		return b.sendText(chatID, describeError(err, b.loc))
	}
	b.setConfirmation(from.ID, task.ID)
	return b.sendWithReplyMarkup(chatID,
		fmt.Sprintf("Delete «%s»?", html.EscapeString(task.Title)), confirmKeyboard())
}

func (b *Bot) handleConfirmationResponse(ctx context.Context, msg *tgbotapi.Message, taskID string) error {
	switch strings.TrimSpace(msg.Text) {
	case btnConfirm:
		b.clearConfirmation(msg.From.ID)
		user, err := b.ensureUser(ctx, msg.From)
		if err != nil {
			return err
		}
		if err := b.taskSvc.DeleteTask(ctx, user.OwnerID, taskID); err != nil {
			return b.sendText(msg.Chat.ID, describeError(err, b.loc))
		}
		return b.sendText(msg.Chat.ID, "🗑 Task deleted.")
	case btnCancel:
		b.clearConfirmation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "Kept it.")
	default:
		return b.sendWithReplyMarkup(msg.Chat.ID, "Confirm or cancel the deletion.", confirmKeyboard())
	}
}

func (b *Bot) handleCategories(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	summary, err := b.categorySvc.Summary(ctx, user.OwnerID)
	if err != nil {
		return b.sendText(msg.Chat.ID, describeError(err, b.loc))
	}
	var builder strings.Builder
	builder.WriteString("📂 <b>Categories</b>\n")
	for _, row := range summary {
		builder.WriteString(fmt.Sprintf("• %s: %d\n", html.EscapeString(row.Label), row.Count))
	}
	return b.sendText(msg.Chat.ID, strings.TrimSpace(builder.String()))
}

func (b *Bot) ensureUser(ctx context.Context, from *tgbotapi.User) (*model.User, error) {
	return b.userRepo.LinkTelegram(ctx, from.ID, from.FirstName, from.LastName, from.UserName)
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) getConfirmation(userID int64) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	taskID, ok := b.confirmations[userID]
	return taskID, ok
}

func (b *Bot) setConfirmation(userID int64, taskID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.confirmations[userID] = taskID
}

func (b *Bot) clearConfirmation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.confirmations, userID)
}

func (b *Bot) setConversation(userID int64, state *conversationState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conversations[userID] = state
}

func (b *Bot) getConversation(userID int64) *conversationState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conversations[userID]
}

func (b *Bot) hasConversation(userID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.conversations[userID]
	return ok
}

func (b *Bot) clearConversation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.conversations, userID)
}

// describeError turns service errors into a chat reply.
func describeError(err error, loc *time.Location) string {
	var (
		conflict *model.ConflictError
		fieldErr *model.FieldError
	)
	switch {
	case errors.As(err, &conflict):
		return fmt.Sprintf("⛔ Overlaps with «%s» %s–%s.",
			html.EscapeString(conflict.BlockingTitle),
			conflict.BlockingStart.In(loc).Format("01-02 15:04"),
			conflict.BlockingEnd.In(loc).Format("15:04"))
	case errors.As(err, &fieldErr):
		return fmt.Sprintf("⚠️ %s", html.EscapeString(fieldErr.Error()))
	case errors.Is(err, model.ErrNotFound):
		return "Task not found."
	default:
		return "Something went wrong, try again later."
	}
}
