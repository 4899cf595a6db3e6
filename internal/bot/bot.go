package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xaenox/nova-forum/internal/audit"
	"github.com/xaenox/nova-forum/internal/models"
	"github.com/xaenox/nova-forum/internal/moderation"
	"github.com/xaenox/nova-forum/internal/thread"
)

// adminPrefix marks a display name that logs in with moderation rights
const adminPrefix = "admin_"

const auditLimit = 10

// Messenger is the part of the Telegram API the bot talks through
type Messenger interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Forum is the thread store API exposed to chat users
type Forum interface {
	CreatePost(ctx context.Context, id models.Identity, content string) (models.Post, error)
	CreateReply(ctx context.Context, id models.Identity, parentID, content string) (models.Reply, error)
	Like(ctx context.Context, id models.Identity, targetID, parentID string) error
	Delete(ctx context.Context, id models.Identity, targetID, parentID string) bool
	TogglePin(ctx context.Context, id models.Identity, postID string) bool
	Feed() []models.Post
	Bot() models.BotIdentity
}

var _ Forum = (*thread.Store)(nil)

// AdminCheck reports whether a Telegram user is granted moderation rights
type AdminCheck func(userID int64) bool

type Bot struct {
	api     *tgbotapi.BotAPI
	sender  Messenger
	forum   Forum
	journal audit.Journal
	isAdmin AdminCheck
	logger  *zap.Logger

	mu       sync.RWMutex
	sessions map[int64]models.Identity
}

func New(token string, forum Forum, journal audit.Journal, isAdmin AdminCheck, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b := newBot(api, forum, journal, isAdmin, logger)
	b.api = api
	return b, nil
}

func newBot(sender Messenger, forum Forum, journal audit.Journal, isAdmin AdminCheck, logger *zap.Logger) *Bot {
	if isAdmin == nil {
		isAdmin = func(int64) bool { return false }
	}
	return &Bot{
		sender:   sender,
		forum:    forum,
		journal:  journal,
		isAdmin:  isAdmin,
		logger:   logger,
		sessions: make(map[int64]models.Identity),
	}
}

// Start polls Telegram until ctx is cancelled. It returns once every
// message handler it started has finished.
func (b *Bot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	b.logger.Info("Bot started", zap.String("username", b.api.Self.UserName))

	err := b.serve(ctx, updates)
	b.api.StopReceivingUpdates()
	return err
}

func (b *Bot) serve(ctx context.Context, updates tgbotapi.UpdatesChannel) error {
	var handlers errgroup.Group
	// Handlers already running finish their work after shutdown starts
	handlerCtx := context.WithoutCancel(ctx)

	defer func() {
		handlers.Wait()
		b.logger.Info("Bot stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			message := update.Message
			handlers.Go(func() error {
				b.handleMessage(handlerCtx, message)
				return nil
			})
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.From == nil {
		return
	}

	if message.IsCommand() {
		b.handleCommand(ctx, message)
		return
	}

	content := message.Text
	if message.Caption != "" {
		content = message.Caption
	}
	b.handlePost(ctx, message, content)
}

func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	switch message.Command() {
	case "start":
		b.handleStart(message)
	case "help":
		b.handleHelp(message)
	case "login":
		b.handleLogin(message)
	case "logout":
		b.handleLogout(message)
	case "whoami":
		b.handleWhoAmI(message)
	case "post":
		b.handlePost(ctx, message, message.CommandArguments())
	case "reply":
		b.handleReply(ctx, message)
	case "like":
		b.handleLike(ctx, message)
	case "delete":
		b.handleDelete(ctx, message)
	case "pin":
		b.handlePin(ctx, message)
	case "feed":
		b.handleFeed(message)
	case "audit":
		b.handleAudit(ctx, message)
	default:
		b.sendMessage(message.Chat.ID, "Unknown command. Use /help to see available commands.")
	}
}

func (b *Bot) handleStart(message *tgbotapi.Message) {
	welcome := `Welcome to Nova Forum! 🔭
A community for sharing what you see in the night sky.

Log in with /login <name>, then send any message to start a thread.
Use /help to see all available commands.`

	b.sendMessage(message.Chat.ID, welcome)
}

func (b *Bot) handleHelp(message *tgbotapi.Message) {
	help := `Available commands:
/login <name> - Join the forum under a display name
/logout - Leave the forum
/whoami - Show who you are logged in as
/feed - Show the threads
/reply <post id> <text> - Reply to a thread
/like <id> [post id] - Like a post or reply
/delete <id> [post id] - Remove a post or reply (admins)
/pin <post id> - Pin or unpin a thread (admins)
/audit - Show recent moderation actions (admins)

Any other message starts a new thread.`

	b.sendMessage(message.Chat.ID, help)
}

func (b *Bot) handleLogin(message *tgbotapi.Message) {
	name := strings.TrimSpace(message.CommandArguments())
	if name == "" {
		b.sendMessage(message.Chat.ID, "Usage: /login <name>")
		return
	}
	if strings.EqualFold(name, b.forum.Bot().Name) {
		b.sendErrorMessage(message.Chat.ID, "That name is reserved.")
		return
	}

	id := models.Identity{
		DisplayName: name,
		AvatarRef:   "https://i.pravatar.cc/150?u=" + name,
		IsLoggedIn:  true,
		IsAdmin:     strings.HasPrefix(strings.ToLower(name), adminPrefix) || b.isAdmin(message.From.ID),
	}

	b.mu.Lock()
	b.sessions[message.From.ID] = id
	b.mu.Unlock()

	b.logger.Info("User logged in",
		zap.Int64("user_id", message.From.ID),
		zap.String("name", name),
		zap.Bool("admin", id.IsAdmin))

	text := fmt.Sprintf("Welcome aboard, %s!", name)
	if id.IsAdmin {
		text += " You have moderator rights."
	}
	b.sendMessage(message.Chat.ID, text)
}

func (b *Bot) handleLogout(message *tgbotapi.Message) {
	b.mu.Lock()
	delete(b.sessions, message.From.ID)
	b.mu.Unlock()

	b.sendMessage(message.Chat.ID, "You are logged out.")
}

func (b *Bot) handleWhoAmI(message *tgbotapi.Message) {
	id := b.identity(message.From.ID)
	if !id.IsLoggedIn {
		b.sendMessage(message.Chat.ID, "You are not logged in. Use /login <name>.")
		return
	}

	role := "member"
	if id.IsAdmin {
		role = "admin"
	}
	b.sendMessage(message.Chat.ID, fmt.Sprintf("%s (%s)", id.DisplayName, role))
}

func (b *Bot) handlePost(ctx context.Context, message *tgbotapi.Message, content string) {
	post, err := b.forum.CreatePost(ctx, b.identity(message.From.ID), content)
	if err != nil {
		b.reportError(message, moderation.ActionCreate, err)
		return
	}

	b.sendReply(message.Chat.ID, message.MessageID,
		fmt.Sprintf("Transmitted. Thread id: %s", post.ID))
}

func (b *Bot) handleReply(ctx context.Context, message *tgbotapi.Message) {
	parentID, text, ok := strings.Cut(strings.TrimSpace(message.CommandArguments()), " ")
	if !ok || parentID == "" {
		b.sendMessage(message.Chat.ID, "Usage: /reply <post id> <text>")
		return
	}

	reply, err := b.forum.CreateReply(ctx, b.identity(message.From.ID), parentID, text)
	if err != nil {
		b.reportError(message, moderation.ActionReply, err)
		return
	}

	b.sendReply(message.Chat.ID, message.MessageID,
		fmt.Sprintf("Reply added. Id: %s", reply.ID))
}

func (b *Bot) handleLike(ctx context.Context, message *tgbotapi.Message) {
	targetID, parentID, ok := targetArgs(message.CommandArguments())
	if !ok {
		b.sendMessage(message.Chat.ID, "Usage: /like <id> [post id]")
		return
	}

	if err := b.forum.Like(ctx, b.identity(message.From.ID), targetID, parentID); err != nil {
		b.reportError(message, moderation.ActionLike, err)
		return
	}
	b.sendMessage(message.Chat.ID, "❤️")
}

func (b *Bot) handleDelete(ctx context.Context, message *tgbotapi.Message) {
	targetID, parentID, ok := targetArgs(message.CommandArguments())
	if !ok {
		b.sendMessage(message.Chat.ID, "Usage: /delete <id> [post id]")
		return
	}

	// Refusals are silent
	if b.forum.Delete(ctx, b.identity(message.From.ID), targetID, parentID) {
		b.sendMessage(message.Chat.ID, "Removed.")
	}
}

func (b *Bot) handlePin(ctx context.Context, message *tgbotapi.Message) {
	postID := strings.TrimSpace(message.CommandArguments())
	if postID == "" {
		b.sendMessage(message.Chat.ID, "Usage: /pin <post id>")
		return
	}

	if b.forum.TogglePin(ctx, b.identity(message.From.ID), postID) {
		b.sendMessage(message.Chat.ID, "Pin toggled.")
	}
}

func (b *Bot) handleFeed(message *tgbotapi.Message) {
	feed := b.forum.Feed()
	if len(feed) == 0 {
		b.sendMessage(message.Chat.ID, "No threads yet. Be the first to transmit!")
		return
	}

	for i, text := range renderFeed(feed, b.forum.Bot()) {
		msg := tgbotapi.NewMessage(message.Chat.ID, text)
		msg.ParseMode = "MarkdownV2"
		if _, err := b.sender.Send(msg); err != nil {
			b.logger.Error("Failed to send feed",
				zap.Error(err),
				zap.Int64("chat_id", message.Chat.ID),
				zap.Int("part", i))
			b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't show the whole feed.")
			return
		}
	}
}

func (b *Bot) handleAudit(ctx context.Context, message *tgbotapi.Message) {
	if !b.identity(message.From.ID).IsAdmin || b.journal == nil {
		return
	}

	entries, err := b.journal.Recent(ctx, auditLimit)
	if err != nil {
		b.logger.Error("Failed to read moderation journal",
			zap.Error(err),
			zap.Int64("user_id", message.From.ID))
		b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't read the moderation log.")
		return
	}
	if len(entries) == 0 {
		b.sendMessage(message.Chat.ID, "No moderation actions yet.")
		return
	}

	var sb strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&sb, "%s %s %s %s\n", e.At.Format("2006-01-02 15:04"), e.Actor, e.Action, e.TargetID)
	}
	b.sendMessage(message.Chat.ID, sb.String())
}

func (b *Bot) identity(userID int64) models.Identity {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if id, ok := b.sessions[userID]; ok {
		return id
	}
	return models.Anonymous
}

func (b *Bot) reportError(message *tgbotapi.Message, action moderation.Action, err error) {
	switch {
	case errors.Is(err, thread.ErrUnauthenticated):
		// Members-only actions ask for a login, moderation refusals stay silent
		if moderation.RequiresLogin(action) {
			b.sendMessage(message.Chat.ID, "Please /login <name> first.")
		}
	case errors.Is(err, thread.ErrEmptyContent):
		b.sendMessage(message.Chat.ID, "Nothing to transmit.")
	case errors.Is(err, thread.ErrNotFound):
		b.sendErrorMessage(message.Chat.ID, "That thread no longer exists.")
	case errors.Is(err, thread.ErrReservedAuthor):
		b.sendErrorMessage(message.Chat.ID, "That name is reserved.")
	default:
		b.logger.Error("Forum action failed",
			zap.Error(err),
			zap.Int64("user_id", message.From.ID))
		b.sendErrorMessage(message.Chat.ID, "Sorry, something went wrong. Please try again.")
	}
}

// targetArgs parses "<id> [parent id]"
func targetArgs(args string) (targetID, parentID string, ok bool) {
	fields := strings.Fields(args)
	switch len(fields) {
	case 1:
		return fields[0], "", true
	case 2:
		return fields[0], fields[1], true
	default:
		return "", "", false
	}
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.sender.Send(msg); err != nil {
		b.logger.Error("Failed to send message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}

func (b *Bot) sendReply(chatID int64, replyToID int, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyToMessageID = replyToID
	if _, err := b.sender.Send(msg); err != nil {
		b.logger.Error("Failed to send reply",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}

func (b *Bot) sendErrorMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, "⚠️ "+text)
	if _, err := b.sender.Send(msg); err != nil {
		b.logger.Error("Failed to send error message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}
