package thread

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xaenox/nova-forum/internal/audit"
	"github.com/xaenox/nova-forum/internal/models"
	"github.com/xaenox/nova-forum/internal/moderation"
)

var (
	ErrUnauthenticated = errors.New("login required")
	ErrNotFound        = errors.New("post not found")
	ErrEmptyContent    = errors.New("content is empty")
	ErrReservedAuthor  = errors.New("author name is reserved")
)

// Scheduler is notified after a user-created entry has been stored.
// Implementations must not block.
type Scheduler interface {
	PostCreated(post models.Post)
	ReplyCreated(parentID string, reply models.Reply)
}

// Store owns the two-level tree of root posts and their replies.
// Every mutation runs inside a single critical section, so readers never
// observe a half-applied change.
type Store struct {
	mu    sync.RWMutex
	posts []*models.Post // front is the most recently created
	// ids maps every live id to its parent id ("" for root posts)
	ids map[string]string

	bot       models.BotIdentity
	newID     func() string
	scheduler Scheduler
	journal   audit.Journal
	logger    *zap.Logger
}

type Option func(*Store)

func WithBot(bot models.BotIdentity) Option {
	return func(s *Store) { s.bot = bot }
}

func WithJournal(j audit.Journal) Option {
	return func(s *Store) { s.journal = j }
}

// WithIDGenerator replaces the random UUID source
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

func NewStore(logger *zap.Logger, opts ...Option) *Store {
	s := &Store{
		ids:    make(map[string]string),
		bot:    models.DefaultBot,
		newID:  uuid.NewString,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetScheduler attaches the enrichment scheduler. Call before serving traffic.
func (s *Store) SetScheduler(sched Scheduler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scheduler = sched
}

// Bot returns the identity used for generated content
func (s *Store) Bot() models.BotIdentity {
	return s.bot
}

// Seed appends existing threads behind the current ones, in the given order.
// Entries without an id get a fresh one.
func (s *Store) Seed(posts ...models.Post) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, seed := range posts {
		p := seed.Clone()
		if p.ID == "" || s.exists(p.ID) {
			p.ID = s.nextID()
		}
		s.ids[p.ID] = ""
		for i := range p.Replies {
			if p.Replies[i].ID == "" || s.exists(p.Replies[i].ID) {
				p.Replies[i].ID = s.nextID()
			}
			s.ids[p.Replies[i].ID] = p.ID
		}
		s.posts = append(s.posts, &p)
	}
}

func (s *Store) CreatePost(ctx context.Context, id models.Identity, content string) (models.Post, error) {
	content, err := s.admit(id, moderation.ActionCreate, content)
	if err != nil {
		return models.Post{}, err
	}

	s.mu.Lock()
	post := &models.Post{
		ID:           s.nextID(),
		Author:       id.DisplayName,
		AvatarRef:    id.AvatarRef,
		Content:      content,
		CreatedLabel: models.LabelTransmitting,
	}
	s.posts = append([]*models.Post{post}, s.posts...)
	s.ids[post.ID] = ""
	created := post.Clone()
	sched := s.scheduler
	s.mu.Unlock()

	s.logger.Info("Post created",
		zap.String("post_id", created.ID),
		zap.String("author", created.Author))

	if sched != nil {
		sched.PostCreated(created)
	}
	return created, nil
}

func (s *Store) CreateReply(ctx context.Context, id models.Identity, parentID, content string) (models.Reply, error) {
	content, err := s.admit(id, moderation.ActionReply, content)
	if err != nil {
		return models.Reply{}, err
	}

	s.mu.Lock()
	parent := s.findPost(parentID)
	if parent == nil {
		s.mu.Unlock()
		s.logger.Debug("Reply target vanished", zap.String("parent_id", parentID))
		return models.Reply{}, ErrNotFound
	}
	reply := models.Reply{
		ID:           s.nextID(),
		Author:       id.DisplayName,
		AvatarRef:    id.AvatarRef,
		Content:      content,
		CreatedLabel: models.LabelJustNow,
	}
	parent.Replies = append(parent.Replies, reply)
	s.ids[reply.ID] = parentID
	sched := s.scheduler
	s.mu.Unlock()

	s.logger.Info("Reply created",
		zap.String("reply_id", reply.ID),
		zap.String("parent_id", parentID),
		zap.String("author", reply.Author))

	if sched != nil {
		sched.ReplyCreated(parentID, reply)
	}
	return reply, nil
}

// Like adds exactly one like to a post or reply. parentID may be empty,
// in which case the target's parent is resolved from the store.
// A vanished target is not an error.
func (s *Store) Like(ctx context.Context, id models.Identity, targetID, parentID string) error {
	if !moderation.Authorize(id, moderation.ActionLike) {
		return ErrUnauthenticated
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	parentID, ok := s.resolve(targetID, parentID)
	if !ok {
		return nil
	}
	if parentID == "" {
		s.findPost(targetID).LikeCount++
		return nil
	}
	parent := s.findPost(parentID)
	parent.Replies[parent.ReplyIndex(targetID)].LikeCount++
	return nil
}

// Delete removes a post with all its replies, or a single reply.
// Unauthorized callers and vanished targets leave the store untouched.
func (s *Store) Delete(ctx context.Context, id models.Identity, targetID, parentID string) bool {
	if !moderation.Authorize(id, moderation.ActionDelete) {
		s.logger.Debug("Delete refused", zap.String("actor", id.DisplayName), zap.String("target_id", targetID))
		return false
	}

	s.mu.Lock()
	parentID, ok := s.resolve(targetID, parentID)
	if !ok {
		s.mu.Unlock()
		return false
	}
	if parentID == "" {
		i := s.postIndex(targetID)
		for _, r := range s.posts[i].Replies {
			delete(s.ids, r.ID)
		}
		s.posts = append(s.posts[:i], s.posts[i+1:]...)
	} else {
		parent := s.findPost(parentID)
		i := parent.ReplyIndex(targetID)
		parent.Replies = append(parent.Replies[:i], parent.Replies[i+1:]...)
	}
	delete(s.ids, targetID)
	s.mu.Unlock()

	s.logger.Info("Entry deleted",
		zap.String("actor", id.DisplayName),
		zap.String("target_id", targetID),
		zap.String("parent_id", parentID))

	s.record(ctx, audit.Entry{Actor: id.DisplayName, Action: audit.ActionDelete, TargetID: targetID, ParentID: parentID})
	return true
}

// TogglePin flips the pinned flag of a root post
func (s *Store) TogglePin(ctx context.Context, id models.Identity, postID string) bool {
	s.mu.Lock()
	parentID, ok := s.resolve(postID, "")
	if !ok || !moderation.AuthorizeTarget(id, moderation.ActionPin, parentID != "") {
		s.mu.Unlock()
		return false
	}
	post := s.findPost(postID)
	post.Pinned = !post.Pinned
	pinned := post.Pinned
	s.mu.Unlock()

	action := audit.ActionPin
	if !pinned {
		action = audit.ActionUnpin
	}
	s.logger.Info("Pin toggled",
		zap.String("actor", id.DisplayName),
		zap.String("post_id", postID),
		zap.Bool("pinned", pinned))

	s.record(ctx, audit.Entry{Actor: id.DisplayName, Action: action, TargetID: postID})
	return true
}

// MergeEnrichment attaches summary and tags to a root post that still exists
// and marks its creation as complete.
func (s *Store) MergeEnrichment(postID string, e models.Enrichment) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	post := s.findPost(postID)
	if post == nil {
		return false
	}
	post.Enrichment = e.Clone()
	if post.CreatedLabel == models.LabelTransmitting {
		post.CreatedLabel = models.LabelJustNow
	}
	return true
}

// AppendBotReply adds a reply authored by the bot to a root post that still exists
func (s *Store) AppendBotReply(parentID, content string) (models.Reply, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	parent := s.findPost(parentID)
	if parent == nil {
		return models.Reply{}, false
	}
	reply := models.Reply{
		ID:           s.nextID(),
		Author:       s.bot.Name,
		AvatarRef:    s.bot.AvatarRef,
		Content:      content,
		CreatedLabel: models.LabelSecondsAgo,
	}
	parent.Replies = append(parent.Replies, reply)
	s.ids[reply.ID] = parentID
	return reply, true
}

// PublishBotPost puts a new bot-authored root post at the front of the feed.
// The post belongs to the feed, not to originID, so it is published even when
// the post that prompted it has since been deleted. It always gets a fresh id.
func (s *Store) PublishBotPost(originID, content string) models.Post {
	s.mu.Lock()
	defer s.mu.Unlock()

	post := &models.Post{
		ID:           s.nextID(),
		Author:       s.bot.Name,
		AvatarRef:    s.bot.AvatarRef,
		Content:      content,
		CreatedLabel: models.LabelSecondsAgo,
	}
	s.posts = append([]*models.Post{post}, s.posts...)
	s.ids[post.ID] = ""
	s.logger.Debug("Bot post published",
		zap.String("post_id", post.ID),
		zap.String("origin_id", originID),
		zap.Bool("origin_live", originID != "" && s.exists(originID)))
	return post.Clone()
}

// Feed returns the display order: pinned posts first, store order otherwise
func (s *Store) Feed() []models.Post {
	return Order(s.Snapshot())
}

// Snapshot returns deep copies of all root posts in storage order
func (s *Store) Snapshot() []models.Post {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Post, len(s.posts))
	for i, p := range s.posts {
		out[i] = p.Clone()
	}
	return out
}

func (s *Store) Post(id string) (models.Post, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p := s.findPost(id)
	if p == nil {
		return models.Post{}, false
	}
	return p.Clone(), true
}

// Contains reports whether a post or reply with the id is live
func (s *Store) Contains(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.exists(id)
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.posts)
}

func (s *Store) admit(id models.Identity, action moderation.Action, content string) (string, error) {
	if !moderation.Authorize(id, action) {
		return "", ErrUnauthenticated
	}
	if strings.EqualFold(strings.TrimSpace(id.DisplayName), s.bot.Name) {
		return "", ErrReservedAuthor
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return "", ErrEmptyContent
	}
	return content, nil
}

func (s *Store) record(ctx context.Context, entry audit.Entry) {
	if s.journal == nil {
		return
	}
	if err := s.journal.Record(ctx, entry); err != nil {
		s.logger.Error("Failed to record moderation entry",
			zap.Error(err),
			zap.String("action", string(entry.Action)),
			zap.String("target_id", entry.TargetID))
	}
}

// resolve returns the parent of a live target. A non-empty hint must match.
// Callers hold the lock.
func (s *Store) resolve(targetID, parentHint string) (string, bool) {
	parentID, ok := s.ids[targetID]
	if !ok {
		return "", false
	}
	if parentHint != "" && parentHint != parentID {
		return "", false
	}
	return parentID, true
}

func (s *Store) exists(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// nextID draws ids until one is unused among posts and replies
func (s *Store) nextID() string {
	for {
		id := s.newID()
		if id != "" && !s.exists(id) {
			return id
		}
	}
}

func (s *Store) postIndex(id string) int {
	for i, p := range s.posts {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) findPost(id string) *models.Post {
	if i := s.postIndex(id); i >= 0 {
		return s.posts[i]
	}
	return nil
}
