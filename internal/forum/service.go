// Package forum implements the community forum: posts, comments, likes and
// saves. Every mutation republishes the full ordered post list to the feed.
package forum

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/ukydev/engineeye/internal/apperr"
	"github.com/ukydev/engineeye/internal/db"
	"github.com/ukydev/engineeye/internal/feed"
	"github.com/ukydev/engineeye/internal/metrics"
	"github.com/ukydev/engineeye/internal/models"
	"github.com/ukydev/engineeye/internal/validation"
)

// AnonymousUsername is shown for authors whose profile could not be read.
const AnonymousUsername = "Anonymous"

// Service is the forum repository.
type Service struct {
	posts    db.ForumCollection
	users    db.UserCollection
	hub      *feed.Hub
	validate *validation.Validator
	metrics  *metrics.Metrics
	now      func() time.Time
	newID    func() string

	// refreshMu orders feed reads with their publishes.
	refreshMu sync.Mutex
}

// NewService creates a forum service. hub may be nil when no live feed is
// wanted.
func NewService(posts db.ForumCollection, users db.UserCollection, hub *feed.Hub, v *validation.Validator, m *metrics.Metrics) *Service {
	return &Service{
		posts:    posts,
		users:    users,
		hub:      hub,
		validate: v,
		metrics:  m,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// List returns all posts, newest first.
func (s *Service) List(ctx context.Context) ([]models.ForumPost, error) {
	posts, err := s.posts.FindPosts(ctx)
	if err != nil {
		return nil, storeError("list posts", err)
	}
	return posts, nil
}

// Get returns one post.
func (s *Service) Get(ctx context.Context, postID string) (*models.ForumPost, error) {
	post, err := s.posts.FindPostByID(ctx, postID)
	if err != nil {
		return nil, storeError("find post", err)
	}
	return post, nil
}

// Refresh publishes the current post list to the feed. Concurrent calls
// publish in the order they read, so the newest version always holds the
// newest list. The read outlives cancellation of ctx.
func (s *Service) Refresh(ctx context.Context) error {
	if s.hub == nil {
		return nil
	}
	ctx = context.WithoutCancel(ctx)

	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()
	posts, err := s.List(ctx)
	if err != nil {
		return err
	}
	s.hub.Publish(posts)
	return nil
}

// CreatePost stores a new post by the caller.
func (s *Service) CreatePost(ctx context.Context, who models.Identity, draft models.PostDraft) (*models.ForumPost, error) {
	if who.IsZero() {
		return nil, apperr.Unauthenticated("sign in to post")
	}
	draft.Title = strings.TrimSpace(draft.Title)
	draft.Content = strings.TrimSpace(draft.Content)
	if err := s.validate.Struct(draft); err != nil {
		return nil, err
	}

	post := models.ForumPost{
		UserID:    who.UserID,
		UserEmail: who.Email,
		Username:  s.username(ctx, who),
		Title:     draft.Title,
		Content:   draft.Content,
		CarBrand:  strings.TrimSpace(draft.CarBrand),
		CarModel:  strings.TrimSpace(draft.CarModel),
		CarYear:   strings.TrimSpace(draft.CarYear),
		CreatedAt: s.now().UTC(),
		Likes:     []string{},
		Saves:     []string{},
		Comments:  []models.ForumComment{},
	}
	id, err := s.posts.InsertPost(ctx, post)
	if err != nil {
		return nil, storeError("insert post", err)
	}
	post.ID = id

	s.changed(ctx, "post_created", log.Fields{"post_id": id.Hex(), "user_id": who.UserID})
	return &post, nil
}

// AddComment appends a comment by the caller to a post.
func (s *Service) AddComment(ctx context.Context, who models.Identity, postID string, draft models.CommentDraft) (*models.ForumComment, error) {
	if who.IsZero() {
		return nil, apperr.Unauthenticated("sign in to comment")
	}
	draft.Content = strings.TrimSpace(draft.Content)
	if err := s.validate.Struct(draft); err != nil {
		return nil, err
	}

	comment := models.ForumComment{
		ID:        s.newID(),
		UserID:    who.UserID,
		UserEmail: who.Email,
		Username:  s.username(ctx, who),
		Content:   draft.Content,
		CreatedAt: s.now().UTC(),
		Likes:     []string{},
	}
	if err := s.posts.PushComment(ctx, postID, comment); err != nil {
		return nil, storeError("add comment", err)
	}

	s.changed(ctx, "comment_added", log.Fields{"post_id": postID, "comment_id": comment.ID, "user_id": who.UserID})
	return &comment, nil
}

// ToggleLike likes the post, or unlikes it if the caller already did.
func (s *Service) ToggleLike(ctx context.Context, who models.Identity, postID string) (*models.ForumPost, error) {
	return s.toggle(ctx, who, postID, db.FieldLikes)
}

// ToggleSave saves the post, or unsaves it if the caller already did.
func (s *Service) ToggleSave(ctx context.Context, who models.Identity, postID string) (*models.ForumPost, error) {
	return s.toggle(ctx, who, postID, db.FieldSaves)
}

func (s *Service) toggle(ctx context.Context, who models.Identity, postID, field string) (*models.ForumPost, error) {
	if who.IsZero() {
		return nil, apperr.Unauthenticated("sign in to react to posts")
	}
	post, err := s.Get(ctx, postID)
	if err != nil {
		return nil, err
	}

	set := &post.Likes
	if field == db.FieldSaves {
		set = &post.Saves
	}

	event := field + "_added"
	if models.Contains(*set, who.UserID) {
		event = field + "_removed"
		err = s.posts.PullFromSet(ctx, postID, field, who.UserID)
		*set = without(*set, who.UserID)
	} else {
		err = s.posts.AddToSet(ctx, postID, field, who.UserID)
		*set = append(*set, who.UserID)
	}
	if err != nil {
		return nil, storeError("update post", err)
	}

	s.changed(ctx, event, log.Fields{"post_id": postID, "user_id": who.UserID})
	return post, nil
}

// ToggleCommentLike likes or unlikes one comment of a post.
func (s *Service) ToggleCommentLike(ctx context.Context, who models.Identity, postID, commentID string) (*models.ForumComment, error) {
	if who.IsZero() {
		return nil, apperr.Unauthenticated("sign in to react to comments")
	}
	post, err := s.Get(ctx, postID)
	if err != nil {
		return nil, err
	}
	comment := post.Comment(commentID)
	if comment == nil {
		return nil, apperr.NotFound("comment not found")
	}

	add := !models.Contains(comment.Likes, who.UserID)
	if err := s.posts.SetCommentLikes(ctx, postID, commentID, add, who.UserID); err != nil {
		return nil, storeError("update comment", err)
	}

	event := "comment_like_added"
	if add {
		comment.Likes = append(comment.Likes, who.UserID)
	} else {
		event = "comment_like_removed"
		comment.Likes = without(comment.Likes, who.UserID)
	}

	s.changed(ctx, event, log.Fields{"post_id": postID, "comment_id": commentID, "user_id": who.UserID})
	return comment, nil
}

// username returns the profile username of the caller, or Anonymous.
func (s *Service) username(ctx context.Context, who models.Identity) string {
	user, err := s.users.FindUserByID(ctx, who.UserID)
	if err != nil || strings.TrimSpace(user.Username) == "" {
		if err != nil {
			log.WithError(err).WithField("user_id", who.UserID).Warn("Profile lookup failed, posting as anonymous")
		}
		return AnonymousUsername
	}
	return user.Username
}

// changed records a forum event and republishes the feed. A failed refresh
// does not fail the mutation that triggered it.
func (s *Service) changed(ctx context.Context, event string, fields log.Fields) {
	s.metrics.ForumEvent(event)
	log.WithFields(fields).WithField("event", event).Debug("Forum updated")
	if err := s.Refresh(ctx); err != nil {
		log.WithError(err).Warn("Failed to refresh forum feed")
	}
}

func without(set []string, id string) []string {
	out := make([]string, 0, len(set))
	for _, s := range set {
		if s != id {
			out = append(out, s)
		}
	}
	return out
}

func storeError(op string, err error) error {
	switch {
	case errors.Is(err, db.ErrNotFound), errors.Is(err, db.ErrInvalidID):
		return apperr.NotFound("post not found")
	default:
		return apperr.StoreUnavailable(op, err)
	}
}
