package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ukydev/engineeye/internal/apperr"
	"github.com/ukydev/engineeye/internal/middleware"
	"github.com/ukydev/engineeye/internal/models"
)

// ForumService is the forum repository.
type ForumService interface {
	List(ctx context.Context) ([]models.ForumPost, error)
	Get(ctx context.Context, postID string) (*models.ForumPost, error)
	CreatePost(ctx context.Context, who models.Identity, draft models.PostDraft) (*models.ForumPost, error)
	AddComment(ctx context.Context, who models.Identity, postID string, draft models.CommentDraft) (*models.ForumComment, error)
	ToggleLike(ctx context.Context, who models.Identity, postID string) (*models.ForumPost, error)
	ToggleSave(ctx context.Context, who models.Identity, postID string) (*models.ForumPost, error)
	ToggleCommentLike(ctx context.Context, who models.Identity, postID, commentID string) (*models.ForumComment, error)
}

// ForumHandler serves /forum, including the live snapshot stream.
type ForumHandler struct {
	forum  ForumService
	stream http.Handler
}

// NewForumHandler creates a forum handler. stream serves /forum/stream and
// may be nil.
func NewForumHandler(forum ForumService, stream http.Handler) *ForumHandler {
	return &ForumHandler{forum: forum, stream: stream}
}

// Routes registers the forum routes.
func (h *ForumHandler) Routes(r chi.Router) {
	r.Route("/forum", func(r chi.Router) {
		if h.stream != nil {
			r.Method(http.MethodGet, "/stream", h.stream)
		}
		r.Get("/posts", h.list)
		r.Post("/posts", h.createPost)
		r.Route("/posts/{postID}", func(r chi.Router) {
			r.Get("/", h.get)
			r.Post("/comments", h.addComment)
			r.Post("/like", h.toggleLike)
			r.Post("/save", h.toggleSave)
			r.Post("/comments/{commentID}/like", h.toggleCommentLike)
		})
	})
}

func (h *ForumHandler) list(w http.ResponseWriter, r *http.Request) {
	posts, err := h.forum.List(r.Context())
	if err != nil {
		apperr.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

func (h *ForumHandler) get(w http.ResponseWriter, r *http.Request) {
	post, err := h.forum.Get(r.Context(), chi.URLParam(r, "postID"))
	respondPost(w, r, http.StatusOK, post, err)
}

func (h *ForumHandler) createPost(w http.ResponseWriter, r *http.Request) {
	var draft models.PostDraft
	if err := decodeJSON(w, r, &draft); err != nil {
		apperr.Write(w, r, err)
		return
	}
	post, err := h.forum.CreatePost(r.Context(), middleware.IdentityFromContext(r.Context()), draft)
	respondPost(w, r, http.StatusCreated, post, err)
}

func (h *ForumHandler) addComment(w http.ResponseWriter, r *http.Request) {
	var draft models.CommentDraft
	if err := decodeJSON(w, r, &draft); err != nil {
		apperr.Write(w, r, err)
		return
	}
	comment, err := h.forum.AddComment(r.Context(), middleware.IdentityFromContext(r.Context()), chi.URLParam(r, "postID"), draft)
	if err != nil {
		apperr.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}

func (h *ForumHandler) toggleLike(w http.ResponseWriter, r *http.Request) {
	post, err := h.forum.ToggleLike(r.Context(), middleware.IdentityFromContext(r.Context()), chi.URLParam(r, "postID"))
	respondPost(w, r, http.StatusOK, post, err)
}

func (h *ForumHandler) toggleSave(w http.ResponseWriter, r *http.Request) {
	post, err := h.forum.ToggleSave(r.Context(), middleware.IdentityFromContext(r.Context()), chi.URLParam(r, "postID"))
	respondPost(w, r, http.StatusOK, post, err)
}

func (h *ForumHandler) toggleCommentLike(w http.ResponseWriter, r *http.Request) {
	comment, err := h.forum.ToggleCommentLike(r.Context(), middleware.IdentityFromContext(r.Context()),
		chi.URLParam(r, "postID"), chi.URLParam(r, "commentID"))
	if err != nil {
		apperr.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, comment)
}

func respondPost(w http.ResponseWriter, r *http.Request, status int, post *models.ForumPost, err error) {
	if err != nil {
		apperr.Write(w, r, err)
		return
	}
	writeJSON(w, status, post)
}
