package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ukydev/engineeye/internal/assistant"
	"github.com/ukydev/engineeye/internal/auth"
	"github.com/ukydev/engineeye/internal/middleware"
	"github.com/ukydev/engineeye/internal/models"
	"github.com/ukydev/engineeye/internal/status"
	"github.com/ukydev/engineeye/internal/validation"
	"github.com/ukydev/engineeye/internal/vehicle"
)

// MockUserCollection is a mock implementation of db.UserCollection
type MockUserCollection struct {
	mock.Mock
}

func (m *MockUserCollection) InsertUser(ctx context.Context, user models.User) (primitive.ObjectID, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(primitive.ObjectID), args.Error(1)
}

func (m *MockUserCollection) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserCollection) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserCollection) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserCollection) UpdateUser(ctx context.Context, id string, user models.User) error {
	args := m.Called(ctx, id, user)
	return args.Error(0)
}

func (m *MockUserCollection) SetRefreshToken(ctx context.Context, id, current, next string, expiresAt *time.Time) error {
	return m.Called(ctx, id, current, next, expiresAt).Error(0)
}

func (m *MockUserCollection) UpdateLastLogin(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockVehicleService is a mock implementation of VehicleService
type MockVehicleService struct {
	mock.Mock
}

func (m *MockVehicleService) record(args mock.Arguments) (*models.VehicleRecord, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.VehicleRecord), args.Error(1)
}

func (m *MockVehicleService) List(ctx context.Context, who models.Identity) ([]models.VehicleRecord, error) {
	args := m.Called(ctx, who)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.VehicleRecord), args.Error(1)
}

func (m *MockVehicleService) Get(ctx context.Context, who models.Identity, id string) (*models.VehicleRecord, error) {
	return m.record(m.Called(ctx, who, id))
}

func (m *MockVehicleService) Summary(ctx context.Context, who models.Identity, id string) (status.VehicleSummary, error) {
	args := m.Called(ctx, who, id)
	return args.Get(0).(status.VehicleSummary), args.Error(1)
}

func (m *MockVehicleService) Create(ctx context.Context, who models.Identity, details models.VehicleDetails) (*models.VehicleRecord, error) {
	return m.record(m.Called(ctx, who, details))
}

func (m *MockVehicleService) Update(ctx context.Context, who models.Identity, id string, u vehicle.Update) (*models.VehicleRecord, error) {
	return m.record(m.Called(ctx, who, id, u))
}

func (m *MockVehicleService) ToggleFavorite(ctx context.Context, who models.Identity, id string) (*models.VehicleRecord, error) {
	return m.record(m.Called(ctx, who, id))
}

func (m *MockVehicleService) AddMaintenance(ctx context.Context, who models.Identity, id string, rec models.MaintenanceRecord) (*models.VehicleRecord, error) {
	return m.record(m.Called(ctx, who, id, rec))
}

func (m *MockVehicleService) AddFuel(ctx context.Context, who models.Identity, id string, f models.FuelRecord) (*models.VehicleRecord, error) {
	return m.record(m.Called(ctx, who, id, f))
}

func (m *MockVehicleService) OpenIssue(ctx context.Context, who models.Identity, id string, issue models.IssueRecord) (*models.VehicleRecord, error) {
	return m.record(m.Called(ctx, who, id, issue))
}

func (m *MockVehicleService) ResolveIssue(ctx context.Context, who models.Identity, id, issueID, resolution string) (*models.VehicleRecord, error) {
	return m.record(m.Called(ctx, who, id, issueID, resolution))
}

func (m *MockVehicleService) Delete(ctx context.Context, who models.Identity, id string, confirmed bool) error {
	return m.Called(ctx, who, id, confirmed).Error(0)
}

// MockForumService is a mock implementation of ForumService
type MockForumService struct {
	mock.Mock
}

func (m *MockForumService) post(args mock.Arguments) (*models.ForumPost, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ForumPost), args.Error(1)
}

func (m *MockForumService) comment(args mock.Arguments) (*models.ForumComment, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ForumComment), args.Error(1)
}

func (m *MockForumService) List(ctx context.Context) ([]models.ForumPost, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ForumPost), args.Error(1)
}

func (m *MockForumService) Get(ctx context.Context, postID string) (*models.ForumPost, error) {
	return m.post(m.Called(ctx, postID))
}

func (m *MockForumService) CreatePost(ctx context.Context, who models.Identity, draft models.PostDraft) (*models.ForumPost, error) {
	return m.post(m.Called(ctx, who, draft))
}

func (m *MockForumService) AddComment(ctx context.Context, who models.Identity, postID string, draft models.CommentDraft) (*models.ForumComment, error) {
	return m.comment(m.Called(ctx, who, postID, draft))
}

func (m *MockForumService) ToggleLike(ctx context.Context, who models.Identity, postID string) (*models.ForumPost, error) {
	return m.post(m.Called(ctx, who, postID))
}

func (m *MockForumService) ToggleSave(ctx context.Context, who models.Identity, postID string) (*models.ForumPost, error) {
	return m.post(m.Called(ctx, who, postID))
}

func (m *MockForumService) ToggleCommentLike(ctx context.Context, who models.Identity, postID, commentID string) (*models.ForumComment, error) {
	return m.comment(m.Called(ctx, who, postID, commentID))
}

// MockAssistant is a mock implementation of Assistant
type MockAssistant struct {
	mock.Mock
}

func (m *MockAssistant) Ask(ctx context.Context, prompt string) (*models.ChatResponse, error) {
	args := m.Called(ctx, prompt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ChatResponse), args.Error(1)
}

func (m *MockAssistant) ListModels(ctx context.Context) ([]assistant.ModelInfo, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]assistant.ModelInfo), args.Error(1)
}

// testEnv is the full router over mocked services.
type testEnv struct {
	router    http.Handler
	auth      *auth.Service
	users     *MockUserCollection
	vehicles  *MockVehicleService
	forum     *MockForumService
	assistant *MockAssistant
	stream    http.Handler
	health    error
}

const chatLimit = 2

var testUser = &models.User{
	ID:       primitive.NewObjectID(),
	Email:    "ayse@example.com",
	Username: "ayse",
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	authService, err := auth.NewService("test-secret", time.Hour)
	require.NoError(t, err)

	env := &testEnv{
		auth:      authService,
		users:     new(MockUserCollection),
		vehicles:  new(MockVehicleService),
		forum:     new(MockForumService),
		assistant: new(MockAssistant),
		stream: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/event-stream")
			_, _ = io.WriteString(w, "event: snapshot\ndata: {}\n\n")
		}),
	}

	v := validation.New()
	limiter := middleware.NewRateLimitMiddleware(nil)
	env.router = NewRouter(RouterConfig{
		Auth:     middleware.NewAuthMiddleware(authService, nil),
		Users:    NewAuthHandler(authService, env.users, v, nil),
		Vehicles: NewVehicleHandler(env.vehicles),
		Forum:    NewForumHandler(env.forum, env.stream),
		Chat:     NewChatHandler(env.assistant, v, limiter.RateLimit(chatLimit, time.Minute)),
		Health:   func(context.Context) error { return env.health },
	})
	return env
}

func (e *testEnv) token(t *testing.T) string {
	t.Helper()
	token, err := e.auth.GenerateToken(testUser)
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewBuffer(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

type errorBody struct {
	Error struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func identityOf(u *models.User) models.Identity {
	return u.Identity()
}
