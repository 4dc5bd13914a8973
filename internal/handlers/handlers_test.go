package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
	"github.com/thereayou/wallet-profile/internal/database"
	"github.com/thereayou/wallet-profile/internal/export"
	"github.com/thereayou/wallet-profile/internal/middleware"
	"github.com/thereayou/wallet-profile/internal/models"
	"github.com/thereayou/wallet-profile/internal/session"
	"github.com/thereayou/wallet-profile/internal/storage"
	"github.com/thereayou/wallet-profile/internal/verification"
	"github.com/thereayou/wallet-profile/pkg/auth"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	ownerAddr = "0x52908400098527886e0f7030069857d2e4169ee7"
	otherAddr = "0xde0b295669a9fd93d5f28d9ec85e40f4cb697bae"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeFiles struct {
	fail map[string]error
}

func (f *fakeFiles) UploadAll(_ context.Context, owner string, objects []storage.Object) []storage.Result {
	results := make([]storage.Result, len(objects))
	for i, obj := range objects {
		if err := f.fail[obj.Field]; err != nil {
			results[i] = storage.Result{Field: obj.Field, Err: err}
			continue
		}
		results[i] = storage.Result{Field: obj.Field, URL: "https://cdn.test/profiles/" + owner + "/" + obj.Filename}
	}
	return results
}

type fakeAges struct {
	result *verification.Result
	err    error
	image  string
}

func (f *fakeAges) EstimateAge(_ context.Context, image string) (*verification.Result, error) {
	f.image = image
	return f.result, f.err
}

type event struct {
	address string
	kind    string
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []event
}

func (n *fakeNotifier) NotifyUser(address string, kind string, _ interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event{address: address, kind: kind})
}

type fixture struct {
	router   *gin.Engine
	db       *database.Database
	sessions *session.Store
	redis    *miniredis.Miniredis
	jwt      *auth.JWTManager
	files    *fakeFiles
	ages     *fakeAges
	notifier *fakeNotifier
}

type fixtureOption func(*UserHandlerOptions, *fixture)

func withFiles(f *fakeFiles) fixtureOption {
	return func(o *UserHandlerOptions, fx *fixture) {
		o.Files = f
		fx.files = f
	}
}

func withAges(a *fakeAges) fixtureOption {
	return func(o *UserHandlerOptions, fx *fixture) {
		o.Ages = a
		fx.ages = a
	}
}

func setup(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true, Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	db := database.NewDatabase(gdb)
	require.NoError(t, db.Migrate())

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	fx := &fixture{
		db:       db,
		sessions: session.NewStore(rdb, time.Hour),
		redis:    mr,
		jwt:      auth.NewJWTManager("test-secret", "wallet-profile", time.Hour),
		notifier: &fakeNotifier{},
	}

	log := zap.NewNop()
	userOpts := UserHandlerOptions{
		Users:          db,
		Sessions:       fx.sessions,
		Notifier:       fx.notifier,
		Exporter:       export.NewExporter(t.TempDir(), time.Hour, log),
		MaxUploadBytes: 1 << 20,
		Log:            log,
	}
	for _, opt := range opts {
		opt(&userOpts, fx)
	}

	userH := NewUserHandler(userOpts)
	authH := NewAuthHandler(db, fx.sessions, fx.jwt, log)
	authn := middleware.NewAuthenticator(fx.jwt, fx.sessions, db)

	r := gin.New()
	r.Use(middleware.ErrorHandler(log))

	r.GET("/auth/challenge/:address", authH.Challenge)
	r.POST("/auth/login", authH.Login)
	r.POST("/auth/logout", authn.AuthMiddleware(), authH.Logout)

	users := r.Group("/api/v1/users")
	users.GET("", userH.ListUsers)
	users.GET("/export", userH.ExportUsers)
	users.POST("", userH.CreateUser)
	users.POST("/me/age-verification", authn.AuthMiddleware(), userH.VerifyAge)
	users.GET("/:address", userH.GetUser)
	users.PATCH("/:address", authn.AuthMiddleware(), userH.UpdateUser)

	fx.router = r
	return fx
}

func (fx *fixture) seed(t *testing.T, address, nickname string) *models.User {
	t.Helper()
	user := &models.User{Address: address, Nickname: nickname, Nonce: "nonce-" + nickname}
	require.NoError(t, fx.db.SaveUser(context.Background(), user))
	return user
}

// login выдаёт токен и кладёт сессию так же, как это делает /auth/login
func (fx *fixture) login(t *testing.T, user *models.User) string {
	t.Helper()
	token, _, err := fx.jwt.Generate(user.Address)
	require.NoError(t, err)
	require.NoError(t, fx.sessions.Save(context.Background(), user))
	return token
}

func (fx *fixture) do(t *testing.T, method, path, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	fx.router.ServeHTTP(w, req)
	return w
}

func (fx *fixture) doJSON(t *testing.T, method, path, token string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	}
	return fx.do(t, method, path, token, body, "application/json")
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func (n *fakeNotifier) kinds(address string) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, e := range n.events {
		if e.address == address {
			out = append(out, e.kind)
		}
	}
	return out
}

