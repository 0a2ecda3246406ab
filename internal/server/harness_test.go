package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/MarcoPoloResearchLab/pulse/backend/internal/auth"
	"github.com/MarcoPoloResearchLab/pulse/backend/internal/content"
	"github.com/MarcoPoloResearchLab/pulse/backend/internal/currency"
	"github.com/MarcoPoloResearchLab/pulse/backend/internal/database"
	"github.com/MarcoPoloResearchLab/pulse/backend/internal/ids"
	"github.com/MarcoPoloResearchLab/pulse/backend/internal/mail"
	"github.com/MarcoPoloResearchLab/pulse/backend/internal/messages"
	"github.com/MarcoPoloResearchLab/pulse/backend/internal/push"
	"github.com/MarcoPoloResearchLab/pulse/backend/internal/ranking"
	"github.com/MarcoPoloResearchLab/pulse/backend/internal/users"
	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
)

const (
	testSessionSecret = "session-secret"
	testVisitorSecret = "visitor-secret"
	testCookieName    = "app_session"
	testSessionIssuer = "tauth"
	testAdminUserID   = "admin-1"
	testMemberUserID  = "member-1"
)

type stubFetcher struct {
	mu    sync.Mutex
	rates map[string]float64
	err   error
}

func (f *stubFetcher) FetchRates(_ context.Context, base string) (map[string]float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	rates := map[string]float64{base: 1}
	for code, value := range f.rates {
		rates[code] = value
	}
	return rates, nil
}

type stubContactSender struct {
	messages []mail.ContactMessage
	err      error
}

func (s *stubContactSender) SendContactMessage(_ context.Context, msg mail.ContactMessage) error {
	if s.err != nil {
		return s.err
	}
	s.messages = append(s.messages, msg)
	return nil
}

type recordingReporter struct {
	mu       sync.Mutex
	captured []error
}

func (r *recordingReporter) CaptureError(_ context.Context, err error, _ map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.captured = append(r.captured, err)
}

func (r *recordingReporter) Flush(time.Duration) bool { return true }

func (r *recordingReporter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.captured)
}

type testServer struct {
	handler  http.Handler
	db       *gorm.DB
	ranking  *ranking.Service
	realtime *RealtimeDispatcher
	fetcher  *stubFetcher
	contact  *stubContactSender
	reporter *recordingReporter
	logs     *observer.ObservedLogs
	now      time.Time
}

type testServerOption func(*Dependencies)

func withoutContact() testServerOption {
	return func(deps *Dependencies) {
		deps.Contact = nil
	}
}

func newTestServer(t *testing.T, options ...testServerOption) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	databaseName := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", databaseName)), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := database.Migrate(db, zap.NewNop()); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}

	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)
	server := &testServer{
		db:       db,
		realtime: NewRealtimeDispatcher(),
		fetcher:  &stubFetcher{rates: map[string]float64{"EUR": 0.5, "ARS": 1000}},
		contact:  &stubContactSender{},
		reporter: &recordingReporter{},
		logs:     logs,
		now:      time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return server.now }

	rankingRepository, err := ranking.NewGormRepository(db)
	if err != nil {
		t.Fatalf("failed to build ranking repository: %v", err)
	}
	rankingService, err := ranking.NewService(ranking.ServiceConfig{
		Repository: rankingRepository,
		Clock:      clock,
		IDProvider: ids.NewUUIDProvider(),
		Logger:     logger,
		Events:     server.realtime,
	})
	if err != nil {
		t.Fatalf("failed to build ranking service: %v", err)
	}
	server.ranking = rankingService

	rateStore, err := currency.NewGormStore(db)
	if err != nil {
		t.Fatalf("failed to build rate store: %v", err)
	}
	currencyService, err := currency.NewService(currency.ServiceConfig{
		Store:   rateStore,
		Fetcher: server.fetcher,
		Clock:   clock,
		Logger:  logger,
	})
	if err != nil {
		t.Fatalf("failed to build currency service: %v", err)
	}

	pushRepository, err := push.NewGormRepository(db)
	if err != nil {
		t.Fatalf("failed to build push repository: %v", err)
	}
	pushService, err := push.NewService(push.ServiceConfig{
		Repository: pushRepository,
		IDProvider: ids.NewUUIDProvider(),
		Clock:      clock,
		Logger:     logger,
	})
	if err != nil {
		t.Fatalf("failed to build push service: %v", err)
	}

	postRepository, err := content.NewGormRepository(db)
	if err != nil {
		t.Fatalf("failed to build post repository: %v", err)
	}
	contentService, err := content.NewService(content.ServiceConfig{
		Repository: postRepository,
		IDProvider: ids.NewUUIDProvider(),
		Clock:      clock,
		Logger:     logger,
	})
	if err != nil {
		t.Fatalf("failed to build content service: %v", err)
	}

	sessions, err := auth.NewSessionValidator(auth.SessionValidatorConfig{
		SigningSecret: []byte(testSessionSecret),
		Issuer:        testSessionIssuer,
		CookieName:    testCookieName,
		Clock:         clock,
	})
	if err != nil {
		t.Fatalf("failed to build session validator: %v", err)
	}
	visitors, err := auth.NewVisitorTokenIssuer(auth.VisitorTokenIssuerConfig{
		SigningSecret: []byte(testVisitorSecret),
		IDProvider:    ids.NewUUIDProvider(),
		Clock:         clock,
	})
	if err != nil {
		t.Fatalf("failed to build visitor issuer: %v", err)
	}
	identityStore, err := users.NewGormIdentityStore(db)
	if err != nil {
		t.Fatalf("failed to build identity store: %v", err)
	}
	members, err := users.NewService(users.ServiceConfig{Store: identityStore, Clock: clock, Logger: logger})
	if err != nil {
		t.Fatalf("failed to build member service: %v", err)
	}
	catalog, err := messages.NewCatalog("en")
	if err != nil {
		t.Fatalf("failed to load catalog: %v", err)
	}

	deps := Dependencies{
		Ranking:  rankingService,
		Currency: currencyService,
		Push:     pushService,
		Content:  contentService,
		Sessions: sessions,
		Visitors: visitors,
		Members:  members,
		Contact:  server.contact,
		Catalog:  catalog,
		Reporter: server.reporter,
		Realtime: server.realtime,
		Logger:   logger,
	}
	for _, option := range options {
		option(&deps)
	}
	handler, err := NewHTTPHandler(deps)
	if err != nil {
		t.Fatalf("failed to build handler: %v", err)
	}
	server.handler = handler
	return server
}

func (s *testServer) sessionToken(t *testing.T, userID string, roles ...string) string {
	t.Helper()
	claims := auth.SessionClaims{
		UserID:          userID,
		UserEmail:       userID + "@example.com",
		UserDisplayName: userID,
		UserRoles:       roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    testSessionIssuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(s.now.Add(-time.Minute)),
			NotBefore: jwt.NewNumericDate(s.now.Add(-time.Minute)),
			ExpiresAt: jwt.NewNumericDate(s.now.Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSessionSecret))
	if err != nil {
		t.Fatalf("failed to sign session token: %v", err)
	}
	return signed
}

type requestOption func(*http.Request)

func withSession(token string) requestOption {
	return func(request *http.Request) {
		request.AddCookie(&http.Cookie{Name: testCookieName, Value: token})
	}
}

func withHeader(name, value string) requestOption {
	return func(request *http.Request) {
		request.Header.Set(name, value)
	}
}

func (s *testServer) do(t *testing.T, method, path string, body any, options ...requestOption) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch typed := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(typed))
	default:
		encoded, err := json.Marshal(typed)
		if err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	}
	request := httptest.NewRequest(method, path, reader)
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	for _, option := range options {
		option(request)
	}
	recorder := httptest.NewRecorder()
	s.handler.ServeHTTP(recorder, request)
	return recorder
}

func decodeBody[T any](t *testing.T, recorder *httptest.ResponseRecorder) T {
	t.Helper()
	var value T
	if err := json.Unmarshal(recorder.Body.Bytes(), &value); err != nil {
		t.Fatalf("failed to decode response %q: %v", recorder.Body.String(), err)
	}
	return value
}

func expectStatus(t *testing.T, recorder *httptest.ResponseRecorder, status int) {
	t.Helper()
	if recorder.Code != status {
		t.Fatalf("unexpected status: got %d, want %d (body %s)", recorder.Code, status, recorder.Body.String())
	}
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
