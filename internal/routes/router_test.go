package routes

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"label-cabinet/backstage/internal/api"
	"label-cabinet/backstage/internal/auth"
	"label-cabinet/backstage/internal/common"
	"label-cabinet/backstage/internal/config"
	"label-cabinet/backstage/internal/constants"
	"label-cabinet/backstage/internal/db/repositories"
	"label-cabinet/backstage/internal/events"
	"label-cabinet/backstage/internal/mailer"
	"label-cabinet/backstage/internal/metrics"
	gormModels "label-cabinet/backstage/internal/models/gorm"
	"label-cabinet/backstage/internal/realtime"
	"label-cabinet/backstage/internal/services"
	"label-cabinet/backstage/internal/storage"
)

const (
	artistID = "00000000-0000-0000-0000-000000000001"
	ownerID  = "00000000-0000-0000-0000-000000000003"
)

type testServer struct {
	t        *testing.T
	handler  http.Handler
	db       *gorm.DB
	verifier *auth.TokenVerifier
}

func newTestServer(t *testing.T) *testServer {
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	sqlDB, _ := gdb.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	if err := gdb.AutoMigrate(gormModels.AllModels()...); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}

	store, err := storage.NewLocalStorage(t.TempDir(), "http://localhost:8080")
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	cache := common.NewCacheService(60, 120)
	hub := realtime.NewHub(metrics.NewMetricsRegistry())
	publisher := events.NewLogPublisher()
	verifier := auth.NewTokenVerifier("test-secret")
	sqlxDB := sqlx.NewDb(sqlDB, "sqlite3")

	deps := &api.Dependencies{
		DB:       sqlxDB,
		Verifier: verifier,
		Connect:  common.NewConnectTicketSigner([]byte("test-secret"), cache),
		Hub:      hub,
		Repo:     &api.Repositories{Keys: repositories.NewApiKeysRepo(sqlxDB)},
		Services: &api.Services{
			Profiles:    services.NewProfileService(gdb, cache, store, hub),
			Finance:     services.NewFinanceService(gdb, nil, publisher, hub, decimal.NewFromInt(10)),
			Releases:    services.NewReleaseService(gdb, store, publisher, hub),
			Tickets:     services.NewTicketService(gdb, cache, store, hub),
			News:        services.NewNewsService(gdb, cache, hub),
			EmailChange: services.NewEmailChangeService(gdb, mailer.LogMailer{}, nil, "http://localhost:8080"),
			Overview:    services.NewOverviewService(gdb),
		},
		UpSince: time.Now(),
	}

	cfg := &config.Config{AppEnv: "production", CORSOrigins: []string{"*"}}

	return &testServer{
		t:        t,
		handler:  RegisterRoutes(cfg, deps, store.Root()),
		db:       gdb,
		verifier: verifier,
	}
}

func (s *testServer) token(userID, email string) string {
	token, err := s.verifier.Sign(userID, email, time.Hour)
	if err != nil {
		s.t.Fatalf("Failed to sign token: %v", err)
	}
	return token
}

// do sends a JSON request and decodes the standard response envelope.
func (s *testServer) do(method, path, token string, body any, headers ...string) (int, map[string]any) {
	var reader io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)

	var resp map[string]any
	_ = json.Unmarshal(rr.Body.Bytes(), &resp)
	return rr.Code, resp
}

func (s *testServer) seedOwner() string {
	owner := &gormModels.Profile{
		ID:       ownerID,
		Email:    "owner@label.test",
		Nickname: "owner",
		Role:     constants.RoleOwner,
		Balance:  decimal.Zero,
		MemberID: "LBL-000003",
	}
	if err := s.db.Create(owner).Error; err != nil {
		s.t.Fatalf("Failed to seed owner: %v", err)
	}
	return s.token(ownerID, "owner@label.test")
}

func TestRoutes_RequireAuthentication(t *testing.T) {
	s := newTestServer(t)

	code, resp := s.do(http.MethodGet, "/api/profile", "", nil)
	if code != http.StatusUnauthorized {
		t.Fatalf("Expected 401, got %d", code)
	}
	if resp["status"] != "error" {
		t.Errorf("Expected error envelope, got %v", resp)
	}
}

func TestRoutes_ProfileProvisionedOnFirstRequest(t *testing.T) {
	s := newTestServer(t)
	token := s.token(artistID, "Artist@Label.test")

	code, resp := s.do(http.MethodGet, "/api/profile", token, nil)
	if code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %v", code, resp)
	}
	data := resp["data"].(map[string]any)
	if data["email"] != "artist@label.test" || data["role"] != "basic" {
		t.Errorf("Expected provisioned basic profile, got %v", data)
	}

	code, resp = s.do(http.MethodPatch, "/api/profile", token, map[string]string{"nickname": "x"})
	if code != http.StatusBadRequest {
		t.Errorf("Expected 400 for short nickname, got %d: %v", code, resp)
	}
}

func TestRoutes_AdminGate(t *testing.T) {
	s := newTestServer(t)
	artist := s.token(artistID, "artist@label.test")

	if code, _ := s.do(http.MethodGet, "/api/admin/overview", artist, nil); code != http.StatusForbidden {
		t.Errorf("Expected 403 for artist, got %d", code)
	}

	owner := s.seedOwner()
	code, resp := s.do(http.MethodGet, "/api/admin/overview", owner, nil)
	if code != http.StatusOK {
		t.Fatalf("Expected 200 for owner, got %d: %v", code, resp)
	}
}

func TestRoutes_PayoutThenWithdrawal(t *testing.T) {
	s := newTestServer(t)
	artist := s.token(artistID, "artist@label.test")
	owner := s.seedOwner()

	// Provision the artist profile.
	s.do(http.MethodGet, "/api/profile", artist, nil)

	withdrawal := map[string]string{
		"amount":      "40",
		"method":      "card",
		"card_number": "4111 1111 1111 1111",
		"card_holder": "TEST ARTIST",
	}

	code, _ := s.do(http.MethodPost, "/api/finance/withdrawals", artist, withdrawal)
	if code != http.StatusUnprocessableEntity {
		t.Fatalf("Expected 422 with empty balance, got %d", code)
	}

	code, resp := s.do(http.MethodPost, "/api/admin/payouts", owner, map[string]string{
		"user_id": artistID,
		"amount":  "100",
		"period":  "2026-Q3",
	})
	if code != http.StatusCreated {
		t.Fatalf("Expected 201 for payout, got %d: %v", code, resp)
	}

	code, resp = s.do(http.MethodPost, "/api/finance/withdrawals", artist, withdrawal, "Idempotency-Key", "k-1")
	if code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %v", code, resp)
	}
	data := resp["data"].(map[string]any)
	if data["card_number"] != "************1111" {
		t.Errorf("Expected masked card number, got %v", data["card_number"])
	}
	firstID := data["id"]

	code, resp = s.do(http.MethodPost, "/api/finance/withdrawals", artist, withdrawal, "Idempotency-Key", "k-1")
	if code != http.StatusOK {
		t.Fatalf("Expected 200 for repeated key, got %d: %v", code, resp)
	}
	if resp["data"].(map[string]any)["id"] != firstID {
		t.Error("Expected the original request to be returned")
	}

	code, resp = s.do(http.MethodGet, "/api/finance/balance", artist, nil)
	if code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", code)
	}
	balance, _ := decimal.NewFromString(resp["data"].(map[string]any)["balance"].(string))
	if !balance.Equal(decimal.NewFromInt(60)) {
		t.Errorf("Expected balance 60 after one debit, got %s", balance)
	}

	code, _ = s.do(http.MethodPost, "/api/admin/withdrawals/"+firstID.(string)+"/reject", owner, map[string]string{"comment": "wrong card"})
	if code != http.StatusOK {
		t.Fatalf("Expected 200 for reject, got %d", code)
	}
	code, _ = s.do(http.MethodPost, "/api/admin/withdrawals/"+firstID.(string)+"/approve", owner, nil)
	if code != http.StatusConflict {
		t.Errorf("Expected 409 approving a rejected request, got %d", code)
	}
}

func TestRoutes_ConfirmEmailChangeUnknownToken(t *testing.T) {
	s := newTestServer(t)

	if code, _ := s.do(http.MethodGet, "/api/confirm-email-change?token=deadbeef", "", nil); code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", code)
	}
	if code, _ := s.do(http.MethodGet, "/api/confirm-email-change", "", nil); code != http.StatusBadRequest {
		t.Errorf("Expected 400 without token, got %d", code)
	}
}

func TestRoutes_UploadAvatarServedFromFiles(t *testing.T) {
	s := newTestServer(t)
	token := s.token(artistID, "artist@label.test")

	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, _ := mw.CreateFormFile("file", "me.png")
	part.Write(png)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/profile/avatar", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Data gormModels.Profile `json:"data"`
	}
	json.Unmarshal(rr.Body.Bytes(), &resp)
	if resp.Data.Avatar == nil {
		t.Fatal("Expected avatar URL")
	}

	path := (*resp.Data.Avatar)[len("http://localhost:8080"):]
	rr = httptest.NewRecorder()
	s.handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	if rr.Code != http.StatusOK || !bytes.Equal(rr.Body.Bytes(), png) {
		t.Errorf("Expected stored file served at %s, got %d", path, rr.Code)
	}
}

func TestRoutes_AttachmentNotServedAsHTML(t *testing.T) {
	s := newTestServer(t)
	token := s.token(artistID, "artist@label.test")

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, _ := mw.CreateFormFile("file", "notes.html")
	part.Write([]byte("hello <script>alert(document.domain)</script>"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/support/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Data struct {
			FileName    string `json:"file_name"`
			URL         string `json:"url"`
			ContentType string `json:"content_type"`
		} `json:"data"`
	}
	json.Unmarshal(rr.Body.Bytes(), &resp)
	if resp.Data.FileName != "notes.html" || resp.Data.ContentType != "text/plain" {
		t.Errorf("Expected original name with sniffed type, got %+v", resp.Data)
	}
	if strings.HasSuffix(resp.Data.URL, ".html") {
		t.Errorf("Expected stored extension to follow sniffed type, got %s", resp.Data.URL)
	}

	path := resp.Data.URL[len("http://localhost:8080"):]
	rr = httptest.NewRecorder()
	s.handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); strings.HasPrefix(ct, "text/html") {
		t.Errorf("Expected non-HTML content type, got %s", ct)
	}
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("Expected nosniff header")
	}
	if rr.Header().Get("Content-Disposition") != "attachment" {
		t.Error("Expected attachment disposition")
	}
}

func TestRoutes_HealthCheck(t *testing.T) {
	s := newTestServer(t)

	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthCheck", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
}
