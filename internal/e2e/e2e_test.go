package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	accountdomain "github.com/dermalens/dermalens/internal/account/domain"
	accountrepository "github.com/dermalens/dermalens/internal/account/repository"
	accountservice "github.com/dermalens/dermalens/internal/account/service"
	analyticsrepository "github.com/dermalens/dermalens/internal/analytics/repository"
	analyticsservice "github.com/dermalens/dermalens/internal/analytics/service"
	"github.com/dermalens/dermalens/internal/auth"
	"github.com/dermalens/dermalens/internal/clock"
	"github.com/dermalens/dermalens/internal/config"
	referraldomain "github.com/dermalens/dermalens/internal/referral/domain"
	referralrepository "github.com/dermalens/dermalens/internal/referral/repository"
	referralservice "github.com/dermalens/dermalens/internal/referral/service"
	"github.com/dermalens/dermalens/internal/server"
	sessiondomain "github.com/dermalens/dermalens/internal/session/domain"
	"github.com/dermalens/dermalens/internal/session/liveevents"
	sessionrepository "github.com/dermalens/dermalens/internal/session/repository"
	sessionservice "github.com/dermalens/dermalens/internal/session/service"
	"github.com/dermalens/dermalens/internal/signup"
	subscriptiondomain "github.com/dermalens/dermalens/internal/subscription/domain"
	subscriptionrepository "github.com/dermalens/dermalens/internal/subscription/repository"
	subscriptionservice "github.com/dermalens/dermalens/internal/subscription/service"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type testEnv struct {
	db       *gorm.DB
	verifier *auth.Verifier
	httpSrv  *httptest.Server
	baseURL  string
}

var env *testEnv

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)

	var err error
	env, err = startEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to start test environment:", err)
		os.Exit(1)
	}

	code := m.Run()
	env.httpSrv.Close()
	os.Exit(code)
}

func startEnv() (*testEnv, error) {
	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := conn.AutoMigrate(
		&accountdomain.User{},
		&subscriptiondomain.Subscription{},
		&subscriptiondomain.QuizAttempt{},
		&referraldomain.ReferralCode{},
		&referraldomain.ReferralEvent{},
		&sessiondomain.Heartbeat{},
		&sessiondomain.PageView{},
	); err != nil {
		return nil, err
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return nil, err
	}
	clk := clock.SystemClock{}
	log := zap.NewNop()
	cfg := config.Config{
		Environment:      "test",
		AuthJWTSecret:    "e2e-secret",
		ReferralLinkBase: "https://dermalens.app/quiz?ref=",
	}

	accountRepo := accountrepository.Provide()
	accounts := accountservice.NewService(accountservice.ServiceParam{
		DB: conn, Log: log, GenID: node, Clock: clk, Repo: accountRepo,
	})
	subscriptions := subscriptionservice.NewService(subscriptionservice.ServiceParam{
		DB: conn, Log: log, GenID: node, Clock: clk, Repo: subscriptionrepository.Provide(),
	})
	referrals := referralservice.NewService(referralservice.ServiceParam{
		DB: conn, Log: log, GenID: node, Clock: clk,
		Repo: referralrepository.Provide(), Accounts: accountRepo, Subscriptions: subscriptions,
	})
	signups := signup.NewService(signup.ServiceParam{
		DB: conn, Log: log,
		Accounts: accounts, Subscriptions: subscriptions, Referrals: referrals,
	})
	hub := liveevents.NewHub()
	sessions := sessionservice.NewService(sessionservice.ServiceParam{
		DB: conn, Log: log, GenID: node, Clock: clk,
		Repo: sessionrepository.Provide(), Hub: hub,
	})
	analytics := analyticsservice.NewService(analyticsservice.ServiceParam{
		DB: conn, Log: log, Clock: clk,
		Repo: analyticsrepository.Provide(), Sessions: sessions,
	})
	verifier := auth.NewVerifier(cfg, clk)

	engine := gin.New()
	engine.Use(server.ErrorHandlingMiddleware())
	srv := server.NewServer(server.ServerParams{
		Gin: engine, Cfg: cfg, DB: conn, Verifier: verifier,
		AccountSvc: accounts, SubscriptionSvc: subscriptions,
		ReferralSvc: referrals, SignupSvc: signups,
		SessionSvc: sessions, AnalyticsSvc: analytics,
		LiveSessions: hub,
	})

	httpSrv := httptest.NewServer(srv.Engine())
	return &testEnv{
		db:       conn,
		verifier: verifier,
		httpSrv:  httpSrv,
		baseURL:  httpSrv.URL,
	}, nil
}

func doJSON(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()

	var payload io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		payload = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, env.baseURL+path, payload)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	decoded := map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			t.Fatalf("decode response %s: %v", string(raw), err)
		}
	}
	return resp.StatusCode, decoded
}

func signupUser(t *testing.T, email, code string) (snowflake.ID, string) {
	t.Helper()

	body := map[string]any{
		"email":     email,
		"full_name": "E2E User",
		"password":  "supersecret",
	}
	if code != "" {
		body["referral_code"] = code
	}

	status, resp := doJSON(t, http.MethodPost, "/auth/signup", "", body)
	if status != http.StatusCreated {
		t.Fatalf("signup %s: expected 201, got %d: %v", email, status, resp)
	}

	user, _ := resp["user"].(map[string]any)
	rawID, _ := user["id"].(string)
	userID, err := snowflake.ParseString(rawID)
	if err != nil {
		t.Fatalf("parse user id %q: %v", rawID, err)
	}

	token, err := env.verifier.Sign(auth.Identity{UserID: userID})
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return userID, token
}

func cleanup(t *testing.T, prefix string) {
	t.Helper()
	status, resp := doJSON(t, http.MethodPost, "/api/test/cleanup", "", map[string]any{"prefix": prefix})
	if status != http.StatusOK {
		t.Fatalf("cleanup: expected 200, got %d: %v", status, resp)
	}
}

func TestE2E_SignupGrantsBaseQuota(t *testing.T) {
	defer cleanup(t, "e2e-flow-")

	_, token := signupUser(t, "e2e-flow-user@example.com", "")

	status, resp := doJSON(t, http.MethodGet, "/subscription/me", token, nil)
	if status != http.StatusOK {
		t.Fatalf("subscription/me: expected 200, got %d: %v", status, resp)
	}
	if remaining := resp["remaining"].(float64); remaining != 5 {
		t.Fatalf("expected 5 remaining attempts, got %v", remaining)
	}
}

func TestE2E_QuotaEnforcement(t *testing.T) {
	defer cleanup(t, "e2e-quota-")

	_, token := signupUser(t, "e2e-quota-user@example.com", "")

	for i := 0; i < 5; i++ {
		status, resp := doJSON(t, http.MethodPost, "/quiz/start", token, nil)
		if status != http.StatusOK {
			t.Fatalf("quiz start %d: expected 200, got %d: %v", i+1, status, resp)
		}
	}

	status, resp := doJSON(t, http.MethodPost, "/quiz/start", token, nil)
	if status != http.StatusForbidden {
		t.Fatalf("expected 403 after quota spent, got %d: %v", status, resp)
	}
	errPayload, _ := resp["error"].(map[string]any)
	if errPayload["type"] != "quota_exceeded" {
		t.Fatalf("expected quota_exceeded error, got %v", errPayload)
	}
}

func TestE2E_ReferralAccrual(t *testing.T) {
	defer cleanup(t, "e2e-ref-")

	_, ownerToken := signupUser(t, "e2e-ref-owner@example.com", "")

	status, resp := doJSON(t, http.MethodPost, "/referrals/create", ownerToken, nil)
	if status != http.StatusOK {
		t.Fatalf("referrals/create: expected 200, got %d: %v", status, resp)
	}
	code, _ := resp["referral_code"].(string)
	if code == "" {
		t.Fatalf("expected referral code, got %v", resp)
	}

	status, resp = doJSON(t, http.MethodGet, "/referrals/validate/"+code, "", nil)
	if status != http.StatusOK {
		t.Fatalf("validate: expected 200, got %d: %v", status, resp)
	}

	_, referredToken := signupUser(t, "e2e-ref-friend@example.com", code)

	// Referred account starts with base + 1.
	status, resp = doJSON(t, http.MethodGet, "/subscription/me", referredToken, nil)
	if status != http.StatusOK {
		t.Fatalf("referred subscription/me: expected 200, got %d: %v", status, resp)
	}
	if remaining := resp["remaining"].(float64); remaining != 6 {
		t.Fatalf("expected 6 remaining for referred user, got %v", remaining)
	}

	// Referrer earned +2.
	status, resp = doJSON(t, http.MethodGet, "/subscription/me", ownerToken, nil)
	if status != http.StatusOK {
		t.Fatalf("owner subscription/me: expected 200, got %d: %v", status, resp)
	}
	if remaining := resp["remaining"].(float64); remaining != 7 {
		t.Fatalf("expected 7 remaining for referrer, got %v", remaining)
	}

	status, resp = doJSON(t, http.MethodGet, "/referrals/me", ownerToken, nil)
	if status != http.StatusOK {
		t.Fatalf("referrals/me: expected 200, got %d: %v", status, resp)
	}
	if uses := resp["uses_count"].(float64); uses != 1 {
		t.Fatalf("expected uses_count 1, got %v", uses)
	}
}

func TestE2E_SessionAndAnalytics(t *testing.T) {
	defer cleanup(t, "e2e-admin-")

	adminID, _ := signupUser(t, "e2e-admin-user@example.com", "")
	adminToken, err := env.verifier.Sign(auth.Identity{UserID: adminID, Role: auth.RoleAdmin})
	if err != nil {
		t.Fatalf("sign admin token: %v", err)
	}

	status, resp := doJSON(t, http.MethodPost, "/sessions/start", "", map[string]any{})
	if status != http.StatusOK {
		t.Fatalf("sessions/start: expected 200, got %d: %v", status, resp)
	}
	session, _ := resp["session"].(map[string]any)
	sessionID, _ := session["session_id"].(string)
	if sessionID == "" {
		t.Fatalf("expected generated session id, got %v", resp)
	}

	status, _ = doJSON(t, http.MethodPost, "/sessions/view", "", map[string]any{
		"session_id": sessionID,
		"path":       "/quiz/skin-type",
	})
	if status != http.StatusOK {
		t.Fatalf("sessions/view: expected 200, got %d", status)
	}

	status, resp = doJSON(t, http.MethodGet, "/admin/analytics?range=7", adminToken, nil)
	if status != http.StatusOK {
		t.Fatalf("admin/analytics: expected 200, got %d: %v", status, resp)
	}
	if live := resp["liveUsers"].(float64); live < 1 {
		t.Fatalf("expected at least one live session, got %v", live)
	}
	labels, _ := resp["labels"].([]any)
	if len(labels) != 7 {
		t.Fatalf("expected dense 7-day series, got %d labels", len(labels))
	}
	attempts, _ := resp["attemptsSeries"].([]any)
	if len(attempts) != 7 {
		t.Fatalf("expected dense 7-day attempts series, got %d entries", len(attempts))
	}
	visitCounts, _ := resp["visitCounts"].(map[string]any)
	if views := visitCounts["1"].(float64); views < 1 {
		t.Fatalf("expected the recorded view in the 1-day window, got %v", views)
	}

	status, _ = doJSON(t, http.MethodPost, "/sessions/end", "", map[string]any{
		"session_id":       sessionID,
		"duration_seconds": 45,
	})
	if status != http.StatusOK {
		t.Fatalf("sessions/end: expected 200, got %d", status)
	}

	status, resp = doJSON(t, http.MethodGet, "/admin/analytics?range=7", "", nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401 without admin token, got %d: %v", status, resp)
	}
}
