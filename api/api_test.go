package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"privportal/privacy-api/config"
	"privportal/privacy-api/db"
	"privportal/privacy-api/directory"
	"privportal/privacy-api/model"
	"privportal/privacy-api/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// Each test gets its own client IP so the auth rate limiter never carries
// state across tests
var testIPCounter atomic.Int64

// directoryStub fakes the contact directory's privacy API
type directoryStub struct {
	mu    sync.Mutex
	calls []string

	updateStatus int
	cards        model.CardsSnapshot
}

func (d *directoryStub) Calls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.calls...)
}

func (d *directoryStub) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d.mu.Lock()

		var call string
		switch {
		case r.Method == http.MethodPut && strings.HasPrefix(r.URL.Path, "/privacy/settings/"):
			call = "update"
		case r.Method == http.MethodPost && strings.HasPrefix(r.URL.Path, "/privacy/settings/"):
			call = "create"
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/reprocess"):
			call = "reprocess"
		case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/privacy/cards/"):
			call = "cards"
		}
		d.calls = append(d.calls, call)
		d.mu.Unlock()

		switch call {
		case "update":
			status := d.updateStatus
			if status == 0 {
				status = http.StatusOK
			}
			w.WriteHeader(status)
			if status == http.StatusBadRequest {
				json.NewEncoder(w).Encode(map[string]string{"error": "User settings not found"})
			}
		case "create":
			w.WriteHeader(http.StatusCreated)
		case "reprocess":
			json.NewEncoder(w).Encode(directory.ReprocessResult{ReprocessedCards: 1})
		case "cards":
			json.NewEncoder(w).Encode(d.cards)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

type testEnv struct {
	t    *testing.T
	api  *API
	stub *directoryStub
	ip   string
}

func newTestEnv(t *testing.T, stub *directoryStub) *testEnv {
	t.Helper()

	gin.SetMode(gin.TestMode)

	srv := httptest.NewServer(stub.handler())
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		JWTSecret:   "test-secret",
		CORSOrigins: []string{"http://localhost:5173"},
		OTP: config.OTPConfig{
			MockMode:      true,
			Expiry:        10 * time.Minute,
			DefaultRegion: "US",
		},
		Directory: config.DirectoryConfig{
			BaseURL: srv.URL,
			Timeout: 5 * time.Second,
		},
		DB: config.DBConfig{
			Driver: "sqlite",
			DSN:    fmt.Sprintf("file:%v?mode=memory&cache=shared", t.Name()),
		},
	}

	database, err := db.New(cfg)
	require.NoError(t, err)

	dir := directory.NewClient(cfg.Directory)

	a := &API{
		DB:        database,
		Cfg:       cfg,
		Directory: dir,
		Sender:    service.NewSender(cfg),
		Sync:      service.NewSyncer(database, dir),
	}
	a.setupRoutes()

	n := testIPCounter.Add(1)

	return &testEnv{
		t:    t,
		api:  a,
		stub: stub,
		ip:   fmt.Sprintf("10.0.%v.%v:1234", n/256, n%256),
	}
}

func (e *testEnv) do(method, path, token string, body any) *httptest.ResponseRecorder {
	e.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(e.t, err)
		reader = bytes.NewReader(jsonBody)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = e.ip
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.api.Router.ServeHTTP(w, req)

	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	return body
}

// requestCode runs the mock-mode request-otp flow and returns the issued
// code
func (e *testEnv) requestCode(identifier string) string {
	e.t.Helper()

	w := e.do(http.MethodPost, "/api/auth/request-otp", "", gin.H{"identifier": identifier})
	require.Equal(e.t, http.StatusOK, w.Code, w.Body.String())

	body := decodeBody(e.t, w)
	code, ok := body["code"].(string)
	require.True(e.t, ok, "mock mode response must include the code")

	return code
}

// authenticate runs the full OTP flow and returns a valid session token
func (e *testEnv) authenticate(identifier string) string {
	e.t.Helper()

	code := e.requestCode(identifier)

	w := e.do(http.MethodPost, "/api/auth/verify-otp", "", gin.H{
		"identifier": identifier,
		"code":       code,
	})
	require.Equal(e.t, http.StatusOK, w.Code, w.Body.String())

	body := decodeBody(e.t, w)
	token, ok := body["authToken"].(string)
	require.True(e.t, ok)
	require.NotEmpty(e.t, token)

	return token
}
