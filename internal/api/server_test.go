package api

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/gafdot/backend-consumo-energetico/internal/auth"
	"github.com/gafdot/backend-consumo-energetico/internal/infrastructure/config"
	"github.com/gafdot/backend-consumo-energetico/internal/infrastructure/logging"
	"github.com/gafdot/backend-consumo-energetico/internal/sensor"
)

// testSecret is the signing secret used by API tests.
const testSecret = "0123456789abcdef0123456789abcdef"

// testLogger returns a logger that discards all output.
func testLogger() *logging.Logger {
	return &logging.Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// testWSConfig returns WebSocket settings suitable for fast tests.
func testWSConfig() config.WebSocketConfig {
	return config.WebSocketConfig{
		MaxMessageSize: 8192,
		PingInterval:   30,
		PongTimeout:    10,
		SendBuffer:     8,
	}
}

// newTestServer creates a fully wired Server on an in-memory database.
func newTestServer(t *testing.T) *Server {
	t.Helper()
	return newTestServerWithLogger(t, testLogger())
}

// newTestServerWithLogger is newTestServer with a caller-supplied logger,
// for tests that assert on log output.
func newTestServerWithLogger(t *testing.T, logger *logging.Logger) *Server {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup

	schema := `
		CREATE TABLE usuarios (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			username      TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			created_at    TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		);
		CREATE TABLE dados_sensores (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			sensor_id   INTEGER NOT NULL,
			temperatura REAL NOT NULL,
			timestamp   TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		);
	`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	hub := NewHub(testWSConfig(), logger)

	authService := auth.NewService(auth.NewAccountRepository(db), testSecret, time.Hour)
	sensorService := sensor.NewService(sensor.NewRepository(db), hub, nil)

	server, err := New(Deps{
		Config:  config.ServerConfig{Host: "127.0.0.1", Port: 0},
		WS:      testWSConfig(),
		Logger:  logger,
		Auth:    authService,
		Sensors: sensorService,
		Hub:     hub,
		Version: "test",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	return server
}

// doJSON performs a request with a JSON body against the router.
func doJSON(t *testing.T, handler http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

// registerAndLogin creates an account and returns a session token.
func registerAndLogin(t *testing.T, handler http.Handler, username string) string {
	t.Helper()

	creds := map[string]string{"username": username, "password": "s3cret"}

	rec := doJSON(t, handler, http.MethodPost, "/register", "", creds)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /register status = %d, want 201 (body: %s)", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, handler, http.MethodPost, "/login", "", creds)
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /login status = %d, want 200 (body: %s)", rec.Code, rec.Body.String())
	}

	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode login response: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("login response carries no token")
	}
	return resp.Token
}

// TestHealthEndpoint verifies GET /health.
func TestHealthEndpoint(t *testing.T) {
	router := newTestServer(t).buildRouter()

	rec := doJSON(t, router, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("GET /health status = %d, want 200", rec.Code)
	}
}

// TestRegister verifies account registration through the API.
func TestRegister(t *testing.T) {
	router := newTestServer(t).buildRouter()
	creds := map[string]string{"username": "alice", "password": "s3cret"}

	t.Run("creates account", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/register", "", creds)
		if rec.Code != http.StatusCreated {
			t.Errorf("status = %d, want 201", rec.Code)
		}
	})

	t.Run("duplicate username", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/register", "", creds)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
		var resp Error
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode error response: %v", err)
		}
		if resp.Message != "usuário já existe" {
			t.Errorf("message = %q, want duplicate-user message", resp.Message)
		}
	})

	t.Run("missing fields", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/register", "", map[string]string{"username": "bob"})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/register", bytes.NewBufferString("{not json"))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

// TestLogin verifies credential checking through the API.
func TestLogin(t *testing.T) {
	router := newTestServer(t).buildRouter()
	creds := map[string]string{"username": "alice", "password": "s3cret"}

	rec := doJSON(t, router, http.MethodPost, "/register", "", creds)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /register status = %d, want 201", rec.Code)
	}

	t.Run("valid credentials", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/login", "", creds)
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/login", "",
			map[string]string{"username": "alice", "password": "wrong"})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("unknown username", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/login", "",
			map[string]string{"username": "mallory", "password": "s3cret"})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

// TestAuthMiddleware verifies the missing/invalid/expired token distinction.
func TestAuthMiddleware(t *testing.T) {
	router := newTestServer(t).buildRouter()

	t.Run("missing token", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/dados-sensores", "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
		var resp Error
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode error response: %v", err)
		}
		if resp.Message != "token não fornecido" {
			t.Errorf("message = %q, want missing-token message", resp.Message)
		}
	})

	t.Run("invalid token", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/dados-sensores", "garbage", nil)
		if rec.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rec.Code)
		}
	})

	t.Run("token signed with another secret", func(t *testing.T) {
		token, err := auth.IssueToken(1, "another-secret-of-sufficient-len", time.Hour)
		if err != nil {
			t.Fatalf("IssueToken() error = %v", err)
		}
		rec := doJSON(t, router, http.MethodGet, "/dados-sensores", token, nil)
		if rec.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rec.Code)
		}
	})

	t.Run("expired token", func(t *testing.T) {
		token, err := auth.IssueToken(1, testSecret, -time.Minute)
		if err != nil {
			t.Fatalf("IssueToken() error = %v", err)
		}
		rec := doJSON(t, router, http.MethodGet, "/dados-sensores", token, nil)
		if rec.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rec.Code)
		}
		var resp Error
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode error response: %v", err)
		}
		if resp.Message != "sessão expirada" {
			t.Errorf("message = %q, want expired-session message", resp.Message)
		}
	})
}

// TestReadings verifies the ingest and query endpoints.
func TestReadings(t *testing.T) {
	router := newTestServer(t).buildRouter()
	token := registerAndLogin(t, router, "alice")

	t.Run("ingest is unauthenticated", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/dados-sensores", "",
			map[string]any{"sensor_id": 1, "temperatura": 22.5, "timestamp": "2026-08-15T10:00:00Z"})
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200 (body: %s)", rec.Code, rec.Body.String())
		}
	})

	t.Run("ingest rejects bad timestamp", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/dados-sensores", "",
			map[string]any{"sensor_id": 1, "temperatura": 22.5, "timestamp": "yesterday"})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("list returns stored readings", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/dados-sensores", token, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		var readings []sensor.Reading
		if err := json.Unmarshal(rec.Body.Bytes(), &readings); err != nil {
			t.Fatalf("failed to decode readings: %v", err)
		}
		if len(readings) != 1 {
			t.Fatalf("got %d readings, want 1", len(readings))
		}
		if readings[0].Temperatura != 22.5 {
			t.Errorf("temperatura = %v, want 22.5", readings[0].Temperatura)
		}
	})

	t.Run("range query is inclusive", func(t *testing.T) {
		path := "/dados-sensores/tempo?inicio=2026-08-15T10:00:00Z&fim=2026-08-15T10:00:00Z"
		rec := doJSON(t, router, http.MethodGet, path, token, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		var readings []sensor.Reading
		if err := json.Unmarshal(rec.Body.Bytes(), &readings); err != nil {
			t.Fatalf("failed to decode readings: %v", err)
		}
		if len(readings) != 1 {
			t.Errorf("got %d readings, want 1 (bounds are inclusive)", len(readings))
		}
	})

	t.Run("range query requires both bounds", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/dados-sensores/tempo?inicio=2026-08-15T10:00:00Z", token, nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("clear requires auth", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodDelete, "/limpar-dados", "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("clear removes everything", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodDelete, "/limpar-dados", token, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}

		rec = doJSON(t, router, http.MethodGet, "/dados-sensores", token, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		var readings []sensor.Reading
		if err := json.Unmarshal(rec.Body.Bytes(), &readings); err != nil {
			t.Fatalf("failed to decode readings: %v", err)
		}
		if len(readings) != 0 {
			t.Errorf("got %d readings after clear, want 0", len(readings))
		}
	})
}

// TestClearAuditLog verifies the bulk clear logs the acting account by name.
func TestClearAuditLog(t *testing.T) {
	var buf bytes.Buffer
	logger := &logging.Logger{Logger: slog.New(slog.NewTextHandler(&buf, nil))}

	router := newTestServerWithLogger(t, logger).buildRouter()
	token := registerAndLogin(t, router, "alice")

	rec := doJSON(t, router, http.MethodDelete, "/limpar-dados", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("DELETE /limpar-dados status = %d, want 200", rec.Code)
	}

	logged := buf.String()
	if !strings.Contains(logged, "reading table cleared") {
		t.Fatal("clear was not logged")
	}
	if !strings.Contains(logged, "username=alice") {
		t.Errorf("audit log does not name the acting account: %s", logged)
	}
}

// TestCORS verifies preflight handling.
func TestCORS(t *testing.T) {
	router := newTestServer(t).buildRouter()

	req := httptest.NewRequest(http.MethodOptions, "/dados-sensores", nil)
	req.Header.Set("Origin", "http://dashboard.example")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("OPTIONS status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://dashboard.example" {
		t.Errorf("Access-Control-Allow-Origin = %q, want the request origin", got)
	}
}

// TestRequestID verifies request ID propagation.
func TestRequestID(t *testing.T) {
	router := newTestServer(t).buildRouter()

	t.Run("generates an id", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/health", "", nil)
		if rec.Header().Get("X-Request-ID") == "" {
			t.Error("response carries no X-Request-ID header")
		}
	})

	t.Run("echoes a supplied id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("X-Request-ID", "test-id-123")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if got := rec.Header().Get("X-Request-ID"); got != "test-id-123" {
			t.Errorf("X-Request-ID = %q, want test-id-123", got)
		}
	})
}

// TestNewValidatesDeps verifies dependency validation.
func TestNewValidatesDeps(t *testing.T) {
	logger := testLogger()
	hub := NewHub(testWSConfig(), logger)

	tests := []struct {
		name string
		deps Deps
	}{
		{"missing logger", Deps{Auth: &auth.Service{}, Sensors: &sensor.Service{}, Hub: hub}},
		{"missing auth", Deps{Logger: logger, Sensors: &sensor.Service{}, Hub: hub}},
		{"missing sensors", Deps{Logger: logger, Auth: &auth.Service{}, Hub: hub}},
		{"missing hub", Deps{Logger: logger, Auth: &auth.Service{}, Sensors: &sensor.Service{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.deps); err == nil {
				t.Error("New() should fail with incomplete dependencies")
			}
		})
	}
}
