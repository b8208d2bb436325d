package testutil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
)

// Mock credentials expected by MockDiscordServer.
const (
	MockBotToken = "mock_bot_token"
	MockGuildID  = "111111111111111111"
)

// Resource names used for per-endpoint status overrides and call counts.
const (
	ResourceGuild    = "guild"
	ResourceChannels = "channels"
	ResourceMembers  = "members"
	ResourceRoles    = "roles"
)

// MockDiscordServer is a fake of the guild endpoints of the Discord REST API.
// Payloads are plain JSON-able values so tests can shape them freely,
// including omitting fields the real API sometimes leaves out.
type MockDiscordServer struct {
	Server *httptest.Server

	mu       sync.Mutex
	payloads map[string]any
	statuses map[string]int
	headers  map[string]http.Header
	calls    map[string]int
	queries  map[string]string
	delays   map[string]time.Duration
}

// NewMockDiscordServer starts a mock serving the default fixtures
func NewMockDiscordServer() *MockDiscordServer {
	mds := &MockDiscordServer{
		payloads: map[string]any{
			ResourceGuild:    DefaultGuildPayload(),
			ResourceChannels: DefaultChannelsPayload(),
			ResourceMembers:  DefaultMembersPayload(),
			ResourceRoles:    DefaultRolesPayload(),
		},
		statuses: make(map[string]int),
		headers:  make(map[string]http.Header),
		calls:    make(map[string]int),
		queries:  make(map[string]string),
		delays:   make(map[string]time.Duration),
	}

	prefix := "/api/v10/guilds/" + MockGuildID
	mux := http.NewServeMux()
	mux.HandleFunc(prefix, mds.handle(ResourceGuild))
	mux.HandleFunc(prefix+"/channels", mds.handle(ResourceChannels))
	mux.HandleFunc(prefix+"/members", mds.handle(ResourceMembers))
	mux.HandleFunc(prefix+"/roles", mds.handle(ResourceRoles))

	mds.Server = httptest.NewServer(mux)
	return mds
}

func (mds *MockDiscordServer) handle(resource string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mds.mu.Lock()
		mds.calls[resource]++
		mds.queries[resource] = r.URL.RawQuery
		payload := mds.payloads[resource]
		status, hasStatus := mds.statuses[resource]
		extra := mds.headers[resource]
		delay := mds.delays[resource]
		mds.mu.Unlock()

		if delay > 0 {
			time.Sleep(delay)
		}

		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		if strings.TrimPrefix(r.Header.Get("Authorization"), "Bot ") != MockBotToken {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message": "401: Unauthorized", "code": 0}`))
			return
		}

		for k, v := range extra {
			w.Header()[k] = v
		}

		if hasStatus && status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"message": "mock failure"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(payload)
	}
}

// URL returns the API base URL clients should be pointed at
func (mds *MockDiscordServer) URL() string {
	return mds.Server.URL + "/api/v10"
}

// SetPayload replaces the JSON body served for resource
func (mds *MockDiscordServer) SetPayload(resource string, payload any) {
	mds.mu.Lock()
	defer mds.mu.Unlock()
	mds.payloads[resource] = payload
}

// SetStatus makes resource answer with status and an error body
func (mds *MockDiscordServer) SetStatus(resource string, status int) {
	mds.mu.Lock()
	defer mds.mu.Unlock()
	mds.statuses[resource] = status
}

// SetHeaders adds response headers for resource
func (mds *MockDiscordServer) SetHeaders(resource string, headers http.Header) {
	mds.mu.Lock()
	defer mds.mu.Unlock()
	mds.headers[resource] = headers
}

// SetDelay makes every answer for resource wait d before it is written
func (mds *MockDiscordServer) SetDelay(resource string, d time.Duration) {
	mds.mu.Lock()
	defer mds.mu.Unlock()
	mds.delays[resource] = d
}

// Calls returns how many requests hit resource
func (mds *MockDiscordServer) Calls(resource string) int {
	mds.mu.Lock()
	defer mds.mu.Unlock()
	return mds.calls[resource]
}

// LastQuery returns the raw query string of the latest request to resource
func (mds *MockDiscordServer) LastQuery(resource string) string {
	mds.mu.Lock()
	defer mds.mu.Unlock()
	return mds.queries[resource]
}

// ResetCallCounts resets the call counters.
func (mds *MockDiscordServer) ResetCallCounts() {
	mds.mu.Lock()
	defer mds.mu.Unlock()
	mds.calls = make(map[string]int)
}

// Close closes the mock server.
func (mds *MockDiscordServer) Close() {
	if mds.Server != nil {
		mds.Server.Close()
	}
}
