package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
)

// FakeVaultServer provides a minimal in-process stand-in for the secret
// server's HTTP API: versioned key-value operations under the "secret" mount,
// self credential renewal, and the unauthenticated health endpoint. It records
// per-path read counts and renewal counts so tests can assert on how many
// round trips an operation performed.
type FakeVaultServer struct {
	// Token is the bearer credential required on authenticated paths.
	Token string

	mu         sync.Mutex
	secrets    map[string]map[string]interface{}
	readCounts map[string]int
	renewCount int
	sealed     bool
	failStatus map[string]int

	server *httptest.Server
}

// NewFakeVaultServer creates and starts a new fake secret server.
func NewFakeVaultServer() *FakeVaultServer {
	s := &FakeVaultServer{
		Token:      "test-root-token",
		secrets:    map[string]map[string]interface{}{},
		readCounts: map[string]int{},
		failStatus: map[string]int{},
	}
	s.server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// URL returns the server's base URL.
func (s *FakeVaultServer) URL() string {
	return s.server.URL
}

// Close shuts the server down. Requests made afterwards fail at the network
// level, which simulates an unreachable secret server.
func (s *FakeVaultServer) Close() {
	s.server.Close()
}

// SetSecret seeds the payload stored at the given logical path.
func (s *FakeVaultServer) SetSecret(path string, payload map[string]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secrets[path] = payload
}

// DeleteSecretPath removes the payload stored at the given logical path.
func (s *FakeVaultServer) DeleteSecretPath(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.secrets, path)
}

// ReadCount returns how many read requests have hit the given logical path.
func (s *FakeVaultServer) ReadCount(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readCounts[path]
}

// RenewCount returns how many credential renewal requests the server has
// received.
func (s *FakeVaultServer) RenewCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.renewCount
}

// SetSealed marks the server as sealed or unsealed, which only affects the
// health endpoint.
func (s *FakeVaultServer) SetSealed(sealed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sealed = sealed
}

// FailPath forces requests against the given logical path (e.g.
// "secret/data/jwt/config" or "auth/token/renew-self") to fail with the given
// status.
func (s *FakeVaultServer) FailPath(path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failStatus[path] = status
}

// ClearFailures removes all forced failures.
func (s *FakeVaultServer) ClearFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failStatus = map[string]int{}
}

func (s *FakeVaultServer) handle(w http.ResponseWriter, r *http.Request) {
	logicalPath := strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, "/v1"), "/")

	if logicalPath == "sys/health" {
		s.handleHealth(w)
		return
	}

	if r.Header.Get("X-Vault-Token") != s.Token {
		writeErrors(w, http.StatusForbidden, "permission denied")
		return
	}

	s.mu.Lock()
	status, forced := s.failStatus[logicalPath]
	s.mu.Unlock()
	if forced {
		if isRead(r, logicalPath) {
			s.countRead(logicalPath)
		}
		writeErrors(w, status, "forced failure")
		return
	}

	switch {
	case logicalPath == "auth/token/renew-self":
		s.handleRenew(w)
	case strings.HasPrefix(logicalPath, "secret/data/"):
		s.handleData(w, r, strings.TrimPrefix(logicalPath, "secret/data/"))
	case strings.HasPrefix(logicalPath, "secret/metadata/"):
		s.handleMetadata(w, r, strings.TrimPrefix(logicalPath, "secret/metadata/"))
	default:
		writeErrors(w, http.StatusNotFound, "unsupported path")
	}
}

func isRead(r *http.Request, logicalPath string) bool {
	return r.Method == http.MethodGet && strings.HasPrefix(logicalPath, "secret/data/")
}

func (s *FakeVaultServer) countRead(logicalPath string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readCounts[logicalPath]++
}

func (s *FakeVaultServer) handleHealth(w http.ResponseWriter) {
	s.mu.Lock()
	sealed := s.sealed
	s.mu.Unlock()

	// The real server's health endpoint encodes seal status in the response
	// code, but clients ask for a 2xx via query parameters and inspect the
	// body, so the body alone is enough here.
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"initialized": true,
		"sealed":      sealed,
		"standby":     false,
	})
}

func (s *FakeVaultServer) handleRenew(w http.ResponseWriter) {
	s.mu.Lock()
	s.renewCount++
	token := s.Token
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"auth": map[string]interface{}{
			"client_token":   token,
			"lease_duration": 3600,
			"renewable":      true,
		},
	})
}

func (s *FakeVaultServer) handleData(w http.ResponseWriter, r *http.Request, secretPath string) {
	switch r.Method {
	case http.MethodGet:
		s.countRead("secret/data/" + secretPath)

		s.mu.Lock()
		payload, ok := s.secrets[secretPath]
		s.mu.Unlock()
		if !ok {
			writeErrors(w, http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"data": map[string]interface{}{
				"data":     payload,
				"metadata": map[string]interface{}{"version": 1},
			},
		})
	case http.MethodPost, http.MethodPut:
		var body struct {
			Data map[string]interface{} `json:"data"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Data == nil {
			writeErrors(w, http.StatusBadRequest, "missing data")
			return
		}

		s.mu.Lock()
		s.secrets[secretPath] = body.Data
		s.mu.Unlock()

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"data": map[string]interface{}{"version": 1},
		})
	default:
		writeErrors(w, http.StatusMethodNotAllowed, "unsupported method")
	}
}

func (s *FakeVaultServer) handleMetadata(w http.ResponseWriter, r *http.Request, secretPath string) {
	isList := r.Method == "LIST" || (r.Method == http.MethodGet && r.URL.Query().Get("list") == "true")

	switch {
	case isList:
		keys := s.childKeys(secretPath)
		if len(keys) == 0 {
			writeErrors(w, http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"data": map[string]interface{}{"keys": keys},
		})
	case r.Method == http.MethodDelete:
		s.mu.Lock()
		delete(s.secrets, secretPath)
		s.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	default:
		writeErrors(w, http.StatusMethodNotAllowed, "unsupported method")
	}
}

// childKeys returns the names of the entries directly under the given path,
// with a trailing slash on entries that have deeper descendants, matching the
// real server's list behavior.
func (s *FakeVaultServer) childKeys(prefix string) []interface{} {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seen := map[string]struct{}{}
	for p := range s.secrets {
		if !strings.HasPrefix(p, prefix) {
			continue
		}
		rest := strings.TrimPrefix(p, prefix)
		if idx := strings.Index(rest, "/"); idx >= 0 {
			seen[rest[:idx+1]] = struct{}{}
		} else {
			seen[rest] = struct{}{}
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)

	keys := make([]interface{}, 0, len(names))
	for _, name := range names {
		keys = append(keys, name)
	}
	return keys
}

func writeJSON(w http.ResponseWriter, status int, body map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeErrors(w http.ResponseWriter, status int, errs ...string) {
	if errs == nil {
		errs = []string{}
	}
	writeJSON(w, status, map[string]interface{}{"errors": errs})
}
