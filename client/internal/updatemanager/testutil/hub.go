// Package testutil provides an in-process update server for tests.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/gorilla/mux"
)

// Responder answers version requests for appID
type Responder func(w http.ResponseWriter, r *http.Request, appID string)

// JSON responds with a fixed status and body
func JSON(status int, body string) Responder {
	return func(w http.ResponseWriter, _ *http.Request, _ string) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

// Request is what the hub recorded about an incoming version request
type Request struct {
	AppID  string
	Query  url.Values
	Header http.Header
}

// Hub serves {versionPath}/{appId} with a Responder and /d/{name} from Artifacts
type Hub struct {
	Server *httptest.Server

	mu        sync.Mutex
	respond   Responder
	requests  []Request
	artifacts map[string][]byte

	VersionCalls atomic.Int32
}

func NewHub(t testing.TB, versionPath string, respond Responder) *Hub {
	t.Helper()

	h := &Hub{
		respond:   respond,
		artifacts: make(map[string][]byte),
	}

	router := mux.NewRouter()
	prefix := "/" + strings.Trim(versionPath, "/")
	if prefix == "/" {
		prefix = ""
	}
	router.HandleFunc(prefix+"/{appId}", h.handleVersion).Methods(http.MethodGet)
	router.HandleFunc("/d/{name}", h.handleArtifact).Methods(http.MethodGet)

	h.Server = httptest.NewServer(router)
	t.Cleanup(h.Server.Close)
	return h
}

func (h *Hub) URL() string {
	return h.Server.URL
}

// SetResponder replaces the version responder
func (h *Hub) SetResponder(respond Responder) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.respond = respond
}

// AddArtifact publishes content under /d/{name}
func (h *Hub) AddArtifact(name string, content []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.artifacts[name] = content
}

// Requests returns a copy of the recorded version requests
func (h *Hub) Requests() []Request {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Request, len(h.requests))
	copy(out, h.requests)
	return out
}

func (h *Hub) handleVersion(w http.ResponseWriter, r *http.Request) {
	h.VersionCalls.Add(1)
	appID := mux.Vars(r)["appId"]

	h.mu.Lock()
	h.requests = append(h.requests, Request{AppID: appID, Query: r.URL.Query(), Header: r.Header.Clone()})
	respond := h.respond
	h.mu.Unlock()

	if respond == nil {
		http.NotFound(w, r)
		return
	}
	respond(w, r, appID)
}

func (h *Hub) handleArtifact(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	content, ok := h.artifacts[mux.Vars(r)["name"]]
	h.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.Itoa(len(content)))
	_, _ = w.Write(content)
}
