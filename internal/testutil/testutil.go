// Package testutil provides a fake data gateway and fixture helpers for
// tests. The fake speaks just enough of the REST dialect the client uses:
// the OpenAPI root, limit/offset reads, exact counts via Content-Range,
// and row-level writes.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"sync"
)

// AnyHost matches any endpoint, for pointing the client at a test server.
var AnyHost = regexp.MustCompile(`^https?://\S+$`)

// Gateway is a fake REST gateway backed by in-memory tables.
type Gateway struct {
	mu sync.Mutex

	// Tables maps table name to its rows. Only tables present here are
	// readable; probing anything else returns 404.
	Tables map[string][]map[string]any

	// OpenAPIPaths overrides the paths advertised in the API document.
	// When nil the document lists one path per table. Set to an empty
	// slice to advertise nothing (forcing fallback strategies).
	OpenAPIPaths []string

	// APIKey, when non-empty, is required in the apikey header; requests
	// without it get 401.
	APIKey string

	// Requests counts requests by "METHOD /path".
	Requests map[string]int

	// Queries records the raw query string of every request, keyed like
	// Requests.
	Queries map[string][]string

	// Inserts records the body of every insert by table name.
	Inserts map[string][]map[string]any

	srv *httptest.Server
}

// NewGateway starts the fake server. Callers must Close it.
func NewGateway(tables map[string][]map[string]any) *Gateway {
	g := &Gateway{
		Tables:   tables,
		Requests: make(map[string]int),
		Queries:  make(map[string][]string),
		Inserts:  make(map[string][]map[string]any),
	}
	g.srv = httptest.NewServer(http.HandlerFunc(g.handle))
	return g
}

// URL returns the fake project endpoint.
func (g *Gateway) URL() string { return g.srv.URL }

func (g *Gateway) Close() { g.srv.Close() }

// RequestCount returns how many requests hit "METHOD /path".
func (g *Gateway) RequestCount(methodPath string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.Requests[methodPath]
}

// CountRequests sums request counts over entries matching the predicate.
func (g *Gateway) CountRequests(match func(methodPath string) bool) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	total := 0
	for methodPath, n := range g.Requests {
		if match(methodPath) {
			total += n
		}
	}
	return total
}

func (g *Gateway) handle(w http.ResponseWriter, r *http.Request) {
	g.mu.Lock()
	key := r.Method + " " + r.URL.Path
	g.Requests[key]++
	g.Queries[key] = append(g.Queries[key], r.URL.RawQuery)
	apiKey := g.APIKey
	g.mu.Unlock()

	// the real gateway wants the credential both as apikey and bearer
	if apiKey != "" && (r.Header.Get("apikey") != apiKey || r.Header.Get("Authorization") != "Bearer "+apiKey) {
		http.Error(w, `{"message":"Invalid API key"}`, http.StatusUnauthorized)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/rest/v1")
	path = strings.Trim(path, "/")

	if path == "" {
		g.serveRoot(w, r)
		return
	}
	if strings.HasPrefix(path, "rpc/") {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	g.serveTable(w, r, path)
}

func (g *Gateway) serveRoot(w http.ResponseWriter, r *http.Request) {
	// a select projection against the root is not a table read; answer
	// with the API document like the real gateway does
	g.mu.Lock()
	paths := g.OpenAPIPaths
	if paths == nil {
		for name := range g.Tables {
			paths = append(paths, "/"+name)
		}
	}
	g.mu.Unlock()

	doc := map[string]any{
		"swagger": "2.0",
		"paths":   map[string]any{},
	}
	pathMap := doc["paths"].(map[string]any)
	pathMap["/"] = map[string]any{}
	for _, p := range paths {
		pathMap[p] = map[string]any{}
	}
	writeJSON(w, http.StatusOK, doc)
}

func (g *Gateway) serveTable(w http.ResponseWriter, r *http.Request, name string) {
	g.mu.Lock()
	rows, ok := g.Tables[name]
	g.mu.Unlock()
	if !ok {
		http.Error(w, fmt.Sprintf(`{"message":"relation \"public.%s\" does not exist"}`, name), http.StatusNotFound)
		return
	}

	switch r.Method {
	case http.MethodGet, http.MethodHead:
		limit, offset := len(rows), 0
		fmt.Sscanf(r.URL.Query().Get("limit"), "%d", &limit)
		fmt.Sscanf(r.URL.Query().Get("offset"), "%d", &offset)

		lo := min(offset, len(rows))
		hi := min(lo+limit, len(rows))
		page := rows[lo:hi]
		if page == nil {
			page = []map[string]any{}
		}

		if strings.Contains(r.Header.Get("Prefer"), "count=exact") {
			w.Header().Set("Content-Range", fmt.Sprintf("%d-%d/%d", lo, max(hi-1, 0), len(rows)))
		}
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusOK)
			return
		}
		writeJSON(w, http.StatusOK, page)

	case http.MethodPost:
		var row map[string]any
		if err := json.NewDecoder(r.Body).Decode(&row); err != nil {
			http.Error(w, `{"message":"invalid body"}`, http.StatusBadRequest)
			return
		}
		g.mu.Lock()
		g.Inserts[name] = append(g.Inserts[name], row)
		g.Tables[name] = append(g.Tables[name], row)
		g.mu.Unlock()
		w.WriteHeader(http.StatusCreated)

	case http.MethodPatch, http.MethodDelete:
		w.WriteHeader(http.StatusNoContent)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// LoadJSON reads and unmarshals a JSON fixture next to the calling test.
// If target is provided the JSON is additionally unmarshaled into it.
func LoadJSON(filename string, target ...any) (map[string]any, error) {
	_, currentFile, _, _ := runtime.Caller(0)
	dir := filepath.Dir(currentFile)

	data, err := os.ReadFile(filepath.Join(dir, filename))
	if err != nil {
		return nil, err
	}

	var result map[string]any
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	if len(target) > 0 && target[0] != nil {
		if err := json.Unmarshal(data, target[0]); err != nil {
			return nil, err
		}
	}
	return result, nil
}
