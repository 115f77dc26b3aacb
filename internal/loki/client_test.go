package loki

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"
)

const streamsFixture = `{
	"status": "success",
	"data": {
		"resultType": "streams",
		"result": [
			{
				"stream": {"job": "application", "service": "payments"},
				"values": [
					["1700000000000000000", "2023-11-14 22:13:20 ERROR services.auth token rejected"],
					["1700000001000000000", "plain line without level"],
					["not-a-number", "dropped"],
					["1700000002000000000"]
				]
			},
			{
				"stream": {"job": "application"},
				"values": [["1700000002000000000", "WARNING disk almost full"]]
			}
		]
	}
}`

func testClient(t *testing.T, cfg Config) *Client {
	t.Helper()
	client, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return client
}

func TestQueryRangeDecodesStreams(t *testing.T) {
	start := time.Unix(0, 1700000000000000000)
	end := start.Add(time.Hour)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/loki/api/v1/query_range" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if user, pass, ok := r.BasicAuth(); !ok || user != "sleuth" || pass != "secret" {
			t.Errorf("basic auth = %q/%q ok=%v", user, pass, ok)
		}

		q := r.URL.Query()
		if q.Get("query") != `{app="checkout"}` {
			t.Errorf("query param = %q", q.Get("query"))
		}
		if q.Get("start") != strconv.FormatInt(start.UnixNano(), 10) {
			t.Errorf("start param = %q", q.Get("start"))
		}
		if q.Get("end") != strconv.FormatInt(end.UnixNano(), 10) {
			t.Errorf("end param = %q", q.Get("end"))
		}
		if q.Get("limit") != "500" {
			t.Errorf("limit param = %q", q.Get("limit"))
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(streamsFixture))
	}))
	defer server.Close()

	client := testClient(t, Config{URL: server.URL, Username: "sleuth", Password: "secret"})

	entries, err := client.QueryRange(context.Background(), `{app="checkout"}`, start, end, 500)
	if err != nil {
		t.Fatalf("QueryRange() error = %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3 (malformed pairs skipped)", len(entries))
	}

	first := entries[0]
	if !first.Timestamp.Equal(time.Unix(0, 1700000000000000000)) {
		t.Errorf("timestamp = %v", first.Timestamp)
	}
	if first.Level != "error" {
		t.Errorf("level = %q", first.Level)
	}
	if first.Service != "auth" {
		t.Errorf("service = %q, message extraction should beat labels", first.Service)
	}
	if first.Labels["job"] != "application" {
		t.Errorf("labels = %v", first.Labels)
	}

	second := entries[1]
	if second.Level != "info" {
		t.Errorf("default level = %q", second.Level)
	}
	if second.Service != "payments" {
		t.Errorf("service should fall back to the stream label, got %q", second.Service)
	}

	third := entries[2]
	if third.Level != "warning" || third.Service != "unknown" {
		t.Errorf("third entry = %+v", third)
	}
}

func TestQueryRangeAuthError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := testClient(t, Config{URL: server.URL})

	_, err := client.QueryRange(context.Background(), "{}", time.Now().Add(-time.Hour), time.Now(), 10)
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "authentication failed") {
		t.Errorf("error = %v", err)
	}
}

func TestQueryRangeServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("parse error in query"))
	}))
	defer server.Close()

	client := testClient(t, Config{URL: server.URL})

	_, err := client.QueryRange(context.Background(), "{}", time.Now().Add(-time.Hour), time.Now(), 10)
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "status 500") || !strings.Contains(err.Error(), "parse error in query") {
		t.Errorf("error = %v", err)
	}
}

func TestQueryRangeConnectionError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	serverURL := server.URL
	server.Close()

	client := testClient(t, Config{URL: serverURL})

	_, err := client.QueryRange(context.Background(), "{}", time.Now().Add(-time.Hour), time.Now(), 10)
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "failed to connect to Loki") {
		t.Errorf("error = %v", err)
	}
}

func TestTestConnection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/loki/api/v1/labels" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"success","data":["job","service"]}`))
	}))
	defer server.Close()

	client := testClient(t, Config{URL: server.URL})
	if !client.TestConnection(context.Background()) {
		t.Error("expected a healthy connection")
	}

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer down.Close()

	client = testClient(t, Config{URL: down.URL})
	if client.TestConnection(context.Background()) {
		t.Error("expected the connection test to fail")
	}
}

func TestFetchPresets(t *testing.T) {
	var gotQuery, gotLimit string
	var gotDelta time.Duration

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		gotQuery = q.Get("query")
		gotLimit = q.Get("limit")

		startNs, _ := strconv.ParseInt(q.Get("start"), 10, 64)
		endNs, _ := strconv.ParseInt(q.Get("end"), 10, 64)
		gotDelta = time.Duration(endNs - startNs)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"success","data":{"resultType":"streams","result":[]}}`))
	}))
	defer server.Close()

	client := testClient(t, Config{URL: server.URL})

	if _, err := client.Fetch(context.Background(), "7d", "", 0); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if gotQuery != DefaultQuery {
		t.Errorf("empty query should use the default, got %q", gotQuery)
	}
	if gotLimit != "1000" {
		t.Errorf("limit = %q", gotLimit)
	}
	if gotDelta != 7*24*time.Hour {
		t.Errorf("range = %v, want 168h", gotDelta)
	}

	if _, err := client.Fetch(context.Background(), "next tuesday", `{job="x"}`, 25); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if gotDelta != time.Hour {
		t.Errorf("unknown preset should fall back to 1h, got %v", gotDelta)
	}
	if gotQuery != `{job="x"}` {
		t.Errorf("query = %q", gotQuery)
	}
}

func TestSince(t *testing.T) {
	tests := []struct {
		token string
		want  time.Duration
		ok    bool
	}{
		{"1h", time.Hour, true},
		{"24h", 24 * time.Hour, true},
		{"7d", 7 * 24 * time.Hour, true},
		{"30d", 30 * 24 * time.Hour, true},
		{"2h", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		got, ok := Since(tt.token)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Since(%q) = %v, %v; want %v, %v", tt.token, got, ok, tt.want, tt.ok)
		}
	}
}

func TestToLogText(t *testing.T) {
	entries := []Entry{
		{Message: "first line"},
		{Message: "second line"},
	}
	if got := ToLogText(entries); got != "first line\nsecond line" {
		t.Errorf("ToLogText() = %q", got)
	}
	if got := ToLogText(nil); got != "" {
		t.Errorf("ToLogText(nil) = %q", got)
	}
}
