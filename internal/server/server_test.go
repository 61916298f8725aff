package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"

	"github.com/penwyp/go-biz-monitor/internal/core/model"
	"github.com/penwyp/go-biz-monitor/internal/data/loader"
	"github.com/penwyp/go-biz-monitor/internal/testing/fixtures"
	"github.com/penwyp/go-biz-monitor/internal/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordsBody struct {
	UrgentDays int `json:"urgentDays"`
	Total      int `json:"total"`
	Urgent     int `json:"urgent"`
	Records    []struct {
		ID            string `json:"id"`
		CurrentStatus string `json:"currentStatus"`
		Urgent        bool   `json:"urgent"`
	} `json:"records"`
}

func (b recordsBody) ids() []string {
	ids := make([]string, 0, len(b.Records))
	for _, r := range b.Records {
		ids = append(ids, r.ID)
	}
	return ids
}

type errorBody struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId"`
}

func newTestServer(t *testing.T) (*Server, *Store, *fixtures.TestDataGenerator) {
	t.Helper()
	require.NoError(t, util.InitializeTimeProvider("UTC"))

	dataDir := t.TempDir()
	gen := fixtures.NewTestDataGenerator(dataDir, time.Now())
	require.NoError(t, gen.GenerateExampleSet())

	l, err := loader.New(loader.Config{DataDir: dataDir, CacheDir: filepath.Join(t.TempDir(), "cache"), Concurrency: 2})
	require.NoError(t, err)

	store := NewStore(l)
	require.NoError(t, store.Reload(context.Background()))

	srv := New(store, Options{
		Addr:           "127.0.0.1:0",
		AllowedOrigins: []string{"http://localhost:3000"},
		UrgentDays:     5,
	})
	return srv, store, gen
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestListRecords(t *testing.T) {
	srv, _, _ := newTestServer(t)

	tests := []struct {
		name       string
		target     string
		urgentDays int
		ids        []string
		urgent     int
	}{
		{name: "display_order", target: "/api/records", urgentDays: 5,
			ids: []string{"A", "INV-1", "C", "P-1", "B", "INV-2"}, urgent: 2},
		{name: "urgent_days_override", target: "/api/records?urgentDays=10", urgentDays: 10,
			ids: []string{"A", "C", "P-1", "INV-1", "B", "INV-2"}, urgent: 1},
		{name: "kind_filter", target: "/api/records?kind=invoices", urgentDays: 5,
			ids: []string{"INV-1", "INV-2"}, urgent: 1},
		{name: "urgent_only", target: "/api/records?urgentOnly=true", urgentDays: 5,
			ids: []string{"A", "INV-1"}, urgent: 2},
		{name: "status_filter_case_insensitive", target: "/api/records?status=PAID", urgentDays: 5,
			ids: []string{"C"}, urgent: 0},
		{name: "limit", target: "/api/records?limit=3", urgentDays: 5,
			ids: []string{"A", "INV-1", "C"}, urgent: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, srv.Handler(), tt.target)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var body recordsBody
			decode(t, rec, &body)
			assert.Equal(t, tt.ids, body.ids())
			assert.Equal(t, tt.urgentDays, body.UrgentDays)
			assert.Equal(t, len(tt.ids), body.Total)
			assert.Equal(t, tt.urgent, body.Urgent)
		})
	}
}

func TestListRecordsBadRequest(t *testing.T) {
	srv, _, _ := newTestServer(t)

	tests := []struct {
		name   string
		target string
		errMsg string
	}{
		{name: "unknown_kind", target: "/api/records?kind=widgets", errMsg: "unknown record kind"},
		{name: "bad_bool", target: "/api/records?urgentOnly=maybe", errMsg: "invalid urgentOnly"},
		{name: "negative_limit", target: "/api/records?limit=-1", errMsg: "invalid limit"},
		{name: "bad_urgent_days", target: "/api/records?urgentDays=abc", errMsg: "invalid urgentDays"},
		{name: "empty_urgent_days", target: "/api/summary?urgentDays=", errMsg: "invalid urgentDays"},
		{name: "zero_urgent_days", target: "/api/records?urgentDays=0", errMsg: "positive integer"},
		{name: "zero_urgent_days_detail", target: "/api/records/A?urgentDays=0", errMsg: "positive integer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, srv.Handler(), tt.target)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var body errorBody
			decode(t, rec, &body)
			assert.Contains(t, body.Error, tt.errMsg)
			assert.Equal(t, rec.Header().Get(RequestIDHeader), body.RequestID)
		})
	}
}

func TestGetRecord(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := get(t, srv.Handler(), "/api/records/A")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		UrgentDays int `json:"urgentDays"`
		Record     struct {
			ID            string  `json:"id"`
			Name          string  `json:"name"`
			CurrentStatus string  `json:"currentStatus"`
			Urgent        bool    `json:"urgent"`
			AgeDays       float64 `json:"ageDays"`
		} `json:"record"`
		Timeline []struct {
			Status string `json:"status"`
		} `json:"timeline"`
	}
	decode(t, rec, &body)
	assert.Equal(t, "Alpha Ltd", body.Record.Name)
	assert.Equal(t, "sent", body.Record.CurrentStatus)
	assert.True(t, body.Record.Urgent)
	assert.InDelta(t, 11.0, body.Record.AgeDays, 0.01)
	require.Len(t, body.Timeline, 2)
	assert.Equal(t, "sent", body.Timeline[0].Status, "newest first")
	assert.Equal(t, "created by user", body.Timeline[1].Status)

	rec = get(t, srv.Handler(), "/api/records/A?urgentDays=20")
	decode(t, rec, &body)
	assert.False(t, body.Record.Urgent)
	assert.Equal(t, 20, body.UrgentDays)
}

func TestGetRecordNotFound(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := get(t, srv.Handler(), "/api/records/NOPE")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body errorBody
	decode(t, rec, &body)
	assert.Contains(t, body.Error, "record not found: NOPE")
}

func TestSummary(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := get(t, srv.Handler(), "/api/summary")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Total        int `json:"total"`
		Urgent       int `json:"urgent"`
		UrgentDays   int `json:"urgentDays"`
		Kinds        []struct {
			Kind  string `json:"kind"`
			Total int    `json:"total"`
		} `json:"kinds"`
		OldestUrgent *struct {
			ID string `json:"id"`
		} `json:"oldestUrgent"`
	}
	decode(t, rec, &body)
	assert.Equal(t, 6, body.Total)
	assert.Equal(t, 2, body.Urgent)
	assert.Equal(t, 5, body.UrgentDays)
	require.Len(t, body.Kinds, 3)
	assert.Equal(t, "client", body.Kinds[0].Kind)
	assert.Equal(t, 3, body.Kinds[0].Total)
	require.NotNil(t, body.OldestUrgent)
	assert.Equal(t, "A", body.OldestUrgent.ID)
}

func TestHealthz(t *testing.T) {
	srv, store, _ := newTestServer(t)

	rec := get(t, srv.Handler(), "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	var body healthResponse
	decode(t, rec, &body)
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, 6, body.Records)
	assert.Equal(t, 3, body.Files)

	empty := New(NewStore(store.source), Options{UrgentDays: 5})
	rec = get(t, empty.Handler(), "/healthz")
	decode(t, rec, &body)
	assert.Equal(t, "loading", body.Status)
}

func TestNotLoaded(t *testing.T) {
	srv := New(NewStore(nil), Options{UrgentDays: 5})

	rec := get(t, srv.Handler(), "/api/records")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body errorBody
	decode(t, rec, &body)
	assert.Equal(t, "records not loaded", body.Error)
}

func TestUnroutedRequestsReturnJSON(t *testing.T) {
	srv, _, _ := newTestServer(t)

	tests := []struct {
		name   string
		method string
		target string
		status int
		errMsg string
		allow  string
	}{
		{
			name:   "post_records",
			method: http.MethodPost,
			target: "/api/records",
			status: http.StatusMethodNotAllowed,
			errMsg: "method POST not allowed for /api/records",
			allow:  "GET",
		},
		{
			name:   "delete_record",
			method: http.MethodDelete,
			target: "/api/records/A",
			status: http.StatusMethodNotAllowed,
			errMsg: "method DELETE not allowed",
			allow:  "GET",
		},
		{
			name:   "unknown_path",
			method: http.MethodGet,
			target: "/api/widgets",
			status: http.StatusNotFound,
			errMsg: "no route for /api/widgets",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, nil)
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.allow != "" {
				assert.Contains(t, rec.Header().Get("Allow"), tt.allow)
			}

			var body errorBody
			decode(t, rec, &body)
			assert.Contains(t, body.Error, tt.errMsg)
			assert.Equal(t, rec.Header().Get(RequestIDHeader), body.RequestID)
		})
	}
}

func TestRequestID(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := get(t, srv.Handler(), "/healthz")
	_, err := uuid.Parse(rec.Header().Get(RequestIDHeader))
	assert.NoError(t, err, "a fresh id is assigned")

	incoming := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, incoming)
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, incoming, rec.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "not-a-uuid")
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.NotEqual(t, "not-a-uuid", rec.Header().Get(RequestIDHeader))
}

func TestCORS(t *testing.T) {
	srv, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/summary", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/summary", nil)
	req.Header.Set("Origin", "http://evil.example.com")
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

type flakySource struct {
	snapshot *loader.Snapshot
	err      error
}

func (f *flakySource) Load(context.Context) (*loader.Snapshot, error) {
	return f.snapshot, f.err
}

func TestStoreReload(t *testing.T) {
	require.NoError(t, util.InitializeTimeProvider("UTC"))
	source := &flakySource{snapshot: &loader.Snapshot{Records: []model.TrackedRecord{{ID: "X"}}}}
	store := NewStore(source)
	assert.Nil(t, store.Snapshot())

	require.NoError(t, store.Reload(context.Background()))
	first := store.Snapshot()
	require.NotNil(t, first)

	source.err = errors.New("boom")
	assert.ErrorContains(t, store.Reload(context.Background()), "boom")
	assert.Same(t, first, store.Snapshot(), "failed reload keeps the previous snapshot")

	source.err = loader.ErrNoRecordFiles
	require.NoError(t, store.Reload(context.Background()))
	assert.Empty(t, store.Snapshot().Records)
}

func TestStoreWatch(t *testing.T) {
	_, store, gen := newTestServer(t)
	events := make(chan model.FileEvent)
	done := make(chan struct{})
	go func() {
		store.Watch(context.Background(), events)
		close(done)
	}()

	require.NoError(t, gen.WriteJSON("late-clients.json", []fixtures.RecordEntry{
		gen.Record("LATE-1", "Late Client", 7*24*time.Hour, "sent"),
	}))
	events <- model.FileEvent{Path: gen.Path("late-clients.json"), Operation: "CREATE"}
	close(events)
	<-done

	_, ok := store.Snapshot().Find("LATE-1")
	assert.True(t, ok)
}

func TestServerRun(t *testing.T) {
	srv, _, _ := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestServerRunListenError(t *testing.T) {
	srv := New(NewStore(nil), Options{Addr: "256.0.0.1:bad"})

	err := srv.Run(context.Background())

	assert.ErrorContains(t, err, "failed to start server")
}
