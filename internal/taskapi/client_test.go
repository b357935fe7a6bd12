package taskapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

const listBody = `{"tasks":[
 {"id":1,"name":"Write report","total_seconds":3725,"rolling_24h_seconds":600,"is_running":true,"project_id":4,"project_name":"Work","labels":[{"id":2,"name":"deep","color":"#fff"}]},
 {"id":2,"name":"Inbox","total_seconds":0,"rolling_24h_seconds":0,"is_running":false,"project_id":null,"project_name":null,"labels":[]}
]}`

func TestClient_List(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/tasks" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("unexpected auth header %q", got)
		}
		_, _ = io.WriteString(w, listBody)
	}))
	defer srv.Close()

	c := New(srv.URL+"/", "secret", time.Second)
	tasks, err := c.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}
	first := tasks[0]
	if first.Key() != "1" || !first.IsRunning || first.TotalSeconds != 3725 || *first.ProjectID != 4 || first.Labels[0].Name != "deep" {
		t.Fatalf("unexpected task %#v", first)
	}
	if tasks[1].ProjectID != nil || tasks[1].ProjectName != "" {
		t.Fatalf("expected null project, got %#v", tasks[1])
	}
}

func TestClient_ActionsPostToTaskPaths(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.Method+" "+r.URL.Path)
		mu.Unlock()
		if r.URL.Path == "/api/tasks" && r.Method == http.MethodPost {
			b, _ := io.ReadAll(r.Body)
			if string(b) != `{"name":"New task","label_ids":[3]}` {
				t.Errorf("unexpected create body %s", b)
			}
		}
		_, _ = io.WriteString(w, `{"tasks":[]}`)
	}))
	defer srv.Close()

	c := New(srv.URL, "", time.Second)
	ctx := context.Background()
	if _, err := c.Create(ctx, CreateRequest{Name: "  New task ", LabelIDs: []int64{3}}); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Start(ctx, "7"); err != nil {
		t.Fatal(err)
	}
	if err := c.StopTask(ctx, "7"); err != nil {
		t.Fatal(err)
	}
	if tasks, err := c.Delete(ctx, "7"); err != nil || tasks == nil {
		t.Fatalf("Delete: %v %v", tasks, err)
	}
	want := []string{"POST /api/tasks", "POST /api/tasks/7/start", "POST /api/tasks/7/stop", "POST /api/tasks/7/delete"}
	mu.Lock()
	defer mu.Unlock()
	if strings.Join(seen, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected requests %v", seen)
	}
}

func TestClient_Validation(t *testing.T) {
	c := New("http://127.0.0.1:1", "", time.Second)
	if _, err := c.Create(context.Background(), CreateRequest{Name: "  "}); err == nil {
		t.Fatalf("expected name error")
	}
	if _, err := c.Start(context.Background(), ""); err == nil {
		t.Fatalf("expected id error")
	}
	if _, err := New("", "", 0).List(context.Background()); !errors.Is(err, ErrNoBaseURL) {
		t.Fatalf("expected ErrNoBaseURL, got %v", err)
	}
}

func TestClient_StatusErrorNotRetriedForPost(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"error":{"message":"db down"}}`)
	}))
	defer srv.Close()

	_, err := New(srv.URL, "", time.Second).Stop(context.Background(), "3")
	var se *StatusError
	if !errors.As(err, &se) || se.Code != 500 || se.Body != "db down" {
		t.Fatalf("unexpected error %v", err)
	}
	if !IsStatus(err, http.StatusInternalServerError) {
		t.Fatalf("IsStatus should match")
	}
	if n := calls.Load(); n != 1 {
		t.Fatalf("POST must not be retried, got %d calls", n)
	}
}

func TestClient_ListRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, listBody)
	}))
	defer srv.Close()

	tasks, err := New(srv.URL, "", time.Second).List(context.Background())
	if err != nil || len(tasks) != 2 {
		t.Fatalf("expected success after retry, got %v %v", tasks, err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 calls, got %d", calls.Load())
	}
}

func TestClient_ListGivesUpAfterRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL, "", time.Second).List(context.Background())
	if !IsStatus(err, http.StatusBadGateway) {
		t.Fatalf("expected the last status error, got %v", err)
	}
	if n := calls.Load(); n != maxRetries {
		t.Fatalf("expected %d calls, got %d", maxRetries, n)
	}
}

func TestClient_ListStopsRetryingWhenCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		cancel()
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := New(srv.URL, "", time.Second).List(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if n := calls.Load(); n != 1 {
		t.Fatalf("expected no retry after cancel, got %d calls", n)
	}
}

func TestClient_UnauthorizedNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "login required", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := New(srv.URL, "", time.Second).List(context.Background())
	if !IsStatus(err, http.StatusUnauthorized) || calls.Load() != 1 {
		t.Fatalf("expected single 401, got %v after %d calls", err, calls.Load())
	}
	if !strings.Contains(err.Error(), "login required") {
		t.Fatalf("expected body in error, got %v", err)
	}
}

func TestCache(t *testing.T) {
	c := NewCache()
	if !c.UpdatedAt().IsZero() || c.Len() != 0 {
		t.Fatalf("expected empty cache")
	}
	c.Replace([]Task{{ID: 2, Name: "b", IsRunning: true}, {ID: 1, Name: "a", IsRunning: true}, {ID: 3, Name: "c"}})
	if got, ok := c.Get("3"); !ok || got.Name != "c" {
		t.Fatalf("unexpected lookup %#v %v", got, ok)
	}
	running := c.Running()
	if len(running) != 2 || running[0].Name != "a" {
		t.Fatalf("unexpected running %#v", running)
	}
	c.Replace(nil)
	if _, ok := c.Get("3"); ok || c.Len() != 0 {
		t.Fatalf("replace must drop old tasks")
	}
}
