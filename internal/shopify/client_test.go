package shopify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	ts := httptest.NewServer(handler)
	return NewClient(ts.URL, "shpat-test", "2024-01", 2*time.Second), ts
}

func TestLatestComment_FiltersToCommentEvents(t *testing.T) {
	client, ts := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/admin/api/2024-01/orders/gid-1/events.json" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("X-Shopify-Access-Token"); got != "shpat-test" {
			t.Errorf("access token header = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"events":[
			{"id":1,"verb":"confirmed","message":"Order confirmed","created_at":"v0"},
			{"id":2,"verb":"comment","body":"please gift wrap","author":"A","created_at":"v1"},
			{"id":3,"verb":"comment","body":"older note","author":"B","created_at":"v2"}
		]}`))
	})
	defer ts.Close()

	comment := client.LatestComment(context.Background(), "gid-1")
	if comment == nil {
		t.Fatal("LatestComment returned nil, want comment")
	}
	if comment.Message != "please gift wrap" {
		t.Errorf("Message = %q, want first comment-kind event", comment.Message)
	}
	if comment.Author != "A" {
		t.Errorf("Author = %q, want A", comment.Author)
	}
	if comment.OccurredAt != "v1" {
		t.Errorf("OccurredAt = %q, want v1", comment.OccurredAt)
	}
}

func TestLatestComment_MessageFallback(t *testing.T) {
	client, ts := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"events":[{"id":1,"verb":"comment","message":"from message field","created_at":"v1"}]}`))
	})
	defer ts.Close()

	comment := client.LatestComment(context.Background(), "gid-1")
	if comment == nil || comment.Message != "from message field" {
		t.Fatalf("comment = %+v, want message fallback", comment)
	}
}

func TestLatestComment_NoCommentEvents(t *testing.T) {
	client, ts := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"events":[{"id":1,"verb":"placed","created_at":"v0"}]}`))
	})
	defer ts.Close()

	if comment := client.LatestComment(context.Background(), "gid-1"); comment != nil {
		t.Errorf("LatestComment = %+v, want nil for feed without comments", comment)
	}
}

func TestLatestComment_FoldsFailuresIntoNil(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"events":`))
			},
		},
		{
			name: "empty body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{}`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, ts := newTestClient(tt.handler)
			defer ts.Close()

			if comment := client.LatestComment(context.Background(), "gid-1"); comment != nil {
				t.Errorf("LatestComment = %+v, want nil", comment)
			}
		})
	}
}

func TestLatestComment_TransportError(t *testing.T) {
	client, ts := newTestClient(func(w http.ResponseWriter, r *http.Request) {})
	ts.Close() // Closed server forces a connection error

	if comment := client.LatestComment(context.Background(), "gid-1"); comment != nil {
		t.Errorf("LatestComment = %+v, want nil on transport error", comment)
	}
}
