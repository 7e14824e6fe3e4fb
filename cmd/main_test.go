package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("SLACK_BOT_TOKEN", "xoxb-test")
	t.Setenv("SLACK_CHANNEL_ID", "C0123456")
	t.Setenv("SHOPIFY_SHOP_DOMAIN", "test-store.myshopify.com")
	t.Setenv("SHOPIFY_ACCESS_TOKEN", "shpat-test")
	t.Setenv("RELAY_WORKERS", "1")
	t.Setenv("RELAY_QUEUE_SIZE", "1")
}

func TestRun_StartsServerWithValidConfig(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "4321")

	var servedAddr string
	var servedHandler http.Handler

	serve := func(addr string, handler http.Handler) error {
		servedAddr = addr
		servedHandler = handler
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx, serve); err != nil {
		t.Fatalf("run() returned error: %v", err)
	}

	if servedAddr != ":4321" {
		t.Fatalf("serve addr = %q, want :4321", servedAddr)
	}
	if servedHandler == nil {
		t.Fatalf("serve handler is nil")
	}

	// Smoke test a couple of routes to ensure router wiring is intact.
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	servedHandler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("/health status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	servedHandler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("/ status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "order-relay") {
		t.Errorf("/ body = %q, want service info", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/runs", nil)
	servedHandler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("/runs status = %d, want 200", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Errorf("/runs body = %q, want empty list", got)
	}
}

func TestRun_FailsWithoutRequiredConfig(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SLACK_BOT_TOKEN", "")

	err := run(context.Background(), func(string, http.Handler) error { return nil })
	if err == nil {
		t.Fatal("run() error = nil, want config error")
	}
	if !strings.Contains(err.Error(), "SLACK_BOT_TOKEN") {
		t.Errorf("run() error = %v, want mention of SLACK_BOT_TOKEN", err)
	}
}
