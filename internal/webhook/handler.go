package webhook

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/stellartrade/order-relay/internal/runstore"
)

// JobDispatcher enqueues admitted relay jobs for asynchronous execution
type JobDispatcher interface {
	Enqueue(job *Job) error
}

// Registry is the admission gate for relay workers: one worker per order
// key at a time.
type Registry interface {
	TryAcquire(orderKey string) bool
	Release(orderKey string)
}

// Handler handles platform order webhooks
type Handler struct {
	webhookSecret string
	registry      Registry
	dispatcher    JobDispatcher
	runs          *runstore.Store
}

// NewHandler creates a new webhook handler
func NewHandler(webhookSecret string, registry Registry, dispatcher JobDispatcher, runs *runstore.Store) *Handler {
	return &Handler{
		webhookSecret: webhookSecret,
		registry:      registry,
		dispatcher:    dispatcher,
		runs:          runs,
	}
}

// Handle accepts an order webhook, admits at most one relay worker for the
// order, and returns immediately. The relay itself runs in the background;
// its outcome is never reported to the webhook caller.
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	// 1. Read payload
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		log.Printf("Error reading payload: %v", err)
		http.Error(w, "Error reading payload", http.StatusBadRequest)
		return
	}

	// 2. Verify signature (pre-admission gate)
	if h.webhookSecret == "" {
		log.Printf("Warning: webhook secret not set, skipping signature verification")
	} else {
		signature := r.Header.Get("X-Shopify-Hmac-Sha256")
		if err := ValidateSignatureHeader(signature); err != nil {
			log.Printf("Invalid signature header: %v", err)
			http.Error(w, "Invalid signature", http.StatusUnauthorized)
			return
		}
		if !VerifySignature(payload, signature, h.webhookSecret) {
			log.Printf("Signature verification failed")
			http.Error(w, "Invalid signature", http.StatusUnauthorized)
			return
		}
	}

	// 3. Extract the order identifiers
	var event OrderEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		log.Printf("Error parsing order payload: %v", err)
		respond(w, "Invalid payload")
		return
	}

	orderKey := orderKeyFromEvent(event)
	orderID := strings.TrimSpace(event.ID.String())
	if orderKey == "" || orderID == "" {
		log.Printf("Order payload missing order number or order id")
		respond(w, "Invalid payload")
		return
	}

	// 4. Admission: at most one relay worker per order
	if !h.registry.TryAcquire(orderKey) {
		log.Printf("Relay already running for order %s", orderKey)
		respond(w, "Already running")
		return
	}

	job := &Job{
		RunID:    generateRunID(orderKey),
		OrderKey: orderKey,
		OrderID:  orderID,
		Received: time.Now(),
	}
	h.createRun(job)

	// 5. Hand off to the relay pool; the admission slot belongs to the
	// worker from here, unless enqueueing fails.
	if err := h.dispatcher.Enqueue(job); err != nil {
		h.registry.Release(orderKey)
		log.Printf("Failed to enqueue relay job for order %s: %v", orderKey, err)
		switch {
		case errors.Is(err, ErrQueueFull):
			http.Error(w, "Relay queue is busy, try again later", http.StatusServiceUnavailable)
		case errors.Is(err, ErrQueueClosed):
			http.Error(w, "Relay queue unavailable", http.StatusServiceUnavailable)
		default:
			http.Error(w, "Failed to enqueue relay job", http.StatusInternalServerError)
		}
		return
	}

	log.Printf("Relay admitted: order=%s, orderID=%s, run=%s", orderKey, orderID, job.RunID)
	respond(w, "OK")
}

// orderKeyFromEvent prefers the explicit order number and falls back to
// the display name ("#1029") some delivery modes send instead.
func orderKeyFromEvent(event OrderEvent) string {
	if key := NormalizeOrderNumber(event.OrderNumber.String()); key != "" {
		return key
	}
	return NormalizeOrderNumber(event.Name)
}

// NormalizeOrderNumber reduces a platform order number to its digit run,
// stripping the "#" display prefix. Returns "" when anything other than a
// single digit run remains.
func NormalizeOrderNumber(raw string) string {
	trimmed := strings.TrimSpace(raw)
	trimmed = strings.TrimPrefix(trimmed, "#")
	if trimmed == "" {
		return ""
	}
	for _, r := range trimmed {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return trimmed
}

func generateRunID(orderKey string) string {
	return fmt.Sprintf("order-%s-%d", orderKey, time.Now().UnixNano())
}

func (h *Handler) createRun(job *Job) {
	if h.runs == nil {
		return
	}
	h.runs.Create(&runstore.Run{
		ID:       job.RunID,
		OrderKey: job.OrderKey,
		OrderID:  job.OrderID,
		Status:   runstore.StatusQueued,
	})
	h.runs.AddLog(job.RunID, "info", "Relay queued")
}

func respond(w http.ResponseWriter, status string) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(status))
}
