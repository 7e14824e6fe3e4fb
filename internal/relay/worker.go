package relay

import (
	"context"
	"log"
	"time"

	"github.com/stellartrade/order-relay/internal/runstore"
	"github.com/stellartrade/order-relay/internal/shopify"
	"github.com/stellartrade/order-relay/internal/webhook"
)

// Feed supplies the most recent comment for an order, or nil when there
// is nothing to deliver. Upstream failures also surface as nil; the worker
// treats every attempt as either "something to deliver" or "nothing new".
type Feed interface {
	LatestComment(ctx context.Context, orderID string) *shopify.Comment
}

// Poster posts a comment into a resolved chat thread.
type Poster interface {
	PostReply(ctx context.Context, threadHandle, author, text string) error
}

// Releaser frees an order key when its worker terminates.
type Releaser interface {
	Release(orderKey string)
}

// Options bound the relay worker's waits
type Options struct {
	ResolveTimeout      time.Duration
	ResolvePollInterval time.Duration
	PollInterval        time.Duration
	IdleWindow          time.Duration
	InitialDelivery     bool
}

func normalizeOptions(opts Options) Options {
	if opts.ResolveTimeout <= 0 {
		opts.ResolveTimeout = 2 * time.Minute
	}
	if opts.ResolvePollInterval <= 0 {
		opts.ResolvePollInterval = 5 * time.Second
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 15 * time.Second
	}
	if opts.IdleWindow <= 0 {
		opts.IdleWindow = 10 * time.Minute
	}
	return opts
}

// Worker relays new order comments into the order's chat thread. One
// instance serves all orders; each Run call owns a single admitted order
// key for its lifetime, which makes all state writes for that key
// effectively sequential.
type Worker struct {
	opts     Options
	resolver *Resolver
	feed     Feed
	poster   Poster
	tracker  *DeliveryTracker
	registry Releaser
	runs     *runstore.Store
}

// NewWorker creates a relay worker
func NewWorker(opts Options, resolver *Resolver, feed Feed, poster Poster, tracker *DeliveryTracker, registry Releaser, runs *runstore.Store) *Worker {
	return &Worker{
		opts:     normalizeOptions(opts),
		resolver: resolver,
		feed:     feed,
		poster:   poster,
		tracker:  tracker,
		registry: registry,
		runs:     runs,
	}
}

// Run drives one admitted order through thread resolution, optional
// initial delivery, and the polling window. The order key is released on
// every exit path; no failure inside a run is ever escalated.
func (w *Worker) Run(ctx context.Context, job *webhook.Job) {
	defer w.registry.Release(job.OrderKey)

	w.updateStatus(job, runstore.StatusResolving)

	handle, ok := w.resolver.ResolveWithTimeout(ctx, job.OrderKey, w.opts.ResolveTimeout, w.opts.ResolvePollInterval)
	if !ok {
		// Expected race: no channel message carries the marker yet.
		log.Printf("No chat thread for order %s within %s, stopping", job.OrderKey, w.opts.ResolveTimeout)
		w.updateStatus(job, runstore.StatusNoThread)
		w.addLog(job, "info", "thread not found before resolution deadline")
		return
	}

	w.updateStatus(job, runstore.StatusWatching)
	w.addLog(job, "info", "thread resolved, watching for comments")

	// Catch a comment that was added before this worker started watching.
	if w.opts.InitialDelivery {
		w.deliverLatest(ctx, job, handle)
	}

	// Sliding idle window: every new delivery extends the deadline by the
	// full window.
	deadline := time.Now().Add(w.opts.IdleWindow)
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			w.updateStatus(job, runstore.StatusDone)
			return
		case <-time.After(w.opts.PollInterval):
		}

		if w.deliverLatest(ctx, job, handle) {
			deadline = time.Now().Add(w.opts.IdleWindow)
		}
	}

	log.Printf("Relay for order %s idle for %s, stopping", job.OrderKey, w.opts.IdleWindow)
	w.updateStatus(job, runstore.StatusDone)
}

// deliverLatest fetches the latest comment and posts it if its version
// token has not been delivered for this order yet. Returns true only when
// a genuinely new comment was posted.
func (w *Worker) deliverLatest(ctx context.Context, job *webhook.Job, handle string) bool {
	comment := w.feed.LatestComment(ctx, job.OrderID)
	if comment == nil {
		return false
	}
	if !w.tracker.IsNew(job.OrderKey, comment.OccurredAt) {
		return false
	}

	// Mark before posting: post failures are logged, never retried.
	w.tracker.MarkDelivered(job.OrderKey, comment.OccurredAt)

	if err := w.poster.PostReply(ctx, handle, comment.Author, comment.Message); err != nil {
		log.Printf("Failed to post comment for order %s: %v", job.OrderKey, err)
		w.addLog(job, "error", "chat post failed: "+err.Error())
		return false
	}

	log.Printf("Relayed comment for order %s (version %s)", job.OrderKey, comment.OccurredAt)
	if w.runs != nil {
		w.runs.RecordDelivery(job.RunID)
	}
	return true
}

func (w *Worker) updateStatus(job *webhook.Job, status runstore.RunStatus) {
	if w.runs != nil {
		w.runs.UpdateStatus(job.RunID, status)
	}
}

func (w *Worker) addLog(job *webhook.Job, level, message string) {
	if w.runs != nil {
		w.runs.AddLog(job.RunID, level, message)
	}
}
