// Copyright (c) 2025-2026, the xseed contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package notifier implements component K: a fire-and-forget webhook
// notification sink, queued and dispatched off the calling goroutine so a
// slow or unreachable webhook endpoint never blocks the pipeline.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultQueueSize = 100
	defaultWorkers   = 2
	requestTimeout   = 10 * time.Second
)

// Event is one notification to deliver.
type Event struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Notifier queues events and delivers them to a configured webhook URL as
// `{"title": ..., "body": ...}` JSON, per spec §6 Webhook. A zero-value
// webhookURL makes Notify a no-op, so the pipeline never has to special-
// case "no webhook configured".
type Notifier struct {
	webhookURL string
	http       *http.Client
	logger     zerolog.Logger

	queue     chan Event
	startOnce sync.Once
}

// New builds a Notifier for webhookURL. An empty URL disables delivery.
func New(webhookURL string, logger zerolog.Logger) *Notifier {
	return &Notifier{
		webhookURL: webhookURL,
		http:       &http.Client{Timeout: requestTimeout},
		logger:     logger,
		queue:      make(chan Event, defaultQueueSize),
	}
}

// Start launches the delivery workers. Safe to call once per process.
func (n *Notifier) Start(ctx context.Context) {
	if n == nil || n.webhookURL == "" {
		return
	}
	n.startOnce.Do(func() {
		for range defaultWorkers {
			go n.worker(ctx)
		}
	})
}

// Notify enqueues an event for delivery, dropping it (with a log line) if
// the queue is full rather than blocking the caller.
func (n *Notifier) Notify(ctx context.Context, event Event) {
	if n == nil || n.webhookURL == "" {
		return
	}
	select {
	case <-ctx.Done():
		return
	case n.queue <- event:
	default:
		n.logger.Warn().Str("title", event.Title).Msg("notifier: queue full, dropping event")
	}
}

func (n *Notifier) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-n.queue:
			if err := n.deliver(ctx, event); err != nil {
				n.logger.Warn().Err(err).Str("title", event.Title).Msg("notifier: delivery failed")
			}
		}
	}
}

// Test delivers event synchronously, bypassing the queue, so the
// `test-notification` CLI command (spec §6) can report success or failure
// directly instead of firing-and-forgetting like Notify.
func (n *Notifier) Test(ctx context.Context, event Event) error {
	if n.webhookURL == "" {
		return fmt.Errorf("no notification webhook URL configured")
	}
	return n.deliver(ctx, event)
}

func (n *Notifier) deliver(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.http.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
