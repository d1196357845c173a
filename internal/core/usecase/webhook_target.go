package usecase

import "sync/atomic"

// WebhookTarget holds the single configured webhook URL. The dispatcher reads
// it per matched frame without locking.
type WebhookTarget struct {
	url atomic.Pointer[string]
}

// NewWebhookTarget returns a target with no URL set.
func NewWebhookTarget() *WebhookTarget {
	return &WebhookTarget{}
}

// Get returns the URL and whether one is set.
func (t *WebhookTarget) Get() (string, bool) {
	p := t.url.Load()
	if p == nil || *p == "" {
		return "", false
	}
	return *p, true
}

// Set replaces the URL. An empty url clears it.
func (t *WebhookTarget) Set(url string) {
	t.url.Store(&url)
}
