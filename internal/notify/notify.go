// Package notify posts fall events to a web-to-case intake endpoint.
package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
)

// Event labels sent as the case subject and description.
const (
	EventFallDetected  = "Fall Detected"
	EventFallCancelled = "Fall Alert Cancelled"
)

// DefaultEndpoint is the case-intake servlet the alerts are posted to.
const DefaultEndpoint = "https://www.salesforce.com/servlet/servlet.WebToCase"

// Options configures a Notifier.
type Options struct {
	Endpoint string
	OrgID    string
	Email    string
	Client   *http.Client // nil uses http.DefaultClient
}

// Notifier sends one form-encoded POST per event. It has no retry and
// no queue.
type Notifier struct {
	endpoint string
	orgID    string
	email    string
	client   *http.Client
	logger   *logrus.Logger
}

// New creates a Notifier.
func New(opts Options, logger *logrus.Logger) *Notifier {
	if opts.Endpoint == "" {
		opts.Endpoint = DefaultEndpoint
	}
	if opts.Client == nil {
		opts.Client = http.DefaultClient
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Notifier{
		endpoint: opts.Endpoint,
		orgID:    opts.OrgID,
		email:    opts.Email,
		client:   opts.Client,
		logger:   logger,
	}
}

// Form returns the fields posted for label.
func (n *Notifier) Form(label string) url.Values {
	return url.Values{
		"encoding":    {"UTF-8"},
		"debug":       {"1"},
		"orgid":       {n.orgID},
		"origin":      {"Web"},
		"Type":        {"Debug"},
		"subject":     {label},
		"description": {label},
		"email":       {n.email},
	}
}

// Notify posts label and logs the outcome. Failures are not reported to
// the caller.
func (n *Notifier) Notify(ctx context.Context, label string) {
	if err := n.Send(ctx, label); err != nil {
		n.logger.WithError(err).WithField("event", label).Error("notify failed")
	}
}

// Send posts label and returns any request or transport error. The
// response status is not checked; the body is logged at debug level.
func (n *Notifier) Send(ctx context.Context, label string) error {
	n.logger.WithFields(logrus.Fields{
		"event": label,
		"email": n.email,
	}).Info("posting notification")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(n.Form(label).Encode()))
	if err != nil {
		return fmt.Errorf("notify: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("notify: post %q: %w", label, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("notify: read response: %w", err)
	}
	n.logger.WithField("status", resp.StatusCode).Debugf("response: %s", body)
	return nil
}
