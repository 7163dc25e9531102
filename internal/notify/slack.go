// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/apex/log"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"
)

// ErrUnknownStatus is returned for a job status other than success,
// cancelled or failure.
var ErrUnknownStatus = errors.New("unknown job status")

type outcome struct {
	description string
	emoji       string
	color       string
}

var outcomes = map[string]outcome{
	"success":   {"ran", "🎉", "good"},
	"cancelled": {"cancelled", "💥", "warning"},
	"failure":   {"failed", "💥", "danger"},
}

// Field is one titled value inside an attachment.
type Field struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

// Attachment is a legacy Slack message attachment.
type Attachment struct {
	Fallback string  `json:"fallback"`
	Color    string  `json:"color"`
	Fields   []Field `json:"fields"`
}

// Payload is the JSON body posted to the webhook.
type Payload struct {
	Attachments []Attachment `json:"attachments"`
}

// Run is the slice of the GitHub Actions `github` context the message uses.
type Run struct {
	Actor      string
	Workflow   string
	Repository string
	RunID      string
	HTMLURL    string
}

// ParseRun reads the JSON form of the `github` context, as produced by
// toJSON(github) in a workflow.
func ParseRun(githubContext string) (Run, error) {
	if !gjson.Valid(githubContext) {
		return Run{}, errors.New("github context is not valid JSON")
	}
	doc := gjson.Parse(githubContext)
	run := Run{
		Actor:      doc.Get("actor").String(),
		Workflow:   doc.Get("workflow").String(),
		Repository: doc.Get("repository").String(),
		RunID:      doc.Get("run_id").String(),
		HTMLURL:    doc.Get("event.repository.html_url").String(),
	}

	var missing []string
	for _, f := range []struct{ name, value string }{
		{"actor", run.Actor},
		{"workflow", run.Workflow},
		{"repository", run.Repository},
		{"run_id", run.RunID},
		{"event.repository.html_url", run.HTMLURL},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return Run{}, fmt.Errorf("github context missing %v", missing)
	}
	return run, nil
}

// Build returns the Slack message for a job that ended with status.
func Build(status string, run Run) (Payload, error) {
	o, ok := outcomes[status]
	if !ok {
		return Payload{}, fmt.Errorf("%w: %q", ErrUnknownStatus, status)
	}

	value := fmt.Sprintf("%s %s <%s/actions/runs/%s|%s> %s",
		run.Actor, o.description, run.HTMLURL, run.RunID, run.Workflow, o.emoji)

	return Payload{Attachments: []Attachment{{
		Fallback: run.Repository + " - " + value,
		Color:    o.color,
		Fields:   []Field{{Title: run.Repository, Value: value}},
	}}}, nil
}

// Client posts payloads to a webhook URL.
type Client struct {
	Webhook string
	HTTP    *retryablehttp.Client
}

// NewClient returns a client that retries transient failures up to retries
// times.
func NewClient(webhook string, retries int) *Client {
	rc := retryablehttp.NewClient()
	rc.HTTPClient = cleanhttp.DefaultClient()
	rc.RetryMax = retries
	rc.RetryWaitMin = 500 * time.Millisecond
	rc.RetryWaitMax = 5 * time.Second
	rc.Logger = leveledLogger{}
	return &Client{Webhook: webhook, HTTP: rc}
}

func (c *Client) Send(ctx context.Context, p Payload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return err
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.Webhook, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post to webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook returned %s: %s", resp.Status, bytes.TrimSpace(msg))
	}
	log.Debugf("webhook returned %s", resp.Status)
	return nil
}

// leveledLogger routes retryablehttp logging to apex/log.
type leveledLogger struct{}

func (leveledLogger) Error(msg string, kv ...interface{}) { entry(kv).Error(msg) }
func (leveledLogger) Info(msg string, kv ...interface{})  { entry(kv).Debug(msg) }
func (leveledLogger) Debug(msg string, kv ...interface{}) { entry(kv).Debug(msg) }
func (leveledLogger) Warn(msg string, kv ...interface{})  { entry(kv).Warn(msg) }

func entry(kv []interface{}) *log.Entry {
	fields := log.Fields{}
	for i := 0; i+1 < len(kv); i += 2 {
		fields[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return log.WithFields(fields)
}
