// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package log

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/apex/log"
)

// InitLogger sets up Apex with a custom handler and a log level from the
// CIKIT_LOG env variable. Workflow commands are emitted when running under
// GitHub Actions.
func InitLogger() {
	level := strings.ToUpper(os.Getenv("CIKIT_LOG"))
	if level == "" {
		level = "INFO"
	}
	log.SetHandler(&CustomHandler{
		Annotate: os.Getenv("GITHUB_ACTIONS") == "true",
	})
	lvl, err := log.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
}

// CustomHandler formats log messages and writes to Writer (stdout if nil).
type CustomHandler struct {
	Writer io.Writer
	// Annotate additionally writes warn and error entries as GitHub Actions
	// workflow commands so they surface on the run summary.
	Annotate bool

	mu  sync.Mutex
	now func() time.Time
}

// HandleLog implements the log.Handler interface
func (h *CustomHandler) HandleLog(e *log.Entry) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	w := h.Writer
	if w == nil {
		w = os.Stdout
	}
	now := time.Now
	if h.now != nil {
		now = h.now
	}

	timestamp := now().Format("2006-01-02 15:04:05")
	level := strings.ToUpper(e.Level.String())
	message := e.Message + formatFields(e.Fields)

	if h.Annotate {
		switch e.Level {
		case log.WarnLevel:
			fmt.Fprintf(w, "::warning::%s\n", escapeCommand(message))
			return nil
		case log.ErrorLevel, log.FatalLevel:
			fmt.Fprintf(w, "::error::%s\n", escapeCommand(message))
			return nil
		}
	}

	fmt.Fprintf(w, "%s %.1s %s\n", timestamp, level, message)
	return nil
}

func formatFields(fields log.Fields) string {
	if len(fields) == 0 {
		return ""
	}
	names := make([]string, 0, len(fields))
	for k := range fields {
		names = append(names, k)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, k := range names {
		fmt.Fprintf(&b, " %s=%v", k, fields[k])
	}
	return b.String()
}

// escapeCommand applies the workflow command data escaping rules.
func escapeCommand(s string) string {
	s = strings.ReplaceAll(s, "%", "%25")
	s = strings.ReplaceAll(s, "\r", "%0D")
	return strings.ReplaceAll(s, "\n", "%0A")
}
