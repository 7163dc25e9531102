// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package log

import (
	"bytes"
	"testing"
	"time"

	"github.com/apex/log"
	"github.com/stretchr/testify/assert"
)

func fixedNow() time.Time {
	return time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)
}

func TestHandleLog(t *testing.T) {
	tests := []struct {
		name     string
		annotate bool
		level    log.Level
		message  string
		fields   log.Fields
		want     string
	}{
		{
			name:    "plain info",
			level:   log.InfoLevel,
			message: "Git root: /src",
			want:    "2025-03-04 05:06:07 I Git root: /src\n",
		},
		{
			name:    "fields sorted",
			level:   log.DebugLevel,
			message: "restored",
			fields:  log.Fields{"key": "abc", "bytes": 12},
			want:    "2025-03-04 05:06:07 D restored bytes=12 key=abc\n",
		},
		{
			name:     "annotated warning",
			annotate: true,
			level:    log.WarnLevel,
			message:  "could not fetch commits\nexit 128",
			want:     "::warning::could not fetch commits%0Aexit 128\n",
		},
		{
			name:     "annotated error",
			annotate: true,
			level:    log.ErrorLevel,
			message:  "100% broken",
			want:     "::error::100%25 broken\n",
		},
		{
			name:     "annotate leaves info alone",
			annotate: true,
			level:    log.InfoLevel,
			message:  "hello",
			want:     "2025-03-04 05:06:07 I hello\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			h := &CustomHandler{Writer: &buf, Annotate: tt.annotate, now: fixedNow}

			err := h.HandleLog(&log.Entry{
				Level:   tt.level,
				Message: tt.message,
				Fields:  tt.fields,
			})

			assert.NoError(t, err)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestInitLogger_Level(t *testing.T) {
	t.Setenv("CIKIT_LOG", "debug")
	t.Setenv("GITHUB_ACTIONS", "")
	InitLogger()

	l, ok := log.Log.(*log.Logger)
	assert.True(t, ok)
	assert.Equal(t, log.DebugLevel, l.Level)
}
