// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package commit

import (
	"regexp"
	"strings"
)

// BreakingChange is the normalized title of a breaking-change note.
const BreakingChange = "BREAKING CHANGE"

// Note is a titled footer section such as "BREAKING CHANGE: ...".
type Note struct {
	Title string `json:"title" yaml:"title"`
	Text  string `json:"text" yaml:"text"`
}

// Commit is the parsed form of one commit message.
type Commit struct {
	SHA     string `json:"sha,omitempty" yaml:"sha,omitempty"`
	Header  string `json:"header" yaml:"header"`
	Type    string `json:"type,omitempty" yaml:"type,omitempty"`
	Scope   string `json:"scope,omitempty" yaml:"scope,omitempty"`
	Subject string `json:"subject,omitempty" yaml:"subject,omitempty"`
	Body    string `json:"body,omitempty" yaml:"body,omitempty"`
	Notes   []Note `json:"notes,omitempty" yaml:"notes,omitempty"`
}

var (
	// type, optional "!", optional (scope), optional "!", ":" subject.
	headerRe = regexp.MustCompile(`^(\w[\w-]*)(!)?(?:\(([^()\r\n]*)\))?(!)?:\s*(.*)$`)
	noteRe   = regexp.MustCompile(`^BREAKING[ -]CHANGE:\s*(.*)$`)
)

// Parse turns a raw commit message into a Commit. A header that does not
// follow the conventional format leaves Type empty; Parse never fails.
func Parse(sha, message string) Commit {
	c := Commit{SHA: sha}

	lines := strings.Split(strings.ReplaceAll(message, "\r\n", "\n"), "\n")

	// Skip leading blank lines; the first non-empty one is the header.
	i := 0
	for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
		i++
	}
	if i == len(lines) {
		return c
	}
	c.Header = strings.TrimSpace(lines[i])

	if m := headerRe.FindStringSubmatch(c.Header); m != nil {
		c.Type = m[1]
		c.Scope = m[3]
		c.Subject = m[5]
	}

	var body []string
	var note *Note
	for _, line := range lines[i+1:] {
		trimmed := strings.TrimSpace(line)
		if m := noteRe.FindStringSubmatch(trimmed); m != nil {
			if note != nil {
				c.Notes = append(c.Notes, finishNote(note))
			}
			note = &Note{Title: BreakingChange, Text: m[1]}
			continue
		}
		if note != nil {
			note.Text += "\n" + line
			continue
		}
		body = append(body, line)
	}
	if note != nil {
		c.Notes = append(c.Notes, finishNote(note))
	}
	c.Body = strings.TrimSpace(strings.Join(body, "\n"))

	return c
}

func finishNote(n *Note) Note {
	return Note{Title: n.Title, Text: strings.TrimSpace(n.Text)}
}
