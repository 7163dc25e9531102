// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	md2man "github.com/cpuguy83/go-md2man/v2/md2man"
)

// docgen reads docs/commands/*.md and renders, for every command,
//   - docs/man/share/man1/cikit-<cmd>.1 via md2man
//   - docs/tldr/cikit-<cmd>.md from the short description and quick examples

const (
	binary  = "cikit"
	homeURL = "https://github.com/staranto/cikit"
)

// Plain-text section headings recognised in command docs.
const (
	sectionShort    = "short description"
	sectionExamples = "quick examples"
)

type example struct {
	Desc string
	Cmd  string
}

// commandDoc is what the tldr page needs from a command's markdown.
type commandDoc struct {
	Name     string
	Title    string
	Short    string
	Examples []example
}

func main() {
	var (
		repoRoot      string
		onlyIfChanged bool
	)

	flag.StringVar(&repoRoot, "root", ".", "repo root (default current dir)")
	flag.BoolVar(&onlyIfChanged, "only-if-changed", true, "only write files if content changed")
	flag.Parse()

	if err := generate(repoRoot, onlyIfChanged); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func generate(root string, onlyIfChanged bool) error {
	commandsDir := filepath.Join(root, "docs", "commands")
	manDir := filepath.Join(root, "docs", "man", "share", "man1")
	tldrDir := filepath.Join(root, "docs", "tldr")

	for _, dir := range []string{manDir, tldrDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output dir: %w", err)
		}
	}

	entries, err := os.ReadDir(commandsDir)
	if err != nil {
		return fmt.Errorf("reading commands dir %s: %w", commandsDir, err)
	}

	var processed int
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		name := strings.TrimSuffix(e.Name(), ".md")
		raw, err := os.ReadFile(filepath.Join(commandsDir, e.Name()))
		if err != nil {
			return err
		}

		page := fmt.Sprintf("%s-%s", binary, name)
		if err := writeFileIfChanged(filepath.Join(manDir, page+".1"), md2man.Render(raw), onlyIfChanged); err != nil {
			return fmt.Errorf("writing man page for %s: %w", name, err)
		}

		doc := parseCommandDoc(name, string(raw))
		if err := writeFileIfChanged(filepath.Join(tldrDir, page+".md"), []byte(doc.TLDR()), onlyIfChanged); err != nil {
			return fmt.Errorf("writing tldr page for %s: %w", name, err)
		}

		processed++
	}

	if processed == 0 {
		return fmt.Errorf("no command markdown found under %s", commandsDir)
	}
	return nil
}

func writeFileIfChanged(path string, content []byte, onlyIfChanged bool) error {
	if onlyIfChanged {
		old, err := os.ReadFile(path)
		switch {
		case err == nil:
			if bytes.Equal(bytes.TrimSpace(old), bytes.TrimSpace(content)) {
				return nil
			}
		case !errors.Is(err, fs.ErrNotExist):
			return err
		}
	}
	return os.WriteFile(path, content, 0o644)
}

var h1Re = regexp.MustCompile(`^#\s+(.+)$`)

// sections splits md on its plain-text headings (a line on its own whose
// lowercase form is a known heading). Text before the first heading is keyed
// by "".
func sections(md string) map[string][]string {
	out := map[string][]string{}
	current := ""
	for _, ln := range strings.Split(strings.ReplaceAll(md, "\r\n", "\n"), "\n") {
		switch key := strings.ToLower(strings.TrimSpace(ln)); key {
		case sectionShort, sectionExamples, "flags and related docs":
			current = key
			continue
		}
		out[current] = append(out[current], ln)
	}
	return out
}

func parseCommandDoc(name, md string) commandDoc {
	doc := commandDoc{Name: name}
	secs := sections(md)

	for _, ln := range secs[""] {
		if m := h1Re.FindStringSubmatch(ln); m != nil {
			doc.Title = strings.TrimSpace(m[1])
			break
		}
	}

	// First paragraph only.
	var para []string
	for _, ln := range secs[sectionShort] {
		s := strings.TrimSpace(ln)
		if s == "" {
			if len(para) > 0 {
				break
			}
			continue
		}
		para = append(para, s)
	}
	doc.Short = strings.Join(para, " ")

	doc.Examples = parseExamples(secs[sectionExamples])
	return doc
}

// parseExamples reads the first fenced block of lines. A "#" line describes
// the command line that follows it.
func parseExamples(lines []string) []example {
	var (
		exs     []example
		desc    string
		inFence bool
	)
	for _, ln := range lines {
		s := strings.TrimSpace(ln)
		if strings.HasPrefix(s, "```") {
			if inFence {
				break
			}
			inFence = true
			continue
		}
		if !inFence || s == "" {
			continue
		}
		if strings.HasPrefix(s, "#") {
			desc = strings.TrimSpace(strings.TrimPrefix(s, "#"))
			continue
		}
		if desc == "" {
			desc = "Example"
		}
		exs = append(exs, example{Desc: desc, Cmd: s})
		desc = ""
	}
	return exs
}

// TLDR renders the page in tldr-pages format.
func (d commandDoc) TLDR() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s-%s\n\n", binary, d.Name)

	summary := d.Short
	if summary == "" {
		summary = d.Title
	}
	if summary == "" {
		summary = binary + " " + d.Name
	}
	fmt.Fprintf(&b, "> %s\n", summary)
	fmt.Fprintf(&b, "> More information: %s.\n", homeURL)

	exs := d.Examples
	if len(exs) == 0 {
		exs = []example{{Desc: "Show help for the command", Cmd: binary + " " + d.Name + " --help"}}
	}
	for _, ex := range exs {
		fmt.Fprintf(&b, "\n- %s:\n\n`%s`\n", ex.Desc, sanitizeCommand(ex.Cmd))
	}
	return b.String()
}

var placeholderRe = regexp.MustCompile(`<([a-zA-Z0-9_.-]+)>`)

// sanitizeCommand compresses whitespace and turns <name> placeholders into
// the tldr {{name}} form.
func sanitizeCommand(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return placeholderRe.ReplaceAllString(s, "{{$1}}")
}
