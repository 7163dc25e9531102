// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package commit

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// BumpLevel is the semantic version increment implied by a commit. Levels are
// ordered: None < Patch < Minor < Major.
type BumpLevel int

const (
	None BumpLevel = iota
	Patch
	Minor
	Major
)

var levelNames = [...]string{"none", "patch", "minor", "major"}

func (l BumpLevel) String() string {
	if l < None || l > Major {
		return fmt.Sprintf("BumpLevel(%d)", int(l))
	}
	return levelNames[l]
}

// MarshalJSON renders the level by name.
func (l BumpLevel) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

// MarshalYAML renders the level by name.
func (l BumpLevel) MarshalYAML() (interface{}, error) {
	return l.String(), nil
}

// breakingHeaderRe matches "!" directly after the type, with or without a
// scope, ahead of the subject separator: "feat!:", "feat(api)!:", "feat!(api):".
var breakingHeaderRe = regexp.MustCompile(`^\w[\w-]*(?:\([^()]*\))?!:|^\w[\w-]*!\(`)

type rule struct {
	level BumpLevel
	match func(Commit) bool
}

// rules are evaluated in order; the first match wins.
var rules = []rule{
	{Major, func(c Commit) bool { return breakingHeaderRe.MatchString(c.Header) }},
	{Major, func(c Commit) bool { return hasNote(c, BreakingChange) }},
	{Minor, typeIn("feat", "feature")},
	{Patch, typeIn("fix")},
}

func typeIn(types ...string) func(Commit) bool {
	return func(c Commit) bool {
		for _, t := range types {
			if strings.EqualFold(c.Type, t) {
				return true
			}
		}
		return false
	}
}

func hasNote(c Commit, title string) bool {
	for _, n := range c.Notes {
		if n.Title == title {
			return true
		}
	}
	return false
}

// Classify returns the bump level a single commit implies.
func Classify(c Commit) BumpLevel {
	for _, r := range rules {
		if r.match(c) {
			return r.level
		}
	}
	return None
}

// Aggregate returns the highest level across commits, or None.
func Aggregate(commits []Commit) BumpLevel {
	level := None
	for _, c := range commits {
		if l := Classify(c); l > level {
			level = l
		}
		if level == Major {
			break
		}
	}
	return level
}
