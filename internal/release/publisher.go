// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package release

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/go-github/v66/github"
	"github.com/hashicorp/go-cleanhttp"
)

// Release is the request for one tagged release.
type Release struct {
	Tag        string `json:"tag" yaml:"tag"`
	Name       string `json:"name" yaml:"name"`
	Body       string `json:"body" yaml:"body"`
	Target     string `json:"target" yaml:"target"`
	Draft      bool   `json:"draft" yaml:"draft"`
	Prerelease bool   `json:"prerelease" yaml:"prerelease"`
	// MakeLatest is "true", "false" or "legacy".
	MakeLatest string `json:"make_latest" yaml:"make_latest"`
}

// Publisher creates a release (and with it, the tag).
type Publisher interface {
	Publish(ctx context.Context, r Release) (string, error)
}

// GitHubPublisher creates releases through the GitHub REST API.
type GitHubPublisher struct {
	Owner  string
	Repo   string
	client *github.Client
}

// NewGitHubPublisher builds a publisher for "owner/repo". apiURL may point at
// a GitHub Enterprise Server API root; empty means github.com.
func NewGitHubPublisher(repository, token, apiURL string, httpClient *http.Client) (*GitHubPublisher, error) {
	owner, repo, ok := strings.Cut(repository, "/")
	if !ok || owner == "" || repo == "" {
		return nil, fmt.Errorf("repository must be owner/repo, got %q", repository)
	}

	if httpClient == nil {
		httpClient = cleanhttp.DefaultClient()
	}
	client := github.NewClient(httpClient)
	if token != "" {
		client = client.WithAuthToken(token)
	}
	if apiURL != "" && !strings.HasPrefix(apiURL, "https://api.github.com") {
		var err error
		client, err = client.WithEnterpriseURLs(apiURL, apiURL)
		if err != nil {
			return nil, fmt.Errorf("invalid API URL %q: %w", apiURL, err)
		}
	}

	return &GitHubPublisher{Owner: owner, Repo: repo, client: client}, nil
}

// Publish implements Publisher and returns the release HTML URL.
func (p *GitHubPublisher) Publish(ctx context.Context, r Release) (string, error) {
	req := &github.RepositoryRelease{
		TagName:    github.String(r.Tag),
		Name:       github.String(r.Name),
		Body:       github.String(r.Body),
		Draft:      github.Bool(r.Draft),
		Prerelease: github.Bool(r.Prerelease),
	}
	if r.Target != "" {
		req.TargetCommitish = github.String(r.Target)
	}
	if r.MakeLatest != "" {
		req.MakeLatest = github.String(r.MakeLatest)
	}

	created, _, err := p.client.Repositories.CreateRelease(ctx, p.Owner, p.Repo, req)
	if err != nil {
		var ghErr *github.ErrorResponse
		if errors.As(err, &ghErr) && ghErr.Response != nil {
			return "", fmt.Errorf("create release %s: %s: %w", r.Tag, ghErr.Response.Status, err)
		}
		return "", fmt.Errorf("create release %s: %w", r.Tag, err)
	}
	return created.GetHTMLURL(), nil
}
