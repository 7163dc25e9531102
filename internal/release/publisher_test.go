// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package release

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPublisher(t *testing.T, handler http.HandlerFunc) *GitHubPublisher {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p, err := NewGitHubPublisher("acme/widgets", "s3cr3t", "", srv.Client())
	require.NoError(t, err)

	base, err := url.Parse(srv.URL + "/")
	require.NoError(t, err)
	p.client.BaseURL = base
	return p
}

func TestNewGitHubPublisher_Repository(t *testing.T) {
	for _, bad := range []string{"", "acme", "/widgets", "acme/"} {
		_, err := NewGitHubPublisher(bad, "", "", nil)
		assert.Error(t, err, bad)
	}

	p, err := NewGitHubPublisher("acme/widgets", "", "", nil)
	require.NoError(t, err)
	assert.Equal(t, "acme", p.Owner)
	assert.Equal(t, "widgets", p.Repo)
}

func TestGitHubPublisher_Publish(t *testing.T) {
	var body map[string]any
	var auth string

	p := testPublisher(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/repos/acme/widgets/releases", r.URL.Path)
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":1,"html_url":"https://github.com/acme/widgets/releases/tag/v1.5.0"}`))
	})

	url, err := p.Publish(context.Background(), Release{
		Tag:        "v1.5.0",
		Name:       "v1.5.0",
		Body:       "* feat: x",
		Target:     "abc",
		MakeLatest: "true",
	})
	require.NoError(t, err)

	assert.Equal(t, "https://github.com/acme/widgets/releases/tag/v1.5.0", url)
	assert.Equal(t, "Bearer s3cr3t", auth)
	assert.Equal(t, "v1.5.0", body["tag_name"])
	assert.Equal(t, "v1.5.0", body["name"])
	assert.Equal(t, "* feat: x", body["body"])
	assert.Equal(t, "abc", body["target_commitish"])
	assert.Equal(t, false, body["draft"])
	assert.Equal(t, false, body["prerelease"])
	assert.Equal(t, "true", body["make_latest"])
}

func TestGitHubPublisher_PublishError(t *testing.T) {
	p := testPublisher(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"Validation Failed","errors":[{"code":"already_exists","field":"tag_name"}]}`))
	})

	_, err := p.Publish(context.Background(), Release{Tag: "v1.0.0"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "v1.0.0")
	assert.Contains(t, err.Error(), "422")
}
