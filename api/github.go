package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// Repositories lists GitHub bindings. An empty appID lists all of them.
func (c *Client) Repositories(ctx context.Context, appID string, page Page) ([]Repository, *Pagination, error) {
	q := page.values()
	if appID != "" {
		q.Set("app_id", appID)
	}
	var out []Repository
	p, err := c.list(ctx, "/github/repositories", q, &out)
	return out, p, err
}

func (c *Client) Repository(ctx context.Context, id uint64) (*Repository, error) {
	seg, err := numericID(id)
	if err != nil {
		return nil, err
	}
	var out Repository
	if err := c.get(ctx, "/github/repositories/"+seg, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateRepository(ctx context.Context, in RepositoryInput) (*Repository, error) {
	var out Repository
	if err := c.send(ctx, http.MethodPost, "/github/repositories", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateRepository(ctx context.Context, id uint64, in RepositoryInput) (*Repository, error) {
	seg, err := numericID(id)
	if err != nil {
		return nil, err
	}
	var out Repository
	if err := c.send(ctx, http.MethodPut, "/github/repositories/"+seg, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteRepository(ctx context.Context, id uint64) error {
	seg, err := numericID(id)
	if err != nil {
		return err
	}
	return c.send(ctx, http.MethodDelete, "/github/repositories/"+seg, nil, nil)
}

type syncRequest struct {
	Force bool `json:"force"`
}

// SyncRepository imports new releases now. force re-imports releases that
// were already synced.
func (c *Client) SyncRepository(ctx context.Context, id uint64, force bool) (*SyncResult, error) {
	seg, err := numericID(id)
	if err != nil {
		return nil, err
	}
	var out SyncResult
	if err := c.send(ctx, http.MethodPost, "/github/repositories/"+seg+"/sync", syncRequest{Force: force}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RepositoryReleases returns at most limit releases; limit <= 0 uses the
// server default.
func (c *Client) RepositoryReleases(ctx context.Context, id uint64, limit int) (Raw, error) {
	return c.repositoryView(ctx, id, "releases", limitQuery(limit))
}

func (c *Client) RepositorySyncStatus(ctx context.Context, id uint64) (Raw, error) {
	return c.repositoryView(ctx, id, "sync-status", nil)
}

func (c *Client) RepositoryStats(ctx context.Context, id uint64) (Raw, error) {
	return c.repositoryView(ctx, id, "stats", nil)
}

func (c *Client) repositoryView(ctx context.Context, id uint64, view string, q url.Values) (Raw, error) {
	seg, err := numericID(id)
	if err != nil {
		return nil, err
	}
	var out Raw
	if err := c.get(ctx, "/github/repositories/"+seg+"/"+view, q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func limitQuery(limit int) url.Values {
	if limit <= 0 {
		return nil
	}
	return url.Values{"limit": []string{strconv.Itoa(limit)}}
}

// RepositoryCheck is the body of the repository validation call.
type RepositoryCheck struct {
	RepositoryURL  string `json:"repository_url"`
	OwnerName      string `json:"owner_name,omitempty"`
	RepoName       string `json:"repo_name,omitempty"`
	AuthType       string `json:"auth_type"`
	AccessToken    string `json:"access_token,omitempty"`
	GitHubAppID    int64  `json:"github_app_id,omitempty"`
	InstallationID int64  `json:"installation_id,omitempty"`
	PrivateKey     string `json:"private_key,omitempty"`
}

// ValidateRepository checks that the repository is reachable with the given
// credentials.
func (c *Client) ValidateRepository(ctx context.Context, in RepositoryCheck) (Raw, error) {
	var out Raw
	if err := c.send(ctx, http.MethodPost, "/github/repositories/validate", in, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type tokenCheck struct {
	AccessToken   string `json:"access_token"`
	RepositoryURL string `json:"repository_url,omitempty"`
}

// TestToken checks a personal access token, optionally against a repository.
func (c *Client) TestToken(ctx context.Context, token, repositoryURL string) (Raw, error) {
	var out Raw
	if err := c.send(ctx, http.MethodPost, "/github/test-token", tokenCheck{AccessToken: token, RepositoryURL: repositoryURL}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GitHubApp identifies a GitHub App by id and private key.
type GitHubApp struct {
	GitHubAppID    int64  `json:"github_app_id"`
	PrivateKey     string `json:"private_key"`
	InstallationID int64  `json:"installation_id,omitempty"`
	RepositoryURL  string `json:"repository_url,omitempty"`
}

func (c *Client) GitHubAppInstallations(ctx context.Context, app GitHubApp) (Raw, error) {
	var out Raw
	body := GitHubApp{GitHubAppID: app.GitHubAppID, PrivateKey: app.PrivateKey}
	if err := c.send(ctx, http.MethodPost, "/github/app/installations", body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) TestGitHubApp(ctx context.Context, app GitHubApp) (Raw, error) {
	var out Raw
	if err := c.send(ctx, http.MethodPost, "/github/app/test", app, &out); err != nil {
		return nil, err
	}
	return out, nil
}
