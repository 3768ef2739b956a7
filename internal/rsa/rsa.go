// Package rsa implements the review-server adapter: the narrow surface the
// recombination lifecycle engine uses to query and mutate reviews on the
// replica's review server. GitHub is the concrete backend (spec.md §4.3);
// a pull request stands in for a Gerrit change, PR reviews and the combined
// commit status stand in for Code-Review/Verified approval labels, and a "topic:<id>"
// issue label stands in for Gerrit's native topic field.
package rsa

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"strings"

	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"

	"github.com/gabrielecerami/gitnetics/internal/logging"
	"github.com/gabrielecerami/gitnetics/internal/recomb"
)

// RSA is one review-server handle, scoped to a single GitHub repository
// (the replica project's host repo).
type RSA struct {
	client *github.Client
	owner  string
	repo   string
	logger *logging.Logger
}

// New bootstraps an RSA from a git remote URL (https or ssh form, github.com
// or GitHub Enterprise), authenticating via GITHUB_TOKEN or the gh CLI.
// Grounded on jonnii-stackit/internal/github/pr_info.go's
// getGitHubToken/createGitHubClient/ParseGitHubRemoteURL.
func New(ctx context.Context, remoteURL string, logger *logging.Logger) (*RSA, error) {
	token, err := getGitHubToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get GitHub token: %w", err)
	}
	info, err := ParseGitHubRemoteURL(remoteURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse review-server remote: %w", err)
	}
	client, err := createGitHubClient(ctx, info.Hostname, token)
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub client: %w", err)
	}
	return &RSA{client: client, owner: info.Owner, repo: info.Repo, logger: logger}, nil
}

// NewWithClient builds an RSA around an already-constructed client, for
// tests and for callers that already hold an authenticated *github.Client.
func NewWithClient(client *github.Client, owner, repo string, logger *logging.Logger) *RSA {
	return &RSA{client: client, owner: owner, repo: repo, logger: logger}
}

// RepoInfo is the parsed hostname/owner/repo of a git remote URL.
type RepoInfo struct {
	Hostname string
	Owner    string
	Repo     string
}

// ParseGitHubRemoteURL parses both HTTPS and SSH remote URL forms,
// including GitHub Enterprise hosts. Ported from
// jonnii-stackit/internal/github/pr_info.go.
func ParseGitHubRemoteURL(remoteURL string) (*RepoInfo, error) {
	remoteURL = strings.TrimSpace(remoteURL)
	remoteURL = strings.TrimSuffix(remoteURL, ".git")

	var hostname, owner, repo string

	if strings.Contains(remoteURL, "@") {
		parts := strings.SplitN(remoteURL, "@", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid SSH remote URL format")
		}
		hostAndPath := parts[1]

		var path string
		if strings.Contains(hostAndPath, ":") {
			hostPathParts := strings.SplitN(hostAndPath, ":", 2)
			hostname = hostPathParts[0]
			path = hostPathParts[1]
		} else {
			pathParts := strings.SplitN(hostAndPath, "/", 2)
			if len(pathParts) < 2 {
				return nil, fmt.Errorf("invalid SSH remote URL: missing path")
			}
			hostname = pathParts[0]
			path = pathParts[1]
		}

		pathParts := strings.Split(path, "/")
		if len(pathParts) < 2 {
			return nil, fmt.Errorf("invalid SSH remote URL: path must be owner/repo")
		}
		owner = pathParts[0]
		repo = pathParts[len(pathParts)-1]
	} else {
		remoteURL = strings.TrimPrefix(remoteURL, "https://")
		remoteURL = strings.TrimPrefix(remoteURL, "http://")

		parts := strings.Split(remoteURL, "/")
		if len(parts) < 3 {
			return nil, fmt.Errorf("invalid HTTPS remote URL: must be protocol://hostname/owner/repo")
		}
		hostname = parts[0]
		owner = parts[len(parts)-2]
		repo = parts[len(parts)-1]
	}

	if hostname == "" || owner == "" || repo == "" {
		return nil, fmt.Errorf("failed to parse hostname, owner, or repo from remote URL")
	}
	return &RepoInfo{Hostname: hostname, Owner: owner, Repo: repo}, nil
}

func createGitHubClient(ctx context.Context, hostname, token string) (*github.Client, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(ctx, ts)
	client := github.NewClient(tc)

	if hostname != "github.com" {
		baseURL, err := url.Parse(fmt.Sprintf("https://%s/api/v3/", hostname))
		if err != nil {
			return nil, fmt.Errorf("failed to parse base URL for hostname %s: %w", hostname, err)
		}
		uploadURL, err := url.Parse(fmt.Sprintf("https://%s/api/uploads/", hostname))
		if err != nil {
			return nil, fmt.Errorf("failed to parse upload URL for hostname %s: %w", hostname, err)
		}
		client.BaseURL = baseURL
		client.UploadURL = uploadURL
	}
	return client, nil
}

func getGitHubToken(ctx context.Context) (string, error) {
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		return token, nil
	}
	out, err := exec.CommandContext(ctx, "gh", "auth", "token").Output()
	if err != nil {
		return "", fmt.Errorf("failed to get GitHub token: %w", err)
	}
	token := strings.TrimSpace(string(out))
	if token == "" {
		return "", fmt.Errorf("empty GitHub token")
	}
	return token, nil
}

// topicLabel is the wire convention for spec.md's topic field, which
// GitHub PRs have no native equivalent for (Open Question resolution, see
// SPEC_FULL.md).
func topicLabel(topic string) string {
	return "topic:" + topic
}

// Key selects one review-server record by exactly one of its fields,
// mirroring spec.md §4.3's get_by({topic|branch|number|id}).
type Key struct {
	Topic  string
	Branch string
	Number string
	ID     string
}

// GetBy resolves a Change by topic, branch, number, or id (topic and id
// both resolve via the topic label, since topic is the upstream
// identifier per spec.md's P1 invariant). Returns nil, nil if absent.
func (r *RSA) GetBy(ctx context.Context, key Key) (*recomb.Change, error) {
	switch {
	case key.Number != "":
		return r.getByNumber(ctx, key.Number)
	case key.Branch != "":
		return r.getByBranch(ctx, key.Branch)
	case key.Topic != "":
		return r.getByTopic(ctx, key.Topic)
	case key.ID != "":
		return r.getByTopic(ctx, key.ID)
	default:
		return nil, fmt.Errorf("rsa: GetBy requires exactly one of Topic, Branch, Number, ID")
	}
}

func (r *RSA) getByNumber(ctx context.Context, number string) (*recomb.Change, error) {
	n, err := parsePRNumber(number)
	if err != nil {
		return nil, err
	}
	pr, resp, err := r.client.PullRequests.Get(ctx, r.owner, r.repo, n)
	if err != nil {
		if resp != nil && resp.StatusCode == 404 {
			return nil, nil
		}
		return nil, fmt.Errorf("get pull request %s: %w", number, err)
	}
	return r.normalize(ctx, pr)
}

func (r *RSA) getByBranch(ctx context.Context, branch string) (*recomb.Change, error) {
	prs, _, err := r.client.PullRequests.List(ctx, r.owner, r.repo, &github.PullRequestListOptions{
		Head:        fmt.Sprintf("%s:%s", r.owner, branch),
		State:       "all",
		ListOptions: github.ListOptions{PerPage: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("list pull requests for branch %s: %w", branch, err)
	}
	if len(prs) == 0 {
		return nil, nil
	}
	return r.normalize(ctx, prs[0])
}

func (r *RSA) getByTopic(ctx context.Context, topic string) (*recomb.Change, error) {
	changes, err := r.Query(ctx, topic)
	if err != nil {
		return nil, err
	}
	if len(changes) == 0 {
		return nil, nil
	}
	return changes[0], nil
}

// Query returns every open-or-closed Change carrying the topic label,
// spec.md §4.3's query(predicate) specialized to topic lookups (the only
// predicate the engine actually needs).
func (r *RSA) Query(ctx context.Context, topic string) ([]*recomb.Change, error) {
	q := fmt.Sprintf("repo:%s/%s type:pr label:%q", r.owner, r.repo, topicLabel(topic))
	result, _, err := r.client.Search.Issues(ctx, q, &github.SearchOptions{
		ListOptions: github.ListOptions{PerPage: 50},
	})
	if err != nil {
		return nil, fmt.Errorf("search pull requests for topic %s: %w", topic, err)
	}

	changes := make([]*recomb.Change, 0, len(result.Issues))
	for _, issue := range result.Issues {
		pr, _, err := r.client.PullRequests.Get(ctx, r.owner, r.repo, issue.GetNumber())
		if err != nil {
			return nil, fmt.Errorf("get pull request %d: %w", issue.GetNumber(), err)
		}
		change, err := r.normalize(ctx, pr)
		if err != nil {
			return nil, err
		}
		changes = append(changes, change)
	}
	return changes, nil
}

func parsePRNumber(number string) (int, error) {
	var n int
	if _, err := fmt.Sscanf(number, "%d", &n); err != nil {
		return 0, fmt.Errorf("invalid pull request number %q: %w", number, err)
	}
	return n, nil
}
