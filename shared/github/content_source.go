package github

import (
	"context"
	"errors"
	"fmt"
	"path"
	"regexp"
	"sort"

	"github.com/dfryer1193/peakblog/blog/domain"
	"github.com/google/go-github/v75/github"
)

const postsDir = "posts"

var unitNameRegex = regexp.MustCompile(`^\d+-[^/]*\.md$`)

// GithubContentSource is a domain.ContentSource reading posts/*.md from a GitHub repository at a ref.
type GithubContentSource struct {
	client  *github.Client
	owner   string
	gitRepo string
	ref     string
}

var _ domain.ContentSource = (*GithubContentSource)(nil)

// NewGithubContentSource creates a new GithubContentSource. An empty ref means the default branch.
func NewGithubContentSource(client *github.Client, owner string, gitRepo string, ref string) *GithubContentSource {
	return &GithubContentSource{
		client:  client,
		owner:   owner,
		gitRepo: gitRepo,
		ref:     ref,
	}
}

// NewClient returns a GitHub client, authenticated when token is not empty.
func NewClient(token string) *github.Client {
	client := github.NewClient(nil)
	if token != "" {
		client = client.WithAuthToken(token)
	}
	return client
}

// ListUnits lists the post files in the repository's posts directory.
func (g *GithubContentSource) ListUnits(ctx context.Context) ([]string, error) {
	op := fmt.Sprintf("listing %s at ref %q", postsDir, g.ref)
	_, entries, _, err := g.client.Repositories.GetContents(ctx, g.owner, g.gitRepo, postsDir, g.contentOptions())
	if err != nil {
		return nil, handleGithubError(op, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.GetType() != "file" || !unitNameRegex.MatchString(e.GetName()) {
			continue
		}
		names = append(names, e.GetName())
	}
	sort.Strings(names)
	return names, nil
}

// ReadUnit fetches the contents of posts/name.
func (g *GithubContentSource) ReadUnit(ctx context.Context, name string) ([]byte, error) {
	if !unitNameRegex.MatchString(name) {
		return nil, fmt.Errorf("invalid content unit name %q", name)
	}

	filePath := path.Join(postsDir, name)
	op := fmt.Sprintf("getting file %s at ref %q", filePath, g.ref)
	fileContent, _, _, err := g.client.Repositories.GetContents(ctx, g.owner, g.gitRepo, filePath, g.contentOptions())
	if err != nil {
		return nil, handleGithubError(op, err)
	}

	if fileContent == nil {
		return nil, fmt.Errorf("github: %s returned nil file content", op)
	}

	content, err := fileContent.GetContent()
	if err != nil {
		return nil, fmt.Errorf("github: %s failed to decode content: %w", op, err)
	}

	return []byte(content), nil
}

// Name identifies the source in logs, e.g. "github:owner/repo".
func (g *GithubContentSource) Name() string {
	return fmt.Sprintf("github:%s/%s", g.owner, g.gitRepo)
}

// GetDefaultBranchName fetches the repository metadata and returns the name of the default branch.
func (g *GithubContentSource) GetDefaultBranchName(ctx context.Context) (string, error) {
	op := fmt.Sprintf("getting repository info for %s/%s", g.owner, g.gitRepo)
	repo, _, err := g.client.Repositories.Get(ctx, g.owner, g.gitRepo)
	if err != nil {
		return "", handleGithubError(op, err)
	}
	return repo.GetDefaultBranch(), nil
}

func (g *GithubContentSource) contentOptions() *github.RepositoryContentGetOptions {
	if g.ref == "" {
		return nil
	}
	return &github.RepositoryContentGetOptions{Ref: g.ref}
}

// handleGithubError inspects an error from the go-github client and returns a more informative, structured error.
func handleGithubError(op string, err error) error {
	if err == nil {
		return nil
	}

	var errResp *github.ErrorResponse
	if errors.As(err, &errResp) && errResp.Response != nil {
		return fmt.Errorf("github: %s failed with status %d: %s", op, errResp.Response.StatusCode, errResp.Message)
	}

	return fmt.Errorf("github: %s failed: %w", op, err)
}
