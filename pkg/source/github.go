package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const (
	DefaultAPIURL = "https://api.github.com"
	DefaultRawURL = "https://raw.githubusercontent.com"
)

// GitHub reads tags, trees and raw files of a single GitHub repository.
type GitHub struct {
	Owner string
	Repo  string
	// APIURL and RawURL default to the public github.com endpoints.
	APIURL string
	RawURL string
	Client *http.Client
}

var _ Upstream = &GitHub{}

func NewGitHub(client *http.Client, owner, repo string) *GitHub {
	if client == nil {
		client = http.DefaultClient
	}
	return &GitHub{
		Owner:  owner,
		Repo:   repo,
		APIURL: DefaultAPIURL,
		RawURL: DefaultRawURL,
		Client: client,
	}
}

// TagsURL returns the tag listing endpoint.
func (g *GitHub) TagsURL() string {
	return fmt.Sprintf("%s/repos/%s/%s/tags?per_page=100",
		strings.TrimSuffix(g.APIURL, "/"), url.PathEscape(g.Owner), url.PathEscape(g.Repo))
}

// TreeURL returns the recursive tree endpoint for tag.
func (g *GitHub) TreeURL(tag string) string {
	return fmt.Sprintf("%s/repos/%s/%s/git/trees/%s?recursive=1",
		strings.TrimSuffix(g.APIURL, "/"), url.PathEscape(g.Owner), url.PathEscape(g.Repo), url.PathEscape(tag))
}

// FileURL returns the raw content URL for path at tag. The path itself is
// not escaped so its separators survive.
func (g *GitHub) FileURL(tag, path string) string {
	return fmt.Sprintf("%s/%s/%s/%s/%s",
		strings.TrimSuffix(g.RawURL, "/"), url.PathEscape(g.Owner), url.PathEscape(g.Repo), url.PathEscape(tag), path)
}

func (g *GitHub) ListTags(ctx context.Context) ([]string, error) {
	var list []struct {
		Name string `json:"name"`
	}
	if err := g.getJSON(ctx, g.TagsURL(), &list); err != nil {
		return nil, fmt.Errorf("fetching tags for %s/%s: %w", g.Owner, g.Repo, err)
	}

	tags := make([]string, 0, len(list))
	for _, item := range list {
		tags = append(tags, item.Name)
	}
	return tags, nil
}

func (g *GitHub) FetchTree(ctx context.Context, tag string) ([]TreeNode, error) {
	var resp struct {
		SHA       string     `json:"sha"`
		Tree      []TreeNode `json:"tree"`
		Truncated bool       `json:"truncated"`
	}
	if err := g.getJSON(ctx, g.TreeURL(tag), &resp); err != nil {
		return nil, fmt.Errorf("fetching tree for %s: %w", tag, err)
	}
	return resp.Tree, nil
}

func (g *GitHub) FetchFile(ctx context.Context, tag, path string) (string, error) {
	body, err := g.get(ctx, g.FileURL(tag, path))
	if err != nil {
		return "", fmt.Errorf("fetching file %s@%s: %w", path, tag, err)
	}
	return string(body), nil
}

func (g *GitHub) getJSON(ctx context.Context, rawURL string, v any) error {
	body, err := g.get(ctx, rawURL)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decoding response from %s: %w", rawURL, err)
	}
	return nil
}

func (g *GitHub) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := g.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response from %s: %w", rawURL, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("GET %s: HTTP %d: %s", rawURL, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}
