package source

import (
	"context"
)

const (
	NodeBlob = "blob"
	NodeTree = "tree"
)

// Upstream is the tagged remote file store components are pulled from.
type Upstream interface {
	// ListTags returns tag names in the order the remote reports them.
	ListTags(ctx context.Context) ([]string, error)
	// FetchTree returns every node of the recursive file tree at tag.
	FetchTree(ctx context.Context, tag string) ([]TreeNode, error)
	// FetchFile returns the raw content of path at tag.
	FetchFile(ctx context.Context, tag, path string) (string, error)
}

// TreeNode is one entry of an upstream file tree.
type TreeNode struct {
	Path string `json:"path"`
	Type string `json:"type"` // "blob" or "tree"
	Size int64  `json:"size,omitempty"`
	URL  string `json:"url,omitempty"`
}
