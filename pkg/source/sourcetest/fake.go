// Package sourcetest provides an in-memory upstream for tests.
package sourcetest

import (
	"context"
	"fmt"
	"sync"

	"github.com/compkit/compkit/pkg/source"
)

// Fake is an in-memory source.Upstream that records the requests it serves.
type Fake struct {
	Tags  []string
	Trees map[string][]source.TreeNode
	// Files is keyed by "<tag>:<path>".
	Files map[string]string

	TagsErr error
	TreeErr map[string]error
	FileErr map[string]error

	mu        sync.Mutex
	TagCalls  int
	TreeCalls map[string]int
	FileCalls map[string]int
}

var _ source.Upstream = &Fake{}

// Blobs builds blob tree nodes for paths.
func Blobs(paths ...string) []source.TreeNode {
	nodes := make([]source.TreeNode, 0, len(paths))
	for _, p := range paths {
		nodes = append(nodes, source.TreeNode{Path: p, Type: source.NodeBlob})
	}
	return nodes
}

func FileKey(tag, path string) string {
	return tag + ":" + path
}

func (f *Fake) ListTags(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	f.TagCalls++
	f.mu.Unlock()

	if f.TagsErr != nil {
		return nil, fmt.Errorf("fetching tags: %w", f.TagsErr)
	}
	return append([]string(nil), f.Tags...), nil
}

func (f *Fake) FetchTree(ctx context.Context, tag string) ([]source.TreeNode, error) {
	f.mu.Lock()
	if f.TreeCalls == nil {
		f.TreeCalls = make(map[string]int)
	}
	f.TreeCalls[tag]++
	f.mu.Unlock()

	if err := f.TreeErr[tag]; err != nil {
		return nil, fmt.Errorf("fetching tree for %s: %w", tag, err)
	}
	nodes, ok := f.Trees[tag]
	if !ok {
		return nil, fmt.Errorf("fetching tree for %s: HTTP 404", tag)
	}
	return nodes, nil
}

func (f *Fake) FetchFile(ctx context.Context, tag, path string) (string, error) {
	key := FileKey(tag, path)
	f.mu.Lock()
	if f.FileCalls == nil {
		f.FileCalls = make(map[string]int)
	}
	f.FileCalls[key]++
	f.mu.Unlock()

	if err := f.FileErr[key]; err != nil {
		return "", fmt.Errorf("fetching file %s@%s: %w", path, tag, err)
	}
	content, ok := f.Files[key]
	if !ok {
		return "", fmt.Errorf("fetching file %s@%s: HTTP 404", path, tag)
	}
	return content, nil
}

// Calls returns the total number of requests served.
func (f *Fake) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := f.TagCalls
	for _, c := range f.TreeCalls {
		n += c
	}
	for _, c := range f.FileCalls {
		n += c
	}
	return n
}
