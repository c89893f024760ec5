// Package resolver turns version requests into upstream tags and tags into
// concrete file sets.
package resolver

import (
	"context"
	"errors"
	"fmt"

	"github.com/gobwas/glob"
	"golang.org/x/sync/errgroup"

	"github.com/compkit/compkit/pkg/component"
	"github.com/compkit/compkit/pkg/policy"
	"github.com/compkit/compkit/pkg/source"
	"github.com/compkit/compkit/pkg/versionmap"
)

// ErrNoTags is returned when resolving latest and the upstream lists no tags.
var ErrNoTags = errors.New("upstream has no tags")

// TagResolver maps a version to a concrete upstream tag.
type TagResolver struct {
	Upstream source.Upstream
	Policy   *policy.Policy
}

// Resolve returns the tag for version. Explicit versions go through the tag
// naming policy without touching the upstream; Latest lists the upstream
// tags and picks one with SelectLatest.
func (r *TagResolver) Resolve(ctx context.Context, version component.Version) (string, error) {
	if !version.IsLatest() {
		return r.Policy.Tag(version), nil
	}

	tags, err := r.Upstream.ListTags(ctx)
	if err != nil {
		return "", fmt.Errorf("resolving latest tag: %w", err)
	}
	return SelectLatest(tags, r.Policy.ValidTag)
}

// SelectLatest returns the first tag accepted by valid. If valid rejects
// every tag, the first tag is returned anyway. A nil valid accepts all.
func SelectLatest(tags []string, valid func(string) bool) (string, error) {
	if len(tags) == 0 {
		return "", ErrNoTags
	}
	if valid == nil {
		return tags[0], nil
	}
	for _, t := range tags {
		if valid(t) {
			return t, nil
		}
	}
	return tags[0], nil
}

// FileSetResolver selects files from the upstream tree at a tag.
type FileSetResolver struct {
	Upstream source.Upstream
}

// Resolve fetches the tree for tag once and returns every node path that
// matches each pattern. Output is grouped by pattern in input order, with
// tree order inside each group. A path matched by two patterns appears
// twice. Tree nodes of type "tree" are not filtered out.
func (r *FileSetResolver) Resolve(ctx context.Context, tag string, patterns []string) ([]string, error) {
	matchers, err := compile(patterns)
	if err != nil {
		return nil, err
	}

	nodes, err := r.Upstream.FetchTree(ctx, tag)
	if err != nil {
		return nil, fmt.Errorf("resolving files for %s: %w", tag, err)
	}

	groups := make([][]string, len(matchers))
	var g errgroup.Group
	for i, m := range matchers {
		g.Go(func() error {
			for _, n := range nodes {
				if m.Match(n.Path) {
					groups[i] = append(groups[i], n.Path)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var files []string
	for _, group := range groups {
		files = append(files, group...)
	}
	return files, nil
}

// compile builds one matcher per pattern. Only '*' is a wildcard and it
// also matches across '/'.
func compile(patterns []string) ([]glob.Glob, error) {
	matchers := make([]glob.Glob, len(patterns))
	for i, p := range patterns {
		g, err := policy.CompileGlob(p)
		if err != nil {
			return nil, fmt.Errorf("invalid file pattern %q: %w", p, err)
		}
		matchers[i] = g
	}
	return matchers, nil
}

// Resolver combines tag and file set resolution for whole components.
type Resolver struct {
	Tags  *TagResolver
	Files *FileSetResolver
}

// New returns a Resolver whose tag and file resolvers share upstream.
func New(upstream source.Upstream, p *policy.Policy) *Resolver {
	return &Resolver{
		Tags:  &TagResolver{Upstream: upstream, Policy: p},
		Files: &FileSetResolver{Upstream: upstream},
	}
}

// Component resolves name at version into an Info. vm is passed through to
// the pattern policy and may be nil.
func (r *Resolver) Component(ctx context.Context, name string, version component.Version, vm *versionmap.VersionMap) (component.Info, error) {
	tag, err := r.Tags.Resolve(ctx, version)
	if err != nil {
		return component.Info{}, fmt.Errorf("resolving %s@%s: %w", name, version, err)
	}
	return r.ComponentAt(ctx, name, version, tag, vm)
}

// ComponentAt resolves the file set for name at an already known tag.
func (r *Resolver) ComponentAt(ctx context.Context, name string, version component.Version, tag string, vm *versionmap.VersionMap) (component.Info, error) {
	patterns := r.Tags.Policy.Patterns(name, tag, vm)
	files, err := r.Files.Resolve(ctx, tag, patterns)
	if err != nil {
		return component.Info{}, fmt.Errorf("resolving %s@%s: %w", name, version, err)
	}
	return component.Info{Component: name, Files: files, Tag: tag, Version: version}, nil
}
