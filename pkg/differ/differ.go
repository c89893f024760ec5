// Package differ compares installed component files with an upstream
// version.
package differ

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/compkit/compkit/pkg/component"
	"github.com/compkit/compkit/pkg/policy"
	"github.com/compkit/compkit/pkg/resolver"
	"github.com/compkit/compkit/pkg/source"
	"github.com/compkit/compkit/pkg/versionmap"
	"github.com/compkit/compkit/pkg/workspace"
)

// ErrNoBaseline is returned when no old version was given and there is no
// version map to read one from.
var ErrNoBaseline = errors.New("old version is required when components.json is not used")

// Engine diffs installed component files against an upstream version.
type Engine struct {
	Upstream  source.Upstream
	Policy    *policy.Policy
	Workspace workspace.Workspace
	// Versions is nil when version tracking is disabled.
	Versions versionmap.Store
	Logger   *slog.Logger
}

// DiffOptions selects what Diff compares.
type DiffOptions struct {
	// Component is "name" or "name@version". The version defaults to latest.
	Component string
	// OldVersion is the installed baseline. Empty reads it from the version
	// map.
	OldVersion component.Version
}

// FileDiff is the line diff of one upstream path against its local copy.
type FileDiff struct {
	// Path is the upstream path.
	Path string
	// Dest is the project-relative local path.
	Dest string
	// Removed is set for files that exist at the old version only. Their
	// diff runs against empty content.
	Removed bool
	Changes []Change
}

// Changed reports whether the diff contains any added or removed lines.
func (d FileDiff) Changed() bool {
	for _, c := range d.Changes {
		if c.Added || c.Removed {
			return true
		}
	}
	return false
}

func (e *Engine) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return e.Logger
}

// Diff compares the local copy of a component with its new upstream version.
// Results list every file of the new version first, in resolution order,
// then every file that only the old version had, diffed against empty
// content. A missing local file is an error.
func (e *Engine) Diff(ctx context.Context, opts DiffOptions) ([]FileDiff, error) {
	req := component.ParseRequest(opts.Component, component.Latest)

	oldVersion, vm, err := e.baseline(req.Name, opts.OldVersion)
	if err != nil {
		return nil, err
	}

	r := resolver.New(e.Upstream, e.Policy)
	newTag, err := r.Tags.Resolve(ctx, req.Version)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", req, err)
	}
	oldTag := e.Policy.Tag(oldVersion)
	e.logger().Debug("diffing", "component", req.Name, "old", oldTag, "new", newTag)

	var newInfo, oldInfo component.Info
	var sets errgroup.Group
	sets.Go(func() error {
		var err error
		newInfo, err = r.ComponentAt(ctx, req.Name, req.Version, newTag, vm)
		return err
	})
	sets.Go(func() error {
		var err error
		oldInfo, err = r.ComponentAt(ctx, req.Name, oldVersion, oldTag, vm)
		return err
	})
	if err := sets.Wait(); err != nil {
		return nil, err
	}

	inNew := make(map[string]bool, len(newInfo.Files))
	for _, f := range newInfo.Files {
		inNew[f] = true
	}
	var oldOnly []string
	for _, f := range oldInfo.Files {
		if !inNew[f] {
			oldOnly = append(oldOnly, f)
		}
	}

	diffs := make([]FileDiff, len(newInfo.Files)+len(oldOnly))
	var g errgroup.Group
	for i, file := range newInfo.Files {
		g.Go(func() error {
			raw, err := e.Upstream.FetchFile(ctx, newTag, file)
			if err != nil {
				return fmt.Errorf("downloading %s: %w", file, err)
			}
			d, err := e.diffLocal(file, e.Policy.Apply(file, newTag, raw))
			if err != nil {
				return err
			}
			diffs[i] = d
			return nil
		})
	}
	for i, file := range oldOnly {
		g.Go(func() error {
			d, err := e.diffLocal(file, "")
			if err != nil {
				return err
			}
			d.Removed = true
			diffs[len(newInfo.Files)+i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return diffs, nil
}

// baseline picks the old version, reading the version map only when no
// version was passed. The returned map is nil when it was not loaded.
func (e *Engine) baseline(name string, explicit component.Version) (component.Version, *versionmap.VersionMap, error) {
	var vm *versionmap.VersionMap
	if e.Versions != nil {
		var err error
		if vm, err = e.Versions.Load(); err != nil {
			return "", nil, err
		}
	}
	if explicit != "" {
		return explicit, vm, nil
	}
	if vm == nil {
		return "", nil, ErrNoBaseline
	}
	v, ok := vm.Components[name]
	if !ok {
		return "", nil, fmt.Errorf("component %q is not recorded in components.json; pass an old version", name)
	}
	return component.Version(v), vm, nil
}

func (e *Engine) diffLocal(file, content string) (FileDiff, error) {
	dest := e.Policy.DestPath(file)
	local, err := e.Workspace.ReadFile(filepath.FromSlash(dest))
	if err != nil {
		return FileDiff{}, fmt.Errorf("reading local %s: %w", dest, err)
	}
	return FileDiff{Path: file, Dest: dest, Changes: Lines(local, content)}, nil
}
