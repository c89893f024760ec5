// Package installer copies resolved component files from the upstream into
// the local workspace and keeps the version map in step.
package installer

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/compkit/compkit/pkg/component"
	"github.com/compkit/compkit/pkg/policy"
	"github.com/compkit/compkit/pkg/resolver"
	"github.com/compkit/compkit/pkg/source"
	"github.com/compkit/compkit/pkg/versionmap"
	"github.com/compkit/compkit/pkg/workspace"
)

var (
	// ErrNoComponents is returned when add is called without components and
	// there is no version map to take them from.
	ErrNoComponents = errors.New("no components given and components.json is not used")
	// ErrNoVersionStore is returned by operations that need a version map.
	ErrNoVersionStore = errors.New("this operation requires components.json")
)

// Installer writes component files into a project and keeps the version map
// in step.
type Installer struct {
	Upstream  source.Upstream
	Policy    *policy.Policy
	Workspace workspace.Workspace
	// Versions is nil when version tracking is disabled.
	Versions versionmap.Store
	Logger   *slog.Logger
}

// AddOptions configures Add.
type AddOptions struct {
	// Components holds "name" or "name@version" requests. When empty, every
	// component recorded in the version map is reinstalled at its recorded
	// version.
	Components []string
	// Version applies to requests without an explicit version. Empty means
	// latest.
	Version   component.Version
	Overwrite bool
}

// FileResult describes one written file.
type FileResult struct {
	Component string
	Upstream  string
	Dest      string
	Checksum  string
}

// AddResult reports what Add resolved and wrote.
type AddResult struct {
	Components []component.Info
	Written    []FileResult
	// Skipped lists destinations left alone because they already existed.
	Skipped []string
	// Versions is the updated version map, nil when tracking is disabled.
	Versions *versionmap.VersionMap
}

func (inst *Installer) logger() *slog.Logger {
	if inst.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return inst.Logger
}

func (inst *Installer) loadVersions() (*versionmap.VersionMap, error) {
	if inst.Versions == nil {
		return nil, nil
	}
	return inst.Versions.Load()
}

// Add resolves every requested component and writes its files. All
// resolutions must succeed before any file is touched. File tasks then run
// concurrently; a failure in any of them fails the batch and skips saving
// the version map, but files already written stay on disk.
func (inst *Installer) Add(ctx context.Context, opts AddOptions) (*AddResult, error) {
	vm, err := inst.loadVersions()
	if err != nil {
		return nil, err
	}

	reqs, err := workList(opts, vm)
	if err != nil {
		return nil, err
	}

	infos, err := inst.resolveAll(ctx, reqs, vm)
	if err != nil {
		return nil, err
	}

	res := &AddResult{Components: infos, Versions: vm}
	var mu sync.Mutex
	log := inst.logger()

	var g errgroup.Group
	for _, info := range infos {
		for _, file := range info.Files {
			g.Go(func() error {
				dest := inst.Policy.DestPath(file)
				if !opts.Overwrite {
					exists, err := inst.Workspace.Exists(filepath.FromSlash(dest))
					if err != nil {
						return fmt.Errorf("checking %s: %w", dest, err)
					}
					if exists {
						mu.Lock()
						res.Skipped = append(res.Skipped, dest)
						mu.Unlock()
						return nil
					}
				}

				fr, err := inst.install(ctx, info, file, dest)
				if err != nil {
					return err
				}

				mu.Lock()
				res.Written = append(res.Written, fr)
				if vm != nil {
					vm.Components[info.Component] = string(info.Version)
				}
				mu.Unlock()

				log.Info("downloaded", "component", info.Component, "version", info.Version, "path", dest)
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	slices.SortFunc(res.Written, func(a, b FileResult) int {
		return cmp.Or(strings.Compare(a.Dest, b.Dest), strings.Compare(a.Upstream, b.Upstream))
	})
	slices.Sort(res.Skipped)

	if inst.Versions != nil {
		if err := inst.Versions.Save(vm); err != nil {
			return nil, fmt.Errorf("saving version map: %w", err)
		}
	}
	return res, nil
}

func (inst *Installer) install(ctx context.Context, info component.Info, file, dest string) (FileResult, error) {
	raw, err := inst.Upstream.FetchFile(ctx, info.Tag, file)
	if err != nil {
		return FileResult{}, fmt.Errorf("downloading %s for %s: %w", file, info.Component, err)
	}
	content := inst.Policy.Apply(file, info.Tag, raw)

	native := filepath.FromSlash(dest)
	if err := inst.Workspace.WriteFile(content, native); err != nil {
		return FileResult{}, fmt.Errorf("writing %s: %w", dest, err)
	}
	sum, err := inst.Workspace.Hash(native)
	if err != nil {
		return FileResult{}, fmt.Errorf("hashing %s: %w", dest, err)
	}
	return FileResult{Component: info.Component, Upstream: file, Dest: dest, Checksum: sum}, nil
}

// workList builds the requests for an add. Without explicit components the
// version map supplies them, sorted by name.
func workList(opts AddOptions, vm *versionmap.VersionMap) ([]component.Request, error) {
	if len(opts.Components) > 0 {
		reqs := make([]component.Request, len(opts.Components))
		for i, raw := range opts.Components {
			reqs[i] = component.ParseRequest(raw, opts.Version)
		}
		return reqs, nil
	}

	if vm == nil {
		return nil, ErrNoComponents
	}
	names := vm.Names()
	reqs := make([]component.Request, len(names))
	for i, name := range names {
		reqs[i] = component.Request{Name: name, Version: component.Version(vm.Components[name])}
	}
	return reqs, nil
}

func (inst *Installer) resolveAll(ctx context.Context, reqs []component.Request, vm *versionmap.VersionMap) ([]component.Info, error) {
	r := resolver.New(inst.Upstream, inst.Policy)
	infos := make([]component.Info, len(reqs))

	var g errgroup.Group
	for i, req := range reqs {
		g.Go(func() error {
			info, err := r.Component(ctx, req.Name, req.Version, vm)
			if err != nil {
				return err
			}
			infos[i] = info
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return infos, nil
}

// RemoveResult reports the files Remove deleted.
type RemoveResult struct {
	Removed  []string
	Versions *versionmap.VersionMap
}

// Remove deletes the local files of installed components and drops them from
// the version map. Each component's file set is resolved at its recorded
// version; destinations that no longer exist are ignored.
func (inst *Installer) Remove(ctx context.Context, names []string) (*RemoveResult, error) {
	if inst.Versions == nil {
		return nil, ErrNoVersionStore
	}
	vm, err := inst.Versions.Load()
	if err != nil {
		return nil, err
	}

	reqs := make([]component.Request, 0, len(names))
	for _, name := range names {
		v, ok := vm.Components[name]
		if !ok {
			return nil, fmt.Errorf("component %q is not installed", name)
		}
		reqs = append(reqs, component.Request{Name: name, Version: component.Version(v)})
	}

	infos, err := inst.resolveAll(ctx, reqs, vm)
	if err != nil {
		return nil, err
	}

	res := &RemoveResult{Versions: vm}
	log := inst.logger()
	for _, info := range infos {
		for _, file := range info.Files {
			dest := inst.Policy.DestPath(file)
			native := filepath.FromSlash(dest)
			exists, err := inst.Workspace.Exists(native)
			if err != nil {
				return nil, fmt.Errorf("checking %s: %w", dest, err)
			}
			if !exists {
				continue
			}
			if err := inst.Workspace.Remove(native); err != nil {
				return nil, fmt.Errorf("removing %s: %w", dest, err)
			}
			res.Removed = append(res.Removed, dest)
			log.Info("removed", "component", info.Component, "path", dest)
		}
		delete(vm.Components, info.Component)
	}

	if err := inst.Versions.Save(vm); err != nil {
		return nil, fmt.Errorf("saving version map: %w", err)
	}
	return res, nil
}
