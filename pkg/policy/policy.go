// Package policy holds the caller-supplied rules that map components and
// versions onto an upstream repository.
package policy

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/gobwas/glob"

	"github.com/compkit/compkit/pkg/component"
	"github.com/compkit/compkit/pkg/config"
	"github.com/compkit/compkit/pkg/versionmap"
)

// Destination decides the directory a file lands in, relative to the
// project root. Func takes precedence over Dir when set.
type Destination struct {
	Dir  string
	Func func(upstreamPath string) string
}

// DirFor returns the destination directory for an upstream path.
func (d Destination) DirFor(upstreamPath string) string {
	if d.Func != nil {
		return d.Func(upstreamPath)
	}
	return d.Dir
}

// Policy bundles the rules used by the resolvers, installer and differ.
type Policy struct {
	// Repo names the upstream repository. It only feeds the default tag.
	Repo string
	// TagName builds the upstream tag for a concrete version. Nil yields
	// "<repo>@<version>", or the bare version when Repo is empty.
	TagName func(version component.Version) string
	// IsValidTag filters tags when resolving "latest". Nil accepts all tags.
	IsValidTag func(tag string) bool
	// Patterns returns the glob patterns selecting a component's files at
	// tag. vm is nil when version tracking is disabled.
	Patterns func(name, tag string, vm *versionmap.VersionMap) []string
	// Transform rewrites fetched content before it is written or compared.
	// Nil leaves content unchanged.
	Transform   func(upstreamPath, tag, content string) string
	Destination Destination
}

// Tag returns the tag for version.
func (p *Policy) Tag(version component.Version) string {
	if p.TagName != nil {
		return p.TagName(version)
	}
	if p.Repo == "" {
		return string(version)
	}
	return p.Repo + "@" + string(version)
}

// ValidTag reports whether tag is eligible to be "latest".
func (p *Policy) ValidTag(tag string) bool {
	if p.IsValidTag == nil {
		return true
	}
	return p.IsValidTag(tag)
}

// Apply runs the content transform, if any.
func (p *Policy) Apply(upstreamPath, tag, content string) string {
	if p.Transform == nil {
		return content
	}
	return p.Transform(upstreamPath, tag, content)
}

// DestPath returns the project-relative path that upstreamPath maps to: the
// destination directory joined with the path's final segment.
func (p *Policy) DestPath(upstreamPath string) string {
	return path.Join(p.Destination.DirFor(upstreamPath), component.BaseName(upstreamPath))
}

// FromConfig builds a Policy from project configuration. Globs, regular
// expressions and semver constraints are compiled up front so a bad config
// fails before any network traffic.
func FromConfig(cfg *config.Config) (*Policy, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	p := &Policy{
		Repo:    cfg.Repo.Name,
		TagName: tagTemplate(cfg.TagTemplate, cfg.Repo.Name),
		Patterns: func(name, tag string, _ *versionmap.VersionMap) []string {
			templates, ok := cfg.Patterns[name]
			if !ok {
				templates = cfg.DefaultPatterns
			}
			r := strings.NewReplacer("{component}", name, "{tag}", tag)
			out := make([]string, len(templates))
			for i, t := range templates {
				out[i] = r.Replace(t)
			}
			return out
		},
	}

	valid, err := validTag(cfg.ValidTag)
	if err != nil {
		return nil, err
	}
	p.IsValidTag = valid

	if len(cfg.Transform.Replace) > 0 {
		p.Transform = replacer(cfg.Transform.Replace)
	}

	dest, err := destination(cfg.Dir, cfg.Dirs)
	if err != nil {
		return nil, err
	}
	p.Destination = dest

	return p, nil
}

func tagTemplate(tmpl, repo string) func(component.Version) string {
	if tmpl == "" {
		tmpl = config.DefaultTagTemplate
	}
	return func(v component.Version) string {
		return strings.NewReplacer("{repo}", repo, "{version}", string(v)).Replace(tmpl)
	}
}

func validTag(vc config.ValidTagConfig) (func(string) bool, error) {
	if vc.IsZero() {
		return nil, nil
	}

	var re *regexp.Regexp
	if vc.Pattern != "" {
		var err error
		if re, err = regexp.Compile(vc.Pattern); err != nil {
			return nil, fmt.Errorf("invalid valid_tag.pattern %q: %w", vc.Pattern, err)
		}
	}

	var constraint *semver.Constraints
	if vc.Constraint != "" {
		var err error
		if constraint, err = semver.NewConstraint(vc.Constraint); err != nil {
			return nil, fmt.Errorf("invalid valid_tag.constraint %q: %w", vc.Constraint, err)
		}
	}

	return func(tag string) bool {
		if vc.Prefix != "" && !strings.HasPrefix(tag, vc.Prefix) {
			return false
		}
		if re != nil && !re.MatchString(tag) {
			return false
		}
		if constraint != nil {
			v, err := semver.NewVersion(strings.TrimPrefix(tag, vc.Prefix))
			if err != nil {
				return false
			}
			return constraint.Check(v)
		}
		return true
	}, nil
}

func replacer(rules []config.Replacement) func(string, string, string) string {
	return func(upstreamPath, tag, content string) string {
		vars := strings.NewReplacer("{tag}", tag, "{path}", upstreamPath)
		for _, r := range rules {
			content = strings.ReplaceAll(content, r.From, vars.Replace(r.To))
		}
		return content
	}
}

type dirRule struct {
	match glob.Glob
	dir   string
}

func destination(dir string, rules []config.DirRule) (Destination, error) {
	if len(rules) == 0 {
		return Destination{Dir: dir}, nil
	}

	compiled := make([]dirRule, 0, len(rules))
	for _, r := range rules {
		g, err := CompileGlob(r.Match)
		if err != nil {
			return Destination{}, fmt.Errorf("invalid dirs match %q: %w", r.Match, err)
		}
		compiled = append(compiled, dirRule{match: g, dir: r.Dir})
	}

	return Destination{
		Dir: dir,
		Func: func(upstreamPath string) string {
			for _, r := range compiled {
				if r.match.Match(upstreamPath) {
					return r.dir
				}
			}
			return dir
		},
	}, nil
}

// CompileGlob compiles a path pattern in which only '*' is special. It
// matches any run of characters, '/' included. Every other glob
// metacharacter, such as the brackets in "src/[id]/page.ts", matches itself.
func CompileGlob(pattern string) (glob.Glob, error) {
	parts := strings.Split(pattern, "*")
	for i, part := range parts {
		parts[i] = glob.QuoteMeta(part)
	}
	return glob.Compile(strings.Join(parts, "*"))
}
