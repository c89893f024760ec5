package resolver

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/compkit/compkit/pkg/component"
	"github.com/compkit/compkit/pkg/policy"
	"github.com/compkit/compkit/pkg/source"
	"github.com/compkit/compkit/pkg/source/sourcetest"
	"github.com/compkit/compkit/pkg/versionmap"
)

func testPolicy() *policy.Policy {
	return &policy.Policy{
		TagName: func(v component.Version) string { return "ui@" + string(v) },
		Patterns: func(name, tag string, _ *versionmap.VersionMap) []string {
			return []string{"src/" + name + "/*"}
		},
	}
}

func TestSelectLatest(t *testing.T) {
	isStable := func(tag string) bool { return !strings.Contains(tag, "-") }

	tests := map[string]struct {
		tags    []string
		valid   func(string) bool
		want    string
		wantErr error
	}{
		"first valid tag": {
			tags:  []string{"ui@2.0.0-rc.1", "ui@1.9.0", "ui@1.8.0"},
			valid: isStable,
			want:  "ui@1.9.0",
		},
		"no predicate takes first": {
			tags: []string{"ui@2.0.0-rc.1", "ui@1.9.0"},
			want: "ui@2.0.0-rc.1",
		},
		"all rejected falls back to first": {
			tags:  []string{"ui@2.0.0-rc.1", "ui@2.0.0-beta.3"},
			valid: isStable,
			want:  "ui@2.0.0-rc.1",
		},
		"upstream order is kept": {
			tags:  []string{"ui@1.0.0", "ui@3.0.0", "ui@2.0.0"},
			valid: isStable,
			want:  "ui@1.0.0",
		},
		"empty list": {
			valid:   isStable,
			wantErr: ErrNoTags,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := SelectLatest(tc.tags, tc.valid)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("SelectLatest() error = %v, want %v", err, tc.wantErr)
			}
			if got != tc.want {
				t.Errorf("SelectLatest() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestTagResolverExplicitVersionDoesNoIO(t *testing.T) {
	up := &sourcetest.Fake{TagsErr: errors.New("should not be called")}
	r := &TagResolver{Upstream: up, Policy: testPolicy()}

	got, err := r.Resolve(context.Background(), "1.2.3")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != "ui@1.2.3" {
		t.Errorf("Resolve() = %q, want ui@1.2.3", got)
	}
	if up.Calls() != 0 {
		t.Errorf("upstream calls = %d, want 0", up.Calls())
	}
}

func TestTagResolverLatest(t *testing.T) {
	p := testPolicy()
	p.IsValidTag = func(tag string) bool { return strings.HasPrefix(tag, "ui@") }
	up := &sourcetest.Fake{Tags: []string{"docs@5.0.0", "ui@1.4.0", "ui@1.3.0"}}
	r := &TagResolver{Upstream: up, Policy: p}

	got, err := r.Resolve(context.Background(), component.Latest)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != "ui@1.4.0" {
		t.Errorf("Resolve() = %q, want ui@1.4.0", got)
	}
	if up.TagCalls != 1 {
		t.Errorf("TagCalls = %d, want 1", up.TagCalls)
	}
}

func TestTagResolverLatestTransportError(t *testing.T) {
	boom := errors.New("connection refused")
	r := &TagResolver{Upstream: &sourcetest.Fake{TagsErr: boom}, Policy: testPolicy()}

	_, err := r.Resolve(context.Background(), component.Latest)
	if !errors.Is(err, boom) {
		t.Fatalf("Resolve() error = %v, want wrapped %v", err, boom)
	}
	if !strings.Contains(err.Error(), "resolving latest tag") {
		t.Errorf("error %q lacks context prefix", err)
	}
}

func TestFileSetResolver(t *testing.T) {
	tree := []source.TreeNode{
		{Path: "src", Type: source.NodeTree},
		{Path: "src/button", Type: source.NodeTree},
		{Path: "src/button/button.ts", Type: source.NodeBlob},
		{Path: "src/button/button.css", Type: source.NodeBlob},
		{Path: "src/button/nested/icon.ts", Type: source.NodeBlob},
		{Path: "src/dialog/dialog.ts", Type: source.NodeBlob},
		{Path: "README.md", Type: source.NodeBlob},
	}

	tests := map[string]struct {
		patterns []string
		want     []string
	}{
		"star crosses slashes": {
			patterns: []string{"src/button/*"},
			want:     []string{"src/button/button.ts", "src/button/button.css", "src/button/nested/icon.ts"},
		},
		"extension filter": {
			patterns: []string{"src/*.ts"},
			want:     []string{"src/button/button.ts", "src/button/nested/icon.ts", "src/dialog/dialog.ts"},
		},
		"pattern order wins over tree order": {
			patterns: []string{"README.md", "src/dialog/*", "src/button/button.ts"},
			want:     []string{"README.md", "src/dialog/dialog.ts", "src/button/button.ts"},
		},
		"overlapping patterns duplicate": {
			patterns: []string{"src/button/button.ts", "src/button/*.ts"},
			want:     []string{"src/button/button.ts", "src/button/button.ts", "src/button/nested/icon.ts"},
		},
		"tree nodes are not excluded": {
			patterns: []string{"src/button"},
			want:     []string{"src/button"},
		},
		"no matches": {
			patterns: []string{"lib/*"},
			want:     nil,
		},
		"question mark is literal": {
			patterns: []string{"src/butto?/button.ts"},
			want:     nil,
		},
		"unbalanced bracket is literal": {
			patterns: []string{"src/[button"},
			want:     nil,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			up := &sourcetest.Fake{Trees: map[string][]source.TreeNode{"ui@1.0.0": tree}}
			r := &FileSetResolver{Upstream: up}

			got, err := r.Resolve(context.Background(), "ui@1.0.0", tc.patterns)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("Resolve() mismatch (-want +got):\n%s", diff)
			}
			if n := up.TreeCalls["ui@1.0.0"]; n != 1 {
				t.Errorf("tree fetched %d times, want 1", n)
			}
		})
	}
}

func TestFileSetResolverLiteralMetacharacters(t *testing.T) {
	tree := []source.TreeNode{
		{Path: "src/[id]/page.ts", Type: source.NodeBlob},
		{Path: "src/{x}.ts", Type: source.NodeBlob},
		{Path: "src/button/button.ts", Type: source.NodeBlob},
	}

	tests := map[string][]string{
		"src/[id]/*.ts":        {"src/[id]/page.ts"},
		"src/{x}.ts":           {"src/{x}.ts"},
		"src/butto?/button.ts": nil,
		"src/[a-z]*":           nil,
	}

	for pattern, want := range tests {
		t.Run(pattern, func(t *testing.T) {
			up := &sourcetest.Fake{Trees: map[string][]source.TreeNode{"ui@1.0.0": tree}}
			r := &FileSetResolver{Upstream: up}

			got, err := r.Resolve(context.Background(), "ui@1.0.0", []string{pattern})
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("Resolve(%q) mismatch (-want +got):\n%s", pattern, diff)
			}
		})
	}
}

func TestFileSetResolverTreeError(t *testing.T) {
	up := &sourcetest.Fake{TreeErr: map[string]error{"ui@1.0.0": errors.New("HTTP 500")}}
	r := &FileSetResolver{Upstream: up}

	if _, err := r.Resolve(context.Background(), "ui@1.0.0", []string{"*"}); err == nil {
		t.Fatal("Resolve() error = nil, want tree error")
	}
}

func TestResolverComponent(t *testing.T) {
	up := &sourcetest.Fake{
		Tags: []string{"ui@2.0.0"},
		Trees: map[string][]source.TreeNode{
			"ui@2.0.0": sourcetest.Blobs("src/button/button.ts", "src/dialog/dialog.ts"),
		},
	}
	r := New(up, testPolicy())

	got, err := r.Component(context.Background(), "button", component.Latest, nil)
	if err != nil {
		t.Fatalf("Component() error = %v", err)
	}
	want := component.Info{
		Component: "button",
		Files:     []string{"src/button/button.ts"},
		Tag:       "ui@2.0.0",
		Version:   component.Latest,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Component() mismatch (-want +got):\n%s", diff)
	}
}
