package source

import (
	"fmt"
	"strings"
)

// ParseRepo parses a repository reference into owner and name. It accepts
// the short form owner/repo as well as https://github.com/owner/repo URLs,
// with or without a trailing .git.
func ParseRepo(ref string) (owner, repo string, err error) {
	s := strings.TrimSpace(ref)
	for _, prefix := range []string{"https://", "http://"} {
		s = strings.TrimPrefix(s, prefix)
	}
	s = strings.TrimPrefix(s, "github.com/")
	s = strings.TrimSuffix(strings.TrimSuffix(s, "/"), ".git")

	segments := strings.Split(s, "/")
	if len(segments) != 2 || segments[0] == "" || segments[1] == "" {
		return "", "", fmt.Errorf("invalid repository %q: expected owner/repo", ref)
	}
	return segments[0], segments[1], nil
}
