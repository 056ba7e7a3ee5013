// Package naming derives cloud resource names from repository events.
//
// Cloud providers constrain resource names to RFC 1123 labels, so repository
// and ref names are sanitized before use.
package naming

import (
	"fmt"
	"strings"
)

const maxNameLength = 63

// Sanitize converts an arbitrary string into a valid RFC 1123 label:
// lowercase alphanumerics and dashes, no leading or trailing dash.
func Sanitize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	name := strings.Trim(b.String(), "-")
	for strings.Contains(name, "--") {
		name = strings.ReplaceAll(name, "--", "-")
	}
	if len(name) > maxNameLength {
		name = strings.Trim(name[:maxNameLength], "-")
	}
	return name
}

// Cluster returns the cluster name for a repository and ref,
// e.g. ("acme/shop", "refs/heads/main") -> "shop-main".
func Cluster(repository, ref string) string {
	repo := repository
	if i := strings.LastIndex(repo, "/"); i >= 0 {
		repo = repo[i+1:]
	}
	branch := strings.TrimPrefix(ref, "refs/heads/")
	branch = strings.TrimPrefix(branch, "refs/tags/")
	return Sanitize(fmt.Sprintf("%s-%s", repo, branch))
}

// Node returns the name of the i-th node with the given role in a cluster,
// e.g. ("shop-main", "worker", 2) -> "shop-main-worker-2".
func Node(cluster, role string, index int) string {
	return fmt.Sprintf("%s-%s-%d", cluster, role, index)
}
