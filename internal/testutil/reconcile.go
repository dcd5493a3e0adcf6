package testutil

import (
	"path/filepath"
	"strings"
)

// RewriteReconciler maps any path under From to the same relative location
// under To, letting restore tests land extracted files in a temp directory.
type RewriteReconciler struct {
	From string
	To   string
}

func (r RewriteReconciler) Reconcile(original string) string {
	normalized := strings.ReplaceAll(original, "\\", "/")
	if normalized == r.From {
		return r.To
	}
	if rest, ok := strings.CutPrefix(normalized, r.From+"/"); ok {
		return filepath.Join(r.To, filepath.FromSlash(rest))
	}
	return original
}
