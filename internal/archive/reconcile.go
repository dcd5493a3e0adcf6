package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PathReconciler adapts a path recorded on one machine or user account to
// the environment actually running the restore.
type PathReconciler interface {
	// Reconcile returns the destination candidate for an original absolute
	// path. Implementations must return the input unchanged when they have
	// nothing better to offer.
	Reconcile(original string) string
}

// homePrefixes are the user-home layouts HomeReconciler recognizes in
// recorded paths. Matching is case-insensitive and separator-agnostic, so
// an archive taken on Windows restores on a Unix account and vice versa.
var homePrefixes = []string{"c:/users/", "/home/", "/users/"}

// HomeReconciler rewrites a recorded home-directory prefix whose username
// differs from the current account to the current user's home, preserving
// the remainder of the path. Anything outside a recognized home layout is
// returned unchanged. This is a best-effort heuristic, not a guarantee.
type HomeReconciler struct {
	home string
}

// NewHomeReconciler creates a HomeReconciler for the current user.
func NewHomeReconciler() (*HomeReconciler, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("cannot determine home directory: %w", err)
	}
	return &HomeReconciler{home: home}, nil
}

// NewHomeReconcilerWithHome creates a HomeReconciler with an explicit home
// directory. This is primarily a test seam.
func NewHomeReconcilerWithHome(home string) *HomeReconciler {
	return &HomeReconciler{home: home}
}

// Reconcile implements PathReconciler.
func (r *HomeReconciler) Reconcile(original string) string {
	username, rest, ok := splitHomePrefix(original)
	if !ok {
		return original
	}
	if username == filepath.Base(r.home) {
		// Same account, nothing to rewrite.
		return original
	}
	if rest == "" {
		return r.home
	}
	return filepath.Join(r.home, filepath.FromSlash(rest))
}

// splitHomePrefix extracts the username segment and the remainder from a
// path under a recognized home layout. Returns ok=false if the path does
// not start with one.
func splitHomePrefix(p string) (username, rest string, ok bool) {
	canon := strings.ReplaceAll(p, "\\", "/")
	lower := strings.ToLower(canon)
	for _, prefix := range homePrefixes {
		if !strings.HasPrefix(lower, prefix) {
			continue
		}
		tail := canon[len(prefix):]
		username, rest, _ = strings.Cut(tail, "/")
		if username == "" {
			return "", "", false
		}
		return username, rest, true
	}
	return "", "", false
}

// IdentityReconciler returns every path unchanged. Use when the archive is
// known to have been taken on the current account.
type IdentityReconciler struct{}

func (IdentityReconciler) Reconcile(original string) string { return original }
