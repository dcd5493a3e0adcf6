package archive

import "strings"

// ExtractionSet is the set of archive entry names a selection resolves to.
type ExtractionSet map[string]struct{}

// Contains reports whether an entry name belongs to the set. Directory
// entries may carry a trailing slash in the container; membership ignores
// it so a selected directory matches its entry either way.
func (s ExtractionSet) Contains(entryName string) bool {
	_, ok := s[strings.TrimSuffix(entryName, "/")]
	return ok
}

// ResolveSelection translates human-readable selected paths (as produced by
// CollectChecked) into the archive entry names that must be extracted to
// satisfy the selection.
//
// An exact "<parent>/<item>" match selects the item's token itself, plus
// its "<token><ext>" form when the item is a lone file with an extension.
// A longer "<parent>/<item>/<rest>" match selects "<token>/<rest>".
// Selected paths matching no token resolve to nothing and are ignored.
func ResolveSelection(selected []string, pathMap map[Token]string) ExtractionSet {
	canonSelected := make([]string, 0, len(selected))
	for _, s := range selected {
		canonSelected = append(canonSelected, canonPath(s))
	}

	out := make(ExtractionSet)
	for token, originalPath := range pathMap {
		parent, item := splitHumanPath(originalPath)
		base := parent + "/" + item

		for _, sel := range canonSelected {
			if sel == base {
				out[string(token)] = struct{}{}
				if ext := extOf(originalPath); ext != "" {
					out[string(token)+ext] = struct{}{}
				}
				continue
			}
			if rest, ok := strings.CutPrefix(sel, base+"/"); ok {
				out[string(token)+"/"+rest] = struct{}{}
			}
		}
	}

	return out
}
