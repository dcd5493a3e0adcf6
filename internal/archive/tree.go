package archive

import (
	"sort"
	"strings"
)

// TreeNode is one node of the reconstructed backup hierarchy, keyed by
// human-readable names rather than tokens. The graph is built fresh per
// restore preview and discarded once a selection has been made.
//
// Checked is owned by the selection UI: restore logic only ever reads it
// via CollectChecked. A node with no children is a leaf and has IsFile set.
type TreeNode struct {
	Children map[string]*TreeNode
	IsFile   bool
	Checked  bool
}

// NewTreeNode returns an empty directory node.
func NewTreeNode() *TreeNode {
	return &TreeNode{Children: make(map[string]*TreeNode)}
}

// child returns the named child, creating it if needed.
func (n *TreeNode) child(name string) *TreeNode {
	c, ok := n.Children[name]
	if !ok {
		c = NewTreeNode()
		n.Children[name] = c
	}
	return c
}

// BuildTree merges the manifest's token table with the archive entry
// listing into a hierarchy grouped by each item's parent directory. Whether
// an item was a folder or a lone file is decided purely by entry-name
// shape: any entry carrying the "<token>/" prefix means folder.
//
// Two inputs that share both parent label and basename merge into one node;
// callers are expected to deduplicate their inputs.
func BuildTree(entries []string, pathMap map[Token]string) *TreeNode {
	root := NewTreeNode()

	for token, originalPath := range pathMap {
		parentLabel, itemName := splitHumanPath(originalPath)

		parentNode := root.child(parentLabel)
		itemNode := parentNode.child(itemName)

		dirPrefix := string(token) + "/"
		isDirBackup := false
		for _, e := range entries {
			if strings.HasPrefix(e, dirPrefix) {
				isDirBackup = true
				break
			}
		}

		if !isDirBackup {
			itemNode.IsFile = true
			continue
		}

		itemNode.IsFile = false
		for _, e := range entries {
			if !strings.HasPrefix(e, dirPrefix) {
				continue
			}
			rest := strings.TrimSuffix(e[len(dirPrefix):], "/")
			if rest == "" {
				// The folder-root placeholder entry itself.
				continue
			}

			cursor := itemNode
			for _, part := range strings.Split(rest, "/") {
				cursor = cursor.child(part)
			}
			cursor.IsFile = true
		}
	}

	return root
}

// SetAllChecked recursively sets the checked state of a node and all of its
// descendants, keeping a subtree in sync when its root is toggled.
func SetAllChecked(n *TreeNode, checked bool) {
	n.Checked = checked
	for _, c := range n.Children {
		SetAllChecked(c, checked)
	}
}

// CheckAll marks the entire tree checked. Used to preselect everything when
// a restore preview opens.
func CheckAll(n *TreeNode) {
	SetAllChecked(n, true)
}

// CollectChecked walks the tree and returns the "parent/item/..." path of
// every checked file node, sorted for deterministic output. These strings
// are the selection set a restore consumes.
func CollectChecked(root *TreeNode) []string {
	var out []string
	collectChecked(root, nil, &out)
	sort.Strings(out)
	return out
}

func collectChecked(n *TreeNode, path []string, out *[]string) {
	for name, child := range n.Children {
		path = append(path, name)
		if child.IsFile && child.Checked {
			*out = append(*out, strings.Join(path, "/"))
		}
		collectChecked(child, path, out)
		path = path[:len(path)-1]
	}
}
