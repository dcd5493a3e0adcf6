package archive_test

import (
	"reflect"
	"testing"

	"konserve-go/internal/archive"
)

func TestBuildTree(t *testing.T) {
	t.Run("folder backup", func(t *testing.T) {
		entries := []string{
			"tok-a/",
			"tok-a/y.txt",
			"tok-a/docs/",
			"tok-a/docs/x.txt",
		}
		pathMap := map[archive.Token]string{"tok-a": "/home/u/proj"}

		root := archive.BuildTree(entries, pathMap)

		parent := root.Children["/home/u"]
		if parent == nil {
			t.Fatalf("missing parent node, tree = %v", root.Children)
		}
		proj := parent.Children["proj"]
		if proj == nil {
			t.Fatal("missing proj node")
		}
		if proj.IsFile {
			t.Error("proj.IsFile = true, want false")
		}

		y := proj.Children["y.txt"]
		if y == nil || !y.IsFile {
			t.Errorf("y.txt node = %+v, want file", y)
		}

		docs := proj.Children["docs"]
		if docs == nil {
			t.Fatal("missing docs node")
		}
		x := docs.Children["x.txt"]
		if x == nil || !x.IsFile {
			t.Errorf("x.txt node = %+v, want file", x)
		}
	})

	t.Run("lone file backup", func(t *testing.T) {
		entries := []string{"tok-b.png"}
		pathMap := map[archive.Token]string{"tok-b": "/home/u/pic.png"}

		root := archive.BuildTree(entries, pathMap)

		parent := root.Children["/home/u"]
		if parent == nil {
			t.Fatalf("missing parent node, tree = %v", root.Children)
		}
		pic := parent.Children["pic.png"]
		if pic == nil || !pic.IsFile {
			t.Errorf("pic.png node = %+v, want file", pic)
		}
	})

	t.Run("windows path groups under canonical parent", func(t *testing.T) {
		entries := []string{"tok-w.txt"}
		pathMap := map[archive.Token]string{"tok-w": `C:\Users\alice\todo.txt`}

		root := archive.BuildTree(entries, pathMap)

		parent := root.Children["C:/Users/alice"]
		if parent == nil {
			t.Fatalf("missing parent node, tree = %v", root.Children)
		}
		if n := parent.Children["todo.txt"]; n == nil || !n.IsFile {
			t.Errorf("todo.txt node = %+v, want file", n)
		}
	})

	t.Run("two inputs sharing a parent group together", func(t *testing.T) {
		entries := []string{"tok-1.txt", "tok-2/"}
		pathMap := map[archive.Token]string{
			"tok-1": "/home/u/a.txt",
			"tok-2": "/home/u/folder",
		}

		root := archive.BuildTree(entries, pathMap)

		if len(root.Children) != 1 {
			t.Fatalf("len(root.Children) = %d, want 1", len(root.Children))
		}
		parent := root.Children["/home/u"]
		if len(parent.Children) != 2 {
			t.Errorf("len(parent.Children) = %d, want 2", len(parent.Children))
		}
		if n := parent.Children["a.txt"]; n == nil || !n.IsFile {
			t.Errorf("a.txt node = %+v, want file", n)
		}
		if n := parent.Children["folder"]; n == nil || n.IsFile {
			t.Errorf("folder node = %+v, want directory", n)
		}
	})
}

func TestSetAllChecked(t *testing.T) {
	root := archive.NewTreeNode()
	child := archive.NewTreeNode()
	grandchild := archive.NewTreeNode()
	grandchild.IsFile = true
	child.Children["file.txt"] = grandchild
	root.Children["dir"] = child

	archive.CheckAll(root)
	if !root.Checked || !child.Checked || !grandchild.Checked {
		t.Error("CheckAll did not mark every node")
	}

	archive.SetAllChecked(child, false)
	if !root.Checked {
		t.Error("unchecking a subtree must not touch its parent")
	}
	if child.Checked || grandchild.Checked {
		t.Error("SetAllChecked(false) did not clear the subtree")
	}
}

func TestCollectChecked(t *testing.T) {
	// parent/
	//   a.txt   (checked)
	//   sub/
	//     b.txt (checked)
	//     c.txt (unchecked)
	b := archive.NewTreeNode()
	b.IsFile = true
	b.Checked = true
	c := archive.NewTreeNode()
	c.IsFile = true
	sub := archive.NewTreeNode()
	sub.Children["b.txt"] = b
	sub.Children["c.txt"] = c
	a := archive.NewTreeNode()
	a.IsFile = true
	a.Checked = true
	parent := archive.NewTreeNode()
	parent.Children["a.txt"] = a
	parent.Children["sub"] = sub
	root := archive.NewTreeNode()
	root.Children["/home/u"] = parent

	got := archive.CollectChecked(root)
	want := []string{"/home/u/a.txt", "/home/u/sub/b.txt"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("CollectChecked() = %v, want %v", got, want)
	}
}
