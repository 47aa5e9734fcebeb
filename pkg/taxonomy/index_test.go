package taxonomy

import (
	"io"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/finscope/finscope/pkg/models"
)

func testIndex() *Index {
	return Build([]models.Category{
		{ID: "1", Name: "Food"},
		{ID: "10", Name: "Groceries", ParentID: "1"},
		{ID: "2", Name: "Transport"},
		{ID: "30", Name: "Orphan", ParentID: "999"},
	}, log.New(io.Discard))
}

func TestChildResolvesToRootName(t *testing.T) {
	ix := testIndex()

	name, ok := ix.Name("10")
	if !ok || name != "Food" {
		t.Errorf("Name(10) = %q, %v; want Food", name, ok)
	}
	root, ok := ix.Root("10")
	if !ok || root.ID != "1" {
		t.Errorf("Root(10) = %+v, %v; want root 1", root, ok)
	}
	own, _ := ix.OwnName("10")
	if own != "Groceries" {
		t.Errorf("OwnName(10) = %q, want Groceries", own)
	}
}

func TestRootResolvesToItself(t *testing.T) {
	ix := testIndex()
	root, ok := ix.Root("1")
	if !ok || root.ID != "1" {
		t.Errorf("Root(1) = %+v, %v; roots must map to themselves", root, ok)
	}
}

func TestOrphanBecomesOwnRoot(t *testing.T) {
	ix := testIndex()
	root, ok := ix.Root("30")
	if !ok || root.ID != "30" || root.Name != "Orphan" {
		t.Errorf("orphan not promoted to root: %+v, %v", root, ok)
	}
}

func TestUnknownIDFallsBack(t *testing.T) {
	ix := testIndex()
	if _, ok := ix.Name("777"); ok {
		t.Error("unknown id must not resolve")
	}
	if got := ix.DisplayName("777"); got != Uncategorized {
		t.Errorf("DisplayName(777) = %q, want %q", got, Uncategorized)
	}
}

func TestRootsStableOrder(t *testing.T) {
	ix := testIndex()
	roots := ix.Roots()
	if len(roots) != 3 {
		t.Fatalf("expected 3 roots, got %d", len(roots))
	}
	for i, want := range []string{"Food", "Orphan", "Transport"} {
		if roots[i].Name != want {
			t.Errorf("roots[%d] = %s, want %s", i, roots[i].Name, want)
		}
	}
}
