package colors

import (
	"fmt"
	"testing"
	"time"
)

func newTestCache(t *testing.T) (*ColorCache, *time.Time) {
	t.Helper()
	c, err := NewColorCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewColorCache: %v", err)
	}
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return clock }
	return c, &clock
}

func TestColorForUntagged(t *testing.T) {
	c, _ := newTestCache(t)
	if got := c.ColorFor(nil); got != NoTagColor {
		t.Errorf("expected %s for untagged task, got %s", NoTagColor, got)
	}
}

func TestColorIsStablePerTag(t *testing.T) {
	c, _ := newTestCache(t)
	first := c.ColorFor([]string{"work", "urgent"})
	second := c.ColorFor([]string{"home"})
	if first == second {
		t.Fatalf("different tags got the same color %s", first)
	}
	if again := c.ColorFor([]string{"work"}); again != first {
		t.Errorf("expected work to keep color %s, got %s", first, again)
	}
}

func TestLeastRecentlyUsedTagIsEvicted(t *testing.T) {
	c, clock := newTestCache(t)
	for i := 0; i < paletteSize; i++ {
		*clock = clock.Add(time.Minute)
		c.ColorFor([]string{fmt.Sprintf("tag%d", i)})
	}
	// touch tag0 so tag1 becomes the oldest
	*clock = clock.Add(time.Minute)
	c.ColorFor([]string{"tag0"})
	evictedColor := c.Tags["tag1"].ColorID

	*clock = clock.Add(time.Minute)
	got := c.ColorFor([]string{"new"})
	if got != evictedColor {
		t.Errorf("expected recycled color %s, got %s", evictedColor, got)
	}
	if _, ok := c.Tags["tag1"]; ok {
		t.Error("tag1 should have been evicted")
	}
	if len(c.Tags) != paletteSize {
		t.Errorf("expected %d tags, got %d", paletteSize, len(c.Tags))
	}
}

func TestSaveAndReload(t *testing.T) {
	dir := t.TempDir()
	c, err := NewColorCache(dir)
	if err != nil {
		t.Fatal(err)
	}
	color := c.ColorFor([]string{"work"})
	if err := c.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reloaded, err := NewColorCache(dir)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got := reloaded.ColorFor([]string{"work"}); got != color {
		t.Errorf("expected persisted color %s, got %s", color, got)
	}
}
