// Package colors assigns Google Calendar color ids to task tags. Each tag
// keeps its color until the eleven event colors run out, then the least
// recently used tag gives its color up.
package colors

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/harrisonrobin/tomato/pkg/util"
)

const (
	cacheFile = "tag_colors.json"

	// NoTagColor is used for tasks without tags (graphite).
	NoTagColor = "8"
	// paletteSize is the number of event colors Google Calendar offers.
	paletteSize = 11
)

type TagState struct {
	ColorID      string    `json:"color_id"`
	LastModified time.Time `json:"last_modified"`
}

type ColorCache struct {
	path  string
	Tags  map[string]*TagState
	dirty bool
	now   func() time.Time
}

// NewColorCache loads {dir}/tag_colors.json, or starts empty if it does not
// exist yet.
func NewColorCache(dir string) (*ColorCache, error) {
	c := &ColorCache{
		path: filepath.Join(dir, cacheFile),
		Tags: make(map[string]*TagState),
		now:  time.Now,
	}
	if _, err := util.ReadJSONFile(c.path, &c.Tags); err != nil {
		return nil, fmt.Errorf("tag colors: %w", err)
	}
	return c, nil
}

// Save writes the cache if anything changed since the last load or save.
func (c *ColorCache) Save() error {
	if !c.dirty {
		return nil
	}
	if err := util.WriteJSONFile(c.path, c.Tags); err != nil {
		return err
	}
	c.dirty = false
	return nil
}

// ColorFor returns the color id for a task's tag list. Only the first tag
// picks the color.
func (c *ColorCache) ColorFor(tags []string) string {
	if len(tags) == 0 || tags[0] == "" {
		return NoTagColor
	}
	tag := tags[0]
	if state, ok := c.Tags[tag]; ok {
		state.LastModified = c.now()
		c.dirty = true
		return state.ColorID
	}
	return c.assign(tag)
}

func (c *ColorCache) assign(tag string) string {
	used := make(map[string]bool, len(c.Tags))
	for _, s := range c.Tags {
		used[s.ColorID] = true
	}
	for i := 1; i <= paletteSize; i++ {
		id := strconv.Itoa(i)
		if !used[id] {
			c.Tags[tag] = &TagState{ColorID: id, LastModified: c.now()}
			c.dirty = true
			return id
		}
	}

	// Palette is full: evict the least recently used tag.
	var oldest string
	var oldestTime time.Time
	for t, s := range c.Tags {
		if oldest == "" || s.LastModified.Before(oldestTime) ||
			(s.LastModified.Equal(oldestTime) && t < oldest) {
			oldest, oldestTime = t, s.LastModified
		}
	}
	color := c.Tags[oldest].ColorID
	delete(c.Tags, oldest)
	c.Tags[tag] = &TagState{ColorID: color, LastModified: c.now()}
	c.dirty = true
	return color
}
