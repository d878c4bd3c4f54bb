package geocode

import (
	"encoding/json"
	"os"
)

// FileCache is the address -> district answer cache persisted between runs.
// Negative answers are cached too so a dead address is asked once.
type FileCache struct {
	path string
	data map[string]string
}

// LoadFileCache reads the cache file. A missing or corrupt file yields an
// empty cache, never an error; the cache is an optimization.
func LoadFileCache(path string) *FileCache {
	c := &FileCache{path: path, data: map[string]string{}}
	b, err := os.ReadFile(path)
	if err != nil {
		return c
	}
	var raw map[string]string
	if err := json.Unmarshal(b, &raw); err == nil && raw != nil {
		c.data = raw
	}
	return c
}

// Get returns the cached answer and whether the address was ever resolved.
func (c *FileCache) Get(address string) (string, bool) {
	v, ok := c.data[address]
	return v, ok
}

// Put records an answer, empty included.
func (c *FileCache) Put(address, district string) {
	c.data[address] = district
}

// Save persists the cache. Write failures are swallowed: losing the cache
// only costs repeat lookups next run.
func (c *FileCache) Save() {
	b, err := json.MarshalIndent(c.data, "", "  ")
	if err != nil {
		return
	}
	_ = os.WriteFile(c.path, b, 0o644)
}

// Len returns the number of cached addresses.
func (c *FileCache) Len() int { return len(c.data) }
