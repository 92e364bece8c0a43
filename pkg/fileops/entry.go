package fileops

import (
	"strings"
	"time"

	"github.com/denysvitali/mtpfm/internal/models"
)

// Extension returns the lower-cased suffix of name without the dot, or nil
// for folders, extensionless names and names whose only dot is the leading one.
func Extension(name string, isFolder bool) *string {
	if isFolder {
		return nil
	}
	i := strings.LastIndex(name, ".")
	if i <= 0 || i == len(name)-1 {
		return nil
	}
	ext := strings.ToLower(name[i+1:])
	return &ext
}

// FormatDate renders t in the FileEntry date layout
func FormatDate(t time.Time) string {
	return t.Format(models.DateLayout)
}

// Collector accumulates entries for one listing and keeps paths unique.
// The first entry seen for a path wins.
type Collector struct {
	entries []models.FileEntry
	seen    map[string]struct{}
	dropped int
}

func NewCollector(capacity int) *Collector {
	return &Collector{
		entries: make([]models.FileEntry, 0, capacity),
		seen:    make(map[string]struct{}, capacity),
	}
}

// Add appends entry unless its path was already collected
func (c *Collector) Add(entry models.FileEntry) bool {
	if _, ok := c.seen[entry.Path]; ok {
		c.dropped++
		return false
	}
	c.seen[entry.Path] = struct{}{}
	c.entries = append(c.entries, entry)
	return true
}

// Entries returns the collected entries, never nil
func (c *Collector) Entries() []models.FileEntry {
	return c.entries
}

// Dropped returns how many duplicate paths were discarded
func (c *Collector) Dropped() int {
	return c.dropped
}
