package mtp

import (
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/denysvitali/mtpfm/internal/models"
	"github.com/denysvitali/mtpfm/pkg/fileops"
)

// FolderTypeCode is the lsext type code of folders
const FolderTypeCode = "3001"

// lsext column offsets once a row is trimmed and its blank runs squeezed
const (
	colType = 2
	colDate = 4
	colTime = 5
	colName = 6
)

var (
	lineBreak        = regexp.MustCompile(`\r?\n`)
	blankRun         = regexp.MustCompile(`[ \t]+`)
	lsIndexPrefix    = regexp.MustCompile(`(^|\.\s+)\d+\s+`)
	descPattern      = regexp.MustCompile(`(?i)description:(.*)`)
	storageIDPattern = regexp.MustCompile(`\d+`)
)

var dateLayouts = []string{
	models.DateLayout,
	"2006/01/02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"01/02/2006 15:04:05",
}

// splitLines splits tool output into its non-blank lines
func splitLines(out string) []string {
	var lines []string
	for _, line := range lineBreak.Split(out, -1) {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// stripIndex removes the enumeration index the tool prints before each ls name
func stripIndex(line string) string {
	loc := lsIndexPrefix.FindStringIndex(line)
	if loc == nil {
		return line
	}
	return line[:loc[0]] + line[loc[1]:]
}

func squeeze(s string) string {
	return blankRun.ReplaceAllString(s, " ")
}

// parseDate turns the lsext date and time columns into the FileEntry layout.
// Unrecognised values are passed through unchanged.
func parseDate(date, clock string) string {
	raw := date + " " + clock
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return fileops.FormatDate(t)
		}
	}
	return raw
}

// devicePath joins a device directory and an entry name in device syntax
func devicePath(dir, name string) string {
	return path.Join("/", dir, name)
}

// ParseListing pairs the output of "ls" and "lsext" for dir into entries.
//
// The two outputs are paired line by line. When ls printed exactly one line
// more than lsext, its first line is a header and is dropped. Each pair is
// checked: the name column of the lsext row must equal the ls name, otherwise
// ErrListingMismatch is returned, as it is for any other difference in line
// counts. lsext rows without a name column are skipped.
//
// lsext rows are trimmed before their blank runs are squeezed, so leading
// whitespace never shifts the type, date, time and name columns.
func ParseListing(dir, lsOut, lsextOut string, ignoreHidden bool) ([]models.FileEntry, int, error) {
	lines := splitLines(lsOut)
	names := make([]string, len(lines))
	for i, line := range lines {
		names[i] = stripIndex(line)
	}
	rows := splitLines(lsextOut)

	if len(names) == len(rows)+1 {
		names = names[1:]
	}
	if len(names) != len(rows) {
		return nil, 0, fmt.Errorf("%w: ls printed %d entries, lsext %d", fileops.ErrListingMismatch, len(names), len(rows))
	}

	skipped := 0
	collector := fileops.NewCollector(len(rows))
	for i, row := range rows {
		cols := strings.Split(squeeze(strings.TrimSpace(row)), " ")
		if len(cols) <= colName {
			skipped++
			continue
		}

		name := names[i]
		rowName := strings.TrimSpace(strings.Join(cols[colName:], " "))
		if rowName != strings.TrimSpace(squeeze(name)) {
			return nil, skipped, fmt.Errorf("%w: line %d is %q in ls but %q in lsext", fileops.ErrListingMismatch, i+1, name, rowName)
		}

		if ignoreHidden && fileops.IsHidden(name) {
			continue
		}

		isFolder := cols[colType] == FolderTypeCode
		collector.Add(models.FileEntry{
			Name:      name,
			Path:      devicePath(dir, name),
			Extension: fileops.Extension(name, isFolder),
			IsFolder:  isFolder,
			DateAdded: parseDate(cols[colDate], cols[colTime]),
		})
	}
	return collector.Entries(), skipped, nil
}

// ParseStorageList parses "storage-list" output. Every line carrying a numeric
// storage id and a "description:" label becomes one storage; the first one is
// selected. A repeated id keeps its first description.
func ParseStorageList(out string) (models.StorageList, error) {
	storages := models.StorageList{}
	for _, line := range splitLines(out) {
		desc := descPattern.FindStringSubmatch(line)
		id := storageIDPattern.FindString(line)
		if desc == nil || id == "" {
			continue
		}
		if _, seen := storages[id]; seen {
			continue
		}
		storages[id] = models.Storage{
			Name:     strings.TrimSpace(desc[1]),
			Selected: len(storages) == 0,
		}
	}
	if len(storages) == 0 {
		return nil, fileops.ErrStorageNotAccessible
	}
	return storages, nil
}
