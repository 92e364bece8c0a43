package fileops

import (
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"strings"
)

var hiddenPattern = regexp.MustCompile(`(^|/)\.[^/.]`)

// IsHidden reports whether name is a dotfile. Names made only of dots are not.
func IsHidden(name string) bool {
	return hiddenPattern.MatchString(name)
}

// junkPatterns are OS-generated metadata files excluded from listings
var junkPatterns = regexp.MustCompile(`^npm-debug\.log$` +
	`|^\..*\.swp$` +
	`|^\.DS_Store$` +
	`|^\.AppleDouble$` +
	`|^\.LSOverride$` +
	"|^Icon\r$" +
	`|^\._.*` +
	`|^\.Spotlight-V100(?:$|/)` +
	`|\.Trashes` +
	`|^__MACOSX$` +
	`|~$` +
	`|^Thumbs\.db$` +
	`|^ehthumbs\.db$` +
	`|^[Dd]esktop\.ini$` +
	`|^\.DocumentRevisions-V100$` +
	`|^\.fseventsd$` +
	`|^\.TemporaryItems$` +
	`|^\.VolumeIcon\.icns$` +
	`|^\$RECYCLE\.BIN$` +
	`|^System Volume Information$` +
	`|@eaDir$`)

// IsJunk reports whether name is an OS junk file
func IsJunk(name string) bool {
	return junkPatterns.MatchString(name)
}

// CheckRemovable rejects a delete batch containing an empty path or the
// filesystem root. resolve, when set, maps each path to the form that will
// actually be removed.
func CheckRemovable(paths []string, resolve func(string) (string, error)) error {
	for _, p := range paths {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("%w: empty path", ErrUnsafePath)
		}
		target := p
		if resolve != nil {
			resolved, err := resolve(p)
			if err != nil {
				return fmt.Errorf("%w %q: %w", ErrUnsafePath, p, err)
			}
			target = resolved
		}
		if path.Clean(filepath.ToSlash(target)) == "/" {
			return fmt.Errorf("%w %q: it is the root directory", ErrUnsafePath, p)
		}
	}
	return nil
}
