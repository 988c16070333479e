package storage

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Artifact stages inside an owner's prefix.
const (
	StageRaw       = "raw"
	StageGenerated = "generated"
	StageLogo      = "logo"
)

const pathRoot = "renders"

// stripMarks removes combining marks left over after NFD decomposition, so
// accented filenames degrade to plain ASCII letters.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// ObjectPath builds the deterministic storage key for an artifact:
// renders/<category>/<owner>/<stage>/<uuid>-<sanitized filename>.
// The uuid prefix keeps concurrent uploads of identically named files from
// colliding.
func ObjectPath(category, ownerID, stage, filename string) string {
	return fmt.Sprintf("%s/%s/%s/%s/%s-%s",
		pathRoot, category, ownerID, stage, uuid.NewString(), SanitizeFilename(filename))
}

// OwnerPrefix returns the key prefix holding all of an owner's artifacts for
// a category.
func OwnerPrefix(category, ownerID string) string {
	return fmt.Sprintf("%s/%s/%s/", pathRoot, category, ownerID)
}

// SanitizeFilename reduces an arbitrary upload name to a safe object key
// segment: diacritics stripped, anything outside [a-z0-9._-] replaced with a
// hyphen, runs collapsed.
func SanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "file"
	}
	if stripped, _, err := transform.String(stripMarks, name); err == nil {
		name = stripped
	}
	name = strings.ToLower(name)
	var b strings.Builder
	lastHyphen := false
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '_':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	out := strings.Trim(b.String(), "-.")
	if out == "" {
		return "file"
	}
	return out
}
