package utils

import (
	"crypto/rand"
	"regexp"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

var permlinkUnsafe = regexp.MustCompile(`[^a-z0-9-]+`)

// NewID returns a lexically sortable unique id.
func NewID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}

// NewPermlink builds a reply permlink of the form re-<parent>-<ulid>, lowercased and
// limited to the characters the chain accepts.
func NewPermlink(parentPermlink string) string {
	base := permlinkUnsafe.ReplaceAllString(strings.ToLower(parentPermlink), "-")
	base = strings.Trim(base, "-")
	if len(base) > 200 {
		base = base[:200]
	}
	id := strings.ToLower(NewID())
	if base == "" {
		return "re-" + id
	}
	return "re-" + base + "-" + id
}
