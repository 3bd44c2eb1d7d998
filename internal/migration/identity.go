package migration

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

const (
	// TimestampLayout formats the UTC creation instant of a migration. The
	// layout is fixed width so lexical and chronological order agree.
	TimestampLayout = "20060102150405"

	// TimestampWidth is the length of every formatted timestamp.
	TimestampWidth = len(TimestampLayout)

	// Separator joins the timestamp and the slug and replaces every
	// non-alphanumeric character of a title.
	Separator = '-'
)

// Identity is the canonical {timestamp}-{slug} name of a migration. It is
// both the file name stem and the sort key.
type Identity struct {
	Timestamp string
	Slug      string
}

// CreateIdentity allocates a fresh identity for title at the current UTC time.
func CreateIdentity(title string) Identity {
	return NewIdentity(title, time.Now())
}

// NewIdentity allocates an identity for title at the supplied instant.
func NewIdentity(title string, now time.Time) Identity {
	return Identity{
		Timestamp: now.UTC().Format(TimestampLayout),
		Slug:      Slugify(title),
	}
}

// Slugify lowercases letters and numbers and maps every other rune to the
// separator. Consecutive separators are kept as is.
func Slugify(title string) string {
	var b strings.Builder
	b.Grow(len(title))
	for _, r := range title {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(Separator)
	}
	return b.String()
}

// ParseIdentity splits a canonical identifier into its timestamp and slug.
func ParseIdentity(id string) (Identity, error) {
	if len(id) < TimestampWidth {
		return Identity{}, fmt.Errorf("%w: %q is shorter than the %d character timestamp",
			ErrInvalidIdentityFormat, id, TimestampWidth)
	}
	timestamp := id[:TimestampWidth]
	for _, r := range timestamp {
		if r < '0' || r > '9' {
			return Identity{}, fmt.Errorf("%w: %q does not start with a numeric timestamp",
				ErrInvalidIdentityFormat, id)
		}
	}
	if len(id) == TimestampWidth || id[TimestampWidth] != Separator {
		return Identity{}, fmt.Errorf("%w: %q has no %q after the timestamp",
			ErrInvalidIdentityFormat, id, Separator)
	}
	return Identity{
		Timestamp: timestamp,
		Slug:      id[TimestampWidth+1:],
	}, nil
}

// Canonical returns the {timestamp}-{slug} form of the identity.
func (i Identity) Canonical() string {
	return i.Timestamp + string(Separator) + i.Slug
}

// String implements fmt.Stringer.
func (i Identity) String() string {
	return i.Canonical()
}

// Filename returns the artifact file name for the identity with the given
// extension (including the leading dot).
func (i Identity) Filename(ext string) string {
	return i.Canonical() + ext
}
