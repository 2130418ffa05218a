// Package collation provides locale-aware label ordering for group lists.
package collation

import (
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/permgate-dev/permgate/internal/domain/capabilities"
)

// Comparer orders display labels using Unicode collation rules for a
// configured locale.
type Comparer struct {
	collator *collate.Collator
}

var _ capabilities.LabelComparer = (*Comparer)(nil)

// NewComparer builds a comparer for the given BCP 47 tag. Unparseable or
// empty tags fall back to the undetermined language, which still applies
// the default Unicode collation table.
func NewComparer(tag string) *Comparer {
	parsed, err := language.Parse(tag)
	if err != nil {
		parsed = language.Und
	}
	return &Comparer{collator: collate.New(parsed)}
}

// Compare reports the collated order of a and b.
func (c *Comparer) Compare(a, b string) int {
	return c.collator.CompareString(a, b)
}
