package audit

import "github.com/matzehuels/importaudit/pkg/stdlib"

// Classifier turns an import name into a fresh PackageRecord.
// Names not found in the table are treated as third-party.
type Classifier struct {
	table   *stdlib.Table
	renames stdlib.Renames
}

// NewClassifier creates a Classifier. A nil table uses [stdlib.Default]
// and nil renames use [stdlib.DefaultRenames].
func NewClassifier(table *stdlib.Table, renames stdlib.Renames) *Classifier {
	if table == nil {
		table = stdlib.Default()
	}
	if renames == nil {
		renames = stdlib.DefaultRenames()
	}
	return &Classifier{table: table, renames: renames}
}

// Classify returns the initial record for name.
func (c *Classifier) Classify(name string) PackageRecord {
	rec := PackageRecord{ImportName: name}
	if c.table.Contains(name) {
		rec.IsStdlib = true
		rec.IsAvailable = true
		return rec
	}
	rec.InstallName = c.renames.Lookup(name)
	return rec
}

// Table returns the stdlib table used by the classifier.
func (c *Classifier) Table() *stdlib.Table { return c.table }
