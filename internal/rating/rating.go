// Package rating converts between native per-format rating scales and the
// engine's normalized 0-10 half-star scale.
//
// Each format carries a breakpoint table: exactly ten non-decreasing native
// values, one per half-star level 1..10. Conversion to half-stars is a
// floor-style classification against the table, not nearest-neighbor; the
// reverse direction indexes the table directly. Tables are explicit injected
// configuration, never package globals.
package rating

import (
	"github.com/tagforgeapp/tagforge-server/internal/errors"
	"github.com/tagforgeapp/tagforge-server/internal/tagfile"
)

// TableSize is the required number of breakpoints per format.
const TableSize = 10

// Table is the ordered half-star to native-value breakpoint table for one
// format. Table[i] is the native value for half-star level i+1.
type Table [TableSize]int

// Tables maps each audio format to its breakpoint table.
type Tables map[tagfile.Format]Table

// nativeMax holds the largest legal native rating value per format.
var nativeMax = map[tagfile.Format]int{
	tagfile.FormatMP3:  255, // ID3 POPM is a single byte
	tagfile.FormatMP4:  100,
	tagfile.FormatOGG:  100,
	tagfile.FormatFLAC: 100,
	tagfile.FormatWMA:  99,
}

// DefaultTables returns the stock breakpoint tables.
//
// The MP3 table follows the de-facto POPM convention shared by Windows
// Explorer and most taggers; the percentage-scale formats use an even
// 10-step spread.
func DefaultTables() Tables {
	return Tables{
		tagfile.FormatMP3:  {1, 32, 64, 96, 128, 160, 192, 224, 240, 255},
		tagfile.FormatMP4:  {10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		tagfile.FormatOGG:  {10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		tagfile.FormatFLAC: {10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		tagfile.FormatWMA:  {1, 12, 23, 34, 45, 56, 67, 78, 89, 99},
	}
}

// Converter performs bidirectional rating conversion against a fixed set of
// tables. A Converter is immutable after construction; concurrent use is safe.
type Converter struct {
	tables Tables
}

// NewConverter creates a converter over the given tables, validating every
// table up front. A nil map selects the defaults.
func NewConverter(tables Tables) (*Converter, error) {
	if tables == nil {
		tables = DefaultTables()
	}
	copied := make(Tables, len(tables))
	for format, table := range tables {
		if err := validateTable(format, table); err != nil {
			return nil, err
		}
		copied[format] = table
	}
	return &Converter{tables: copied}, nil
}

// MustConverter is like NewConverter but panics on invalid tables.
// Intended for the stock tables and tests.
func MustConverter(tables Tables) *Converter {
	c, err := NewConverter(tables)
	if err != nil {
		panic(err)
	}
	return c
}

// SetConversion returns a new Converter with the table for one format
// replaced. It fails with an invalid-configuration error if values does not
// hold exactly ten entries; the receiver is never partially modified.
func (c *Converter) SetConversion(format tagfile.Format, values []int) (*Converter, error) {
	if len(values) != TableSize {
		return nil, errors.InvalidConfigf("rating table for %s must have exactly %d entries, got %d",
			format, TableSize, len(values))
	}
	var table Table
	copy(table[:], values)
	if err := validateTable(format, table); err != nil {
		return nil, err
	}
	next := make(Tables, len(c.tables)+1)
	for f, t := range c.tables {
		next[f] = t
	}
	next[format] = table
	return &Converter{tables: next}, nil
}

// ToHalfStars maps a native rating value to the half-star scale.
//
// The format's table is scanned from the highest breakpoint down; the first
// breakpoint less than or equal to the native value yields its level. Values
// below the first breakpoint yield 0 (unrated).
func (c *Converter) ToHalfStars(format tagfile.Format, native int) (int, error) {
	table, ok := c.tables[format]
	if !ok {
		return 0, errors.InvalidConfigf("no rating table for format %s", format)
	}
	for i := TableSize - 1; i >= 0; i-- {
		if table[i] <= native {
			return i + 1, nil
		}
	}
	return 0, nil
}

// FromHalfStars maps a half-star level to the format's native value.
// Levels below 1 map to native 0 (unrated); levels above 10 clamp to the
// table's maximum breakpoint.
func (c *Converter) FromHalfStars(format tagfile.Format, stars int) (int, error) {
	table, ok := c.tables[format]
	if !ok {
		return 0, errors.InvalidConfigf("no rating table for format %s", format)
	}
	switch {
	case stars < 1:
		return 0, nil
	case stars > TableSize:
		return table[TableSize-1], nil
	default:
		return table[stars-1], nil
	}
}

// validateTable checks per-format range and monotonicity.
func validateTable(format tagfile.Format, table Table) error {
	maxValue, ok := nativeMax[format]
	if !ok {
		return errors.InvalidConfigf("unsupported audio format %q for rating conversion", format)
	}
	prev := -1
	for i, v := range table {
		if v < 0 || v > maxValue {
			return errors.InvalidConfigf("rating table for %s: entry %d out of range [0, %d]: %d",
				format, i+1, maxValue, v)
		}
		if v < prev {
			return errors.InvalidConfigf("rating table for %s: entry %d breaks monotonicity (%d < %d)",
				format, i+1, v, prev)
		}
		prev = v
	}
	return nil
}
