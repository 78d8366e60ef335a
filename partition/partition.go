// Package partition implements the partition evaluator of spec §4.H:
// tailoring an expression to a partition's schema, resolving predicates
// against per-column indexers and the partition synopsis, and composing
// the resulting row-id bitsets through the expression's boolean
// structure.
//
// Grounded on the teacher's sql/index + sql/index/pilosa packages:
// sql.Index/sql.IndexLookup's Union/Intersection/Difference map directly
// onto the boolean operator tree over row-id sets (sql/index/pilosa/lookup_test.go
// TestLookupIndexes exercises exactly that algebra). Row-id sets are
// backed by github.com/pilosa/pilosa/roaring, the bitmap container the
// teacher already depends on for its pilosa-backed index driver.
package partition

import (
	"time"

	"github.com/cespare/xxhash"
	"github.com/pilosa/pilosa/roaring"
	"github.com/tenzir-community/tenzirgo/tsql"
)

// Partition is the handle the evaluator operates against: a combined
// schema, the type-ids map from schema name to the set of row ids stored
// under that schema, per-leaf-field indexer handles, and the partition's
// synopsis.
type Partition struct {
	Schema tsql.Type

	// TypeIDs maps each concrete schema name present in the partition to
	// the row ids stored with that schema (spec §4.H step 2, "#schema").
	TypeIDs map[string]*roaring.Bitmap

	// AllRows is the union of every entry in TypeIDs; it bounds every
	// bitset the evaluator ever produces (spec §4.H partial-failure
	// policy: "never enlarged beyond the partition's all-rows set").
	AllRows *roaring.Bitmap

	// Indexers maps a leaf field's dotted path to the handle that can
	// answer row-id queries for predicates over that column.
	Indexers map[string]Indexer

	// Internal is the partition's #internal attribute.
	Internal bool

	MinImportTime time.Time
	MaxImportTime time.Time

	// ImportTimeSynopsis answers three-valued questions about whether any
	// row in the partition could satisfy a predicate on #import_time,
	// without inspecting individual rows.
	ImportTimeSynopsis Synopsis
}

// SchemaFingerprint returns the stable fingerprint spec §4.H's #schema_id
// extractor compares against, for the named concrete schema stored in
// this partition. It reuses the cespare/xxhash dependency tsql.Fingerprint
// is built on, over the schema name directly, since a partition only
// tracks schema names (not the full per-schema Type) in its type-ids map.
func (p *Partition) SchemaFingerprint(schemaName string) uint64 {
	return xxhash.Sum64String(schemaName)
}

// NewPartition constructs a Partition and derives AllRows from TypeIDs.
func NewPartition(schema tsql.Type, typeIDs map[string]*roaring.Bitmap, indexers map[string]Indexer, internal bool, minImport, maxImport time.Time, synopsis Synopsis) *Partition {
	all := roaring.NewBitmap()
	for _, ids := range typeIDs {
		all = all.Union(ids)
	}
	return &Partition{
		Schema: schema, TypeIDs: typeIDs, AllRows: all, Indexers: indexers,
		Internal: internal, MinImportTime: minImport, MaxImportTime: maxImport,
		ImportTimeSynopsis: synopsis,
	}
}
