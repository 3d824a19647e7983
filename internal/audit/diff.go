package audit

import (
	"strings"

	"go.uber.org/zap"

	"github.com/campus-assoc/backend/internal/tracking"
)

// DefaultLargeBinaryBytes is the size above which a binary column is reported as
// large in the debug log. The audit payload is a description either way.
const DefaultLargeBinaryBytes = 1024 * 1024

const maskedValue = "***"

// metadataColumns are bookkeeping columns that never appear in a diff.
var metadataColumns = map[string]bool{
	"id":         true,
	"created_at": true,
	"created_by": true,
	"updated_at": true,
	"updated_by": true,
}

// maskedColumns are diffed for presence only; their values never reach the log.
var maskedColumns = map[string]bool{
	"password_hash":  true,
	"security_stamp": true,
}

// FieldDelta is one column's before/after pair.
type FieldDelta struct {
	Name string
	Old  any
	New  any
}

// Differ turns a tracked entry into field deltas.
type Differ struct {
	LargeBinaryBytes int
	Log              *zap.Logger
}

func NewDiffer(largeBinaryBytes int, log *zap.Logger) *Differ {
	if largeBinaryBytes <= 0 {
		largeBinaryBytes = DefaultLargeBinaryBytes
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Differ{LargeBinaryBytes: largeBinaryBytes, Log: log}
}

// Diff lists the meaningful changes of an entry. Modified entries yield before and
// after values, deleted entries their last values and created entries their
// initial values.
func (d *Differ) Diff(entry *tracking.Entry) []FieldDelta {
	switch entry.State {
	case tracking.Modified:
		return d.modified(entry)
	case tracking.Deleted:
		return d.deleted(entry)
	case tracking.Added:
		return d.created(entry)
	}
	return nil
}

func (d *Differ) modified(entry *tracking.Entry) []FieldDelta {
	var out []FieldDelta
	for _, p := range entry.Properties() {
		if metadataColumns[p.Name] || !p.IsModified {
			continue
		}
		oldBytes, oldBin := p.Original.([]byte)
		newBytes, newBin := p.Current.([]byte)
		if oldBin || newBin {
			out = append(out, FieldDelta{
				Name: p.Name,
				Old:  d.describe(entry, p.Name, oldBytes),
				New:  d.describe(entry, p.Name, newBytes),
			})
			continue
		}
		if SemanticEqual(p.Original, p.Current) {
			continue
		}
		out = append(out, FieldDelta{Name: p.Name, Old: mask(p.Name, p.Original), New: mask(p.Name, p.Current)})
	}
	return out
}

func (d *Differ) deleted(entry *tracking.Entry) []FieldDelta {
	var out []FieldDelta
	for _, p := range entry.Properties() {
		if metadataColumns[p.Name] || p.Original == nil {
			continue
		}
		if _, bin := p.Original.([]byte); bin {
			continue
		}
		out = append(out, FieldDelta{Name: p.Name, Old: mask(p.Name, p.Original)})
	}
	return out
}

func (d *Differ) created(entry *tracking.Entry) []FieldDelta {
	var out []FieldDelta
	for _, p := range entry.Properties() {
		if metadataColumns[p.Name] || p.Current == nil {
			continue
		}
		switch v := p.Current.(type) {
		case string:
			if strings.TrimSpace(v) == "" {
				continue
			}
		case []byte:
			out = append(out, FieldDelta{Name: p.Name, New: d.describeAlways(entry, p.Name, v)})
			continue
		}
		out = append(out, FieldDelta{Name: p.Name, New: mask(p.Name, p.Current)})
	}
	return out
}

// describe returns nil for an empty payload so a cleared upload shows no size.
func (d *Differ) describe(entry *tracking.Entry, name string, b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return d.describeAlways(entry, name, b)
}

func (d *Differ) describeAlways(entry *tracking.Entry, name string, b []byte) string {
	if len(b) > d.LargeBinaryBytes {
		d.Log.Debug("large binary column",
			zap.String("entity_type", entry.Entity.EntityType()),
			zap.String("column", name),
			zap.Int("bytes", len(b)),
		)
	}
	return DescribeBinary(name, len(b))
}

func mask(name string, v any) any {
	if maskedColumns[name] && v != nil {
		return maskedValue
	}
	return v
}
