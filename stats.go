package vfs

import "time"

// Stats describes a single entry's metadata (§3). It is returned by head and
// embedded in list results.
type Stats struct {
	Path     string
	Size     int64
	Mode     uint32
	Dir      bool
	ModTime  time.Time
	ETag     string
	Deleted  *time.Time
	Props    Props
}

// IsDir reports whether the entry is a directory.
func (s Stats) IsDir() bool {
	return s.Dir
}

// IsDeleted reports whether a logicalDelete tombstone has been set.
// head only masks this to NotFound when the repository enables logicalDelete;
// callers inspecting Stats directly always see the tombstone.
func (s Stats) IsDeleted() bool {
	return s.Deleted != nil
}

// Props is a free-form, backend-defined attribute bag attached to an entry.
// It stays a concrete map rather than a generic tagged-union value type: every
// SPEC_FULL component that touches metadata already knows its shape ahead of
// time, so there is nothing for a JSON-like Obj/Arr value type to buy here.
type Props map[string]interface{}

// Clone returns a shallow copy, used by patch so a caller's map can't alias
// the stored value after the call returns.
func (p Props) Clone() Props {
	if p == nil {
		return nil
	}
	out := make(Props, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
