package vfs

// CommonOptions carries the fields shared by every operation's options.
// Operation-specific option types embed it.
type CommonOptions struct {
	// Force, when true, tells an accumulating operation (delete/xmit) to keep
	// going past a per-entry failure instead of aborting the whole tree; the
	// failure is still recorded in the returned multierror. For Delete and
	// Mkcol specifically it also swallows a not-found/already-exists
	// precondition instead of raising it (§4.6/§4.7).
	Force bool
	// IgnoreHook suppresses both the before- and after-hook for this call
	// (§3 "Hooks are skipped when the caller passes ignoreHook"), including
	// the after-hook a stream fires on Close.
	IgnoreHook bool
}

// DeleteOptions configures Delete (§4.6/§4.7).
type DeleteOptions struct {
	CommonOptions
	// Recursive allows deleting a non-empty directory. Without it, deleting a
	// non-empty directory fails with KindInvalidModification.
	Recursive bool
}

// MkcolOptions configures Mkcol (§4.7). The default (Force unset) rejects an
// already-existing directory with KindPathExist; set Force to make mkcol
// idempotent against a pre-existing directory of the same path.
type MkcolOptions struct {
	CommonOptions
	// Parents creates missing intermediate directories, like mkdir -p.
	Parents bool
}

// ListOptions configures List (§4.7).
type ListOptions struct {
	CommonOptions
}

// OpenReadOptions configures OpenReadStream/Read (§4.8).
type OpenReadOptions struct {
	CommonOptions
	// Offset and Length select a byte range. Length 0 means "to end of file".
	Offset int64
	Length int64
}

// OpenWriteOptions configures OpenWriteStream/Write (§4.8).
type OpenWriteOptions struct {
	CommonOptions
	// Offset selects the byte at which writing begins; together with Append
	// and Truncate it selects which of the three write shapes (whole, ranged,
	// append) applies.
	Offset int64
	// Append requests append-at-end semantics regardless of Offset.
	Append bool
	// Truncate selects whole-file replacement. Write replaces the whole file
	// whenever Append is false and either Offset is 0 or Truncate is true (in
	// which case Offset is ignored); it patches the range at a non-zero Offset,
	// keeping the rest, only when Truncate is false. OpenWriteStream consults
	// Truncate only on its buffered path: there, Truncate with Offset 0 and no
	// Append replaces the whole file on Close, and anything else splices the
	// buffered bytes in at the stream's position (at end of file for Append).
	Truncate bool
	// Create is a tri-state create/update precondition (§4.7): nil means
	// create-or-truncate (the default); a true pointer means the path must
	// not already exist (else KindPathExist); a false pointer means the path
	// must already exist (else KindNotFound). When nil, the actual
	// create-vs-update branch (create := !exists) decides whether the write
	// fires its "post" or "put" hook.
	Create *bool
}

// CreateNew is shorthand for OpenWriteOptions.Create's must-not-exist state.
func CreateNew() *bool { v := true; return &v }

// UpdateExisting is shorthand for OpenWriteOptions.Create's must-exist state.
func UpdateExisting() *bool { v := false; return &v }

// XmitOptions configures Copy/Move (§4.6, §9 "xmit").
type XmitOptions struct {
	CommonOptions
	// Recursive permits transferring a directory subtree.
	Recursive bool
	// Overwrite permits a file destination to already exist. Without it, a
	// file source whose destination exists fails with KindSecurity (a policy
	// rejection, not a plain existence conflict) per §7. A directory source
	// is transferred into an existing destination directory either way.
	Overwrite bool
}

// PatchOptions configures Patch (§4.6).
type PatchOptions struct {
	CommonOptions
	// Merge, when true, merges Props into the existing set instead of
	// replacing it wholesale.
	Merge bool
}
