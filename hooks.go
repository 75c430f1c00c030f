package vfs

import (
	"github.com/google/uuid"

	"github.com/vfscore/vfs/internal/vfslog"
)

// BeforeFunc runs ahead of an operation. Returning ok=true short-circuits the
// operation entirely: value and err are returned to the caller as-is and the
// backend is never invoked. Returning ok=false lets the operation proceed
// normally; value is then ignored. A non-nil err with ok=false is treated the
// same as ok=false (the hook observed something worth logging but does not
// want to own the result) — only ok=true actually short-circuits.
type BeforeFunc func(ctx *OpContext) (value interface{}, ok bool, err error)

// AfterFunc runs once an operation has already succeeded. It returns nothing,
// and a panic inside it is recovered and warn-logged by runAfter, so a
// misbehaving after-hook cannot turn a successful operation into a failure.
type AfterFunc func(ctx *OpContext, result interface{})

// OpContext describes the operation a hook is observing. Op is one of ten
// values: "head", "list", "mkcol", "get" (read),
// "post" (write of a not-yet-existing path), "put" (write of an existing
// path), "delete", "copy", "move", "patch". A hook registered once filters on
// Op itself rather than being handed one function field per named hook.
type OpContext struct {
	Repository string
	Op         string
	Path       string
	To         string // populated for copy/move

	// IgnoreHook mirrors the caller's CommonOptions.IgnoreHook. Set, it tells
	// runBefore/runAfter (and the wrap helper that calls them) to skip
	// dispatch entirely for this call.
	IgnoreHook bool
}

// HookSet is a registry of before/after listeners, the injection point §4.3
// and §9 "Hook injection" describe. Listeners are identified by a uuid handle
// rather than an incrementing counter. The listener maps are not guarded by a
// lock, so registering or removing a hook concurrently with any other use of
// the HookSet is a data race.
type HookSet struct {
	before map[uuid.UUID]BeforeFunc
	after  map[uuid.UUID]AfterFunc
}

// NewHookSet returns an empty registry.
func NewHookSet() *HookSet {
	return &HookSet{
		before: make(map[uuid.UUID]BeforeFunc),
		after:  make(map[uuid.UUID]AfterFunc),
	}
}

// Before registers a before-hook and returns a handle for Remove.
func (h *HookSet) Before(fn BeforeFunc) uuid.UUID {
	id := uuid.New()
	h.before[id] = fn
	return id
}

// After registers an after-hook and returns a handle for Remove.
func (h *HookSet) After(fn AfterFunc) uuid.UUID {
	id := uuid.New()
	h.after[id] = fn
	return id
}

// RemoveBefore unregisters a before-hook by handle.
func (h *HookSet) RemoveBefore(id uuid.UUID) {
	delete(h.before, id)
}

// RemoveAfter unregisters an after-hook by handle.
func (h *HookSet) RemoveAfter(id uuid.UUID) {
	delete(h.after, id)
}

// runBefore evaluates the before-hooks in map iteration order (not
// registration order) and stops at the first one that short-circuits, which
// is acceptable here: §4.3 only requires that SOME before-hook can
// short-circuit, not a defined priority among several.
func (h *HookSet) runBefore(ctx *OpContext) (value interface{}, ok bool, err error) {
	if ctx.IgnoreHook {
		return nil, false, nil
	}
	for _, fn := range h.before {
		if v, short, e := fn(ctx); short {
			return v, true, e
		}
	}
	return nil, false, nil
}

// runAfter fires every after-hook, recovering and warn-logging (never
// propagating) any panic an after-hook raises — these are diagnostic hooks,
// not a second voice on the outcome.
func (h *HookSet) runAfter(ctx *OpContext, result interface{}) {
	if ctx.IgnoreHook {
		return
	}
	for _, fn := range h.after {
		func() {
			defer func() {
				if r := recover(); r != nil {
					vfslog.Logger(ctx.Repository).WithField("op", ctx.Op).Warnf("after-hook panicked: %v", r)
				}
			}()
			fn(ctx, result)
		}()
	}
}
