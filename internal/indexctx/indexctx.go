// Package indexctx implements the per-workspace state machine that wraps
// a single bleve.Index handle.
//
// Bleve v2 exposes one handle for both reads and writes — there is no
// separate "open a near-real-time reader from the writer" call the way
// Lucene-backed stores have. Context reproduces near-real-time
// visibility semantics on top of that simpler model: writes are
// buffered in a pending batch and only applied to the index (via
// index.Batch) on Commit, or immediately when eager refresh is enabled.
// A generation counter stands in for "the reader" — EnsureFreshReader
// advances it to match the writer's generation, and IsStale reports
// whether a caller has searched against a generation older than the
// latest commit.
package indexctx

import (
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"

	cserrors "github.com/cortexsearch/codesearch/internal/errors"
	"github.com/cortexsearch/codesearch/internal/schema"
)

// State is one node of the per-workspace state machine.
type State string

const (
	StateUninitialised State = "uninitialised"
	StateOpen          State = "open"
	StateEvicted       State = "evicted"
	StateNeedsRepair   State = "needs_repair"
)

type pendingOp struct {
	id     string
	doc    *schema.BleveDoc
	delete bool
}

// Context is one workspace's live state: its bleve.Index handle, the
// buffered writes not yet committed, and the generation bookkeeping used
// to detect NRT staleness for health/statistics reporting.
type Context struct {
	mu sync.Mutex

	hash         string
	indexPath    string
	eagerRefresh bool

	state   State
	index   bleve.Index
	pending []pendingOp

	writerGeneration uint64
	readerGeneration uint64

	lastAccess  time.Time
	repairCause error
}

// New creates a Context in Uninitialised state for the given workspace.
// eagerRefresh mirrors the server config's eager_reader_refresh: when
// true, Commit advances the reader generation immediately instead of
// waiting for the next search to call EnsureFreshReader.
func New(hash, indexPath string, eagerRefresh bool) *Context {
	return &Context{
		hash:         hash,
		indexPath:    indexPath,
		eagerRefresh: eagerRefresh,
		state:        StateUninitialised,
		lastAccess:   time.Time{},
	}
}

// Hash returns the workspace hash this context was created for.
func (c *Context) Hash() string { return c.hash }

// IndexPath returns the on-disk path of this workspace's index.
func (c *Context) IndexPath() string { return c.indexPath }

// State returns the current state machine node.
func (c *Context) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// MarkOpen transitions Uninitialised/Evicted/NeedsRepair into Open,
// adopting idx as the live handle and resetting generation bookkeeping.
func (c *Context) MarkOpen(idx bleve.Index) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.index = idx
	c.state = StateOpen
	c.repairCause = nil
	c.writerGeneration = 0
	c.readerGeneration = 0
	c.pending = nil
	c.lastAccess = time.Now()
}

// MarkNeedsRepair transitions any state into NeedsRepair. Searches and
// writes fail with a typed corrupt-index error until Repair is called.
func (c *Context) MarkNeedsRepair(cause error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateNeedsRepair
	c.repairCause = cause
}

// RepairCause returns the error that triggered NeedsRepair, if any.
func (c *Context) RepairCause() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.repairCause
}

// MarkEvicted transitions Open into Evicted: outstanding buffered writes
// are committed best-effort (a failure here is reported to the caller
// but the context still moves to Evicted regardless, since eviction must
// always free the writer), then the index handle is closed.
func (c *Context) MarkEvicted() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var flushErr error
	if len(c.pending) > 0 && c.index != nil {
		flushErr = c.flushLocked()
	}

	if c.index != nil {
		if err := c.index.Close(); err != nil && flushErr == nil {
			flushErr = err
		}
	}

	c.state = StateEvicted
	c.index = nil
	c.pending = nil

	return flushErr
}

// Touch records activity against this context, used by the inactivity
// sweeper and LRU eviction policy.
func (c *Context) Touch() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastAccess = time.Now()
}

// LastAccess returns the last time Touch was called.
func (c *Context) LastAccess() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastAccess
}

// IdleSince returns how long this context has been idle as of now.
func (c *Context) IdleSince(now time.Time) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return now.Sub(c.lastAccess)
}

// RequireIndex returns the live bleve.Index for this context, or a typed
// error describing why it is unavailable: IndexMissing when the context
// was never opened or was evicted, IndexCorrupt when it needs repair.
func (c *Context) RequireIndex() (bleve.Index, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateOpen:
		return c.index, nil
	case StateNeedsRepair:
		return nil, cserrors.IndexCorrupt(c.indexPath, c.repairCause)
	default:
		return nil, cserrors.IndexMissing(c.indexPath)
	}
}

// Enqueue buffers an upsert of doc under id for the next Commit.
func (c *Context) Enqueue(id string, doc *schema.BleveDoc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = append(c.pending, pendingOp{id: id, doc: doc})
	if c.eagerRefresh {
		c.flushLocked()
		c.readerGeneration = c.writerGeneration
	}
}

// EnqueueDelete buffers a delete-by-id for the next Commit.
func (c *Context) EnqueueDelete(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = append(c.pending, pendingOp{id: id, delete: true})
	if c.eagerRefresh {
		c.flushLocked()
		c.readerGeneration = c.writerGeneration
	}
}

// PendingCount returns the number of buffered, not-yet-committed writes.
func (c *Context) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Commit flushes buffered writes to the index via a single bleve.Batch
// and advances the writer generation. If eager refresh is configured the
// reader generation is advanced to match immediately; otherwise the next
// EnsureFreshReader call (made before each search) catches it up.
func (c *Context) Commit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.flushLocked(); err != nil {
		return err
	}
	if c.eagerRefresh {
		c.readerGeneration = c.writerGeneration
	}
	return nil
}

// flushLocked applies c.pending to c.index and bumps writerGeneration.
// Must be called with c.mu held.
func (c *Context) flushLocked() error {
	if len(c.pending) == 0 {
		return nil
	}
	if c.index == nil {
		return cserrors.IndexMissing(c.indexPath)
	}

	batch := c.index.NewBatch()
	for _, op := range c.pending {
		if op.delete {
			batch.Delete(op.id)
			continue
		}
		if err := batch.Index(op.id, op.doc); err != nil {
			return cserrors.Internal("failed to stage document for batch", err)
		}
	}

	if err := c.index.Batch(batch); err != nil {
		return cserrors.Wrap(cserrors.KindIndexCorrupt, err)
	}

	c.pending = nil
	c.writerGeneration++
	return nil
}

// EnsureFreshReader advances the reader generation to the latest writer
// generation. Callers invoke this before each search so that a commit
// made since the last search becomes visible, mirroring bleve's own
// automatic NRT visibility without requiring a separate reader object.
func (c *Context) EnsureFreshReader() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.readerGeneration = c.writerGeneration
}

// IsStale reports whether the reader generation lags the writer
// generation — i.e. a commit has happened since the last search.
func (c *Context) IsStale() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.readerGeneration != c.writerGeneration
}

// Generations returns the current writer and reader generation counters,
// used by health/statistics for NRT staleness diagnostics.
func (c *Context) Generations() (writer, reader uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writerGeneration, c.readerGeneration
}
