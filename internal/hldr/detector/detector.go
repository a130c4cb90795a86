package detector

import (
	"context"
	"io"
	"log/slog"
	"os"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/kolkov/hldrdetector/internal/hldr/backtrace"
	"github.com/kolkov/hldrdetector/internal/hldr/chain"
	"github.com/kolkov/hldrdetector/internal/hldr/clock"
	"github.com/kolkov/hldrdetector/internal/hldr/history"
	"github.com/kolkov/hldrdetector/internal/hldr/view"
)

// ThreadID identifies one thread of the instrumented program, assigned by
// the instrumentation engine.
type ThreadID uint32

// Options configures a Detector. The zero value is usable: every field has
// a default.
type Options struct {
	// WindowCapacity bounds the recent suffix of each thread's history that
	// is eligible for cross-thread comparison. Defaults to
	// history.DefaultWindowCapacity.
	WindowCapacity int

	// RetainLimit bounds each history's backing sequence beyond the window;
	// 0 retains every completed view (the reference behavior).
	RetainLimit int

	// Output receives violation reports. Defaults to os.Stderr.
	Output io.Writer

	// Logger receives lifecycle diagnostics, never reports. Defaults to a
	// discard logger.
	Logger *slog.Logger

	// Provider captures backtraces at region boundaries. Defaults to the
	// runtime-based provider.
	Provider backtrace.Provider

	// Resolver symbolizes backtraces and instruction locations in reports.
	// Defaults to the runtime-based resolver.
	Resolver backtrace.Resolver
}

// threadState is the per-thread slot owned by the registry: the history of
// completed views plus the active (Building) view, if any.
//
// The active view is touched only by callbacks for its own thread, which
// the instrumentation engine delivers on that thread; it needs no lock.
type threadState struct {
	history *history.ViewHistory
	active  *view.View
}

// Detector holds all detection state: the thread registry, the logical
// clock, and the reporting sinks. Construct one per instrumented process
// and share it by reference; there is no ambient instance.
type Detector struct {
	opts    Options
	log     *slog.Logger
	session string
	clock   *clock.Clock

	// mu guards the thread registry. The cross-thread traversals hold the
	// read lock for their whole duration so no thread can finish and tear
	// down its history mid-check; thread start/finish take the write lock.
	mu      sync.RWMutex
	threads map[ThreadID]*threadState

	// reportMu serializes report formatting and the violation counter.
	reportMu   sync.Mutex
	violations int
}

// New returns a ready Detector. Option fields left at their zero value get
// defaults; see Options.
func New(opts Options) *Detector {
	if opts.WindowCapacity < 1 {
		opts.WindowCapacity = history.DefaultWindowCapacity
	}
	if opts.RetainLimit < 0 {
		opts.RetainLimit = 0
	}
	if opts.Output == nil {
		opts.Output = os.Stderr
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Provider == nil {
		opts.Provider = backtrace.RuntimeProvider{}
	}
	if opts.Resolver == nil {
		opts.Resolver = backtrace.RuntimeResolver{}
	}

	d := &Detector{
		opts:    opts,
		session: uuid.NewString(),
		clock:   clock.New(),
		threads: make(map[ThreadID]*threadState),
	}
	d.log = opts.Logger.With("session_id", d.session)
	d.log.Debug("detector initialized",
		"window_capacity", opts.WindowCapacity,
		"retain_limit", opts.RetainLimit)
	return d
}

// Session returns the unique identifier of this detector instance, used to
// correlate log lines.
func (d *Detector) Session() string { return d.session }

// OnThreadStarted registers a thread and creates its empty view history.
// Registering an already-known thread is a defended no-op.
func (d *Detector) OnThreadStarted(tid ThreadID) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.threads[tid]; ok {
		d.log.Warn("thread started twice", "thread", uint32(tid))
		return
	}
	d.threads[tid] = &threadState{
		history: history.New(d.opts.WindowCapacity, d.opts.RetainLimit),
	}
	d.log.Debug("thread started", "thread", uint32(tid))
}

// OnThreadFinished removes a thread from the registry. Taking the registry
// write lock here blocks until every in-flight cross-thread check that
// might reference this thread's window has released its read lock.
func (d *Detector) OnThreadFinished(tid ThreadID) {
	d.mu.Lock()
	defer d.mu.Unlock()

	ts, ok := d.threads[tid]
	if !ok {
		d.log.Warn("unknown thread finished", "thread", uint32(tid))
		return
	}
	if ts.active != nil {
		// The program finished a thread inside an atomic region. The view
		// never freezes; drop it.
		d.log.Warn("thread finished inside atomic region",
			"thread", uint32(tid), "depth", ts.active.Depth())
	}
	if d.log.Enabled(context.Background(), slog.LevelDebug) {
		ts.history.Dump(dumpWriter{d.log, tid})
	}
	delete(d.threads, tid)
	d.log.Debug("thread finished", "thread", uint32(tid), "views", ts.history.Len())
}

// OnAtomicRegionEntered records entry into an atomic region: the first
// (non-nested) entry creates the thread's active view and captures the
// start backtrace; nested entries only deepen the nesting counter.
func (d *Detector) OnAtomicRegionEntered(tid ThreadID) {
	ts := d.forThread(tid)
	if ts == nil {
		return
	}
	if ts.active == nil {
		ts.active = view.New(d.opts.Provider.Capture())
	}
	ts.active.Enter()
}

// OnMemoryRead records a read inside the thread's active region. Outside
// any region it is a no-op: only accesses within atomic regions shape
// views.
func (d *Detector) OnMemoryRead(tid ThreadID, addr view.Address, instr view.InstructionID) {
	ts := d.forThread(tid)
	if ts == nil || ts.active == nil {
		return
	}
	ts.active.RecordRead(addr, instr)
}

// OnMemoryWrite records a write inside the thread's active region, under
// the same contract as OnMemoryRead.
func (d *Detector) OnMemoryWrite(tid ThreadID, addr view.Address, instr view.InstructionID) {
	ts := d.forThread(tid)
	if ts == nil || ts.active == nil {
		return
	}
	ts.active.RecordWrite(addr, instr)
}

// OnAtomicRegionExited records exit from an atomic region. A nested exit
// only unwinds the nesting counter. The outermost exit freezes the view,
// timestamps it, runs both cross-thread check traversals, and only then
// inserts the view into the owning thread's history and clears the active
// slot. An exit with no matching enter is a defended no-op.
func (d *Detector) OnAtomicRegionExited(tid ThreadID) {
	ts := d.forThread(tid)
	if ts == nil {
		return
	}
	if ts.active == nil {
		d.log.Warn("region exit without matching enter", "thread", uint32(tid))
		return
	}
	if ts.active.Exit() > 0 {
		return
	}

	v := ts.active
	v.Freeze(d.clock.Next(), d.opts.Provider.Capture())

	d.checkViewAgainstOthers(tid, v)
	d.checkOthersAgainstOwn(tid, ts)

	ts.history.Insert(v)
	ts.active = nil
}

// ViolationsDetected returns the number of violations reported so far.
func (d *Detector) ViolationsDetected() int {
	d.reportMu.Lock()
	defer d.reportMu.Unlock()
	return d.violations
}

// Close logs a final summary. The detector remains usable; Close only
// flushes diagnostics.
func (d *Detector) Close() {
	d.mu.RLock()
	threads := len(d.threads)
	d.mu.RUnlock()
	d.log.Info("detector summary",
		"violations", d.ViolationsDetected(),
		"live_threads", threads,
		"clock", uint64(d.clock.Now()))
}

// forThread looks up the per-thread slot under the registry read lock.
// Callbacks for unknown threads resolve to nil and are dropped by callers.
func (d *Detector) forThread(tid ThreadID) *threadState {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.threads[tid]
}

// otherThreadsLocked returns every registered thread except tid in
// ascending ID order. Deterministic traversal order keeps the set of
// reported violations identical across runs of the same callback sequence.
// Callers hold at least the registry read lock.
func (d *Detector) otherThreadsLocked(tid ThreadID) []ThreadID {
	out := make([]ThreadID, 0, len(d.threads))
	for id := range d.threads {
		if id != tid {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out
}

// checkViewAgainstOthers runs the first traversal: the just-frozen view v
// against every other thread's window, stopping at the first violation.
func (d *Detector) checkViewAgainstOthers(tid ThreadID, v *view.View) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, other := range d.otherThreadsLocked(tid) {
		w := d.threads[other].history.Acquire()
		if w.Empty() {
			w.Release()
			continue
		}
		viol := chain.Check(v, w)
		if viol != nil {
			d.report(tid, other, v, viol)
			w.Release()
			return
		}
		w.Release()
	}
}

// checkOthersAgainstOwn runs the second traversal: every view in every
// other thread's window against this thread's own pre-existing window,
// stopping at the first violation. With an empty own window there is
// nothing to compare against.
func (d *Detector) checkOthersAgainstOwn(tid ThreadID, ts *threadState) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	own := ts.history.Acquire()
	defer own.Release()
	if own.Empty() {
		return
	}

	for _, other := range d.otherThreadsLocked(tid) {
		w := d.threads[other].history.Acquire()
		if w.Empty() {
			w.Release()
			continue
		}
		for i := 0; i < w.Len(); i++ {
			viol := chain.Check(w.At(i), own)
			if viol != nil {
				d.report(other, tid, w.At(i), viol)
				w.Release()
				return
			}
		}
		w.Release()
	}
}

// report classifies, formats, and emits one violation, then counts it.
// Detection always continues after a report.
func (d *Detector) report(candidateThread, historyThread ThreadID, v *view.View, viol *chain.Violation) {
	rep := newReport(candidateThread, historyThread, v, viol, d.opts.Resolver)

	d.reportMu.Lock()
	defer d.reportMu.Unlock()
	d.violations++
	rep.Format(d.opts.Output)

	d.log.Debug("violation reported",
		"classification", rep.Classification.String(),
		"family", viol.Family.String(),
		"candidate_thread", uint32(candidateThread),
		"history_thread", uint32(historyThread))
}

// dumpWriter adapts a history dump into debug log lines.
type dumpWriter struct {
	log *slog.Logger
	tid ThreadID
}

func (w dumpWriter) Write(p []byte) (int, error) {
	w.log.Debug("view history dump", "thread", uint32(w.tid), "dump", string(p))
	return len(p), nil
}
