// Package worker runs the background workflows of the node, such as
// periodic consensus with the known peers.
package worker

import (
	"sync"
	"time"

	"github.com/ardanlabs/powchain/foundation/blockchain/state"
)

// Worker manages the background workflows for the blockchain.
type Worker struct {
	state     *state.State
	wg        sync.WaitGroup
	shutOnce  sync.Once
	interval  time.Duration
	shut      chan struct{}
	resolve   chan bool
	evHandler state.EventHandler
}

// Run creates a worker, registers the worker with the state package, and
// starts up all the background processes. Consensus runs every interval
// when the interval is positive, and whenever SignalResolve is called.
func Run(st *state.State, interval time.Duration, evHandler state.EventHandler) *Worker {
	w := Worker{
		state:     st,
		interval:  interval,
		shut:      make(chan struct{}),
		resolve:   make(chan bool, 1),
		evHandler: evHandler,
	}

	// Register this worker with the state package.
	st.Worker = &w

	// Load the set of operations we need to run.
	operations := []func(){
		w.consensusOperations,
	}

	// Set waitgroup to match the number of G's we need for the set
	// of operations we have.
	g := len(operations)
	w.wg.Add(g)

	// We don't want to return until we know all the G's are up and running.
	hasStarted := make(chan bool)

	// Start all the operational G's.
	for _, op := range operations {
		go func(op func()) {
			defer w.wg.Done()
			hasStarted <- true
			op()
		}(op)
	}

	// Wait for the G's to report they are running.
	for i := 0; i < g; i++ {
		<-hasStarted
	}

	return &w
}

// =============================================================================
// These methods implement the state.Worker interface.

// Shutdown terminates the goroutines performing work.
func (w *Worker) Shutdown() {
	w.evHandler("worker: shutdown: started")
	defer w.evHandler("worker: shutdown: completed")

	w.evHandler("worker: shutdown: terminate goroutines")
	w.shutOnce.Do(func() { close(w.shut) })
	w.wg.Wait()
}

// SignalResolve requests a consensus run. If there is already a signal
// pending in the channel, just return since a run will happen.
func (w *Worker) SignalResolve() {
	select {
	case w.resolve <- true:
	default:
	}
	w.evHandler("worker: SignalResolve: resolve signaled")
}

// =============================================================================

// consensusOperations handles resolving the chain against the known peers
// on a timer or on request.
func (w *Worker) consensusOperations() {
	w.evHandler("worker: consensusOperations: G started")
	defer w.evHandler("worker: consensusOperations: G completed")

	// A nil channel blocks forever, which turns the timer off.
	var tick <-chan time.Time
	if w.interval > 0 {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-tick:
			w.runResolve()
		case <-w.resolve:
			w.runResolve()
		case <-w.shut:
			w.evHandler("worker: consensusOperations: received shut signal")
			return
		}
	}
}

// runResolve performs one consensus run that is cancelled if the node
// is shut down.
func (w *Worker) runResolve() {
	replaced, chain, err := w.state.Resolve(w.state.ShutdownContext())
	if err != nil {
		w.evHandler("worker: runResolve: ERROR: %s", err)
		return
	}

	w.evHandler("worker: runResolve: replaced[%v] length[%d]", replaced, len(chain))
}
