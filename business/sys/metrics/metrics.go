// Package metrics constructs the metrics the application will track.
package metrics

import (
	"expvar"
	"runtime"
)

// m holds the single instance of the metrics value since expvar
// registers every metric as a package level singleton.
var m *metrics

// metrics represents the set of metrics we gather. The expvar values are
// safe for concurrent use.
type metrics struct {
	goroutines *expvar.Int
	requests   *expvar.Int
	errors     *expvar.Int
	panics     *expvar.Int
	mined      *expvar.Int
	replaced   *expvar.Int
}

// init constructs the metrics value that will be used to capture metrics.
// Registering the same expvar name twice panics, so this only happens here.
func init() {
	m = &metrics{
		goroutines: expvar.NewInt("goroutines"),
		requests:   expvar.NewInt("requests"),
		errors:     expvar.NewInt("errors"),
		panics:     expvar.NewInt("panics"),
		mined:      expvar.NewInt("blocks_mined"),
		replaced:   expvar.NewInt("chains_replaced"),
	}
}

// AddGoroutines refreshes the goroutine metric every 100 requests.
func AddGoroutines() {
	if m.requests.Value()%100 == 0 {
		m.goroutines.Set(int64(runtime.NumGoroutine()))
	}
}

// AddRequests increments the request metric by 1.
func AddRequests() int64 {
	m.requests.Add(1)
	return m.requests.Value()
}

// AddErrors increments the errors metric by 1.
func AddErrors() {
	m.errors.Add(1)
}

// AddPanics increments the panics metric by 1.
func AddPanics() {
	m.panics.Add(1)
}

// AddBlocksMined increments the mined blocks metric by 1.
func AddBlocksMined() {
	m.mined.Add(1)
}

// AddChainsReplaced increments the replaced chains metric by 1.
func AddChainsReplaced() {
	m.replaced.Add(1)
}
