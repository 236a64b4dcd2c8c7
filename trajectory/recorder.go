package trajectory

import (
	"errors"

	"github.com/katalvlaran/trajstat/qstate"
)

// ErrNilObservable is returned by NewRecorder when an observable has no
// callback attached.
var ErrNilObservable = errors.New("trajectory: observable callback is nil")

// Observable names one scalar quantity recorded at every time point.
// F receives the time and the (read-only) state and returns the value.
type Observable struct {
	Key string
	F   func(t float64, s qstate.State) float64
}

// triBool distinguishes "unset" from explicit on/off, so that defaults can
// depend on the observable set (state storing defaults on exactly when no
// observables are registered).
type triBool int

const (
	triUnset triBool = iota
	triOn
	triOff
)

// Recorder defaults (single source of truth).
const (
	// DefaultRecorderFinalState controls final-snapshot capture.
	DefaultRecorderFinalState = false
)

// RecorderOption mutates recorder configuration. Safe to apply repeatedly;
// last-writer-wins.
type RecorderOption func(*recorderOptions)

type recorderOptions struct {
	storeStates triBool // triUnset ⇒ on iff no observables
	storeFinal  bool    // DefaultRecorderFinalState
}

// WithRecorderStates captures a state snapshot at every Add.
func WithRecorderStates() RecorderOption {
	return func(o *recorderOptions) { o.storeStates = triOn }
}

// WithoutRecorderStates suppresses state capture even when no observables
// are registered.
func WithoutRecorderStates() RecorderOption {
	return func(o *recorderOptions) { o.storeStates = triOff }
}

// WithRecorderFinalState captures the last state seen by Add.
func WithRecorderFinalState() RecorderOption {
	return func(o *recorderOptions) { o.storeFinal = true }
}

// Recorder accumulates one solver run step by step and packages it as a
// Trajectory. Concerns compose as an append-only list of step processors
// configured once at construction — the same idiom the ensemble pipeline
// uses per trajectory.
type Recorder struct {
	obs    []Observable
	times  []float64
	expect [][]float64
	states []qstate.State
	final  qstate.State

	collapses []CollapseEvent
	trace     []float64

	procs []func(t float64, s qstate.State)
}

// NewRecorder builds a recorder for the given observable set.
// State capture defaults on exactly when obs is empty (a run that records
// nothing would be useless); override with WithoutRecorderStates.
//
// Errors:
//   - ErrNilObservable when any observable lacks a callback.
func NewRecorder(obs []Observable, opts ...RecorderOption) (*Recorder, error) {
	cfg := recorderOptions{storeFinal: DefaultRecorderFinalState}
	for _, set := range opts {
		set(&cfg)
	}

	r := &Recorder{
		obs:    append([]Observable(nil), obs...),
		expect: make([][]float64, len(obs)),
	}
	for i := range r.obs {
		if r.obs[i].F == nil {
			return nil, ErrNilObservable
		}
		idx := i
		f := r.obs[i].F
		r.procs = append(r.procs, func(t float64, s qstate.State) {
			r.expect[idx] = append(r.expect[idx], f(t, s))
		})
	}

	storeStates := cfg.storeStates == triOn ||
		(cfg.storeStates == triUnset && len(obs) == 0)
	if storeStates {
		r.procs = append(r.procs, func(_ float64, s qstate.State) {
			r.states = append(r.states, s)
		})
	}
	if storeStates || cfg.storeFinal {
		r.procs = append(r.procs, func(_ float64, s qstate.State) {
			r.final = s
		})
	}

	return r, nil
}

// Add records one evolution step: the time is appended and every registered
// processor runs in registration order. Processors must never mutate the
// supplied state.
func (r *Recorder) Add(t float64, s qstate.State) {
	r.times = append(r.times, t)
	for _, p := range r.procs {
		p(t, s)
	}
}

// AddCollapse records a discrete jump event (collapse solvers only).
func (r *Recorder) AddCollapse(t float64, channel int) {
	r.collapses = append(r.collapses, CollapseEvent{Time: t, Channel: channel})
}

// AddTrace records the martingale correction factor for the current step
// (non-Markovian solvers only). Call once per Add, in step order.
func (r *Recorder) AddTrace(mu float64) {
	r.trace = append(r.trace, mu)
}

// Finish packages the recording as a Trajectory tagged with seed.
// The recorder hands over its buffers; it must not be reused afterwards.
func (r *Recorder) Finish(seed Seed) *Trajectory {
	return &Trajectory{
		Times:      r.times,
		States:     r.states,
		FinalState: r.final,
		Expect:     r.expect,
		Seed:       seed,
		Collapses:  r.collapses,
		Trace:      r.trace,
	}
}
