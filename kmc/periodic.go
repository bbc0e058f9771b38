package kmc

import (
	"github.com/jjramsey/kmcthinfilm-go/kmcerr"
	"github.com/jjramsey/kmcthinfilm-go/lattice"
	"github.com/jjramsey/kmcthinfilm-go/simstate"
)

// PeriodicActionFunc is a callback run on a time or step cadence
// rather than in response to a sampled event (spec §4.G "Periodic
// actions"). It may write to lat; whether those writes are
// reconciled incrementally or by a full rebuild is controlled by
// Simulation.SetTrackCellsChangedByPeriodicActions.
type PeriodicActionFunc func(state *simstate.State, lat *lattice.Lattice)

type timePeriodicAction struct {
	id         int
	period     float64
	nextDue    float64
	doAtSimEnd bool
	active     bool
	fn         PeriodicActionFunc
}

type stepPeriodicAction struct {
	id         int
	period     int64
	nextDue    int64
	doAtSimEnd bool
	active     bool
	fn         PeriodicActionFunc
}

// AddTimePeriodicAction registers fn to run every period simulated
// time units, starting once ElapsedTime first reaches period. If
// doAtSimEnd is true, fn also runs once more, unconditionally, at the
// end of the current Run call regardless of whether it was next due.
func (s *Simulation) AddTimePeriodicAction(id int, period float64, doAtSimEnd bool, fn PeriodicActionFunc) {
	kmcerr.ExitIf(period <= 0, "kmc: time-periodic action period must be positive")
	_, exists := s.timePeriodicByID(id)
	kmcerr.ExitIff(exists, "kmc: time-periodic action %d already registered", id)
	s.timePeriodic = append(s.timePeriodic, &timePeriodicAction{
		id: id, period: period, nextDue: period, doAtSimEnd: doAtSimEnd, active: true, fn: fn,
	})
}

// ChangeTimePeriodicAction replaces an already-registered time-periodic
// action's cadence and callback, preserving its next-due schedule.
func (s *Simulation) ChangeTimePeriodicAction(id int, period float64, doAtSimEnd bool, fn PeriodicActionFunc) {
	a := s.mustTimePeriodic(id)
	a.period, a.doAtSimEnd, a.fn = period, doAtSimEnd, fn
}

// RemoveTimePeriodicAction deactivates a registered time-periodic action.
func (s *Simulation) RemoveTimePeriodicAction(id int) {
	s.mustTimePeriodic(id).active = false
}

// AddStepPeriodicAction registers fn to run every period outer-loop
// quanta (spec §5 "num_global_steps"), starting once NumGlobalSteps
// first reaches period.
func (s *Simulation) AddStepPeriodicAction(id int, period int64, doAtSimEnd bool, fn PeriodicActionFunc) {
	kmcerr.ExitIf(period <= 0, "kmc: step-periodic action period must be positive")
	_, exists := s.stepPeriodicByID(id)
	kmcerr.ExitIff(exists, "kmc: step-periodic action %d already registered", id)
	s.stepPeriodic = append(s.stepPeriodic, &stepPeriodicAction{
		id: id, period: period, nextDue: period, doAtSimEnd: doAtSimEnd, active: true, fn: fn,
	})
}

// ChangeStepPeriodicAction replaces an already-registered
// step-periodic action's cadence and callback.
func (s *Simulation) ChangeStepPeriodicAction(id int, period int64, doAtSimEnd bool, fn PeriodicActionFunc) {
	a := s.mustStepPeriodic(id)
	a.period, a.doAtSimEnd, a.fn = period, doAtSimEnd, fn
}

// RemoveStepPeriodicAction deactivates a registered step-periodic action.
func (s *Simulation) RemoveStepPeriodicAction(id int) {
	s.mustStepPeriodic(id).active = false
}

func (s *Simulation) timePeriodicByID(id int) (*timePeriodicAction, bool) {
	for _, a := range s.timePeriodic {
		if a.id == id {
			return a, true
		}
	}
	return nil, false
}

func (s *Simulation) mustTimePeriodic(id int) *timePeriodicAction {
	a, ok := s.timePeriodicByID(id)
	kmcerr.ExitIff(!ok, "kmc: time-periodic action %d not registered", id)
	return a
}

func (s *Simulation) stepPeriodicByID(id int) (*stepPeriodicAction, bool) {
	for _, a := range s.stepPeriodic {
		if a.id == id {
			return a, true
		}
	}
	return nil, false
}

func (s *Simulation) mustStepPeriodic(id int) *stepPeriodicAction {
	a, ok := s.stepPeriodicByID(id)
	kmcerr.ExitIff(!ok, "kmc: step-periodic action %d not registered", id)
	return a
}

// runPeriodicActions fires every due action (repeatedly, to catch up
// if more than one period has elapsed since the last check), then
// reconciles any lattice writes they made per
// updateEventAndAddrMapsAfterPeriodicActionsWTrack_/NoTrack_ (spec §9
// Open Question #1).
func (s *Simulation) runPeriodicActions() error {
	if s.trackChangedByPeriodic {
		s.lat.SetTrackType(lattice.ChangedSet)
	} else {
		s.lat.SetTrackType(lattice.NONE)
	}

	firedTime := s.fireDueTimeActions()
	firedStep := s.fireDueStepActions()
	if !firedTime && !firedStep {
		s.lat.SetTrackType(lattice.ChangedSet)
		return nil
	}
	return s.reconcileAfterPeriodicActions()
}

func (s *Simulation) fireDueTimeActions() bool {
	fired := false
	for _, a := range s.timePeriodic {
		if !a.active {
			continue
		}
		for s.state.ElapsedTime >= a.nextDue {
			a.fn(&s.state, s.lat)
			a.nextDue += a.period
			fired = true
		}
	}
	return fired
}

func (s *Simulation) fireDueStepActions() bool {
	fired := false
	for _, a := range s.stepPeriodic {
		if !a.active {
			continue
		}
		for s.state.NumGlobalSteps >= a.nextDue {
			a.fn(&s.state, s.lat)
			a.nextDue += a.period
			fired = true
		}
	}
	return fired
}

// runEndOfSimPeriodicActions fires every doAtSimEnd action
// unconditionally once, after the main loop exits.
func (s *Simulation) runEndOfSimPeriodicActions() error {
	if s.trackChangedByPeriodic {
		s.lat.SetTrackType(lattice.ChangedSet)
	} else {
		s.lat.SetTrackType(lattice.NONE)
	}

	fired := false
	for _, a := range s.timePeriodic {
		if a.active && a.doAtSimEnd {
			a.fn(&s.state, s.lat)
			fired = true
		}
	}
	for _, a := range s.stepPeriodic {
		if a.active && a.doAtSimEnd {
			a.fn(&s.state, s.lat)
			fired = true
		}
	}
	if !fired {
		s.lat.SetTrackType(lattice.ChangedSet)
		return nil
	}
	return s.reconcileAfterPeriodicActions()
}

func (s *Simulation) reconcileAfterPeriodicActions() error {
	if s.trackChangedByPeriodic {
		s.reconcileChanges()
		return nil
	}
	return s.rebuildEventAndAddrMaps()
}
