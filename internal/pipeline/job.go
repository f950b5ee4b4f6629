package pipeline

import (
	"errors"
	"fmt"
)

// State is the lifecycle stage of a conversion job.
type State int

const (
	Idle State = iota
	Selected
	Converting
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Selected:
		return "selected"
	case Converting:
		return "converting"
	case Done:
		return "done"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Terminal reports whether s ends a conversion.
func (s State) Terminal() bool { return s == Done || s == Failed }

// ErrBadTransition is returned for a state change the lifecycle forbids.
var ErrBadTransition = errors.New("pipeline: invalid job state transition")

// transitions lists the states reachable from each state. A finished job
// may be selected again to convert the same source once more.
var transitions = map[State][]State{
	Idle:       {Selected},
	Selected:   {Converting, Failed},
	Converting: {Done, Failed},
	Done:       {Selected},
	Failed:     {Selected},
}

// Progress phases reported while converting.
const (
	PercentSelected = 0
	PercentDecoded  = 40
	PercentEncoded  = 90
	PercentWritten  = 100
)

// ProgressEvent is delivered to Config.OnProgress on every state change
// and phase boundary.
type ProgressEvent struct {
	Key     string
	State   State
	Percent int
	Err     error
}

// Job tracks a single source through Idle → Selected → Converting →
// Done | Failed. A Job is owned by one goroutine at a time.
type Job struct {
	Source Source

	state   State
	percent int
	err     error
	notify  func(ProgressEvent)
}

// NewJob returns an idle job for src. notify may be nil.
func NewJob(src Source, notify func(ProgressEvent)) *Job {
	return &Job{Source: src, notify: notify}
}

func (j *Job) State() State { return j.state }
func (j *Job) Percent() int { return j.percent }
func (j *Job) Err() error   { return j.err }

// To moves the job to next, or returns ErrBadTransition.
func (j *Job) To(next State) error {
	for _, s := range transitions[j.state] {
		if s == next {
			j.state = next
			switch next {
			case Selected:
				j.percent = PercentSelected
				j.err = nil
			case Done:
				j.percent = PercentWritten
			}
			j.emit()
			return nil
		}
	}
	return fmt.Errorf("%w: %s → %s", ErrBadTransition, j.state, next)
}

// Progress records a phase boundary while converting. Percent never
// decreases.
func (j *Job) Progress(percent int) {
	if j.state != Converting || percent <= j.percent {
		return
	}
	j.percent = min(percent, PercentWritten)
	j.emit()
}

// Fail moves the job to Failed with err.
func (j *Job) Fail(err error) error {
	prev := j.err
	j.err = err
	if terr := j.To(Failed); terr != nil {
		j.err = prev
		return terr
	}
	return nil
}

func (j *Job) emit() {
	if j.notify != nil {
		j.notify(ProgressEvent{
			Key:     j.Source.Key,
			State:   j.state,
			Percent: j.percent,
			Err:     j.err,
		})
	}
}
