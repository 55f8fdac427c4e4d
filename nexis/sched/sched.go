// Package sched owns the task table and decides which task runs next.
//
// The ready queue is an explicit FIFO: tasks are appended to the back when
// they become runnable and the scheduler always dispatches the front. All
// methods are called from the kernel step loop only, so the scheduler needs
// no locking and a context switch can never observe partial state.
package sched

import (
	"errors"
	"fmt"

	"ironveil/nexis/machine"
	"ironveil/nexis/mem/pmm"
)

// MaxTasks is the size of the task table.
const MaxTasks = 64

// DefaultQuantum is the time slice in timer ticks.
const DefaultQuantum = 2

var ErrTooManyTasks = errors.New("sched: task table full")

// Pid identifies a task. Zero is never assigned.
type Pid uint32

// State is the lifecycle state of a task slot.
type State uint8

const (
	StateFree State = iota
	StateReady
	StateRunning
	StateBlocked
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateFree:
		return "free"
	case StateReady:
		return "ready"
	case StateRunning:
		return "running"
	case StateBlocked:
		return "blocked"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// BlockReason says what a blocked task is waiting for.
type BlockReason uint8

const (
	BlockNone BlockReason = iota
	BlockKey
	BlockSleep
)

func (r BlockReason) String() string {
	switch r {
	case BlockNone:
		return "none"
	case BlockKey:
		return "key"
	case BlockSleep:
		return "sleep"
	default:
		return "unknown"
	}
}

// Task is one slot of the task table. Ctx is the complete resumption state;
// it is stale while the task is Running and authoritative otherwise. First
// and NFrames record the frame range the task owns so the kernel can
// reclaim it on exit.
type Task struct {
	Pid     Pid
	Parent  Pid
	Name    string
	State   State
	Ctx     machine.Context
	First   pmm.Frame
	NFrames uint32

	Block    BlockReason
	WakeTick uint64
	blockSeq uint64

	ExitCode uint32
}

// Scheduler tracks every task and the FIFO ready queue.
type Scheduler struct {
	tasks   [MaxTasks]Task
	ready   []Pid
	running Pid
	nextPid Pid

	quantum uint32
	slice   uint32

	blockSeq uint64
}

// New returns a scheduler dispatching quantum ticks per slice. A zero
// quantum selects DefaultQuantum.
func New(quantum uint32) *Scheduler {
	if quantum == 0 {
		quantum = DefaultQuantum
	}
	return &Scheduler{nextPid: 1, quantum: quantum}
}

// Quantum returns the configured slice length in ticks.
func (s *Scheduler) Quantum() uint32 { return s.quantum }

// SliceLeft returns the remaining ticks of the running task's slice.
func (s *Scheduler) SliceLeft() uint32 { return s.slice }

func (s *Scheduler) slot(pid Pid) *Task {
	for i := range s.tasks {
		if s.tasks[i].State != StateFree && s.tasks[i].Pid == pid {
			return &s.tasks[i]
		}
	}
	return nil
}

// Get returns the task for pid, or nil.
func (s *Scheduler) Get(pid Pid) *Task { return s.slot(pid) }

// CurrentPid returns the running task's pid, zero when idle.
func (s *Scheduler) CurrentPid() Pid { return s.running }

// Current returns the running task, nil when idle.
func (s *Scheduler) Current() *Task {
	if s.running == 0 {
		return nil
	}
	return s.slot(s.running)
}

// Tasks returns a copy of every occupied slot, terminated ones included.
func (s *Scheduler) Tasks() []Task {
	var out []Task
	for i := range s.tasks {
		if s.tasks[i].State != StateFree {
			out = append(out, s.tasks[i])
		}
	}
	return out
}

// Runnable reports whether any task is running or waiting to run.
func (s *Scheduler) Runnable() bool { return s.running != 0 || len(s.ready) > 0 }

// Spawn enters a new Ready task into the table. The caller has already
// loaded the program image and built its initial context. Free slots are
// preferred; otherwise the oldest terminated slot is recycled.
func (s *Scheduler) Spawn(name string, parent Pid, ctx machine.Context, first pmm.Frame, nframes uint32) (Pid, error) {
	var slot *Task
	for i := range s.tasks {
		if s.tasks[i].State == StateFree {
			slot = &s.tasks[i]
			break
		}
	}
	if slot == nil {
		for i := range s.tasks {
			if s.tasks[i].State == StateTerminated {
				slot = &s.tasks[i]
				break
			}
		}
	}
	if slot == nil {
		return 0, ErrTooManyTasks
	}
	pid := s.nextPid
	s.nextPid++
	*slot = Task{
		Pid:     pid,
		Parent:  parent,
		Name:    name,
		State:   StateReady,
		Ctx:     ctx,
		First:   first,
		NFrames: nframes,
	}
	s.ready = append(s.ready, pid)
	return pid, nil
}

// Next pops the front of the ready queue and makes it Running with a fresh
// slice. It reports false when the queue is empty and the kernel should
// idle. Any previous running task must already have been parked.
func (s *Scheduler) Next() (Pid, bool) {
	for len(s.ready) > 0 {
		pid := s.ready[0]
		s.ready = s.ready[1:]
		t := s.slot(pid)
		if t == nil || t.State != StateReady {
			continue
		}
		t.State = StateRunning
		s.running = pid
		s.slice = s.quantum
		return pid, true
	}
	return 0, false
}

// TimerTick burns one tick of the running slice and reports whether it is
// exhausted. Idle ticks report false.
func (s *Scheduler) TimerTick() bool {
	if s.running == 0 {
		return false
	}
	if s.slice > 0 {
		s.slice--
	}
	return s.slice == 0
}

// YieldCurrent parks the running task at the back of the ready queue.
func (s *Scheduler) YieldCurrent() {
	t := s.Current()
	if t == nil {
		return
	}
	t.State = StateReady
	s.ready = append(s.ready, t.Pid)
	s.running = 0
}

// BlockCurrent parks the running task as Blocked. For sleep waits wakeTick
// is the absolute tick to wake at; key waits are woken in block order.
func (s *Scheduler) BlockCurrent(reason BlockReason, wakeTick uint64) {
	t := s.Current()
	if t == nil {
		return
	}
	t.State = StateBlocked
	t.Block = reason
	t.WakeTick = wakeTick
	s.blockSeq++
	t.blockSeq = s.blockSeq
	s.running = 0
}

// Unblock moves a blocked task to the back of the ready queue. Unblocking
// a task in any other state is ignored.
func (s *Scheduler) Unblock(pid Pid) bool {
	t := s.slot(pid)
	if t == nil || t.State != StateBlocked {
		return false
	}
	t.State = StateReady
	t.Block = BlockNone
	t.WakeTick = 0
	s.ready = append(s.ready, pid)
	return true
}

// WakeSleepers readies every sleeper whose wake tick has arrived.
func (s *Scheduler) WakeSleepers(now uint64) int {
	var woken int
	for i := range s.tasks {
		t := &s.tasks[i]
		if t.State != StateBlocked || t.Block != BlockSleep || t.WakeTick > now {
			continue
		}
		if s.Unblock(t.Pid) {
			woken++
		}
	}
	return woken
}

// FirstKeyWaiter returns the key-blocked task that has waited longest.
func (s *Scheduler) FirstKeyWaiter() (Pid, bool) {
	var (
		best    *Task
		bestSeq uint64
	)
	for i := range s.tasks {
		t := &s.tasks[i]
		if t.State != StateBlocked || t.Block != BlockKey {
			continue
		}
		if best == nil || t.blockSeq < bestSeq {
			best = t
			bestSeq = t.blockSeq
		}
	}
	if best == nil {
		return 0, false
	}
	return best.Pid, true
}

// ExitCurrent retires the running task. The slot stays Terminated and
// visible until reused by a later Spawn.
func (s *Scheduler) ExitCurrent(code uint32) {
	t := s.Current()
	if t == nil {
		return
	}
	t.State = StateTerminated
	t.ExitCode = code
	s.running = 0
}

// Terminate retires a task in any live state, removing it from the ready
// queue if queued. It reports whether a task was terminated.
func (s *Scheduler) Terminate(pid Pid, code uint32) bool {
	t := s.slot(pid)
	if t == nil || t.State == StateTerminated {
		return false
	}
	if t.State == StateRunning {
		s.running = 0
	}
	if t.State == StateReady {
		s.dequeue(pid)
	}
	t.State = StateTerminated
	t.ExitCode = code
	return true
}

func (s *Scheduler) dequeue(pid Pid) {
	for i, p := range s.ready {
		if p == pid {
			s.ready = append(s.ready[:i], s.ready[i+1:]...)
			return
		}
	}
}

func (t *Task) String() string {
	return fmt.Sprintf("pid=%d name=%s state=%s", t.Pid, t.Name, t.State)
}
