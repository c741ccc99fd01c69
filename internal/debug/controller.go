package debug

// controller.go implements the engine loop: one goroutine owns the machine, stepping it while a
// run is active, and a set of buffered channels carry commands onto that goroutine from whatever
// front-end (a TTY, a test) is driving it.

import (
	"errors"
	"fmt"
	"sync"

	"github.com/nwatson/lc3/internal/asm"
	"github.com/nwatson/lc3/internal/log"
	"github.com/nwatson/lc3/internal/vm"
)

// Snapshot is a point-in-time, race-free copy of the state a front-end cares about.
type Snapshot struct {
	PC              uint16
	COND            vm.Condition
	REG             vm.RegisterFile
	Halted          bool
	WaitingForInput bool
	Running         bool
}

type loadReq struct {
	obj   vm.ObjectCode
	reply chan error
}

type stepReq struct {
	reply chan error
}

type snapshotReq struct {
	reply chan Snapshot
}

type outputReq struct {
	reply chan []byte
}

type peekReq struct {
	addr  uint16
	reply chan peekReply
}

type peekReply struct {
	word vm.Word
	err  error
}

// Controller runs a machine's fetch-decode-execute cycle on a dedicated goroutine and exposes the
// run/step/stop/reset/breakpoint/feed-input surface a front-end uses to drive it.
type Controller struct {
	machine *vm.LC3
	log     *log.Logger

	loadCh     chan loadReq
	runCh      chan struct{}
	stepCh     chan stepReq
	stopCh     chan struct{}
	resetCh    chan struct{}
	feedCh     chan byte
	snapshotCh chan snapshotReq
	outputCh   chan outputReq
	peekCh     chan peekReq

	events chan Event
	done   chan struct{}

	breakMu     sync.Mutex
	breakpoints map[uint16]struct{}
	bypassNext  bool

	running bool
	outBuf  []byte
}

// New creates a controller for machine and starts its engine goroutine. Close stops the goroutine.
func New(machine *vm.LC3, logger *log.Logger) *Controller {
	if logger == nil {
		logger = log.DefaultLogger()
	}

	ctl := &Controller{
		machine: machine,
		log:     logger,

		loadCh:     make(chan loadReq),
		runCh:      make(chan struct{}, 1),
		stepCh:     make(chan stepReq),
		stopCh:     make(chan struct{}, 1),
		resetCh:    make(chan struct{}),
		feedCh:     make(chan byte, 16),
		snapshotCh: make(chan snapshotReq),
		outputCh:   make(chan outputReq),
		peekCh:     make(chan peekReq),

		events:      make(chan Event, 16),
		done:        make(chan struct{}),
		breakpoints: make(map[uint16]struct{}),
	}

	go ctl.loop()

	return ctl
}

// Events returns the channel on which the controller reports state changes.
func (ctl *Controller) Events() <-chan Event { return ctl.events }

// Close stops the engine goroutine. The controller must not be used afterward.
func (ctl *Controller) Close() { close(ctl.done) }

// Load resets the machine and installs obj, blocking until the engine goroutine has done so.
func (ctl *Controller) Load(obj vm.ObjectCode) error {
	reply := make(chan error, 1)
	ctl.loadCh <- loadReq{obj: obj, reply: reply}

	return <-reply
}

// Run starts (or resumes) the engine loop. It does not block; progress is reported over Events.
func (ctl *Controller) Run() {
	select {
	case ctl.runCh <- struct{}{}:
	default:
	}
}

// Step executes exactly one instruction, bypassing the breakpoint check, and blocks until it has
// run.
func (ctl *Controller) Step() error {
	reply := make(chan error, 1)
	ctl.stepCh <- stepReq{reply: reply}

	return <-reply
}

// Stop requests that an in-progress Run halt after the instruction in flight completes.
func (ctl *Controller) Stop() {
	select {
	case ctl.stopCh <- struct{}{}:
	default:
	}
}

// Reset returns the machine to its initial state and blocks until done. Breakpoints are untouched.
func (ctl *Controller) Reset() {
	ctl.resetCh <- struct{}{}
}

// FeedInput delivers one byte of keyboard input. Per the resume contract, this is accepted even
// when the machine is not currently waiting; it is simply queued for the next GETC/IN.
func (ctl *Controller) FeedInput(b byte) {
	ctl.feedCh <- b
}

// Snapshot returns a race-free copy of the machine's externally visible state.
func (ctl *Controller) Snapshot() Snapshot {
	reply := make(chan Snapshot, 1)
	ctl.snapshotCh <- snapshotReq{reply: reply}

	return <-reply
}

// Output drains and returns any bytes the machine has written since the last call.
func (ctl *Controller) Output() []byte {
	reply := make(chan []byte, 1)
	ctl.outputCh <- outputReq{reply: reply}

	return <-reply
}

// PeekMemory reads one word of the machine's memory, for a front-end that wants to show the
// instruction at an address. Reading RAM has no side effects; reading the keyboard data register
// consumes the queued key, as any read of it does (see [github.com/nwatson/lc3/internal/asm.Disassemble]).
func (ctl *Controller) PeekMemory(addr uint16) (vm.Word, error) {
	reply := make(chan peekReply, 1)
	ctl.peekCh <- peekReq{addr: addr, reply: reply}

	r := <-reply

	return r.word, r.err
}

// AddBreakpoint adds addr to the breakpoint set. Edits are atomic at the set level, guarded by a
// mutex the engine loop also takes when checking the current PC.
func (ctl *Controller) AddBreakpoint(addr uint16) {
	ctl.breakMu.Lock()
	ctl.breakpoints[addr] = struct{}{}
	ctl.breakMu.Unlock()
}

// RemoveBreakpoint removes addr from the breakpoint set.
func (ctl *Controller) RemoveBreakpoint(addr uint16) {
	ctl.breakMu.Lock()
	delete(ctl.breakpoints, addr)
	ctl.breakMu.Unlock()
}

func (ctl *Controller) atBreakpoint(addr uint16) bool {
	ctl.breakMu.Lock()
	_, ok := ctl.breakpoints[addr]
	ctl.breakMu.Unlock()

	return ok
}

// loop is the engine goroutine. It owns ctl.machine exclusively: every read or write of machine
// state happens here, never from a caller's goroutine directly.
func (ctl *Controller) loop() {
	for {
		if ctl.running {
			ctl.runOnce()
			continue
		}

		select {
		case req := <-ctl.loadCh:
			ctl.machine.Reset()
			_, err := vm.NewLoader(ctl.machine).Load(req.obj)

			if err == nil {
				ctl.machine.PC = vm.ProgramCounter(req.obj.Orig)
			}

			req.reply <- err
			ctl.notify(StateChanged)

		case <-ctl.runCh:
			ctl.running = true

		case req := <-ctl.stepCh:
			req.reply <- ctl.step()

		case <-ctl.stopCh:
			// Not running; nothing to stop.

		case <-ctl.resetCh:
			ctl.machine.Reset()
			ctl.notify(StateChanged)

		case b := <-ctl.feedCh:
			ctl.machine.Feed(b)
			ctl.notify(StateChanged)

		case req := <-ctl.snapshotCh:
			req.reply <- ctl.snapshot()

		case req := <-ctl.outputCh:
			req.reply <- ctl.drainOutput()

		case req := <-ctl.peekCh:
			word, err := ctl.machine.Mem.Read(vm.Word(req.addr))
			req.reply <- peekReply{word: word, err: err}

		case <-ctl.done:
			return
		}
	}
}

// runOnce executes a single step of the active run and decides whether the loop keeps running. It
// also services any command that arrived while the run was in progress, so a front-end is never
// blocked behind a long-running program.
func (ctl *Controller) runOnce() {
	select {
	case <-ctl.stopCh:
		ctl.running = false
		return
	case req := <-ctl.stepCh:
		ctl.running = false
		req.reply <- ctl.step()
		return
	case req := <-ctl.loadCh:
		ctl.running = false
		ctl.machine.Reset()
		_, err := vm.NewLoader(ctl.machine).Load(req.obj)

		if err == nil {
			ctl.machine.PC = vm.ProgramCounter(req.obj.Orig)
		}

		req.reply <- err
		ctl.notify(StateChanged)
		return
	case <-ctl.resetCh:
		ctl.running = false
		ctl.machine.Reset()
		ctl.notify(StateChanged)
		return
	case b := <-ctl.feedCh:
		ctl.machine.Feed(b)
		ctl.notify(StateChanged)
		return
	case req := <-ctl.snapshotCh:
		req.reply <- ctl.snapshot()
		return
	case req := <-ctl.outputCh:
		req.reply <- ctl.drainOutput()
		return
	case req := <-ctl.peekCh:
		word, err := ctl.machine.Mem.Read(vm.Word(req.addr))
		req.reply <- peekReply{word: word, err: err}
		return
	default:
	}

	bypass := ctl.bypassNext
	ctl.bypassNext = false

	if !bypass && ctl.atBreakpoint(uint16(ctl.machine.PC)) {
		ctl.running = false
		ctl.bypassNext = true

		if word, err := ctl.machine.Mem.Read(vm.Word(ctl.machine.PC)); err == nil {
			ctl.log.Info("breakpoint hit", "pc", fmt.Sprintf("%#x", uint16(ctl.machine.PC)), "instr", asm.Disassemble(word))
		}

		ctl.notify(BreakpointHit)

		return
	}

	if err := ctl.step(); err != nil && !errors.Is(err, vm.ErrHalted) {
		ctl.log.Error("runtime fault", "err", err)
	}

	if ctl.machine.Halted || ctl.machine.WaitingForInput {
		ctl.running = false
	}
}

// step runs the machine one instruction and reports the resulting events. It never consults the
// breakpoint set itself — that check belongs to runOnce, which decides whether to call step at
// all — so a manual, front-end-initiated single step always executes, even at a breakpointed PC.
func (ctl *Controller) step() error {
	ctl.bypassNext = false

	if ctl.machine.Halted {
		return fmt.Errorf("step: %w", vm.ErrHalted)
	}

	err := ctl.machine.Step()

	if out := ctl.machine.Output(); len(out) > 0 {
		ctl.pushOutput(out)
		ctl.notify(OutputAvailable)
	}

	if err != nil && !errors.Is(err, vm.ErrHalted) {
		ctl.machine.Halted = true
	}

	ctl.notify(StateChanged)

	switch {
	case ctl.machine.Halted:
		ctl.notify(Halted)
	case ctl.machine.WaitingForInput:
		ctl.notify(WaitingForInput)
	}

	return err
}

// pushOutput accumulates bytes drained from the machine between a front-end's calls to Output.
// outBuf is only ever touched from the engine goroutine, so it needs no lock of its own.
func (ctl *Controller) pushOutput(b []byte) {
	ctl.outBuf = append(ctl.outBuf, b...)
}

func (ctl *Controller) drainOutput() []byte {
	out := ctl.outBuf
	ctl.outBuf = nil

	return out
}

func (ctl *Controller) snapshot() Snapshot {
	return Snapshot{
		PC:              uint16(ctl.machine.PC),
		COND:            ctl.machine.COND,
		REG:             ctl.machine.REG,
		Halted:          ctl.machine.Halted,
		WaitingForInput: ctl.machine.WaitingForInput,
		Running:         ctl.running,
	}
}

func (ctl *Controller) notify(kind EventKind) {
	evt := Event{Kind: kind, PC: uint16(ctl.machine.PC)}

	select {
	case ctl.events <- evt:
	default:
		// Front-end isn't keeping up; drop rather than block the engine goroutine.
	}
}
