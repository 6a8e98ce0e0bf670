package vsm

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/vsm/pkg/clock"
	"github.com/aretw0/vsm/pkg/domain"
)

// Runner drives a Machine from line-based commands using provided IO.
// This allows for easy testing and integration with different frontends (CLI, scripts).
//
// Commands:
//
//	trigger <id>        fire a transition by ID
//	label <label>       fire a transition by label
//	state <id>          fire a transition into a state
//	force <id>          enter a state without a transition
//	tick [n] [step]     run n updates, optionally changing the clock step
//	pause | resume | restart | status | help | quit
type Runner struct {
	Input    io.Reader
	Output   io.Writer
	Headless bool

	// Clock is advanced by the tick command. It must be the clock the
	// machine was created with for timed transitions to progress.
	Clock *clock.Manual
}

// NewRunner creates a Runner over the given IO.
func NewRunner(in io.Reader, out io.Writer, clk *clock.Manual) *Runner {
	return &Runner{
		Input:  in,
		Output: out,
		Clock:  clk,
	}
}

// Run executes commands until EOF or quit. The machine is started first.
func (r *Runner) Run(m *Machine) error {
	if r.Input == nil {
		return errors.New("input reader must be set (use os.Stdin)")
	}
	if r.Output == nil {
		return errors.New("output writer must be set (use os.Stdout)")
	}
	if r.Clock == nil {
		r.Clock = clock.NewManual(time.Second / 60)
	}
	lineReader := bufio.NewReader(r.Input)
	w := r.Output

	domain.LifecycleHooks{
		OnTriggerTransition: func(t *domain.Transition) { fmt.Fprintf(w, "  trigger %s\n", t.ID) },
		OnExitState:         func(s *domain.State) { fmt.Fprintf(w, "  exit %s\n", s.ID) },
		OnEnterTransition:   func(t *domain.Transition) { fmt.Fprintf(w, "  begin %s\n", t.ID) },
		OnExitTransition:    func(t *domain.Transition) { fmt.Fprintf(w, "  end %s\n", t.ID) },
		OnEnterState:        func(s *domain.State) { fmt.Fprintf(w, "  enter %s\n", s.ID) },
	}.Register(m.Callbacks())

	if !r.Headless {
		fmt.Fprintln(w, "--- vsm runner (type 'help') ---")
	}
	if !m.Start() {
		return fmt.Errorf("entry state %q does not resolve", m.EntryState())
	}

	for {
		if !r.Headless {
			fmt.Fprintf(w, "[%s]> ", r.prompt(m))
		}
		text, err := lineReader.ReadString('\n')
		line := strings.TrimSpace(text)
		if line != "" {
			if quit := r.exec(m, line); quit {
				return nil
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("input error: %w", err)
		}
	}
}

func (r *Runner) prompt(m *Machine) string {
	p := m.CurrentState()
	if m.IsTransitioning() {
		p += "*"
	}
	if m.IsPaused() {
		p += " paused"
	}
	return p
}

// exec runs one command and reports whether the runner should stop.
func (r *Runner) exec(m *Machine, line string) bool {
	w := r.Output
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	arg := func() (string, bool) {
		if len(args) != 1 {
			fmt.Fprintf(w, "usage: %s <id>\n", cmd)
			return "", false
		}
		return args[0], true
	}
	report := func(ok bool) {
		if !ok {
			fmt.Fprintln(w, "rejected")
		}
	}

	switch cmd {
	case "quit", "exit":
		if !r.Headless {
			fmt.Fprintln(w, "Bye!")
		}
		return true
	case "trigger", "t":
		if id, ok := arg(); ok {
			report(m.TryTrigger(id))
		}
	case "label", "l":
		if label, ok := arg(); ok {
			report(m.TryTriggerByLabel(label))
		}
	case "state", "s":
		if id, ok := arg(); ok {
			report(m.TryTriggerByState(id))
		}
	case "force":
		if id, ok := arg(); ok {
			report(m.ForceEnterState(id))
		}
	case "pause":
		m.Pause()
	case "resume":
		m.Resume()
	case "restart":
		report(m.Restart())
	case "tick":
		r.tick(m, args)
	case "status":
		r.status(m)
	case "help", "?":
		fmt.Fprintln(w, "commands: trigger <id>, label <l>, state <id>, force <id>, tick [n] [step], pause, resume, restart, status, quit")
	default:
		fmt.Fprintf(w, "unknown command %q\n", cmd)
	}
	return false
}

func (r *Runner) tick(m *Machine, args []string) {
	n := 1
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v < 1 {
			fmt.Fprintf(r.Output, "invalid tick count %q\n", args[0])
			return
		}
		n = v
	}
	if len(args) > 1 {
		step, err := time.ParseDuration(args[1])
		if err != nil || step < 0 {
			fmt.Fprintf(r.Output, "invalid step %q\n", args[1])
			return
		}
		r.Clock.Set(step, step)
	}
	for i := 0; i < n; i++ {
		m.Update()
	}
}

func (r *Runner) status(m *Machine) {
	s := m.Snapshot()
	fmt.Fprintf(r.Output, "current=%s previous=%s paused=%t", s.Current, s.Previous, s.Paused)
	if s.Transitioning() {
		fmt.Fprintf(r.Output, " transition=%s %s/%s", s.Transition, s.Elapsed, s.Duration)
	}
	fmt.Fprintln(r.Output)
}
