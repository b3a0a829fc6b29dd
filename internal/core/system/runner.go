package system

import (
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Runner executes systems phase by phase. Within a phase, systems whose
// declared access footprints are disjoint run concurrently in batches
// computed once at Plan time. A panicking system is quarantined for the
// rest of the tick: the panic is logged and the batch continues.
type Runner struct {
	systems []System
	batches map[Phase][][]System
	log     *zap.Logger
}

func NewRunner(log *zap.Logger) *Runner {
	return &Runner{
		systems: make([]System, 0, 16),
		log:     log,
	}
}

func (r *Runner) Register(s System) {
	r.systems = append(r.systems, s)
	r.batches = nil
}

// Plan computes the per-phase parallel batches from the declared access
// sets. Greedy in registration order: a system joins the first batch it
// does not conflict with.
func (r *Runner) Plan() {
	r.batches = make(map[Phase][][]System)
	for _, s := range r.systems {
		ph := s.Phase()
		placed := false
		for i, batch := range r.batches[ph] {
			ok := true
			for _, member := range batch {
				if Conflicts(s.Access(), member.Access()) {
					ok = false
					break
				}
			}
			if ok {
				r.batches[ph][i] = append(batch, s)
				placed = true
				break
			}
		}
		if !placed {
			r.batches[ph] = append(r.batches[ph], []System{s})
		}
	}
}

// Tick runs every phase in order.
func (r *Runner) Tick(dt time.Duration) {
	if r.batches == nil {
		r.Plan()
	}
	for ph := PhaseInput; ph <= PhaseCleanup; ph++ {
		r.TickPhase(ph, dt)
	}
}

// TickPhase runs the batches of one phase. Batches run sequentially;
// systems within a batch run concurrently.
func (r *Runner) TickPhase(phase Phase, dt time.Duration) {
	if r.batches == nil {
		r.Plan()
	}
	for _, batch := range r.batches[phase] {
		if len(batch) == 1 {
			r.runOne(batch[0], dt)
			continue
		}
		var g errgroup.Group
		for _, s := range batch {
			s := s
			g.Go(func() error {
				r.runOne(s, dt)
				return nil
			})
		}
		_ = g.Wait()
	}
}

func (r *Runner) runOne(s System, dt time.Duration) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("system panicked, quarantined for this tick",
				zap.String("system", s.Name()),
				zap.Int("phase", int(s.Phase())),
				zap.Any("panic", rec),
			)
		}
	}()
	s.Update(dt)
}
