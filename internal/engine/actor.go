package engine

import (
	"time"

	"github.com/san-kum/orrery/internal/body"
	"github.com/san-kum/orrery/internal/publish"
)

// actor owns one body. state is only touched by the actor's goroutine once
// Start has been called.
type actor struct {
	idx   int
	name  string
	state body.State
	box   *mailbox
	eng   *Engine
}

func (a *actor) run() {
	defer a.eng.wg.Done()

	var batch []body.Message
	for {
		select {
		case <-a.eng.quit:
			return
		case <-a.box.wake:
		}

		batch = a.box.drain(batch)
		for _, msg := range batch {
			a.receive(msg)
		}
	}
}

func (a *actor) receive(msg body.Message) {
	e := a.eng
	if e.jitter != nil {
		if d := e.jitter(); d > 0 {
			time.Sleep(d)
		}
	}

	next, eff := body.Handle(a.state, msg)
	a.state = next

	if e.trace != nil {
		e.trace(Delivery{Tick: msg.Tick, Kind: msg.Kind, To: a.name})
	}

	if eff.Reply != nil {
		e.deliver(eff.Reply.To, eff.Reply.Message)
	}

	switch msg.Kind {
	case body.KindComputeForce:
		if !e.forces.ack(msg.Tick) {
			e.log.Warn("stray force acknowledgement", "body", a.name, "tick", msg.Tick)
		}

	case body.KindComputePosition:
		if eff.Moved == nil {
			return
		}
		mv := *eff.Moved
		ev := publish.Event{Name: mv.Name, X: mv.Position.X(), Y: mv.Position.Y(), Tick: mv.Tick}
		if err := e.pub.Publish(ev); err != nil {
			e.log.Warn("publish failed", "body", a.name, "tick", mv.Tick, "err", err)
		}
		e.moves[a.idx] = mv
		e.states[a.idx] = a.state
		e.positions.ack(msg.Tick)
	}
}
