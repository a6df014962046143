package robot

import "fmt"

// Event is a transition imposed on a robot from outside its own Step.
type Event uint8

const (
	// ForceRecall teleports an exhausted robot home at half charge and parks it.
	ForceRecall Event = iota + 1
	// Recall orders the robot home for mission completion.
	Recall
	// Resume wakes an Idle robot that was not recalled.
	Resume
	// Docked completes an arrival at home after cargo and knowledge were exchanged.
	Docked
)

var eventNames = [...]string{
	ForceRecall: "ForceRecall",
	Recall:      "Recall",
	Resume:      "Resume",
	Docked:      "Docked",
}

func (e Event) String() string {
	if int(e) < len(eventNames) && eventNames[e] != "" {
		return eventNames[e]
	}
	return fmt.Sprintf("Event(%d)", uint8(e))
}

type Transition struct {
	Event Event
	From  Mode
	To    Mode
}

func (t Transition) Changed() bool { return t.From != t.To }

// Apply feeds ev into the state machine at tick.
func (r *Robot) Apply(ev Event, tick uint64) Transition {
	tr := Transition{Event: ev, From: r.Mode}
	switch ev {
	case ForceRecall:
		r.Pos = r.Home
		r.Energy = r.MaxEnergy / 2
		r.sinceDock = 0
		r.park(tick)
	case Recall:
		r.recalled = true
		r.Mode = ReturnToStation
	case Resume:
		if r.Mode == Idle && !r.recalled {
			r.Mode = Exploring
		}
	case Docked:
		r.Energy = r.MaxEnergy
		r.sinceDock = 0
		if r.recalled {
			r.park(tick)
		} else {
			r.Mode = Exploring
		}
	}
	tr.To = r.Mode
	return tr
}

func (r *Robot) park(tick uint64) {
	if r.Mode != Idle {
		r.idleSince = tick
	}
	r.Mode = Idle
}
