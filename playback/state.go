package playback

// State is the sequencer's position in the toggle cycle.
type State int

const (
	Stopped State = iota
	Starting
	Playing
	Stopping
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Starting:
		return "starting"
	case Playing:
		return "playing"
	case Stopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// Settled reports whether no transition is in flight.
func (s State) Settled() bool {
	return s == Stopped || s == Playing
}
