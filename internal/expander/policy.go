package expander

// Action is the decision taken before every expansion attempt.
type Action int

const (
	Continue Action = iota
	Stop
	GiveUp
)

func (a Action) String() string {
	switch a {
	case Continue:
		return "continue"
	case Stop:
		return "stop"
	case GiveUp:
		return "give_up"
	default:
		return "unknown"
	}
}

const (
	// DefaultMaxMisses is how many consecutive failed locates end the loop.
	DefaultMaxMisses = 3
	// extraAttempts is the slack over the click budget for failed locates.
	extraAttempts = 3
)

// State carries the retry counters of one expansion run.
type State struct {
	Attempts    int
	Clicks      int
	Misses      int
	MaxAttempts int
	MaxClicks   int
	MaxMisses   int
	// Done is set when the loop already knows there is nothing left to reveal.
	Done bool
}

func NewState(maxClicks int) State {
	if maxClicks < 0 {
		maxClicks = 0
	}
	return State{
		MaxAttempts: maxClicks + extraAttempts,
		MaxClicks:   maxClicks,
		MaxMisses:   DefaultMaxMisses,
	}
}

// NextAction decides whether another attempt is allowed.
func NextAction(s State) Action {
	switch {
	case s.Done:
		return Stop
	case s.Clicks >= s.MaxClicks:
		return Stop
	case s.Misses >= s.MaxMisses:
		return GiveUp
	case s.Attempts >= s.MaxAttempts:
		return GiveUp
	default:
		return Continue
	}
}
