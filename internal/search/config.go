package search

// Mode selects how candidate moves are scored.
type Mode int

const (
	// ModeHeuristic scores each move on its own: capture value, center and
	// development bonuses, and random jitter.
	ModeHeuristic Mode = iota
	// ModeMinimax runs a depth-limited alpha-beta search.
	ModeMinimax
)

func (m Mode) String() string {
	if m == ModeMinimax {
		return "minimax"
	}
	return "heuristic"
}

const (
	MinDifficulty = 0
	MaxDifficulty = 20

	// minimaxThreshold is the lowest difficulty that searches ahead.
	minimaxThreshold = 13
)

// Config holds the tunable search parameters. The numbers are empirical and
// may be overridden; nothing depends on their exact values.
type Config struct {
	Difficulty int
	Mode       Mode

	// Minimax.
	Depth   int
	MoveCap int

	// Heuristic. CaptureWeight is a percentage applied to the captured
	// piece's value.
	CaptureWeight int
	CenterBonus   int
	DevelopBonus  int
	Jitter        int
}

// ConfigForDifficulty maps a 0..20 difficulty onto search parameters.
// Out-of-range values are clamped.
//
//	0..5    heuristic, jitter swamps everything (near-random play)
//	6..12   heuristic, prefers captures and central development
//	13..16  minimax depth 2
//	17..20  minimax depth 3
func ConfigForDifficulty(d int) Config {
	if d < MinDifficulty {
		d = MinDifficulty
	}
	if d > MaxDifficulty {
		d = MaxDifficulty
	}
	switch {
	case d <= 5:
		return Config{
			Difficulty:    d,
			Mode:          ModeHeuristic,
			CaptureWeight: 25,
			CenterBonus:   10,
			DevelopBonus:  10,
			Jitter:        1000 - d*100,
		}
	case d < minimaxThreshold:
		return Config{
			Difficulty:    d,
			Mode:          ModeHeuristic,
			CaptureWeight: 100,
			CenterBonus:   50,
			DevelopBonus:  30,
			Jitter:        100 - (d-6)*10,
		}
	case d <= 16:
		return Config{Difficulty: d, Mode: ModeMinimax, Depth: 2, MoveCap: 30}
	default:
		return Config{Difficulty: d, Mode: ModeMinimax, Depth: 3, MoveCap: 20}
	}
}

func (c Config) withDefaults() Config {
	if c.Mode == ModeMinimax {
		if c.Depth < 1 {
			c.Depth = 2
		}
		if c.MoveCap <= 0 {
			c.MoveCap = 30
		}
	}
	if c.Jitter < 0 {
		c.Jitter = 0
	}
	return c
}
