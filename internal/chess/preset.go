package chess

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/park285/cheese-chess/internal/search"
)

// DifficultyPreset bundles everything one difficulty level controls: the
// local search, whether the book and remote sources are consulted, and how
// book candidates are sampled.
type DifficultyPreset struct {
	Name   string
	Level  int
	Search search.Config

	UseBook    bool
	BookMaxPly int
	UseRemote  bool

	// Book sampling: the top PrimaryChoices book moves are drawn with
	// CandidateWeights.
	PrimaryChoices   int
	CandidateWeights []float64

	// Passed to leveled remote sources (UCI Skill Level / UCI_Elo).
	SkillLevel     int
	Elo            int
	MoveTimeMillis int
	DepthCap       int
}

// PresetOverride carries optional per-level tweaks from the config file.
type PresetOverride struct {
	Depth          *int  `yaml:"depth"`
	MoveCap        *int  `yaml:"move_cap"`
	CaptureWeight  *int  `yaml:"capture_weight"`
	CenterBonus    *int  `yaml:"center_bonus"`
	DevelopBonus   *int  `yaml:"develop_bonus"`
	Jitter         *int  `yaml:"jitter"`
	UseBook        *bool `yaml:"use_book"`
	BookMaxPly     *int  `yaml:"book_max_ply"`
	UseRemote      *bool `yaml:"use_remote"`
	MoveTimeMillis *int  `yaml:"move_time_ms"`
	DepthCap       *int  `yaml:"depth_cap"`
}

const (
	bookLevel   = 6
	remoteLevel = 13
)

var presetMu sync.RWMutex

var DefaultPresets = buildDefaultPresets()

var presetAliases = map[string]int{
	"beginner":     2,
	"easy":         5,
	"intermediate": 10,
	"advanced":     16,
	"master":       search.MaxDifficulty,
}

func buildDefaultPresets() map[string]DifficultyPreset {
	out := make(map[string]DifficultyPreset, search.MaxDifficulty+1)
	for lvl := search.MinDifficulty; lvl <= search.MaxDifficulty; lvl++ {
		p := DifficultyPreset{
			Name:           presetName(lvl),
			Level:          lvl,
			Search:         search.ConfigForDifficulty(lvl),
			UseBook:        lvl >= bookLevel,
			UseRemote:      lvl >= remoteLevel,
			SkillLevel:     lvl,
			Elo:            800 + lvl*80,
			MoveTimeMillis: 50 + lvl*20,
			DepthCap:       2 + lvl/2,
		}
		switch {
		case lvl < remoteLevel:
			p.BookMaxPly = 8
			p.PrimaryChoices = 3
			p.CandidateWeights = []float64{0.6, 0.3, 0.1}
		case lvl < 17:
			p.BookMaxPly = 16
			p.PrimaryChoices = 2
			p.CandidateWeights = []float64{0.75, 0.25}
		default:
			p.BookMaxPly = 16
			p.PrimaryChoices = 1
			p.CandidateWeights = []float64{1}
		}
		out[p.Name] = p
	}
	return out
}

func presetName(level int) string { return "level" + strconv.Itoa(level) }

// PresetForLevel clamps level into range and returns its preset.
func PresetForLevel(level int) DifficultyPreset {
	if level < search.MinDifficulty {
		level = search.MinDifficulty
	}
	if level > search.MaxDifficulty {
		level = search.MaxDifficulty
	}
	p, err := GetPreset(presetName(level))
	if err != nil {
		// every level in range is present in DefaultPresets
		panic(err)
	}
	return p
}

// GetPreset resolves "level7", "7" or an alias such as "master".
func GetPreset(name string) (DifficultyPreset, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if lvl, ok := presetAliases[name]; ok {
		name = presetName(lvl)
	} else if n, err := strconv.Atoi(name); err == nil {
		name = presetName(n)
	}
	presetMu.RLock()
	p, ok := DefaultPresets[name]
	presetMu.RUnlock()
	if !ok {
		return DifficultyPreset{}, fmt.Errorf("unknown chess preset: %s", name)
	}
	p.CandidateWeights = append([]float64(nil), p.CandidateWeights...)
	return p, nil
}

// ApplyPresetOverride patches one preset in place. The patched preset must
// still validate, otherwise nothing changes.
func ApplyPresetOverride(name string, o PresetOverride) error {
	base, err := GetPreset(name)
	if err != nil {
		return err
	}

	p := base
	setInt := func(dst *int, v *int) {
		if v != nil {
			*dst = *v
		}
	}
	setInt(&p.Search.Depth, o.Depth)
	setInt(&p.Search.MoveCap, o.MoveCap)
	setInt(&p.Search.CaptureWeight, o.CaptureWeight)
	setInt(&p.Search.CenterBonus, o.CenterBonus)
	setInt(&p.Search.DevelopBonus, o.DevelopBonus)
	setInt(&p.Search.Jitter, o.Jitter)
	setInt(&p.BookMaxPly, o.BookMaxPly)
	setInt(&p.MoveTimeMillis, o.MoveTimeMillis)
	setInt(&p.DepthCap, o.DepthCap)
	if o.UseBook != nil {
		p.UseBook = *o.UseBook
	}
	if o.UseRemote != nil {
		p.UseRemote = *o.UseRemote
	}
	if err := ValidatePreset(p); err != nil {
		return fmt.Errorf("override %s: %w", base.Name, err)
	}

	presetMu.Lock()
	DefaultPresets[base.Name] = p
	presetMu.Unlock()
	return nil
}

func ValidatePreset(p DifficultyPreset) error {
	switch {
	case p.Level < search.MinDifficulty || p.Level > search.MaxDifficulty:
		return fmt.Errorf("level %d out of range %d-%d", p.Level, search.MinDifficulty, search.MaxDifficulty)
	case p.Search.Mode == search.ModeMinimax && (p.Search.Depth < 1 || p.Search.Depth > 6):
		return fmt.Errorf("search depth must be 1-6: %d", p.Search.Depth)
	case p.Search.Mode == search.ModeMinimax && p.Search.MoveCap <= 0:
		return fmt.Errorf("move cap must be > 0: %d", p.Search.MoveCap)
	case p.Search.Jitter < 0:
		return fmt.Errorf("jitter must be >= 0: %d", p.Search.Jitter)
	case p.BookMaxPly < 0:
		return fmt.Errorf("book max ply must be >= 0: %d", p.BookMaxPly)
	case p.PrimaryChoices <= 0:
		return fmt.Errorf("primary choices must be > 0: %d", p.PrimaryChoices)
	case len(p.CandidateWeights) < p.PrimaryChoices:
		return fmt.Errorf("candidate weights (%d) must cover primary choices (%d)", len(p.CandidateWeights), p.PrimaryChoices)
	case p.MoveTimeMillis < 0:
		return fmt.Errorf("move time must be >= 0: %d", p.MoveTimeMillis)
	case p.DepthCap < 0:
		return fmt.Errorf("depth cap must be >= 0: %d", p.DepthCap)
	}

	sum := 0.0
	for i := 0; i < p.PrimaryChoices; i++ {
		w := p.CandidateWeights[i]
		if w < 0 {
			return fmt.Errorf("candidate weight at index %d is negative: %f", i, w)
		}
		sum += w
	}
	if sum == 0 {
		return fmt.Errorf("candidate weights sum to zero")
	}
	return nil
}
