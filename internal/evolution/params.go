package evolution

import (
	"fmt"
	"math"

	"github.com/caarlos0/env/v11"

	"github.com/yuuri3/TokiPonaLanguages/internal/phonetics"
	apperrors "github.com/yuuri3/TokiPonaLanguages/internal/platform/errors"
)

// Params holds the per-era rates of every operator. The env tags are read
// with a caller-chosen prefix by the command entry points.
type Params struct {
	NBorrow              int     `env:"N_BORROW" envDefault:"4"`
	PSoundChange         float64 `env:"P_SOUND_CHANGE" envDefault:"0.1"`
	PSoundLoss           float64 `env:"P_SOUND_LOSS" envDefault:"0.1"`
	PSemanticShift       float64 `env:"P_SEMANTIC_SHIFT" envDefault:"0.1"`
	MaxSemanticShiftRate float64 `env:"MAX_SEMANTIC_SHIFT_RATE" envDefault:"0.5"`
	PWordLoss            float64 `env:"P_WORD_LOSS" envDefault:"0.05"`
	PWordBirth           float64 `env:"P_WORD_BIRTH" envDefault:"0.05"`
	PStrengthDrift       float64 `env:"P_STRENGTH_DRIFT" envDefault:"1"`
	ProhibitMinimalPair  bool    `env:"PROHIBIT_MINIMAL_PAIR" envDefault:"true"`
	ProhibitDuplication  bool    `env:"PROHIBIT_DUPLICATION" envDefault:"true"`
	MaxConsonantManner   int     `env:"MAX_CONSONANT_MANNER" envDefault:"3"`
}

// DefaultParams returns the envDefault values without reading the process
// environment.
func DefaultParams() Params {
	var p Params
	if err := env.ParseWithOptions(&p, env.Options{Environment: map[string]string{}}); err != nil {
		// The defaults are literals above; failing to parse them is a bug.
		panic(fmt.Sprintf("evolution: parse default params: %v", err))
	}
	return p
}

// Validate rejects negative counts, non-finite values and probabilities
// outside [0, 1].
func (p Params) Validate() error {
	if p.NBorrow < 0 {
		return invalidParam("N_BORROW", fmt.Sprint(p.NBorrow))
	}
	probs := []struct {
		name  string
		value float64
	}{
		{"P_SOUND_CHANGE", p.PSoundChange},
		{"P_SOUND_LOSS", p.PSoundLoss},
		{"P_SEMANTIC_SHIFT", p.PSemanticShift},
		{"P_WORD_LOSS", p.PWordLoss},
		{"P_WORD_BIRTH", p.PWordBirth},
		{"P_STRENGTH_DRIFT", p.PStrengthDrift},
	}
	for _, prob := range probs {
		if math.IsNaN(prob.value) || prob.value < 0 || prob.value > 1 {
			return invalidParam(prob.name, fmt.Sprint(prob.value))
		}
	}
	if math.IsNaN(p.MaxSemanticShiftRate) || math.IsInf(p.MaxSemanticShiftRate, 0) || p.MaxSemanticShiftRate < 0 {
		return invalidParam("MAX_SEMANTIC_SHIFT_RATE", fmt.Sprint(p.MaxSemanticShiftRate))
	}
	return nil
}

func invalidParam(name, value string) error {
	return apperrors.WithMetadata(apperrors.CodeParamInvalid,
		fmt.Sprintf("invalid parameter %s=%s", name, value),
		map[string]string{"param": name, "value": value})
}

func (p Params) classifier() phonetics.Classifier {
	return phonetics.NewClassifier(p.MaxConsonantManner)
}
