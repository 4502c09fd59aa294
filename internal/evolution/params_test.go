package evolution

import (
	"math"
	"testing"

	apperrors "github.com/yuuri3/TokiPonaLanguages/internal/platform/errors"
)

func TestDefaultParams(t *testing.T) {
	p := DefaultParams()
	if p.NBorrow != 4 {
		t.Fatalf("NBorrow = %d, want 4", p.NBorrow)
	}
	if p.PStrengthDrift != 1 {
		t.Fatalf("PStrengthDrift = %v, want 1", p.PStrengthDrift)
	}
	if !p.ProhibitMinimalPair || !p.ProhibitDuplication {
		t.Fatal("phonotactic filters should default on")
	}
	if p.MaxConsonantManner != 3 {
		t.Fatalf("MaxConsonantManner = %d, want 3", p.MaxConsonantManner)
	}
	if err := p.Validate(); err != nil {
		t.Fatalf("Validate defaults: %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name  string
		tweak func(*Params)
	}{
		{"negative borrow", func(p *Params) { p.NBorrow = -1 }},
		{"probability above one", func(p *Params) { p.PSoundChange = 1.5 }},
		{"negative probability", func(p *Params) { p.PWordLoss = -0.1 }},
		{"nan probability", func(p *Params) { p.PWordBirth = math.NaN() }},
		{"negative rate", func(p *Params) { p.MaxSemanticShiftRate = -1 }},
		{"infinite rate", func(p *Params) { p.MaxSemanticShiftRate = math.Inf(1) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.tweak(&p)
			err := p.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if got := apperrors.CodeOf(err); got != apperrors.CodeParamInvalid {
				t.Fatalf("code = %v, want %v", got, apperrors.CodeParamInvalid)
			}
		})
	}
}
