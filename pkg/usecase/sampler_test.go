package usecase_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/moirai/pkg/usecase"
)

func TestSeededSamplerIsDeterministic(t *testing.T) {
	a := usecase.NewSeededSampler(1, 2)
	b := usecase.NewSeededSampler(1, 2)

	for i := 0; i < 100; i++ {
		gt.Number(t, a.Normal(0.5, 0.2)).Equal(b.Normal(0.5, 0.2))
	}
}

func TestSamplerNormalStaysInUnitRange(t *testing.T) {
	s := usecase.NewSeededSampler(3, 4)
	for i := 0; i < 1000; i++ {
		v := s.Normal(0.9, 0.5)
		if v < 0 || v > 1 {
			t.Fatalf("sample %v out of [0, 1]", v)
		}
	}
}

func TestSamplerUniformAround(t *testing.T) {
	s := usecase.NewSeededSampler(5, 6)
	for i := 0; i < 1000; i++ {
		v := s.UniformAround(100, 0.2)
		if v < 80 || v > 120 {
			t.Fatalf("sample %v outside [80, 120]", v)
		}
	}
}

func TestSamplerBernoulliExtremes(t *testing.T) {
	s := usecase.NewSeededSampler(7, 8)
	for i := 0; i < 100; i++ {
		gt.Value(t, s.Bernoulli(0)).Equal(false)
		gt.Value(t, s.Bernoulli(1)).Equal(true)
	}
}

func TestClamp01(t *testing.T) {
	gt.Number(t, usecase.Clamp01(-0.5)).Equal(0.0)
	gt.Number(t, usecase.Clamp01(0.0)).Equal(0.0)
	gt.Number(t, usecase.Clamp01(0.42)).Equal(0.42)
	gt.Number(t, usecase.Clamp01(1.0)).Equal(1.0)
	gt.Number(t, usecase.Clamp01(1.5)).Equal(1.0)
}
