package types_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/moirai/pkg/domain/types"
)

func TestGeoRelevanceMultiplier(t *testing.T) {
	cases := []struct {
		geo  types.GeoRelevance
		want float64
	}{
		{types.GeoRelevanceVeryLow, 0.5},
		{types.GeoRelevanceLow, 0.7},
		{types.GeoRelevanceMedium, 1.0},
		{types.GeoRelevanceHigh, 1.3},
		{types.GeoRelevanceVeryHigh, 1.6},
		{types.GeoRelevance("unknown"), 1.0},
	}

	for _, tc := range cases {
		gt.Number(t, tc.geo.Multiplier()).Equal(tc.want)
	}
}

func TestTreatmentStatusNormalize(t *testing.T) {
	gt.Value(t, types.TreatmentStatus("").Normalize()).Equal(types.TreatmentStatusPending)
	gt.Value(t, types.TreatmentStatusVerified.Normalize()).Equal(types.TreatmentStatusVerified)
}
