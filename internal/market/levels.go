package market

import (
	"math"
	"sort"
)

// ClusterThreshold is the default proximity (0.5%) within which neighboring
// price levels merge into one zone.
const ClusterThreshold = 0.005

// Zone is a graded support or resistance price zone.
type Zone struct {
	Level    float64 `json:"level"`
	Strength string  `json:"strength"`
	Hits     int     `json:"hits"`
}

// Levels holds graded support and resistance zones.
type Levels struct {
	Support    []Zone `json:"support_zones"`
	Resistance []Zone `json:"resistance_zones"`
}

// SwingLevels identifies local swing lows (supports) and swing highs
// (resistances) using a 3-bar turning-point pattern.
func SwingLevels(s *Series) (support, resistance []float64) {
	n := s.Len()
	for i := 1; i < n-1; i++ {
		if s.Low[i] < s.Low[i-1] && s.Low[i] < s.Low[i+1] {
			support = append(support, s.Low[i])
		}
		if s.High[i] > s.High[i-1] && s.High[i] > s.High[i+1] {
			resistance = append(resistance, s.High[i])
		}
	}
	return support, resistance
}

// ClusterLevels merges sorted price levels within threshold of each other and
// grades each zone by the number of hits it absorbed.
func ClusterLevels(levels []float64, threshold float64) []Zone {
	if len(levels) == 0 {
		return nil
	}
	sorted := append([]float64(nil), levels...)
	sort.Float64s(sorted)

	clusters := [][]float64{{sorted[0]}}
	for _, lvl := range sorted[1:] {
		lastCluster := clusters[len(clusters)-1]
		prev := lastCluster[len(lastCluster)-1]
		if math.Abs(lvl-prev)/prev < threshold {
			clusters[len(clusters)-1] = append(lastCluster, lvl)
		} else {
			clusters = append(clusters, []float64{lvl})
		}
	}

	zones := make([]Zone, 0, len(clusters))
	for _, c := range clusters {
		strength := "medium"
		switch {
		case len(c) >= 4:
			strength = "very strong"
		case len(c) >= 2:
			strength = "strong"
		}
		zones = append(zones, Zone{
			Level:    math.Round(mean(c)*1e4) / 1e4,
			Strength: strength,
			Hits:     len(c),
		})
	}
	return zones
}

// SupportResistance computes graded zones from the series.
func SupportResistance(s *Series, threshold float64) Levels {
	if threshold <= 0 {
		threshold = ClusterThreshold
	}
	sup, res := SwingLevels(s)
	return Levels{
		Support:    ClusterLevels(sup, threshold),
		Resistance: ClusterLevels(res, threshold),
	}
}
