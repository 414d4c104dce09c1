package analytics

import (
	"math"

	"trade-journal/internal/models"
)

// SQN rating bands, lower bound inclusive.
const (
	RatingPoor      = "Poor"
	RatingAverage   = "Average"
	RatingGood      = "Good"
	RatingExcellent = "Excellent"
	RatingSuperb    = "Superb"
	RatingHolyGrail = "Holy Grail"
)

var sqnBands = []struct {
	floor  float64
	rating string
}{
	{7.0, RatingHolyGrail},
	{5.0, RatingSuperb},
	{3.0, RatingExcellent},
	{2.0, RatingGood},
	{1.6, RatingAverage},
}

// RateSQN maps an SQN value to its qualitative band.
func RateSQN(sqn float64) string {
	for _, b := range sqnBands {
		if sqn >= b.floor {
			return b.rating
		}
	}
	return RatingPoor
}

// SQN computes Van Tharp's System Quality Number over R-multiples:
// mean(R) / stdev(R) * sqrt(N), with an N-1 standard deviation.
//
// Zero variance saturates to ±saturation (0 when every R is 0) and is
// flagged; fewer than two R-multiples leave the result undefined.
func SQN(rs []float64, saturation float64) models.SQNResult {
	if len(rs) < 2 {
		return models.SQNResult{Rating: models.PendingLabel, Flag: models.FlagInsufficientData}
	}

	mean := Mean(rs)
	sd := SampleStdDev(rs)
	if sd == 0 {
		if mean == 0 {
			return models.SQNResult{SQN: 0, Rating: RateSQN(0), Flag: models.FlagNoVariance}
		}
		value := math.Copysign(saturation, mean)
		return models.SQNResult{SQN: value, Rating: RateSQN(value), Flag: models.FlagSaturated}
	}

	value := mean / sd * math.Sqrt(float64(len(rs)))
	res := models.SQNResult{SQN: value}
	if math.Abs(value) >= saturation {
		res.SQN = clamp(value, saturation)
		res.Flag = models.FlagSaturated
	}
	res.Rating = RateSQN(res.SQN)
	return res
}
