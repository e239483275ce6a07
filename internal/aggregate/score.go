package aggregate

// ScoreFunc computes the score contribution of one partial result given its
// service weight and 1-based rank within the service's response. The exact
// decay is pluggable; any implementation must grow with weight and shrink
// monotonically with rank.
type ScoreFunc func(weight float64, rank int) float64

// DefaultScore is weight / rank: rank 1 contributes the full weight, lower
// positions decay harmonically.
func DefaultScore(weight float64, rank int) float64 {
	if rank < 1 {
		rank = 1
	}
	return weight / float64(rank)
}
