package intent

import (
	"math"
	"strings"
)

const (
	ProductInfo   = "product_info"
	OrderTracking = "order_tracking"
	Returns       = "returns"
	Shipping      = "shipping"
)

// Labels is the closed taxonomy in canonical order. The order doubles as the
// tie-break for consumers picking a top label.
var Labels = []string{ProductInfo, OrderTracking, Returns, Shipping}

// keywordWeight is the raw score added per matched keyword before
// normalization.
const keywordWeight = 0.2

var keywords = map[string][]string{
	ProductInfo:   {"price", "availability", "product", "sku", "stock", "details"},
	OrderTracking: {"track", "order", "status", "where is", "delivery date"},
	Returns:       {"return", "refund", "exchange", "cancel"},
	Shipping:      {"shipping", "delivery", "fee", "time", "carrier"},
}

// Classify scores the query against each label's keyword set and normalizes
// by the maximum score, rounded to two decimals. The scores are relative
// confidences, not probabilities: the top label is always 1.00 unless nothing
// matched, in which case every label gets the uniform 0.25 so consumers
// always have a ranking.
func Classify(query string) map[string]float64 {
	q := strings.ToLower(query)

	scores := make(map[string]float64, len(Labels))
	max := 0.0
	for _, label := range Labels {
		score := 0.0
		for _, w := range keywords[label] {
			if strings.Contains(q, w) {
				score += keywordWeight
			}
		}
		scores[label] = score
		if score > max {
			max = score
		}
	}

	if max == 0 {
		for _, label := range Labels {
			scores[label] = 0.25
		}
		return scores
	}

	for _, label := range Labels {
		scores[label] = math.Round(scores[label]/max*100) / 100
	}
	return scores
}

// TopLabel returns the highest-scoring label, breaking ties by canonical
// label order.
func TopLabel(scores map[string]float64) string {
	top := Labels[0]
	best := scores[top]
	for _, label := range Labels[1:] {
		if scores[label] > best {
			top = label
			best = scores[label]
		}
	}
	return top
}
