package intent

import (
	"math"
	"testing"
)

func TestClassify_EmptyQueryIsUniform(t *testing.T) {
	scores := Classify("")
	for _, label := range Labels {
		if scores[label] != 0.25 {
			t.Errorf("label %s: expected 0.25, got %f", label, scores[label])
		}
	}
}

func TestClassify_NoKeywordsIsUniform(t *testing.T) {
	scores := Classify("tell me a joke")
	for _, label := range Labels {
		if scores[label] != 0.25 {
			t.Errorf("label %s: expected 0.25, got %f", label, scores[label])
		}
	}
}

func TestClassify_OrderTrackingDominates(t *testing.T) {
	scores := Classify("track my order status")

	if scores[OrderTracking] != 1.0 {
		t.Errorf("expected order_tracking = 1.00, got %f", scores[OrderTracking])
	}
	for _, label := range Labels {
		if label == OrderTracking {
			continue
		}
		if scores[label] >= 1.0 {
			t.Errorf("label %s should score below the max, got %f", label, scores[label])
		}
	}
	if got := TopLabel(scores); got != OrderTracking {
		t.Errorf("expected top label order_tracking, got %s", got)
	}
}

func TestClassify_NormalizedToTwoDecimals(t *testing.T) {
	// "return" and "refund" hit returns twice; "order" hits tracking once.
	scores := Classify("return or refund my order")

	if scores[Returns] != 1.0 {
		t.Errorf("expected returns = 1.00, got %f", scores[Returns])
	}
	if scores[OrderTracking] != 0.5 {
		t.Errorf("expected order_tracking = 0.50, got %f", scores[OrderTracking])
	}
	for _, label := range Labels {
		rounded := math.Round(scores[label]*100) / 100
		if scores[label] != rounded {
			t.Errorf("label %s: score %f not rounded to 2 decimals", label, scores[label])
		}
	}
}

func TestTopLabel_TieBreaksCanonically(t *testing.T) {
	scores := map[string]float64{
		ProductInfo:   0.25,
		OrderTracking: 0.25,
		Returns:       0.25,
		Shipping:      0.25,
	}
	if got := TopLabel(scores); got != ProductInfo {
		t.Errorf("expected product_info on full tie, got %s", got)
	}
}

func TestClarificationOptions_AlwaysFour(t *testing.T) {
	opts := ClarificationOptions("where is my order")
	if len(opts) != 4 {
		t.Fatalf("expected exactly 4 options, got %d", len(opts))
	}

	for i := 0; i < 2; i++ {
		if opts[i].Confidence < opts[i+1].Confidence {
			t.Errorf("options not sorted descending at %d: %f < %f", i, opts[i].Confidence, opts[i+1].Confidence)
		}
	}

	last := opts[3]
	if last.ID != 0 || last.Confidence != 0 {
		t.Errorf("expected rephrase option last with id 0 and confidence 0, got %+v", last)
	}
}

func TestClarificationOptions_TopIntentFirst(t *testing.T) {
	opts := ClarificationOptions("track my order status")
	if opts[0].ID != 2 {
		t.Errorf("expected order tracking card first, got id %d (%s)", opts[0].ID, opts[0].Text)
	}
	if opts[0].Confidence != 1.0 {
		t.Errorf("expected top confidence 1.00, got %f", opts[0].Confidence)
	}
}
