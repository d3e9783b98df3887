package engine

import (
	"encoding/json"
	"time"
)

// UnavailableReason is the closed set of ways a recognition can fail.
// Every stage maps its local failures into one of these before the outcome
// crosses the facade boundary; no raw runtime errors leak to callers.
type UnavailableReason int

const (
	ReasonNone UnavailableReason = iota
	// ReasonAssetMissing: model or label file could not be resolved from
	// any candidate path.
	ReasonAssetMissing
	// ReasonRuntimeIncompatible: the model references operations the
	// installed runtime does not implement.
	ReasonRuntimeIncompatible
	// ReasonInitializationFailed: any other initialization-time failure.
	ReasonInitializationFailed
	// ReasonDecodeFailed: the supplied image could not be decoded.
	ReasonDecodeFailed
	// ReasonInferenceFailed: the forward pass itself failed.
	ReasonInferenceFailed
	// ReasonNoConfidentPrediction: inference succeeded but no breed cleared
	// the confidence floor. A legitimate "not recognized" outcome, not a
	// system fault.
	ReasonNoConfidentPrediction
)

func (r UnavailableReason) String() string {
	switch r {
	case ReasonAssetMissing:
		return "asset_missing"
	case ReasonRuntimeIncompatible:
		return "runtime_incompatible"
	case ReasonInitializationFailed:
		return "initialization_failed"
	case ReasonDecodeFailed:
		return "decode_failed"
	case ReasonInferenceFailed:
		return "inference_failed"
	case ReasonNoConfidentPrediction:
		return "no_confident_prediction"
	default:
		return "none"
	}
}

// MarshalText lets reasons appear as their snake_case names in JSON output.
func (r UnavailableReason) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Prediction is one ranked breed candidate. Rank 1 is the best match.
type Prediction struct {
	Label      string  `json:"label"`
	Confidence float32 `json:"confidence"`
	Rank       int     `json:"rank"`
}

// Outcome is the sole value Recognize returns: either a ranked result or an
// explicit unavailable state. There is deliberately no third channel; the
// engine never substitutes a fabricated prediction for a failure.
type Outcome struct {
	OK           bool
	Top          Prediction
	Alternatives []Prediction
	Elapsed      time.Duration
	Reason       UnavailableReason
	Detail       string
}

func success(top Prediction, alternatives []Prediction, elapsed time.Duration) Outcome {
	return Outcome{OK: true, Top: top, Alternatives: alternatives, Elapsed: elapsed}
}

func unavailable(reason UnavailableReason, detail string) Outcome {
	return Outcome{OK: false, Reason: reason, Detail: detail}
}

// MarshalJSON renders successes and failures with distinct shapes so API
// consumers cannot mistake one for the other.
func (o Outcome) MarshalJSON() ([]byte, error) {
	if o.OK {
		return json.Marshal(struct {
			OK           bool         `json:"ok"`
			Top          Prediction   `json:"top"`
			Alternatives []Prediction `json:"alternatives"`
			ElapsedMS    float64      `json:"elapsed_ms"`
		}{true, o.Top, o.Alternatives, float64(o.Elapsed) / float64(time.Millisecond)})
	}
	return json.Marshal(struct {
		OK     bool              `json:"ok"`
		Reason UnavailableReason `json:"reason"`
		Detail string            `json:"detail"`
	}{false, o.Reason, o.Detail})
}
