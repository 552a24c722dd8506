// Package access turns a card read into an access decision.
//
// Biometric comparison is not done here. A Verifier scores a live probe
// against the reference read from the card, and a Policy decides which
// modalities must match and at what threshold.
package access

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/gregLibert/sam-reader/pkg/samcard"
)

// DefaultThreshold is the minimum score counted as a match.
const DefaultThreshold = 70

// MaxScore is the top of the Verifier score scale.
const MaxScore = 100

var (
	// ErrNoVerifier is returned when a required modality has no Verifier.
	ErrNoVerifier = errors.New("access: no verifier configured")

	// ErrScoreRange is returned when a Verifier answers outside 0..MaxScore.
	ErrScoreRange = errors.New("access: score out of range")
)

// Verifier compares a probe with a reference sample of the same modality
// and returns a similarity score between 0 and MaxScore.
type Verifier interface {
	Name() string
	Score(ctx context.Context, probe, reference []byte) (int, error)
}

// ExactMatch scores MaxScore for byte-identical samples and 0 otherwise.
// It is useful to check that a presented file is the one stored on the card.
type ExactMatch struct{}

// Name implements Verifier.
func (ExactMatch) Name() string { return "exact" }

// Score implements Verifier.
func (ExactMatch) Score(_ context.Context, probe, reference []byte) (int, error) {
	if len(probe) > 0 && bytes.Equal(probe, reference) {
		return MaxScore, nil
	}
	return 0, nil
}

// MatchResult is one scored comparison.
type MatchResult struct {
	Verifier  string `json:"verifier"`
	Score     int    `json:"score"`
	Threshold int    `json:"threshold"`
	IsMatch   bool   `json:"isMatch"`
}

// NewMatchResult sets IsMatch to score >= threshold. A threshold of 0 means
// DefaultThreshold.
func NewMatchResult(verifier string, score, threshold int) MatchResult {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return MatchResult{
		Verifier:  verifier,
		Score:     score,
		Threshold: threshold,
		IsMatch:   score >= threshold,
	}
}

// Probe holds the live samples presented at the reader.
// FingerIndex 0 compares against the first template on the card.
type Probe struct {
	Face        []byte `json:"face,omitempty"`
	Fingerprint []byte `json:"fingerprint,omitempty"`
	FingerIndex int    `json:"fingerIndex,omitempty"`
}

// Decision is the outcome of Policy.Evaluate. Reasons lists every failed
// requirement, so Granted is true exactly when Reasons is empty.
type Decision struct {
	Granted     bool         `json:"granted"`
	Reasons     []string     `json:"reasons,omitempty"`
	Face        *MatchResult `json:"face,omitempty"`
	Fingerprint *MatchResult `json:"fingerprint,omitempty"`
}

// Policy says which modalities must match.
type Policy struct {
	RequireFace        bool `json:"requireFace"`
	RequireFingerprint bool `json:"requireFingerprint"`
	Threshold          int  `json:"threshold"`

	Face        Verifier `json:"-"`
	Fingerprint Verifier `json:"-"`
}

// Ready reports ErrNoVerifier for a required modality without a Verifier.
func (p *Policy) Ready() error {
	if p.RequireFace && p.Face == nil {
		return fmt.Errorf("%w: face", ErrNoVerifier)
	}
	if p.RequireFingerprint && p.Fingerprint == nil {
		return fmt.Errorf("%w: fingerprint", ErrNoVerifier)
	}
	return nil
}

// Evaluate checks data against probe. Unmet requirements are reported in the
// Decision. An error means a Verifier could not be consulted.
func (p *Policy) Evaluate(ctx context.Context, data *samcard.SecureCardData, probe Probe) (Decision, error) {
	if err := p.Ready(); err != nil {
		return Decision{}, err
	}

	var d Decision
	if data == nil || !data.IsAuthenticated {
		d.Reasons = append(d.Reasons, "card not authenticated")
		return d, nil
	}

	if p.RequireFace {
		switch {
		case data.FaceImage == nil:
			d.Reasons = append(d.Reasons, "no face image on card")
		case len(probe.Face) == 0:
			d.Reasons = append(d.Reasons, "no face probe")
		default:
			m, err := p.score(ctx, p.Face, probe.Face, data.FaceImage)
			if err != nil {
				return Decision{}, fmt.Errorf("face: %w", err)
			}
			d.Face = &m
			if !m.IsMatch {
				d.Reasons = append(d.Reasons, fmt.Sprintf("face score %d below %d", m.Score, m.Threshold))
			}
		}
	}

	if p.RequireFingerprint {
		ref, ok := reference(data, probe.FingerIndex)
		switch {
		case !ok:
			d.Reasons = append(d.Reasons, "no fingerprint template on card")
		case len(probe.Fingerprint) == 0:
			d.Reasons = append(d.Reasons, "no fingerprint probe")
		default:
			m, err := p.score(ctx, p.Fingerprint, probe.Fingerprint, ref.Template)
			if err != nil {
				return Decision{}, fmt.Errorf("finger %d: %w", ref.FingerIndex, err)
			}
			d.Fingerprint = &m
			if !m.IsMatch {
				d.Reasons = append(d.Reasons, fmt.Sprintf("finger %d score %d below %d", ref.FingerIndex, m.Score, m.Threshold))
			}
		}
	}

	d.Granted = len(d.Reasons) == 0
	return d, nil
}

func (p *Policy) score(ctx context.Context, v Verifier, probe, ref []byte) (MatchResult, error) {
	s, err := v.Score(ctx, probe, ref)
	if err != nil {
		return MatchResult{}, fmt.Errorf("%s: %w", v.Name(), err)
	}
	if s < 0 || s > MaxScore {
		return MatchResult{}, fmt.Errorf("%s: %w: %d", v.Name(), ErrScoreRange, s)
	}
	return NewMatchResult(v.Name(), s, p.Threshold), nil
}

func reference(data *samcard.SecureCardData, index int) (samcard.FingerprintRecord, bool) {
	if index == 0 {
		if len(data.Fingerprints) == 0 {
			return samcard.FingerprintRecord{}, false
		}
		return data.Fingerprints[0], true
	}
	return data.Fingerprint(index)
}
