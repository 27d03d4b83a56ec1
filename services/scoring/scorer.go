// Copyright (C) 2025 Ox-in-Chair (ohisee@ox-in-chair.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package scoring computes the deterministic multi-dimensional quality
// score for a submission. The score is the pipeline's local notion of
// quality: when the AI oracle is reachable its assessment is layered on
// top, when it is not this score stands alone.
package scoring

import (
	"math"
	"regexp"
	"strings"

	"github.com/Ox-in-Chair/ohisee-configuration-project-sub003/services/forms"
)

// DefaultThreshold is the overall score at or above which a submission
// passes without enforcement pressure.
const DefaultThreshold = 75

// Weights distributes the component scores into the overall score. The
// weights must sum to 1.
type Weights struct {
	Completeness         float64
	Accuracy             float64
	Clarity              float64
	HazardIdentification float64
	Evidence             float64
}

// DefaultWeights returns the calibrated production weighting.
func DefaultWeights() Weights {
	return Weights{
		Completeness:         0.30,
		Accuracy:             0.25,
		Clarity:              0.20,
		HazardIdentification: 0.15,
		Evidence:             0.10,
	}
}

// Breakdown carries the five component scores, each 0-100.
type Breakdown struct {
	Completeness         int `json:"completeness"`
	Accuracy             int `json:"accuracy"`
	Clarity              int `json:"clarity"`
	HazardIdentification int `json:"hazard_identification"`
	Evidence             int `json:"evidence"`
}

// Score is a scored submission. Overall is the weighted rounded sum of
// the breakdown.
type Score struct {
	Overall   int       `json:"overall"`
	Breakdown Breakdown `json:"breakdown"`
	Passed    bool      `json:"passed"`
}

// Scorer evaluates submissions. Safe for concurrent use.
type Scorer struct {
	weights   Weights
	threshold int
}

// NewScorer returns a scorer with the default weights and threshold.
func NewScorer() *Scorer {
	return &Scorer{weights: DefaultWeights(), threshold: DefaultThreshold}
}

// NewScorerWithThreshold overrides the pass threshold, keeping default
// weights.
func NewScorerWithThreshold(threshold int) *Scorer {
	return &Scorer{weights: DefaultWeights(), threshold: threshold}
}

// Threshold returns the configured pass threshold.
func (s *Scorer) Threshold() int { return s.threshold }

var (
	sentenceSplit = regexp.MustCompile(`[.!?]+`)
	// Terms a QA supervisor's write-up is expected to use at least one of.
	technicalTerms = []string{"calibration", "contamination", "specification", "tolerance", "hygiene"}
	// Hedging terms that cost clarity regardless of role.
	clarityVagueTerms = []string{"maybe", "possibly", "might be", "not sure", "approximately"}
	// Keywords that demonstrate the hazard dimension was considered.
	safetyKeywords = []string{"contamination", "foreign body", "allergen", "hygiene", "safety", "hazard"}
)

// Score evaluates either form variant. Role feeds the clarity check:
// some roles are held to a technical register.
func (s *Scorer) Score(sub forms.Submission, role string) Score {
	var breakdown Breakdown
	switch f := sub.(type) {
	case *forms.NCASubmission:
		breakdown = s.scoreNCA(f, role)
	case *forms.MJCSubmission:
		breakdown = s.scoreMJC(f, role)
	}
	overall := s.combine(breakdown)
	return Score{
		Overall:   overall,
		Breakdown: breakdown,
		Passed:    overall >= s.threshold,
	}
}

// Contributions converts raw component scores into their weighted
// contributions to the overall score. The five values sum to the
// overall, give or take rounding; callers that surface a breakdown to
// users show these, not the raw components.
func (s *Scorer) Contributions(b Breakdown) Breakdown {
	return Breakdown{
		Completeness:         int(math.Round(float64(b.Completeness) * s.weights.Completeness)),
		Accuracy:             int(math.Round(float64(b.Accuracy) * s.weights.Accuracy)),
		Clarity:              int(math.Round(float64(b.Clarity) * s.weights.Clarity)),
		HazardIdentification: int(math.Round(float64(b.HazardIdentification) * s.weights.HazardIdentification)),
		Evidence:             int(math.Round(float64(b.Evidence) * s.weights.Evidence)),
	}
}

// combine folds the breakdown into the weighted overall score.
func (s *Scorer) combine(b Breakdown) int {
	raw := float64(b.Completeness)*s.weights.Completeness +
		float64(b.Accuracy)*s.weights.Accuracy +
		float64(b.Clarity)*s.weights.Clarity +
		float64(b.HazardIdentification)*s.weights.HazardIdentification +
		float64(b.Evidence)*s.weights.Evidence
	return int(math.Round(raw))
}

func (s *Scorer) scoreNCA(f *forms.NCASubmission, role string) Breakdown {
	return Breakdown{
		Completeness:         ncaCompleteness(f),
		Accuracy:             ncaAccuracy(f),
		Clarity:              clarity(f.NCDescription, role),
		HazardIdentification: ncaHazard(f),
		Evidence:             ncaEvidence(f),
	}
}

// ncaCompleteness is the filled fraction of the required fields.
func ncaCompleteness(f *forms.NCASubmission) int {
	filled := 0
	total := 4
	if strings.TrimSpace(f.NCDescription) != "" {
		filled++
	}
	if strings.TrimSpace(f.ProductDescription) != "" {
		filled++
	}
	if f.Quantity != nil {
		filled++
	}
	if strings.TrimSpace(f.QuantityUnit) != "" {
		filled++
	}
	return int(math.Round(float64(filled) / float64(total) * 100))
}

// ncaAccuracy starts at 100 and deducts for internal inconsistencies:
// a declared cross-contamination without completed back-tracking is the
// heaviest, a rework disposition without instructions next.
func ncaAccuracy(f *forms.NCASubmission) int {
	score := 100
	if len(f.NCDescription) < 100 {
		score -= 30
	}
	if f.Quantity != nil && *f.Quantity <= 0 {
		score -= 20
	}
	if f.CrossContamination && !f.BackTrackingCompleted {
		score -= 50
	}
	if f.DispositionRework && strings.TrimSpace(f.ReworkInstruction) == "" {
		score -= 30
	}
	return clamp(score)
}

// clarity checks register and structure of the description text.
func clarity(description, role string) int {
	if strings.TrimSpace(description) == "" {
		return 0
	}
	score := 100
	lower := strings.ToLower(description)

	if role == "qa-supervisor" && !containsAny(lower, technicalTerms) {
		score -= 20
	}
	if containsAny(lower, clarityVagueTerms) {
		score -= 30
	}
	if sentenceCount(description) < 2 {
		score -= 15
	}
	return clamp(score)
}

// ncaHazard starts from a neutral baseline. A declared cross-contamination
// flag maxes the dimension outright since the hazard is explicit.
func ncaHazard(f *forms.NCASubmission) int {
	if f.CrossContamination {
		return 100
	}
	score := 50
	if containsAny(strings.ToLower(f.NCDescription), safetyKeywords) {
		score += 50
	}
	return score
}

// ncaEvidence rewards traceability: batch identifiers, measured
// quantities, and substantive root-cause and corrective-action text.
func ncaEvidence(f *forms.NCASubmission) int {
	score := 0
	if strings.TrimSpace(f.SupplierBatch) != "" {
		score += 30
	}
	if f.Quantity != nil && strings.TrimSpace(f.QuantityUnit) != "" {
		score += 30
	}
	if len(f.RootCauseAnalysis) >= 50 {
		score += 20
	}
	if len(f.CorrectiveActText) >= 50 {
		score += 20
	}
	if score > 100 {
		score = 100
	}
	return score
}

func (s *Scorer) scoreMJC(f *forms.MJCSubmission, role string) Breakdown {
	return Breakdown{
		Completeness:         mjcCompleteness(f),
		Accuracy:             mjcAccuracy(f),
		Clarity:              clarity(f.WorkDescription, role),
		HazardIdentification: mjcHazard(f),
		Evidence:             mjcEvidence(f),
	}
}

func mjcCompleteness(f *forms.MJCSubmission) int {
	filled := 0
	total := 2
	if strings.TrimSpace(f.WorkDescription) != "" {
		filled++
	}
	if strings.TrimSpace(f.MachineEquipment) != "" {
		filled++
	}
	return int(math.Round(float64(filled) / float64(total) * 100))
}

// mjcAccuracy mirrors the NCA deductions where the card has equivalent
// consistency constraints: a temporary repair with no record of the work
// actually performed is the MJC analogue of rework without instructions.
func mjcAccuracy(f *forms.MJCSubmission) int {
	score := 100
	if len(f.WorkDescription) < 100 {
		score -= 30
	}
	if f.TemporaryRepair && strings.TrimSpace(f.MaintenancePerformed) == "" {
		score -= 30
	}
	return clamp(score)
}

func mjcHazard(f *forms.MJCSubmission) int {
	score := 50
	if containsAny(strings.ToLower(f.WorkDescription), safetyKeywords) {
		score += 50
	}
	return score
}

func mjcEvidence(f *forms.MJCSubmission) int {
	score := 0
	if strings.TrimSpace(f.MachineEquipment) != "" {
		score += 30
	}
	if strings.TrimSpace(f.MaintenancePerformed) != "" {
		score += 30
	}
	if len(f.RootCauseAnalysis) >= 50 {
		score += 20
	}
	if len(f.CorrectiveActText) >= 50 {
		score += 20
	}
	if score > 100 {
		score = 100
	}
	return score
}

func sentenceCount(text string) int {
	count := 0
	for _, part := range sentenceSplit.Split(text, -1) {
		if strings.TrimSpace(part) != "" {
			count++
		}
	}
	return count
}

func containsAny(lower string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

func clamp(score int) int {
	if score < 0 {
		return 0
	}
	return score
}
