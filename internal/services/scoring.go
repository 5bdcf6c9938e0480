package services

import (
	"math"
	"sort"
	"unicode"
	"unicode/utf8"

	"github.com/kickhr/kickhr/internal/models"
)

// maxOptionValue is the top of the option value range. Trait means are
// normalized against it onto a 0-100 scale.
const maxOptionValue = 5

// defaultTrait groups option values whose option carries no trait label.
const defaultTrait = "General"

// ComputeScore derives a score from the collected answers and the question
// set they were answered against. Answers whose question or option cannot
// be resolved are skipped; they never fail the computation. The breakdown
// is sorted by trait label so repeated runs over the same answers produce
// identical output.
func ComputeScore(answers []models.Answer, questions []*models.Question) models.Score {
	byID := make(map[string]*models.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	traitValues := map[string][]int{}
	for _, a := range answers {
		q := byID[a.QuestionID]
		if q == nil {
			continue
		}
		opt := findOption(q, a.OptionID)
		if opt == nil {
			continue
		}
		trait := opt.Trait
		if trait == "" {
			trait = defaultTrait
		}
		traitValues[trait] = append(traitValues[trait], opt.Value)
	}

	breakdown := make([]models.TraitScore, 0, len(traitValues))
	for trait, values := range traitValues {
		sum := 0
		for _, v := range values {
			sum += v
		}
		mean := float64(sum) / float64(len(values))
		score := int(math.Round(mean / maxOptionValue * 100))
		breakdown = append(breakdown, models.TraitScore{
			Trait:      displayTrait(trait),
			Score:      score,
			Percentile: PercentileFor(score),
		})
	}
	sort.Slice(breakdown, func(i, j int) bool { return breakdown[i].Trait < breakdown[j].Trait })

	overall := 0
	if len(breakdown) > 0 {
		sum := 0
		for _, b := range breakdown {
			sum += b.Score
		}
		overall = int(math.Round(float64(sum) / float64(len(breakdown))))
	}
	return models.Score{Overall: overall, Breakdown: breakdown}
}

// PercentileFor estimates a norm-referenced percentile from a trait score.
// No normative population data exists, so the mapping is a fixed linear
// estimate that tracks the score, clamped to [0,100].
func PercentileFor(score int) int {
	p := int(math.Round(float64(score)*0.9)) + 5
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// displayTrait upper-cases the first rune of a trait label for the
// breakdown. Grouping always happens on the raw label.
func displayTrait(trait string) string {
	r, size := utf8.DecodeRuneInString(trait)
	if r == utf8.RuneError {
		return trait
	}
	return string(unicode.ToUpper(r)) + trait[size:]
}

func findOption(q *models.Question, optionID string) *models.Option {
	for i := range q.Options {
		if q.Options[i].ID == optionID {
			return &q.Options[i]
		}
	}
	return nil
}
