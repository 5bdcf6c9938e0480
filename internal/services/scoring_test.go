package services

import (
	"testing"
	"time"

	"github.com/kickhr/kickhr/internal/models"
)

func likertQuestion(id, trait string) *models.Question {
	q := &models.Question{ID: id, AssessmentTypeID: "t1", Kind: "likert", Text: id}
	for i := 1; i <= 5; i++ {
		q.Options = append(q.Options, models.Option{ID: optID(id, i), Value: i, Trait: trait})
	}
	return q
}

func optID(questionID string, n int) string {
	return questionID + "-" + string(rune('0'+n))
}

func answer(questionID, optionID string) models.Answer {
	return models.Answer{QuestionID: questionID, OptionID: optionID, AnsweredAt: time.Date(2024, 4, 15, 9, 0, 0, 0, time.UTC)}
}

func TestComputeScoreGroupsByTrait(t *testing.T) {
	questions := []*models.Question{
		likertQuestion("q1", "extraversion"),
		likertQuestion("q2", "extraversion"),
		likertQuestion("q3", "openness"),
	}
	answers := []models.Answer{
		answer("q1", "q1-4"), // extraversion 4
		answer("q2", "q2-5"), // extraversion 5
		answer("q3", "q3-3"), // openness 3
	}

	score := ComputeScore(answers, questions)
	if len(score.Breakdown) != 2 {
		t.Fatalf("breakdown entries = %d, want 2", len(score.Breakdown))
	}
	ext := score.Breakdown[0]
	if ext.Trait != "Extraversion" || ext.Score != 90 {
		t.Fatalf("extraversion entry = %+v, want Extraversion/90", ext)
	}
	open := score.Breakdown[1]
	if open.Trait != "Openness" || open.Score != 60 {
		t.Fatalf("openness entry = %+v, want Openness/60", open)
	}
	if score.Overall != 75 {
		t.Fatalf("overall = %d, want 75", score.Overall)
	}
}

func TestComputeScoreDefaultsToGeneral(t *testing.T) {
	questions := []*models.Question{likertQuestion("q1", "")}
	score := ComputeScore([]models.Answer{answer("q1", "q1-5")}, questions)
	if len(score.Breakdown) != 1 {
		t.Fatalf("breakdown entries = %d, want 1", len(score.Breakdown))
	}
	if got := score.Breakdown[0].Trait; got != "General" {
		t.Fatalf("trait = %q, want General", got)
	}
	if got := score.Breakdown[0].Score; got != 100 {
		t.Fatalf("score = %d, want 100", got)
	}
}

func TestComputeScoreSkipsUnresolvableAnswers(t *testing.T) {
	questions := []*models.Question{likertQuestion("q1", "focus")}
	answers := []models.Answer{
		answer("q1", "q1-4"),
		answer("missing-question", "q1-4"),
		answer("q1", "missing-option"),
	}

	score := ComputeScore(answers, questions)
	if len(score.Breakdown) != 1 {
		t.Fatalf("breakdown entries = %d, want 1", len(score.Breakdown))
	}
	if got := score.Breakdown[0].Score; got != 80 {
		t.Fatalf("focus score = %d, want 80 (only the resolvable answer counts)", got)
	}
}

func TestComputeScoreNoAnswers(t *testing.T) {
	score := ComputeScore(nil, []*models.Question{likertQuestion("q1", "a")})
	if score.Overall != 0 {
		t.Fatalf("overall = %d, want 0", score.Overall)
	}
	if len(score.Breakdown) != 0 {
		t.Fatalf("breakdown entries = %d, want 0", len(score.Breakdown))
	}
}

func TestPercentileFor(t *testing.T) {
	cases := []struct {
		score, want int
	}{
		{0, 5},
		{50, 50},
		{90, 86},
		{100, 95},
		{120, 100},
	}
	for _, c := range cases {
		if got := PercentileFor(c.score); got != c.want {
			t.Fatalf("PercentileFor(%d) = %d, want %d", c.score, got, c.want)
		}
	}
	// Deterministic: identical inputs always yield identical output.
	if PercentileFor(73) != PercentileFor(73) {
		t.Fatalf("PercentileFor is not deterministic")
	}
}

func TestDisplayTrait(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"extraversion", "Extraversion"},
		{"General", "General"},
		{"a", "A"},
		{"", ""},
	}
	for _, c := range cases {
		if got := displayTrait(c.in); got != c.want {
			t.Fatalf("displayTrait(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
