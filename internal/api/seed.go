package api

import (
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/kickhr/kickhr/internal/models"
)

// SeedPassword is the password every demo account is created with.
const SeedPassword = "kickhr123"

// Seed loads the demo fixtures: the built-in question banks, a demo client
// org, and one account per role. Seeding an already-seeded store is a no-op.
func Seed(store Store) error {
	if store.GetAssessmentType("big-five") != nil {
		return nil
	}
	store.AddAssessmentType(&models.AssessmentType{
		ID:            "big-five",
		Name:          "Big Five Personality Test",
		Description:   "Measures the five major personality traits: Openness, Conscientiousness, Extraversion, Agreeableness, and Neuroticism.",
		Category:      "personality",
		Duration:      10,
		QuestionCount: len(bigFiveStems),
		Icon:          "brain",
	})
	for i, stem := range bigFiveStems {
		id := fmt.Sprintf("bf-%d", i+1)
		store.AddQuestion(&models.Question{
			ID:               id,
			AssessmentTypeID: "big-five",
			Kind:             "likert",
			Text:             stem.text,
			Order:            i + 1,
			Options:          likertOptions(id, stem.trait),
		})
	}

	store.AddAssessmentType(&models.AssessmentType{
		ID:            "spatial-reasoning",
		Name:          "Spatial Reasoning Test",
		Description:   "Evaluates the ability to mentally manipulate 2D and 3D objects.",
		Category:      "aptitude",
		Duration:      10,
		QuestionCount: len(spatialQuestions),
		Icon:          "cube",
	})
	for i, q := range spatialQuestions {
		id := fmt.Sprintf("sp-%d", i+1)
		options := make([]models.Option, 0, len(q.choices))
		for j, choice := range q.choices {
			value := 0
			if j == q.correct {
				value = 5
			}
			options = append(options, models.Option{ID: fmt.Sprintf("%s-%d", id, j+1), Text: choice, Value: value})
		}
		store.AddQuestion(&models.Question{
			ID:               id,
			AssessmentTypeID: "spatial-reasoning",
			Kind:             "multiple-choice",
			Text:             q.text,
			Order:            i + 1,
			Options:          options,
		})
	}

	store.AddCompany(&models.Company{ID: "c-1", Name: "TechCorp Indonesia", Industry: "Technology"})
	store.AddCompany(&models.Company{ID: "c-2", Name: "Bank Nusantara", Industry: "Banking & Finance"})
	store.AddProject(&models.Project{
		ID:          "p-1",
		Name:        "Management Trainee 2024",
		CompanyID:   "c-1",
		Description: "Annual MT recruitment program",
		StartDate:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Status:      "active",
	})
	store.AddProject(&models.Project{
		ID:          "p-2",
		Name:        "Leadership Assessment Q2",
		CompanyID:   "c-2",
		Description: "Quarterly leadership potential assessment",
		StartDate:   time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC),
		Status:      "active",
	})

	hash, err := bcrypt.GenerateFromPassword([]byte(SeedPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	users := []*models.User{
		{ID: "u-admin", Email: "admin@kickhr.com", Name: "Sarah Admin", Role: models.RoleAdmin, Position: "Platform Administrator", Department: "Operations"},
		{ID: "u-assessor", Email: "michael.chen@kickhr.com", Name: "Michael Chen", Role: models.RoleAssessor, Position: "Senior HR Consultant", Department: "Assessment Services"},
		{ID: "u-emily", Email: "emily.johnson@techcorp.com", Name: "Emily Johnson", Role: models.RoleUser, CompanyID: "c-1", ProjectID: "p-1", Position: "Management Trainee Candidate", Department: "Human Resources"},
		{ID: "u-ahmad", Email: "ahmad.rizki@banknusantara.com", Name: "Ahmad Rizki", Role: models.RoleUser, CompanyID: "c-2", ProjectID: "p-2", Position: "Branch Manager Candidate", Department: "Branch Operations"},
	}
	now := time.Now().UTC()
	for _, u := range users {
		u.PassHash = hash
		u.CreatedAt = now
		if err := store.AddUser(u); err != nil {
			return err
		}
	}
	return nil
}

type bigFiveStem struct {
	text  string
	trait string
}

// Two items per trait from the IPIP-BFFM pool.
var bigFiveStems = []bigFiveStem{
	{"I am the life of the party.", "extraversion"},
	{"I feel comfortable around people.", "extraversion"},
	{"I feel others' emotions.", "agreeableness"},
	{"I sympathize with others' feelings.", "agreeableness"},
	{"I am always prepared.", "conscientiousness"},
	{"I pay attention to details.", "conscientiousness"},
	{"I get stressed out easily.", "neuroticism"},
	{"I worry about things.", "neuroticism"},
	{"I have a vivid imagination.", "openness"},
	{"I am quick to understand things.", "openness"},
}

var likertLabels = []string{"Strongly Disagree", "Disagree", "Neutral", "Agree", "Strongly Agree"}

func likertOptions(questionID, trait string) []models.Option {
	out := make([]models.Option, 0, len(likertLabels))
	for i, label := range likertLabels {
		out = append(out, models.Option{
			ID:    fmt.Sprintf("%s-%d", questionID, i+1),
			Text:  label,
			Value: i + 1,
			Trait: trait,
		})
	}
	return out
}

type spatialQuestion struct {
	text    string
	choices []string
	correct int
}

var spatialQuestions = []spatialQuestion{
	{"Which shape completes the pattern when the figure is rotated 90 degrees clockwise?", []string{"Shape A", "Shape B", "Shape C", "Shape D"}, 2},
	{"Which of the following is the mirror image of the given figure?", []string{"Figure A", "Figure B", "Figure C", "Figure D"}, 0},
	{"If the flat pattern is folded into a cube, which cube can be formed?", []string{"Cube A", "Cube B", "Cube C", "Cube D"}, 3},
	{"How many blocks make up the stacked figure, including hidden ones?", []string{"9", "10", "11", "12"}, 1},
	{"Which piece fits into the empty space to complete the square?", []string{"Piece A", "Piece B", "Piece C", "Piece D"}, 2},
}
