package app

import (
	"html"
	"math/rand"

	"quizmaster/internal/domain"
	"quizmaster/internal/opentdb"
)

// Normalizer turns raw upstream questions into plain-text domain questions
// with shuffled answers. The random source is injected so tests can pin the
// shuffle; callers share one instance per session, not across goroutines.
type Normalizer struct {
	rnd *rand.Rand
}

// NewNormalizer builds a normalizer around the given random source.
func NewNormalizer(rnd *rand.Rand) *Normalizer {
	return &Normalizer{rnd: rnd}
}

// Normalize decodes HTML entities in every text field and builds the
// shuffled answer list. Duplicate answer text coming from upstream is kept
// verbatim; matching stays by string equality.
func (n *Normalizer) Normalize(raw []opentdb.RawQuestion) []domain.Question {
	questions := make([]domain.Question, 0, len(raw))
	for _, item := range raw {
		questions = append(questions, n.normalizeOne(item))
	}
	return questions
}

func (n *Normalizer) normalizeOne(raw opentdb.RawQuestion) domain.Question {
	correct := html.UnescapeString(raw.CorrectAnswer)

	answers := make([]string, 0, len(raw.IncorrectAnswers)+1)
	for _, incorrect := range raw.IncorrectAnswers {
		answers = append(answers, html.UnescapeString(incorrect))
	}
	answers = append(answers, correct)

	n.rnd.Shuffle(len(answers), func(i, j int) {
		answers[i], answers[j] = answers[j], answers[i]
	})

	return domain.Question{
		Text:          html.UnescapeString(raw.Question),
		Category:      html.UnescapeString(raw.Category),
		Difficulty:    domain.Difficulty(raw.Difficulty),
		CorrectAnswer: correct,
		Answers:       answers,
	}
}
