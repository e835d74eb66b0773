// Package scoring computes mock-test scores. It is pure arithmetic over
// in-memory data; persistence and transport live elsewhere.
package scoring

import (
	"math"

	"eduplatform/backend/models"
)

type Summary struct {
	Correct       int     `json:"correct"`
	Wrong         int     `json:"wrong"`
	Total         int     `json:"total"`
	Attempted     int     `json:"attempted"`
	TotalMarks    float64 `json:"totalMarks"`
	ObtainedMarks float64 `json:"obtainedMarks"`
	Percentage    int     `json:"percentage"`
}

// Score grades a sparse answers mapping (question index -> chosen option)
// against an ordered question list.
//
// A question with marks <= 0 counts as 1 mark. A wrong attempt deducts the
// question's negative marks; obtained marks never go below zero. Unattempted
// questions earn nothing but still count toward Wrong, which is defined as
// Total - Correct. An empty question set scores 0%.
func Score(answers map[int]int, questions []models.Question) Summary {
	s := Summary{Total: len(questions)}

	for i, q := range questions {
		marks := q.Marks
		if marks <= 0 {
			marks = 1
		}
		s.TotalMarks += marks

		selected, ok := answers[i]
		if !ok {
			continue
		}
		s.Attempted++
		if selected == q.AnswerIndex {
			s.Correct++
			s.ObtainedMarks += marks
		} else if q.NegativeMarks > 0 {
			s.ObtainedMarks -= q.NegativeMarks
		}
	}

	if s.ObtainedMarks < 0 {
		s.ObtainedMarks = 0
	}
	s.Wrong = s.Total - s.Correct
	if s.TotalMarks > 0 {
		s.Percentage = int(math.Round(s.ObtainedMarks / s.TotalMarks * 100))
	}
	return s
}
