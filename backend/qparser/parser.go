// Package qparser converts the pipe-delimited question text format into
// structured question records.
//
// Blocks are separated by a literal "---" line. Within a block each line
// starts with a tag:
//
//	|Q|What is 2+2?
//	|A|3
//	|B|4
//	|ANS|B
//	|EXP|basic math
//	|MARKS|2
//	|NEGATIVE|0.5
//
// Lines without a known tag are ignored.
package qparser

import (
	"strconv"
	"strings"

	"eduplatform/backend/models"
)

const (
	DefaultMarks    = 1
	DefaultNegative = 0.25
)

type Options struct {
	// Strict drops any block whose |ANS| is missing or not one of A-D.
	// Lenient mode keeps such blocks with AnswerIndex = -1.
	Strict bool

	DefaultMarks    float64
	DefaultNegative float64
}

func (o Options) withDefaults() Options {
	if o.DefaultMarks == 0 {
		o.DefaultMarks = DefaultMarks
	}
	if o.DefaultNegative == 0 {
		o.DefaultNegative = DefaultNegative
	}
	return o
}

var optionSlots = []string{"|A|", "|B|", "|C|", "|D|"}

// Parse extracts questions from raw text. Malformed blocks are dropped
// silently; malformed numeric fields fall back to their defaults.
func Parse(raw string, opts Options) []models.Question {
	opts = opts.withDefaults()

	var questions []models.Question
	for _, block := range strings.Split(raw, "---") {
		if q, ok := parseBlock(block, opts); ok {
			questions = append(questions, q)
		}
	}
	return questions
}

func parseBlock(block string, opts Options) (models.Question, bool) {
	q := models.Question{
		AnswerIndex:   -1,
		Marks:         opts.DefaultMarks,
		NegativeMarks: opts.DefaultNegative,
	}

	var slots [4]string
	var present [4]bool
	answerSlot := -1

	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "|Q|"):
			q.Text = strings.TrimSpace(strings.TrimPrefix(line, "|Q|"))
		case strings.HasPrefix(line, "|ANS|"):
			answerSlot = letterToSlot(strings.TrimSpace(strings.TrimPrefix(line, "|ANS|")))
		case strings.HasPrefix(line, "|EXP|"):
			q.Explanation = strings.TrimSpace(strings.TrimPrefix(line, "|EXP|"))
		case strings.HasPrefix(line, "|SECTION|"):
			q.Section = strings.TrimSpace(strings.TrimPrefix(line, "|SECTION|"))
		case strings.HasPrefix(line, "|MARKS|"):
			q.Marks = parseDecimal(strings.TrimPrefix(line, "|MARKS|"), opts.DefaultMarks)
		case strings.HasPrefix(line, "|NEGATIVE|"):
			q.NegativeMarks = parseDecimal(strings.TrimPrefix(line, "|NEGATIVE|"), opts.DefaultNegative)
		default:
			for i, tag := range optionSlots {
				if strings.HasPrefix(line, tag) {
					text := strings.TrimSpace(strings.TrimPrefix(line, tag))
					if text != "" {
						slots[i] = text
						present[i] = true
					}
					break
				}
			}
		}
	}

	// Compact the fixed A-D slots; the answer letter must land on a slot
	// that actually holds an option.
	for i := 0; i < 4; i++ {
		if !present[i] {
			continue
		}
		if i == answerSlot {
			q.AnswerIndex = len(q.Options)
		}
		q.Options = append(q.Options, slots[i])
	}

	if q.Text == "" || len(q.Options) < 2 {
		return models.Question{}, false
	}
	if opts.Strict && q.AnswerIndex < 0 {
		return models.Question{}, false
	}
	return q, true
}

func letterToSlot(letter string) int {
	switch strings.ToUpper(letter) {
	case "A":
		return 0
	case "B":
		return 1
	case "C":
		return 2
	case "D":
		return 3
	}
	return -1
}

func parseDecimal(s string, fallback float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}
