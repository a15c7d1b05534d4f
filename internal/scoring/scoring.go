// Package scoring applies the NEET marking scheme to a finished session.
//
// Scores are never clipped at zero: a session with more wrong answers than
// right ones reports a negative score and a negative percentage.
package scoring

import (
	"math"

	"github.com/pavelanni/neetmock/internal/model"
)

// Marking scheme.
const (
	MarksCorrect     = 4
	MarksIncorrect   = -1
	MarksUnattempted = 0
)

// Score turns a question sequence and its answer mapping (position -> option
// index) into a scored result. It does not mutate its inputs and returns
// the same output for the same inputs.
func Score(questions []model.Question, answers map[int]int) model.ScoredResult {
	outcomes := make([]model.QuestionOutcome, len(questions))
	for i, q := range questions {
		o := model.QuestionOutcome{Position: i + 1, Question: q}
		if sel, ok := answers[i]; ok {
			correct := sel == q.Correct
			o.Selected = &sel
			o.Attempted = true
			o.Correct = &correct
		}
		outcomes[i] = o
	}

	return model.ScoredResult{
		Questions: outcomes,
		Summary:   Summarize(outcomes),
		Subjects:  BySubject(outcomes),
	}
}

// Summarize counts outcomes and derives score, percentage and accuracy.
func Summarize(outcomes []model.QuestionOutcome) model.Summary {
	var s model.Summary
	for _, o := range outcomes {
		s.Total++
		switch {
		case !o.Attempted:
			s.Unattempted++
		case o.Correct != nil && *o.Correct:
			s.Correct++
		default:
			s.Incorrect++
		}
	}
	s.Attempted = s.Total - s.Unattempted
	s.Score, s.MaxScore, s.Percentage, s.Accuracy = derive(s.Total, s.Correct, s.Incorrect, s.Unattempted)
	return s
}

// Tally summarizes outcomes reported by a client as plain flags.
func Tally(questions []model.SubmittedQuestion) model.Summary {
	outcomes := make([]model.QuestionOutcome, len(questions))
	for i, q := range questions {
		o := model.QuestionOutcome{Position: i + 1, Attempted: q.IsAttempted}
		if q.IsAttempted {
			correct := q.IsCorrect
			o.Correct = &correct
		}
		outcomes[i] = o
	}
	return Summarize(outcomes)
}

// BySubject groups outcomes by subject label in order of first appearance
// and applies the same formulas to each group.
func BySubject(outcomes []model.QuestionOutcome) []model.SubjectPerformance {
	index := make(map[string]int)
	var perf []model.SubjectPerformance
	for _, o := range outcomes {
		i, ok := index[o.Question.Subject]
		if !ok {
			i = len(perf)
			index[o.Question.Subject] = i
			perf = append(perf, model.SubjectPerformance{Subject: o.Question.Subject})
		}
		p := &perf[i]
		p.Total++
		switch {
		case !o.Attempted:
			p.Unattempted++
		case o.Correct != nil && *o.Correct:
			p.Correct++
		default:
			p.Incorrect++
		}
	}
	for i := range perf {
		p := &perf[i]
		p.Score, p.MaxScore, p.Percentage, p.Accuracy = derive(p.Total, p.Correct, p.Incorrect, p.Unattempted)
	}
	return perf
}

func derive(total, correct, incorrect, unattempted int) (score, maxScore int, percentage, accuracy float64) {
	score = correct*MarksCorrect + incorrect*MarksIncorrect + unattempted*MarksUnattempted
	maxScore = total * MarksCorrect
	if maxScore > 0 {
		percentage = round1(float64(score) / float64(maxScore) * 100)
	}
	if attempted := total - unattempted; attempted > 0 {
		accuracy = round1(float64(correct) / float64(attempted) * 100)
	}
	return score, maxScore, percentage, accuracy
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// GradeInfo is the letter grade shown on the results screen.
type GradeInfo struct {
	Grade   string
	Message string
}

// Grade maps a percentage to a letter grade.
func Grade(percentage float64) GradeInfo {
	switch {
	case percentage >= 90:
		return GradeInfo{"A+", "Outstanding performance!"}
	case percentage >= 80:
		return GradeInfo{"A", "Excellent work!"}
	case percentage >= 70:
		return GradeInfo{"B+", "Very good performance!"}
	case percentage >= 60:
		return GradeInfo{"B", "Good effort!"}
	case percentage >= 50:
		return GradeInfo{"C", "Keep practicing!"}
	case percentage >= 40:
		return GradeInfo{"D", "Needs improvement"}
	default:
		return GradeInfo{"F", "More practice needed"}
	}
}

// HistoryStats summarises a page of saved tests.
type HistoryStats struct {
	Taken   int
	Average float64
	Best    float64
}

// History returns the tests-taken count (the server total) with the
// average and best percentage over the loaded records. Both are zero for
// an empty page.
func History(page model.HistoryPage) HistoryStats {
	st := HistoryStats{Taken: page.Pagination.Total}
	if len(page.History) == 0 {
		return st
	}
	sum := 0.0
	st.Best = page.History[0].Percentage
	for _, r := range page.History {
		sum += r.Percentage
		st.Best = max(st.Best, r.Percentage)
	}
	st.Average = round1(sum / float64(len(page.History)))
	st.Best = round1(st.Best)
	return st
}
