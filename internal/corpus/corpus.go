package corpus

import (
	"sort"
	"strconv"

	"github.com/pavelanni/neetmock/internal/model"
)

// ChapterInfo describes a chapter for selection screens.
type ChapterInfo struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Subject       string   `json:"subject"`
	SubjectKey    string   `json:"subjectKey"`
	Icon          string   `json:"icon"`
	Topics        []string `json:"topics"`
	QuestionCount int      `json:"questionCount"`
}

// Corpus is the immutable question bank with pools indexed at construction.
type Corpus struct {
	subjects  []model.Subject
	chapters  map[string][]ChapterInfo
	bySubject map[string][]model.Question
	byChapter map[string][]model.Question
	all       []model.Question
}

// New indexes the given subjects. Chapter IDs are "<subjectKey>_<chapterKey>"
// and every question is labelled with its subject and chapter names.
func New(subjects []model.Subject) *Corpus {
	c := &Corpus{
		chapters:  make(map[string][]ChapterInfo),
		bySubject: make(map[string][]model.Question),
		byChapter: make(map[string][]model.Question),
	}
	for _, s := range subjects {
		keys := make([]string, 0, len(s.Chapters))
		for k := range s.Chapters {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		subj := model.Subject{Key: s.Key, Name: s.Name, Icon: s.Icon, Chapters: make(map[string]*model.Chapter, len(keys))}
		for _, k := range keys {
			ch := s.Chapters[k]
			if ch == nil {
				continue
			}
			id := s.Key + "_" + k
			qs := make([]model.Question, 0, len(ch.Questions))
			for i, q := range ch.Questions {
				q.Subject = s.Name
				q.Chapter = ch.Name
				q.ChapterID = id
				if q.ID == "" {
					q.ID = id + "_" + strconv.Itoa(i+1)
				}
				q.Options = append([]string(nil), q.Options...)
				qs = append(qs, q)
			}
			subj.Chapters[k] = &model.Chapter{
				ID:         id,
				SubjectKey: s.Key,
				Name:       ch.Name,
				Topics:     append([]string(nil), ch.Topics...),
				Questions:  qs,
			}
			c.byChapter[id] = qs
			c.bySubject[s.Key] = append(c.bySubject[s.Key], qs...)
			c.all = append(c.all, qs...)
			c.chapters[s.Key] = append(c.chapters[s.Key], ChapterInfo{
				ID:            id,
				Name:          ch.Name,
				Subject:       s.Name,
				SubjectKey:    s.Key,
				Icon:          s.Icon,
				Topics:        append([]string(nil), ch.Topics...),
				QuestionCount: len(qs),
			})
		}
		c.subjects = append(c.subjects, subj)
	}
	return c
}

// Subjects returns the subjects in load order.
func (c *Corpus) Subjects() []model.Subject {
	return append([]model.Subject(nil), c.subjects...)
}

// Subject looks a subject up by key.
func (c *Corpus) Subject(key string) (model.Subject, bool) {
	for _, s := range c.subjects {
		if s.Key == key {
			return s, true
		}
	}
	return model.Subject{}, false
}

// Chapters lists the chapters of one subject with their question counts.
func (c *Corpus) Chapters(subjectKey string) []ChapterInfo {
	return append([]ChapterInfo(nil), c.chapters[subjectKey]...)
}

// AllChapters lists every chapter across subjects.
func (c *Corpus) AllChapters() []ChapterInfo {
	var out []ChapterInfo
	for _, s := range c.subjects {
		out = append(out, c.chapters[s.Key]...)
	}
	return out
}

// QuestionsForChapters resolves chapter IDs to the union of their questions.
// Unknown and duplicate IDs are ignored.
func (c *Corpus) QuestionsForChapters(ids []string) []model.Question {
	seen := make(map[string]bool, len(ids))
	var out []model.Question
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, c.byChapter[id]...)
	}
	return out
}

// SubjectPool returns a copy of every question of a subject.
func (c *Corpus) SubjectPool(subjectKey string) []model.Question {
	return append([]model.Question(nil), c.bySubject[subjectKey]...)
}

// All returns a copy of every question in the corpus.
func (c *Corpus) All() []model.Question {
	return append([]model.Question(nil), c.all...)
}

// TotalCount returns the number of questions in the corpus.
func (c *Corpus) TotalCount() int {
	return len(c.all)
}

// SubjectCounts returns question counts keyed by subject display name.
func (c *Corpus) SubjectCounts() map[string]int {
	counts := make(map[string]int, len(c.subjects))
	for _, s := range c.subjects {
		counts[s.Name] = len(c.bySubject[s.Key])
	}
	return counts
}

// YearCounts returns question counts keyed by source year. Questions
// without a year are not counted.
func (c *Corpus) YearCounts() map[int]int {
	counts := make(map[int]int)
	for _, q := range c.all {
		if q.Year != 0 {
			counts[q.Year]++
		}
	}
	return counts
}

// QuestionsByYear returns the questions that appeared in the given year.
func (c *Corpus) QuestionsByYear(year int) []model.Question {
	var out []model.Question
	for _, q := range c.all {
		if q.Year == year {
			out = append(out, q)
		}
	}
	return out
}
