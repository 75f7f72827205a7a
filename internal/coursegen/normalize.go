package coursegen

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/yungbote/coursecraft-backend/internal/domain/course"
	"gorm.io/datatypes"
)

const (
	DefaultLessonXP       = 10
	maxLessonXP           = 100
	maxQuestionsPerQuiz   = 10
	maxOptionsPerQuestion = 6
)

var errNoLessons = errors.New("generated course has no usable lessons")

type rawCourse struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Chapters    []rawChapter `json:"chapters"`
}

type rawChapter struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Lessons     []rawLesson `json:"lessons"`
}

type rawLesson struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	XP      int64    `json:"xp"`
	Quiz    *rawQuiz `json:"quiz"`
}

type rawQuiz struct {
	Title     string        `json:"title"`
	Questions []rawQuestion `json:"questions"`
}

type rawQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
	Explanation   string   `json:"explanation"`
}

// normalize trims text, fills defaults, caps counts to what was requested and drops quiz
// questions that cannot be graded. Chapters left without lessons are dropped.
func normalize(raw rawCourse, p Params) (*course.Course, error) {
	c := &course.Course{
		Topic:       p.Topic,
		Difficulty:  p.Difficulty,
		Title:       clean(raw.Title),
		Description: clean(raw.Description),
	}
	if c.Title == "" {
		c.Title = p.Topic
	}

	chapters := raw.Chapters
	if len(chapters) > p.ChapterCount {
		chapters = chapters[:p.ChapterCount]
	}
	for _, rc := range chapters {
		ch := course.Chapter{Title: clean(rc.Title), Description: clean(rc.Description)}
		lessons := rc.Lessons
		if len(lessons) > p.LessonsPerChapter {
			lessons = lessons[:p.LessonsPerChapter]
		}
		for _, rl := range lessons {
			l, ok, err := normalizeLesson(rl)
			if err != nil {
				return nil, err
			}
			if ok {
				l.Position = len(ch.Lessons)
				if l.Title == "" {
					l.Title = fmt.Sprintf("Lesson %d", l.Position+1)
				}
				ch.Lessons = append(ch.Lessons, l)
			}
		}
		if len(ch.Lessons) == 0 {
			continue
		}
		ch.Position = len(c.Chapters)
		if ch.Title == "" {
			ch.Title = fmt.Sprintf("Chapter %d", ch.Position+1)
		}
		c.Chapters = append(c.Chapters, ch)
	}
	if len(c.Chapters) == 0 {
		return nil, errNoLessons
	}
	return c, nil
}

func normalizeLesson(rl rawLesson) (course.Lesson, bool, error) {
	l := course.Lesson{Title: clean(rl.Title), Content: strings.TrimSpace(rl.Content), XP: rl.XP}
	if l.Title == "" && l.Content == "" {
		return l, false, nil
	}
	switch {
	case l.XP <= 0:
		l.XP = DefaultLessonXP
	case l.XP > maxLessonXP:
		l.XP = maxLessonXP
	}
	if rl.Quiz == nil {
		return l, true, nil
	}
	q := course.Quiz{Title: clean(rl.Quiz.Title)}
	for _, rq := range rl.Quiz.Questions {
		if nq, ok := normalizeQuestion(rq); ok {
			q.Questions = append(q.Questions, nq)
			if len(q.Questions) == maxQuestionsPerQuiz {
				break
			}
		}
	}
	if len(q.Questions) == 0 {
		return l, true, nil
	}
	raw, err := json.Marshal(q)
	if err != nil {
		return l, false, fmt.Errorf("encode quiz: %w", err)
	}
	l.Quiz = datatypes.JSON(raw)
	return l, true, nil
}

// normalizeQuestion rejects questions with fewer than two distinct options or whose answer
// is not one of them. A single-letter answer ("B") is read as an option index.
func normalizeQuestion(rq rawQuestion) (course.Question, bool) {
	text := clean(rq.Question)
	if text == "" {
		return course.Question{}, false
	}
	seen := map[string]struct{}{}
	opts := make([]string, 0, len(rq.Options))
	for _, o := range rq.Options {
		o = clean(o)
		if o == "" {
			continue
		}
		key := strings.ToLower(o)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		opts = append(opts, o)
		if len(opts) == maxOptionsPerQuestion {
			break
		}
	}
	if len(opts) < 2 {
		return course.Question{}, false
	}
	answer, ok := matchAnswer(clean(rq.CorrectAnswer), opts)
	if !ok {
		return course.Question{}, false
	}
	return course.Question{Text: text, Options: opts, CorrectAnswer: answer, Explanation: clean(rq.Explanation)}, true
}

func matchAnswer(ans string, opts []string) (string, bool) {
	if ans == "" {
		return "", false
	}
	for _, o := range opts {
		if strings.EqualFold(o, ans) {
			return o, true
		}
	}
	if len(ans) == 1 {
		idx := int(strings.ToUpper(ans)[0]) - 'A'
		if idx >= 0 && idx < len(opts) {
			return opts[idx], true
		}
	}
	return "", false
}

// clean trims and collapses internal whitespace runs.
func clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
