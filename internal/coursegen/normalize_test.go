package coursegen

import (
	"testing"
)

func params() Params {
	return Params{Topic: "Go", Difficulty: "beginner", ChapterCount: 2, LessonsPerChapter: 2}
}

func TestNormalizeDefaultsAndCaps(t *testing.T) {
	raw := rawCourse{
		Title: "  Learning   Go ",
		Chapters: []rawChapter{
			{Title: "Basics", Lessons: []rawLesson{
				{Title: " Vars ", Content: "x := 1", XP: 0},
				{Title: "Funcs", Content: "func f()", XP: 500},
				{Title: "Extra", Content: "dropped by cap", XP: 5},
			}},
			{Title: "", Lessons: []rawLesson{{Title: "Loops", Content: "for {}", XP: 20}}},
			{Title: "Third", Lessons: []rawLesson{{Title: "Cut", Content: "cut"}}},
		},
	}
	c, err := normalize(raw, params())
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if c.Title != "Learning Go" || c.Topic != "Go" {
		t.Fatalf("title/topic = %q/%q", c.Title, c.Topic)
	}
	if len(c.Chapters) != 2 {
		t.Fatalf("chapters = %d, want 2", len(c.Chapters))
	}
	first := c.Chapters[0]
	if len(first.Lessons) != 2 {
		t.Fatalf("lessons = %d, want 2", len(first.Lessons))
	}
	if first.Lessons[0].Title != "Vars" || first.Lessons[0].XP != DefaultLessonXP {
		t.Fatalf("lesson 0 = %+v", first.Lessons[0])
	}
	if first.Lessons[1].XP != maxLessonXP || first.Lessons[1].Position != 1 {
		t.Fatalf("lesson 1 = %+v", first.Lessons[1])
	}
	if c.Chapters[1].Title != "Chapter 2" || c.Chapters[1].Position != 1 {
		t.Fatalf("chapter 1 = %+v", c.Chapters[1])
	}
}

func TestNormalizeQuizQuestions(t *testing.T) {
	raw := rawCourse{Title: "Go", Chapters: []rawChapter{{Title: "A", Lessons: []rawLesson{{
		Title:   "L",
		Content: "c",
		Quiz: &rawQuiz{Questions: []rawQuestion{
			{Question: "ok", Options: []string{"a", "b", "c"}, CorrectAnswer: " B "},
			{Question: "letter", Options: []string{"yes", "no"}, CorrectAnswer: "B"},
			{Question: "one option", Options: []string{"only", " only "}, CorrectAnswer: "only"},
			{Question: "missing answer", Options: []string{"x", "y"}, CorrectAnswer: "z"},
			{Question: "", Options: []string{"x", "y"}, CorrectAnswer: "x"},
		}},
	}}}}}
	c, err := normalize(raw, params())
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	q, err := c.Chapters[0].Lessons[0].QuizData()
	if err != nil || q == nil {
		t.Fatalf("QuizData = %v, %v", q, err)
	}
	if len(q.Questions) != 2 {
		t.Fatalf("questions = %d, want 2", len(q.Questions))
	}
	if q.Questions[0].CorrectAnswer != "b" || q.Questions[1].CorrectAnswer != "no" {
		t.Fatalf("answers = %q, %q", q.Questions[0].CorrectAnswer, q.Questions[1].CorrectAnswer)
	}
}

func TestNormalizeDropsQuizWithoutGradableQuestions(t *testing.T) {
	raw := rawCourse{Title: "Go", Chapters: []rawChapter{{Title: "A", Lessons: []rawLesson{{
		Title: "L", Content: "c",
		Quiz: &rawQuiz{Questions: []rawQuestion{{Question: "q", Options: []string{"x"}, CorrectAnswer: "x"}}},
	}}}}}
	c, err := normalize(raw, params())
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if c.Chapters[0].Lessons[0].HasQuiz() {
		t.Fatalf("expected lesson without quiz")
	}
}

func TestNormalizeRejectsEmptyCourse(t *testing.T) {
	raw := rawCourse{Title: "Go", Chapters: []rawChapter{{Title: "A", Lessons: []rawLesson{{}}}}}
	if _, err := normalize(raw, params()); err == nil {
		t.Fatalf("expected error for course without lessons")
	}
}

func TestParamsNormalize(t *testing.T) {
	p, err := Params{Topic: "  Rust  ", ChapterCount: 50}.Normalize()
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if p.Topic != "Rust" || p.Difficulty != "beginner" || p.ChapterCount != MaxChapterCount || p.LessonsPerChapter != DefaultLessonsPerChapter {
		t.Fatalf("params = %+v", p)
	}
	if _, err := (Params{Topic: " "}).Normalize(); err == nil {
		t.Fatalf("expected blank topic error")
	}
	if _, err := (Params{Topic: "x", Difficulty: "expert"}).Normalize(); err == nil {
		t.Fatalf("expected difficulty error")
	}
}
