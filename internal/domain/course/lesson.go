package course

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Lesson struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID  uuid.UUID `gorm:"type:uuid;not null;index" json:"course_id"`
	ChapterID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_lesson_chapter_position,priority:1" json:"chapter_id"`
	Position  int       `gorm:"column:position;not null;uniqueIndex:idx_lesson_chapter_position,priority:2" json:"position"`

	Title   string         `gorm:"column:title;not null" json:"title"`
	Content string         `gorm:"column:content;type:text" json:"content"`
	XP      int64          `gorm:"column:xp;not null;default:0" json:"xp"`
	Quiz    datatypes.JSON `gorm:"column:quiz" json:"quiz,omitempty"`

	Completed   bool       `gorm:"column:completed;not null;default:false" json:"completed"`
	Attempts    int        `gorm:"column:attempts;not null;default:0" json:"attempts"`
	QuizScore   *int       `gorm:"column:quiz_score" json:"quiz_score,omitempty"`
	QuizPassed  bool       `gorm:"column:quiz_passed;not null;default:false" json:"quiz_passed"`
	CompletedAt *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Lesson) TableName() string { return "course_lesson" }

func (l *Lesson) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

type Quiz struct {
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
}

type Question struct {
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
	Explanation   string   `json:"explanation,omitempty"`
}

// HasQuiz reports whether a quiz with at least one question is attached.
func (l *Lesson) HasQuiz() bool {
	q, err := l.QuizData()
	return err == nil && q != nil && len(q.Questions) > 0
}

// QuizData decodes the quiz column. A missing quiz yields (nil, nil).
func (l *Lesson) QuizData() (*Quiz, error) {
	raw := []byte(l.Quiz)
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var q Quiz
	if err := json.Unmarshal(raw, &q); err != nil {
		return nil, fmt.Errorf("decode lesson quiz: %w", err)
	}
	return &q, nil
}

func (l *Lesson) SetQuiz(q *Quiz) error {
	if q == nil {
		l.Quiz = nil
		return nil
	}
	raw, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("encode lesson quiz: %w", err)
	}
	l.Quiz = datatypes.JSON(raw)
	return nil
}
