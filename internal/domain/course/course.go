package course

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Course is a generated course owned by one user. Chapter order defines the unlock sequence.
type Course struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID     string    `gorm:"column:owner_id;not null;index" json:"owner_id"`
	Topic       string    `gorm:"column:topic;not null" json:"topic"`
	Difficulty  string    `gorm:"column:difficulty;not null" json:"difficulty"`
	Title       string    `gorm:"column:title;not null" json:"title"`
	Description string    `gorm:"column:description;type:text" json:"description"`
	Model       string    `gorm:"column:model" json:"model,omitempty"`

	Chapters []Chapter `gorm:"foreignKey:CourseID;references:ID" json:"chapters"`

	Version   int            `gorm:"column:version;not null;default:0" json:"version"`
	CreatedAt time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Course) TableName() string { return "course" }

func (c *Course) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// Lesson returns the lesson at (ci, li) or nil when either index is out of range.
func (c *Course) Lesson(ci, li int) *Lesson {
	if c == nil || ci < 0 || ci >= len(c.Chapters) {
		return nil
	}
	ch := &c.Chapters[ci]
	if li < 0 || li >= len(ch.Lessons) {
		return nil
	}
	return &ch.Lessons[li]
}

// Chapter holds an ordered list of lessons. Completed mirrors "every lesson completed" and is
// persisted so the false->true transition can be detected exactly once.
type Chapter struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_chapter_course_position,priority:1" json:"course_id"`
	Position    int       `gorm:"column:position;not null;uniqueIndex:idx_chapter_course_position,priority:2" json:"position"`
	Title       string    `gorm:"column:title;not null" json:"title"`
	Description string    `gorm:"column:description;type:text" json:"description"`
	Completed   bool      `gorm:"column:completed;not null;default:false" json:"completed"`

	Lessons []Lesson `gorm:"foreignKey:ChapterID;references:ID" json:"lessons"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Chapter) TableName() string { return "course_chapter" }

func (c *Chapter) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
