package repos

import (
	"github.com/yungbote/coursecraft-backend/internal/data/repos/gamification"
	"github.com/yungbote/coursecraft-backend/internal/data/repos/learning"
	"github.com/yungbote/coursecraft-backend/internal/platform/logger"
	"gorm.io/gorm"
)

type XPLedgerRepo = gamification.XPLedgerRepo
type AchievementRepo = gamification.AchievementRepo
type XPEventRepo = gamification.XPEventRepo

type CourseRepo = learning.CourseRepo

func NewXPLedgerRepo(db *gorm.DB, log *logger.Logger) XPLedgerRepo {
	return gamification.NewXPLedgerRepo(db, log)
}

func NewAchievementRepo(db *gorm.DB, log *logger.Logger) AchievementRepo {
	return gamification.NewAchievementRepo(db, log)
}

func NewXPEventRepo(db *gorm.DB, log *logger.Logger) XPEventRepo {
	return gamification.NewXPEventRepo(db, log)
}

func NewCourseRepo(db *gorm.DB, log *logger.Logger) CourseRepo {
	return learning.NewCourseRepo(db, log)
}
