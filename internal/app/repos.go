package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/coursecraft-backend/internal/data/repos"
	"github.com/yungbote/coursecraft-backend/internal/platform/logger"
)

type Repos struct {
	Ledgers      repos.XPLedgerRepo
	Achievements repos.AchievementRepo
	XPEvents     repos.XPEventRepo
	Courses      repos.CourseRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Ledgers:      repos.NewXPLedgerRepo(db, log),
		Achievements: repos.NewAchievementRepo(db, log),
		XPEvents:     repos.NewXPEventRepo(db, log),
		Courses:      repos.NewCourseRepo(db, log),
	}
}
