package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	domainagg "github.com/yungbote/coursecraft-backend/internal/domain/aggregates"
	"github.com/yungbote/coursecraft-backend/internal/http/response"
	"github.com/yungbote/coursecraft-backend/internal/platform/logger"
	"github.com/yungbote/coursecraft-backend/internal/progression"
	"github.com/yungbote/coursecraft-backend/internal/services"
)

type XPHandler struct {
	log *logger.Logger
	xp  services.XPService
}

func NewXPHandler(log *logger.Logger, xp services.XPService) *XPHandler {
	return &XPHandler{log: log.With("handler", "XPHandler"), xp: xp}
}

type addXPRequest struct {
	UserID   string `json:"userId" binding:"required,notblank"`
	Amount   int64  `json:"amount" binding:"max=1000000"`
	Source   string `json:"source" binding:"max=64"`
	SourceID string `json:"sourceId" binding:"max=128"`
}

type achievementRequest struct {
	UserID      string `json:"userId" binding:"required,notblank"`
	Name        string `json:"name" binding:"required,notblank,max=120"`
	Description string `json:"description" binding:"max=500"`
	XPReward    int64  `json:"xpReward" binding:"min=0,max=1000000"`
}

// GET /api/xp/:userId
func (h *XPHandler) GetLedger(c *gin.Context) {
	userID := c.Param("userId")
	if !requireSelf(c, userID) {
		return
	}
	l, err := h.xp.Ledger(c.Request.Context(), userID)
	if err != nil {
		h.log.Warn("GetLedger failed", "user_id", userID, "error", err)
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, toLedgerDTO(l))
}

// POST /api/xp/add
func (h *XPHandler) AddXP(c *gin.Context) {
	var req addXPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondBindError(c, err)
		return
	}
	if !requireSelf(c, req.UserID) {
		return
	}
	res, err := h.xp.AddXP(c.Request.Context(), domainagg.AwardXPInput{
		UserID:   req.UserID,
		Amount:   req.Amount,
		Source:   req.Source,
		SourceID: req.SourceID,
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"leveledUp":     res.XP.LeveledUp,
		"newLevel":      res.XP.NewLevel,
		"totalXP":       res.Ledger.TotalXP,
		"currentLevel":  res.Ledger.CurrentLevel,
		"xpToNextLevel": res.Ledger.XPToNextLevel,
	})
}

// POST /api/xp/streak/:userId
func (h *XPHandler) UpdateStreak(c *gin.Context) {
	userID := c.Param("userId")
	if !requireSelf(c, userID) {
		return
	}
	res, err := h.xp.UpdateStreak(c.Request.Context(), userID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, toStreakDTO(res.Streak, res.BonusXP))
}

// POST /api/xp/achievement
func (h *XPHandler) GrantAchievement(c *gin.Context) {
	var req achievementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondBindError(c, err)
		return
	}
	if !requireSelf(c, req.UserID) {
		return
	}
	res, err := h.xp.GrantAchievement(c.Request.Context(), domainagg.GrantAchievementInput{
		UserID:      req.UserID,
		Name:        req.Name,
		Description: req.Description,
		XPReward:    req.XPReward,
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	out := gin.H{
		"achievement": toAchievementDTO(res.Achievement),
		"leveledUp":   false,
		"newLevel":    res.Ledger.CurrentLevel,
		"totalXP":     res.Ledger.TotalXP,
	}
	if res.XP != nil {
		out["leveledUp"] = res.XP.LeveledUp
		out["newLevel"] = res.XP.NewLevel
	}
	response.RespondOK(c, out)
}

// GET /api/leaderboard?limit=N&offset=M
func (h *XPHandler) Leaderboard(c *gin.Context) {
	limit := queryInt(c, "limit", services.DefaultLeaderboardLimit)
	offset := queryInt(c, "offset", 0)
	rows, err := h.xp.Leaderboard(c.Request.Context(), limit, offset)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"leaderboard": toLeaderboardDTO(rows)})
}

// GET /api/xp/rank/:userId
func (h *XPHandler) Rank(c *gin.Context) {
	userID := c.Param("userId")
	rank, err := h.xp.Rank(c.Request.Context(), userID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"userId": userID, "rank": rank})
}

// GET /api/xp/:userId/history?limit=N
func (h *XPHandler) History(c *gin.Context) {
	userID := c.Param("userId")
	if !requireSelf(c, userID) {
		return
	}
	rows, err := h.xp.History(c.Request.Context(), userID, queryInt(c, "limit", 50))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	out := make([]xpEventDTO, 0, len(rows))
	for _, ev := range rows {
		out = append(out, xpEventDTO{
			Amount:      ev.Amount,
			Source:      ev.Source,
			SourceID:    ev.SourceID,
			LevelBefore: ev.LevelBefore,
			LevelAfter:  ev.LevelAfter,
			CreatedAt:   ev.CreatedAt,
		})
	}
	response.RespondOK(c, gin.H{"history": out})
}

func toLeaderboardDTO(rows []progression.LeaderboardEntry) []leaderboardEntryDTO {
	out := make([]leaderboardEntryDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, leaderboardEntryDTO{
			Rank:         r.Rank,
			UserID:       r.UserID,
			TotalXP:      r.TotalXP,
			CurrentLevel: r.CurrentLevel,
		})
	}
	return out
}

// queryInt parses an integer query parameter, falling back to def when absent or malformed.
func queryInt(c *gin.Context, key string, def int) int {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
