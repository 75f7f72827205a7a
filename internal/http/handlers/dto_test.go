package handlers

import (
	"testing"
	"time"

	"github.com/yungbote/coursecraft-backend/internal/domain/gamification"
)

func TestLedgerDTOActivityDateIsUTC(t *testing.T) {
	stored := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC).In(time.FixedZone("EST", -5*3600))
	dto := toLedgerDTO(&gamification.XPLedger{UserID: "u1", LastActivityDate: &stored})
	if dto.LastActivityDate == nil || *dto.LastActivityDate != "2026-03-10" {
		t.Fatalf("lastActivityDate = %v, want 2026-03-10", dto.LastActivityDate)
	}
	if len(dto.Achievements) != 0 || dto.Achievements == nil {
		t.Fatalf("achievements should encode as an empty list: %#v", dto.Achievements)
	}
}
