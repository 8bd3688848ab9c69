package services

import (
	"sync"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/reelworth/reelworth_api/model"
)

func newQuotaTestService(t *testing.T, dailyLimit, batchLimit int) *QuotaService {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := db.AutoMigrate(&model.ProviderAPIUsage{}); err != nil {
		t.Fatal(err)
	}
	return &QuotaService{
		dailyLimit: dailyLimit,
		batchLimit: batchLimit,
		sqlSvc:     &SqliteService{db: db},
	}
}

func TestQuotaAllowsUntilLimit(t *testing.T) {
	svc := newQuotaTestService(t, 3, 2)

	for i := 0; i < 3; i++ {
		if !svc.CanMakeRequest("item_search", false) {
			t.Fatalf("request %d should be allowed", i+1)
		}
		svc.RecordRequest("item_search", true)
	}
	if svc.CanMakeRequest("item_search", false) {
		t.Fatal("limit reached, request should be refused")
	}
}

func TestQuotaBatchSubLimit(t *testing.T) {
	svc := newQuotaTestService(t, 3, 2)

	svc.RecordRequest("item_search", true)
	svc.RecordRequest("item_search", true)

	if svc.CanMakeRequest("item_search", true) {
		t.Fatal("batch calls stop at the batch sub-limit")
	}
	if !svc.CanMakeRequest("item_search", false) {
		t.Fatal("interactive calls keep the reserve above the batch sub-limit")
	}
}

func TestQuotaEndpointsIndependent(t *testing.T) {
	svc := newQuotaTestService(t, 1, 1)

	svc.RecordRequest("item_search", true)
	if svc.CanMakeRequest("item_search", false) {
		t.Fatal("item_search exhausted")
	}
	if !svc.CanMakeRequest("item_insights", false) {
		t.Fatal("item_insights has its own allowance")
	}
}

func TestQuotaFailedCallsStillCount(t *testing.T) {
	svc := newQuotaTestService(t, 2, 2)

	svc.RecordRequest("item_search", false)
	svc.RecordRequest("item_search", false)
	if svc.CanMakeRequest("item_search", false) {
		t.Fatal("failed upstream calls consume quota too")
	}
}

func TestQuotaLimitHitFlag(t *testing.T) {
	svc := newQuotaTestService(t, 2, 2)

	svc.RecordRequest("item_search", true)
	svc.RecordRequest("item_search", true)

	var row model.ProviderAPIUsage
	if err := svc.sqlSvc.Db().Where("endpoint = ?", "item_search").First(&row).Error; err != nil {
		t.Fatal(err)
	}
	if row.CallsMade != 2 {
		t.Errorf("CallsMade = %d, want 2", row.CallsMade)
	}
	if !row.DailyLimitHit {
		t.Error("DailyLimitHit not set after reaching the limit")
	}
}

func TestQuotaCheckDoesNotWrite(t *testing.T) {
	svc := newQuotaTestService(t, 5, 5)

	for i := 0; i < 10; i++ {
		svc.CanMakeRequest("item_search", false)
	}

	var count int64
	svc.sqlSvc.Db().Model(&model.ProviderAPIUsage{}).Count(&count)
	if count != 0 {
		t.Fatalf("CanMakeRequest created %d rows, want 0", count)
	}
}

func TestQuotaDateRollover(t *testing.T) {
	svc := newQuotaTestService(t, 2, 2)

	day1 := time.Date(2026, 8, 28, 23, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return day1 }

	svc.RecordRequest("item_search", true)
	svc.RecordRequest("item_search", true)
	if svc.CanMakeRequest("item_search", false) {
		t.Fatal("day one allowance exhausted")
	}

	// Two hours later it is a new UTC date.
	svc.now = func() time.Time { return day1.Add(2 * time.Hour) }
	if !svc.CanMakeRequest("item_search", false) {
		t.Fatal("a new UTC date starts a fresh allowance")
	}

	svc.RecordRequest("item_search", true)
	var prior model.ProviderAPIUsage
	err := svc.sqlSvc.Db().
		Where("date = ? AND endpoint = ?", "2026-08-28", "item_search").
		First(&prior).Error
	if err != nil {
		t.Fatal(err)
	}
	if prior.CallsMade != 2 {
		t.Errorf("prior-date calls_made = %d, want 2", prior.CallsMade)
	}
}

func TestQuotaConcurrentRecordsCountExactly(t *testing.T) {
	svc := newQuotaTestService(t, 100, 100)

	const n = 20
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			svc.RecordRequest("item_search", true)
		}()
	}
	wg.Wait()

	var row model.ProviderAPIUsage
	if err := svc.sqlSvc.Db().Where("endpoint = ?", "item_search").First(&row).Error; err != nil {
		t.Fatal(err)
	}
	if row.CallsMade != n {
		t.Fatalf("calls_made = %d, want %d", row.CallsMade, n)
	}
}

func TestQuotaReset(t *testing.T) {
	svc := newQuotaTestService(t, 1, 1)

	svc.RecordRequest("item_search", true)
	if svc.CanMakeRequest("item_search", false) {
		t.Fatal("exhausted before reset")
	}
	if err := svc.Reset("item_search"); err != nil {
		t.Fatal(err)
	}
	if !svc.CanMakeRequest("item_search", false) {
		t.Fatal("reset should restore the allowance")
	}
}

func TestQuotaRefusesOnDatabaseError(t *testing.T) {
	svc := newQuotaTestService(t, 5, 5)
	sqlDB, err := svc.sqlSvc.Db().DB()
	if err != nil {
		t.Fatal(err)
	}
	sqlDB.Close()

	if svc.CanMakeRequest("item_search", false) {
		t.Fatal("a broken database must refuse, not allow")
	}
}
