package services

import (
	"errors"
	"os"
	"sync"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/reelworth/reelworth_api/model"
	"github.com/reelworth/reelworth_api/shared"
)

// QuotaService persists daily call counts per provider endpoint so the
// allowance survives restarts. CanMakeRequest never writes; RecordRequest is
// the only mutator and is called once per real upstream call, successful or
// not.
type QuotaService struct {
	context.DefaultService

	dailyLimit int
	batchLimit int
	mutex      sync.Mutex
	now        func() time.Time

	sqlSvc        *SqliteService
	monitoringSvc *MonitoringService
}

// Subscription tiers for collectible pricing data.
const (
	QuotaBasicDailyLimit = 50
	QuotaProDailyLimit   = 100

	// Batch operations keep a small reserve so interactive lookups still
	// work late in the day.
	QuotaBatchLimit = 45
)

const QUOTA_SVC = "quota_svc"

func (svc QuotaService) Id() string {
	return QUOTA_SVC
}

func (svc *QuotaService) Configure(ctx *context.Context) error {
	svc.dailyLimit = QuotaBasicDailyLimit
	if os.Getenv("GOCOLLECT_SUBSCRIPTION") == "pro" {
		svc.dailyLimit = QuotaProDailyLimit
	}
	svc.batchLimit = QuotaBatchLimit
	svc.now = time.Now
	return svc.DefaultService.Configure(ctx)
}

func (svc *QuotaService) Start() error {
	svc.sqlSvc = svc.Service(SQLITE_SVC).(*SqliteService)
	if mon, ok := svc.Service(MONITORING_SVC).(*MonitoringService); ok {
		svc.monitoringSvc = mon
	}
	return nil
}

func (svc *QuotaService) Shutdown() {
}

func (svc *QuotaService) today() string {
	now := svc.now
	if now == nil {
		now = time.Now
	}
	return now().UTC().Format("2006-01-02")
}

// ==================== QUOTA CHECKS ====================

// CanMakeRequest reports whether one more call to the endpoint fits today's
// allowance. Database trouble refuses the call: a lost reading must not turn
// into an unmetered request.
func (svc *QuotaService) CanMakeRequest(endpoint string, isBatch bool) bool {
	usage, err := svc.usageRow(svc.today(), endpoint)
	if err != nil {
		log.WithError(err).WithField("endpoint", endpoint).Error("Quota lookup failed, refusing call")
		return false
	}

	limit := svc.dailyLimit
	if isBatch {
		limit = svc.batchLimit
	}
	if usage == nil {
		return limit > 0
	}
	if usage.CallsMade >= limit {
		if svc.monitoringSvc != nil {
			svc.monitoringSvc.ObserveQuotaRefusal(shared.ProviderGoCollect, endpoint)
		}
		return false
	}
	return true
}

// RecordRequest counts one real upstream call against today's row, creating
// it on first use. The increment is a single SQL expression so concurrent
// writers never lose updates.
func (svc *QuotaService) RecordRequest(endpoint string, success bool) {
	svc.mutex.Lock()
	defer svc.mutex.Unlock()

	db := svc.sqlSvc.Db()
	date := svc.today()

	row := model.ProviderAPIUsage{
		ID:        uuid.NewString(),
		Date:      date,
		Endpoint:  endpoint,
		CallsMade: 0,
	}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "date"}, {Name: "endpoint"}},
		DoNothing: true,
	}).Create(&row).Error
	if err != nil {
		log.WithError(err).WithField("endpoint", endpoint).Error("Failed to ensure quota row")
		return
	}

	err = db.Model(&model.ProviderAPIUsage{}).
		Where("date = ? AND endpoint = ?", date, endpoint).
		Update("calls_made", gorm.Expr("calls_made + 1")).Error
	if err != nil {
		log.WithError(err).WithField("endpoint", endpoint).Error("Failed to record API usage")
		return
	}

	usage, err := svc.usageRow(date, endpoint)
	if err != nil || usage == nil {
		return
	}
	if usage.CallsMade >= svc.dailyLimit && !usage.DailyLimitHit {
		_ = db.Model(&model.ProviderAPIUsage{}).
			Where("date = ? AND endpoint = ?", date, endpoint).
			Update("daily_limit_hit", true).Error
		log.WithFields(log.Fields{
			"endpoint":   endpoint,
			"calls_made": usage.CallsMade,
		}).Warn("Daily API limit reached")
	}
}

// ==================== REPORTING ====================

// Usage summarizes today's consumption for the status endpoints.
func (svc *QuotaService) Usage() map[string]interface{} {
	date := svc.today()
	var rows []model.ProviderAPIUsage
	if err := svc.sqlSvc.Db().Where("date = ?", date).Find(&rows).Error; err != nil {
		log.WithError(err).Error("Failed to load API usage")
		return map[string]interface{}{"date": date}
	}

	perEndpoint := map[string]interface{}{}
	total := 0
	for _, row := range rows {
		perEndpoint[row.Endpoint] = map[string]interface{}{
			"calls_made":      row.CallsMade,
			"daily_limit_hit": row.DailyLimitHit,
		}
		total += row.CallsMade
	}
	return map[string]interface{}{
		"date":        date,
		"daily_limit": svc.dailyLimit,
		"batch_limit": svc.batchLimit,
		"total_calls": total,
		"endpoints":   perEndpoint,
	}
}

// History returns the most recent usage rows for the admin endpoint.
func (svc *QuotaService) History(days int) ([]model.ProviderAPIUsage, error) {
	if days <= 0 {
		days = 7
	}
	now := svc.now
	if now == nil {
		now = time.Now
	}
	since := now().UTC().AddDate(0, 0, -days).Format("2006-01-02")

	var rows []model.ProviderAPIUsage
	err := svc.sqlSvc.Db().
		Where("date >= ?", since).
		Order("date DESC, endpoint ASC").
		Find(&rows).Error
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}
	return rows, nil
}

// Reset clears today's counters for one endpoint, or all endpoints when
// endpoint is empty. Admin use only.
func (svc *QuotaService) Reset(endpoint string) error {
	svc.mutex.Lock()
	defer svc.mutex.Unlock()

	q := svc.sqlSvc.Db().Where("date = ?", svc.today())
	if endpoint != "" {
		q = q.Where("endpoint = ?", endpoint)
	}
	if err := q.Delete(&model.ProviderAPIUsage{}).Error; err != nil {
		return svc.sqlSvc.HandleError(err)
	}
	return nil
}

func (svc *QuotaService) usageRow(date, endpoint string) (*model.ProviderAPIUsage, error) {
	var usage model.ProviderAPIUsage
	err := svc.sqlSvc.Db().
		Where("date = ? AND endpoint = ?", date, endpoint).
		First(&usage).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &usage, nil
}
