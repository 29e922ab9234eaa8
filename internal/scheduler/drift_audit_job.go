package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/johnkennedyb/apparcus/internal/config"
	"github.com/johnkennedyb/apparcus/internal/logger"
	"github.com/johnkennedyb/apparcus/internal/logic"
	"gorm.io/gorm"
)

// DriftAuditJob 漂移审计任务。
// 从账目流水重算各聚合值并与存储值比对，发现漂移后
// 按配置决定是否自动修复。
type DriftAuditJob struct {
	audit  *logic.AuditLogic
	config *config.Config
}

// NewDriftAuditJob 创建漂移审计任务
func NewDriftAuditJob(db *gorm.DB, cfg *config.Config) *DriftAuditJob {
	reconcile := logic.NewReconcileLogic(db)
	return &DriftAuditJob{
		audit:  logic.NewAuditLogic(db, reconcile, cfg.Audit.Concurrency),
		config: cfg,
	}
}

// GetName 获取任务名称
func (j *DriftAuditJob) GetName() string {
	return "drift_audit"
}

// GetSchedule 获取调度配置
func (j *DriftAuditJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Scheduler.AuditInterval) * time.Second)
}

// Execute 执行任务
func (j *DriftAuditJob) Execute() {
	ctx := context.Background()

	report, err := j.audit.Audit(ctx, logic.FullScope())
	if err != nil {
		logger.Error("Drift audit failed: %v", err)
		return
	}

	if report.Clean() {
		logger.Info("Drift audit: no drift detected")
		return
	}

	logger.Warn("Drift audit: repairable=%d manual_review=%d missing_credits=%d errors=%d",
		len(report.Repairable), len(report.ManualReview), len(report.MissingCredits), len(report.Errors))

	if !j.config.Audit.AutoRepair {
		return
	}

	summary, err := j.audit.Repair(ctx, report)
	if err != nil {
		logger.Error("Drift repair failed: %v", err)
		return
	}
	logger.Info("Drift repair: corrected=%d redriven=%d failures=%d",
		summary.AggregatesCorrected, summary.CreditsRedriven, len(summary.Failures))
}
