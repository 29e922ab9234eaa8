package logic

import (
	"context"
	"errors"
	"fmt"

	"github.com/johnkennedyb/apparcus/internal/model"
	"gorm.io/gorm"
)

// ProjectLogic 项目业务逻辑
type ProjectLogic struct {
	db *gorm.DB
}

// NewProjectLogic 创建项目业务逻辑
func NewProjectLogic(db *gorm.DB) *ProjectLogic {
	return &ProjectLogic{db: db}
}

// CreateProject 创建项目
func (p *ProjectLogic) CreateProject(ctx context.Context, project *model.ProjectModel) error {
	if project.Name == "" {
		return errors.New("项目名称不能为空")
	}
	if project.AdminId == 0 {
		return errors.New("项目管理员不能为空")
	}
	if project.FundingGoal <= 0 {
		return errors.New("筹款目标必须大于0")
	}

	project.Status = model.ProjectStatusActive
	project.CurrentFunding = 0

	if err := p.db.WithContext(ctx).Create(project).Error; err != nil {
		return storageError(err)
	}
	return nil
}

// GetProjects 获取项目列表
func (p *ProjectLogic) GetProjects(ctx context.Context) ([]model.ProjectModel, error) {
	var projects []model.ProjectModel
	if err := p.db.WithContext(ctx).Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("获取项目列表失败: %w", err)
	}
	return projects, nil
}

// GetProject 获取项目详情
func (p *ProjectLogic) GetProject(ctx context.Context, id int64) (*model.ProjectModel, error) {
	var project model.ProjectModel
	if err := p.db.WithContext(ctx).First(&project, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, storageError(err)
	}
	return &project, nil
}

// GetProjectStats 获取项目统计信息
func (p *ProjectLogic) GetProjectStats(ctx context.Context, id int64) (map[string]interface{}, error) {
	project, err := p.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}

	var stats struct {
		SupportRequestCount int64 `json:"support_request_count"`
		CompletedRequests   int64 `json:"completed_requests"`
		TotalRaised         int64 `json:"total_raised"`
		DonationCount       int64 `json:"donation_count"`
	}

	if err := p.db.WithContext(ctx).Model(&model.SupportRequestModel{}).
		Where("project_id = ?", id).Count(&stats.SupportRequestCount).Error; err != nil {
		return nil, fmt.Errorf("获取支持请求数失败: %w", err)
	}

	if err := p.db.WithContext(ctx).Model(&model.SupportRequestModel{}).
		Where("project_id = ? AND status = ?", id, model.SupportRequestStatusCompleted).
		Count(&stats.CompletedRequests).Error; err != nil {
		return nil, fmt.Errorf("获取已完成支持请求数失败: %w", err)
	}

	if err := p.db.WithContext(ctx).Model(&model.SupportRequestModel{}).
		Where("project_id = ?", id).
		Select("COALESCE(SUM(amount_raised), 0)").
		Scan(&stats.TotalRaised).Error; err != nil {
		return nil, fmt.Errorf("获取筹款总额失败: %w", err)
	}

	if err := p.db.WithContext(ctx).Raw(`
		SELECT COUNT(*)
		FROM payments p
		JOIN support_requests s ON s.id = p.support_request_id
		WHERE s.project_id = ? AND p.status = ?`,
		id, model.PaymentStatusCompleted,
	).Scan(&stats.DonationCount).Error; err != nil {
		return nil, fmt.Errorf("获取捐赠笔数失败: %w", err)
	}

	return map[string]interface{}{
		"project_id":            project.Id,
		"funding_goal":          project.FundingGoal,
		"current_funding":       project.CurrentFunding,
		"funding_percentage":    project.FundingPercentage(),
		"status":                string(project.Status),
		"support_request_count": stats.SupportRequestCount,
		"completed_requests":    stats.CompletedRequests,
		"total_raised":          stats.TotalRaised,
		"donation_count":        stats.DonationCount,
	}, nil
}
