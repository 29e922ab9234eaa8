package logic

import (
	"context"
	"errors"

	"github.com/johnkennedyb/apparcus/internal/model"
	"gorm.io/gorm"
)

// SupportRequestLogic 支持请求业务逻辑
type SupportRequestLogic struct {
	db *gorm.DB
}

// NewSupportRequestLogic 创建支持请求业务逻辑
func NewSupportRequestLogic(db *gorm.DB) *SupportRequestLogic {
	return &SupportRequestLogic{db: db}
}

// CreateSupportRequest 创建支持请求
func (l *SupportRequestLogic) CreateSupportRequest(ctx context.Context, request *model.SupportRequestModel) error {
	if request.RequesterId == 0 {
		return errors.New("请求人不能为空")
	}
	if request.Title == "" {
		return errors.New("标题不能为空")
	}
	if request.AmountNeeded <= 0 {
		return errors.New("目标金额必须大于0")
	}

	// 归属项目时校验项目存在且进行中
	if request.ProjectId != 0 {
		var project model.ProjectModel
		if err := l.db.WithContext(ctx).First(&project, request.ProjectId).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProjectNotFound
			}
			return storageError(err)
		}
		if project.Status != model.ProjectStatusActive {
			return errors.New("项目不在进行中，无法创建支持请求")
		}
	}

	request.Status = model.SupportRequestStatusActive
	request.AmountRaised = 0

	if err := l.db.WithContext(ctx).Create(request).Error; err != nil {
		return storageError(err)
	}
	return nil
}

// GetSupportRequests 获取支持请求列表
func (l *SupportRequestLogic) GetSupportRequests(ctx context.Context, status string, page, pageSize int) ([]model.SupportRequestModel, int64, error) {
	var requests []model.SupportRequestModel
	var total int64

	query := l.db.WithContext(ctx).Model(&model.SupportRequestModel{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, storageError(err)
	}

	offset := (page - 1) * pageSize
	if err := query.
		Offset(offset).
		Limit(pageSize).
		Order("created_at DESC").
		Find(&requests).Error; err != nil {
		return nil, 0, storageError(err)
	}

	return requests, total, nil
}

// GetSupportRequest 获取支持请求详情
func (l *SupportRequestLogic) GetSupportRequest(ctx context.Context, id int64) (*model.SupportRequestModel, error) {
	var request model.SupportRequestModel
	if err := l.db.WithContext(ctx).First(&request, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSupportRequestNotFound
		}
		return nil, storageError(err)
	}
	return &request, nil
}

// CancelSupportRequest 取消支持请求（仅限进行中的请求，条件写保证不回退终态）
func (l *SupportRequestLogic) CancelSupportRequest(ctx context.Context, id int64, requesterId int64) error {
	res := l.db.WithContext(ctx).Model(&model.SupportRequestModel{}).
		Where("id = ? AND requester_id = ? AND status = ?", id, requesterId, model.SupportRequestStatusActive).
		Update("status", model.SupportRequestStatusCancelled)
	if res.Error != nil {
		return storageError(res.Error)
	}
	if res.RowsAffected == 0 {
		var request model.SupportRequestModel
		if err := l.db.WithContext(ctx).First(&request, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSupportRequestNotFound
			}
			return storageError(err)
		}
		if request.RequesterId != requesterId {
			return errors.New("无权取消该支持请求")
		}
		return errors.New("支持请求已终结，无法取消")
	}
	return nil
}
