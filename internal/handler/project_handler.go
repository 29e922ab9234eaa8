package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/johnkennedyb/apparcus/internal/logic"
	"github.com/johnkennedyb/apparcus/internal/model"
)

// ProjectHandler 项目处理器
type ProjectHandler struct {
	projectLogic *logic.ProjectLogic
}

// NewProjectHandler 创建项目处理器
func NewProjectHandler(projectLogic *logic.ProjectLogic) *ProjectHandler {
	return &ProjectHandler{projectLogic: projectLogic}
}

// CreateProject 创建项目
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	userId, ok := RequireUser(c)
	if !ok {
		return
	}

	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的请求参数: "+err.Error())
		return
	}

	project := model.ProjectModel{
		Name:        req.Name,
		Description: req.Description,
		AdminId:     userId,
		FundingGoal: req.FundingGoal,
	}
	if err := h.projectLogic.CreateProject(c.Request.Context(), &project); err != nil {
		HandleLogicError(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "创建项目成功", ToProjectResponse(&project))
}

// GetProjects 获取项目列表
func (h *ProjectHandler) GetProjects(c *gin.Context) {
	projects, err := h.projectLogic.GetProjects(c.Request.Context())
	if err != nil {
		HandleLogicError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取项目列表成功", ToProjectResponseList(projects))
}

// GetProject 获取项目详情
func (h *ProjectHandler) GetProject(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的项目ID")
		return
	}

	project, err := h.projectLogic.GetProject(c.Request.Context(), id)
	if err != nil {
		HandleLogicError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取项目成功", ToProjectResponse(project))
}

// GetProjectStats 获取项目统计信息
func (h *ProjectHandler) GetProjectStats(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的项目ID")
		return
	}

	stats, err := h.projectLogic.GetProjectStats(c.Request.Context(), id)
	if err != nil {
		HandleLogicError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取项目统计成功", stats)
}
