package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"podcast_studio_v1_202608/internal/service"
)

type UsageController struct {
	usageService *service.UsageService
}

func NewUsageController(usageService *service.UsageService) *UsageController {
	return &UsageController{usageService: usageService}
}

// GetSessionUsage 获取会话用量汇总
// @Summary 获取单会话用量汇总
// @Description 按模板分组统计 token 与成本
// @Tags Usage
// @Produce json
// @Param session_id path string true "会话 ID"
// @Success 200 {object} map[string]interface{} "{"code": 200, "data": repository.SessionUsageSummary}"
// @Failure 500 {object} map[string]string "查询失败"
// @Router /api/sessions/{session_id}/usage [get]
func (h *UsageController) GetSessionUsage(c *gin.Context) {
	sessionID := c.Param("session_id")

	summary, err := h.usageService.SessionSummary(c.Request.Context(), sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 200, "message": "success", "data": summary})
}

// GetUsageSummary 获取最近 N 天用量报表
// @Summary 获取用量报表
// @Description 最近 N 天的日用量明细与按成本排序的模板 Top10
// @Tags Usage
// @Produce json
// @Param days query int false "统计天数 (默认30)"
// @Success 200 {object} map[string]interface{} "{"code": 200, "data": repository.WindowUsageSummary}"
// @Failure 500 {object} map[string]string "查询失败"
// @Router /api/usage-summary [get]
func (h *UsageController) GetUsageSummary(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))

	summary, err := h.usageService.WindowSummary(c.Request.Context(), days)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 200, "message": "success", "data": summary})
}
