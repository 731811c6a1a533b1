package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"podcast_studio_v1_202608/internal/api/dto"
	"podcast_studio_v1_202608/internal/model"
	"podcast_studio_v1_202608/internal/repository"
)

type PromptController struct {
	templateRepo repository.PromptTemplateRepository
}

func NewPromptController(templateRepo repository.PromptTemplateRepository) *PromptController {
	return &PromptController{templateRepo: templateRepo}
}

// GetList 获取全部生效模板
// @Summary 获取生效中的提示词模板列表
// @Tags Prompt
// @Produce json
// @Success 200 {object} map[string]interface{} "{"code": 200, "data": [dto.PromptResp]}"
// @Failure 500 {object} map[string]string "查询失败"
// @Router /api/prompts [get]
func (h *PromptController) GetList(c *gin.Context) {
	templates, err := h.templateRepo.ListActive(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "message": err.Error()})
		return
	}

	list := make([]dto.PromptResp, 0, len(templates))
	for _, t := range templates {
		list = append(list, toPromptResp(&t))
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "message": "success", "data": list})
}

// GetDetail 获取单个类型的生效模板
// @Summary 获取指定内容类型的生效模板
// @Tags Prompt
// @Produce json
// @Param name path string true "内容类型名"
// @Success 200 {object} map[string]interface{} "{"code": 200, "data": dto.PromptResp}"
// @Failure 404 {object} map[string]string "模板不存在"
// @Router /api/prompts/{name} [get]
func (h *PromptController) GetDetail(c *gin.Context) {
	name := c.Param("name")

	tmpl, err := h.templateRepo.GetActive(c.Request.Context(), name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"code": 404, "message": "模板不存在"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 200, "message": "success", "data": toPromptResp(tmpl)})
}

// Update 发布新版本模板
// @Summary 更新提示词模板
// @Description 发布新版本并下线旧版本，历史版本保留用于审计
// @Tags Prompt
// @Accept json
// @Produce json
// @Param request body dto.UpdatePromptReq true "更新参数"
// @Success 200 {object} map[string]interface{} "{"code": 200, "data": dto.PromptResp}"
// @Failure 400 {object} map[string]string "参数错误"
// @Failure 500 {object} map[string]string "更新失败"
// @Router /api/prompts [put]
func (h *PromptController) Update(c *gin.Context) {
	var req dto.UpdatePromptReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": err.Error()})
		return
	}

	tmpl, err := h.templateRepo.Replace(c.Request.Context(), req.Name, req.Template, req.Notes)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 200, "message": "success", "data": toPromptResp(tmpl)})
}

func toPromptResp(t *model.PromptTemplate) dto.PromptResp {
	return dto.PromptResp{
		ID:       t.ID,
		Name:     t.Name,
		Template: t.Template,
		Version:  t.Version,
		IsActive: t.IsActive,
		Notes:    t.Notes,
	}
}
