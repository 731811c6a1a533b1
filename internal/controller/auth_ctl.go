package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"podcast_studio_v1_202608/internal/api/dto"
	"podcast_studio_v1_202608/internal/middleware"
)

type AuthController struct{}

func NewAuthController() *AuthController {
	return &AuthController{}
}

// Login 主密码登录
// @Summary 主密码登录
// @Description 校验主密码，成功后返回 JWT Token
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.LoginReq true "登录参数"
// @Success 200 {object} map[string]interface{} "{"code": 200, "data": {"token": "..."}}"
// @Failure 401 {object} map[string]string "密码错误"
// @Router /api/auth/login [post]
func (h *AuthController) Login(c *gin.Context) {
	var req dto.LoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": err.Error()})
		return
	}

	if !middleware.AuthEnabled() {
		c.JSON(http.StatusOK, gin.H{
			"code":    200,
			"message": "认证未启用",
			"data":    gin.H{"token": "", "auth_enabled": false},
		})
		return
	}

	if !middleware.VerifyMasterPassword(req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"code": 401, "message": "密码错误"})
		return
	}

	token, err := middleware.GenerateAccessToken()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    200,
		"message": "success",
		"data":    gin.H{"token": token, "auth_enabled": true},
	})
}

// Check 校验当前 Token 是否有效
// @Summary 校验登录态
// @Tags Auth
// @Produce json
// @Success 200 {object} map[string]interface{} "{"code": 200, "data": {"authenticated": true}}"
// @Router /api/auth/check [get]
func (h *AuthController) Check(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"code":    200,
		"message": "success",
		"data":    gin.H{"authenticated": true, "auth_enabled": middleware.AuthEnabled()},
	})
}
