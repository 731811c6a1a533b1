package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// ==================== JWT 配置 ====================

// AuthConfig 认证配置
// MasterPasswordHash 为空时整站免认证，方便本地开发
type AuthConfig struct {
	SecretKey          string        // 签名密钥
	MasterPasswordHash string        // 主密码的 bcrypt 哈希
	AccessTokenTTL     time.Duration // Access Token 有效期
	Issuer             string        // 签发者
}

// DefaultAuthConfig 默认配置
func DefaultAuthConfig() *AuthConfig {
	return &AuthConfig{
		SecretKey:      "podcast-studio-secret-key-change-in-production",
		AccessTokenTTL: 24 * time.Hour,
		Issuer:         "podcast-studio",
	}
}

// 全局配置
var authConfig = DefaultAuthConfig()

// SetAuthConfig 设置认证配置
func SetAuthConfig(cfg *AuthConfig) {
	authConfig = cfg
}

// GetAuthConfig 获取认证配置
func GetAuthConfig() *AuthConfig {
	return authConfig
}

// AuthEnabled 是否启用认证
func AuthEnabled() bool {
	return authConfig.MasterPasswordHash != ""
}

// ==================== 密码校验 ====================

// VerifyMasterPassword 校验主密码
func VerifyMasterPassword(password string) bool {
	if authConfig.MasterPasswordHash == "" {
		return false
	}
	err := bcrypt.CompareHashAndPassword([]byte(authConfig.MasterPasswordHash), []byte(password))
	return err == nil
}

// ==================== Token 生成与解析 ====================

// OperatorClaims 操作者声明，单用户系统不区分角色
type OperatorClaims struct {
	jwt.RegisteredClaims
}

// GenerateAccessToken 生成 Access Token
func GenerateAccessToken() (string, error) {
	now := time.Now()
	claims := &OperatorClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    authConfig.Issuer,
			Subject:   "access",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(authConfig.AccessTokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(authConfig.SecretKey))
}

// ParseToken 解析 Token
func ParseToken(tokenString string) (*OperatorClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &OperatorClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(authConfig.SecretKey), nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*OperatorClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

// ==================== Gin 中间件 ====================

// AuthRequired 认证中间件
// 未配置主密码哈希时直接放行
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !AuthEnabled() {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    401,
				"message": "未提供认证信息",
			})
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    401,
				"message": "认证格式错误，应为 Bearer {token}",
			})
			c.Abort()
			return
		}

		claims, err := ParseToken(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    401,
				"message": "Token 无效或已过期",
			})
			c.Abort()
			return
		}

		if claims.Subject != "access" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    401,
				"message": "Token 类型错误",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
