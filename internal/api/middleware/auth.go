package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/inbox_premium_server/internal/pkg/jwt"
	"github.com/qs3c/inbox_premium_server/internal/pkg/response"
)

const (
	UserIDKey = "userID"
	EmailKey  = "email"
)

// Auth JWT 认证中间件，令牌由登录服务签发
func Auth(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, msg := bearerToken(c)
		if msg != "" {
			response.AuthError(c, msg)
			c.Abort()
			return
		}

		claims, err := jwt.ParseToken(tokenString, jwtSecret)
		if err != nil {
			response.AuthError(c, "认证失败或已过期")
			c.Abort()
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

// OptionalAuth 可选认证中间件（价格页未登录也可访问）
func OptionalAuth(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, msg := bearerToken(c)
		if msg != "" {
			c.Next()
			return
		}

		if claims, err := jwt.ParseToken(tokenString, jwtSecret); err == nil {
			setClaims(c, claims)
		}
		c.Next()
	}
}

// bearerToken 读取 Authorization 头，WebSocket 握手时允许 ?token=
func bearerToken(c *gin.Context) (string, string) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		if token := c.Query("token"); token != "" && c.IsWebsocket() {
			return token, ""
		}
		return "", "请提供认证信息"
	}

	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == authHeader {
		return "", "认证格式错误"
	}
	return tokenString, ""
}

func setClaims(c *gin.Context, claims *jwt.Claims) {
	c.Set(UserIDKey, claims.UserID)
	if claims.Email != "" {
		c.Set(EmailKey, claims.Email)
	}
}

// GetUserID 从上下文获取用户 ID
func GetUserID(c *gin.Context) (int64, bool) {
	userID, exists := c.Get(UserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := userID.(int64)
	return id, ok
}
