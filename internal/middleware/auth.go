package middleware

import (
	"net/http"
	"os"
	"strings"

	"backoffice/internal/model"
	"backoffice/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const actorKey = "actor"

func GetJWTSecret() []byte {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		if os.Getenv("GIN_MODE") == "release" {
			panic("FATAL: JWT_SECRET environment variable is required in production mode")
		}
		secret = "default_super_secret_key" // Development fallback only, DO NOT use in production
	}
	return []byte(secret)
}

// RequireRole validates the JWT and checks the caller's role against
// allowedRoles. On success the authenticated Actor is stored in the gin
// context for handlers to read via GetActor.
func RequireRole(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Try cookie first, fall back to Authorization header
		tokenString, cookieErr := c.Cookie("access_token")
		if cookieErr != nil || tokenString == "" {
			authHeader := c.GetHeader("Authorization")
			if authHeader == "" {
				c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid authorization format. Expected 'Bearer <token>'"))
				return
			}
			tokenString = parts[1]
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return GetJWTSecret(), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token"))
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token claims"))
			return
		}

		actor, ok := actorFromClaims(claims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token claims"))
			return
		}

		roleAllowed := false
		for _, role := range allowedRoles {
			if actor.Role == role {
				roleAllowed = true
				break
			}
		}
		if !roleAllowed {
			c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: insufficient permissions"))
			return
		}

		c.Set(actorKey, actor)
		c.Next()
	}
}

// RequireAuth accepts any of the known roles.
func RequireAuth() gin.HandlerFunc {
	return RequireRole(model.RoleOwner, model.RoleManager, model.RoleStaff)
}

// RequireManage accepts owner and manager only.
func RequireManage() gin.HandlerFunc {
	return RequireRole(model.RoleOwner, model.RoleManager)
}

// GetActor returns the Actor placed in the context by RequireRole.
func GetActor(c *gin.Context) (model.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return model.Actor{}, false
	}
	actor, ok := v.(model.Actor)
	return actor, ok
}

func actorFromClaims(claims jwt.MapClaims) (model.Actor, bool) {
	sub, _ := claims["sub"].(string)
	businessID, _ := claims["business_id"].(string)
	role, _ := claims["role"].(string)

	userUUID, err := uuid.Parse(sub)
	if err != nil {
		return model.Actor{}, false
	}
	businessUUID, err := uuid.Parse(businessID)
	if err != nil {
		return model.Actor{}, false
	}
	if role != model.RoleOwner && role != model.RoleManager && role != model.RoleStaff {
		return model.Actor{}, false
	}

	return model.Actor{UserID: userUUID, BusinessID: businessUUID, Role: role}, true
}
