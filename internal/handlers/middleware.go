package handlers

import (
	"net/http"
	"strings"

	"sprinkler_client/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	operatorCtxKey = "operatorId"

	// browsers cannot set headers on a websocket handshake
	tokenQueryParam = "access_token"

	errMissingAuth   = "missing Authorization header"
	errAuthFormat    = "invalid Authorization header format"
	errTokenRejected = "invalid or expired token"
)

// bearerToken extracts the token from "Authorization: Bearer <t>", falling
// back to ?access_token= when the header is absent.
func bearerToken(c *gin.Context) (string, string) {
	header := c.GetHeader("Authorization")
	if header == "" {
		if tok := strings.TrimSpace(c.Query(tokenQueryParam)); tok != "" {
			return tok, ""
		}
		return "", errMissingAuth
	}
	scheme, tok, ok := strings.Cut(header, " ")
	if !ok || scheme != "Bearer" || strings.TrimSpace(tok) == "" {
		return "", errAuthFormat
	}
	return strings.TrimSpace(tok), ""
}

// operatorIdMiddleware authenticates the caller and tags both the gin context
// and the request context with the operator, so service-layer audit entries
// name who acted.
func (h *Handler) operatorIdMiddleware(c *gin.Context) {
	tok, problem := bearerToken(c)
	if problem != "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": problem})
		return
	}

	operatorID, err := h.services.Authorization.ParseToken(tok)
	if err != nil {
		if h.log != nil {
			h.log.Debugw("auth_token_rejected", "err", err, "path", c.FullPath())
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errTokenRejected})
		return
	}

	c.Set(operatorCtxKey, operatorID)
	c.Request = c.Request.WithContext(service.WithOperator(c.Request.Context(), operatorID))
	c.Next()
}
