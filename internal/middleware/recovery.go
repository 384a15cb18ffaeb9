// internal/middleware/recovery.go
package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Recovery intercepte les panics des handlers de duel. Un panic dans un
// handler ne doit jamais emporter le registre des duels vivants : la
// requête échoue seule, avec la pile dans les logs pour le diagnostic.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logrus.WithFields(logrus.Fields{
			"panic":      recovered,
			"path":       c.Request.URL.Path,
			"method":     c.Request.Method,
			"client_ip":  c.ClientIP(),
			"user_id":    c.GetString("user_id"),
			"request_id": c.GetHeader("X-Request-ID"),
			"stack":      string(debug.Stack()),
		}).Error("Panic recovered in duel handler")

		c.JSON(http.StatusInternalServerError, gin.H{
			"error":      "Internal server error",
			"request_id": c.GetHeader("X-Request-ID"),
		})
	})
}
