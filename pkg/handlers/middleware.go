package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestLog tags every request with an id and logs mutations, so a persist
// in the store log can be tied back to the request that caused it.
func RequestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := uuid.New().String()
		c.Writer.Header().Set("X-Request-ID", id)
		start := time.Now()

		c.Next()

		if c.Request.Method != http.MethodGet {
			log.Printf("%s %s %s -> %d (%s)", id, c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
		}
	}
}
