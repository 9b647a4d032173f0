package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GinAdapter converts an http.Handler middleware into a gin.HandlerFunc so the
// ops server shares the request id and recovery middleware with the API.
func GinAdapter(mw func(http.Handler) http.Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		called := false
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			c.Request = r
			c.Next()
		})
		mw(next).ServeHTTP(c.Writer, c.Request)
		if !called {
			c.Abort()
		}
	}
}
