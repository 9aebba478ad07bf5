package middleware

import (
	"github.com/gin-contrib/secure"
	"github.com/gin-gonic/gin"
)

// Security sets the standard hardening headers on every response.
// TLS is terminated in front of the API, so no redirects are issued here.
func Security() gin.HandlerFunc {
	return secure.New(secure.Config{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ContentSecurityPolicy: "default-src 'self'",
		ReferrerPolicy:        "no-referrer",
		STSSeconds:            15552000,
		STSIncludeSubdomains:  true,
	})
}
