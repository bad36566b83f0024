package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"invoicegen/pkg/response"

	"github.com/gin-gonic/gin"
)

func hostFromURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// HostAllowlist rejects ingestion requests whose Origin (or, absent one,
// Referer) host is not on the site allowlist. Best-effort: requests carrying
// neither header pass through, matching browser beacon behavior.
func HostAllowlist(allowed []string) gin.HandlerFunc {
	set := make(map[string]struct{}, len(allowed))
	for _, h := range allowed {
		h = strings.ToLower(strings.TrimSpace(h))
		if h != "" {
			set[h] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		if len(set) == 0 {
			c.Next()
			return
		}

		originHost := hostFromURL(c.GetHeader("Origin"))
		refHost := hostFromURL(c.GetHeader("Referer"))

		if originHost != "" {
			if _, ok := set[originHost]; !ok {
				c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "origin not allowed"))
				return
			}
		} else if refHost != "" {
			if _, ok := set[refHost]; !ok {
				c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "referrer not allowed"))
				return
			}
		}
		c.Next()
	}
}
