package relay

import (
	"slices"
	"strconv"
	"strings"
)

// CORS response header names.
const (
	HeaderAllowOrigin      = "Access-Control-Allow-Origin"
	HeaderAllowMethods     = "Access-Control-Allow-Methods"
	HeaderAllowHeaders     = "Access-Control-Allow-Headers"
	HeaderExposeHeaders    = "Access-Control-Expose-Headers"
	HeaderAllowCredentials = "Access-Control-Allow-Credentials"
	HeaderMaxAge           = "Access-Control-Max-Age"
)

var (
	defaultAllowOrigins = []string{"*"}
	defaultAllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	defaultAllowHeaders = []string{"Content-Type", "Authorization"}
)

// CORSConfig controls the cross-origin headers added to HTTP envelopes.
// Empty origin, method and header lists fall back to permissive defaults.
type CORSConfig struct {
	Enabled       bool     `env:"ENABLED" json:"enabled"`
	AllowOrigins  []string `env:"ALLOW_ORIGINS" envSeparator:"," json:"allowOrigins" validate:"omitempty,dive,required"`
	AllowMethods  []string `env:"ALLOW_METHODS" envSeparator:"," json:"allowMethods" validate:"omitempty,dive,required"`
	AllowHeaders  []string `env:"ALLOW_HEADERS" envSeparator:"," json:"allowHeaders" validate:"omitempty,dive,required"`
	ExposeHeaders []string `env:"EXPOSE_HEADERS" envSeparator:"," json:"exposeHeaders" validate:"omitempty,dive,required"`
	Credentials   bool     `env:"CREDENTIALS" json:"credentials"`
	MaxAge        *int     `env:"MAX_AGE" json:"maxAge" validate:"omitempty,min=0"`
}

// Headers computes the CORS headers for a request from origin. It returns
// nil when CORS is disabled.
//
// The origin is echoed when it is in AllowOrigins; otherwise "*" is used if
// listed, and failing that the first configured origin.
func (c *CORSConfig) Headers(origin string) map[string]string {
	if c == nil || !c.Enabled {
		return nil
	}

	origins := orDefault(c.AllowOrigins, defaultAllowOrigins)
	h := map[string]string{
		HeaderAllowOrigin:  pickOrigin(origins, origin),
		HeaderAllowMethods: strings.Join(orDefault(c.AllowMethods, defaultAllowMethods), ", "),
		HeaderAllowHeaders: strings.Join(orDefault(c.AllowHeaders, defaultAllowHeaders), ", "),
	}
	if len(c.ExposeHeaders) > 0 {
		h[HeaderExposeHeaders] = strings.Join(c.ExposeHeaders, ", ")
	}
	if c.Credentials {
		h[HeaderAllowCredentials] = "true"
	}
	if c.MaxAge != nil {
		h[HeaderMaxAge] = strconv.Itoa(*c.MaxAge)
	}
	return h
}

func pickOrigin(allowed []string, origin string) string {
	switch {
	case origin != "" && slices.Contains(allowed, origin):
		return origin
	case slices.Contains(allowed, "*"):
		return "*"
	default:
		return allowed[0]
	}
}

func orDefault(v, def []string) []string {
	if len(v) == 0 {
		return def
	}
	return v
}

// mergeHeaders adds extra to h without overwriting keys h already has,
// compared without regard to case.
func mergeHeaders(h, extra map[string]string) map[string]string {
	if h == nil {
		h = make(map[string]string, len(extra))
	}
	for k, v := range extra {
		if !hasHeader(h, k) {
			h[k] = v
		}
	}
	return h
}
