package gateway

import "net/http"

// SecurityHeaders are set on the plain HTTP responses of the listener.
// TLS and HSTS are left to the fronting proxy.
type SecurityHeaders struct {
	CSP                 string
	XContentTypeOptions string
	ReferrerPolicy      string
}

// APISecurityHeaders is the set for JSON endpoints: nothing may be loaded
// or framed.
func APISecurityHeaders() *SecurityHeaders {
	return &SecurityHeaders{
		CSP:                 "default-src 'none'; frame-ancestors 'none'",
		XContentTypeOptions: "nosniff",
		ReferrerPolicy:      "no-referrer",
	}
}

// Apply sets the non-empty headers on w.
func (sh *SecurityHeaders) Apply(w http.ResponseWriter) {
	h := w.Header()
	if sh.CSP != "" {
		h.Set("Content-Security-Policy", sh.CSP)
	}
	if sh.XContentTypeOptions != "" {
		h.Set("X-Content-Type-Options", sh.XContentTypeOptions)
	}
	if sh.ReferrerPolicy != "" {
		h.Set("Referrer-Policy", sh.ReferrerPolicy)
	}
}

// SecurityHandlerFunc wraps next so every response carries headers.
func SecurityHandlerFunc(headers *SecurityHeaders, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		headers.Apply(w)
		next(w, r)
	}
}
