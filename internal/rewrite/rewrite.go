// Package rewrite forwards requests under a fixed API prefix to the backend
// origin with the prefix stripped.
package rewrite

import (
	"fmt"
	"log"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
)

// Match reports whether path falls under prefix: the prefix itself or any
// path below it. "/apix" does not match "/api".
func Match(path, prefix string) bool {
	if path == prefix {
		return true
	}
	return strings.HasPrefix(path, prefix+"/")
}

// Target builds <origin><path without prefix><?query>. The caller must have
// checked Match.
func Target(u *url.URL, prefix, origin string) (*url.URL, error) {
	rest := strings.TrimPrefix(u.EscapedPath(), prefix)
	raw := strings.TrimRight(origin, "/") + rest
	if u.RawQuery != "" {
		raw += "?" + u.RawQuery
	}
	target, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse rewrite target failed: %w", err)
	}
	return target, nil
}

// Rewriter is a reverse proxy bound to one prefix and one origin at
// construction. It does not retry; an unreachable backend yields a 502.
type Rewriter struct {
	prefix string
	origin string
	proxy  *httputil.ReverseProxy
}

func New(prefix, origin string) (*Rewriter, error) {
	if prefix == "" || !strings.HasPrefix(prefix, "/") {
		return nil, fmt.Errorf("invalid rewrite prefix %q", prefix)
	}
	parsed, err := url.Parse(origin)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid backend origin %q", origin)
	}

	rw := &Rewriter{
		prefix: strings.TrimRight(prefix, "/"),
		origin: strings.TrimRight(origin, "/"),
	}
	rw.proxy = &httputil.ReverseProxy{
		Rewrite:      rw.rewrite,
		ErrorHandler: rw.handleError,
	}
	return rw, nil
}

func (rw *Rewriter) Prefix() string {
	return rw.prefix
}

func (rw *Rewriter) Match(path string) bool {
	return Match(path, rw.prefix)
}

func (rw *Rewriter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !rw.Match(r.URL.Path) {
		http.NotFound(w, r)
		return
	}
	rw.proxy.ServeHTTP(w, r)
}

func (rw *Rewriter) rewrite(pr *httputil.ProxyRequest) {
	target, err := Target(pr.In.URL, rw.prefix, rw.origin)
	if err != nil {
		// Leave Out untouched; the transport error reaches handleError.
		log.Printf("rewrite %s failed: %v", pr.In.URL.Path, err)
		pr.Out.URL = &url.URL{}
		return
	}
	log.Printf("proxying %s -> %s", pr.In.URL.Path, target.String())

	pr.Out.URL = target
	pr.Out.Host = target.Host
}

func (rw *Rewriter) handleError(w http.ResponseWriter, r *http.Request, err error) {
	log.Printf("proxy %s failed: %v", r.URL.Path, err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadGateway)
	_, _ = fmt.Fprintf(w, `{"detail":%q}`, "Failed to reach backend")
}
