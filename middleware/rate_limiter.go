package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/toorbo1/telegram-community1-sub000/utils"
)

// In-memory sliding-window limiters. State is per process, which is fine for
// a single API instance behind the bot.

type timestamps []int64 // unix nanos

func nowUnix() int64 { return time.Now().UnixNano() }

func prune(arr timestamps, cutoff int64) timestamps {
	var filtered timestamps
	for _, ts := range arr {
		if ts >= cutoff {
			filtered = append(filtered, ts)
		}
	}
	return filtered
}

// retryAfter returns whole seconds until the oldest entry leaves the window.
func retryAfter(filtered timestamps, window time.Duration, now int64) int {
	if len(filtered) == 0 {
		return int(window.Seconds())
	}
	oldest := filtered[0]
	for _, ts := range filtered {
		if ts < oldest {
			oldest = ts
		}
	}
	secs := int((oldest + int64(window) - now) / int64(time.Second))
	if secs < 1 {
		secs = 1
	}
	return secs
}

func writeTooMany(w http.ResponseWriter, retry int) {
	w.Header().Set("Retry-After", fmt.Sprintf("%d", retry))
	utils.WriteJSON(w, http.StatusTooManyRequests, utils.APIResponse{
		Success: false,
		Message: "Too many requests, try again later",
		Data:    map[string]interface{}{"retry_after_seconds": retry},
	})
}

// IPRateLimiter implements per-IP sliding-window counters with optional trusted-proxy parsing
type IPRateLimiter struct {
	max         int
	window      time.Duration
	trustedCIDR []string

	mu    sync.Mutex
	state map[string]timestamps
}

func NewIPRateLimiter(maxReq int, window time.Duration, trustedCIDR []string) *IPRateLimiter {
	return &IPRateLimiter{
		max:         maxReq,
		window:      window,
		trustedCIDR: trustedCIDR,
		state:       make(map[string]timestamps),
	}
}

// clientIPGeneric returns the client IP string. If trustedCIDR is provided,
// X-Forwarded-For / X-Real-IP headers are honored when remote addr is inside
// one of the trusted CIDRs or IPs.
func clientIPGeneric(r *http.Request, trustedCIDR []string) string {
	remoteHost, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		remoteHost = r.RemoteAddr
	}
	remoteIP := net.ParseIP(remoteHost)
	trusted := false
	for _, cidr := range trustedCIDR {
		cidr = strings.TrimSpace(cidr)
		if cidr == "" || remoteIP == nil {
			continue
		}
		if strings.Contains(cidr, "/") {
			if _, ipnet, err := net.ParseCIDR(cidr); err == nil && ipnet.Contains(remoteIP) {
				trusted = true
				break
			}
			continue
		}
		if ip := net.ParseIP(cidr); ip != nil && ip.Equal(remoteIP) {
			trusted = true
			break
		}
	}
	if trusted {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			return strings.TrimSpace(strings.Split(xff, ",")[0])
		}
		if xr := r.Header.Get("X-Real-IP"); xr != "" {
			return strings.TrimSpace(xr)
		}
	}
	return remoteHost
}

// allow records a hit for key and reports whether it is within the limit.
func (l *IPRateLimiter) allow(key string) (bool, int, int) {
	now := nowUnix()
	l.mu.Lock()
	defer l.mu.Unlock()
	filtered := append(prune(l.state[key], now-int64(l.window)), now)
	l.state[key] = filtered
	count := len(filtered)
	remaining := l.max - count
	if remaining < 0 {
		remaining = 0
	}
	if count > l.max {
		return false, remaining, retryAfter(filtered, l.window, now)
	}
	return true, remaining, 0
}

// Middleware applies per-IP limits and sets rate-limit headers.
func (l *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, remaining, retry := l.allow(clientIPGeneric(r, l.trustedCIDR))
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", l.max))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))
		if !ok {
			writeTooMany(w, retry)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Cleanup drops idle keys. main runs it on a ticker.
func (l *IPRateLimiter) Cleanup() {
	cutoff := nowUnix() - int64(l.window)
	l.mu.Lock()
	defer l.mu.Unlock()
	for k, arr := range l.state {
		if filtered := prune(arr, cutoff); len(filtered) == 0 {
			delete(l.state, k)
		} else {
			l.state[k] = filtered
		}
	}
}

// UserRateLimiter limits authenticated users separately for reads, writes and
// uploads, with an escalating penalty once a limit is exceeded.
type UserRateLimiter struct {
	read, write, upload int
	window              time.Duration

	mu      sync.Mutex
	state   map[string]timestamps
	penalty map[string]penaltyInfo
}

type penaltyInfo struct {
	Level int
	Until int64 // unix nanos
}

func NewUserRateLimiter(maxRead, maxWrite, maxUpload int, window time.Duration) *UserRateLimiter {
	return &UserRateLimiter{
		read:    maxRead,
		write:   maxWrite,
		upload:  maxUpload,
		window:  window,
		state:   make(map[string]timestamps),
		penalty: make(map[string]penaltyInfo),
	}
}

func (l *UserRateLimiter) category(r *http.Request) (string, int) {
	switch {
	case strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/"):
		return "upload", l.upload
	case r.Method == http.MethodGet || r.Method == http.MethodHead:
		return "read", l.read
	default:
		return "write", l.write
	}
}

// penaltyFor escalates 1, 5, 15 then 30 minutes.
func penaltyFor(level int) time.Duration {
	switch level {
	case 1:
		return time.Minute
	case 2:
		return 5 * time.Minute
	case 3:
		return 15 * time.Minute
	default:
		return 30 * time.Minute
	}
}

// Middleware must run after authentication; anonymous requests pass through.
func (l *UserRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid, ok := utils.GetUserID(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		cat, limit := l.category(r)
		key := fmt.Sprintf("u:%d:%s", uid, cat)
		now := nowUnix()

		l.mu.Lock()
		if pi := l.penalty[key]; pi.Until > now {
			l.mu.Unlock()
			writeTooMany(w, int(time.Duration(pi.Until-now).Seconds())+1)
			return
		}
		filtered := append(prune(l.state[key], now-int64(l.window)), now)
		l.state[key] = filtered
		count := len(filtered)
		if count > limit {
			pi := l.penalty[key]
			pi.Level++
			d := penaltyFor(pi.Level)
			pi.Until = now + int64(d)
			l.penalty[key] = pi
			l.mu.Unlock()
			writeTooMany(w, int(d.Seconds()))
			return
		}
		l.mu.Unlock()

		remaining := limit - count
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))
		next.ServeHTTP(w, r)
	})
}

// Cleanup drops idle windows and served penalties.
func (l *UserRateLimiter) Cleanup() {
	now := nowUnix()
	cutoff := now - int64(l.window)
	l.mu.Lock()
	defer l.mu.Unlock()
	for k, arr := range l.state {
		if filtered := prune(arr, cutoff); len(filtered) == 0 {
			delete(l.state, k)
		} else {
			l.state[k] = filtered
		}
	}
	for k, p := range l.penalty {
		if p.Until+int64(time.Hour) < now {
			delete(l.penalty, k)
		}
	}
}
