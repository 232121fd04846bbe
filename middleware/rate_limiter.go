package middleware

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"familyquest/config"
	"familyquest/utils"
)

// In-memory rate limiters with per-route categories, trusted-proxy support,
// progressive penalties and periodic cleanup.

type timestamps []int64 // unix nanos

var nowUnix = func() int64 { return time.Now().UnixNano() }

func getEnvDuration(key string, def time.Duration) time.Duration {
	return time.Duration(config.GetInt(key, int(def/time.Second))) * time.Second
}

func writeTooManyRequests(w http.ResponseWriter, retryAfter int) {
	w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))
	utils.WriteJSON(w, http.StatusTooManyRequests, utils.APIResponse{
		Success: false,
		Message: "Too many requests, try again later",
		Data:    map[string]interface{}{"retry_after_seconds": retryAfter},
	})
}

// prune keeps the timestamps newer than cutoff.
func prune(arr timestamps, cutoff int64) timestamps {
	var filtered timestamps
	for _, ts := range arr {
		if ts >= cutoff {
			filtered = append(filtered, ts)
		}
	}
	return filtered
}

// IPRateLimiter implements per-IP sliding window counters with optional trusted-proxy parsing
type IPRateLimiter struct {
	window      time.Duration
	mu          sync.Mutex
	state       map[string]timestamps
	cleanupTick time.Duration
	trustedCIDR []string
	instanceMax int
}

func NewIPRateLimiter(maxReq int, window time.Duration) *IPRateLimiter {
	l := &IPRateLimiter{
		window:      window,
		state:       make(map[string]timestamps),
		cleanupTick: getEnvDuration("RATE_CLEANUP_SECONDS", 60*time.Second),
		instanceMax: maxReq,
	}
	if v := os.Getenv("TRUSTED_PROXIES"); v != "" {
		l.trustedCIDR = strings.Split(v, ",")
	}
	go l.cleanupLoop()
	return l
}

// clientIPGeneric returns the client IP string. If trustedCIDR is provided,
// X-Forwarded-For / X-Real-IP headers are honored when remote addr is inside
// one of the trusted CIDRs or IPs.
func clientIPGeneric(r *http.Request, trustedCIDR []string) string {
	remoteHost, _, _ := net.SplitHostPort(r.RemoteAddr)
	remoteIP := net.ParseIP(remoteHost)
	trusted := false
	for _, cidr := range trustedCIDR {
		cidr = strings.TrimSpace(cidr)
		if cidr == "" {
			continue
		}
		if strings.Contains(cidr, "/") {
			if _, ipnet, err := net.ParseCIDR(cidr); err == nil {
				if remoteIP != nil && ipnet.Contains(remoteIP) {
					trusted = true
					break
				}
			}
			continue
		}
		if ip := net.ParseIP(cidr); ip != nil && remoteIP != nil && ip.Equal(remoteIP) {
			trusted = true
			break
		}
	}
	if trusted {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			parts := strings.Split(xff, ",")
			if len(parts) > 0 {
				return strings.TrimSpace(parts[0])
			}
		}
		if xr := r.Header.Get("X-Real-IP"); xr != "" {
			return strings.TrimSpace(xr)
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ClientIP resolves the caller address honoring TRUSTED_PROXIES.
func ClientIP(r *http.Request) string {
	var trusted []string
	if v := os.Getenv("TRUSTED_PROXIES"); v != "" {
		trusted = strings.Split(v, ",")
	}
	return clientIPGeneric(r, trusted)
}

// Middleware applies per-IP limits and sets rate-limit headers.
func (l *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIPGeneric(r, l.trustedCIDR)
		now := nowUnix()
		windowNs := int64(l.window)

		l.mu.Lock()
		filtered := append(prune(l.state[ip], now-windowNs), now)
		l.state[ip] = filtered
		count := len(filtered)
		oldest := filtered[0]
		l.mu.Unlock()

		limit := l.instanceMax
		if limit <= 0 {
			limit = config.GetInt("RATE_IP_DEFAULT", 200)
		}
		if strings.HasPrefix(r.URL.Path, "/api/auth") {
			if envLimit := config.GetInt("RATE_IP_AUTH", -1); envLimit > 0 {
				limit = envLimit
			}
		}

		remaining := limit - count
		if remaining < 0 {
			remaining = 0
		}
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))

		if count > limit {
			retryAfter := 1
			if ns := oldest + windowNs - now; ns > int64(time.Second) {
				retryAfter = int(ns / int64(time.Second))
			}
			writeTooManyRequests(w, retryAfter)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (l *IPRateLimiter) cleanupLoop() {
	tick := time.NewTicker(l.cleanupTick)
	defer tick.Stop()
	for range tick.C {
		l.mu.Lock()
		cutoff := nowUnix() - int64(l.window)
		for k, arr := range l.state {
			if filtered := prune(arr, cutoff); len(filtered) == 0 {
				delete(l.state, k)
			} else {
				l.state[k] = filtered
			}
		}
		l.mu.Unlock()
	}
}

// UserRateLimiter implements sliding window per user with per-route rules and penalties.
// It must run after AuthMiddleware; anonymous requests pass through.
type UserRateLimiter struct {
	mu            sync.Mutex
	state         map[string]timestamps // key = userID:routeCategory
	penalty       map[string]penaltyInfo
	windowDefault time.Duration
	cleanupTick   time.Duration
	instanceRead  int
	instanceWrite int
}

type penaltyInfo struct {
	Level int
	Until int64 // unix nanos
}

func NewUserRateLimiter(maxReqRead, maxReqWrite int, windowSec int) *UserRateLimiter {
	l := &UserRateLimiter{
		state:         make(map[string]timestamps),
		penalty:       make(map[string]penaltyInfo),
		windowDefault: time.Duration(windowSec) * time.Second,
		cleanupTick:   getEnvDuration("RATE_CLEANUP_SECONDS", 60*time.Second),
		instanceRead:  maxReqRead,
		instanceWrite: maxReqWrite,
	}
	go l.cleanupLoop()
	return l
}

func routeCategory(r *http.Request) string {
	path := r.URL.Path
	switch {
	case strings.HasPrefix(path, "/api/auth"):
		return "auth"
	case strings.HasSuffix(path, "/complete"), strings.HasSuffix(path, "/describe"), strings.HasSuffix(path, "/taunt"):
		return "upload"
	case r.Method == http.MethodGet:
		return "read"
	default:
		return "write"
	}
}

func (l *UserRateLimiter) limitFor(cat string) (int, time.Duration) {
	window := l.windowDefault
	if window <= 0 {
		window = time.Minute
	}
	switch cat {
	case "auth":
		return config.GetInt("RATE_USER_AUTH", 50), time.Minute
	case "upload":
		return config.GetInt("RATE_USER_UPLOAD", 10), time.Minute
	case "read":
		if l.instanceRead > 0 {
			return l.instanceRead, window
		}
		return config.GetInt("RATE_USER_API", 100), window
	default:
		if l.instanceWrite > 0 {
			return l.instanceWrite, window
		}
		return config.GetInt("RATE_USER_API", 100), window
	}
}

// penaltyFor is the progressive lockout: 1, 5, 15 then 30 minutes.
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

func (l *UserRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := utils.GetActor(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		cat := routeCategory(r)
		limit, window := l.limitFor(cat)
		key := "u:" + actor.ID + ":" + cat
		now := nowUnix()

		l.mu.Lock()
		filtered := append(prune(l.state[key], now-int64(window)), now)
		l.state[key] = filtered
		count := len(filtered)

		pi := l.penalty[key]
		if pi.Until > now {
			l.mu.Unlock()
			writeTooManyRequests(w, int(time.Duration(pi.Until-now).Seconds()))
			return
		}

		remaining := limit - count
		if remaining < 0 {
			remaining = 0
		}
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))

		if count > limit {
			level := pi.Level + 1
			d := penaltyFor(level)
			l.penalty[key] = penaltyInfo{Level: level, Until: now + int64(d)}
			l.mu.Unlock()
			writeTooManyRequests(w, int(d.Seconds()))
			return
		}
		l.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (l *UserRateLimiter) cleanupLoop() {
	tick := time.NewTicker(l.cleanupTick)
	defer tick.Stop()
	for range tick.C {
		l.mu.Lock()
		now := nowUnix()
		window := l.windowDefault
		if window < time.Minute {
			window = time.Minute
		}
		for k, arr := range l.state {
			if filtered := prune(arr, now-int64(window)); len(filtered) == 0 {
				delete(l.state, k)
			} else {
				l.state[k] = filtered
			}
		}
		for k, p := range l.penalty {
			if p.Until < now {
				delete(l.penalty, k)
			}
		}
		l.mu.Unlock()
	}
}
