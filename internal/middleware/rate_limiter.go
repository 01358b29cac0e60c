package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"topneum/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// ventana tracks request counts of one client IP within a fixed window.
type ventana struct {
	count int
	fin   time.Time
}

// Limitador is a per-IP fixed-window rate limiter.
type Limitador struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu       sync.Mutex
	ventanas map[string]*ventana
}

func NewLimitador(limit int, window time.Duration) *Limitador {
	return &Limitador{limit: limit, window: window, now: time.Now, ventanas: make(map[string]*ventana)}
}

// Permitir counts one request from ip and reports whether it fits the window,
// plus the seconds left until the window resets.
func (l *Limitador) Permitir(ip string) (bool, int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	v, ok := l.ventanas[ip]
	if !ok || now.After(v.fin) {
		v = &ventana{fin: now.Add(l.window)}
		l.ventanas[ip] = v
	}
	v.count++
	resto := int(v.fin.Sub(now).Seconds()) + 1
	return v.count <= l.limit, resto
}

// Purgar drops expired windows and returns how many were removed.
func (l *Limitador) Purgar() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	n := 0
	for ip, v := range l.ventanas {
		if now.After(v.fin) {
			delete(l.ventanas, ip)
			n++
		}
	}
	return n
}

// PurgarCada runs Purgar periodically until stop is closed.
func (l *Limitador) PurgarCada(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if n := l.Purgar(); n > 0 {
				log.Debug().Int("purgadas", n).Msg("rate limiter: ventanas vencidas purgadas")
			}
		}
	}
}

// Middleware answers 429 with Retry-After once the client exceeds the limit.
func (l *Limitador) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, resto := l.Permitir(c.ClientIP())
		if !ok {
			c.Header("Retry-After", strconv.Itoa(resto))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.WithCode(apierror.CodeRateLimited, "Demasiadas solicitudes. Intente nuevamente en un momento."))
			return
		}
		c.Next()
	}
}
