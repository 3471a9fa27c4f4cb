package middleware

import (
	"context"
	"crypto/subtle"
	"net"
	"sync"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"clinic-booking-api/internal/grpcweb"
	"clinic-booking-api/internal/wire"
)

type client struct {
	lim  *rate.Limiter
	seen time.Time
}

type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*client
	r       rate.Limit
	burst   int
	relay   []byte
	done    chan struct{}
	once    sync.Once
}

// NewRateLimiter keys buckets by client host. relayToken is the secret the
// local grpc-web bridge attaches to relayed calls; empty disables forwarding.
func NewRateLimiter(rps float64, burst int, relayToken string) *RateLimiter {
	rl := &RateLimiter{
		clients: make(map[string]*client),
		r:       rate.Limit(rps),
		burst:   burst,
		relay:   []byte(relayToken),
		done:    make(chan struct{}),
	}
	go rl.sweep(time.Minute, 3*time.Minute)
	return rl
}

// sweep drops clients not seen for idle.
func (rl *RateLimiter) sweep(every, idle time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-rl.done:
			return
		case <-t.C:
			rl.mu.Lock()
			for ip, c := range rl.clients {
				if time.Since(c.seen) > idle {
					delete(rl.clients, ip)
				}
			}
			rl.mu.Unlock()
		}
	}
}

func (rl *RateLimiter) Close() {
	rl.once.Do(func() { close(rl.done) })
}

func (rl *RateLimiter) get(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if c, ok := rl.clients[ip]; ok {
		c.seen = time.Now()
		return c.lim
	}
	l := rate.NewLimiter(rl.r, rl.burst)
	rl.clients[ip] = &client{lim: l, seen: time.Now()}
	return l
}

// methods that should be rate limited
var limited = map[string]bool{
	wire.FullMethod("Register"):     true,
	wire.FullMethod("Login"):        true,
	wire.FullMethod("RefreshToken"): true,
}

// clientIP keys the limiter by host. Calls relayed by the local grpc-web
// bridge carry the browser address in x-forwarded-for; the header counts only
// from a loopback peer that also presents the bridge's relay token.
func (rl *RateLimiter) clientIP(ctx context.Context) string {
	ip := "unknown"
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		ip = p.Addr.String()
		if host, _, err := net.SplitHostPort(ip); err == nil {
			ip = host
		}
	}
	parsed := net.ParseIP(ip)
	if parsed == nil || !parsed.IsLoopback() || len(rl.relay) == 0 {
		return ip
	}
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ip
	}
	tok := md.Get(grpcweb.RelayKey)
	if len(tok) == 0 || subtle.ConstantTimeCompare([]byte(tok[0]), rl.relay) != 1 {
		return ip
	}
	if fwd := md.Get("x-forwarded-for"); len(fwd) > 0 && fwd[0] != "" {
		return fwd[0]
	}
	return ip
}

func RateLimit(rl *RateLimiter) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		if !limited[info.FullMethod] {
			return next(ctx, req)
		}
		if !rl.get(rl.clientIP(ctx)).Allow() {
			return nil, status.Error(codes.ResourceExhausted, "too many requests")
		}
		return next(ctx, req)
	}
}
