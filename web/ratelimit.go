package web

import (
	"log"
	"net/http"
	"strconv"
	"time"

	limiter "github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// RateLimitHandler limits each client IP to limit requests per window using
// an in-memory store. A limit of zero disables limiting. Requests over the
// limit get 429 Too Many Requests with a Retry-After header.
func RateLimitHandler(h http.Handler, limit int, window time.Duration) http.Handler {
	if limit <= 0 || window <= 0 {
		return h
	}
	instance := limiter.New(memory.NewStore(), limiter.Rate{
		Period: window,
		Limit:  int64(limit),
	})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lctx, err := instance.Get(r.Context(), instance.GetIPKey(r))
		if err != nil {
			log.Printf("RateLimitHandler: %s", err)
			h.ServeHTTP(w, r)
			return
		}
		w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(lctx.Limit, 10))
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(lctx.Remaining, 10))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(lctx.Reset, 10))
		if lctx.Reached {
			retryAfter := int(time.Until(time.Unix(lctx.Reset, 0)).Seconds())
			if retryAfter < 0 {
				retryAfter = 0
			}
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			return
		}
		h.ServeHTTP(w, r)
	})
}
