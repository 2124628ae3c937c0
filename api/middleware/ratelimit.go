package middleware

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/pharmakart/pharmacy-api/api/web"
	"github.com/pharmakart/pharmacy-api/api/weberr"
	"github.com/pharmakart/pharmacy-api/rate"
)

// RateLimit throttles a route per client address. Used on the credential
// endpoints to slow down guessing.
func RateLimit(lim *rate.Limiter) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			host, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				host = r.RemoteAddr
			}

			if !lim.Check(host) {
				return weberr.NewError(
					errors.New("rate limit exceeded"),
					"too many requests, slow down",
					http.StatusTooManyRequests,
				)
			}

			return handler(ctx, w, r)
		}
		return h
	}
	return m
}
