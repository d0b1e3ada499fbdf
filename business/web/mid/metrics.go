package mid

import (
	"context"
	"net/http"

	"github.com/ardanlabs/utxoledger/foundation/web"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics updates program counters for every request that passes through
// the handler chain.
func Metrics(reg prometheus.Registerer) web.Middleware {
	requests := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ledger_http_requests_total",
		Help: "Number of requests handled by the node API.",
	})
	errors := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ledger_http_errors_total",
		Help: "Number of requests that ended in an error.",
	})
	reg.MustRegister(requests, errors)

	// This is the actual middleware function to be executed.
	m := func(handler web.Handler) web.Handler {

		// Create the handler that will be attached in the middleware chain.
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			// Call the next handler.
			err := handler(ctx, w, r)

			requests.Inc()
			if err != nil {
				errors.Inc()
			}

			// Return the error so it can be handled further up the chain.
			return err
		}

		return h
	}

	return m
}
