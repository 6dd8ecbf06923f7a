package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/rollcallhq/presence/internal/presence/service"
	"github.com/rollcallhq/presence/internal/presence/store"
	"github.com/rollcallhq/presence/pkg/httpx"
	"github.com/rollcallhq/presence/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	debugCodes   bool

	store         store.Store
	Salts         *service.SaltRotator
	Challenges    *service.ChallengeService
	Codes         *service.CodeService
	Verifications *service.VerificationService
	Checkins      *service.CheckinService
	Overrides     *service.OverrideService
}

func NewRouter(buildVersion string, st store.Store, logger *slog.Logger, debugCodes bool) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		debugCodes:   debugCodes,
		store:        st,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerVerification()
	r.registerCheckin()
	r.registerOverride()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerVerification() {
	// GET /time - lenient limit (displays poll this continuously)
	timeHandler := &TimeHandler{Salts: r.Salts}
	r.Mux.Handle("GET /api/v1/time",
		httpx.Chain(timeHandler,
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)

	challengeHandler := &ChallengeHandler{
		Challenges:    r.Challenges,
		Verifications: r.Verifications,
	}

	// GET /challenge - lenient limit (display refresh loop)
	// Note: keyed by IP + sid, so one classroom NAT running several session
	// displays doesn't starve itself
	r.Mux.Handle("GET /api/v1/challenge",
		httpx.Chain(http.HandlerFunc(challengeHandler.HandleIssue),
			httpx.RateLimitMiddleware(httpx.LenientLimit,
				httpx.CompositeKeyExtractor("|",
					httpx.IPKeyExtractor,
					httpx.QueryKeyExtractor("sid"),
				),
			),
		),
	)

	// POST /validate-challenge - strict limit (proof attempts)
	r.Mux.Handle("POST /api/v1/validate-challenge",
		httpx.Chain(http.HandlerFunc(challengeHandler.HandleValidate),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /validate-code - strict limit (prevent brute force of the code space)
	codeHandler := &CodeHandler{
		Codes:         r.Codes,
		Verifications: r.Verifications,
		DebugExpected: r.debugCodes,
	}
	r.Mux.Handle("POST /api/v1/validate-code",
		httpx.Chain(codeHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerCheckin() {
	// POST /checkin - moderate limit; the domain submission gate applies its
	// own per-connection spacing on top
	checkinHandler := &CheckinHandler{Checkins: r.Checkins}
	r.Mux.Handle("POST /api/v1/checkin",
		httpx.Chain(checkinHandler,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerOverride() {
	h := &OverrideHandler{
		Overrides:     r.Overrides,
		Verifications: r.Verifications,
	}

	// POST /override/check - moderate limit (availability probe)
	r.Mux.Handle("POST /api/v1/override/check",
		httpx.Chain(http.HandlerFunc(h.HandleCheck),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	// POST /override/complete - strict limit (secret attempts)
	r.Mux.Handle("POST /api/v1/override/complete",
		httpx.Chain(http.HandlerFunc(h.HandleComplete),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
