package echo

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/wildlanka/identity/api"
	"github.com/wildlanka/identity/domain"
	autherrors "github.com/wildlanka/identity/errors"
	"github.com/wildlanka/identity/mongodb"
)

// LoginReconciler is the service behind the identity endpoints. Satisfied by
// *reconcile.Reconciler.
type LoginReconciler interface {
	ReconcileLogin(ctx context.Context, assertion domain.IdentityAssertion, client domain.ClientContext) (*domain.AccountView, error)
	GetAccount(ctx context.Context, subjectID string) (*domain.AccountView, error)
}

// IdentityAPI struct to hold dependencies.
type IdentityAPI struct {
	reconciler LoginReconciler
	devMode    bool
}

// NewIdentityAPI initializes the identity API. devMode controls whether
// storage-failure detail is included in 500 responses.
func NewIdentityAPI(reconciler LoginReconciler, devMode bool) *IdentityAPI {
	return &IdentityAPI{
		reconciler: reconciler,
		devMode:    devMode,
	}
}

// RegisterRoutes registers the identity routes.
func (ia *IdentityAPI) RegisterRoutes(e *echo.Echo) {
	e.POST("/v1/auth/login", ia.LoginHandler)
	e.GET("/v1/accounts/:subjectID", ia.GetAccountHandler)
	e.GET("/healthz", ia.HealthHandler)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// LoginHandler reconciles one verified login assertion into a
// created-or-updated account and returns the account view.
func (ia *IdentityAPI) LoginHandler(c echo.Context) error {
	var req api.LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: "Invalid request body"})
	}

	clientCtx := domain.ClientContext{
		IP:        c.RealIP(),
		UserAgent: c.Request().UserAgent(),
	}

	view, err := ia.reconciler.ReconcileLogin(c.Request().Context(), req.Assertion(), clientCtx)
	if err != nil {
		return ia.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

// GetAccountHandler is fetch-only: unknown subject ids yield 404 and no
// account is ever created here.
func (ia *IdentityAPI) GetAccountHandler(c echo.Context) error {
	view, err := ia.reconciler.GetAccount(c.Request().Context(), c.Param("subjectID"))
	if err != nil {
		return ia.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

// HealthHandler reports liveness of the service and its MongoDB backend.
func (ia *IdentityAPI) HealthHandler(c echo.Context) error {
	if err := mongodb.Ping(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, api.ErrorResponse{Message: "database unreachable"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (ia *IdentityAPI) errorResponse(c echo.Context, err error) error {
	authErr, ok := err.(*autherrors.AuthError)
	if !ok {
		log.Error().Err(err).Msg("Unexpected untyped error from reconciler")
		authErr = autherrors.NewPersistenceFailure("Internal server error", err)
	}

	resp := api.ErrorResponse{Message: authErr.Message}
	if authErr.Status == http.StatusInternalServerError {
		if ia.devMode {
			resp.Err = authErr.Detail
		} else {
			resp.Err = "internal error"
		}
	}
	return c.JSON(authErr.Status, resp)
}
