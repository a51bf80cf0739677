package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/tuttoxa9/vahtarep10/internal/dtos"
)

type RouterDeps struct {
	Applications *ApplicationHandler
	Vacancies    *VacancyHandler
	// nil disables per-client limits on the submission endpoints
	Limiter *RateLimiter
	Mode    string
	// nil keys clients on the socket peer address and ignores forwarding headers
	TrustedProxies []string
}

func NewRouter(d RouterDeps) (*gin.Engine, error) {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	if err := r.SetTrustedProxies(d.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}
	r.Use(RequestID(), AccessLog(), Recovery())

	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, dtos.ErrorResponse{Error: "Method not allowed"})
	})
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dtos.ErrorResponse{Error: "Not found"})
	})

	r.GET("/health", HealthCheck(d.Mode))

	submitMethods := []string{http.MethodPost, http.MethodOptions}
	submit := r.Group("/", cors.New(corsConfig(submitMethods)))
	{
		submit.OPTIONS("/submit-application", preflight(submitMethods))
		submit.POST("/submit-application", d.Limiter.Middleware(), d.Applications.SubmitApplication)

		submit.OPTIONS("/submit-employer-application", preflight(submitMethods))
		submit.POST("/submit-employer-application", d.Limiter.Middleware(), d.Applications.SubmitEmployerApplication)
	}

	readMethods := []string{http.MethodGet, http.MethodOptions}
	vacancies := r.Group("/vacancies", cors.New(corsConfig(readMethods)))
	{
		vacancies.OPTIONS("", preflight(readMethods))
		vacancies.GET("", d.Vacancies.List)
		vacancies.OPTIONS("/:id", preflight(readMethods))
		vacancies.GET("/:id", d.Vacancies.Get)
	}

	return r, nil
}

func corsConfig(methods []string) cors.Config {
	return cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    methods,
		AllowHeaders:    []string{"Content-Type"},
		MaxAge:          12 * time.Hour,
	}
}

// preflight answers OPTIONS requests that carry no Origin header, which the
// cors middleware passes through untouched.
func preflight(methods []string) gin.HandlerFunc {
	allowed := strings.Join(methods, ", ")
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", allowed)
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		c.Status(http.StatusNoContent)
	}
}
