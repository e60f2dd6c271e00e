package apis

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"github.com/supakorn-kn/propadmin/errors"
	"github.com/supakorn-kn/propadmin/models"
	"github.com/supakorn-kn/propadmin/objects"
	"github.com/supakorn-kn/propadmin/query"
	"go.uber.org/zap"
)

// NewEngine builds the router with request logging, panic recovery and a
// health endpoint.
func NewEngine(logger *zap.Logger) *gin.Engine {

	if logger == nil {
		logger = zap.NewNop()
	}

	g := gin.New()
	g.Use(RequestLogger(logger))
	g.Use(gin.CustomRecovery(func(ctx *gin.Context, recovered any) {

		logger.Error("handler panicked", zap.Any("panic", recovered), zap.String("path", ctx.Request.URL.Path))

		unknownError := errors.UnknownError.New(fmt.Sprint(recovered))
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, CRUDResponse{Error: &unknownError})
	}))

	g.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "OK"})
	})

	return g
}

// RequestLogger logs one line per request once the handler chain returns.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {

	return func(ctx *gin.Context) {

		start := time.Now()
		ctx.Next()

		fields := []zap.Field{
			zap.String("method", ctx.Request.Method),
			zap.String("path", ctx.Request.URL.Path),
			zap.String("query", ctx.Request.URL.RawQuery),
			zap.Int("status", ctx.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", ctx.ClientIP()),
		}

		if ctx.Writer.Status() >= http.StatusInternalServerError {
			logger.Error("request", fields...)
			return
		}

		logger.Info("request", fields...)
	}
}

// RegisterCollections mounts every collection under /api/<collection>.
func RegisterCollections(g *gin.Engine, set models.Set, client *query.Client, pageSize int) error {

	group := g.Group("api")

	if err := register(group, set.Properties, client, pageSize); err != nil {
		return err
	}

	if err := register(group, set.Units, client, pageSize); err != nil {
		return err
	}

	if err := register(group, set.Facilities, client, pageSize); err != nil {
		return err
	}

	if err := register(group, set.LeasingTypes, client, pageSize); err != nil {
		return err
	}

	return register(group, set.UnitCategories, client, pageSize)
}

func register[T objects.Item](group *gin.RouterGroup, model models.Model[T], client *query.Client, pageSize int) error {

	api, err := NewCollectionAPI(model, client, pageSize)
	if err != nil {
		return err
	}

	RegisterCrudAPI[T](api, group.Group(model.GetCollectionName()))

	return nil
}

// WithCORS lets the browser console on the allowed origins call the API.
func WithCORS(handler http.Handler, allowedOrigins []string) http.Handler {

	return cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         600,
	}).Handler(handler)
}
