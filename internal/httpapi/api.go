// Package httpapi exposes the reward service over JSON/HTTP.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/track-reward/internal/episode"
	"github.com/danielpatrickdp/track-reward/internal/rewardrpc"
	"github.com/danielpatrickdp/track-reward/internal/server"
)

// Service is what the API needs from the reward server.
type Service interface {
	Score(ctx context.Context, req rewardrpc.EvaluateRequest) (rewardrpc.EvaluateResponse, error)
	Open(ctx context.Context, req rewardrpc.StartEpisodeRequest) (rewardrpc.StartEpisodeResponse, error)
	End(ctx context.Context, episodeID string) error
	Summary(ctx context.Context, episodeID string) (episode.EpisodeSummary, error)
}

// API is the HTTP front end.
type API struct {
	router *gin.Engine
	svc    Service
	log    *logrus.Logger
}

// NewAPI creates the router and registers every route.
func NewAPI(svc Service, logger *logrus.Logger) *API {
	a := &API{
		router: gin.New(),
		svc:    svc,
		log:    logger,
	}
	a.setupRoutes()
	return a
}

func (a *API) setupRoutes() {
	a.router.Use(gin.Recovery())
	a.router.Use(a.loggingMiddleware())

	a.router.GET("/healthz", a.healthCheck)

	v1 := a.router.Group("/v1")
	{
		v1.POST("/reward", a.evaluate)
		v1.POST("/episodes", a.startEpisode)
		v1.GET("/episodes/:id", a.episodeSummary)
		v1.POST("/episodes/:id/end", a.endEpisode)
	}
}

// Handler returns the router as an http.Handler.
func (a *API) Handler() http.Handler {
	return a.router
}

// Middleware

func (a *API) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		a.log.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.FullPath(),
			"status":   c.Writer.Status(),
			"duration": time.Since(start),
		}).Debug("http request")
	}
}

// Handlers

func (a *API) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (a *API) evaluate(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	in := &structpb.Struct{}
	if err := protojson.Unmarshal(body, in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body must be a JSON object: " + err.Error()})
		return
	}
	req, err := rewardrpc.ParseEvaluateRequest(in)
	if err != nil {
		a.fail(c, err)
		return
	}
	resp, err := a.svc.Score(c.Request.Context(), req)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (a *API) startEpisode(c *gin.Context) {
	var req struct {
		Strategy string `json:"strategy"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	resp, err := a.svc.Open(c.Request.Context(), rewardrpc.StartEpisodeRequest{Strategy: req.Strategy})
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (a *API) episodeSummary(c *gin.Context) {
	sum, err := a.svc.Summary(c.Request.Context(), c.Param("id"))
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

func (a *API) endEpisode(c *gin.Context) {
	if err := a.svc.End(c.Request.Context(), c.Param("id")); err != nil {
		a.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *API) fail(c *gin.Context, err error) {
	code := httpStatus(server.Code(err))
	if code >= http.StatusInternalServerError {
		a.log.WithError(err).WithField("path", c.FullPath()).Error("request failed")
	}
	c.JSON(code, gin.H{"error": err.Error()})
}

func httpStatus(code codes.Code) int {
	switch code {
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.NotFound:
		return http.StatusNotFound
	case codes.FailedPrecondition:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
