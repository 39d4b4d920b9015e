package rest

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"file-share-api/internal/application/ports"
	"file-share-api/internal/application/services"
	"file-share-api/internal/infrastructure/jwt"
	"file-share-api/internal/interface/api/rest/dto/file"
	"file-share-api/internal/interface/api/rest/middleware"
)

type AdminController struct {
	sweeper ports.Sweeper
	logger  *zap.Logger
}

func NewAdminController(
	r *gin.Engine,
	sweeper ports.Sweeper,
	logger *zap.Logger,
	jwtService *jwt.Service,
) *AdminController {
	ac := &AdminController{
		sweeper: sweeper,
		logger:  logger,
	}

	g := r.Group(RouteAdmin, middleware.AuthMiddleware(jwtService))
	g.GET("/cleanup-stats", ac.StatsHandler)
	g.POST("/force-cleanup", ac.ForceCleanupHandler)

	return ac
}

func (ac *AdminController) StatsHandler(c *gin.Context) {
	stats, err := ac.sweeper.Stats(c.Request.Context())
	if err != nil {
		respondError(c, ac.logger, "Stats()", err)
		return
	}

	c.JSON(http.StatusOK, file.ToStats(stats))
}

func (ac *AdminController) ForceCleanupHandler(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	// the batch runs to the end even if the client goes away
	report, err := ac.sweeper.Sweep(context.WithoutCancel(c.Request.Context()))
	if err != nil {
		if errors.Is(err, services.ErrSweepInProgress) {
			c.JSON(http.StatusConflict, gin.H{"error": "Cleanup already in progress"})
			return
		}
		respondError(c, ac.logger, "Sweep()", err)
		return
	}

	ac.logger.Info("manual cleanup finished",
		zap.String("actor_id", actor.ID.String()),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed),
	)

	c.JSON(http.StatusOK, file.CleanupResponse{
		Message: "Cleanup completed",
		Report:  file.ToSweepReport(report),
	})
}
