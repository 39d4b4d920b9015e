package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"file-share-api/internal/application/ports"
	"file-share-api/internal/infrastructure/jwt"
	"file-share-api/internal/interface/api/rest/dto/user"
	"file-share-api/internal/interface/api/rest/middleware"
)

type UserController struct {
	userService ports.UserService
	logger      *zap.Logger
}

func NewUserController(
	r *gin.Engine,
	userService ports.UserService,
	logger *zap.Logger,
	jwtService *jwt.Service,
) *UserController {
	uc := &UserController{
		userService: userService,
		logger:      logger,
	}

	r.GET(RouteMe, middleware.AuthMiddleware(jwtService), uc.MeHandler)

	return uc
}

// MeHandler answers from the database so a deleted account is reported as 404
// even while its token is still valid.
func (uc *UserController) MeHandler(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	u, err := uc.userService.FindUserByID(c.Request.Context(), actor.ID)
	if err != nil {
		c.JSON(
			http.StatusInternalServerError,
			gin.H{"error": "failed to get a user"},
		)
		uc.logger.Error("FindUserByID() error", zap.Error(err))
		return
	}
	if u == nil {
		c.JSON(
			http.StatusNotFound,
			gin.H{"error": "user not found"},
		)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user.ToResponseUser(*u)})
}
