package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"file-share-api/internal/application/ports"
	"file-share-api/internal/application/services"
	domain "file-share-api/internal/domain/user"
	"file-share-api/internal/interface/api/rest/dto/auth"
	"file-share-api/internal/interface/api/rest/dto/user"
	"file-share-api/internal/interface/api/rest/validator"
)

type AuthController struct {
	logger      *zap.Logger
	userService ports.UserService
	authService ports.Auth
}

func NewAuthController(
	r *gin.Engine,
	logger *zap.Logger,
	userService ports.UserService,
	authService ports.Auth,
) *AuthController {
	ac := &AuthController{
		logger:      logger,
		userService: userService,
		authService: authService,
	}

	r.POST(RouteLogin, ac.LoginHandler)
	r.POST(RouteRegister, ac.RegisterHandler)

	return ac
}

func (ac *AuthController) RegisterHandler(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(
			http.StatusBadRequest,
			gin.H{"error": "invalid json"},
		)
		return
	}

	if errs := validator.ValidateRegister(req); errs != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid request body",
			"details": errs,
		})
		return
	}

	u, err := ac.userService.Register(c.Request.Context(), req.Email, req.UserName, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrEmailAlreadyExists) || errors.Is(err, domain.ErrUserNameAlreadyExists) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(
			http.StatusInternalServerError,
			gin.H{"error": "failed to register a user"},
		)
		ac.logger.Error("Register() error", zap.Error(err))
		return
	}

	c.JSON(http.StatusCreated, user.ToResponseUser(*u))
}

func (ac *AuthController) LoginHandler(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(
			http.StatusBadRequest,
			gin.H{"error": "invalid json"},
		)
		return
	}

	if errs := validator.ValidateLogin(req); errs != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid request body",
			"details": errs,
		})
		return
	}

	u, err := ac.userService.FindByEmail(c.Request.Context(), req.Email)
	if err != nil {
		c.JSON(
			http.StatusInternalServerError,
			gin.H{"error": "failed to get a user"},
		)
		ac.logger.Error("FindByEmail() error", zap.Error(err))
		return
	}

	// an unknown email gets the same answer as a wrong password
	token, err := ac.authService.GenerateToken(u, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		ac.logger.Error("GenerateToken() error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": services.ErrFailedToGenerateToken.Error()})
		return
	}

	c.JSON(http.StatusOK, auth.LoginResponse{
		Token:     token,
		TokenType: "Bearer",
		User:      user.ToResponseUser(*u),
	})
}
