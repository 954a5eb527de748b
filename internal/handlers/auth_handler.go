package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"autodealer/internal/models"
	"autodealer/internal/services"
)

// AuthOperations is the part of services.AuthService the HTTP layer uses.
type AuthOperations interface {
	Login(ctx context.Context, email, password string) (string, *models.Admin, error)
	CreateAdmin(ctx context.Context, in services.NewAdminInput) (*models.Admin, error)
}

type AuthHandler struct {
	auth AuthOperations
}

func NewAuthHandler(auth AuthOperations) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type createAdminRequest struct {
	Email       string                  `json:"email" binding:"required"`
	Password    string                  `json:"password" binding:"required"`
	ProjectID   string                  `json:"project_id" binding:"required"`
	IsSuper     bool                    `json:"is_super"`
	Permissions models.AdminPermissions `json:"permissions"`
}

// @Summary      Вход в систему
// @Description  Проверяет email и пароль и возвращает JWT
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        login  body      loginRequest  true  "Данные для входа"
// @Success      200    {object}  map[string]interface{}
// @Failure      400    {object}  map[string]string
// @Failure      401    {object}  map[string]string
// @Router       /login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	token, admin, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, "auth.login", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "admin": admin})
}

// @Summary      Текущий администратор
// @Tags         Auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  models.Admin
// @Failure      401  {object}  map[string]string
// @Router       /me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	if actor.Admin == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.JSON(http.StatusOK, actor.Admin)
}

// @Summary      Создать администратора
// @Description  Доступно только суперадмину
// @Tags         Admins
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        admin  body      createAdminRequest  true  "Новый администратор"
// @Success      201    {object}  models.Admin
// @Failure      400    {object}  map[string]string
// @Failure      403    {object}  map[string]string
// @Failure      409    {object}  map[string]string
// @Router       /admins [post]
func (h *AuthHandler) CreateAdmin(c *gin.Context) {
	var req createAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	admin, err := h.auth.CreateAdmin(c.Request.Context(), services.NewAdminInput{
		Email:       req.Email,
		Password:    req.Password,
		ProjectID:   req.ProjectID,
		IsSuper:     req.IsSuper,
		Permissions: req.Permissions,
	})
	if err != nil {
		respondError(c, "admin.create", err)
		return
	}
	c.JSON(http.StatusCreated, admin)
}
