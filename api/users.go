package api

import (
	"net/http"

	"github.com/Domenick1991/gulfair/internal/domain"
	"github.com/Domenick1991/gulfair/internal/service/users"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type UserHandler struct {
	service users.UserUseCase
	log     logrus.FieldLogger
}

type registerRequest struct {
	Username    string `json:"username" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`
}

type loginRequest struct {
	Username          string `json:"username"`
	Email             string `json:"email"`
	FalconFlyerNumber string `json:"falcon_flyer_number"`
	Password          string `json:"password" binding:"required"`
}

type userResponse struct {
	ID               int64   `json:"id"`
	Username         string  `json:"username"`
	Email            string  `json:"email"`
	FirstName        string  `json:"first_name"`
	LastName         string  `json:"last_name"`
	PhoneNumber      string  `json:"phone_number"`
	LoyaltyMiles     int     `json:"loyalty_miles"`
	LoyaltyPoints    int     `json:"loyalty_points"`
	LoyaltyTier      string  `json:"loyalty_tier"`
	MembershipNumber *string `json:"membership_number"`
}

func toUserResponse(u *domain.User) userResponse {
	resp := userResponse{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		PhoneNumber:   u.PhoneNumber,
		LoyaltyMiles:  u.LoyaltyMiles,
		LoyaltyPoints: u.LoyaltyPoints,
		LoyaltyTier:   u.LoyaltyTier,
	}
	if u.MembershipNumber.Valid {
		resp.MembershipNumber = &u.MembershipNumber.String
	}
	return resp
}

func NewUserHandler(service users.UserUseCase, log logrus.FieldLogger) *UserHandler {
	return &UserHandler{service: service, log: log}
}

// Register mounts /register and /login publicly and the user listing behind auth.
func (h *UserHandler) Register(router *gin.RouterGroup, authMW gin.HandlerFunc) {
	router.POST("/register", h.register)
	router.POST("/login", h.login)

	protected := router.Group("/users", authMW)
	protected.GET("", h.list)
	protected.GET("/:id", h.get)
}

func (h *UserHandler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.service.Register(c.Request.Context(), users.RegisterInput{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, toUserResponse(user))
}

func (h *UserHandler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	res, err := h.service.Login(c.Request.Context(), users.LoginInput{
		Username:          req.Username,
		Email:             req.Email,
		FalconFlyerNumber: req.FalconFlyerNumber,
		Password:          req.Password,
	})
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *UserHandler) list(c *gin.Context) {
	list, err := h.service.List(c.Request.Context())
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	resp := make([]userResponse, 0, len(list))
	for i := range list {
		resp = append(resp, toUserResponse(&list[i]))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *UserHandler) get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	user, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}
