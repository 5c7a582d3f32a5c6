package api

import (
	"net/http"

	"github.com/Domenick1991/gulfair/internal/domain"
	"github.com/Domenick1991/gulfair/internal/service/flights"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type FlightHandler struct {
	service flights.FlightUseCase
	log     logrus.FieldLogger
}

func NewFlightHandler(service flights.FlightUseCase, log logrus.FieldLogger) *FlightHandler {
	return &FlightHandler{service: service, log: log}
}

func (h *FlightHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.list)
	router.GET("/:id", h.get)
	router.GET("/search/:departure/:arrival", h.search)
	router.GET("/status/:number", h.status)
}

func (h *FlightHandler) list(c *gin.Context) {
	list, err := h.service.List(c.Request.Context())
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	if list == nil {
		list = []domain.Flight{}
	}
	c.JSON(http.StatusOK, list)
}

func (h *FlightHandler) get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	flight, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, flight)
}

func (h *FlightHandler) search(c *gin.Context) {
	list, err := h.service.Search(c.Request.Context(), c.Param("departure"), c.Param("arrival"))
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	if list == nil {
		list = []domain.Flight{}
	}
	c.JSON(http.StatusOK, list)
}

func (h *FlightHandler) status(c *gin.Context) {
	info, err := h.service.Status(c.Request.Context(), c.Param("number"))
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, info)
}
