package api

import (
	"net/http"
	"time"

	"github.com/Domenick1991/gulfair/internal/domain"
	"github.com/Domenick1991/gulfair/internal/service/booking"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type BookingHandler struct {
	service booking.BookingUseCase
	log     logrus.FieldLogger
}

type createBookingRequest struct {
	FlightID       int64   `json:"flight_id" binding:"required"`
	PassengerName  string  `json:"passenger_name" binding:"required"`
	PassengerEmail string  `json:"passenger_email" binding:"required,email"`
	PassportNumber string  `json:"passport_number" binding:"required"`
	SeatClass      string  `json:"seat_class"`
	SeatNumber     string  `json:"seat_number" binding:"required"`
	TotalPrice     float64 `json:"total_price" binding:"gte=0"`
}

// updateBookingRequest distinguishes absent fields from empty ones.
type updateBookingRequest struct {
	PassengerName  domain.Optional[string] `json:"passenger_name"`
	PassengerEmail domain.Optional[string] `json:"passenger_email"`
	PassportNumber domain.Optional[string] `json:"passport_number"`
	SeatNumber     domain.Optional[string] `json:"seat_number"`
}

type rescheduleRequest struct {
	NewFlightID int64  `json:"new_flight_id" binding:"required"`
	SeatClass   string `json:"seat_class"`
	SeatNumber  string `json:"seat_number"`
}

type bookingResponse struct {
	ID               int64                `json:"id"`
	BookingReference string               `json:"booking_reference"`
	UserID           int64                `json:"user_id"`
	FlightID         int64                `json:"flight_id"`
	PassengerName    string               `json:"passenger_name"`
	PassengerEmail   string               `json:"passenger_email"`
	PassportNumber   string               `json:"passport_number"`
	SeatClass        domain.SeatClass     `json:"seat_class"`
	SeatNumber       string               `json:"seat_number"`
	BookingStatus    domain.BookingStatus `json:"booking_status"`
	TotalPrice       float64              `json:"total_price"`
	BookingDate      time.Time            `json:"booking_date"`
}

func toBookingResponse(b *domain.Booking) bookingResponse {
	return bookingResponse{
		ID:               b.ID,
		BookingReference: b.BookingReference,
		UserID:           b.UserID,
		FlightID:         b.FlightID,
		PassengerName:    b.PassengerName,
		PassengerEmail:   b.PassengerEmail,
		PassportNumber:   b.PassportNumber,
		SeatClass:        b.SeatClass,
		SeatNumber:       b.SeatNumber,
		BookingStatus:    b.Status,
		TotalPrice:       b.TotalPrice,
		BookingDate:      b.BookingDate,
	}
}

func NewBookingHandler(service booking.BookingUseCase, log logrus.FieldLogger) *BookingHandler {
	return &BookingHandler{service: service, log: log}
}

// Register mounts the public reference lookup and the owner-only routes.
func (h *BookingHandler) Register(router *gin.RouterGroup, authMW gin.HandlerFunc) {
	router.GET("/reference/:reference", h.getByReference)

	protected := router.Group("", authMW)
	protected.GET("", h.list)
	protected.POST("", h.create)
	protected.GET("/:id", h.get)
	protected.PUT("/:id", h.update)
	protected.DELETE("/:id", h.cancel)
	protected.POST("/:id/checkin", h.checkIn)
	protected.POST("/:id/reschedule", h.reschedule)
}

func (h *BookingHandler) list(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	list, err := h.service.ListBookings(c.Request.Context(), userID)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	resp := make([]bookingResponse, 0, len(list))
	for i := range list {
		resp = append(resp, toBookingResponse(&list[i]))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *BookingHandler) create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	b, err := h.service.CreateBooking(c.Request.Context(), userID, booking.CreateBookingInput{
		FlightID:       req.FlightID,
		PassengerName:  req.PassengerName,
		PassengerEmail: req.PassengerEmail,
		PassportNumber: req.PassportNumber,
		SeatClass:      req.SeatClass,
		SeatNumber:     req.SeatNumber,
		TotalPrice:     req.TotalPrice,
	})
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, toBookingResponse(b))
}

func (h *BookingHandler) get(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	b, err := h.service.GetBooking(c.Request.Context(), userID, id)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(b))
}

func (h *BookingHandler) getByReference(c *gin.Context) {
	b, err := h.service.GetByReference(c.Request.Context(), c.Param("reference"))
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(b))
}

func (h *BookingHandler) update(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req updateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	b, err := h.service.UpdateBooking(c.Request.Context(), userID, id, domain.BookingPatch{
		PassengerName:  req.PassengerName,
		PassengerEmail: req.PassengerEmail,
		PassportNumber: req.PassportNumber,
		SeatNumber:     req.SeatNumber,
	})
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(b))
}

func (h *BookingHandler) cancel(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	res, err := h.service.CancelBooking(c.Request.Context(), userID, id)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *BookingHandler) checkIn(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	res, err := h.service.CheckIn(c.Request.Context(), userID, id)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *BookingHandler) reschedule(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req rescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	res, err := h.service.RescheduleBooking(c.Request.Context(), userID, id, booking.RescheduleInput{
		NewFlightID: req.NewFlightID,
		SeatClass:   req.SeatClass,
		SeatNumber:  req.SeatNumber,
	})
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":     res.Message,
		"new_booking": toBookingResponse(res.NewBooking),
	})
}
