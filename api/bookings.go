package api

import (
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/Domenick1991/partnerbooking/internal/domain"
	"github.com/Domenick1991/partnerbooking/internal/service/booking"
	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

type transitionRequest struct {
	Status string `json:"status" binding:"required"`
	Notes  string `json:"notes"`
}

type bulkTransitionRequest struct {
	BookingIDs []int64 `json:"booking_ids" binding:"required"`
	Status     string  `json:"status" binding:"required"`
	Notes      string  `json:"notes"`
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("", h.create)
	router.POST("/bulk/status", h.bulkTransition)
	router.GET("/:id", h.get)
	router.POST("/:id/status", h.transition)
	router.POST("/:id/cancel", h.cancel)
	router.POST("/:id/payment-proof", h.uploadPaymentProof)
	router.GET("/:id/payment-proof", h.downloadPaymentProof)
	router.POST("/:id/payment-request", h.requestPayment)
}

func (h *BookingHandler) create(c *gin.Context) {
	actor, ok := requirePartner(c)
	if !ok {
		return
	}
	var input booking.CreateBookingInput
	if !bindJSON(c, &input) {
		return
	}
	input.PartnerID = actor.ID

	result, err := h.service.CreateBooking(c.Request.Context(), input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h *BookingHandler) get(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	b, err := h.service.GetBooking(c.Request.Context(), id, actor)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BookingHandler) transition(c *gin.Context) {
	actor, ok := requireAdmin(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req transitionRequest
	if !bindJSON(c, &req) {
		return
	}
	status, err := domain.ParseTargetStatus(req.Status)
	if err != nil {
		writeError(c, err)
		return
	}

	result, err := h.service.TransitionBooking(c.Request.Context(), booking.TransitionInput{
		BookingID: id,
		Status:    status,
		Actor:     actor,
		Notes:     req.Notes,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *BookingHandler) bulkTransition(c *gin.Context) {
	actor, ok := requireAdmin(c)
	if !ok {
		return
	}
	var req bulkTransitionRequest
	if !bindJSON(c, &req) {
		return
	}
	status, err := domain.ParseTargetStatus(req.Status)
	if err != nil {
		writeError(c, err)
		return
	}

	result, err := h.service.BulkTransition(c.Request.Context(), booking.BulkTransitionInput{
		BookingIDs: req.BookingIDs,
		Status:     status,
		Actor:      actor,
		Notes:      req.Notes,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *BookingHandler) cancel(c *gin.Context) {
	actor, ok := requirePartner(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req cancelRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}

	b, err := h.service.CancelBooking(c.Request.Context(), id, actor.ID, req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BookingHandler) uploadPaymentProof(c *gin.Context) {
	actor, ok := requirePartner(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	header, err := c.FormFile("file")
	if err != nil {
		writeError(c, domain.NewValidationError("file", "multipart field \"file\" is required"))
		return
	}
	file, err := header.Open()
	if err != nil {
		writeError(c, domain.NewValidationError("file", err.Error()))
		return
	}
	defer file.Close()

	result, err := h.service.UploadPaymentProof(c.Request.Context(), booking.PaymentProofInput{
		BookingID:   id,
		OwnerID:     actor.ID,
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Content:     file,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *BookingHandler) downloadPaymentProof(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	rc, ref, err := h.service.GetPaymentProof(c.Request.Context(), id, actor)
	if err != nil {
		writeError(c, err)
		return
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(strings.ToLower(path.Ext(ref)))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Disposition", `inline; filename="`+path.Base(ref)+`"`)
	c.Status(http.StatusOK)
	c.Header("Content-Type", contentType)
	_, _ = io.Copy(c.Writer, rc)
}

func (h *BookingHandler) requestPayment(c *gin.Context) {
	actor, ok := requireAdmin(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	result, err := h.service.RequestPayment(c.Request.Context(), id, actor)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
