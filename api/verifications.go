package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/Domenick1991/partnerbooking/internal/domain"
	"github.com/Domenick1991/partnerbooking/internal/service/verification"
	"github.com/gin-gonic/gin"
)

type VerificationHandler struct {
	service verification.VerificationUseCase
}

type decisionRequest struct {
	Notes string `json:"notes"`
}

func NewVerificationHandler(service verification.VerificationUseCase) *VerificationHandler {
	return &VerificationHandler{service: service}
}

func (h *VerificationHandler) Register(router *gin.RouterGroup) {
	router.POST("", h.submit)
	router.GET("/:id", h.get)
	router.POST("/:id/approve", h.approve)
	router.POST("/:id/reject", h.reject)
	router.POST("/:id/pending", h.setPending)
}

// submit accepts the company profile as multipart form fields with an optional credential_file part.
func (h *VerificationHandler) submit(c *gin.Context) {
	actor, ok := requirePartner(c)
	if !ok {
		return
	}

	input := verification.SubmitInput{
		UserID: actor.ID,
		Profile: domain.CompanyProfile{
			CompanyName:    c.PostForm("company_name"),
			CompanyAddress: c.PostForm("company_address"),
			LicenseNumber:  c.PostForm("license_number"),
			TaxID:          c.PostForm("tax_id"),
			ContactPerson:  c.PostForm("contact_person"),
			ContactEmail:   c.PostForm("contact_email"),
			ContactPhone:   c.PostForm("contact_phone"),
		},
	}

	header, err := c.FormFile("credential_file")
	switch {
	case errors.Is(err, http.ErrMissingFile):
	case err != nil:
		writeError(c, domain.NewValidationError("credential_file", err.Error()))
		return
	default:
		file, err := header.Open()
		if err != nil {
			writeError(c, domain.NewValidationError("credential_file", err.Error()))
			return
		}
		defer file.Close()
		input.FileName = header.Filename
		input.ContentType = header.Header.Get("Content-Type")
		input.Size = header.Size
		input.Content = file
	}

	v, err := h.service.Submit(c.Request.Context(), input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, v)
}

func (h *VerificationHandler) get(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	v, err := h.service.Get(c.Request.Context(), id, actor)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *VerificationHandler) approve(c *gin.Context) {
	h.decide(c, h.service.Approve)
}

func (h *VerificationHandler) reject(c *gin.Context) {
	h.decide(c, h.service.Reject)
}

func (h *VerificationHandler) setPending(c *gin.Context) {
	h.decide(c, h.service.SetPending)
}

type decisionFunc func(ctx context.Context, id int64, actor domain.Actor, notes string) (*verification.Result, error)

func (h *VerificationHandler) decide(c *gin.Context, fn decisionFunc) {
	actor, ok := requireAdmin(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req decisionRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}

	result, err := fn(c.Request.Context(), id, actor, req.Notes)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
