package api

import (
	"net/http"

	"github.com/Domenick1991/partnerbooking/internal/domain"
	"github.com/Domenick1991/partnerbooking/internal/service/catalog"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type PackageHandler struct {
	service catalog.PricingLookup
}

type packageResponse struct {
	*domain.Package
	B2BSavings decimal.Decimal `json:"b2b_savings"`
}

func NewPackageHandler(service catalog.PricingLookup) *PackageHandler {
	return &PackageHandler{service: service}
}

func (h *PackageHandler) Register(router *gin.RouterGroup) {
	router.GET("/:id", h.get)
}

func (h *PackageHandler) get(c *gin.Context) {
	if _, ok := requireActor(c); !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	pkg, err := h.service.GetPackage(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, packageResponse{Package: pkg, B2BSavings: pkg.B2BSavings()})
}
