package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/gradebook-api/internal/dto"
	appErrors "github.com/noah-isme/gradebook-api/pkg/errors"
	"github.com/noah-isme/gradebook-api/pkg/response"
)

type propertyService interface {
	List() []dto.PropertyItem
	Set(ctx context.Context, name string, req dto.UpdatePropertyRequest) (*dto.PropertyItem, error)
	Refresh(ctx context.Context) error
}

// PropertyHandler exposes deployment properties.
type PropertyHandler struct {
	service propertyService
}

// NewPropertyHandler builds a new handler.
func NewPropertyHandler(service propertyService) *PropertyHandler {
	return &PropertyHandler{service: service}
}

// List godoc
// @Summary List properties
// @Tags Properties
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /properties [get]
func (h *PropertyHandler) List(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.List(), nil)
}

// Update godoc
// @Summary Set property
// @Tags Properties
// @Accept json
// @Produce json
// @Param name path string true "Property name"
// @Param payload body dto.UpdatePropertyRequest true "Property value"
// @Success 200 {object} response.Envelope
// @Router /properties/{name} [put]
func (h *PropertyHandler) Update(c *gin.Context) {
	var req dto.UpdatePropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid property payload"))
		return
	}
	item, err := h.service.Set(c.Request.Context(), c.Param("name"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Refresh godoc
// @Summary Reload properties from storage
// @Tags Properties
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /properties/refresh [post]
func (h *PropertyHandler) Refresh(c *gin.Context) {
	if err := h.service.Refresh(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, h.service.List(), nil)
}
