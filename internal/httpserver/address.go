package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pharmacy-store/internal/domain"
	addressrepo "pharmacy-store/internal/repository/address"
)

type addressRequest struct {
	FullName     string `json:"fullName" binding:"required,max=120"`
	Phone        string `json:"phone" binding:"required,max=20"`
	ProvinceCode string `json:"provinceCode" binding:"required"`
	DistrictCode string `json:"districtCode" binding:"required"`
	WardCode     string `json:"wardCode" binding:"required"`
	Detail       string `json:"detail" binding:"required,max=255"`
	IsDefault    bool   `json:"isDefault"`
}

func (r addressRequest) input() addressrepo.Input {
	return addressrepo.Input{
		FullName:     r.FullName,
		Phone:        r.Phone,
		ProvinceCode: r.ProvinceCode,
		DistrictCode: r.DistrictCode,
		WardCode:     r.WardCode,
		Detail:       r.Detail,
		IsDefault:    r.IsDefault,
	}
}

func (h *handlers) provinces(c *gin.Context) {
	items, err := h.deps.Addresses.Provinces(c.Request.Context())
	if err != nil {
		writeError(c, "province", err)
		return
	}
	if items == nil {
		items = []domain.Province{}
	}
	c.JSON(http.StatusOK, items)
}

func (h *handlers) districts(c *gin.Context) {
	items, err := h.deps.Addresses.Districts(c.Request.Context(), c.Param("code"))
	if err != nil {
		writeError(c, "province", err)
		return
	}
	if items == nil {
		items = []domain.District{}
	}
	c.JSON(http.StatusOK, items)
}

func (h *handlers) wards(c *gin.Context) {
	items, err := h.deps.Addresses.Wards(c.Request.Context(), c.Param("code"))
	if err != nil {
		writeError(c, "district", err)
		return
	}
	if items == nil {
		items = []domain.Ward{}
	}
	c.JSON(http.StatusOK, items)
}

func (h *handlers) listAddresses(c *gin.Context) {
	items, err := h.deps.Addresses.List(c.Request.Context(), userID(c))
	if err != nil {
		writeError(c, "address", err)
		return
	}
	if items == nil {
		items = []domain.Address{}
	}
	c.JSON(http.StatusOK, items)
}

func (h *handlers) getAddress(c *gin.Context) {
	a, err := h.deps.Addresses.Get(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		writeError(c, "address", err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *handlers) createAddress(c *gin.Context) {
	var req addressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	a, err := h.deps.Addresses.Create(c.Request.Context(), userID(c), req.input())
	if err != nil {
		writeError(c, "address", err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

func (h *handlers) updateAddress(c *gin.Context) {
	var req addressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	a, err := h.deps.Addresses.Update(c.Request.Context(), userID(c), c.Param("id"), req.input())
	if err != nil {
		writeError(c, "address", err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *handlers) deleteAddress(c *gin.Context) {
	if err := h.deps.Addresses.Delete(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		writeError(c, "address", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) setDefaultAddress(c *gin.Context) {
	a, err := h.deps.Addresses.SetDefault(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		writeError(c, "address", err)
		return
	}
	c.JSON(http.StatusOK, a)
}
