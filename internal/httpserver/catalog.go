package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pharmacy-store/internal/domain"
	productrepo "pharmacy-store/internal/repository/product"
)

type pageQuery struct {
	Limit  int `form:"limit" binding:"omitempty,min=1,max=100"`
	Offset int `form:"offset" binding:"omitempty,min=0"`
}

type listProductsQuery struct {
	pageQuery
	CategoryID string `form:"categoryId"`
	Status     string `form:"status" binding:"omitempty,oneof=on_sale out_of_stock discontinued pharmacy_only"`
	Search     string `form:"q" binding:"omitempty,max=100"`
}

type pageResponse[T any] struct {
	Items  []T `json:"items"`
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

type lookupRequest struct {
	Key  string `json:"key" binding:"required,max=64"`
	Name string `json:"name" binding:"required,max=120"`
}

type productRequest struct {
	SKU         string   `json:"sku" binding:"required,max=64"`
	Name        string   `json:"name" binding:"required,max=255"`
	Description string   `json:"description"`
	Price       int64    `json:"price" binding:"min=0"`
	Quantity    int      `json:"quantity" binding:"min=0"`
	Status      string   `json:"status" binding:"omitempty,oneof=on_sale out_of_stock discontinued pharmacy_only"`
	CategoryID  *string  `json:"categoryId"`
	UnitID      *string  `json:"unitId"`
	TrademarkID *string  `json:"trademarkId"`
	Images      []string `json:"images" binding:"omitempty,dive,url"`
}

func (r productRequest) input() productrepo.Input {
	return productrepo.Input{
		SKU:         r.SKU,
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		Quantity:    r.Quantity,
		Status:      domain.ProductStatus(r.Status),
		CategoryID:  r.CategoryID,
		UnitID:      r.UnitID,
		TrademarkID: r.TrademarkID,
		Images:      r.Images,
	}
}

type stockRequest struct {
	Quantity *int `json:"quantity" binding:"required,min=0"`
}

func (h *handlers) listProducts(c *gin.Context) {
	var q listProductsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		writeBindError(c, err)
		return
	}
	items, total, err := h.deps.Catalog.ListProducts(c.Request.Context(), productrepo.ListFilter{
		CategoryID: q.CategoryID,
		Status:     domain.ProductStatus(q.Status),
		Search:     q.Search,
		Limit:      q.Limit,
		Offset:     q.Offset,
	})
	if err != nil {
		writeError(c, "product", err)
		return
	}
	if items == nil {
		items = []domain.Product{}
	}
	c.JSON(http.StatusOK, pageResponse[domain.Product]{Items: items, Total: total, Limit: q.Limit, Offset: q.Offset})
}

func (h *handlers) getProduct(c *gin.Context) {
	p, err := h.deps.Catalog.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, "product", err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *handlers) createProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	p, err := h.deps.Catalog.CreateProduct(c.Request.Context(), req.input())
	if err != nil {
		writeError(c, "product", err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *handlers) updateProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	p, err := h.deps.Catalog.UpdateProduct(c.Request.Context(), c.Param("id"), req.input())
	if err != nil {
		writeError(c, "product", err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *handlers) setStock(c *gin.Context) {
	var req stockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	p, err := h.deps.Catalog.SetStock(c.Request.Context(), c.Param("id"), *req.Quantity)
	if err != nil {
		writeError(c, "product", err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// lookupResource turns "categories" into "category" for error keys.
func lookupResource(kind domain.LookupKind) string {
	switch kind {
	case domain.KindCategory:
		return "category"
	case domain.KindUnit:
		return "unit"
	case domain.KindTrademark:
		return "trademark"
	}
	return "lookup"
}

func (h *handlers) listLookups(kind domain.LookupKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := h.deps.Catalog.ListLookups(c.Request.Context(), kind)
		if err != nil {
			writeError(c, lookupResource(kind), err)
			return
		}
		if items == nil {
			items = []domain.Lookup{}
		}
		c.JSON(http.StatusOK, items)
	}
}

func (h *handlers) getLookup(kind domain.LookupKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		l, err := h.deps.Catalog.GetLookup(c.Request.Context(), kind, c.Param("id"))
		if err != nil {
			writeError(c, lookupResource(kind), err)
			return
		}
		c.JSON(http.StatusOK, l)
	}
}

func (h *handlers) createLookup(kind domain.LookupKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req lookupRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeBindError(c, err)
			return
		}
		l, err := h.deps.Catalog.CreateLookup(c.Request.Context(), kind, req.Key, req.Name)
		if err != nil {
			writeError(c, lookupResource(kind), err)
			return
		}
		c.JSON(http.StatusCreated, l)
	}
}

func (h *handlers) updateLookup(kind domain.LookupKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req lookupRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeBindError(c, err)
			return
		}
		l, err := h.deps.Catalog.UpdateLookup(c.Request.Context(), kind, c.Param("id"), req.Key, req.Name)
		if err != nil {
			writeError(c, lookupResource(kind), err)
			return
		}
		c.JSON(http.StatusOK, l)
	}
}

func (h *handlers) deleteLookup(kind domain.LookupKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := h.deps.Catalog.DeleteLookup(c.Request.Context(), kind, c.Param("id")); err != nil {
			writeError(c, lookupResource(kind), err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
