package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *handlers) getCart(c *gin.Context) {
	view, err := h.deps.Cart.List(c.Request.Context(), userID(c))
	if err != nil {
		writeError(c, "cart", err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// addToCart answers 201 for a new line and 200 when an existing line grew.
func (h *handlers) addToCart(c *gin.Context) {
	line, created, err := h.deps.Cart.Add(c.Request.Context(), userID(c), c.Param("productId"))
	if err != nil {
		writeError(c, "product", err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, line)
}

func (h *handlers) incrementCart(c *gin.Context) {
	line, err := h.deps.Cart.Increment(c.Request.Context(), userID(c), c.Param("productId"))
	if err != nil {
		writeError(c, "cart", err)
		return
	}
	c.JSON(http.StatusOK, line)
}

// decrementCart answers 204 once the line reached zero and was removed.
func (h *handlers) decrementCart(c *gin.Context) {
	line, err := h.deps.Cart.Decrement(c.Request.Context(), userID(c), c.Param("productId"))
	if err != nil {
		writeError(c, "cart", err)
		return
	}
	if line == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, line)
}

func (h *handlers) removeFromCart(c *gin.Context) {
	if err := h.deps.Cart.Delete(c.Request.Context(), userID(c), c.Param("productId")); err != nil {
		writeError(c, "cart", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) clearCart(c *gin.Context) {
	n, err := h.deps.Cart.DeleteAll(c.Request.Context(), userID(c))
	if err != nil {
		writeError(c, "cart", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": n})
}
