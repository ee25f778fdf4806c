package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pharmacy-store/internal/domain"
	orderrepo "pharmacy-store/internal/repository/order"
	ordersvc "pharmacy-store/internal/service/order"
)

const idempotencyHeader = "Idempotency-Key"

type paymentRequest struct {
	Source          string `json:"source" binding:"required,oneof=cod stripe"`
	ExternalOrderID string `json:"externalOrderId" binding:"max=255"`
	PaymentID       string `json:"paymentId" binding:"max=255"`
	PayerID         string `json:"payerId" binding:"max=255"`
}

func (r paymentRequest) info() domain.PaymentInfo {
	return domain.PaymentInfo{
		Source:          r.Source,
		ExternalOrderID: r.ExternalOrderID,
		PaymentID:       r.PaymentID,
		PayerID:         r.PayerID,
	}
}

type createOrderRequest struct {
	ProductID string         `json:"productId" binding:"required"`
	Quantity  int            `json:"quantity" binding:"required,min=1"`
	AddressID string         `json:"addressId" binding:"required"`
	StatusID  string         `json:"statusId"`
	Payment   paymentRequest `json:"payment"`
}

type checkoutRequest struct {
	AddressID string         `json:"addressId" binding:"required"`
	Payment   paymentRequest `json:"payment"`
}

type listOrdersQuery struct {
	pageQuery
	UserID   string `form:"userId"`
	StatusID string `form:"statusId"`
}

type changeStatusRequest struct {
	StatusID string `json:"statusId" binding:"required"`
}

type statusRequest struct {
	Name  string `json:"name" binding:"required,max=64"`
	State string `json:"state" binding:"required,oneof=pending paid shipped completed cancelled"`
}

func (h *handlers) createOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	o, err := h.deps.Orders.Create(c.Request.Context(), userID(c), ordersvc.CreateInput{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		AddressID: req.AddressID,
		Payment:   req.Payment.info(),
		StatusID:  req.StatusID,
	})
	if err != nil {
		writeError(c, "order", err)
		return
	}
	c.JSON(http.StatusCreated, o)
}

// checkout orders the whole cart. A repeated Idempotency-Key returns the
// first result with 200.
func (h *handlers) checkout(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	key := c.GetHeader(idempotencyHeader)
	if len(key) > 255 {
		abortWith(c, http.StatusBadRequest, "validation.failed", "idempotency key too long")
		return
	}
	res, err := h.deps.Orders.Checkout(c.Request.Context(), userID(c), ordersvc.CheckoutInput{
		AddressID: req.AddressID,
		Payment:   req.Payment.info(),
	}, key)
	if err != nil {
		writeError(c, "order", err)
		return
	}
	status := http.StatusCreated
	if res.Replayed {
		status = http.StatusOK
	}
	c.JSON(status, res)
}

// preparePayment opens a card payment for the current cart total.
func (h *handlers) preparePayment(c *gin.Context) {
	intent, err := h.deps.Orders.PrepareCardPayment(c.Request.Context(), userID(c))
	if err != nil {
		writeError(c, "checkout", err)
		return
	}
	c.JSON(http.StatusCreated, intent)
}

func (h *handlers) listMyOrders(c *gin.Context) {
	items, err := h.deps.Orders.ListMine(c.Request.Context(), userID(c))
	if err != nil {
		writeError(c, "order", err)
		return
	}
	if items == nil {
		items = []domain.Order{}
	}
	c.JSON(http.StatusOK, items)
}

func (h *handlers) getOrder(c *gin.Context) {
	o, err := h.deps.Orders.Get(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		writeError(c, "order", err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *handlers) cancelOrder(c *gin.Context) {
	o, err := h.deps.Orders.Cancel(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		writeError(c, "order", err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *handlers) listAllOrders(c *gin.Context) {
	var q listOrdersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		writeBindError(c, err)
		return
	}
	items, total, err := h.deps.Orders.ListAll(c.Request.Context(), orderrepo.ListFilter{
		UserID:   q.UserID,
		StatusID: q.StatusID,
		Limit:    q.Limit,
		Offset:   q.Offset,
	})
	if err != nil {
		writeError(c, "order", err)
		return
	}
	if items == nil {
		items = []domain.Order{}
	}
	c.JSON(http.StatusOK, pageResponse[domain.Order]{Items: items, Total: total, Limit: q.Limit, Offset: q.Offset})
}

func (h *handlers) changeOrderStatus(c *gin.Context) {
	var req changeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	o, err := h.deps.Orders.ChangeStatus(c.Request.Context(), c.Param("id"), req.StatusID)
	if err != nil {
		writeError(c, "order", err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *handlers) listStatuses(c *gin.Context) {
	items, err := h.deps.Orders.ListStatuses(c.Request.Context())
	if err != nil {
		writeError(c, "status", err)
		return
	}
	if items == nil {
		items = []domain.StatusOrder{}
	}
	c.JSON(http.StatusOK, items)
}

func (h *handlers) getStatus(c *gin.Context) {
	s, err := h.deps.Orders.GetStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, "status", err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *handlers) createStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	s, err := h.deps.Orders.CreateStatus(c.Request.Context(), req.Name, domain.OrderState(req.State))
	if err != nil {
		writeError(c, "status", err)
		return
	}
	c.JSON(http.StatusCreated, s)
}

func (h *handlers) updateStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	s, err := h.deps.Orders.UpdateStatus(c.Request.Context(), c.Param("id"), req.Name, domain.OrderState(req.State))
	if err != nil {
		writeError(c, "status", err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *handlers) deleteStatus(c *gin.Context) {
	if err := h.deps.Orders.DeleteStatus(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, "status", err)
		return
	}
	c.Status(http.StatusNoContent)
}
