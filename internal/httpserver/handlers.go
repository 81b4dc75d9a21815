package httpserver

import (
	"fmt"
	"net/http"

	"lms-commerce/internal/domain"
	cartsvc "lms-commerce/internal/service/cart"
	"lms-commerce/internal/service/checkout"
	usersvc "lms-commerce/internal/service/user"

	"github.com/gin-gonic/gin"
)

const serverError = "Server error"

// auth

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *handlers) register(c *gin.Context) {
	var req usersvc.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Please provide all required fields")
		return
	}
	u, token, err := h.deps.Users.Register(c.Request.Context(), req)
	if err != nil {
		writeError(c, h.logger, err, serverError)
		return
	}
	c.JSON(http.StatusCreated, toAuthResponse(u, token))
}

func (h *handlers) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Please provide email and password")
		return
	}
	u, token, err := h.deps.Users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, h.logger, err, serverError)
		return
	}
	c.JSON(http.StatusOK, toAuthResponse(u, token))
}

func (h *handlers) me(c *gin.Context) {
	c.JSON(http.StatusOK, currentUser(c))
}

// catalog

func (h *handlers) listCourses(c *gin.Context) {
	courses, err := h.deps.Catalog.ListCourses(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err, serverError)
		return
	}
	c.JSON(http.StatusOK, courses)
}

func (h *handlers) getCourse(c *gin.Context) {
	course, err := h.deps.Catalog.GetCourse(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err, serverError)
		return
	}
	c.JSON(http.StatusOK, course)
}

func (h *handlers) listLectures(c *gin.Context) {
	lectures, err := h.deps.Catalog.ListLectures(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err, serverError)
		return
	}
	c.JSON(http.StatusOK, lectures)
}

func (h *handlers) listStoreItems(c *gin.Context) {
	items, err := h.deps.Catalog.ListStoreItems(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err, serverError)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *handlers) getStoreItem(c *gin.Context) {
	ctx := c.Request.Context()
	item, err := h.deps.Catalog.GetStoreItem(ctx, c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err, serverError)
		return
	}
	view := storeItemView{StoreItem: *item}
	if u := currentUser(c); u != nil {
		view.IsPurchased, err = h.deps.Catalog.IsPurchased(ctx, u.ID, domain.ItemRef{Type: domain.ItemTypeStoreItem, ID: item.ID})
		if err != nil {
			writeError(c, h.logger, err, serverError)
			return
		}
	}
	c.JSON(http.StatusOK, view)
}

func (h *handlers) myStorePurchases(c *gin.Context) {
	list, err := h.deps.Catalog.MyStorePurchases(c.Request.Context(), currentUserID(c))
	if err != nil {
		writeError(c, h.logger, err, serverError)
		return
	}
	c.JSON(http.StatusOK, list)
}

// cart

func (h *handlers) getCart(c *gin.Context) {
	view, err := h.deps.Cart.Get(c.Request.Context(), currentUserID(c))
	if err != nil {
		writeError(c, h.logger, err, serverError)
		return
	}
	c.JSON(http.StatusOK, toCartResponse(view, ""))
}

func (h *handlers) addCartItem(c *gin.Context) {
	var req cartsvc.AddInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Item type and ID are required")
		return
	}
	view, err := h.deps.Cart.AddItem(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		writeError(c, h.logger, err, serverError)
		return
	}
	c.JSON(http.StatusCreated, toCartResponse(view, "Item added to cart"))
}

func (h *handlers) removeCartItem(c *gin.Context) {
	view, err := h.deps.Cart.RemoveItem(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err, serverError)
		return
	}
	c.JSON(http.StatusOK, toCartResponse(view, "Item removed from cart"))
}

func (h *handlers) clearCart(c *gin.Context) {
	if err := h.deps.Cart.Clear(c.Request.Context(), currentUserID(c)); err != nil {
		writeError(c, h.logger, err, serverError)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cart cleared successfully"})
}

func (h *handlers) cartTotal(c *gin.Context) {
	total, count, err := h.deps.Cart.Total(c.Request.Context(), currentUserID(c))
	if err != nil {
		writeError(c, h.logger, err, serverError)
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": total, "itemCount": count})
}

// payments

type directOrderRequest struct {
	ItemType domain.ItemType `json:"itemType"`
	ItemID   string          `json:"itemId"`
}

func (h *handlers) createOrder(c *gin.Context) {
	res, err := h.deps.Checkout.CreateFromCart(c.Request.Context(), currentUserID(c))
	if err != nil {
		writeError(c, h.logger, err, "Failed to create payment order")
		return
	}
	c.JSON(http.StatusCreated, toCheckoutResponse(res, freeCartMessage))
}

func (h *handlers) createDirectOrder(c *gin.Context) {
	var req directOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, `Invalid item type. Must be "course" or "storeItem"`)
		return
	}
	res, err := h.deps.Checkout.CreateDirect(c.Request.Context(), currentUserID(c), domain.ItemRef{Type: req.ItemType, ID: req.ItemID})
	if err != nil {
		writeError(c, h.logger, err, "Failed to create payment order")
		return
	}
	c.JSON(http.StatusCreated, toCheckoutResponse(res, freeDirectMessage))
}

func (h *handlers) verifyPayment(c *gin.Context) {
	var req checkout.VerifyInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Missing required payment details")
		return
	}
	res, err := h.deps.Checkout.Verify(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		writeError(c, h.logger, err, "Payment verification failed")
		return
	}
	msg := "Payment verified successfully"
	if res.AlreadyVerified {
		msg = "Payment already verified"
	}
	c.JSON(http.StatusOK, verifyResponse{Message: msg, Order: res.Order, Payment: res.Payment})
}

func (h *handlers) myOrders(c *gin.Context) {
	orders, err := h.deps.Checkout.MyOrders(c.Request.Context(), currentUserID(c))
	if err != nil {
		writeError(c, h.logger, err, serverError)
		return
	}
	out := make([]orderView, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderView(o))
	}
	c.JSON(http.StatusOK, out)
}

func (h *handlers) getOrder(c *gin.Context) {
	o, err := h.deps.Checkout.GetOrder(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err, serverError)
		return
	}
	c.JSON(http.StatusOK, toOrderView(*o))
}

func (h *handlers) orderReceipt(c *gin.Context) {
	o, pdf, err := h.deps.Checkout.Receipt(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err, serverError)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="receipt-%s.pdf"`, o.OrderID))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// enrollments

type progressRequest struct {
	LectureID string `json:"lectureId"`
}

func (h *handlers) myCourses(c *gin.Context) {
	list, err := h.deps.Enrollments.MyCourses(c.Request.Context(), currentUserID(c))
	if err != nil {
		writeError(c, h.logger, err, serverError)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *handlers) checkEnrollment(c *gin.Context) {
	ok, e, err := h.deps.Enrollments.Check(c.Request.Context(), currentUserID(c), c.Param("courseId"))
	if err != nil {
		writeError(c, h.logger, err, serverError)
		return
	}
	c.JSON(http.StatusOK, gin.H{"isEnrolled": ok, "enrollment": e})
}

func (h *handlers) updateProgress(c *gin.Context) {
	var req progressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Lecture ID is required")
		return
	}
	e, err := h.deps.Enrollments.CompleteLecture(c.Request.Context(), currentUserID(c), c.Param("id"), req.LectureID)
	if err != nil {
		writeError(c, h.logger, err, serverError)
		return
	}
	c.JSON(http.StatusOK, e)
}
