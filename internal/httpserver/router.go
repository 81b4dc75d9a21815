package httpserver

import (
	"context"
	"time"

	"lms-commerce/internal/domain"
	cartsvc "lms-commerce/internal/service/cart"
	catalogsvc "lms-commerce/internal/service/catalog"
	"lms-commerce/internal/service/checkout"
	enrollmentsvc "lms-commerce/internal/service/enrollment"
	usersvc "lms-commerce/internal/service/user"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type userService interface {
	userLookup
	Register(ctx context.Context, in usersvc.RegisterInput) (*domain.User, string, error)
	Login(ctx context.Context, email, password string) (*domain.User, string, error)
}

type catalogService interface {
	ListCourses(ctx context.Context) ([]domain.Course, error)
	GetCourse(ctx context.Context, id string) (*domain.Course, error)
	ListLectures(ctx context.Context, courseID string) ([]domain.Lecture, error)
	ListStoreItems(ctx context.Context) ([]domain.StoreItem, error)
	GetStoreItem(ctx context.Context, id string) (*domain.StoreItem, error)
	IsPurchased(ctx context.Context, userID string, ref domain.ItemRef) (bool, error)
	MyStorePurchases(ctx context.Context, userID string) ([]catalogsvc.PurchasedStoreItem, error)
}

type cartService interface {
	Get(ctx context.Context, userID string) (*cartsvc.View, error)
	AddItem(ctx context.Context, userID string, in cartsvc.AddInput) (*cartsvc.View, error)
	RemoveItem(ctx context.Context, userID, cartItemID string) (*cartsvc.View, error)
	Clear(ctx context.Context, userID string) error
	Total(ctx context.Context, userID string) (int64, int, error)
}

type checkoutService interface {
	CreateFromCart(ctx context.Context, userID string) (*checkout.Checkout, error)
	CreateDirect(ctx context.Context, userID string, ref domain.ItemRef) (*checkout.Checkout, error)
	Verify(ctx context.Context, userID string, in checkout.VerifyInput) (*checkout.VerifyResult, error)
	MyOrders(ctx context.Context, userID string) ([]checkout.OrderWithPayment, error)
	GetOrder(ctx context.Context, userID, ref string) (*checkout.OrderWithPayment, error)
	Receipt(ctx context.Context, userID, ref string) (*domain.Order, []byte, error)
}

type enrollmentService interface {
	MyCourses(ctx context.Context, userID string) ([]enrollmentsvc.EnrolledCourse, error)
	Check(ctx context.Context, userID, courseID string) (bool, *domain.Enrollment, error)
	CompleteLecture(ctx context.Context, userID, enrollmentID, lectureID string) (*domain.Enrollment, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the services the router dispatches to.
type Deps struct {
	Users       userService
	Tokens      tokenParser
	Catalog     catalogService
	Cart        cartService
	Checkout    checkoutService
	Enrollments enrollmentService
	DB          pinger

	CORSOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int
}

type handlers struct {
	deps   Deps
	logger logrus.FieldLogger
}

// buildRouter wires routes for the API.
func buildRouter(logger *logrus.Logger, deps Deps) *gin.Engine {
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())
	if len(deps.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     deps.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(deps.DB))

	h := &handlers{deps: deps, logger: logger.WithField("component", "http")}
	requireUser := protect(deps.Tokens, deps.Users)
	maybeUser := optionalAuth(deps.Tokens, deps.Users)

	api := router.Group("/api")

	var limited []gin.HandlerFunc
	if deps.RateLimitRPS > 0 {
		limited = append(limited, newIPLimiter(deps.RateLimitRPS, deps.RateLimitBurst).middleware())
	}

	authGroup := api.Group("/auth", limited...)
	authGroup.POST("/register", h.register)
	authGroup.POST("/login", h.login)
	authGroup.GET("/me", requireUser, h.me)

	courses := api.Group("/courses")
	courses.GET("", h.listCourses)
	courses.GET("/:id", h.getCourse)
	courses.GET("/:id/lectures", h.listLectures)

	store := api.Group("/store")
	store.GET("", h.listStoreItems)
	store.GET("/my-purchases", requireUser, h.myStorePurchases)
	store.GET("/:id", maybeUser, h.getStoreItem)

	cart := api.Group("/cart", requireUser)
	cart.GET("", h.getCart)
	cart.GET("/total", h.cartTotal)
	cart.POST("/add-item", h.addCartItem)
	cart.DELETE("/remove-item/:id", h.removeCartItem)
	cart.DELETE("", h.clearCart)

	payments := api.Group("/payments", limited...)
	payments.Use(requireUser)
	payments.POST("/create-order", h.createOrder)
	payments.POST("/create-direct-order", h.createDirectOrder)
	payments.POST("/verify-payment", h.verifyPayment)
	payments.GET("/my-orders", h.myOrders)
	payments.GET("/orders/:id", h.getOrder)
	payments.GET("/order/:id", h.getOrder)
	payments.GET("/orders/:id/receipt", h.orderReceipt)

	enrollments := api.Group("/enrollments", requireUser)
	enrollments.GET("/my-courses", h.myCourses)
	enrollments.GET("/check/:courseId", h.checkEnrollment)
	enrollments.PUT("/:id/progress", h.updateProgress)

	return router
}
