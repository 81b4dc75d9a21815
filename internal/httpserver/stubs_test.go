package httpserver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"lms-commerce/internal/domain"
	"lms-commerce/internal/logging"
	cartsvc "lms-commerce/internal/service/cart"
	catalogsvc "lms-commerce/internal/service/catalog"
	"lms-commerce/internal/service/checkout"
	enrollmentsvc "lms-commerce/internal/service/enrollment"
	usersvc "lms-commerce/internal/service/user"

	"github.com/gin-gonic/gin"
)

const (
	testToken  = "good-token"
	testUserID = "9a1f7f0e-6d2b-4a5e-8c11-0000000000aa"
)

type stubTokens struct{}

func (stubTokens) Parse(token string) (string, error) {
	switch token {
	case testToken:
		return testUserID, nil
	case "ghost-token":
		return "9a1f7f0e-6d2b-4a5e-8c11-0000000000ff", nil
	}
	return "", errors.New("bad token")
}

type stubUsers struct {
	registerErr error
	loginErr    error
}

func (s *stubUsers) Get(_ context.Context, id string) (*domain.User, error) {
	if id != testUserID {
		return nil, domain.ErrNotFound
	}
	return &domain.User{ID: testUserID, Name: "Asha", Email: "asha@example.com"}, nil
}

func (s *stubUsers) Register(_ context.Context, in usersvc.RegisterInput) (*domain.User, string, error) {
	if s.registerErr != nil {
		return nil, "", s.registerErr
	}
	return &domain.User{ID: testUserID, Name: in.Name, Email: in.Email}, "new-token", nil
}

func (s *stubUsers) Login(context.Context, string, string) (*domain.User, string, error) {
	if s.loginErr != nil {
		return nil, "", s.loginErr
	}
	return &domain.User{ID: testUserID, Email: "asha@example.com"}, "login-token", nil
}

type stubCatalog struct {
	purchased bool
}

func (s *stubCatalog) ListCourses(context.Context) ([]domain.Course, error) {
	return []domain.Course{{ID: "c1", Title: "Go Basics", PriceMinor: 50000}}, nil
}

func (s *stubCatalog) GetCourse(_ context.Context, id string) (*domain.Course, error) {
	if id != "c1" {
		return nil, domain.NotFound("Course not found")
	}
	return &domain.Course{ID: "c1", Title: "Go Basics"}, nil
}

func (s *stubCatalog) ListLectures(context.Context, string) ([]domain.Lecture, error) {
	return []domain.Lecture{}, nil
}

func (s *stubCatalog) ListStoreItems(context.Context) ([]domain.StoreItem, error) {
	return []domain.StoreItem{}, nil
}

func (s *stubCatalog) GetStoreItem(_ context.Context, id string) (*domain.StoreItem, error) {
	return &domain.StoreItem{ID: id, Name: "Cheatsheet"}, nil
}

func (s *stubCatalog) IsPurchased(_ context.Context, userID string, _ domain.ItemRef) (bool, error) {
	return s.purchased && userID == testUserID, nil
}

func (s *stubCatalog) MyStorePurchases(context.Context, string) ([]catalogsvc.PurchasedStoreItem, error) {
	return []catalogsvc.PurchasedStoreItem{}, nil
}

type stubCart struct {
	addErr  error
	lastAdd cartsvc.AddInput
}

func (s *stubCart) view() *cartsvc.View {
	return &cartsvc.View{
		Cart: domain.Cart{ID: "cart-1"},
		Items: []cartsvc.Line{{
			CartItem: domain.CartItem{ID: "line-1", ItemType: domain.ItemTypeCourse, ItemID: "c1", PriceMinor: 50000, Quantity: 1},
			Item:     &domain.CatalogItem{Type: domain.ItemTypeCourse, ID: "c1", Name: "Go Basics", PriceMinor: 50000},
		}},
		TotalMinor: 50000,
		ItemCount:  1,
	}
}

func (s *stubCart) Get(context.Context, string) (*cartsvc.View, error) { return s.view(), nil }

func (s *stubCart) AddItem(_ context.Context, _ string, in cartsvc.AddInput) (*cartsvc.View, error) {
	s.lastAdd = in
	if s.addErr != nil {
		return nil, s.addErr
	}
	return s.view(), nil
}

func (s *stubCart) RemoveItem(context.Context, string, string) (*cartsvc.View, error) {
	return nil, domain.NotFound("Cart item not found")
}

func (s *stubCart) Clear(context.Context, string) error { return nil }

func (s *stubCart) Total(context.Context, string) (int64, int, error) { return 50000, 1, nil }

type stubCheckout struct {
	result     *checkout.Checkout
	err        error
	verify     *checkout.VerifyResult
	lastVerify checkout.VerifyInput
	lastRef    domain.ItemRef
	receipt    []byte
	receiptOf  *domain.Order
}

func (s *stubCheckout) CreateFromCart(context.Context, string) (*checkout.Checkout, error) {
	return s.result, s.err
}

func (s *stubCheckout) CreateDirect(_ context.Context, _ string, ref domain.ItemRef) (*checkout.Checkout, error) {
	s.lastRef = ref
	return s.result, s.err
}

func (s *stubCheckout) Verify(_ context.Context, _ string, in checkout.VerifyInput) (*checkout.VerifyResult, error) {
	s.lastVerify = in
	return s.verify, s.err
}

func (s *stubCheckout) MyOrders(context.Context, string) ([]checkout.OrderWithPayment, error) {
	return []checkout.OrderWithPayment{{Order: domain.Order{ID: "o1", OrderID: "ORD-1-ABCDEF"}}}, nil
}

func (s *stubCheckout) GetOrder(_ context.Context, _ string, ref string) (*checkout.OrderWithPayment, error) {
	if ref != "ORD-1-ABCDEF" {
		return nil, domain.NotFound("Order not found")
	}
	return &checkout.OrderWithPayment{Order: domain.Order{ID: "o1", OrderID: ref}}, nil
}

func (s *stubCheckout) Receipt(context.Context, string, string) (*domain.Order, []byte, error) {
	if s.err != nil {
		return nil, nil, s.err
	}
	return s.receiptOf, s.receipt, nil
}

type stubEnrollments struct {
	err error
}

func (s *stubEnrollments) MyCourses(context.Context, string) ([]enrollmentsvc.EnrolledCourse, error) {
	return []enrollmentsvc.EnrolledCourse{}, nil
}

func (s *stubEnrollments) Check(context.Context, string, string) (bool, *domain.Enrollment, error) {
	return false, nil, nil
}

func (s *stubEnrollments) CompleteLecture(context.Context, string, string, string) (*domain.Enrollment, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Enrollment{ID: "e1", Progress: 50}, nil
}

type stubDB struct {
	err error
}

func (s stubDB) Ping(context.Context) error { return s.err }

type testEnv struct {
	users       *stubUsers
	catalog     *stubCatalog
	cart        *stubCart
	checkout    *stubCheckout
	enrollments *stubEnrollments
	deps        Deps
	router      *gin.Engine
}

func newTestEnv() *testEnv {
	env := &testEnv{
		users:       &stubUsers{},
		catalog:     &stubCatalog{},
		cart:        &stubCart{},
		checkout:    &stubCheckout{},
		enrollments: &stubEnrollments{},
	}
	env.deps = Deps{
		Users:       env.users,
		Tokens:      stubTokens{},
		Catalog:     env.catalog,
		Cart:        env.cart,
		Checkout:    env.checkout,
		Enrollments: env.enrollments,
		DB:          stubDB{},
	}
	return env
}

func (e *testEnv) do(t *testing.T, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	if e.router == nil {
		gin.SetMode(gin.TestMode)
		e.router = buildRouter(logging.Discard(), e.deps)
	}

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}
