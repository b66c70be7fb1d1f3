package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"catalog/backend/internal/config"
	authdomain "catalog/backend/internal/domain/auth"
	"catalog/backend/internal/domain/page"
	productdomain "catalog/backend/internal/domain/product"
	"catalog/backend/internal/domain/storage"
	"catalog/backend/internal/usecase/apperror"
	categoryusecase "catalog/backend/internal/usecase/category"
	productusecase "catalog/backend/internal/usecase/product"
	userusecase "catalog/backend/internal/usecase/user"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockProducts struct{ mock.Mock }

func (m *mockProducts) FindAllPaged(ctx context.Context, req page.Request, filter productdomain.Filter) (page.Page[*productusecase.ProductDTO], error) {
	args := m.Called(ctx, req, filter)
	p, _ := args.Get(0).(page.Page[*productusecase.ProductDTO])
	return p, args.Error(1)
}

func (m *mockProducts) FindByID(ctx context.Context, id int64) (*productusecase.ProductDTO, error) {
	args := m.Called(ctx, id)
	dto, _ := args.Get(0).(*productusecase.ProductDTO)
	return dto, args.Error(1)
}

func (m *mockProducts) Insert(ctx context.Context, dto productusecase.ProductDTO) (*productusecase.ProductDTO, error) {
	args := m.Called(ctx, dto)
	out, _ := args.Get(0).(*productusecase.ProductDTO)
	return out, args.Error(1)
}

func (m *mockProducts) Update(ctx context.Context, id int64, dto productusecase.ProductDTO) (*productusecase.ProductDTO, error) {
	args := m.Called(ctx, id, dto)
	out, _ := args.Get(0).(*productusecase.ProductDTO)
	return out, args.Error(1)
}

func (m *mockProducts) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type stubCategories struct{}

func (stubCategories) FindAllPaged(context.Context, page.Request) (page.Page[*categoryusecase.CategoryDTO], error) {
	return page.New([]*categoryusecase.CategoryDTO{{ID: 1, Name: "Books"}}, page.Of(0, 12), 1), nil
}

func (stubCategories) FindByID(_ context.Context, id int64) (*categoryusecase.CategoryDTO, error) {
	return nil, apperror.NotFound("category", id, storage.ErrEmptyResult)
}

func (stubCategories) Insert(_ context.Context, dto categoryusecase.CategoryDTO) (*categoryusecase.CategoryDTO, error) {
	return &categoryusecase.CategoryDTO{ID: 4, Name: dto.Name}, nil
}

func (stubCategories) Update(_ context.Context, id int64, dto categoryusecase.CategoryDTO) (*categoryusecase.CategoryDTO, error) {
	return &categoryusecase.CategoryDTO{ID: id, Name: dto.Name}, nil
}

func (stubCategories) Delete(_ context.Context, id int64) error {
	return apperror.Integrity("category", id, storage.ErrIntegrityViolation)
}

type stubUsers struct{}

func (stubUsers) FindAllPaged(context.Context, page.Request) (page.Page[*userusecase.UserDTO], error) {
	return page.New[*userusecase.UserDTO](nil, page.Of(0, 12), 0), nil
}

func (stubUsers) FindByID(_ context.Context, id int64) (*userusecase.UserDTO, error) {
	return &userusecase.UserDTO{ID: id, FirstName: "Alex"}, nil
}

func (stubUsers) Insert(context.Context, userusecase.UserInsertDTO) (*userusecase.UserDTO, error) {
	return nil, authdomain.ErrEmailExists
}

func (stubUsers) Update(_ context.Context, id int64, dto userusecase.UserDTO) (*userusecase.UserDTO, error) {
	dto.ID = id
	return &dto, nil
}

func (stubUsers) Delete(context.Context, int64) error { return nil }

// tokenAuth treats the bearer token as a key into a fixed user table.
type tokenAuth map[string]*authdomain.User

func (a tokenAuth) Login(context.Context, authdomain.Credentials) (string, *authdomain.User, error) {
	return "", nil, authdomain.ErrInvalidCredentials
}

func (a tokenAuth) VerifyToken(_ context.Context, token string) (*authdomain.User, error) {
	if u, ok := a[token]; ok {
		return u, nil
	}
	return nil, authdomain.ErrTokenInvalid
}

func (a tokenAuth) RenewToken(_ context.Context, token string) (string, error) {
	if _, ok := a[token]; ok {
		return token + "-renewed", nil
	}
	return "", authdomain.ErrTokenInvalid
}

var users = tokenAuth{
	"operator": {ID: 1, Roles: []authdomain.Role{{ID: 1, Authority: authdomain.RoleOperator}}},
	"admin":    {ID: 2, Roles: []authdomain.Role{{ID: 2, Authority: authdomain.RoleAdmin}}},
	"nobody":   {ID: 3},
}

func newTestServer(products *mockProducts) http.Handler {
	s := NewServer(config.Config{HTTPPort: "0", AllowedOrigins: []string{"*"}}, Dependencies{
		Auth:       users,
		Products:   products,
		Categories: stubCategories{},
		Users:      stubUsers{},
		Metrics: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("catalog_operations_total 1\n"))
		}),
	}, zap.NewNop())
	return s.Handler()
}

func do(t *testing.T, h http.Handler, method, target, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) StandardError {
	t.Helper()
	var body StandardError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestGetProduct(t *testing.T) {
	products := &mockProducts{}
	products.On("FindByID", mock.Anything, int64(1)).Return(&productusecase.ProductDTO{ID: 1, Name: "Smart TV", Price: decimal.NewFromInt(2190)}, nil)
	products.On("FindByID", mock.Anything, int64(1000)).Return(nil, apperror.NotFound("product", 1000, storage.ErrEmptyResult))
	h := newTestServer(products)

	rec := do(t, h, http.MethodGet, "/products/1", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"Smart TV"`)

	rec = do(t, h, http.MethodGet, "/products/1000", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, 404, body.Status)
	assert.Equal(t, "/products/1000", body.Path)
	assert.Equal(t, "product not found: id 1000", body.Message)

	rec = do(t, h, http.MethodGet, "/products/abc", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListProductsPassesPagingAndFilter(t *testing.T) {
	products := &mockProducts{}
	req := page.Request{Page: 1, Size: 2, Sort: "price,desc"}
	products.On("FindAllPaged", mock.Anything, req, productdomain.Filter{CategoryID: 3, Name: "tv"}).
		Return(page.New([]*productusecase.ProductDTO{{ID: 5}}, req, 3), nil)

	rec := do(t, newTestServer(products), http.MethodGet, "/products?page=1&size=2&sort=price,desc&categoryId=3&name=tv", "", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	var body page.Page[productusecase.ProductDTO]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, int64(3), body.TotalElements)
	assert.True(t, body.Last)
	products.AssertNumberOfCalls(t, "FindAllPaged", 1)

	rec = do(t, newTestServer(&mockProducts{}), http.MethodGet, "/products?size=-1", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProductWritesRequireCatalogRole(t *testing.T) {
	products := &mockProducts{}
	products.On("Delete", mock.Anything, int64(1)).Return(nil)
	products.On("Delete", mock.Anything, int64(4)).Return(apperror.Integrity("product", 4, storage.ErrIntegrityViolation))
	h := newTestServer(products)

	assert.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodDelete, "/products/1", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodDelete, "/products/1", "forged", "").Code)
	assert.Equal(t, http.StatusForbidden, do(t, h, http.MethodDelete, "/products/1", "nobody", "").Code)
	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodDelete, "/products/1", "operator", "").Code)
	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodDelete, "/products/1", "admin", "").Code)

	rec := do(t, h, http.MethodDelete, "/products/4", "operator", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeError(t, rec).Message, "integrity violation")

	products.AssertNumberOfCalls(t, "Delete", 3)
}

func TestCreateProductValidation(t *testing.T) {
	products := &mockProducts{}
	h := newTestServer(products)
	future := time.Now().Add(48 * time.Hour).UTC().Format(time.RFC3339)

	rec := do(t, h, http.MethodPost, "/products", "operator",
		`{"name":"TV","price":0,"imgUrl":"not a url","date":"`+future+`"}`)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decodeError(t, rec)
	fields := map[string]string{}
	for _, fe := range body.Errors {
		fields[fe.FieldName] = fe.Message
	}
	assert.Equal(t, map[string]string{
		"name":   "must have at least 5 characters",
		"price":  "must be a positive value",
		"imgUrl": "must be a valid URL",
		"date":   "date cannot be in the future",
	}, fields)
	products.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)

	rec = do(t, h, http.MethodPost, "/products", "operator", `{"name":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateProduct(t *testing.T) {
	products := &mockProducts{}
	products.On("Insert", mock.Anything, mock.MatchedBy(func(dto productusecase.ProductDTO) bool {
		return dto.Name == "Smart TV 50" && dto.Price.Equal(decimal.RequireFromString("2190.5")) && len(dto.Categories) == 1
	})).Return(&productusecase.ProductDTO{ID: 26, Name: "Smart TV 50"}, nil)

	rec := do(t, newTestServer(products), http.MethodPost, "/products", "operator",
		`{"name":"Smart TV 50","price":"2190.50","date":"2020-07-14T10:00:00Z","categories":[{"id":2}]}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "/products/26", rec.Header().Get("Location"))
}

func TestUpdateProductNotFound(t *testing.T) {
	products := &mockProducts{}
	products.On("Update", mock.Anything, int64(1000), mock.Anything).
		Return(nil, apperror.NotFound("product", 1000, storage.ErrEntityNotFound))

	rec := do(t, newTestServer(products), http.MethodPut, "/products/1000", "admin",
		`{"name":"Smart TV 50","price":10,"date":"2020-07-14T10:00:00Z"}`)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUnexpectedFailureIsHidden(t *testing.T) {
	products := &mockProducts{}
	products.On("FindByID", mock.Anything, int64(7)).Return(nil, errors.New("pq: connection reset"))

	rec := do(t, newTestServer(products), http.MethodGet, "/products/7", "", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal server error", decodeError(t, rec).Message)
}

func TestCategoryRoutes(t *testing.T) {
	h := newTestServer(&mockProducts{})

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/categories", "", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/categories/9", "", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodDelete, "/categories/1", "operator", "").Code)
	assert.Equal(t, http.StatusUnprocessableEntity, do(t, h, http.MethodPost, "/categories", "operator", `{"name":""}`).Code)

	rec := do(t, h, http.MethodPost, "/categories", "operator", `{"name":"Garden"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "/categories/4", rec.Header().Get("Location"))
}

func TestUserRoutesAreAdminOnly(t *testing.T) {
	h := newTestServer(&mockProducts{})

	assert.Equal(t, http.StatusForbidden, do(t, h, http.MethodGet, "/users", "operator", "").Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/users", "admin", "").Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/users/3", "admin", "").Code)

	rec := do(t, h, http.MethodPost, "/users", "admin",
		`{"firstName":"Alex","email":"alex@gmail.com","password":"password1"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, h, http.MethodPost, "/users", "admin", `{"firstName":"Alex","email":"nope","password":"short"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Len(t, decodeError(t, rec).Errors, 2)
}

func TestAuthRoutes(t *testing.T) {
	h := newTestServer(&mockProducts{})

	rec := do(t, h, http.MethodPost, "/auth/login", "", `{"email":"a@b.c","password":"x"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid email or password", decodeError(t, rec).Message)

	rec = do(t, h, http.MethodPost, "/auth/renew", "operator", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "operator-renewed")

	rec = do(t, h, http.MethodPost, "/auth/renew", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOperationalEndpoints(t *testing.T) {
	h := newTestServer(&mockProducts{})

	rec := do(t, h, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/metrics", "", "")
	assert.Contains(t, rec.Body.String(), "catalog_operations_total")

	rec = do(t, h, http.MethodGet, "/nowhere", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	req := httptest.NewRequest(http.MethodOptions, "/products", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "http://localhost:3000", rr.Header().Get("Access-Control-Allow-Origin"))
}
