package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"techstore-backend/internal/handlers"
	"techstore-backend/internal/hash"
	"techstore-backend/internal/media"
	"techstore-backend/internal/models"
	authsvc "techstore-backend/internal/service/auth"
	"techstore-backend/internal/service/catalog"
	ordersvc "techstore-backend/internal/service/order"
	httpserver "techstore-backend/internal/transport/http"
)

var jwtSecret = []byte("test-jwt-secret")

type testEnv struct {
	T       *testing.T
	E       *echo.Echo
	DB      *gorm.DB
	Uploads string
}

func newTestEnv(t *testing.T) *testEnv {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Product{}, &models.User{}, &models.RefreshToken{},
		&models.Order{}, &models.OrderItem{},
	))

	mediaStore, err := media.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	catalogSvc := &catalog.Service{DB: db}
	orderSvc := &ordersvc.Service{DB: db}
	auth := &authsvc.Service{DB: db, JWTSecret: jwtSecret, RefreshSecret: []byte("test-refresh-secret")}

	e := echo.New()
	httpserver.Register(e, &httpserver.Deps{
		JWTSecret:      jwtSecret,
		UploadDir:      mediaStore.Dir,
		AuthHandler:    &handlers.AuthHandler{Svc: auth},
		ProductHandler: &handlers.ProductHandler{Svc: catalogSvc, Media: mediaStore},
		OrderHandler:   &handlers.OrderHandler{Svc: orderSvc},
		SearchHandler:  &handlers.SearchHandler{Svc: catalogSvc},
	})

	return &testEnv{T: t, E: e, DB: db, Uploads: mediaStore.Dir}
}

func (env *testEnv) uploadCount() int {
	entries, err := os.ReadDir(env.Uploads)
	require.NoError(env.T, err)
	return len(entries)
}

// tokenFor seeds a user with the given role and returns a signed access token.
func (env *testEnv) tokenFor(role string) string {
	pw, err := hash.HashPassword("secret123")
	require.NoError(env.T, err)

	user := models.User{Name: "t-" + role, Email: role + "@example.com", PasswordHash: pw, Role: role}
	require.NoError(env.T, env.DB.Create(&user).Error)

	token, _, err := authsvc.SignAccessToken(user.ID, user.Role, jwtSecret)
	require.NoError(env.T, err)
	return token
}

func (env *testEnv) doJSON(method, path, token string, body any) *httptest.ResponseRecorder {
	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(env.T, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.E.ServeHTTP(rec, req)
	return rec
}

// productForm builds a multipart product payload; an empty imageName omits
// the file part.
func productForm(t *testing.T, fields map[string]string, imageName string) (*bytes.Buffer, string) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if imageName != "" {
		part, err := w.CreateFormFile("image", imageName)
		require.NoError(t, err)
		_, err = part.Write([]byte("not-really-a-png"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func (env *testEnv) doMultipart(method, path, token string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, contentType)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.E.ServeHTTP(rec, req)
	return rec
}

var pixelFields = map[string]string{
	"name":        "Pixel 9",
	"category":    "smartphones",
	"price":       "999",
	"stock":       "5",
	"description": "flagship phone",
}

func TestCreateProduct(t *testing.T) {
	env := newTestEnv(t)
	token := env.tokenFor(models.RoleAdmin)

	body, ct := productForm(t, pixelFields, "pixel.png")
	rec := env.doMultipart(http.MethodPost, "/api/products", token, body, ct)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var prod models.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &prod))
	assert.Equal(t, "pixel-9", prod.Slug)
	assert.NotEmpty(t, prod.Image)
}

func TestCreateProduct_NoImage(t *testing.T) {
	env := newTestEnv(t)
	token := env.tokenFor(models.RoleAdmin)

	body, ct := productForm(t, pixelFields, "")
	rec := env.doMultipart(http.MethodPost, "/api/products", token, body, ct)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "image is required")
}

func TestCreateProduct_DisallowedImageFormat(t *testing.T) {
	env := newTestEnv(t)
	token := env.tokenFor(models.RoleAdmin)

	body, ct := productForm(t, pixelFields, "malware.exe")
	rec := env.doMultipart(http.MethodPost, "/api/products", token, body, ct)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var res struct {
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Contains(t, res.Fields, "image")
	assert.Zero(t, env.uploadCount())
}

func TestCreateProduct_RejectedUploadNotKept(t *testing.T) {
	env := newTestEnv(t)
	token := env.tokenFor(models.RoleAdmin)

	fields := map[string]string{}
	for k, v := range pixelFields {
		fields[k] = v
	}
	fields["category"] = "fridges"

	body, ct := productForm(t, fields, "pixel.png")
	rec := env.doMultipart(http.MethodPost, "/api/products", token, body, ct)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, env.uploadCount(), "a rejected request must not leave its upload behind")

	// duplicate slug is caught after the upload is stored; it is cleaned up too
	body, ct = productForm(t, pixelFields, "pixel.png")
	rec = env.doMultipart(http.MethodPost, "/api/products", token, body, ct)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, 1, env.uploadCount())

	body, ct = productForm(t, pixelFields, "pixel.png")
	rec = env.doMultipart(http.MethodPost, "/api/products", token, body, ct)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, 1, env.uploadCount())
}

func TestCreateProduct_Forbidden(t *testing.T) {
	env := newTestEnv(t)
	token := env.tokenFor(models.RoleUser)

	body, ct := productForm(t, pixelFields, "pixel.png")
	rec := env.doMultipart(http.MethodPost, "/api/products", token, body, ct)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	body, ct = productForm(t, pixelFields, "pixel.png")
	rec = env.doMultipart(http.MethodPost, "/api/products", "", body, ct)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetProductBySlug(t *testing.T) {
	env := newTestEnv(t)
	token := env.tokenFor(models.RoleAdmin)

	body, ct := productForm(t, pixelFields, "pixel.png")
	rec := env.doMultipart(http.MethodPost, "/api/products", token, body, ct)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.doJSON(http.MethodGet, "/api/products/pixel-9", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.doJSON(http.MethodGet, "/api/products/unknown", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSearch(t *testing.T) {
	env := newTestEnv(t)
	seed := []models.Product{
		{Name: "Smartphone X", Slug: "smartphone-x", Category: "smartphones", Price: 500, Image: "/uploads/a.png", Description: "great camera"},
		{Name: "Leather Case", Slug: "leather-case", Category: "accessories", Price: 20, Image: "/uploads/b.png", Description: "fits most devices"},
	}
	require.NoError(t, env.DB.Create(&seed).Error)

	rec := env.doJSON(http.MethodGet, "/api/search?q=phone", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var res struct {
		Total    int64            `json:"total"`
		Products []models.Product `json:"products"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, int64(1), res.Total)
	require.Len(t, res.Products, 1)
	assert.Equal(t, "Smartphone X", res.Products[0].Name)

	rec = env.doJSON(http.MethodGet, "/api/search", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOrderFlow(t *testing.T) {
	env := newTestEnv(t)

	payload := map[string]any{
		"products":   []map[string]any{{"productId": 1, "quantity": 2}},
		"totalPrice": 1998,
		"address":    "1 Main St",
		"email":      "buyer@example.com",
		"phone":      "+1 555 0100",
	}

	// guest order
	rec := env.doJSON(http.MethodPost, "/api/orders", "", payload)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created models.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, models.StatusPending, created.Status)
	assert.Nil(t, created.UserID)

	// authenticated order is owned
	userToken := env.tokenFor(models.RoleUser)
	rec = env.doJSON(http.MethodPost, "/api/orders", userToken, payload)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotNil(t, created.UserID)

	// admin moves it to shipped, owner sees the change
	adminToken := env.tokenFor(models.RoleAdmin)
	rec = env.doJSON(http.MethodPut, "/api/orders/2", adminToken, map[string]string{"status": "shipped"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.doJSON(http.MethodGet, "/api/orders", userToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var mine []models.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &mine))
	require.Len(t, mine, 1)
	assert.Equal(t, models.StatusShipped, mine[0].Status)
}

func TestOrder_EmptyProducts(t *testing.T) {
	env := newTestEnv(t)

	payload := map[string]any{
		"products":   []map[string]any{},
		"totalPrice": 10,
		"address":    "1 Main St",
		"email":      "buyer@example.com",
		"phone":      "+1 555 0100",
	}
	rec := env.doJSON(http.MethodPost, "/api/orders", "", payload)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var count int64
	require.NoError(t, env.DB.Model(&models.Order{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestOrders_AdminBoundary(t *testing.T) {
	env := newTestEnv(t)
	userToken := env.tokenFor(models.RoleUser)

	rec := env.doJSON(http.MethodGet, "/api/orders/all", userToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.doJSON(http.MethodGet, "/api/orders/all", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthFlow(t *testing.T) {
	env := newTestEnv(t)

	rec := env.doJSON(http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Alice", "email": "alice@example.com", "password": "secret123",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = env.doJSON(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "secret123",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var login struct {
		AccessToken  string      `json:"access_token"`
		RefreshToken string      `json:"refresh_token"`
		User         models.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))
	require.NotEmpty(t, login.AccessToken)

	rec = env.doJSON(http.MethodPost, "/api/auth/refresh", "", map[string]string{
		"refresh_token": login.RefreshToken,
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	// wrong password
	rec = env.doJSON(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "nope",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestToggleRole(t *testing.T) {
	env := newTestEnv(t)
	adminToken := env.tokenFor(models.RoleAdmin)
	userToken := env.tokenFor(models.RoleUser)

	var target models.User
	require.NoError(t, env.DB.Where("role = ?", models.RoleUser).First(&target).Error)

	rec := env.doJSON(http.MethodPut, "/api/auth/toggle-role", adminToken, map[string]any{
		"userId": target.ID, "role": "admin",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var updated models.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, models.RoleAdmin, updated.Role)

	rec = env.doJSON(http.MethodPut, "/api/auth/toggle-role", userToken, map[string]any{
		"userId": target.ID, "role": "user",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
