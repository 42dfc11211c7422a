package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"techstore-backend/internal/apperr"
	"techstore-backend/internal/logging"
	"techstore-backend/internal/media"
	authmw "techstore-backend/internal/middleware/auth"
	"techstore-backend/internal/service/catalog"
)

type ProductHandler struct {
	Svc   *catalog.Service
	Media media.Store
}

// formValue distinguishes an absent multipart field from an empty one.
func formValue(c echo.Context, key string) (string, bool) {
	params, err := c.FormParams()
	if err != nil {
		return "", false
	}
	vals, ok := params[key]
	if !ok || len(vals) == 0 {
		return "", false
	}
	return vals[0], true
}

func parseFloatField(c echo.Context, key string, fields map[string]string) *float64 {
	raw, ok := formValue(c, key)
	if !ok || raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		fields[key] = "must be numeric"
		return nil
	}
	return &v
}

func parseUintField(c echo.Context, key string, fields map[string]string) *uint {
	raw, ok := formValue(c, key)
	if !ok || raw == "" {
		return nil
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		fields[key] = "must be a non-negative integer"
		return nil
	}
	u := uint(v)
	return &u
}

// saveImage stores the uploaded "image" part if present and returns its
// reference URL. ok reports whether a file part was attached at all.
func (h *ProductHandler) saveImage(c echo.Context) (url string, ok bool, err error) {
	fh, err := c.FormFile("image")
	if err != nil {
		return "", false, nil
	}
	src, err := fh.Open()
	if err != nil {
		return "", true, err
	}
	defer src.Close()

	url, err = h.Media.Save(c.Request().Context(), fh.Filename, src)
	if err != nil {
		return "", true, err
	}
	return url, true, nil
}

// discardImage drops an upload stored for a request that was then rejected,
// so rejected requests leave nothing behind in the uploads dir.
func (h *ProductHandler) discardImage(c echo.Context, url string) {
	if url == "" {
		return
	}
	if err := h.Media.Remove(c.Request().Context(), url); err != nil {
		logging.FromContext(c.Request().Context()).Warn("orphaned upload not removed", "url", url, "error", err)
	}
}

func (h *ProductHandler) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.create")

	fields := map[string]string{}
	in := catalog.CreateInput{
		Name:        c.FormValue("name"),
		Category:    c.FormValue("category"),
		Tag:         c.FormValue("tag"),
		Description: c.FormValue("description"),
		Price:       parseFloatField(c, "price", fields),
		OldPrice:    parseFloatField(c, "oldPrice", fields),
		Stock:       parseUintField(c, "stock", fields),
	}
	if len(fields) > 0 {
		l.Warn("product_create_failed", "status", 400, "reason", "malformed numeric fields")
		return errorResponse(c, apperr.WithFields(apperr.ErrValidation, fields))
	}

	image, attached, err := h.saveImage(c)
	if err != nil {
		l.Warn("product_create_failed", "status", 400, "reason", "image upload", "error", err)
		return errorResponse(c, err)
	}
	if attached {
		in.Image = image
	}

	prod, err := h.Svc.Create(ctx, authmw.ActorFrom(c), in)
	if err != nil {
		h.discardImage(c, in.Image)
		l.Warn("product_create_failed", "error", err)
		return errorResponse(c, err)
	}

	l.Info("product_created", "productID", prod.ID, "slug", prod.Slug)
	return c.JSON(http.StatusCreated, prod)
}

func (h *ProductHandler) UpdateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.update")

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errorResponse(c, apperr.Field(apperr.ErrValidation, "id", "must be an integer"))
	}

	fields := map[string]string{}
	in := catalog.UpdateInput{
		Price:    parseFloatField(c, "price", fields),
		OldPrice: parseFloatField(c, "oldPrice", fields),
		Rating:   parseFloatField(c, "rating", fields),
		Stock:    parseUintField(c, "stock", fields),
	}
	if v, ok := formValue(c, "name"); ok {
		in.Name = &v
	}
	if v, ok := formValue(c, "category"); ok {
		in.Category = &v
	}
	if v, ok := formValue(c, "tag"); ok {
		in.Tag = &v
	}
	if v, ok := formValue(c, "description"); ok {
		in.Description = &v
	}
	if len(fields) > 0 {
		return errorResponse(c, apperr.WithFields(apperr.ErrValidation, fields))
	}

	image, attached, err := h.saveImage(c)
	if err != nil {
		return errorResponse(c, err)
	}
	if attached {
		in.Image = &image
	}

	prod, err := h.Svc.Update(ctx, authmw.ActorFrom(c), uint(id), in)
	if err != nil {
		if in.Image != nil {
			h.discardImage(c, *in.Image)
		}
		l.Warn("product_update_failed", "productID", id, "error", err)
		return errorResponse(c, err)
	}

	l.Info("product_updated", "productID", prod.ID, "slug", prod.Slug)
	return c.JSON(http.StatusOK, prod)
}

func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.delete")

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errorResponse(c, apperr.Field(apperr.ErrValidation, "id", "must be an integer"))
	}

	if err := h.Svc.Delete(ctx, authmw.ActorFrom(c), uint(id)); err != nil {
		l.Warn("product_delete_failed", "productID", id, "error", err)
		return errorResponse(c, err)
	}

	l.Info("product_deleted", "productID", id)
	return c.JSON(http.StatusOK, echo.Map{"message": "product deleted"})
}

func (h *ProductHandler) GetProductBySlug(c echo.Context) error {
	prod, err := h.Svc.GetBySlug(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, prod)
}

func (h *ProductHandler) GetProducts(c echo.Context) error {
	items, err := h.Svc.ListAll(c.Request().Context())
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *ProductHandler) GetByCategory(c echo.Context) error {
	items, err := h.Svc.ListByCategory(c.Request().Context(), c.Param("category"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, items)
}
