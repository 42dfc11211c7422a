package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/gosimple/slug"
	"gorm.io/gorm"

	"techstore-backend/internal/apperr"
	"techstore-backend/internal/logging"
	"techstore-backend/internal/models"
	"techstore-backend/internal/mykafka"
	searchsvc "techstore-backend/internal/service/search"
)

type Service struct {
	DB       *gorm.DB
	ES       *elasticsearch.Client
	Index    string
	Producer *mykafka.Producer
}

type CreateInput struct {
	Name        string
	Category    string
	Price       *float64
	OldPrice    *float64
	Stock       *uint
	Tag         string
	Description string
	Image       string
}

type UpdateInput struct {
	Name        *string
	Category    *string
	Price       *float64
	OldPrice    *float64
	Rating      *float64
	Stock       *uint
	Tag         *string
	Description *string
	Image       *string
}

func (s *Service) publish(ctx context.Context, key string, event map[string]any) {
	if err := s.Producer.PublishEvent(ctx, "product_events", key, event); err != nil {
		logging.FromContext(ctx).Error("kafka publish error", "error", err)
	}
}

func (s *Service) Create(ctx context.Context, actor models.Actor, in CreateInput) (*models.Product, error) {
	if !actor.IsAdmin() {
		return nil, apperr.ErrForbidden
	}

	fields := map[string]string{}
	if in.Name == "" {
		fields["name"] = "required"
	}
	if in.Category == "" {
		fields["category"] = "required"
	} else if !models.ValidCategory(in.Category) {
		fields["category"] = "unknown category"
	}
	if in.Price == nil {
		fields["price"] = "required"
	} else if *in.Price < 0 {
		fields["price"] = "must not be negative"
	}
	if in.Stock == nil {
		fields["stock"] = "required"
	}
	if in.Description == "" {
		fields["description"] = "required"
	}
	if in.Tag != "" && !models.ValidTag(in.Tag) {
		fields["tag"] = "unknown tag"
	}
	if len(fields) > 0 {
		return nil, apperr.WithFields(apperr.ErrValidation, fields)
	}
	if in.Image == "" {
		return nil, apperr.ErrMediaMissing
	}

	prod := models.Product{
		Name:        in.Name,
		Slug:        slug.Make(in.Name),
		Category:    in.Category,
		Price:       *in.Price,
		OldPrice:    in.OldPrice,
		Stock:       *in.Stock,
		Image:       in.Image,
		Description: in.Description,
	}
	if in.Tag != "" {
		tag := in.Tag
		prod.Tag = &tag
	}

	if err := s.ensureUniqueSlug(ctx, prod.Slug, 0); err != nil {
		return nil, err
	}
	if err := s.DB.WithContext(ctx).Create(&prod).Error; err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.publish(ctx, fmt.Sprint(prod.ID), map[string]any{
		"type":      "product_created",
		"productID": prod.ID,
		"slug":      prod.Slug,
	})
	return &prod, nil
}

func (s *Service) Update(ctx context.Context, actor models.Actor, id uint, in UpdateInput) (*models.Product, error) {
	if !actor.IsAdmin() {
		return nil, apperr.ErrForbidden
	}

	var prod models.Product
	if err := s.DB.WithContext(ctx).First(&prod, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("load product: %w", err)
	}

	fields := map[string]string{}
	if in.Name != nil {
		if *in.Name == "" {
			fields["name"] = "must not be empty"
		} else if *in.Name != prod.Name {
			prod.Name = *in.Name
			prod.Slug = slug.Make(*in.Name)
			if err := s.ensureUniqueSlug(ctx, prod.Slug, prod.ID); err != nil {
				return nil, err
			}
		}
	}
	if in.Category != nil {
		if !models.ValidCategory(*in.Category) {
			fields["category"] = "unknown category"
		} else {
			prod.Category = *in.Category
		}
	}
	if in.Price != nil {
		if *in.Price < 0 {
			fields["price"] = "must not be negative"
		} else {
			prod.Price = *in.Price
		}
	}
	if in.OldPrice != nil {
		prod.OldPrice = in.OldPrice
	}
	if in.Rating != nil {
		if *in.Rating < 0 || *in.Rating > 5 {
			fields["rating"] = "must be between 0 and 5"
		} else {
			prod.Rating = *in.Rating
		}
	}
	if in.Stock != nil {
		prod.Stock = *in.Stock
	}
	if in.Tag != nil {
		switch {
		case *in.Tag == "":
			prod.Tag = nil
		case !models.ValidTag(*in.Tag):
			fields["tag"] = "unknown tag"
		default:
			prod.Tag = in.Tag
		}
	}
	if in.Description != nil {
		if *in.Description == "" {
			fields["description"] = "must not be empty"
		} else {
			prod.Description = *in.Description
		}
	}
	if in.Image != nil && *in.Image != "" {
		prod.Image = *in.Image
	}
	if len(fields) > 0 {
		return nil, apperr.WithFields(apperr.ErrValidation, fields)
	}

	if err := s.DB.WithContext(ctx).Save(&prod).Error; err != nil {
		return nil, fmt.Errorf("save product: %w", err)
	}

	s.publish(ctx, fmt.Sprint(prod.ID), map[string]any{
		"type":      "product_updated",
		"productID": prod.ID,
		"slug":      prod.Slug,
	})
	return &prod, nil
}

func (s *Service) Delete(ctx context.Context, actor models.Actor, id uint) error {
	if !actor.IsAdmin() {
		return apperr.ErrForbidden
	}

	res := s.DB.WithContext(ctx).Delete(&models.Product{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.ErrNotFound
	}

	s.publish(ctx, fmt.Sprint(id), map[string]any{
		"type":      "product_deleted",
		"productID": id,
	})
	return nil
}

func (s *Service) GetBySlug(ctx context.Context, slugParam string) (*models.Product, error) {
	var prod models.Product
	if err := s.DB.WithContext(ctx).Where("slug = ?", slugParam).First(&prod).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("load product: %w", err)
	}
	return &prod, nil
}

func (s *Service) ListAll(ctx context.Context) ([]models.Product, error) {
	var items []models.Product
	if err := s.DB.WithContext(ctx).Order("id ASC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return items, nil
}

func (s *Service) ListByCategory(ctx context.Context, category string) ([]models.Product, error) {
	if !models.ValidCategory(category) {
		return nil, apperr.Field(apperr.ErrValidation, "category", "unknown category")
	}
	var items []models.Product
	if err := s.DB.WithContext(ctx).Where("category = ?", category).Order("id ASC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return items, nil
}

// Search matches name or description, case-insensitive. When an ES client is
// wired it runs a fuzzy multi_match; otherwise it falls back to a substring
// scan in the store. An empty result is not an error.
func (s *Service) Search(ctx context.Context, query string, from, size int) (int64, []models.Product, error) {
	if s.ES != nil {
		return searchsvc.Search(ctx, s.ES, s.Index, query, from, size)
	}

	pattern := "%" + strings.ToLower(query) + "%"
	cond := "LOWER(name) LIKE ? OR LOWER(description) LIKE ?"

	var total int64
	if err := s.DB.WithContext(ctx).Model(&models.Product{}).Where(cond, pattern, pattern).Count(&total).Error; err != nil {
		return 0, nil, fmt.Errorf("count search results: %w", err)
	}

	var items []models.Product
	if err := s.DB.WithContext(ctx).
		Where(cond, pattern, pattern).
		Order("id ASC").
		Offset(from).
		Limit(size).
		Find(&items).Error; err != nil {
		return 0, nil, fmt.Errorf("search products: %w", err)
	}
	return total, items, nil
}

func (s *Service) ensureUniqueSlug(ctx context.Context, slugVal string, excludeID uint) error {
	var count int64
	if err := s.DB.WithContext(ctx).
		Model(&models.Product{}).
		Where("slug = ? AND id <> ?", slugVal, excludeID).
		Count(&count).Error; err != nil {
		return fmt.Errorf("check slug: %w", err)
	}
	if count > 0 {
		return apperr.Field(apperr.ErrConflict, "slug", "already in use")
	}
	return nil
}
