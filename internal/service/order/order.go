package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"techstore-backend/internal/apperr"
	"techstore-backend/internal/logging"
	"techstore-backend/internal/models"
	"techstore-backend/internal/mykafka"
)

type Service struct {
	DB       *gorm.DB
	Producer *mykafka.Producer

	// DecrementStock charges ordered quantities against product stock inside
	// the order transaction. Off by default: stock stays informational.
	DecrementStock bool
	// EnforceStatusFlow restricts status updates to pending -> shipped ->
	// delivered. Off by default: an admin may set any status.
	EnforceStatusFlow bool
}

var validate = validator.New(validator.WithRequiredStructEnabled())

type Line struct {
	ProductID uint `json:"productId" validate:"required"`
	Quantity  uint `json:"quantity"  validate:"required,min=1"`
}

type CreateInput struct {
	Products   []Line  `json:"products"   validate:"required,min=1,dive"`
	TotalPrice float64 `json:"totalPrice" validate:"required,gt=0"`
	Address    string  `json:"address"    validate:"required"`
	Email      string  `json:"email"      validate:"required,email"`
	Phone      string  `json:"phone"      validate:"required"`
	UserID     *uint   `json:"-"`
}

func (s *Service) publish(ctx context.Context, key string, event map[string]any) {
	if err := s.Producer.PublishEvent(ctx, "order_events", key, event); err != nil {
		logging.FromContext(ctx).Error("kafka publish error", "error", err)
	}
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Order, error) {
	if err := validate.Struct(in); err != nil {
		fields := map[string]string{}
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				fields[fe.Field()] = fe.Tag()
			}
		}
		return nil, apperr.WithFields(apperr.ErrValidation, fields)
	}

	var order models.Order
	txErr := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if s.DecrementStock {
			for _, line := range in.Products {
				if err := s.decrement(tx, line); err != nil {
					return err
				}
			}
		}

		order = models.Order{
			UserID:     in.UserID,
			TotalPrice: in.TotalPrice,
			Status:     models.StatusPending,
			Address:    in.Address,
			Email:      in.Email,
			Phone:      in.Phone,
		}
		if err := tx.Create(&order).Error; err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		items := make([]models.OrderItem, 0, len(in.Products))
		for _, line := range in.Products {
			items = append(items, models.OrderItem{
				OrderID:   order.ID,
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
			})
		}
		if err := tx.Create(&items).Error; err != nil {
			return fmt.Errorf("create order items: %w", err)
		}
		order.Items = items
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	s.publish(ctx, fmt.Sprint(order.ID), map[string]any{
		"type":    "order_created",
		"orderID": order.ID,
		"total":   order.TotalPrice,
	})
	return &order, nil
}

// decrement charges one order line against product stock. Missing products
// are let through on purpose: order lines reference product ids without an
// existence guarantee.
func (s *Service) decrement(tx *gorm.DB, line Line) error {
	var prod models.Product
	if err := tx.First(&prod, line.ProductID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("load product: %w", err)
	}
	if prod.Stock < line.Quantity {
		return apperr.Field(apperr.ErrValidation, "products", fmt.Sprintf("insufficient stock for product %d", line.ProductID))
	}
	prod.Stock -= line.Quantity
	if err := tx.Save(&prod).Error; err != nil {
		return fmt.Errorf("save product stock: %w", err)
	}
	return nil
}

func (s *Service) ListForUser(ctx context.Context, userID uint) ([]models.Order, error) {
	var orders []models.Order
	if err := s.DB.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("id DESC").
		Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func (s *Service) ListAll(ctx context.Context, actor models.Actor) ([]models.Order, error) {
	if !actor.IsAdmin() {
		return nil, apperr.ErrForbidden
	}
	var orders []models.Order
	if err := s.DB.WithContext(ctx).Preload("Items").Order("id DESC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

var statusRank = map[string]int{
	models.StatusPending:   0,
	models.StatusShipped:   1,
	models.StatusDelivered: 2,
}

func (s *Service) UpdateStatus(ctx context.Context, actor models.Actor, id uint, status string) (*models.Order, error) {
	if !actor.IsAdmin() {
		return nil, apperr.ErrForbidden
	}
	if !models.ValidStatus(status) {
		return nil, apperr.Field(apperr.ErrValidation, "status", "must be pending, shipped or delivered")
	}

	var order models.Order
	if err := s.DB.WithContext(ctx).Preload("Items").First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("load order: %w", err)
	}

	if s.EnforceStatusFlow && statusRank[status] < statusRank[order.Status] {
		return nil, apperr.Field(apperr.ErrConflict, "status", fmt.Sprintf("cannot move back from %s to %s", order.Status, status))
	}

	order.Status = status
	if err := s.DB.WithContext(ctx).Save(&order).Error; err != nil {
		return nil, fmt.Errorf("save order: %w", err)
	}

	s.publish(ctx, fmt.Sprint(order.ID), map[string]any{
		"type":    "order_status_updated",
		"orderID": order.ID,
		"status":  order.Status,
	})
	return &order, nil
}
