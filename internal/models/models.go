package models

import (
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

const (
	StatusPending   = "pending"
	StatusShipped   = "shipped"
	StatusDelivered = "delivered"
)

// Allowed enum values for the catalog.
var (
	Categories = []string{"smartphones", "tablets", "smartwatches", "accessories"}
	Tags       = []string{"new", "sale", "popular"}
)

type Product struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"not null"                 json:"name"`
	Slug        string    `gorm:"uniqueIndex;not null"     json:"slug"`
	Category    string    `gorm:"index;not null"           json:"category"`
	Price       float64   `gorm:"not null"                 json:"price"`
	OldPrice    *float64  `json:"oldPrice,omitempty"`
	Rating      float64   `gorm:"default:0"                json:"rating"`
	Stock       uint      `json:"stock"`
	Image       string    `gorm:"not null"                 json:"image"`
	Tag         *string   `json:"tag,omitempty"`
	Description string    `gorm:"not null"                 json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Order struct {
	ID         uint        `gorm:"primaryKey;autoIncrement"    json:"id"`
	UserID     *uint       `gorm:"index"                       json:"userId,omitempty"`
	Items      []OrderItem `gorm:"constraint:OnDelete:CASCADE" json:"products"`
	TotalPrice float64     `gorm:"not null"                    json:"totalPrice"`
	Status     string      `gorm:"not null;default:pending"    json:"status"`
	Address    string      `gorm:"not null"                    json:"address"`
	Email      string      `gorm:"not null"                    json:"email"`
	Phone      string      `gorm:"not null"                    json:"phone"`
	CreatedAt  time.Time   `json:"createdAt"`
}

type OrderItem struct {
	ID        uint `gorm:"primaryKey;autoIncrement" json:"-"`
	OrderID   uint `gorm:"index;not null"           json:"-"`
	ProductID uint `gorm:"not null"                 json:"productId"`
	Quantity  uint `gorm:"not null"                 json:"quantity"`
}

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string `gorm:"not null"                 json:"name"`
	Email        string `gorm:"uniqueIndex;not null"     json:"email"`
	PasswordHash string `gorm:"not null"                 json:"-"`
	Role         string `gorm:"not null;default:user"    json:"role"`
}

type RefreshToken struct {
	ID        uint   `gorm:"primaryKey"      json:"id"`
	Token     string `gorm:"unique;not null" json:"token"`
	UserID    uint   `gorm:"index;not null"  json:"user_id"`
	Role      string `gorm:"not null"        json:"role"`
	ExpiresAt int64  `gorm:"not null"        json:"expires_at"`
	Revoked   bool   `gorm:"default:false"   json:"revoked"`
}

// Actor is the principal a service operation runs as. The zero value is an
// anonymous caller.
type Actor struct {
	ID   uint
	Role string
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

func ValidCategory(c string) bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

func ValidTag(t string) bool {
	for _, v := range Tags {
		if v == t {
			return true
		}
	}
	return false
}

func ValidStatus(s string) bool {
	return s == StatusPending || s == StatusShipped || s == StatusDelivered
}
