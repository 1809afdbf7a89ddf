package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Account represents a learner account in the system
type Account struct {
	Username     string         `gorm:"primaryKey;size:30;not null" json:"username" binding:"required,alphanum"`
	Email        string         `gorm:"uniqueIndex;size:255;not null" json:"email" binding:"required,email"`
	HashedPass   string         `gorm:"size:255;not null" json:"-"`
	DisplayName  string         `gorm:"size:100" json:"display_name"`
	AvatarURL    string         `gorm:"size:500" json:"avatar_url"`
	Bio          string         `gorm:"size:1000" json:"bio"`
	TokenVersion int            `gorm:"not null;default:0" json:"-"`
	DateJoined   time.Time      `gorm:"not null" json:"date_joined"`
	LastLogin    time.Time      `gorm:"not null" json:"last_login"`
	CreatedAt    time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate hook is called before creating a new account
func (a *Account) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = now
	}
	if a.DateJoined.IsZero() {
		a.DateJoined = now
	}
	if a.LastLogin.IsZero() {
		a.LastLogin = now
	}

	// Hash the password if it isn't hashed yet (bcrypt hashes start with $2)
	if len(a.HashedPass) > 0 && a.HashedPass[0] != '$' {
		hashed, err := bcrypt.GenerateFromPassword([]byte(a.HashedPass), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		a.HashedPass = string(hashed)
	}
	return nil
}

// BeforeSave hook is called before saving the account
func (a *Account) BeforeSave(tx *gorm.DB) error {
	a.UpdatedAt = time.Now()
	return nil
}

// VerifyPassword checks a plaintext password against the stored hash
func (a *Account) VerifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(a.HashedPass), []byte(password)) == nil
}

// TableName specifies the table name for the Account model
func (Account) TableName() string {
	return "account"
}

// CreateAccountRequest represents the data needed to create a new account
type CreateAccountRequest struct {
	Username    string `json:"username" binding:"required,alphanum,min=3,max=30"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	DisplayName string `json:"display_name" binding:"omitempty,max=100"`
}

// LoginRequest represents the data needed for login
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}
