package users

import (
	"errors"
	"fmt"
	"maps"
	"time"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrMissingUsername = errors.New("username is required")
	ErrWeakPassword    = errors.New("password does not meet strength requirements")
)

// User is a resource owner able to obtain tokens through the password grant.
type User struct {
	ID           string            `json:"id,omitempty"`
	Username     string            `json:"username"`
	Email        string            `json:"email,omitempty"`
	PasswordHash string            `json:"-"` // never serialized
	FirstName    string            `json:"first_name,omitempty"`
	LastName     string            `json:"last_name,omitempty"`
	DateJoined   time.Time         `json:"date_joined,omitempty"`
	LastLogin    time.Time         `json:"last_login,omitempty"`
	Verified     bool              `json:"verified,omitempty"`
	Blocked      bool              `json:"blocked,omitempty"` // Blocked users cannot obtain tokens
	Details      map[string]string `json:"details,omitempty"` // Copied into the details of issued tokens
}

// NewUser builds a user with the password hashed at the given bcrypt cost.
func NewUser(username, email, password string, cost int) (*User, error) {
	if username == "" {
		return nil, ErrMissingUsername
	}
	if err := ValidatePasswordStrength(password); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWeakPassword, err)
	}
	hash, err := HashPasswordWithCost(password, cost)
	if err != nil {
		return nil, fmt.Errorf("[NewUser] failed to hash password: %w", err)
	}
	return &User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		DateJoined:   time.Now(),
	}, nil
}

// ValidatePasswordStrength checks if password meets security requirements:
// - At least 8 characters long
// - Contains uppercase and lowercase letters
// - Contains at least one number
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}

	var (
		hasUpper  bool
		hasLower  bool
		hasNumber bool
	)

	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsDigit(char):
			hasNumber = true
		}
	}

	if !hasUpper {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}
	if !hasNumber {
		return fmt.Errorf("password must contain at least one number")
	}

	return nil
}

func HashPassword(password string) (string, error) {
	return HashPasswordWithCost(password, bcrypt.DefaultCost)
}

func HashPasswordWithCost(password string, cost int) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// CheckPassword checks a password against the user's hash
func (u *User) CheckPassword(password string) bool {
	return CheckPasswordHash(password, u.PasswordHash)
}

func (u *User) Copy() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.Details = maps.Clone(u.Details)
	return &c
}
