package auth

import (
	"fmt"
	"strings"
)

type LoginDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshTokenDTO struct {
	RefreshToken string `json:"refresh_token"`
}

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (d LoginDTO) Validate() error {
	if strings.TrimSpace(d.Email) == "" {
		return ValidationError{Field: "email", Message: "email is required"}
	}
	if !strings.Contains(d.Email, "@") {
		return ValidationError{Field: "email", Message: "email is invalid"}
	}
	if d.Password == "" {
		return ValidationError{Field: "password", Message: "password is required"}
	}
	return nil
}

func (d RefreshTokenDTO) Validate() error {
	if d.RefreshToken == "" {
		return ValidationError{Field: "refresh_token", Message: "refresh token is required"}
	}
	return nil
}
