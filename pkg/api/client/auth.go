package client

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

// Roles reported in User.UserType.
const (
	RoleJobSeeker = "job_seeker"
	RoleRecruiter = "recruiter"
	RoleAdmin     = "admin"
)

// User reflects API user payloads.
type User struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	Username   string    `json:"username"`
	FullName   string    `json:"full_name"`
	UserType   string    `json:"user_type"`
	IsActive   bool      `json:"is_active"`
	IsVerified bool      `json:"is_verified"`
	CreatedAt  time.Time `json:"created_at"`
}

// IsRecruiter reports whether the user may post jobs.
func (u User) IsRecruiter() bool {
	return u.UserType == RoleRecruiter
}

// DisplayName prefers the full name and falls back to the username.
func (u User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}

// Credentials are submitted to the login endpoint as form fields.
type Credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse captures the token payload emitted by the API.
type LoginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
}

// RegisterInput is the JSON profile accepted by the registration endpoint.
type RegisterInput struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,min=3,max=100"`
	Password string `json:"password" validate:"required,min=8,max=100"`
	FullName string `json:"full_name" validate:"required"`
	UserType string `json:"user_type" validate:"required,oneof=job_seeker recruiter"`
}

// Login exchanges credentials for an access token. The API expects an OAuth2
// password form, not JSON.
func (c *Client) Login(ctx context.Context, creds Credentials) (LoginResponse, error) {
	form := url.Values{}
	form.Set("username", creds.Username)
	form.Set("password", creds.Password)
	var resp LoginResponse
	if err := c.PostForm(ctx, "/auth/login", form, &resp); err != nil {
		return LoginResponse{}, err
	}
	return resp, nil
}

// Register creates an account. It does not log the user in.
func (c *Client) Register(ctx context.Context, input RegisterInput) (User, error) {
	req, err := jsonRequest(http.MethodPost, "/auth/register", "/auth/register", input)
	if err != nil {
		return User{}, err
	}
	var user User
	if err := c.do(ctx, req, &user); err != nil {
		return User{}, err
	}
	return user, nil
}

// Me returns the user owning the bearer token.
func (c *Client) Me(ctx context.Context) (User, error) {
	var user User
	if err := c.Get(ctx, "/auth/me", &user); err != nil {
		return User{}, err
	}
	return user, nil
}
