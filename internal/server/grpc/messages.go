package grpc

import (
	"time"

	"github.com/dmitrijs2005/microblog/internal/server/models"
	"github.com/dmitrijs2005/microblog/internal/server/services"
)

type Empty struct{}

type SignUpRequest struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
	Remember             bool   `json:"remember"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Remember bool   `json:"remember"`
}

type ResumeRequest struct {
	UserID        string `json:"user_id"`
	RememberToken string `json:"remember_token"`
}

type SessionResponse struct {
	UserID        string    `json:"user_id"`
	Token         string    `json:"token"`
	ExpiresAt     time.Time `json:"expires_at"`
	RememberToken string    `json:"remember_token,omitempty"`
}

type UserRequest struct {
	ID string `json:"id"`
}

type UpdateUserRequest struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

type PageRequest struct {
	UserID   string `json:"user_id,omitempty"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
}

type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Admin     bool      `json:"admin"`
	CreatedAt time.Time `json:"created_at"`
}

type UserResponse struct {
	User       User `json:"user"`
	Following  int  `json:"following"`
	Followers  int  `json:"followers"`
	Microposts int  `json:"microposts"`
}

type UsersResponse struct {
	Users []User `json:"users"`
}

type FollowRequest struct {
	UserID string `json:"user_id"`
}

type RelationshipResponse struct {
	Following bool `json:"following"`
}

type PostRequest struct {
	Content string `json:"content"`
}

type MicropostRequest struct {
	ID int64 `json:"id"`
}

type Micropost struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type MicropostsResponse struct {
	Microposts []Micropost `json:"microposts"`
}

func toUser(u *models.User) User {
	return User{ID: u.ID, Name: u.Name, Email: u.Email, Admin: u.Admin, CreatedAt: u.CreatedAt}
}

func toUsers(in []*models.User) []User {
	out := make([]User, 0, len(in))
	for _, u := range in {
		out = append(out, toUser(u))
	}
	return out
}

func toMicropost(m *models.Micropost) Micropost {
	return Micropost{ID: m.ID, UserID: m.UserID, Content: m.Content, CreatedAt: m.CreatedAt}
}

func toMicroposts(in []*models.Micropost) []Micropost {
	out := make([]Micropost, 0, len(in))
	for _, m := range in {
		out = append(out, toMicropost(m))
	}
	return out
}

func toSession(s *services.Session) *SessionResponse {
	return &SessionResponse{UserID: s.UserID, Token: s.Token, ExpiresAt: s.ExpiresAt, RememberToken: s.RememberToken}
}
