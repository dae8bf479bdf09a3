// internal/domain/user/entity.go
package user

import "time"

type Role string

const (
	RoleUser     Role = "user"
	RoleSubAdmin Role = "sub_admin"
	RoleAdmin    Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleSubAdmin, RoleAdmin:
		return true
	}
	return false
}

// IsStaff reports whether the role may use the admin API.
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleSubAdmin
}

type User struct {
	ID           string    `json:"id"`
	Email        *string   `json:"email"`
	PhoneNumber  *string   `json:"phone_number"`
	FullName     string    `json:"full_name"`
	Role         Role      `json:"role"`
	PasswordHash *string   `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Contact returns the email and phone, empty when absent.
func (u *User) Contact() (email, phone string) {
	if u.Email != nil {
		email = *u.Email
	}
	if u.PhoneNumber != nil {
		phone = *u.PhoneNumber
	}
	return email, phone
}

type CreateUserRequest struct {
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	FullName    string `json:"full_name"`
	Role        Role   `json:"role"`
}

type UpdateUserRequest struct {
	Email       *string `json:"email"`
	PhoneNumber *string `json:"phone_number"`
	FullName    *string `json:"full_name"`
	Role        *Role   `json:"role"`
	Password    *string `json:"password"`
}

type ListFilters struct {
	Role   string `form:"role"`
	Search string `form:"search"`
}

// CreateUserResponse carries the generated password only when the
// credentials email could not be delivered.
type CreateUserResponse struct {
	User      *User  `json:"user"`
	EmailSent bool   `json:"email_sent"`
	Password  string `json:"temporary_password,omitempty"`
}
