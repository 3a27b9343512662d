package models

// UserRole determines which side of a delivery a user may act on.
type UserRole string

const (
	RoleSender  UserRole = "sender"
	RoleCarrier UserRole = "carrier"
	RoleBoth    UserRole = "both"
)

// User represents a registered account.
type User struct {
	ID           int64    `json:"id" db:"id"`
	Username     string   `json:"username" db:"username"`
	PasswordHash string   `json:"-" db:"password_hash"`
	FullName     string   `json:"full_name" db:"full_name"`
	Email        *string  `json:"email,omitempty" db:"email"`
	Role         UserRole `json:"role" db:"role"`
	Rating       *int     `json:"rating" db:"rating"`
	TotalReviews int      `json:"total_reviews" db:"total_reviews"`
	PhoneNumber  *string  `json:"phone_number,omitempty" db:"phone_number"`
}

// UserProfile is the safe projection embedded in delivery and message
// payloads. It never carries the password hash.
type UserProfile struct {
	ID           int64    `json:"id"`
	Username     string   `json:"username"`
	FullName     string   `json:"full_name"`
	Role         UserRole `json:"role,omitempty"`
	Rating       *int     `json:"rating"`
	TotalReviews int      `json:"total_reviews"`
	PhoneNumber  *string  `json:"phone_number,omitempty"`
}

// Profile returns the safe projection of the user.
func (u *User) Profile() *UserProfile {
	return &UserProfile{
		ID:           u.ID,
		Username:     u.Username,
		FullName:     u.FullName,
		Role:         u.Role,
		Rating:       u.Rating,
		TotalReviews: u.TotalReviews,
		PhoneNumber:  u.PhoneNumber,
	}
}

// RegisterRequest is the body for POST /auth/register.
type RegisterRequest struct {
	Username    string `json:"username" validate:"required,min=3,max=50"`
	Password    string `json:"password" validate:"required,min=6"`
	FullName    string `json:"full_name" validate:"required,min=2,max=100"`
	Email       string `json:"email" validate:"omitempty,email"`
	Role        string `json:"role" validate:"omitempty,oneof=sender carrier both"`
	PhoneNumber string `json:"phone_number" validate:"omitempty,len=10,numeric"`
}

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse is returned after a successful register or login.
type AuthResponse struct {
	AccessToken string       `json:"access_token"`
	User        *UserProfile `json:"user"`
}
