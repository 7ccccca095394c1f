package models

// Role is the closed two-value role indicator. The zero value is Manager,
// matching the stored RoleID encoding.
type Role int

const (
	RoleManager  Role = 0
	RoleStandard Role = 1
)

// ClaimName is the role value embedded in access-token claims.
func (r Role) ClaimName() string {
	if r == RoleManager {
		return "Managers"
	}
	return "Users"
}

// Slug is the lowercase role name returned by the role endpoint.
func (r Role) Slug() string {
	if r == RoleManager {
		return "managers"
	}
	return "users"
}

// Redirect is the landing route a client of this role is sent to after login.
func (r Role) Redirect() string {
	if r == RoleManager {
		return "/managers"
	}
	return "/users"
}

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string `gorm:"unique;not null"          json:"username"`
	PasswordHash string `gorm:"not null"                 json:"-"`
	FullName     string `gorm:"not null"                 json:"fullname"`
	RoleID       Role   `gorm:"not null;default:0"       json:"role_id"`
}

// RefreshToken is the single stored refresh record of a user. Login rotates
// it in place (same row id, new value and timestamps), logout deletes it.
// The Token column holds the opaque base64 value verbatim and is the lookup
// key on logout.
type RefreshToken struct {
	ID        uint   `gorm:"primaryKey"      json:"id"`
	UserID    uint   `gorm:"index;not null"  json:"user_id"`
	Token     string `gorm:"unique;not null" json:"token"`
	CreatedAt int64  `gorm:"not null"        json:"created_at"`
	ExpiresAt int64  `gorm:"not null"        json:"expires_at"`
	Revoked   bool   `gorm:"default:false"   json:"revoked"`
}
