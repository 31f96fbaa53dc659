package models

type Waiter struct {
	ID        string `json:"id" db:"id"`
	Email     string `json:"email" db:"email"`
	Password  string `json:"-" db:"password"` // Never return password in JSON
	Name      string `json:"name" db:"name"`
	Phone     string `json:"phone" db:"phone"`
	Avatar    string `json:"avatar" db:"avatar"`
	Role      string `json:"role" db:"role"` // "waiter" or "manager"
	JoinedAt  string `json:"joinedAt" db:"joined_at"` // YYYY-MM-DD
	CreatedAt int64  `json:"created_at" db:"created_at"`
	UpdatedAt int64  `json:"updated_at" db:"updated_at"`
}

type WaiterProfile struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Avatar       string `json:"avatar"`
	Role         string `json:"role"`
	JoinedAt     string `json:"joinedAt"`
	OrdersServed int    `json:"ordersServed"`
}

func (w *Waiter) ToProfile(ordersServed int) WaiterProfile {
	return WaiterProfile{
		ID:           w.ID,
		Email:        w.Email,
		Name:         w.Name,
		Phone:        w.Phone,
		Avatar:       w.Avatar,
		Role:         w.Role,
		JoinedAt:     w.JoinedAt,
		OrdersServed: ordersServed,
	}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token  string        `json:"token"`
	Waiter WaiterProfile `json:"waiter"`
}

// FCMTokenRequest registers a device for push notifications
type FCMTokenRequest struct {
	Token      string `json:"token"`
	DeviceType string `json:"device_type"`
}
