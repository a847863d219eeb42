package types

import "time"

// User represents an account in the system.
// Its JSON form is the public projection and never includes the password.
type User struct {
	// ID is assigned by storage and never supplied by callers.
	ID int `json:"id_usuario" db:"id_usuario"`

	// Name is the user's display or full name.
	Name string `json:"nombre" db:"nombre"`

	// Email is unique across all users.
	Email string `json:"correo" db:"correo"`

	// Password is stored exactly as received.
	// This field is never exposed in API responses.
	Password string `json:"-" db:"password"`

	// RegisteredAt is set once, in UTC, when the user is created.
	RegisteredAt time.Time `json:"fecha_reg" db:"fecha_reg"`
}

// CreateUserInput is the payload accepted when creating a user.
type CreateUserInput struct {
	Name     string `json:"nombre" validate:"required,max=100"`
	Email    string `json:"correo" validate:"required,email,max=150"`
	Password string `json:"password" validate:"required,max=100"`
}

// UpdateUserInput is a partial update; nil fields are left untouched.
type UpdateUserInput struct {
	Name     *string `json:"nombre" validate:"omitnil,min=1,max=100"`
	Email    *string `json:"correo" validate:"omitnil,email,max=150"`
	Password *string `json:"password" validate:"omitnil,min=1,max=100"`
}

// Apply copies the present fields onto user.
func (in UpdateUserInput) Apply(user *User) {
	if in.Name != nil {
		user.Name = *in.Name
	}
	if in.Email != nil {
		user.Email = *in.Email
	}
	if in.Password != nil {
		user.Password = *in.Password
	}
}
