// Package models holds the client-side view of auth API payloads.
package models

import "time"

type FullName struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type Address struct {
	ID        string `json:"id,omitempty"`
	Street    string `json:"street"`
	City      string `json:"city"`
	State     string `json:"state"`
	ZipCode   string `json:"zipCode"`
	Country   string `json:"country"`
	IsDefault bool   `json:"isDefault"`
}

type User struct {
	ID        string    `json:"id"`
	UserName  string    `json:"username"`
	Email     string    `json:"email"`
	FullName  FullName  `json:"fullName"`
	Role      string    `json:"role"`
	Addresses []Address `json:"addresses"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Registration is the body of a register request.
type Registration struct {
	UserName  string    `json:"username"`
	Email     string    `json:"email"`
	Password  string    `json:"password"`
	FullName  FullName  `json:"fullName"`
	Role      string    `json:"role,omitempty"`
	Addresses []Address `json:"addresses,omitempty"`
}

// FieldError is a single validation failure reported by the server.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}
