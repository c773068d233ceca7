package models

import "time"

// User is a customer or staff account.
type User struct {
	ID           string    `json:"id" bson:"id"`
	Name         string    `json:"name" bson:"name"`
	Email        string    `json:"email" bson:"email"`
	PhoneNumber  string    `json:"phoneNumber" bson:"phone_number"`
	Company      string    `json:"company,omitempty" bson:"company,omitempty"`
	PasswordHash string    `json:"-" bson:"password_hash"`
	Role         Role      `json:"role" bson:"role"`
	CreatedAt    time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" bson:"updated_at"`
}

// Contact returns the user's details as a kit enquiry contact.
func (u User) Contact() Contact {
	return Contact{Name: u.Name, Email: u.Email, Phone: u.PhoneNumber, Company: u.Company}
}
