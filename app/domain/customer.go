package domain

import "context"

type Customer struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type CustomerRepository interface {
	GetByID(ctx context.Context, id int64) (Customer, error)
}
