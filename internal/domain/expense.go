package domain

import "time"

// Estados del ciclo de aprobacion de un gasto.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Expense representa un gasto presentado por un empleado. Solo el campo
// Status cambia despues de la creacion.
type Expense struct {
	ID            string    `json:"id"`
	OwnerUsername string    `json:"owner"`
	Amount        float64   `json:"amount"`
	Currency      string    `json:"currency"`
	ExpenseDate   time.Time `json:"-"`
	Vendor        string    `json:"vendor"`
	Description   string    `json:"description"`
	ReceiptPath   string    `json:"-"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}
