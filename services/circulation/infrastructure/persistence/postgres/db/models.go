package db

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type Branch struct {
	ID   uuid.UUID
	Name string
	Code string
}

type Item struct {
	ID        uuid.UUID
	TenantID  uuid.NullUUID
	Isbn      string
	Title     string
	Copies    int32
	Available sql.NullInt32
}

type Member struct {
	ID           uuid.UUID
	TenantID     uuid.NullUUID
	MemberNumber string
	Name         string
	IsBlocked    bool
	Note         string
}

type Loan struct {
	ID         uuid.UUID
	ItemID     uuid.UUID
	MemberID   uuid.UUID
	TenantID   uuid.NullUUID
	LoanDate   time.Time
	DueDate    time.Time
	ReturnDate sql.NullTime
	FineCents  int64
}

// LoanRow is a loan joined with its item and member.
type LoanRow struct {
	Loan
	ItemTitle    string
	ItemIsbn     string
	MemberName   string
	MemberNumber string
}

type Reservation struct {
	ID        uuid.UUID
	ItemID    uuid.UUID
	MemberID  uuid.UUID
	TenantID  uuid.NullUUID
	Status    string
	CreatedAt time.Time
}

type CirculationSetting struct {
	Key   string
	Value string
}
