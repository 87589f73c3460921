package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultCurrencyScale is used when a journal carries no scale metadata.
const DefaultCurrencyScale = 2

type TransactionType string

const (
	TypeWithdrawal TransactionType = "withdrawal"
	TypeDeposit    TransactionType = "deposit"
	TypeTransfer   TransactionType = "transfer"
)

// Phase says which engine pass a run belongs to. Rules carry on-create or
// on-update in trigger_on; manual is reserved for the explicit "apply my
// rules now" path and never appears on a stored rule.
type Phase string

const (
	PhaseCreate Phase = "on-create"
	PhaseUpdate Phase = "on-update"
	PhaseManual Phase = "manual"
)

type AccountRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// Journal is the engine's read/write view of one posted transaction.
// Amounts are signed: withdrawals negative, deposits positive.
type Journal struct {
	ID                 uuid.UUID       `json:"id"`
	OwnerID            uuid.UUID       `json:"owner_id"`
	Type               TransactionType `json:"type"`
	Description        string          `json:"description"`
	Date               time.Time       `json:"date"`
	Amount             decimal.Decimal `json:"amount"`
	Currency           string          `json:"currency"`
	CurrencyScale      int32           `json:"currency_scale"`
	SourceAccount      AccountRef      `json:"source_account"`
	DestinationAccount AccountRef      `json:"destination_account"`
	CategoryID         *uuid.UUID      `json:"category_id"`
	CategoryName       string          `json:"category_name"`
	BudgetID           *uuid.UUID      `json:"budget_id"`
	BudgetName         string          `json:"budget_name"`
	Tags               []string        `json:"tags"`
	Notes              string          `json:"notes"`
	BillID             *uuid.UUID      `json:"bill_id"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

func (j *Journal) Scale() int32 {
	if j.CurrencyScale <= 0 {
		return DefaultCurrencyScale
	}
	return j.CurrencyScale
}

func (j *Journal) HasTag(tag string) bool {
	for _, t := range j.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// JournalRef is the slim reference returned by preview scans.
type JournalRef struct {
	ID          uuid.UUID       `json:"id"`
	Description string          `json:"description"`
	Date        time.Time       `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
}

func (j *Journal) Ref() JournalRef {
	return JournalRef{
		ID:          j.ID,
		Description: j.Description,
		Date:        j.Date,
		Amount:      j.Amount,
		Currency:    j.Currency,
	}
}
