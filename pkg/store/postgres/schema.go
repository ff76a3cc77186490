package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/cardledger/cardledger/internal"
	"github.com/cardledger/cardledger/pkg/store/postgres/migrations"
)

var log = internal.GetLogger()

// CardGroupSchema is a named grouping of cards used by the card list
// filters.
type CardGroupSchema struct {
	bun.BaseModel `bun:"table:card_group,alias:cg"`

	UUID      uuid.UUID `bun:",pk,type:uuid,default:gen_random_uuid()"`
	ID        int64     `bun:",autoincrement"`
	CreatedAt time.Time `bun:"type:timestamptz,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"type:timestamptz,nullzero,notnull,default:current_timestamp"`
	Name      string    `bun:",unique,notnull"`
}

var _ bun.BeforeAppendModelHook = (*CardGroupSchema)(nil)

func (s *CardGroupSchema) BeforeAppendModel(_ context.Context, query bun.Query) error {
	if _, ok := query.(*bun.UpdateQuery); ok {
		s.UpdatedAt = time.Now()
	}
	return nil
}

func (s *CardGroupSchema) BeforeCreateTable(
	_ context.Context,
	_ *bun.CreateTableQuery,
) error {
	return nil
}

// BankColorSchema maps a bank name to the display color used in the UI.
type BankColorSchema struct {
	bun.BaseModel `bun:"table:bank_color,alias:bc"`

	UUID      uuid.UUID `bun:",pk,type:uuid,default:gen_random_uuid()"`
	ID        int64     `bun:",autoincrement"`
	CreatedAt time.Time `bun:"type:timestamptz,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"type:timestamptz,nullzero,notnull,default:current_timestamp"`
	Bank      string    `bun:",unique,notnull"`
	Color     string    `bun:",nullzero,notnull,default:'#000000'"`
}

var _ bun.BeforeAppendModelHook = (*BankColorSchema)(nil)

func (s *BankColorSchema) BeforeAppendModel(_ context.Context, query bun.Query) error {
	if _, ok := query.(*bun.UpdateQuery); ok {
		s.UpdatedAt = time.Now()
	}
	return nil
}

func (s *BankColorSchema) BeforeCreateTable(
	_ context.Context,
	_ *bun.CreateTableQuery,
) error {
	return nil
}

// CardSchema is a payment card tracked by the ledger. Status is one of
// active, broken, or hold.
type CardSchema struct {
	bun.BaseModel `bun:"table:card,alias:c"`

	UUID      uuid.UUID `bun:",pk,type:uuid,default:gen_random_uuid()"`
	ID        int64     `bun:",autoincrement"` // used as a cursor for pagination
	CreatedAt time.Time `bun:"type:timestamptz,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"type:timestamptz,nullzero,notnull,default:current_timestamp"`
	Name      string    `bun:",notnull,unique:card_identity"`
	// Bank and CardNumber default to empty strings, not NULL, so blanks
	// still participate in the card_identity unique constraint.
	Bank string `bun:",notnull,default:'',unique:card_identity"`
	// CardNumber and Pin are free-form; the upstream bank formats vary.
	CardNumber string `bun:",notnull,default:'',unique:card_identity"`
	Pin        string `bun:",nullzero"`
	Status     string `bun:",nullzero,notnull,default:'active'"`
	Notes      string `bun:",nullzero"`
	// GroupUUID must be pointer type in order to be nullable; deleting a
	// group detaches its cards rather than deleting them.
	GroupUUID *uuid.UUID       `bun:"type:uuid,nullzero"`
	Group     *CardGroupSchema `bun:"rel:belongs-to,join:group_uuid=uuid,on_delete:set null"`
}

var _ bun.BeforeAppendModelHook = (*CardSchema)(nil)

func (s *CardSchema) BeforeAppendModel(_ context.Context, query bun.Query) error {
	if _, ok := query.(*bun.UpdateQuery); ok {
		s.UpdatedAt = time.Now()
	}
	return nil
}

// BeforeCreateTable is a marker method to ensure uniform interface across all table models - used in table creation iterator
func (s *CardSchema) BeforeCreateTable(
	_ context.Context,
	_ *bun.CreateTableQuery,
) error {
	return nil
}

// ClientSchema is a payer. The client name is the external identifier.
// Status is one of active, blocked, or hold.
type ClientSchema struct {
	bun.BaseModel `bun:"table:client,alias:cl"`

	UUID      uuid.UUID `bun:",pk,type:uuid,default:gen_random_uuid()"`
	ID        int64     `bun:",autoincrement"`
	CreatedAt time.Time `bun:"type:timestamptz,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"type:timestamptz,nullzero,notnull,default:current_timestamp"`
	Name      string    `bun:",unique,notnull"`
	Status    string    `bun:",nullzero,notnull,default:'active'"`
	Notes     string    `bun:",nullzero"`
}

var _ bun.BeforeAppendModelHook = (*ClientSchema)(nil)

func (s *ClientSchema) BeforeAppendModel(_ context.Context, query bun.Query) error {
	if _, ok := query.(*bun.UpdateQuery); ok {
		s.UpdatedAt = time.Now()
	}
	return nil
}

func (s *ClientSchema) BeforeCreateTable(
	_ context.Context,
	_ *bun.CreateTableQuery,
) error {
	return nil
}

// TransactionSchema is a single payment. CreatedAt is when the row was
// recorded; Timestamp is when the payment happened.
type TransactionSchema struct {
	bun.BaseModel `bun:"table:transaction,alias:t"`

	UUID       uuid.UUID     `bun:",pk,type:uuid,default:gen_random_uuid()"`
	ID         int64         `bun:",autoincrement"`
	CreatedAt  time.Time     `bun:"type:timestamptz,nullzero,notnull,default:current_timestamp"`
	UpdatedAt  time.Time     `bun:"type:timestamptz,nullzero,notnull,default:current_timestamp"`
	Timestamp  time.Time     `bun:"type:timestamptz,notnull"`
	CardUUID   uuid.UUID     `bun:"type:uuid,notnull"`
	ClientUUID uuid.UUID     `bun:"type:uuid,notnull"`
	AmountRub  float64       `bun:"type:numeric(12,2),notnull,default:0"`
	AmountUsd  float64       `bun:"type:numeric(12,2),notnull,default:0"`
	Rate       *float64      `bun:"type:numeric(12,6),nullzero"`
	Notes      string        `bun:",nullzero"`
	Card       *CardSchema   `bun:"rel:belongs-to,join:card_uuid=uuid"`
	Client     *ClientSchema `bun:"rel:belongs-to,join:client_uuid=uuid"`
}

var _ bun.BeforeAppendModelHook = (*TransactionSchema)(nil)

// BeforeAppendModel recalculates the exchange rate whenever the row is
// written, so the stored rate always matches the stored amounts.
func (s *TransactionSchema) BeforeAppendModel(_ context.Context, query bun.Query) error {
	if _, ok := query.(*bun.UpdateQuery); ok {
		s.UpdatedAt = time.Now()
	}
	s.Rate = computeRate(s.AmountRub, s.AmountUsd)
	return nil
}

func (s *TransactionSchema) BeforeCreateTable(
	_ context.Context,
	_ *bun.CreateTableQuery,
) error {
	return nil
}

// computeRate returns rub/usd, or nil when either amount is missing.
func computeRate(amountRub float64, amountUsd float64) *float64 {
	if amountRub == 0 || amountUsd == 0 {
		return nil
	}
	rate := amountRub / amountUsd
	return &rate
}

// WithdrawalSchema is one row per (date, card) recording what the ATM runner
// withdrew.
type WithdrawalSchema struct {
	bun.BaseModel `bun:"table:withdrawal,alias:w"`

	UUID      uuid.UUID `bun:",pk,type:uuid,default:gen_random_uuid()"`
	ID        int64     `bun:",autoincrement"`
	CreatedAt time.Time `bun:"type:timestamptz,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"type:timestamptz,nullzero,notnull,default:current_timestamp"`
	Date      time.Time `bun:"type:date,notnull,unique:withdrawal_day"`
	CardUUID  uuid.UUID `bun:"type:uuid,notnull,unique:withdrawal_day"`
	// Timestamp must be pointer type in order to be nullable; older rows are
	// backfilled to midnight of Date by migration.
	Timestamp      *time.Time  `bun:"type:timestamptz,nullzero"`
	FullyWithdrawn bool        `bun:"type:bool,notnull,default:false"`
	WithdrawnRub   *float64    `bun:"type:numeric(12,2),nullzero"`
	CommissionRub  float64     `bun:"type:numeric(12,2),notnull,default:0"`
	Note           string      `bun:",nullzero"`
	Card           *CardSchema `bun:"rel:belongs-to,join:card_uuid=uuid"`
}

var _ bun.BeforeAppendModelHook = (*WithdrawalSchema)(nil)

func (s *WithdrawalSchema) BeforeAppendModel(_ context.Context, query bun.Query) error {
	if _, ok := query.(*bun.UpdateQuery); ok {
		s.UpdatedAt = time.Now()
	}
	return nil
}

func (s *WithdrawalSchema) BeforeCreateTable(
	_ context.Context,
	_ *bun.CreateTableQuery,
) error {
	return nil
}

// SuperuserSchema is the administrative account for the admin site.
type SuperuserSchema struct {
	bun.BaseModel `bun:"table:superuser,alias:su"`

	UUID         uuid.UUID `bun:",pk,type:uuid,default:gen_random_uuid()"`
	ID           int64     `bun:",autoincrement"`
	CreatedAt    time.Time `bun:"type:timestamptz,nullzero,notnull,default:current_timestamp"`
	UpdatedAt    time.Time `bun:"type:timestamptz,nullzero,notnull,default:current_timestamp"`
	Username     string    `bun:",unique,notnull"`
	Email        string    `bun:",nullzero"`
	PasswordHash string    `bun:",notnull"`
	IsActive     bool      `bun:"type:bool,notnull,default:true"`
}

var _ bun.BeforeAppendModelHook = (*SuperuserSchema)(nil)

func (s *SuperuserSchema) BeforeAppendModel(_ context.Context, query bun.Query) error {
	if _, ok := query.(*bun.UpdateQuery); ok {
		s.UpdatedAt = time.Now()
	}
	return nil
}

func (s *SuperuserSchema) BeforeCreateTable(
	_ context.Context,
	_ *bun.CreateTableQuery,
) error {
	return nil
}

// tableList is the list of tables to create. Ordered for correct table
// creation to avoid foreign key constraint errors.
var tableList = []bun.BeforeCreateTableHook{
	&CardGroupSchema{},
	&BankColorSchema{},
	&CardSchema{},
	&ClientSchema{},
	&TransactionSchema{},
	&WithdrawalSchema{},
	&SuperuserSchema{},
}

// CreateSchema creates the db schema if it does not exist and applies any
// pending migrations.
func CreateSchema(
	ctx context.Context,
	db *bun.DB,
) error {
	for _, schema := range tableList {
		_, err := db.NewCreateTable().
			Model(schema).
			IfNotExists().
			WithForeignKeys().
			Exec(ctx)
		if err != nil {
			// bun still trying to create indexes despite IfNotExists flag
			if strings.Contains(err.Error(), "already exists") {
				continue
			}
			return fmt.Errorf("error creating table for schema %T: %w", schema, err)
		}
	}

	// apply migrations
	if err := migrations.Migrate(ctx, db); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	return nil
}
