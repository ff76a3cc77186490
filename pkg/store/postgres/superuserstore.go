package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
	"golang.org/x/crypto/bcrypt"

	"github.com/cardledger/cardledger/pkg/models"
)

var _ models.SuperuserStore = &SuperuserStoreDAO{}

type SuperuserStoreDAO struct {
	db *bun.DB
}

func NewSuperuserStoreDAO(db *bun.DB) *SuperuserStoreDAO {
	return &SuperuserStoreDAO{
		db: db,
	}
}

// Create creates a new superuser. The password is bcrypt hashed before
// storage. A duplicate username maps to a BadRequestError so the deploy
// pipeline can treat "already exists" as a suppressed failure.
func (dao *SuperuserStoreDAO) Create(
	ctx context.Context,
	request *models.CreateSuperuserRequest,
) (*models.Superuser, error) {
	if request.Username == "" {
		return nil, models.NewBadRequestError("username cannot be empty")
	}
	if request.Password == "" {
		return nil, models.NewBadRequestError("password cannot be empty")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(request.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	superuserDB := &SuperuserSchema{
		Username:     request.Username,
		Email:        request.Email,
		PasswordHash: string(hash),
		IsActive:     true,
	}
	_, err = dao.db.NewInsert().Model(superuserDB).Returning("*").Exec(ctx)
	if err != nil {
		if err, ok := err.(pgdriver.Error); ok && err.IntegrityViolation() {
			return nil, models.NewBadRequestError(
				"superuser already exists with username: " + request.Username,
			)
		}
		return nil, err
	}

	return superuserSchemaToSuperuser(superuserDB), nil
}

// Get gets a superuser by username.
func (dao *SuperuserStoreDAO) Get(
	ctx context.Context,
	username string,
) (*models.Superuser, error) {
	superuserDB, err := dao.get(ctx, username)
	if err != nil {
		return nil, err
	}
	return superuserSchemaToSuperuser(superuserDB), nil
}

// Authenticate verifies the password for an active superuser.
func (dao *SuperuserStoreDAO) Authenticate(
	ctx context.Context,
	username string,
	password string,
) (*models.Superuser, error) {
	superuserDB, err := dao.get(ctx, username)
	if err != nil {
		return nil, err
	}

	if !superuserDB.IsActive {
		return nil, models.NewUnauthorizedError("superuser " + username + " is not active")
	}

	err = bcrypt.CompareHashAndPassword(
		[]byte(superuserDB.PasswordHash),
		[]byte(password),
	)
	if err != nil {
		return nil, models.NewUnauthorizedError("invalid credentials for " + username)
	}

	return superuserSchemaToSuperuser(superuserDB), nil
}

func (dao *SuperuserStoreDAO) get(
	ctx context.Context,
	username string,
) (*SuperuserSchema, error) {
	superuser := new(SuperuserSchema)
	err := dao.db.NewSelect().
		Model(superuser).
		Where("username = ?", username).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.NewNotFoundError("superuser " + username)
		}
		return nil, err
	}
	return superuser, nil
}

func superuserSchemaToSuperuser(s *SuperuserSchema) *models.Superuser {
	return &models.Superuser{
		UUID:      s.UUID,
		ID:        s.ID,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
		Username:  s.Username,
		Email:     s.Email,
		IsActive:  s.IsActive,
	}
}
