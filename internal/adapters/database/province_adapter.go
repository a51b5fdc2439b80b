package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/zatekoja/healthatlas/internal/domain/entities"
	"github.com/zatekoja/healthatlas/internal/domain/repositories"
	"github.com/zatekoja/healthatlas/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/healthatlas/pkg/errors"
)

// ProvinceAdapter implements ProvinceRepository
type ProvinceAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewProvinceAdapter creates a new province adapter
func NewProvinceAdapter(client *postgres.Client) repositories.ProvinceRepository {
	return &ProvinceAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a new province
func (a *ProvinceAdapter) Create(ctx context.Context, province *entities.Province) error {
	if province.ID == "" {
		province.ID = uuid.NewString()
	}
	if province.CreatedAt.IsZero() {
		province.CreatedAt = time.Now().UTC()
	}

	query, _, err := a.db.Insert("provinces").Rows(goqu.Record{
		"id":         province.ID,
		"name":       province.Name,
		"code":       province.Code,
		"created_at": province.CreatedAt,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query); err != nil {
		return apperrors.NewInternalError("failed to create province", err)
	}
	return nil
}

// GetByID retrieves a province by ID
func (a *ProvinceAdapter) GetByID(ctx context.Context, id string) (*entities.Province, error) {
	query, _, err := a.db.From("provinces").
		Select("id", "name", "code", "created_at").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	province := &entities.Province{}
	err = a.client.DB().QueryRowContext(ctx, query).
		Scan(&province.ID, &province.Name, &province.Code, &province.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get province", err)
	}

	return province, nil
}

// List retrieves all provinces ordered by name
func (a *ProvinceAdapter) List(ctx context.Context) ([]*entities.Province, error) {
	query, _, err := a.db.From("provinces").
		Select("id", "name", "code", "created_at").
		Order(goqu.I("name").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list provinces", err)
	}
	defer rows.Close()

	provinces := make([]*entities.Province, 0)
	for rows.Next() {
		province := &entities.Province{}
		if err := rows.Scan(&province.ID, &province.Name, &province.Code, &province.CreatedAt); err != nil {
			return nil, apperrors.NewInternalError("failed to scan province", err)
		}
		provinces = append(provinces, province)
	}

	return provinces, rows.Err()
}

// Delete deletes a province
func (a *ProvinceAdapter) Delete(ctx context.Context, id string) error {
	query, _, err := a.db.Delete("provinces").Where(goqu.Ex{"id": id}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query)
	if err != nil {
		return apperrors.NewInternalError("failed to delete province", err)
	}

	return expectAffected(result, "province with id "+id+" not found")
}
