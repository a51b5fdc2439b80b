package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/zatekoja/healthatlas/internal/domain/entities"
	"github.com/zatekoja/healthatlas/internal/domain/repositories"
	apperrors "github.com/zatekoja/healthatlas/pkg/errors"
)

// ProvinceService handles business logic for provinces
type ProvinceService struct {
	repo repositories.ProvinceRepository
}

// NewProvinceService creates a new province service
func NewProvinceService(repo repositories.ProvinceRepository) *ProvinceService {
	return &ProvinceService{repo: repo}
}

// Create creates a new province
func (s *ProvinceService) Create(ctx context.Context, province *entities.Province) error {
	province.Name = strings.TrimSpace(province.Name)
	province.Code = strings.ToUpper(strings.TrimSpace(province.Code))
	if province.Name == "" || province.Code == "" {
		return apperrors.NewValidationError("name and code are required")
	}
	return s.repo.Create(ctx, province)
}

// GetByID retrieves a province by ID
func (s *ProvinceService) GetByID(ctx context.Context, id string) (*entities.Province, error) {
	province, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if province == nil {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("province with id %s not found", id))
	}
	return province, nil
}

// List retrieves all provinces
func (s *ProvinceService) List(ctx context.Context) ([]*entities.Province, error) {
	return s.repo.List(ctx)
}

// Delete deletes a province
func (s *ProvinceService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
