package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zatekoja/healthatlas/internal/domain/entities"
	"github.com/zatekoja/healthatlas/internal/domain/repositories"
	apperrors "github.com/zatekoja/healthatlas/pkg/errors"
)

// ProvinceStore is an in-process ProvinceRepository
type ProvinceStore struct {
	mu        sync.RWMutex
	provinces map[string]entities.Province
}

// NewProvinceStore creates an empty province store
func NewProvinceStore() *ProvinceStore {
	return &ProvinceStore{provinces: make(map[string]entities.Province)}
}

var _ repositories.ProvinceRepository = (*ProvinceStore)(nil)

func (s *ProvinceStore) Create(ctx context.Context, province *entities.Province) error {
	if province.ID == "" {
		province.ID = uuid.NewString()
	}
	if province.CreatedAt.IsZero() {
		province.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.provinces[province.ID]; exists {
		return apperrors.NewConflictError("province with id " + province.ID + " already exists")
	}
	s.provinces[province.ID] = *province
	return nil
}

func (s *ProvinceStore) GetByID(ctx context.Context, id string) (*entities.Province, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	province, ok := s.provinces[id]
	if !ok {
		return nil, nil
	}
	return &province, nil
}

func (s *ProvinceStore) List(ctx context.Context) ([]*entities.Province, error) {
	s.mu.RLock()
	provinces := make([]*entities.Province, 0, len(s.provinces))
	for _, p := range s.provinces {
		p := p
		provinces = append(provinces, &p)
	}
	s.mu.RUnlock()

	sort.Slice(provinces, func(i, j int) bool {
		return provinces[i].Name < provinces[j].Name
	})
	return provinces, nil
}

func (s *ProvinceStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.provinces[id]; !ok {
		return apperrors.NewNotFoundError("province with id " + id + " not found")
	}
	delete(s.provinces, id)
	return nil
}
