package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/google/uuid"
	"github.com/zatekoja/healthatlas/internal/domain/entities"
	"github.com/zatekoja/healthatlas/internal/domain/repositories"
	"github.com/zatekoja/healthatlas/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/healthatlas/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/healthatlas/pkg/errors"
)

// EntityAdapter implements EntityRepository for one directory table
type EntityAdapter[T entities.DirectoryEntry] struct {
	client  *postgres.Client
	db      *goqu.Database
	table   entityTable[T]
	allowed columnSet
	metrics *observability.Metrics
}

// NewFacilityAdapter creates a new facility adapter
func NewFacilityAdapter(client *postgres.Client, metrics *observability.Metrics) repositories.FacilityRepository {
	return newEntityAdapter(client, metrics, facilityTable)
}

// NewPharmacyAdapter creates a new pharmacy adapter
func NewPharmacyAdapter(client *postgres.Client, metrics *observability.Metrics) repositories.PharmacyRepository {
	return newEntityAdapter(client, metrics, pharmacyTable)
}

// NewOutbreakAdapter creates a new outbreak zone adapter
func NewOutbreakAdapter(client *postgres.Client, metrics *observability.Metrics) repositories.OutbreakRepository {
	return newEntityAdapter(client, metrics, outbreakTable)
}

func newEntityAdapter[T entities.DirectoryEntry](client *postgres.Client, metrics *observability.Metrics, table entityTable[T]) *EntityAdapter[T] {
	return &EntityAdapter[T]{
		client:  client,
		db:      goqu.New("postgres", client.DB()),
		table:   table,
		allowed: newColumnSet(table.columns...),
		metrics: metrics,
	}
}

// Create inserts a new row, generating the id when empty
func (a *EntityAdapter[T]) Create(ctx context.Context, entity T) error {
	if entity.GetID() == "" {
		entity.SetID(uuid.NewString())
	}

	query, _, err := a.db.Insert(a.table.name).Rows(a.table.record(entity)).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	defer a.observe(ctx, "insert", time.Now())
	if _, err := a.client.DB().ExecContext(ctx, query); err != nil {
		return apperrors.NewInternalError(fmt.Sprintf("failed to create %s", a.table.kind), err)
	}

	return nil
}

// GetByID retrieves a row by id, returning the zero value when absent
func (a *EntityAdapter[T]) GetByID(ctx context.Context, id string) (T, error) {
	var zero T

	query, _, err := a.selectColumns().Where(goqu.Ex{"id": id}).ToSQL()
	if err != nil {
		return zero, apperrors.NewInternalError("failed to build query", err)
	}

	defer a.observe(ctx, "select", time.Now())
	entity, err := a.scan(a.client.DB().QueryRowContext(ctx, query))
	if errors.Is(err, sql.ErrNoRows) {
		return zero, nil
	}
	if err != nil {
		return zero, apperrors.NewInternalError(fmt.Sprintf("failed to get %s", a.table.kind), err)
	}

	return entity, nil
}

// List retrieves the rows matching the query predicate
func (a *EntityAdapter[T]) List(ctx context.Context, q repositories.ListQuery) ([]T, error) {
	where, err := whereClauses(q.Predicate, a.allowed)
	if err != nil {
		return nil, err
	}

	ds := a.selectColumns().Where(where...)
	if q.OrderBy != "" {
		order, err := orderExpression(q.OrderBy, q.Order, a.allowed)
		if err != nil {
			return nil, err
		}
		// id keeps pages disjoint when the sort column has duplicates
		ds = ds.Order(order, goqu.I("id").Asc())
	}
	if q.Limit > 0 {
		ds = ds.Limit(uint(q.Limit))
	}
	if q.Offset > 0 {
		ds = ds.Offset(uint(q.Offset))
	}

	query, _, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	defer a.observe(ctx, "select", time.Now())
	rows, err := a.client.DB().QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Sprintf("failed to list %s", a.table.name), err)
	}
	defer rows.Close()

	items := make([]T, 0)
	for rows.Next() {
		entity, err := a.scan(rows)
		if err != nil {
			return nil, apperrors.NewInternalError(fmt.Sprintf("failed to scan %s", a.table.kind), err)
		}
		items = append(items, entity)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError(fmt.Sprintf("failed to list %s", a.table.name), err)
	}

	return items, nil
}

// Update overwrites every mutable column of the row
func (a *EntityAdapter[T]) Update(ctx context.Context, entity T) error {
	record := a.table.record(entity)
	delete(record, "id")
	delete(record, "created_at")

	query, _, err := a.db.Update(a.table.name).
		Set(record).
		Where(goqu.Ex{"id": entity.GetID()}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	defer a.observe(ctx, "update", time.Now())
	result, err := a.client.DB().ExecContext(ctx, query)
	if err != nil {
		return apperrors.NewInternalError(fmt.Sprintf("failed to update %s", a.table.kind), err)
	}

	return expectAffected(result, fmt.Sprintf("%s with id %s not found", a.table.kind, entity.GetID()))
}

// Delete removes a row by id
func (a *EntityAdapter[T]) Delete(ctx context.Context, id string) error {
	query, _, err := a.db.Delete(a.table.name).Where(goqu.Ex{"id": id}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}

	defer a.observe(ctx, "delete", time.Now())
	result, err := a.client.DB().ExecContext(ctx, query)
	if err != nil {
		return apperrors.NewInternalError(fmt.Sprintf("failed to delete %s", a.table.kind), err)
	}

	return expectAffected(result, fmt.Sprintf("%s with id %s not found", a.table.kind, id))
}

func (a *EntityAdapter[T]) selectColumns() *goqu.SelectDataset {
	columns := make([]any, len(a.table.columns))
	for i, c := range a.table.columns {
		columns[i] = c
	}
	return a.db.From(a.table.name).Select(columns...)
}

func (a *EntityAdapter[T]) scan(row rowScanner) (T, error) {
	entity := a.table.newItem()
	var nulls recordNulls
	if err := row.Scan(a.table.targets(entity, &nulls)...); err != nil {
		var zero T
		return zero, err
	}
	a.table.apply(entity, &nulls)
	return entity, nil
}

func (a *EntityAdapter[T]) observe(ctx context.Context, operation string, start time.Time) {
	recordQuery(ctx, a.metrics, a.table.name+"."+operation, start)
}

func recordQuery(ctx context.Context, metrics *observability.Metrics, operation string, start time.Time) {
	if metrics == nil {
		return
	}
	observability.RecordDBMetric(ctx, metrics, operation, time.Since(start))
}

func expectAffected(result sql.Result, notFound string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if n == 0 {
		return apperrors.NewNotFoundError(notFound)
	}
	return nil
}
