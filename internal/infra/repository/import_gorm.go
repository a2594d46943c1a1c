package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	domain "github.com/okaokay/gestionale-energia/internal/domain/importer"
	"github.com/okaokay/gestionale-energia/internal/models"
)

type ImportGormRepository struct {
	db *gorm.DB
}

func NewImportGormRepository(db *gorm.DB) *ImportGormRepository {
	return &ImportGormRepository{db: db}
}

var _ domain.Repository = (*ImportGormRepository)(nil)

// --------------------------------------------------
// Transactions
// --------------------------------------------------

func (r *ImportGormRepository) Transaction(
	ctx context.Context,
	fn func(tx domain.Repository) error,
) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&ImportGormRepository{db: tx})
	})
}

func (r *ImportGormRepository) Savepoint(
	ctx context.Context,
	name string,
	fn func() error,
) error {

	db := r.db.WithContext(ctx)
	if err := db.SavePoint(name).Error; err != nil {
		return fmt.Errorf("savepoint %s: %w", name, err)
	}

	if err := fn(); err != nil {
		if rbErr := db.RollbackTo(name).Error; rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback to %s: %w", name, rbErr))
		}
		return err
	}

	return db.Exec("RELEASE SAVEPOINT " + name).Error
}

// --------------------------------------------------
// Clients
// --------------------------------------------------

func (r *ImportGormRepository) ListPrivateClients(ctx context.Context) ([]models.PrivateClient, error) {
	var out []models.PrivateClient
	err := r.db.WithContext(ctx).
		Select("id", "nome", "cognome", "codice_fiscale", "email").
		Order("id").
		Find(&out).Error
	return out, err
}

func (r *ImportGormRepository) ListBusinessClients(ctx context.Context) ([]models.BusinessClient, error) {
	var out []models.BusinessClient
	err := r.db.WithContext(ctx).
		Select("id", "ragione_sociale", "partita_iva", "codice_fiscale", "email").
		Order("id").
		Find(&out).Error
	return out, err
}

func (r *ImportGormRepository) FindPrivateByCF(
	ctx context.Context,
	codiceFiscale string,
) (*models.PrivateClient, error) {

	var c models.PrivateClient
	if err := r.db.WithContext(ctx).
		Where("codice_fiscale = ?", codiceFiscale).
		First(&c).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (r *ImportGormRepository) FindBusinessByPIVA(
	ctx context.Context,
	partitaIVA string,
) (*models.BusinessClient, error) {

	var c models.BusinessClient
	if err := r.db.WithContext(ctx).
		Where("partita_iva = ?", partitaIVA).
		First(&c).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (r *ImportGormRepository) SavePrivate(ctx context.Context, c *models.PrivateClient) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *ImportGormRepository) SaveBusiness(ctx context.Context, c *models.BusinessClient) error {
	return r.db.WithContext(ctx).Save(c).Error
}

// --------------------------------------------------
// Contracts
// --------------------------------------------------

func (r *ImportGormRepository) FindElectricityByPOD(
	ctx context.Context,
	pod string,
) (*models.ElectricityContract, error) {

	var c models.ElectricityContract
	if err := r.db.WithContext(ctx).
		Where("pod = ?", pod).
		First(&c).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (r *ImportGormRepository) FindGasByPDR(
	ctx context.Context,
	pdr string,
) (*models.GasContract, error) {

	var c models.GasContract
	if err := r.db.WithContext(ctx).
		Where("pdr = ?", pdr).
		First(&c).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (r *ImportGormRepository) SaveElectricity(ctx context.Context, c *models.ElectricityContract) error {
	return r.db.WithContext(ctx).Omit("ClientePrivato", "ClienteAzienda").Save(c).Error
}

func (r *ImportGormRepository) SaveGas(ctx context.Context, c *models.GasContract) error {
	return r.db.WithContext(ctx).Omit("ClientePrivato", "ClienteAzienda").Save(c).Error
}

// --------------------------------------------------
// Import log
// --------------------------------------------------

func (r *ImportGormRepository) CreateImportLog(ctx context.Context, log *models.ImportLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	return err
}
