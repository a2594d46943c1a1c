package importer

import (
	"context"
	"errors"

	"github.com/okaokay/gestionale-energia/internal/models"
)

var ErrNotFound = errors.New("record not found")

type Repository interface {
	// -------- Transactions --------

	// Transaction runs fn with a repository bound to one transaction.
	// Called on a transaction-bound repository it nests as a savepoint.
	Transaction(
		ctx context.Context,
		fn func(tx Repository) error,
	) error

	// Savepoint runs fn inside a named savepoint of the current transaction.
	// When fn fails only its writes are rolled back.
	Savepoint(
		ctx context.Context,
		name string,
		fn func() error,
	) error

	// -------- Clients --------
	ListPrivateClients(ctx context.Context) ([]models.PrivateClient, error)
	ListBusinessClients(ctx context.Context) ([]models.BusinessClient, error)

	FindPrivateByCF(
		ctx context.Context,
		codiceFiscale string,
	) (*models.PrivateClient, error)

	FindBusinessByPIVA(
		ctx context.Context,
		partitaIVA string,
	) (*models.BusinessClient, error)

	SavePrivate(ctx context.Context, c *models.PrivateClient) error
	SaveBusiness(ctx context.Context, c *models.BusinessClient) error

	// -------- Contracts --------
	FindElectricityByPOD(
		ctx context.Context,
		pod string,
	) (*models.ElectricityContract, error)

	FindGasByPDR(
		ctx context.Context,
		pdr string,
	) (*models.GasContract, error)

	SaveElectricity(ctx context.Context, c *models.ElectricityContract) error
	SaveGas(ctx context.Context, c *models.GasContract) error

	// -------- Import log --------
	CreateImportLog(ctx context.Context, log *models.ImportLog) error
}
