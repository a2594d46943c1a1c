package db_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okaokay/gestionale-energia/internal/db/dbtest"
	"github.com/okaokay/gestionale-energia/internal/models"
)

func TestMigrate_CreatesTables(t *testing.T) {
	gdb := dbtest.New(t)

	for _, table := range []string{"clienti_privati", "clienti_aziende", "contratti_luce", "contratti_gas", "import_logs", "audit_logs"} {
		assert.True(t, gdb.Migrator().HasTable(table), table)
	}
}

func TestContract_BothLinksRejectedByHook(t *testing.T) {
	gdb := dbtest.New(t)

	p := models.PrivateClient{Nome: "Mario", Cognome: "Rossi", CodiceFiscale: "RSSMRA80A01H501U"}
	b := models.BusinessClient{RagioneSociale: "Acme Srl", PartitaIVA: "01234567897"}
	require.NoError(t, gdb.Create(&p).Error)
	require.NoError(t, gdb.Create(&b).Error)

	c := models.ElectricityContract{POD: "IT001E12345678", ClientePrivatoID: &p.ID, ClienteAziendaID: &b.ID}
	err := gdb.Create(&c).Error
	assert.ErrorIs(t, err, models.ErrBothClientLinks)

	g := models.GasContract{PDR: "12345678901234", ClientePrivatoID: &p.ID, ClienteAziendaID: &b.ID}
	assert.ErrorIs(t, gdb.Create(&g).Error, models.ErrBothClientLinks)
}

func TestContract_BothLinksRejectedByCheck(t *testing.T) {
	gdb := dbtest.New(t)

	p := models.PrivateClient{Nome: "Mario", Cognome: "Rossi", CodiceFiscale: "RSSMRA80A01H501U"}
	b := models.BusinessClient{RagioneSociale: "Acme Srl", PartitaIVA: "01234567897"}
	require.NoError(t, gdb.Create(&p).Error)
	require.NoError(t, gdb.Create(&b).Error)

	err := gdb.Exec(
		"INSERT INTO contratti_gas (pdr, cliente_privato_id, cliente_azienda_id) VALUES (?, ?, ?)",
		"12345678901234", p.ID, b.ID,
	).Error
	assert.Error(t, err)
}

func TestContract_ForeignKeyEnforced(t *testing.T) {
	gdb := dbtest.New(t)

	missing := uint(999)
	err := gdb.Create(&models.GasContract{PDR: "12345678901234", ClientePrivatoID: &missing}).Error
	assert.Error(t, err)
}

func TestContract_SingleLinkAccepted(t *testing.T) {
	gdb := dbtest.New(t)

	b := models.BusinessClient{RagioneSociale: "Acme Srl", PartitaIVA: "01234567897"}
	require.NoError(t, gdb.Create(&b).Error)

	c := models.ElectricityContract{POD: "IT001E12345678"}
	c.SetLink(models.BusinessLink(b.ID))
	require.NoError(t, gdb.Create(&c).Error)

	var got models.ElectricityContract
	require.NoError(t, gdb.First(&got, c.ID).Error)
	assert.Nil(t, got.ClientePrivatoID)
	require.NotNil(t, got.ClienteAziendaID)
	assert.Equal(t, b.ID, *got.ClienteAziendaID)
	assert.True(t, got.Link().Linked())
}

func TestBusinessClient_CFDefaultsOnCreateOnly(t *testing.T) {
	gdb := dbtest.New(t)

	b := &models.BusinessClient{RagioneSociale: "Energia Futura", PartitaIVA: "01234567897"}
	require.NoError(t, gdb.Create(b).Error)
	assert.Equal(t, "01234567897", b.CodiceFiscale)

	b.CodiceFiscale = "98765432103"
	require.NoError(t, gdb.Save(b).Error)

	var stored models.BusinessClient
	require.NoError(t, gdb.First(&stored, b.ID).Error)
	assert.Equal(t, "98765432103", stored.CodiceFiscale)
}
