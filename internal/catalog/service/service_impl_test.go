package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	catalogdomain "github.com/scanbase/scanbase/internal/catalog/domain"
	"github.com/scanbase/scanbase/internal/identifier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (catalogdomain.Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:catalogsvc?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&catalogdomain.Entry{}))
	t.Cleanup(func() {
		db.Exec("DELETE FROM catalog_entries")
	})

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := NewService(ServiceParam{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
	})
	return svc, db
}

func strptr(s string) *string { return &s }

func TestSaveAndLookup(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	saved, err := svc.Save(ctx, &catalogdomain.Entry{
		FNSKU:    strptr("X001ABC123"),
		ASIN:     strptr("B08N5WRWNW"),
		Title:    "Anker PowerCore 10000 Portable Charger",
		Price:    24.99,
		ImageURL: "https://img.example.com/p.jpg",
		Source:   "scantask",
	})
	require.NoError(t, err)
	require.NotZero(t, saved.ID)

	entry, err := svc.Lookup(ctx, "X001ABC123", identifier.TypeFNSKU)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, saved.ID, entry.ID)
	assert.Equal(t, int64(2), entry.LookupCount)

	// The same product is reachable through its ASIN.
	entry, err = svc.Lookup(ctx, "B08N5WRWNW", identifier.TypeASIN)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, saved.ID, entry.ID)
	assert.Equal(t, int64(3), entry.LookupCount)
}

func TestSaveCountsTheResolvingLookup(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	saved, err := svc.Save(ctx, &catalogdomain.Entry{
		FNSKU: strptr("X001ABC123"),
		Title: "Anker PowerCore 10000 Portable Charger",
		Price: 24.99,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), saved.LookupCount)

	var stored catalogdomain.Entry
	require.NoError(t, db.WithContext(ctx).First(&stored, "id = ?", saved.ID).Error)
	assert.Equal(t, int64(1), stored.LookupCount)
}

func TestLookupMiss(t *testing.T) {
	svc, _ := newTestService(t)

	entry, err := svc.Lookup(context.Background(), "036000291452", identifier.TypeUPC)
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestLookupNormalizesCode(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Save(ctx, &catalogdomain.Entry{
		FNSKU: strptr("X001ABC123"),
		Title: "Anker PowerCore 10000 Portable Charger",
		Price: 24.99,
	})
	require.NoError(t, err)

	entry, err := svc.Lookup(ctx, "  x001abc123 ", identifier.TypeFNSKU)
	require.NoError(t, err)
	require.NotNil(t, entry)
}

func TestSaveMergesIntoExisting(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.Save(ctx, &catalogdomain.Entry{
		FNSKU: strptr("X001ABC123"),
		Title: "FNSKU: X001ABC123",
	})
	require.NoError(t, err)

	second, err := svc.Save(ctx, &catalogdomain.Entry{
		FNSKU:    strptr("X001ABC123"),
		ASIN:     strptr("B08N5WRWNW"),
		Title:    "Anker PowerCore 10000 Portable Charger",
		Price:    24.99,
		ImageURL: "https://img.example.com/p.jpg",
	})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	require.NotNil(t, second.ASIN)
	assert.Equal(t, "B08N5WRWNW", *second.ASIN)
	assert.Equal(t, "Anker PowerCore 10000 Portable Charger", second.Title)
	assert.Equal(t, 24.99, second.Price)
}

func TestSaveNeverErasesWithBlanks(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Save(ctx, &catalogdomain.Entry{
		FNSKU:    strptr("X001ABC123"),
		Title:    "Anker PowerCore 10000 Portable Charger",
		Price:    24.99,
		ImageURL: "https://img.example.com/p.jpg",
	})
	require.NoError(t, err)

	merged, err := svc.Save(ctx, &catalogdomain.Entry{
		FNSKU: strptr("X001ABC123"),
		Title: "",
		Price: 0,
	})
	require.NoError(t, err)

	assert.Equal(t, "Anker PowerCore 10000 Portable Charger", merged.Title)
	assert.Equal(t, 24.99, merged.Price)
	assert.Equal(t, "https://img.example.com/p.jpg", merged.ImageURL)
}
