package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/scanbase/scanbase/internal/catalog/domain"
	"github.com/scanbase/scanbase/internal/clock"
	"github.com/scanbase/scanbase/internal/identifier"
	ledgerdomain "github.com/scanbase/scanbase/internal/ledger/domain"
	manifestdomain "github.com/scanbase/scanbase/internal/manifest/domain"
	"github.com/scanbase/scanbase/internal/providers/productdata"
	"github.com/scanbase/scanbase/internal/providers/scantask"
	"github.com/scanbase/scanbase/internal/providers/upcdb"
	quotadomain "github.com/scanbase/scanbase/internal/quota/domain"
	scandomain "github.com/scanbase/scanbase/internal/scan/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// -- Mocks --

type quotaMock struct {
	mock.Mock
}

func (m *quotaMock) Authorize(ctx context.Context, userID, tenantID snowflake.ID) (quotadomain.Decision, error) {
	args := m.Called(ctx, userID, tenantID)
	return args.Get(0).(quotadomain.Decision), args.Error(1)
}

type manifestMock struct {
	mock.Mock
}

func (m *manifestMock) FindByIdentifier(ctx context.Context, tenantID snowflake.ID, code string) (*manifestdomain.Item, error) {
	args := m.Called(ctx, tenantID, code)
	res := args.Get(0)
	if res == nil {
		return nil, args.Error(1)
	}
	return res.(*manifestdomain.Item), args.Error(1)
}

func (m *manifestMock) List(ctx context.Context, req manifestdomain.ListRequest) (manifestdomain.ListResponse, error) {
	return manifestdomain.ListResponse{}, nil
}

func (m *manifestMock) Import(ctx context.Context, req manifestdomain.ImportRequest) (int, error) {
	return 0, nil
}

type catalogMock struct {
	mock.Mock
}

func (m *catalogMock) Lookup(ctx context.Context, code string, codeType identifier.CodeType) (*catalogdomain.Entry, error) {
	args := m.Called(ctx, code, codeType)
	res := args.Get(0)
	if res == nil {
		return nil, args.Error(1)
	}
	return res.(*catalogdomain.Entry), args.Error(1)
}

func (m *catalogMock) Save(ctx context.Context, entry *catalogdomain.Entry) (*catalogdomain.Entry, error) {
	args := m.Called(ctx, entry)
	res := args.Get(0)
	if res == nil {
		return nil, args.Error(1)
	}
	return res.(*catalogdomain.Entry), args.Error(1)
}

type ledgerMock struct {
	mock.Mock
}

func (m *ledgerMock) Append(ctx context.Context, record *ledgerdomain.ScanRecord) (bool, error) {
	args := m.Called(ctx, record)
	return args.Bool(0), args.Error(1)
}

func (m *ledgerMock) CountSince(ctx context.Context, tenantID snowflake.ID, since time.Time) (int64, error) {
	return 0, nil
}

func (m *ledgerMock) Recent(ctx context.Context, req ledgerdomain.RecentRequest) (ledgerdomain.RecentResponse, error) {
	return ledgerdomain.RecentResponse{}, nil
}

type scanTaskMock struct {
	mock.Mock
}

func (m *scanTaskMock) Resolve(ctx context.Context, barcode string) (*scantask.Resolution, error) {
	args := m.Called(ctx, barcode)
	res := args.Get(0)
	if res == nil {
		return nil, args.Error(1)
	}
	return res.(*scantask.Resolution), args.Error(1)
}

type enricherMock struct {
	mock.Mock
}

func (m *enricherMock) Enrich(ctx context.Context, asin string) (*productdata.Detail, error) {
	args := m.Called(ctx, asin)
	res := args.Get(0)
	if res == nil {
		return nil, args.Error(1)
	}
	return res.(*productdata.Detail), args.Error(1)
}

type upcMock struct {
	mock.Mock
}

func (m *upcMock) Lookup(ctx context.Context, upc string) (*upcdb.Draft, error) {
	args := m.Called(ctx, upc)
	res := args.Get(0)
	if res == nil {
		return nil, args.Error(1)
	}
	return res.(*upcdb.Draft), args.Error(1)
}

// -- Fixture --

type fixture struct {
	svc      scandomain.Service
	quota    *quotaMock
	manifest *manifestMock
	catalog  *catalogMock
	ledger   *ledgerMock
	scanTask *scanTaskMock
	enricher *enricherMock
	upc      *upcMock
	clock    *clock.FakeClock

	userID   snowflake.ID
	tenantID snowflake.ID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	node, err := snowflake.NewNode(8)
	require.NoError(t, err)

	f := &fixture{
		quota:    &quotaMock{},
		manifest: &manifestMock{},
		catalog:  &catalogMock{},
		ledger:   &ledgerMock{},
		scanTask: &scanTaskMock{},
		enricher: &enricherMock{},
		upc:      &upcMock{},
		clock:    clock.NewFakeClock(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)),
		userID:   node.Generate(),
		tenantID: node.Generate(),
	}
	f.svc = NewService(ServiceParam{
		Log:         zap.NewNop(),
		Clock:       f.clock,
		QuotaSvc:    f.quota,
		ManifestSvc: f.manifest,
		CatalogSvc:  f.catalog,
		LedgerSvc:   f.ledger,
		ScanTask:    f.scanTask,
		ProductData: f.enricher,
		UPCDB:       f.upc,
	})
	return f
}

func (f *fixture) allowTrial(used int64) {
	f.quota.On("Authorize", mock.Anything, f.userID, f.tenantID).Return(quotadomain.Decision{
		Allowed:   true,
		Reason:    quotadomain.ReasonFreeTrial,
		Used:      used,
		Limit:     50,
		Remaining: 50 - used,
	}, nil)
}

func (f *fixture) request(code string) scandomain.Request {
	return scandomain.Request{Code: code, UserID: f.userID, TenantID: f.tenantID}
}

func strptr(s string) *string { return &s }

// -- Tests --

func TestResolveQuotaDeniedBeforeAnyCall(t *testing.T) {
	f := newFixture(t)
	f.quota.On("Authorize", mock.Anything, f.userID, f.tenantID).Return(quotadomain.Decision{
		Allowed: false,
		Reason:  quotadomain.ReasonTrialLimitReached,
		Used:    50,
		Limit:   50,
	}, nil)

	_, err := f.svc.Resolve(context.Background(), f.request("X001ABC123"))

	var quotaErr *scandomain.QuotaExceededError
	require.ErrorAs(t, err, &quotaErr)
	assert.Equal(t, int64(50), quotaErr.Decision.Used)

	f.manifest.AssertNotCalled(t, "FindByIdentifier", mock.Anything, mock.Anything, mock.Anything)
	f.scanTask.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything)
	f.enricher.AssertNotCalled(t, "Enrich", mock.Anything, mock.Anything)
	f.upc.AssertNotCalled(t, "Lookup", mock.Anything, mock.Anything)
}

func TestResolveManifestHitIsFree(t *testing.T) {
	f := newFixture(t)
	f.allowTrial(0)
	f.manifest.On("FindByIdentifier", mock.Anything, f.tenantID, "X001ABC123").Return(&manifestdomain.Item{
		FNSKU: strptr("X001ABC123"),
		ASIN:  strptr("B08N5WRWNW"),
		Title: "Portable Charger",
		MSRP:  29.99,
	}, nil)
	f.ledger.On("Append", mock.Anything, mock.Anything).Return(true, nil)

	result, err := f.svc.Resolve(context.Background(), f.request("X001ABC123"))
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, scandomain.SourceLocal, result.Source)
	assert.Equal(t, scandomain.CostNoCharge, result.CostStatus)
	assert.Equal(t, "Portable Charger", result.Title)
	assert.Equal(t, "https://www.amazon.com/dp/B08N5WRWNW", result.AmazonURL)
	assert.NotEmpty(t, result.RequestID)

	f.catalog.AssertNotCalled(t, "Lookup", mock.Anything, mock.Anything, mock.Anything)
	f.scanTask.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything)
}

func TestResolveCacheHitCompleteAndFresh(t *testing.T) {
	f := newFixture(t)
	f.allowTrial(5)
	f.manifest.On("FindByIdentifier", mock.Anything, f.tenantID, "X001ABC123").Return(nil, nil)
	f.catalog.On("Lookup", mock.Anything, "X001ABC123", identifier.TypeFNSKU).Return(&catalogdomain.Entry{
		FNSKU:     strptr("X001ABC123"),
		ASIN:      strptr("B08N5WRWNW"),
		Title:     "Anker PowerCore 10000 Portable Charger",
		Price:     24.99,
		ImageURL:  "https://img.example.com/p.jpg",
		UpdatedAt: f.clock.Now().Add(-24 * time.Hour),
	}, nil)
	f.ledger.On("Append", mock.Anything, mock.Anything).Return(true, nil)

	result, err := f.svc.Resolve(context.Background(), f.request("X001ABC123"))
	require.NoError(t, err)

	assert.True(t, result.Cached)
	assert.Equal(t, scandomain.SourceCache, result.Source)
	assert.Equal(t, scandomain.CostNoCharge, result.CostStatus)
	assert.Equal(t, int64(6), result.ScanCount.Used)
	assert.Equal(t, int64(44), result.ScanCount.Remaining)

	f.scanTask.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything)
	f.enricher.AssertNotCalled(t, "Enrich", mock.Anything, mock.Anything)
}

func TestResolveStaleCacheWithASINUpgrades(t *testing.T) {
	f := newFixture(t)
	f.allowTrial(0)
	f.manifest.On("FindByIdentifier", mock.Anything, f.tenantID, "X001ABC123").Return(nil, nil)
	f.catalog.On("Lookup", mock.Anything, "X001ABC123", identifier.TypeFNSKU).Return(&catalogdomain.Entry{
		FNSKU:     strptr("X001ABC123"),
		ASIN:      strptr("B08N5WRWNW"),
		Title:     "Anker PowerCore 10000 Portable Charger",
		Price:     24.99,
		ImageURL:  "https://img.example.com/p.jpg",
		UpdatedAt: f.clock.Now().Add(-45 * 24 * time.Hour),
	}, nil)
	f.enricher.On("Enrich", mock.Anything, "B08N5WRWNW").Return(&productdata.Detail{
		ASIN:   "B08N5WRWNW",
		Title:  "Anker PowerCore 10000 Portable Charger, USB-C",
		Price:  21.99,
		Images: []string{"https://img.example.com/new.jpg"},
	}, nil)
	f.catalog.On("Save", mock.Anything, mock.Anything).Return(&catalogdomain.Entry{}, nil)
	f.ledger.On("Append", mock.Anything, mock.Anything).Return(true, nil)

	result, err := f.svc.Resolve(context.Background(), f.request("X001ABC123"))
	require.NoError(t, err)

	assert.Equal(t, scandomain.SourceProductData, result.Source)
	assert.Equal(t, scandomain.CostCharged, result.CostStatus)
	assert.Equal(t, "X001ABC123", result.FNSKU)
	assert.Equal(t, "Anker PowerCore 10000 Portable Charger, USB-C", result.Title)
	f.catalog.AssertCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestResolveStaleCacheEnrichFailureServesCache(t *testing.T) {
	f := newFixture(t)
	f.allowTrial(0)
	f.manifest.On("FindByIdentifier", mock.Anything, f.tenantID, "X001ABC123").Return(nil, nil)
	f.catalog.On("Lookup", mock.Anything, "X001ABC123", identifier.TypeFNSKU).Return(&catalogdomain.Entry{
		FNSKU:     strptr("X001ABC123"),
		ASIN:      strptr("B08N5WRWNW"),
		Title:     "Anker PowerCore 10000 Portable Charger",
		Price:     24.99,
		ImageURL:  "https://img.example.com/p.jpg",
		UpdatedAt: f.clock.Now().Add(-45 * 24 * time.Hour),
	}, nil)
	f.enricher.On("Enrich", mock.Anything, "B08N5WRWNW").Return(nil, productdata.ErrNotFound)
	f.ledger.On("Append", mock.Anything, mock.Anything).Return(false, nil)

	result, err := f.svc.Resolve(context.Background(), f.request("X001ABC123"))
	require.NoError(t, err)

	assert.True(t, result.Cached)
	assert.Equal(t, scandomain.SourceCache, result.Source)
	assert.Equal(t, scandomain.CostNoCharge, result.CostStatus)
	assert.Equal(t, "Anker PowerCore 10000 Portable Charger", result.Title)
}

func TestResolveFNSKUFullChain(t *testing.T) {
	f := newFixture(t)
	f.allowTrial(10)
	f.manifest.On("FindByIdentifier", mock.Anything, f.tenantID, "X001ABC123").Return(nil, nil)
	f.catalog.On("Lookup", mock.Anything, "X001ABC123", identifier.TypeFNSKU).Return(nil, nil)
	f.scanTask.On("Resolve", mock.Anything, "X001ABC123").Return(&scantask.Resolution{
		Outcome: scantask.OutcomeResolved,
		ASIN:    "B08N5WRWNW",
		TaskID:  "t1",
	}, nil)
	f.enricher.On("Enrich", mock.Anything, "B08N5WRWNW").Return(&productdata.Detail{
		ASIN:   "B08N5WRWNW",
		Title:  "Anker PowerCore 10000 Portable Charger",
		Price:  24.99,
		Images: []string{"https://img.example.com/p.jpg"},
	}, nil)
	f.catalog.On("Save", mock.Anything, mock.MatchedBy(func(entry *catalogdomain.Entry) bool {
		return entry.FNSKU != nil && *entry.FNSKU == "X001ABC123" &&
			entry.ASIN != nil && *entry.ASIN == "B08N5WRWNW"
	})).Return(&catalogdomain.Entry{}, nil)
	f.ledger.On("Append", mock.Anything, mock.MatchedBy(func(record *ledgerdomain.ScanRecord) bool {
		return record.Code == "X001ABC123" && record.UserID == f.userID
	})).Return(true, nil)

	result, err := f.svc.Resolve(context.Background(), f.request("x001abc123"))
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, "B08N5WRWNW", result.ASIN)
	assert.Equal(t, scandomain.CostCharged, result.CostStatus)
	assert.Equal(t, "t1", result.TaskID)
	assert.Equal(t, int64(11), result.ScanCount.Used)
	f.catalog.AssertExpectations(t)
	f.ledger.AssertExpectations(t)
}

func TestResolveFNSKUPending(t *testing.T) {
	f := newFixture(t)
	f.allowTrial(0)
	f.manifest.On("FindByIdentifier", mock.Anything, f.tenantID, "X001ABC123").Return(nil, nil)
	f.catalog.On("Lookup", mock.Anything, "X001ABC123", identifier.TypeFNSKU).Return(nil, nil)
	f.scanTask.On("Resolve", mock.Anything, "X001ABC123").Return(&scantask.Resolution{
		Outcome: scantask.OutcomePending,
		TaskID:  "t2",
		State:   "Processing",
	}, nil)
	f.catalog.On("Save", mock.Anything, mock.Anything).Return(&catalogdomain.Entry{}, nil)
	f.ledger.On("Append", mock.Anything, mock.Anything).Return(true, nil)

	result, err := f.svc.Resolve(context.Background(), f.request("X001ABC123"))
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.True(t, result.Processing)
	assert.Equal(t, "FNSKU: X001ABC123", result.Title)
	assert.Equal(t, scandomain.CostCharged, result.CostStatus)
	f.enricher.AssertNotCalled(t, "Enrich", mock.Anything, mock.Anything)
}

func TestResolveFNSKUFailed(t *testing.T) {
	f := newFixture(t)
	f.allowTrial(0)
	f.manifest.On("FindByIdentifier", mock.Anything, f.tenantID, "X001ABC123").Return(nil, nil)
	f.catalog.On("Lookup", mock.Anything, "X001ABC123", identifier.TypeFNSKU).Return(nil, nil)
	f.scanTask.On("Resolve", mock.Anything, "X001ABC123").Return(&scantask.Resolution{
		Outcome: scantask.OutcomeFailed,
		TaskID:  "t3",
	}, nil)

	_, err := f.svc.Resolve(context.Background(), f.request("X001ABC123"))
	assert.ErrorIs(t, err, scandomain.ErrNotFound)
}

func TestResolveUPCFreeOnly(t *testing.T) {
	f := newFixture(t)
	f.allowTrial(0)
	f.manifest.On("FindByIdentifier", mock.Anything, f.tenantID, "036000291452").Return(nil, nil)
	f.catalog.On("Lookup", mock.Anything, "036000291452", identifier.TypeUPC).Return(nil, nil)
	f.upc.On("Lookup", mock.Anything, "036000291452").Return(&upcdb.Draft{
		UPC:    "036000291452",
		Title:  "Crest Complete Toothpaste",
		Brand:  "Crest",
		Price:  3.49,
		Images: []string{"https://img.example.com/crest.jpg"},
	}, nil)
	f.catalog.On("Save", mock.Anything, mock.Anything).Return(&catalogdomain.Entry{}, nil)
	f.ledger.On("Append", mock.Anything, mock.Anything).Return(true, nil)

	result, err := f.svc.Resolve(context.Background(), f.request("036000291452"))
	require.NoError(t, err)

	assert.Equal(t, scandomain.SourceUPCDB, result.Source)
	assert.Equal(t, scandomain.CostNoCharge, result.CostStatus)
	assert.Equal(t, "036000291452", result.UPC)
	f.scanTask.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything)
	f.enricher.AssertNotCalled(t, "Enrich", mock.Anything, mock.Anything)
}

func TestResolveUPCOpportunisticEnrichment(t *testing.T) {
	f := newFixture(t)
	f.allowTrial(0)
	f.manifest.On("FindByIdentifier", mock.Anything, f.tenantID, "036000291452").Return(nil, nil)
	f.catalog.On("Lookup", mock.Anything, "036000291452", identifier.TypeUPC).Return(nil, nil)
	f.upc.On("Lookup", mock.Anything, "036000291452").Return(&upcdb.Draft{
		UPC:   "036000291452",
		ASIN:  "B001G7QGPA",
		Title: "Crest Complete Toothpaste",
	}, nil)
	f.enricher.On("Enrich", mock.Anything, "B001G7QGPA").Return(&productdata.Detail{
		ASIN:  "B001G7QGPA",
		Title: "Crest Complete Whitening Toothpaste, 2 Pack",
		Price: 6.99,
	}, nil)
	f.catalog.On("Save", mock.Anything, mock.Anything).Return(&catalogdomain.Entry{}, nil)
	f.ledger.On("Append", mock.Anything, mock.Anything).Return(true, nil)

	result, err := f.svc.Resolve(context.Background(), f.request("036000291452"))
	require.NoError(t, err)

	assert.Equal(t, scandomain.SourceProductData, result.Source)
	assert.Equal(t, scandomain.CostCharged, result.CostStatus)
	assert.Equal(t, "036000291452", result.UPC)
	assert.Equal(t, "B001G7QGPA", result.ASIN)
}

func TestResolveUPCMiss(t *testing.T) {
	f := newFixture(t)
	f.allowTrial(0)
	f.manifest.On("FindByIdentifier", mock.Anything, f.tenantID, "036000291452").Return(nil, nil)
	f.catalog.On("Lookup", mock.Anything, "036000291452", identifier.TypeUPC).Return(nil, nil)
	f.upc.On("Lookup", mock.Anything, "036000291452").Return(nil, upcdb.ErrNotFound)

	_, err := f.svc.Resolve(context.Background(), f.request("036000291452"))
	assert.ErrorIs(t, err, scandomain.ErrNotFound)
}

func TestResolveASINDirectEnrichment(t *testing.T) {
	f := newFixture(t)
	f.allowTrial(0)
	f.manifest.On("FindByIdentifier", mock.Anything, f.tenantID, "B08N5WRWNW").Return(nil, nil)
	f.catalog.On("Lookup", mock.Anything, "B08N5WRWNW", identifier.TypeASIN).Return(nil, nil)
	f.enricher.On("Enrich", mock.Anything, "B08N5WRWNW").Return(&productdata.Detail{
		ASIN:  "B08N5WRWNW",
		Title: "Anker PowerCore 10000 Portable Charger",
		Price: 24.99,
	}, nil)
	f.catalog.On("Save", mock.Anything, mock.Anything).Return(&catalogdomain.Entry{}, nil)
	f.ledger.On("Append", mock.Anything, mock.Anything).Return(true, nil)

	result, err := f.svc.Resolve(context.Background(), f.request("B08N5WRWNW"))
	require.NoError(t, err)

	assert.Equal(t, "B08N5WRWNW", result.ASIN)
	assert.Equal(t, scandomain.SourceProductData, result.Source)
	assert.Equal(t, scandomain.CostCharged, result.CostStatus)
	f.scanTask.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything)
}

func TestResolveRepeatScanDoesNotCountAgain(t *testing.T) {
	f := newFixture(t)
	f.allowTrial(7)
	f.manifest.On("FindByIdentifier", mock.Anything, f.tenantID, "X001ABC123").Return(nil, nil)
	f.catalog.On("Lookup", mock.Anything, "X001ABC123", identifier.TypeFNSKU).Return(&catalogdomain.Entry{
		FNSKU:     strptr("X001ABC123"),
		Title:     "Anker PowerCore 10000 Portable Charger",
		Price:     24.99,
		ImageURL:  "https://img.example.com/p.jpg",
		UpdatedAt: f.clock.Now(),
	}, nil)
	f.ledger.On("Append", mock.Anything, mock.Anything).Return(false, nil)

	result, err := f.svc.Resolve(context.Background(), f.request("X001ABC123"))
	require.NoError(t, err)

	assert.Equal(t, int64(7), result.ScanCount.Used)
	assert.Equal(t, int64(43), result.ScanCount.Remaining)
}

func TestResolveLedgerFailureDoesNotFailRequest(t *testing.T) {
	f := newFixture(t)
	f.allowTrial(0)
	f.manifest.On("FindByIdentifier", mock.Anything, f.tenantID, "X001ABC123").Return(&manifestdomain.Item{
		FNSKU: strptr("X001ABC123"),
		Title: "Portable Charger",
	}, nil)
	f.ledger.On("Append", mock.Anything, mock.Anything).Return(false, errors.New("db down"))

	result, err := f.svc.Resolve(context.Background(), f.request("X001ABC123"))
	require.NoError(t, err)
	assert.True(t, result.Success)
}

func TestResolveCachePersistFailureDoesNotFailRequest(t *testing.T) {
	f := newFixture(t)
	f.allowTrial(0)
	f.manifest.On("FindByIdentifier", mock.Anything, f.tenantID, "036000291452").Return(nil, nil)
	f.catalog.On("Lookup", mock.Anything, "036000291452", identifier.TypeUPC).Return(nil, nil)
	f.upc.On("Lookup", mock.Anything, "036000291452").Return(&upcdb.Draft{
		UPC:   "036000291452",
		Title: "Crest Complete Toothpaste",
	}, nil)
	f.catalog.On("Save", mock.Anything, mock.Anything).Return(nil, errors.New("db down"))
	f.ledger.On("Append", mock.Anything, mock.Anything).Return(true, nil)

	result, err := f.svc.Resolve(context.Background(), f.request("036000291452"))
	require.NoError(t, err)
	assert.True(t, result.Success)
}

func TestResolveScanTaskTimeoutMapsToUpstreamTimeout(t *testing.T) {
	f := newFixture(t)
	f.allowTrial(0)
	f.manifest.On("FindByIdentifier", mock.Anything, f.tenantID, "X001ABC123").Return(nil, nil)
	f.catalog.On("Lookup", mock.Anything, "X001ABC123", identifier.TypeFNSKU).Return(nil, nil)
	f.scanTask.On("Resolve", mock.Anything, "X001ABC123").Return(nil, context.DeadlineExceeded)

	_, err := f.svc.Resolve(context.Background(), f.request("X001ABC123"))
	assert.ErrorIs(t, err, scandomain.ErrUpstreamTimeout)
}

func TestResolveValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Resolve(context.Background(), scandomain.Request{
		Code: "", UserID: f.userID, TenantID: f.tenantID,
	})
	assert.ErrorIs(t, err, scandomain.ErrInvalidCode)

	_, err = f.svc.Resolve(context.Background(), scandomain.Request{
		Code: "X001ABC123", TenantID: f.tenantID,
	})
	assert.ErrorIs(t, err, scandomain.ErrUnidentified)
}

func TestResolveElevatedRoleKeepsUnlimitedCounts(t *testing.T) {
	f := newFixture(t)
	f.quota.On("Authorize", mock.Anything, f.userID, f.tenantID).Return(quotadomain.Decision{
		Allowed:   true,
		Reason:    quotadomain.ReasonElevatedRole,
		Unlimited: true,
		Limit:     50,
	}, nil)
	f.manifest.On("FindByIdentifier", mock.Anything, f.tenantID, "X001ABC123").Return(&manifestdomain.Item{
		FNSKU: strptr("X001ABC123"),
		Title: "Portable Charger",
	}, nil)
	f.ledger.On("Append", mock.Anything, mock.Anything).Return(true, nil)

	result, err := f.svc.Resolve(context.Background(), f.request("X001ABC123"))
	require.NoError(t, err)

	assert.True(t, result.ScanCount.Unlimited)
	assert.Equal(t, int64(0), result.ScanCount.Used)
}
