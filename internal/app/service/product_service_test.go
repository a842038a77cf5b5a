package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/poshaakwala/storefront-backend/internal/app/model"
	"github.com/poshaakwala/storefront-backend/internal/app/repository"
	"github.com/poshaakwala/storefront-backend/internal/db"
	"github.com/poshaakwala/storefront-backend/internal/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockImageStore struct {
	mock.Mock
}

func (m *mockImageStore) Upload(ctx context.Context, body []byte, contentType string) (string, string, error) {
	args := m.Called(ctx, body, contentType)
	return args.String(0), args.String(1), args.Error(2)
}

func (m *mockImageStore) Delete(ctx context.Context, publicID string) error {
	args := m.Called(ctx, publicID)
	return args.Error(0)
}

type recordingIntentLog struct {
	mu        sync.Mutex
	recorded  []string
	committed []string
}

func (l *recordingIntentLog) Record(_ context.Context, keys ...string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.recorded = append(l.recorded, keys...)
	return nil
}

func (l *recordingIntentLog) Commit(_ context.Context, keys ...string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.committed = append(l.committed, keys...)
	return nil
}

type publishedEvent struct {
	Type      string
	ProductID uint
}

type recordingPublisher struct {
	events []publishedEvent
}

func (p *recordingPublisher) Publish(eventType string, productID uint, _ *model.Product) {
	p.events = append(p.events, publishedEvent{Type: eventType, ProductID: productID})
}

type productServiceFixture struct {
	service   ProductService
	repo      repository.ProductRepository
	images    *mockImageStore
	intents   *recordingIntentLog
	publisher *recordingPublisher
}

func setupProductServiceTest(t *testing.T) productServiceFixture {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	repo := repository.NewProductRepository(testDB)
	images := &mockImageStore{}
	intents := &recordingIntentLog{}
	publisher := &recordingPublisher{}

	return productServiceFixture{
		service:   NewProductService(repo, images, intents, publisher),
		repo:      repo,
		images:    images,
		intents:   intents,
		publisher: publisher,
	}
}

func price(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func file(name string) storage.File {
	return storage.File{Filename: name, ContentType: "image/png", Data: []byte(name)}
}

func TestProductService_CreateProductValidation(t *testing.T) {
	f := setupProductServiceTest(t)

	tests := []struct {
		name  string
		input ProductInput
	}{
		{"missing title", ProductInput{Price: price("10")}},
		{"blank title", ProductInput{Title: "   ", Price: price("10")}},
		{"missing price", ProductInput{Title: "Mug"}},
		{"negative price", ProductInput{Title: "Mug", Price: price("-1")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.CreateProduct(context.Background(), tt.input, nil, []storage.File{file("a.png")})
			assert.ErrorIs(t, err, ErrValidation)
		})
	}

	// validation happens before any upload
	f.images.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything)
}

func TestProductService_CreateProductUploadsInOrderWithTags(t *testing.T) {
	f := setupProductServiceTest(t)
	ctx := context.Background()

	for i, name := range []string{"a.png", "b.png", "c.png"} {
		f.images.On("Upload", mock.Anything, []byte(name), "image/png").
			Return(fmt.Sprintf("https://cdn/%d", i), fmt.Sprintf("products/%d", i), nil).Once()
	}

	tags := []model.ImageTagValue{model.PlainLabel("primary"), model.TaggedObject("secondary")}
	product, err := f.service.CreateProduct(ctx, ProductInput{
		Title:    "  Mug ",
		Price:    price("12.499"),
		Category: []string{"Kitchen"},
	}, tags, []storage.File{file("a.png"), file("b.png"), file("c.png")})
	require.NoError(t, err)

	assert.Equal(t, "Mug", product.Title)
	assert.Equal(t, 12.5, product.Price)
	require.Len(t, product.Images, 3)
	assert.Equal(t, model.Image{URL: "https://cdn/0", PublicID: "products/0", Tag: model.ImageTagPrimary}, product.Images[0])
	assert.Equal(t, model.ImageTagSecondary, product.Images[1].Tag)
	assert.Equal(t, model.ImageTagExtra, product.Images[2].Tag)

	stored, err := f.repo.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, product.Images, stored.Images)

	assert.Equal(t, []string{"products/0", "products/1", "products/2"}, f.intents.recorded)
	assert.Equal(t, []string{"products/0", "products/1", "products/2"}, f.intents.committed)
	assert.Equal(t, []publishedEvent{{EventProductCreated, product.ID}}, f.publisher.events)
	f.images.AssertExpectations(t)
}

func TestProductService_CreateProductUploadFailureAborts(t *testing.T) {
	f := setupProductServiceTest(t)
	ctx := context.Background()

	f.images.On("Upload", mock.Anything, []byte("a.png"), "image/png").Return("https://cdn/a", "products/a", nil).Once()
	f.images.On("Upload", mock.Anything, []byte("b.png"), "image/png").Return("", "", errors.New("503")).Once()

	_, err := f.service.CreateProduct(ctx, ProductInput{Title: "Mug", Price: price("1")}, nil,
		[]storage.File{file("a.png"), file("b.png")})
	assert.ErrorIs(t, err, ErrImageUpload)

	products, err := f.repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, products)

	// the first upload stays in the intent log for the sweeper
	assert.Equal(t, []string{"products/a"}, f.intents.recorded)
	assert.Empty(t, f.intents.committed)
	assert.Empty(t, f.publisher.events)
}

func seedProductWithImages(t *testing.T, f productServiceFixture, images ...model.Image) *model.Product {
	product := &model.Product{Title: "Lamp", Price: 30, Images: images}
	require.NoError(t, f.repo.Create(context.Background(), product))
	return product
}

func TestProductService_UpdateProductMergesImages(t *testing.T) {
	f := setupProductServiceTest(t)
	ctx := context.Background()

	product := seedProductWithImages(t, f,
		model.Image{URL: "u1", PublicID: "p1", Tag: model.ImageTagPrimary},
		model.Image{URL: "u2", PublicID: "p2", Tag: model.ImageTagExtra},
		model.Image{URL: "u3", PublicID: "p3", Tag: model.ImageTagExtra},
	)

	f.images.On("Delete", mock.Anything, "p2").Return(nil).Once()
	f.images.On("Upload", mock.Anything, []byte("n.png"), "image/png").Return("un", "pn", nil).Once()

	updated, err := f.service.UpdateProduct(ctx, product.ID, ProductUpdateInput{
		ProductInput: ProductInput{Title: "Desk Lamp", Price: price("35"), Tags: []string{"light"}},
		ExistingImages: []model.ExistingImage{
			// order of existing and removed lists does not matter
			{URL: "u3", PublicID: "p3", Tag: model.TaggedObject("secondary")},
			{URL: "u2", PublicID: "p2", Tag: model.PlainLabel("extra")},
			{URL: "legacy", Tag: model.PlainLabel("primary")},
			{URL: "u1", PublicID: "p1", Tag: model.PlainLabel("hero")},
		},
		RemovedImageIDs: []string{"p2", ""},
		NewImageTags:    []model.ImageTagValue{model.PlainLabel("primary")},
	}, []storage.File{file("n.png")})
	require.NoError(t, err)

	assert.Equal(t, "Desk Lamp", updated.Title)
	assert.Equal(t, []string{"light"}, updated.Tags)
	assert.Equal(t, []model.Image{
		{URL: "u3", PublicID: "p3", Tag: model.ImageTagSecondary},
		{URL: "u1", PublicID: "p1", Tag: model.ImageTagExtra},
		{URL: "un", PublicID: "pn", Tag: model.ImageTagPrimary},
	}, updated.Images)

	stored, err := f.repo.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, updated.Images, stored.Images)
	assert.Equal(t, []string{"pn"}, f.intents.committed)
	assert.Equal(t, []publishedEvent{{EventProductUpdated, product.ID}}, f.publisher.events)
	f.images.AssertExpectations(t)
}

func TestProductService_UpdateProductIgnoresForeignRemovals(t *testing.T) {
	f := setupProductServiceTest(t)
	product := seedProductWithImages(t, f, model.Image{URL: "u1", PublicID: "p1", Tag: model.ImageTagPrimary})

	_, err := f.service.UpdateProduct(context.Background(), product.ID, ProductUpdateInput{
		ProductInput:    ProductInput{Title: "Lamp", Price: price("30")},
		ExistingImages:  []model.ExistingImage{{URL: "u1", PublicID: "p1"}},
		RemovedImageIDs: []string{"someone-elses-object"},
	}, nil)
	require.NoError(t, err)

	f.images.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestProductService_UpdateProductDeleteFailureIsForgiven(t *testing.T) {
	f := setupProductServiceTest(t)
	product := seedProductWithImages(t, f, model.Image{URL: "u1", PublicID: "p1"})

	f.images.On("Delete", mock.Anything, "p1").Return(errors.New("network down")).Once()

	updated, err := f.service.UpdateProduct(context.Background(), product.ID, ProductUpdateInput{
		ProductInput:    ProductInput{Title: "Lamp", Price: price("30")},
		RemovedImageIDs: []string{"p1"},
	}, nil)
	require.NoError(t, err)
	assert.Empty(t, updated.Images)
	f.images.AssertExpectations(t)
}

func TestProductService_UpdateProductNotFound(t *testing.T) {
	f := setupProductServiceTest(t)

	_, err := f.service.UpdateProduct(context.Background(), 404, ProductUpdateInput{
		ProductInput: ProductInput{Title: "Lamp", Price: price("30")},
	}, nil)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestProductService_DeleteProduct(t *testing.T) {
	f := setupProductServiceTest(t)
	ctx := context.Background()
	product := seedProductWithImages(t, f,
		model.Image{URL: "u1", PublicID: "p1"},
		model.Image{URL: "u2", PublicID: "p2"},
	)

	f.images.On("Delete", mock.Anything, "p1").Return(errors.New("gone already")).Once()
	f.images.On("Delete", mock.Anything, "p2").Return(nil).Once()

	require.NoError(t, f.service.DeleteProduct(ctx, product.ID))
	f.images.AssertExpectations(t)

	_, err := f.service.GetProduct(ctx, product.ID)
	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.Equal(t, []publishedEvent{{EventProductDeleted, product.ID}}, f.publisher.events)

	assert.ErrorIs(t, f.service.DeleteProduct(ctx, product.ID), ErrProductNotFound)
}

func TestProductService_ListProducts(t *testing.T) {
	f := setupProductServiceTest(t)
	ctx := context.Background()

	for i, p := range []string{"30", "10", "20"} {
		_, err := f.service.CreateProduct(ctx, ProductInput{
			Title: fmt.Sprintf("Item %d", i),
			Price: price(p),
		}, nil, nil)
		require.NoError(t, err)
	}

	products, err := f.service.ListProducts(ctx, ProductListOptions{Sort: "price_asc"})
	require.NoError(t, err)
	require.Len(t, products, 3)
	for i := 1; i < len(products); i++ {
		assert.LessOrEqual(t, products[i-1].Price, products[i].Price)
	}

	// unknown sort keys fall back to id order
	products, err = f.service.ListProducts(ctx, ProductListOptions{Sort: "bogus"})
	require.NoError(t, err)
	assert.Equal(t, "Item 0", products[0].Title)
}
