package service

import (
	"context"
	"testing"
	"time"

	carterrors "github.com/SauloAssisEngMec/API-shopping-cart/internal/cart/errors"
	"github.com/SauloAssisEngMec/API-shopping-cart/internal/cart/store"
	producterrors "github.com/SauloAssisEngMec/API-shopping-cart/internal/product/errors"
	productstore "github.com/SauloAssisEngMec/API-shopping-cart/internal/product/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockCartStore is a mock implementation of the CartStore interface.
// It records mutations so tests can assert that failed batches never write.
type mockCartStore struct {
	cart          *store.Cart
	findError     error
	upsertError   error
	removeError   error
	decreaseError error
	upsertCalls   int
	removeCalls   int
	decreaseCalls int
}

func (m *mockCartStore) FindByUserID(_ context.Context, _ uuid.UUID) (*store.Cart, error) {
	if m.findError != nil {
		return nil, m.findError
	}
	return m.cart, nil
}

func (m *mockCartStore) UpsertItems(_ context.Context, _ uuid.UUID, items []store.CartItem) error {
	m.upsertCalls++
	if m.upsertError != nil {
		return m.upsertError
	}
	// naive merge, enough to observe the post-write reload
	for _, item := range items {
		merged := false
		for i := range m.cart.Items {
			if m.cart.Items[i].ProductID == item.ProductID {
				m.cart.Items[i].Quantity += item.Quantity
				merged = true
				break
			}
		}
		if !merged {
			m.cart.Items = append(m.cart.Items, item)
		}
	}
	return nil
}

func (m *mockCartStore) RemoveItem(_ context.Context, _ uuid.UUID, productID uuid.UUID) error {
	m.removeCalls++
	if m.removeError != nil {
		return m.removeError
	}
	for i := range m.cart.Items {
		if m.cart.Items[i].ProductID == productID {
			m.cart.Items = append(m.cart.Items[:i], m.cart.Items[i+1:]...)
			return nil
		}
	}
	return carterrors.ErrCartItemNotFound
}

func (m *mockCartStore) DecreaseItem(_ context.Context, _ uuid.UUID, productID uuid.UUID, amount int32) error {
	m.decreaseCalls++
	if m.decreaseError != nil {
		return m.decreaseError
	}
	for i := range m.cart.Items {
		if m.cart.Items[i].ProductID == productID {
			if m.cart.Items[i].Quantity <= amount {
				m.cart.Items = append(m.cart.Items[:i], m.cart.Items[i+1:]...)
			} else {
				m.cart.Items[i].Quantity -= amount
			}
			return nil
		}
	}
	return carterrors.ErrCartItemNotFound
}

// mockProductStore is a mock implementation of the ProductStore interface.
type mockProductStore struct {
	products map[uuid.UUID]productstore.Product
}

func (m *mockProductStore) FindByID(_ context.Context, id uuid.UUID) (*productstore.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, producterrors.ErrProductNotFound
	}
	return &p, nil
}

func (m *mockProductStore) FindByIDs(_ context.Context, ids []uuid.UUID) ([]productstore.Product, error) {
	found := make([]productstore.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			found = append(found, p)
		}
	}
	return found, nil
}

func (m *mockProductStore) FindAll(_ context.Context, _, _ int32) ([]productstore.Product, error) {
	return nil, nil
}

func (m *mockProductStore) Create(_ context.Context, _ productstore.CreateParams) (*productstore.Product, error) {
	return nil, nil
}

func (m *mockProductStore) Update(_ context.Context, _ productstore.UpdateParams) (*productstore.Product, error) {
	return nil, nil
}

func (m *mockProductStore) DeleteByID(_ context.Context, _ uuid.UUID, _ int32) error {
	return nil
}

func Test_CartService_AddToCart(t *testing.T) {
	mockUserID, _ := uuid.Parse("123e4567-e89b-12d3-a456-426614174000")
	mockProductID, _ := uuid.Parse("123e4567-e89b-12d3-a456-426614174001")
	mockOtherID, _ := uuid.Parse("123e4567-e89b-12d3-a456-426614174002")
	createdAt := time.Now()

	newStores := func(stock int32, cartItems ...store.CartItem) (*mockCartStore, *mockProductStore) {
		cartStore := &mockCartStore{
			cart: &store.Cart{UserID: mockUserID, Items: cartItems, CreatedAt: createdAt},
		}
		productStore := &mockProductStore{
			products: map[uuid.UUID]productstore.Product{
				mockProductID: {ID: mockProductID, Name: "Keyboard", Price: 2000, StockQuantity: stock},
				mockOtherID:   {ID: mockOtherID, Name: "Mouse", Price: 1000, StockQuantity: stock},
			},
		}
		return cartStore, productStore
	}

	t.Run("Success - new line inserted", func(t *testing.T) {
		// given
		cartStore, productStore := newStores(10)
		service := NewService(cartStore, productStore)
		// when
		cart, err := service.AddToCart(context.Background(), mockUserID, []CartItemDto{
			{ProductID: mockProductID.String(), Quantity: 2},
		})
		// then
		require.NoError(t, err)
		require.Len(t, cart.Items, 1)
		assert.Equal(t, mockProductID.String(), cart.Items[0].ProductID)
		assert.Equal(t, int32(2), cart.Items[0].Quantity)
	})

	t.Run("Success - existing line merged by quantity", func(t *testing.T) {
		// given
		cartStore, productStore := newStores(10, store.CartItem{ProductID: mockProductID, Quantity: 3})
		service := NewService(cartStore, productStore)
		// when
		cart, err := service.AddToCart(context.Background(), mockUserID, []CartItemDto{
			{ProductID: mockProductID.String(), Quantity: 2},
		})
		// then
		require.NoError(t, err)
		require.Len(t, cart.Items, 1)
		assert.Equal(t, int32(5), cart.Items[0].Quantity)
	})

	t.Run("Error - malformed ID aborts the whole batch before any write", func(t *testing.T) {
		// given
		cartStore, productStore := newStores(10)
		service := NewService(cartStore, productStore)
		// when
		cart, err := service.AddToCart(context.Background(), mockUserID, []CartItemDto{
			{ProductID: mockProductID.String(), Quantity: 1},
			{ProductID: "not-a-uuid", Quantity: 1},
		})
		// then
		assert.ErrorIs(t, err, carterrors.ErrInvalidItem)
		assert.Nil(t, cart)
		assert.Zero(t, cartStore.upsertCalls)
	})

	t.Run("Error - non-positive quantity aborts the whole batch", func(t *testing.T) {
		// given
		cartStore, productStore := newStores(10)
		service := NewService(cartStore, productStore)
		// when
		cart, err := service.AddToCart(context.Background(), mockUserID, []CartItemDto{
			{ProductID: mockProductID.String(), Quantity: 0},
		})
		// then
		assert.ErrorIs(t, err, carterrors.ErrInvalidItem)
		assert.Nil(t, cart)
		assert.Zero(t, cartStore.upsertCalls)
	})

	t.Run("Error - empty batch is rejected", func(t *testing.T) {
		// given
		cartStore, productStore := newStores(10)
		service := NewService(cartStore, productStore)
		// when
		cart, err := service.AddToCart(context.Background(), mockUserID, nil)
		// then
		assert.ErrorIs(t, err, carterrors.ErrInvalidItem)
		assert.Nil(t, cart)
		assert.Zero(t, cartStore.upsertCalls)
	})

	t.Run("Error - unknown product leaves cart untouched", func(t *testing.T) {
		// given
		cartStore, productStore := newStores(10)
		service := NewService(cartStore, productStore)
		// when
		cart, err := service.AddToCart(context.Background(), mockUserID, []CartItemDto{
			{ProductID: uuid.NewString(), Quantity: 1},
		})
		// then
		assert.ErrorIs(t, err, producterrors.ErrProductNotFound)
		assert.Nil(t, cart)
		assert.Zero(t, cartStore.upsertCalls)
	})

	t.Run("Error - insufficient stock leaves cart untouched", func(t *testing.T) {
		// given
		cartStore, productStore := newStores(1)
		service := NewService(cartStore, productStore)
		// when
		cart, err := service.AddToCart(context.Background(), mockUserID, []CartItemDto{
			{ProductID: mockProductID.String(), Quantity: 5},
		})
		// then
		assert.ErrorIs(t, err, carterrors.ErrInsufficientStock)
		assert.Nil(t, cart)
		assert.Zero(t, cartStore.upsertCalls)
	})
}

func Test_CartService_RemoveFromCart(t *testing.T) {
	mockUserID, _ := uuid.Parse("123e4567-e89b-12d3-a456-426614174000")
	mockProductID, _ := uuid.Parse("123e4567-e89b-12d3-a456-426614174001")
	mockOtherID, _ := uuid.Parse("123e4567-e89b-12d3-a456-426614174002")
	createdAt := time.Now()

	t.Run("Success - line removed, rest of cart intact", func(t *testing.T) {
		// given
		cartStore := &mockCartStore{
			cart: &store.Cart{
				UserID: mockUserID,
				Items: []store.CartItem{
					{ProductID: mockProductID, Quantity: 2},
					{ProductID: mockOtherID, Quantity: 1},
				},
				CreatedAt: createdAt,
			},
		}
		service := NewService(cartStore, &mockProductStore{})
		// when
		cart, err := service.RemoveFromCart(context.Background(), mockUserID, mockProductID)
		// then
		require.NoError(t, err)
		require.Len(t, cart.Items, 1)
		assert.Equal(t, mockOtherID.String(), cart.Items[0].ProductID)
	})

	t.Run("Error - absent line", func(t *testing.T) {
		// given
		cartStore := &mockCartStore{
			cart: &store.Cart{UserID: mockUserID, Items: nil, CreatedAt: createdAt},
		}
		service := NewService(cartStore, &mockProductStore{})
		// when
		cart, err := service.RemoveFromCart(context.Background(), mockUserID, mockProductID)
		// then
		assert.ErrorIs(t, err, carterrors.ErrCartItemNotFound)
		assert.Nil(t, cart)
	})

	t.Run("Error - absent cart", func(t *testing.T) {
		// given
		cartStore := &mockCartStore{removeError: carterrors.ErrCartNotFound}
		service := NewService(cartStore, &mockProductStore{})
		// when
		cart, err := service.RemoveFromCart(context.Background(), mockUserID, mockProductID)
		// then
		assert.ErrorIs(t, err, carterrors.ErrCartNotFound)
		assert.Nil(t, cart)
	})
}

func Test_CartService_DecreaseQuantity(t *testing.T) {
	mockUserID, _ := uuid.Parse("123e4567-e89b-12d3-a456-426614174000")
	mockProductID, _ := uuid.Parse("123e4567-e89b-12d3-a456-426614174001")
	createdAt := time.Now()

	newCartStore := func(quantity int32) *mockCartStore {
		return &mockCartStore{
			cart: &store.Cart{
				UserID:    mockUserID,
				Items:     []store.CartItem{{ProductID: mockProductID, Quantity: quantity}},
				CreatedAt: createdAt,
			},
		}
	}

	t.Run("Success - quantity decremented", func(t *testing.T) {
		// given
		cartStore := newCartStore(5)
		service := NewService(cartStore, &mockProductStore{})
		// when
		cart, err := service.DecreaseQuantity(context.Background(), mockUserID, mockProductID, 2)
		// then
		require.NoError(t, err)
		require.Len(t, cart.Items, 1)
		assert.Equal(t, int32(3), cart.Items[0].Quantity)
	})

	t.Run("Success - line drained to zero is dropped", func(t *testing.T) {
		// given
		cartStore := newCartStore(2)
		service := NewService(cartStore, &mockProductStore{})
		// when
		cart, err := service.DecreaseQuantity(context.Background(), mockUserID, mockProductID, 2)
		// then
		require.NoError(t, err)
		assert.Empty(t, cart.Items)
	})

	t.Run("Success - decrement past zero is dropped, never negative", func(t *testing.T) {
		// given
		cartStore := newCartStore(2)
		service := NewService(cartStore, &mockProductStore{})
		// when
		cart, err := service.DecreaseQuantity(context.Background(), mockUserID, mockProductID, 10)
		// then
		require.NoError(t, err)
		assert.Empty(t, cart.Items)
	})

	t.Run("Error - non-positive amount is rejected before any write", func(t *testing.T) {
		// given
		cartStore := newCartStore(2)
		service := NewService(cartStore, &mockProductStore{})
		// when
		cart, err := service.DecreaseQuantity(context.Background(), mockUserID, mockProductID, 0)
		// then
		assert.ErrorIs(t, err, carterrors.ErrInvalidItem)
		assert.Nil(t, cart)
		assert.Zero(t, cartStore.decreaseCalls)
	})

	t.Run("Error - absent line", func(t *testing.T) {
		// given
		cartStore := &mockCartStore{
			cart: &store.Cart{UserID: mockUserID, Items: nil, CreatedAt: createdAt},
		}
		service := NewService(cartStore, &mockProductStore{})
		// when
		cart, err := service.DecreaseQuantity(context.Background(), mockUserID, mockProductID, 1)
		// then
		assert.ErrorIs(t, err, carterrors.ErrCartItemNotFound)
		assert.Nil(t, cart)
	})
}

func Test_CartService_GetCart(t *testing.T) {
	mockUserID, _ := uuid.Parse("123e4567-e89b-12d3-a456-426614174000")
	mockProductID, _ := uuid.Parse("123e4567-e89b-12d3-a456-426614174001")
	createdAt := time.Now()

	t.Run("Success - cart found", func(t *testing.T) {
		// given
		cartStore := &mockCartStore{
			cart: &store.Cart{
				UserID:    mockUserID,
				Items:     []store.CartItem{{ProductID: mockProductID, Quantity: 4}},
				CreatedAt: createdAt,
			},
		}
		service := NewService(cartStore, &mockProductStore{})
		// when
		cart, err := service.GetCart(context.Background(), mockUserID)
		// then
		require.NoError(t, err)
		assert.Equal(t, mockUserID.String(), cart.UserID)
		require.Len(t, cart.Items, 1)
		assert.Equal(t, int32(4), cart.Items[0].Quantity)
	})

	t.Run("Success - absent cart reads as empty", func(t *testing.T) {
		// given
		cartStore := &mockCartStore{findError: carterrors.ErrCartNotFound}
		service := NewService(cartStore, &mockProductStore{})
		// when
		cart, err := service.GetCart(context.Background(), mockUserID)
		// then
		require.NoError(t, err)
		assert.Equal(t, mockUserID.String(), cart.UserID)
		assert.Empty(t, cart.Items)
	})
}
