package service

import (
	"context"
	"errors"

	"github.com/pasteldream/pastel-backend/internal/app/model"
	"github.com/pasteldream/pastel-backend/internal/app/repository"
	"github.com/pasteldream/pastel-backend/pkg/logger"
	"gorm.io/gorm"
)

var ErrWishlistItemNotFound = errors.New("wishlist item not found")

type WishlistService interface {
	GetUserWishlist(ctx context.Context, userID string) ([]model.WishlistItem, error)
	IsLiked(ctx context.Context, userID, productID string) (bool, error)
	Toggle(ctx context.Context, userID, productID string, currentlyLiked bool) (bool, error)
	Remove(ctx context.Context, userID, wishlistItemID string) error
	MoveToCart(ctx context.Context, userID, wishlistItemID string) (*model.CartItem, error)
}

type wishlistService struct {
	wishlistRepo repository.WishlistRepository
	productRepo  repository.ProductRepository
	carts        CartService
}

func NewWishlistService(
	wishlistRepo repository.WishlistRepository,
	productRepo repository.ProductRepository,
	carts CartService,
) WishlistService {
	return &wishlistService{
		wishlistRepo: wishlistRepo,
		productRepo:  productRepo,
		carts:        carts,
	}
}

func (s *wishlistService) GetUserWishlist(ctx context.Context, userID string) ([]model.WishlistItem, error) {
	items, err := s.wishlistRepo.FindByUserID(ctx, userID)
	if err != nil {
		logger.Error("Failed to fetch wishlist", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return items, nil
}

func (s *wishlistService) IsLiked(ctx context.Context, userID, productID string) (bool, error) {
	return s.wishlistRepo.Exists(ctx, userID, productID)
}

// Toggle flips the like the caller currently shows and returns the new
// state. Both directions are idempotent.
func (s *wishlistService) Toggle(ctx context.Context, userID, productID string, currentlyLiked bool) (bool, error) {
	logger.Info("Toggling wishlist item", map[string]interface{}{
		"user_id":         userID,
		"product_id":      productID,
		"currently_liked": currentlyLiked,
	})

	if currentlyLiked {
		if err := s.wishlistRepo.Remove(ctx, userID, productID); err != nil {
			return true, err
		}
		return false, nil
	}

	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrProductNotFound
		}
		return false, err
	}
	if err := s.wishlistRepo.Add(ctx, userID, productID); err != nil {
		return false, err
	}
	return true, nil
}

func (s *wishlistService) Remove(ctx context.Context, userID, wishlistItemID string) error {
	item, err := s.ownedItem(ctx, userID, wishlistItemID)
	if err != nil {
		return err
	}
	return s.wishlistRepo.Delete(ctx, item.ID)
}

// MoveToCart adds one unit to the cart, then drops the wishlist entry.
func (s *wishlistService) MoveToCart(ctx context.Context, userID, wishlistItemID string) (*model.CartItem, error) {
	item, err := s.ownedItem(ctx, userID, wishlistItemID)
	if err != nil {
		return nil, err
	}

	cartItem, err := s.carts.AddToCart(ctx, userID, item.ProductID)
	if err != nil {
		return nil, err
	}
	if err := s.wishlistRepo.Delete(ctx, item.ID); err != nil {
		logger.Warn("Moved to cart but wishlist entry remains", map[string]interface{}{
			"wishlist_item_id": item.ID,
			"error":            err.Error(),
		})
	}

	logger.Info("Wishlist item moved to cart", map[string]interface{}{
		"user_id":      userID,
		"product_id":   item.ProductID,
		"cart_item_id": cartItem.ID,
	})
	return cartItem, nil
}

func (s *wishlistService) ownedItem(ctx context.Context, userID, id string) (*model.WishlistItem, error) {
	item, err := s.wishlistRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWishlistItemNotFound
		}
		return nil, err
	}
	if item.UserID != userID {
		return nil, ErrWishlistItemNotFound
	}
	return item, nil
}
