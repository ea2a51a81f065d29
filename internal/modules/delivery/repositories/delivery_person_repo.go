package repositories

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/modules/delivery/models"
)

type DeliveryPersonRepo interface {
	Create(ctx context.Context, person *models.DeliveryPerson) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.DeliveryPerson, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.DeliveryPerson, error)
	List(ctx context.Context, filter models.DeliveryPersonFilter) ([]models.DeliveryPerson, int64, error)
	Update(ctx context.Context, person *models.DeliveryPerson) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type deliveryPersonRepo struct {
	db *gorm.DB
}

func NewDeliveryPersonRepo(db *gorm.DB) DeliveryPersonRepo {
	return &deliveryPersonRepo{db: db}
}

func (r *deliveryPersonRepo) Create(ctx context.Context, person *models.DeliveryPerson) error {
	// Select all columns so an explicit IsActive=false is not replaced by the column default
	return r.db.WithContext(ctx).Select("*").Create(person).Error
}

func (r *deliveryPersonRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.DeliveryPerson, error) {
	var person models.DeliveryPerson
	if err := r.db.WithContext(ctx).First(&person, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &person, nil
}

func (r *deliveryPersonRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.DeliveryPerson, error) {
	var person models.DeliveryPerson
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		First(&person).Error
	if err != nil {
		return nil, err
	}
	return &person, nil
}

func (r *deliveryPersonRepo) List(ctx context.Context, filter models.DeliveryPersonFilter) ([]models.DeliveryPerson, int64, error) {
	var persons []models.DeliveryPerson
	var total int64

	query := r.db.WithContext(ctx).Model(&models.DeliveryPerson{})
	if filter.SearchTerm != "" {
		p := likePattern(filter.SearchTerm)
		query = query.Where("LOWER(name)"+like+" OR contact_number"+like, p, p)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := paginate(query, filter.Page, filter.PageSize).
		Order("created_at DESC").
		Find(&persons).Error
	return persons, total, err
}

func (r *deliveryPersonRepo) Update(ctx context.Context, person *models.DeliveryPerson) error {
	return r.db.WithContext(ctx).Save(person).Error
}

func (r *deliveryPersonRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.DeliveryPerson{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
