package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yeremiapane/pizzeria-app/models"
	"github.com/yeremiapane/pizzeria-app/utils"
	"gorm.io/gorm"
)

// CustomerDirectory stores customers in the relational database.
type CustomerDirectory struct {
	DB *gorm.DB
}

func NewCustomerDirectory(db *gorm.DB) *CustomerDirectory {
	return &CustomerDirectory{DB: db}
}

// ResolveCustomer returns the customer with the given id.
func (d *CustomerDirectory) ResolveCustomer(ctx context.Context, id uint) (models.Customer, error) {
	var customer models.Customer
	if err := d.DB.WithContext(ctx).First(&customer, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Customer{}, fmt.Errorf("%w: id %d", ErrCustomerNotFound, id)
		}
		return models.Customer{}, err
	}
	return customer, nil
}

func (d *CustomerDirectory) FindByPhone(ctx context.Context, phone string) (models.Customer, error) {
	var customer models.Customer
	err := d.DB.WithContext(ctx).Where("phone = ?", strings.TrimSpace(phone)).First(&customer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Customer{}, ErrCustomerNotFound
	}
	return customer, err
}

// List returns customers ordered by id. A non-empty name keeps customers whose
// name contains it, ignoring case.
func (d *CustomerDirectory) List(ctx context.Context, name string) ([]models.Customer, error) {
	var customers []models.Customer
	q := d.DB.WithContext(ctx).Order("id")
	if name = strings.TrimSpace(name); name != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(name)+"%")
	}
	if err := q.Find(&customers).Error; err != nil {
		return nil, err
	}
	return customers, nil
}

// Create registers a customer. Phone numbers are unique.
func (d *CustomerDirectory) Create(ctx context.Context, customer models.Customer) (models.Customer, error) {
	customer.ID = 0
	if err := validateCustomer(&customer); err != nil {
		return models.Customer{}, err
	}
	if _, err := d.FindByPhone(ctx, customer.Phone); err == nil {
		return models.Customer{}, ErrDuplicateCustomer
	} else if !errors.Is(err, ErrCustomerNotFound) {
		return models.Customer{}, err
	}

	if err := d.DB.WithContext(ctx).Create(&customer).Error; err != nil {
		return models.Customer{}, err
	}
	utils.InfoLogger.WithField("customer_id", customer.ID).Info("customer registered")
	return customer, nil
}

// Update changes name, phone and home address of an existing customer.
func (d *CustomerDirectory) Update(ctx context.Context, id uint, customer models.Customer) (models.Customer, error) {
	existing, err := d.ResolveCustomer(ctx, id)
	if err != nil {
		return models.Customer{}, err
	}
	if err := validateCustomer(&customer); err != nil {
		return models.Customer{}, err
	}
	if other, err := d.FindByPhone(ctx, customer.Phone); err == nil {
		if other.ID != id {
			return models.Customer{}, ErrDuplicateCustomer
		}
	} else if !errors.Is(err, ErrCustomerNotFound) {
		return models.Customer{}, err
	}

	existing.Name = customer.Name
	existing.Phone = customer.Phone
	existing.Address = customer.Address
	if err := d.DB.WithContext(ctx).Save(&existing).Error; err != nil {
		return models.Customer{}, err
	}
	return existing, nil
}

func validateCustomer(c *models.Customer) error {
	c.Name = strings.TrimSpace(c.Name)
	c.Phone = strings.TrimSpace(c.Phone)
	if c.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidCustomer)
	}
	if c.Phone == "" {
		return fmt.Errorf("%w: phone is required", ErrInvalidCustomer)
	}
	return nil
}
