package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/propertyflow/backend/internal/domain/shared/valueobject"
	"github.com/propertyflow/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// CurrencyRepository implements billing.CurrencyRepository
type CurrencyRepository struct {
	db *gorm.DB
}

// NewCurrencyRepository creates a new currency repository
func NewCurrencyRepository(db *gorm.DB) *CurrencyRepository {
	return &CurrencyRepository{db: db}
}

// FindDefault retrieves the currency flagged as default, or nil
func (r *CurrencyRepository) FindDefault(ctx context.Context) (*valueobject.Currency, error) {
	return r.first(r.db.WithContext(ctx).Where("is_default = ?", true).Order("code ASC"))
}

// FindByCode retrieves a currency by its ISO code, or nil
func (r *CurrencyRepository) FindByCode(ctx context.Context, code string) (*valueobject.Currency, error) {
	return r.first(r.db.WithContext(ctx).Where("code = ?", strings.ToUpper(strings.TrimSpace(code))))
}

func (r *CurrencyRepository) first(query *gorm.DB) (*valueobject.Currency, error) {
	var model models.CurrencyModel
	if err := query.First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	currency := model.ToDomain()
	return &currency, nil
}
