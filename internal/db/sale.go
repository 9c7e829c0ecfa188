package db

import (
	"github.com/pkg/errors"
	"github.com/vendo-org/vendo/internal/model"
)

func CreateSale(s *model.Sale) error {
	return errors.WithStack(db.Create(s).Error)
}

func ListUnmirroredSales(limit int) ([]model.Sale, error) {
	var sales []model.Sale
	err := db.Where("mirrored = ?", false).Order("id ASC").Limit(limit).Find(&sales).Error
	return sales, errors.WithStack(err)
}

func MarkSalesMirrored(ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return errors.WithStack(db.Model(&model.Sale{}).Where("id IN ?", ids).
		Update("mirrored", true).Error)
}
