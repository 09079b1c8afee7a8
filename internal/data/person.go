package data

import (
	"context"
	"errors"
	"fmt"

	"moviecatalog/internal/biz"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type personRepo struct {
	data *Data
	log  *log.Helper
}

// NewPersonRepo creates a new person repository
func NewPersonRepo(data *Data, logger log.Logger) biz.PersonRepo {
	return &personRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

func (r *personRepo) GetPerson(ctx context.Context, id int64) (*biz.Person, error) {
	var row Person
	if err := r.data.DB(ctx).First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, biz.ErrPersonNotFound
		}
		return nil, fmt.Errorf("failed to get person: %w", err)
	}
	return personToBiz(&row), nil
}

// CreatePerson never overwrites: persons are immutable once stored.
func (r *personRepo) CreatePerson(ctx context.Context, person *biz.Person) error {
	row := &Person{
		ID:        person.ID,
		Name:      person.Name,
		BirthDate: person.BirthDate,
		Biography: person.Biography,
	}
	err := r.data.DB(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(row).Error
	if err != nil {
		return fmt.Errorf("failed to create person: %w", err)
	}
	return nil
}
