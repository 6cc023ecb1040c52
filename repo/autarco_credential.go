package repo

import (
	"github.com/HavvokLab/autarco/model"
	"gorm.io/gorm"
)

type AutarcoCredentialRepo interface {
	FindAll() ([]model.AutarcoCredential, error)
	FindByOwner(owner string) ([]model.AutarcoCredential, error)
	Create(credential *model.AutarcoCredential) error
	Update(id int64, credential *model.AutarcoCredential) error
	Delete(id int64) error
}

type autarcoCredentialRepo struct {
	db *gorm.DB
}

func NewAutarcoCredentialRepo(db *gorm.DB) AutarcoCredentialRepo {
	return &autarcoCredentialRepo{db: db}
}

func (r *autarcoCredentialRepo) FindAll() ([]model.AutarcoCredential, error) {
	var credentials []model.AutarcoCredential
	tx := r.db.Session(&gorm.Session{})
	if err := tx.Order("id").Find(&credentials).Error; err != nil {
		return nil, err
	}

	return credentials, nil
}

func (r *autarcoCredentialRepo) FindByOwner(owner string) ([]model.AutarcoCredential, error) {
	var credentials []model.AutarcoCredential
	tx := r.db.Session(&gorm.Session{})
	if err := tx.Where("owner = ?", owner).Order("id").Find(&credentials).Error; err != nil {
		return nil, err
	}

	return credentials, nil
}

func (r *autarcoCredentialRepo) Create(credential *model.AutarcoCredential) error {
	tx := r.db.Session(&gorm.Session{})
	return tx.Create(credential).Error
}

func (r *autarcoCredentialRepo) Update(id int64, credential *model.AutarcoCredential) error {
	tx := r.db.Session(&gorm.Session{})
	return tx.Where("id = ?", id).Updates(credential).Error
}

func (r *autarcoCredentialRepo) Delete(id int64) error {
	tx := r.db.Session(&gorm.Session{})
	return tx.Where("id = ?", id).Delete(&model.AutarcoCredential{}).Error
}
