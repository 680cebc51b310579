package db

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FindByID loads the row of T whose primary key equals id.
func FindByID[T any](ctx context.Context, db *gorm.DB, id any) (*T, error) {
	var out T
	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(&out); err != nil {
		return nil, &DataModelError{Message: fmt.Sprintf("cannot map %T", out), Err: err}
	}
	pk := stmt.Schema.PrioritizedPrimaryField
	if pk == nil {
		return nil, &DataModelError{Message: fmt.Sprintf("%s has no primary key", stmt.Schema.Name)}
	}

	err := db.WithContext(ctx).
		Where(clause.Eq{Column: clause.Column{Table: clause.CurrentTable, Name: pk.DBName}, Value: id}).
		Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &ObjectNotFoundError{Set: stmt.Schema.Table, ID: id}
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// FindBy loads the first row of T whose columns equal props.
func FindBy[T any](ctx context.Context, db *gorm.DB, props map[string]string) (*T, error) {
	var out T
	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(&out); err != nil {
		return nil, &DataModelError{Message: fmt.Sprintf("cannot map %T", out), Err: err}
	}

	if props == nil {
		props = map[string]string{}
	}
	conds := make(map[string]interface{}, len(props))
	for k, v := range props {
		conds[k] = v
	}
	err := db.WithContext(ctx).Where(conds).Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &ObjectNotFoundError{Set: stmt.Schema.Table, SearchProperties: props}
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}
