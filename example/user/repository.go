/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package user

import (
	"context"
	"fmt"

	"github.com/tomoncle/crudkit/cond"
	"github.com/tomoncle/crudkit/repository"
	"github.com/uptrace/bun"
)

// Repository is the generic User repository plus lookups specific to users.
type Repository interface {
	repository.Repository[User, int64]

	// FindByEmail returns the user owning email, nil when there is none.
	FindByEmail(ctx context.Context, email string) (*User, error)

	// SearchByName returns up to limit users whose name starts with prefix.
	SearchByName(ctx context.Context, prefix string, limit int) ([]*User, error)
}

type userRepository struct {
	repository.Repository[User, int64]
}

// NewRepository returns a User repository backed by db.
func NewRepository(db *bun.DB) Repository {
	return &userRepository{Repository: repository.New[User, int64](db)}
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	return r.FindOne(ctx, cond.Eq("email", email))
}

func (r *userRepository) SearchByName(ctx context.Context, prefix string, limit int) ([]*User, error) {
	users := make([]*User, 0)
	err := r.NewSelect().
		Model(&users).
		Where("? LIKE ?", bun.Ident("name"), prefix+"%").
		OrderExpr("? ASC", bun.Ident("name")).
		OrderExpr("? ASC", bun.Ident("id")).
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("search users by name %q: %w", prefix, err)
	}
	return users, nil
}
