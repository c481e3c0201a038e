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
	"strings"

	"github.com/tomoncle/crudkit"
)

// Service is the generic User service plus user lookups. Create and
// UpdateByID reject users without a name.
type Service interface {
	crudkit.Service[User, int64]

	FindByEmail(ctx context.Context, email string) (*User, error)
}

type userService struct {
	crudkit.Service[User, int64]
	repo Repository
}

// NewService returns a User service over repo.
func NewService(repo Repository) Service {
	return &userService{
		Service: crudkit.NewService[User, int64](repo),
		repo:    repo,
	}
}

func (s *userService) FindByEmail(ctx context.Context, email string) (*User, error) {
	return s.repo.FindByEmail(ctx, email)
}

func (s *userService) Create(ctx context.Context, model *User) (*User, error) {
	if err := validate(model); err != nil {
		return nil, err
	}
	return s.Service.Create(ctx, model)
}

func (s *userService) UpdateByID(ctx context.Context, model *User) (*User, error) {
	if err := validate(model); err != nil {
		return nil, err
	}
	return s.Service.UpdateByID(ctx, model)
}

func validate(model *User) error {
	if model == nil {
		return crudkit.NewValidationError("", "user is required")
	}
	if strings.TrimSpace(model.Name) == "" {
		return crudkit.NewValidationError("name", "cannot be empty")
	}
	return nil
}
