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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/crudkit"
)

// fakeRepository counts calls; anything not overridden panics through the
// nil embedded interface.
type fakeRepository struct {
	Repository

	creates int
	updates int
	byEmail map[string]*User
}

func (f *fakeRepository) Create(_ context.Context, u *User) (*User, error) {
	f.creates++
	stored := *u
	stored.ID = int64(f.creates)
	return &stored, nil
}

func (f *fakeRepository) UpdateByID(_ context.Context, u *User) (*User, error) {
	f.updates++
	return u, nil
}

func (f *fakeRepository) FindByEmail(_ context.Context, email string) (*User, error) {
	return f.byEmail[email], nil
}

func TestCreateRejectsEmptyName(t *testing.T) {
	for _, name := range []string{"", "   "} {
		repo := &fakeRepository{}
		svc := NewService(repo)

		_, err := svc.Create(context.Background(), &User{Name: name, Email: "a@example.com"})

		var ve *crudkit.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "name", ve.Field)
		assert.Zero(t, repo.creates, "repository must not be called")
	}
}

func TestCreateNilUser(t *testing.T) {
	repo := &fakeRepository{}
	_, err := NewService(repo).Create(context.Background(), nil)

	assert.True(t, crudkit.IsValidationError(err))
	assert.Zero(t, repo.creates)
}

func TestCreateForwardsValidUser(t *testing.T) {
	repo := &fakeRepository{}
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), &User{Name: "Ada", Email: "ada@example.com"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)
	assert.Equal(t, 1, repo.creates)
}

func TestUpdateRejectsEmptyName(t *testing.T) {
	repo := &fakeRepository{}
	svc := NewService(repo)

	_, err := svc.UpdateByID(context.Background(), &User{ID: 1})
	assert.True(t, crudkit.IsValidationError(err))
	assert.Zero(t, repo.updates)

	_, err = svc.UpdateByID(context.Background(), &User{ID: 1, Name: "Ada"})
	require.NoError(t, err)
	assert.Equal(t, 1, repo.updates)
}

func TestFindByEmailUsesRepository(t *testing.T) {
	ada := &User{ID: 3, Name: "Ada", Email: "ada@example.com"}
	svc := NewService(&fakeRepository{byEmail: map[string]*User{ada.Email: ada}})

	got, err := svc.FindByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.Same(t, ada, got)

	got, err = svc.FindByEmail(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, got)
}
