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
	"github.com/tomoncle/crudkit/database"
	"github.com/tomoncle/crudkit/types"
	"github.com/uptrace/bun"
)

// User is the example entity. Its id crosses the wire as a decimal string.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID    int64  `bun:"id,pk,autoincrement" json:"id,string"`
	Name  string `bun:"name,notnull" json:"name"`
	Email string `bun:"email,notnull,unique" json:"email"`
	Age   int    `bun:"age,notnull,default:0" json:"age"`

	// InvitedBy is the id of the inviting user; "" and null mean none.
	InvitedBy types.OptionalInt64 `bun:"invited_by,type:bigint,nullzero" json:"invited_by"`
}

func (u User) PrimaryKey() int64 { return u.ID }

func init() {
	database.RegisterModel((*User)(nil), 10)
}
