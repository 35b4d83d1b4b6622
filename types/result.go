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

package types

// Result is the outcome of a delete: DeleteResult for a physical delete,
// UpdateResult when the delete was turned into a soft delete.
type Result interface {
	Affected() int64
	isResult()
}

// InsertResult reports the rows written by an insert.
type InsertResult struct {
	RowsAffected int64
}

func (r InsertResult) Affected() int64 { return r.RowsAffected }

func (InsertResult) isResult() {}

// UpdateResult reports the rows touched by an update.
type UpdateResult struct {
	RowsAffected int64
}

func (r UpdateResult) Affected() int64 { return r.RowsAffected }

func (UpdateResult) isResult() {}

// DeleteResult reports the rows removed by a physical delete.
type DeleteResult struct {
	RowsAffected int64
}

func (r DeleteResult) Affected() int64 { return r.RowsAffected }

func (DeleteResult) isResult() {}
