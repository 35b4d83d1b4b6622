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

import "strings"

// SaveOptions extends a write with uniqueness groups. Each entry of Unique is
// a comma separated list of columns that must be unique together; groups are
// checked in order.
type SaveOptions struct {
	Unique []string
}

// UniqueGroups returns the parsed column groups of the options.
func (o *SaveOptions) UniqueGroups() [][]string {
	if o == nil || len(o.Unique) == 0 {
		return nil
	}
	groups := make([][]string, 0, len(o.Unique))
	for _, u := range o.Unique {
		var cols []string
		for _, c := range strings.Split(u, ",") {
			if c = strings.TrimSpace(c); c != "" {
				cols = append(cols, c)
			}
		}
		if len(cols) > 0 {
			groups = append(groups, cols)
		}
	}
	return groups
}

// RemoveOptions switches remove and delete between a physical delete and a
// soft delete that stamps the deletion time.
type RemoveOptions struct {
	Soft bool
}

// IsSoft reports whether soft deletion was requested.
func (o *RemoveOptions) IsSoft() bool {
	return o != nil && o.Soft
}
