/*
 * Cadence - The resource-oriented smart contract programming language
 *
 * Copyright Flow Foundation
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *   http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package declfile

import (
	"fmt"

	"github.com/onflow/generics/errors"
)

// Error is an invalid declaration in a declaration file.
type Error struct {
	Err error
	// Path is the YAML path of the invalid declaration, e.g. `$.protocols[0].requirements[1]`
	Path   string
	Line   int
	Column int
}

var _ errors.UserError = &Error{}

func (*Error) IsUserError() {}

func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
