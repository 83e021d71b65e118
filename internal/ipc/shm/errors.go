/*
 *
 * Copyright 2025 vnom authors.
 *
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
 *
 */

package shm

import "errors"

// Errors returned by the constructor paths. Steady-state operations never
// return errors; they report failure as a zero length, false, or a missing
// message.
var (
	// ErrNotFound indicates no channel of the requested name exists.
	ErrNotFound = errors.New("channel not found")

	// ErrMappingFailed indicates the OS refused to create, size, or map the
	// backing object.
	ErrMappingFailed = errors.New("mapping failed")

	// ErrInvalidLayout indicates the channel header did not match the layout
	// this implementation expects (magic, version, sizes, or offsets).
	ErrInvalidLayout = errors.New("invalid channel layout")

	// ErrNameTooLong indicates the logical channel name exceeds what the
	// backing object path permits.
	ErrNameTooLong = errors.New("channel name too long")
)
