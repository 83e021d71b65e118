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

import "runtime"

// cpuRelax yields inside a busy-wait loop. Retry loops in this package are
// bounded by the pace of the peer (publish frequency, consumer drain rate),
// so yielding the processor keeps a stalled peer from starving the host.
func cpuRelax() {
	runtime.Gosched()
}
