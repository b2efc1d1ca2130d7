/*
Copyright 2011-2026 Frederic Langlet
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
you may obtain a copy of the License at

                http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package io

import "runtime"

// doGosched yields the processor while a task spins on the ordering
// barrier. Chosen over a condition variable because the wait is expected to
// be short: a task only waits for its immediate predecessor to finish
// writing its block header and handing its payload to the entropy coder.
func doGosched() {
	runtime.Gosched()
}
