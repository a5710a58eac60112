// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helper functions for tests that handle errors
// appropriately, reducing boilerplate and ensuring consistent error handling.
//
// Common helpers include filesystem setup (MustMkdirAll, MustWriteFile,
// WriteCase), a recording executor for asserting which commands ran, and a
// semaphore limiting concurrent container tests.
package testutil
