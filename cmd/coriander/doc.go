// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the coriander command tree.
//
// Every command receives an App, the composition root holding the config
// provider and output streams. Per-invocation state (configuration, logger,
// executor) is assembled by App.session from the global flags.
package cmd
