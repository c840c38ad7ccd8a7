// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build race

package hzrd

// RaceEnabled is true when the race detector is active.
// Used by stress tests to shorten or skip runs that rely on timing-based
// convergence (e.g. waiting for a scan to reclaim a node), which the race
// detector's instrumentation can slow down enough to flake.
const RaceEnabled = true
