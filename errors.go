// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hzrd

import "errors"

// ErrInvalidThreshold is returned by [Domain.SetThreshold] when the
// requested threshold is not positive.
//
// Unlike the queue family's [code.hybscloud.com/iox] control-flow
// signals, this is an ordinary validation failure: the caller passed
// a bad configuration value, not "try again later".
var ErrInvalidThreshold = errors.New("hzrd: threshold must be positive")
