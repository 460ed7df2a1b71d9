// Copyright (c) CropSync
// SPDX-License-Identifier: Apache-2.0

// Package farm contains the domain concept definitions of the CropSync
// backend: devices, sensors, readings, thresholds and outbound control
// commands, together with the management service operating on them.
package farm
