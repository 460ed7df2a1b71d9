// Copyright (c) CropSync
// SPDX-License-Identifier: Apache-2.0

// Package cropsync contains definitions shared by all CropSync services,
// such as the ID provider and HTTP response interfaces.
package cropsync
