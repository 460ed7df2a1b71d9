// Copyright (c) CropSync
// SPDX-License-Identifier: Apache-2.0

package errors_test

import (
	"fmt"
	"testing"

	"github.com/cropsync/cropsync/pkg/errors"
	"github.com/stretchr/testify/assert"
)

var (
	err0 = errors.New("0")
	err1 = errors.New("1")
	err2 = errors.New("2")
)

func TestWrap(t *testing.T) {
	cases := []struct {
		desc    string
		wrapper error
		err     error
		want    string
	}{
		{"wrap error with error", err1, err0, "1 : 0"},
		{"wrap nil with error", nil, err0, ""},
		{"wrap error with nil", err1, nil, "1"},
		{"wrap nested", errors.Wrap(err2, err1), err0, "2 : 1 : 0"},
	}

	for _, tc := range cases {
		wrapped := errors.Wrap(tc.wrapper, tc.err)
		if tc.wrapper == nil {
			assert.Nil(t, wrapped, tc.desc)
			continue
		}
		assert.Equal(t, tc.want, wrapped.Error(), fmt.Sprintf("%s: expected %q got %q", tc.desc, tc.want, wrapped.Error()))
	}
}

func TestContains(t *testing.T) {
	cases := []struct {
		desc      string
		container error
		contained error
		contains  bool
	}{
		{"nil contains nil", nil, nil, true},
		{"nil contains error", nil, err0, false},
		{"error contains nil", err0, nil, false},
		{"error contains itself", err0, err0, true},
		{"wrapped contains wrapper", errors.Wrap(err1, err0), err1, true},
		{"wrapped contains wrapped", errors.Wrap(err1, err0), err0, true},
		{"wrapped does not contain other", errors.Wrap(err1, err0), err2, false},
		{"doubly wrapped contains innermost", errors.Wrap(err2, errors.Wrap(err1, err0)), err0, true},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.contains, errors.Contains(tc.container, tc.contained), tc.desc)
	}
}

func TestUnwrap(t *testing.T) {
	wrapped := errors.Wrap(err1, err0)
	wrapper, err := errors.Unwrap(wrapped)
	assert.Equal(t, err1.Msg(), wrapper.Error())
	assert.Equal(t, err0.Msg(), err.Error())
}
