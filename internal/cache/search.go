// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"context"

	"github.com/apex/log"
)

// LookupFunc matches Backend.Lookup.
type LookupFunc func(ctx context.Context, key string, prefix bool) (string, bool, error)

// Search tries key exactly, then each fallback as a prefix, and returns the
// first hit. A total miss returns "" and no error.
func Search(ctx context.Context, lookup LookupFunc, key string, fallbacks []string) (string, error) {
	if match, ok, err := lookup(ctx, key, false); err != nil {
		return "", err
	} else if ok {
		return match, nil
	}

	for _, prefix := range fallbacks {
		match, ok, err := lookup(ctx, prefix, true)
		if err != nil {
			return "", err
		}
		if ok {
			log.Debugf("fallback %s matched %s", prefix, match)
			return match, nil
		}
	}

	return "", nil
}
