// Fanscout - Supporter-Driven Music Discovery for Bandcamp
// Copyright 2026 M. Veldt (fanscout)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fanscout/fanscout

package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// recommendationsRequest holds query parameters for the overlap endpoint.
type recommendationsRequest struct {
	URL           string `validate:"required,url"`
	Max           int    `validate:"min=0"`
	MinSupporters int    `validate:"min=0"`
	IncludeTags   bool
}

// similarRequest holds query parameters for the tag similarity endpoint.
type similarRequest struct {
	URL           string  `validate:"required,url"`
	Max           int     `validate:"min=0"`
	MinSimilarity float64 `validate:"min=0,max=1"`
	MaxSupporters int     `validate:"min=0"`
}

// randomRequest holds query parameters for the random items endpoint.
type randomRequest struct {
	URL           string `validate:"required,url"`
	Num           int    `validate:"required,min=1,max=100"`
	NumSupporters int    `validate:"min=0"`
	Wishlist      bool
	MinOverlap    int `validate:"min=0"`
	Fallback      bool
}

func validateRequest(v any) error {
	if err := validate.Struct(v); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
			e := errs[0]
			return fmt.Errorf("parameter %s failed %s validation", e.Field(), e.Tag())
		}
		return err
	}
	return nil
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parameter %s must be an integer", name)
	}
	return v, nil
}

func queryFloat(r *http.Request, name string, def float64) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("parameter %s must be a number", name)
	}
	return v, nil
}

func queryBool(r *http.Request, name string, def bool) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def, fmt.Errorf("parameter %s must be a boolean", name)
	}
	return v, nil
}
