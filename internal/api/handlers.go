// Fanscout - Supporter-Driven Music Discovery for Bandcamp
// Copyright 2026 M. Veldt (fanscout)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fanscout/fanscout

package api

import (
	"errors"
	"net/http"

	"github.com/fanscout/fanscout/internal/metrics"
	"github.com/fanscout/fanscout/internal/recommend"
)

const (
	codeInvalidParameter = "INVALID_PARAMETER"
	codeInvalidArgument  = "INVALID_ARGUMENT"
	codeUpstreamError    = "UPSTREAM_ERROR"
)

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	var (
		req recommendationsRequest
		err error
	)
	req.URL = r.URL.Query().Get("url")
	if req.Max, err = queryInt(r, "max", 0); err == nil {
		if req.MinSupporters, err = queryInt(r, "min_supporters", 0); err == nil {
			req.IncludeTags, err = queryBool(r, "include_tags", false)
		}
	}
	if err != nil {
		respondError(w, r, http.StatusBadRequest, codeInvalidParameter, err.Error())
		return
	}
	if err := validateRequest(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, codeInvalidParameter, err.Error())
		return
	}

	key := cacheKey(r)
	if data, ok := s.cacheGet(key); ok {
		respondData(w, r, data, true)
		return
	}

	results, err := s.engine.GetRecommendations(r.Context(), req.URL, recommend.OverlapOptions{
		MaxRecommendations: req.Max,
		MinSupporters:      req.MinSupporters,
		IncludeTags:        req.IncludeTags,
	}, recommend.NopProgress)
	if err != nil {
		s.respondEngineError(w, r, err)
		return
	}
	s.cacheSet(key, results)
	respondData(w, r, results, false)
}

func (s *Server) handleSimilar(w http.ResponseWriter, r *http.Request) {
	var (
		req similarRequest
		err error
	)
	req.URL = r.URL.Query().Get("url")
	if req.Max, err = queryInt(r, "max", 0); err == nil {
		if req.MinSimilarity, err = queryFloat(r, "min_similarity", 0); err == nil {
			req.MaxSupporters, err = queryInt(r, "max_supporters", 0)
		}
	}
	if err != nil {
		respondError(w, r, http.StatusBadRequest, codeInvalidParameter, err.Error())
		return
	}
	if err := validateRequest(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, codeInvalidParameter, err.Error())
		return
	}

	key := cacheKey(r)
	if data, ok := s.cacheGet(key); ok {
		respondData(w, r, data, true)
		return
	}

	results, err := s.engine.GetTagSimilarRecommendations(r.Context(), req.URL, recommend.SimilarOptions{
		MaxRecommendations: req.Max,
		MinSimilarity:      req.MinSimilarity,
		MaxSupporters:      req.MaxSupporters,
	}, recommend.NopProgress)
	if err != nil {
		s.respondEngineError(w, r, err)
		return
	}
	s.cacheSet(key, results)
	respondData(w, r, results, false)
}

func (s *Server) handleRandom(w http.ResponseWriter, r *http.Request) {
	var (
		req randomRequest
		err error
	)
	req.URL = r.URL.Query().Get("url")
	if req.Num, err = queryInt(r, "num", 10); err == nil {
		if req.NumSupporters, err = queryInt(r, "num_supporters", 0); err == nil {
			if req.MinOverlap, err = queryInt(r, "min_overlap", 0); err == nil {
				if req.Wishlist, err = queryBool(r, "wishlist", false); err == nil {
					req.Fallback, err = queryBool(r, "fallback", true)
				}
			}
		}
	}
	if err != nil {
		respondError(w, r, http.StatusBadRequest, codeInvalidParameter, err.Error())
		return
	}
	if err := validateRequest(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, codeInvalidParameter, err.Error())
		return
	}

	// Random results are intentionally uncached.
	results, err := s.engine.GetRandomItems(r.Context(), req.URL, recommend.RandomOptions{
		NumItems:      req.Num,
		NumSupporters: req.NumSupporters,
		UseWishlist:   req.Wishlist,
		MinOverlap:    req.MinOverlap,
		UseFallback:   req.Fallback,
	}, recommend.NopProgress)
	if err != nil {
		s.respondEngineError(w, r, err)
		return
	}
	respondData(w, r, results, false)
}

func (s *Server) respondEngineError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, recommend.ErrInvalidArgument) {
		respondError(w, r, http.StatusBadRequest, codeInvalidArgument, err.Error())
		return
	}
	s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("engine request failed")
	respondError(w, r, http.StatusBadGateway, codeUpstreamError, "upstream fetch failed")
}

func cacheKey(r *http.Request) string {
	return r.URL.Path + "?" + r.URL.Query().Encode()
}

func (s *Server) cacheGet(key string) (any, bool) {
	if !s.cacheOn {
		return nil, false
	}
	data, ok := s.cache.Get(key)
	if ok {
		metrics.CacheHits.WithLabelValues("responses").Inc()
	} else {
		metrics.CacheMisses.WithLabelValues("responses").Inc()
	}
	metrics.CacheEntries.WithLabelValues("responses").Set(float64(s.cache.Len()))
	return data, ok
}

func (s *Server) cacheSet(key string, data any) {
	if !s.cacheOn {
		return
	}
	s.cache.Set(key, data)
	metrics.CacheEntries.WithLabelValues("responses").Set(float64(s.cache.Len()))
}
