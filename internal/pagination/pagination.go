// Package pagination normalizes page parameters, runs a combined count+fetch
// query and builds page metadata and navigation links.
package pagination

import (
	"fmt"
	"math"
	"strings"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

type SortOrder string

const (
	ASC  SortOrder = "ASC"
	DESC SortOrder = "DESC"
)

// Params are the caller-supplied paging options.
type Params struct {
	Page      int       `json:"page,omitempty"`
	Limit     int       `json:"limit,omitempty"`
	SortBy    string    `json:"sortBy,omitempty"`
	SortOrder SortOrder `json:"sortOrder,omitempty"`
}

// Normalize applies defaults and bounds. defaultOrder is used when no valid order was given.
func (p Params) Normalize(defaultOrder SortOrder) Params {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	switch {
	case p.Limit < 1:
		p.Limit = DefaultLimit
	case p.Limit > MaxLimit:
		p.Limit = MaxLimit
	}
	switch SortOrder(strings.ToUpper(string(p.SortOrder))) {
	case ASC:
		p.SortOrder = ASC
	case DESC:
		p.SortOrder = DESC
	default:
		if defaultOrder == "" {
			defaultOrder = DESC
		}
		p.SortOrder = defaultOrder
	}
	return p
}

// Offset is the number of rows skipped before the page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

type Metadata struct {
	TotalItems   int64 `json:"totalItems"`
	ItemsPerPage int   `json:"itemsPerPage"`
	TotalPages   int   `json:"totalPages"`
	CurrentPage  int   `json:"currentPage"`
}

// Links are present only when they lead somewhere: no first/previous on
// page 1 and no next/last on the final page.
type Links struct {
	HasNext  bool   `json:"hasNext"`
	First    string `json:"first,omitempty"`
	Previous string `json:"previous,omitempty"`
	Next     string `json:"next,omitempty"`
	Last     string `json:"last,omitempty"`
}

type Page[T any] struct {
	Items    []T      `json:"items"`
	Metadata Metadata `json:"metadata"`
	Links    Links    `json:"links"`
}

func BuildMetadata(totalItems int64, page, limit int) Metadata {
	totalPages := 0
	if limit > 0 {
		totalPages = int(math.Ceil(float64(totalItems) / float64(limit)))
	}
	return Metadata{
		TotalItems:   totalItems,
		ItemsPerPage: limit,
		TotalPages:   totalPages,
		CurrentPage:  page,
	}
}

func BuildLinks(basePath string, meta Metadata) Links {
	links := Links{HasNext: meta.CurrentPage < meta.TotalPages}
	link := func(page int) string {
		return fmt.Sprintf("%s?page=%d&limit=%d", basePath, page, meta.ItemsPerPage)
	}

	if meta.CurrentPage > 1 {
		links.First = link(1)
		links.Previous = link(meta.CurrentPage - 1)
	}
	if links.HasNext {
		links.Next = link(meta.CurrentPage + 1)
		links.Last = link(meta.TotalPages)
	}
	return links
}

// NewPage assembles a page from already fetched items.
func NewPage[T any](items []T, totalItems int64, params Params, basePath string) *Page[T] {
	if items == nil {
		items = []T{}
	}
	meta := BuildMetadata(totalItems, params.Page, params.Limit)
	return &Page[T]{
		Items:    items,
		Metadata: meta,
		Links:    BuildLinks(basePath, meta),
	}
}

// Map converts the items of a page, keeping metadata and links.
func Map[T, U any](p *Page[T], fn func(T) U) *Page[U] {
	out := make([]U, 0, len(p.Items))
	for _, item := range p.Items {
		out = append(out, fn(item))
	}
	return &Page[U]{Items: out, Metadata: p.Metadata, Links: p.Links}
}
