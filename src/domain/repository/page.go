package repository

import "encoding/json"

type Page struct {
	Limit  int
	Offset int
	Total  int
}

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 500
)

// NewPage clamps limit and offset into their valid ranges.
func NewPage(limit, offset int) *Page {
	if limit <= 0 {
		limit = DefaultPageLimit
	} else if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	if offset < 0 {
		offset = 0
	}
	return &Page{Limit: limit, Offset: offset}
}

// Slice returns the bounds of the page within n items and records n as the total.
func (self *Page) Slice(n int) (from, to int) {
	self.Total = n
	from = self.Offset
	if from > n {
		from = n
	}
	to = from + self.Limit
	if to > n {
		to = n
	}
	return
}

func (self Page) Number() int {
	number := 1
	for ; number*self.Limit <= self.Offset; number += 1 {
	}
	return number
}

func (self Page) Pages() int {
	pages := self.Total / self.Limit
	if self.Total%self.Limit != 0 {
		pages += 1
	}
	return pages
}

func (self Page) PrevOffset() *int {
	offset := self.Offset - self.Limit
	if offset < 0 {
		offset = 0
	}
	if offset == self.Offset {
		return nil
	}
	return &offset
}

func (self Page) NextOffset() *int {
	offset := self.Offset + self.Limit
	if offset >= self.Total {
		return nil
	}
	return &offset
}

func (self *Page) MarshalJSON() ([]byte, error) {
	if self == nil {
		return []byte("null"), nil
	}
	return json.Marshal(map[string]int{
		"offset": self.Offset,
		"limit":  self.Limit,
		"total":  self.Total,
	})
}
