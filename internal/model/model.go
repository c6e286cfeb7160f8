package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type Condition string

const (
	ConditionNew  Condition = "new"
	ConditionUsed Condition = "used"
)

type Book struct {
	BookUid       string    `json:"bookUid" db:"book_uid"`
	BookName      string    `json:"bookName" db:"book_name"`
	AuthorName    string    `json:"authorName" db:"author_name"`
	CoverImages   Images    `json:"coverImages" db:"cover_images"`
	Year          int       `json:"year" db:"year"`
	Price         float64   `json:"price" db:"price"`
	Discount      float64   `json:"discount" db:"discount"`
	NumberOfPages int       `json:"numberOfPages" db:"number_of_pages"`
	Condition     Condition `json:"condition" db:"condition"`
	Description   string    `json:"description,omitempty" db:"description"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt" db:"updated_at"`
}

// Images is persisted as a jsonb column.
type Images []string

func (im Images) Value() (driver.Value, error) {
	if im == nil {
		im = Images{}
	}
	return json.Marshal(im)
}

func (im *Images) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, im)
	case string:
		return json.Unmarshal([]byte(v), im)
	case nil:
		*im = Images{}
		return nil
	}
	return fmt.Errorf("cover_images: unsupported source type %T", src)
}

type CreateBookRequest struct {
	BookName      string   `form:"bookName" json:"bookName" validate:"required,notblank"`
	AuthorName    string   `form:"authorName" json:"authorName" validate:"required,notblank"`
	Year          *int     `form:"year" json:"year" validate:"required"`
	Price         *float64 `form:"price" json:"price" validate:"required,gte=0"`
	Discount      *float64 `form:"discount" json:"discount" validate:"omitempty,gte=0,lte=100"`
	NumberOfPages *int     `form:"numberOfPages" json:"numberOfPages" validate:"required,gte=1"`
	Condition     string   `form:"condition" json:"condition" validate:"required,oneof=new used"`
	Description   string   `form:"description" json:"description"`
}

// UpdateBookRequest is a partial field set: a nil pointer means the field
// was not supplied and the stored value is kept.
type UpdateBookRequest struct {
	BookName      *string  `form:"bookName" json:"bookName" validate:"omitempty,notblank"`
	AuthorName    *string  `form:"authorName" json:"authorName" validate:"omitempty,notblank"`
	Year          *int     `form:"year" json:"year"`
	Price         *float64 `form:"price" json:"price" validate:"omitempty,gte=0"`
	Discount      *float64 `form:"discount" json:"discount" validate:"omitempty,gte=0,lte=100"`
	NumberOfPages *int     `form:"numberOfPages" json:"numberOfPages" validate:"omitempty,gte=1"`
	Condition     *string  `form:"condition" json:"condition" validate:"omitempty,oneof=new used"`
	Description   *string  `form:"description" json:"description"`
}

// ListBooksQuery carries only the filters the caller actually supplied;
// a nil filter puts no constraint on that field.
type ListBooksQuery struct {
	Author    *string
	Year      *int
	MaxPrice  *float64
	Condition *Condition

	Page   int
	Limit  int
	SortBy string
	Order  string
}

type Paging struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

type ListBooks struct {
	Paging Paging
	Items  []Book
}
