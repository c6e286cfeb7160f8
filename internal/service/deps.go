package service

import (
	"context"

	"github.com/bookvault/inventory-service/internal/model"
)

//go:generate go run github.com/golang/mock/mockgen -source=deps.go -destination=mocks/mock.go

// Repository is the record store the service persists books through.
type Repository interface {
	CreateBook(ctx context.Context, book model.Book) (model.Book, error)
	GetBook(ctx context.Context, bookUid string) (model.Book, error)
	UpdateBook(ctx context.Context, book model.Book) (model.Book, error)
	DeleteBook(ctx context.Context, bookUid string) error
	ListBooks(ctx context.Context, q model.ListBooksQuery) ([]model.Book, error)
	CountBooks(ctx context.Context, q model.ListBooksQuery) (int, error)
}

// Uploader hosts a staged local file durably and returns its URL. It must
// remove the local file on both success and failure.
type Uploader interface {
	Upload(ctx context.Context, localPath string) (string, error)
}

// Publisher emits mutation events, fire-and-forget.
type Publisher interface {
	Publish(topic string, v any) error
}
