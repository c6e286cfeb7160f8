package handler

import (
	"context"

	"github.com/bookvault/inventory-service/internal/model"
	"github.com/bookvault/inventory-service/internal/service"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

type BookService interface {
	CreateBook(ctx context.Context, req model.CreateBookRequest, files []string) (model.Book, error)
	UpdateBook(ctx context.Context, bookUid string, req model.UpdateBookRequest, files []string) (model.Book, error)
	DeleteBook(ctx context.Context, bookUid string) error
	GetBook(ctx context.Context, bookUid string) (model.Book, error)
	ListBooks(ctx context.Context, q model.ListBooksQuery) (model.ListBooks, error)
}

var _ BookService = (*service.Service)(nil)
