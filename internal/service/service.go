package service

import (
	"context"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bookvault/inventory-service/internal/model"
	"github.com/bookvault/inventory-service/pkg/breaker"
	"github.com/bookvault/inventory-service/pkg/kafka"
)

const (
	uploadRecordLength  = 20
	uploadOpenTimeout   = 30 * time.Second
	uploadFailThreshold = 0.5
	uploadRecoveryCalls = 3
)

type Service struct {
	repo      Repository
	uploader  Uploader
	publisher Publisher
	cb        breaker.CircuitBreaker
	log       *zap.Logger
}

func NewService(repo Repository, uploader Uploader, publisher Publisher, log *zap.Logger) *Service {
	return &Service{
		repo:      repo,
		uploader:  uploader,
		publisher: publisher,
		cb:        breaker.New(uploadRecordLength, uploadOpenTimeout, uploadFailThreshold, uploadRecoveryCalls),
		log:       log.Named("svc"),
	}
}

func (s *Service) CreateBook(ctx context.Context, req model.CreateBookRequest, files []string) (model.Book, error) {
	now := time.Now().UTC()
	book := model.Book{
		BookName:      strings.TrimSpace(req.BookName),
		AuthorName:    strings.TrimSpace(req.AuthorName),
		CoverImages:   s.uploadAll(ctx, files),
		Year:          *req.Year,
		Price:         *req.Price,
		NumberOfPages: *req.NumberOfPages,
		Condition:     model.Condition(req.Condition),
		Description:   strings.TrimSpace(req.Description),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if req.Discount != nil {
		book.Discount = *req.Discount
	}

	created, err := s.repo.CreateBook(ctx, book)
	if err != nil {
		return model.Book{}, err
	}
	s.publish(kafka.EventBookCreated, created.BookUid)

	return created, nil
}

func (s *Service) UpdateBook(ctx context.Context, bookUid string, req model.UpdateBookRequest, files []string) (model.Book, error) {
	book, err := s.repo.GetBook(ctx, bookUid)
	if err != nil {
		// the staged files are still ours until the uploader takes them
		removeFiles(files)
		return model.Book{}, err
	}

	if req.BookName != nil {
		book.BookName = strings.TrimSpace(*req.BookName)
	}
	if req.AuthorName != nil {
		book.AuthorName = strings.TrimSpace(*req.AuthorName)
	}
	if req.Year != nil {
		book.Year = *req.Year
	}
	if req.Price != nil {
		book.Price = *req.Price
	}
	if req.Discount != nil {
		book.Discount = *req.Discount
	}
	if req.NumberOfPages != nil {
		book.NumberOfPages = *req.NumberOfPages
	}
	if req.Condition != nil {
		book.Condition = model.Condition(*req.Condition)
	}
	if req.Description != nil {
		book.Description = strings.TrimSpace(*req.Description)
	}
	if len(files) > 0 {
		// attached files replace the whole previous set, no merging
		book.CoverImages = s.uploadAll(ctx, files)
	}
	book.UpdatedAt = time.Now().UTC()

	updated, err := s.repo.UpdateBook(ctx, book)
	if err != nil {
		return model.Book{}, err
	}
	s.publish(kafka.EventBookUpdated, updated.BookUid)

	return updated, nil
}

func (s *Service) DeleteBook(ctx context.Context, bookUid string) error {
	if err := s.repo.DeleteBook(ctx, bookUid); err != nil {
		return err
	}
	s.publish(kafka.EventBookDeleted, bookUid)
	return nil
}

func (s *Service) GetBook(ctx context.Context, bookUid string) (model.Book, error) {
	return s.repo.GetBook(ctx, bookUid)
}

func (s *Service) ListBooks(ctx context.Context, q model.ListBooksQuery) (model.ListBooks, error) {
	var (
		books []model.Book
		total int
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		books, err = s.repo.ListBooks(ctx, q)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.repo.CountBooks(ctx, q)
		return err
	})
	if err := g.Wait(); err != nil {
		return model.ListBooks{}, err
	}

	return model.ListBooks{
		Paging: model.Paging{
			Total:      total,
			Page:       q.Page,
			Limit:      q.Limit,
			TotalPages: (total + q.Limit - 1) / q.Limit,
		},
		Items: books,
	}, nil
}

// uploadAll fans the staged files out to the uploader concurrently and
// waits for the whole batch. A failed upload drops its image from the
// result; it never fails the request.
func (s *Service) uploadAll(ctx context.Context, files []string) model.Images {
	results := make([]string, len(files))
	var wg sync.WaitGroup
	for i, path := range files {
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			err := s.cb.Call(func() error {
				url, err := s.uploader.Upload(ctx, path)
				if err != nil {
					return err
				}
				results[i] = url
				return nil
			})
			if err != nil {
				if errors.Is(err, breaker.ErrOpen) {
					// the uploader never ran, so the temp file is still ours
					_ = os.Remove(path)
				}
				s.log.Warn("cover image upload failed", zap.String("path", path), zap.Error(err))
			}
		}(i, path)
	}
	wg.Wait()

	urls := make(model.Images, 0, len(files))
	for _, url := range results {
		if url != "" {
			urls = append(urls, url)
		}
	}
	return urls
}

func removeFiles(paths []string) {
	for _, p := range paths {
		_ = os.Remove(p)
	}
}

func (s *Service) publish(typ kafka.EventType, bookUid string) {
	event := kafka.BookEvent{Type: typ, BookUid: bookUid, At: time.Now().UTC()}
	if err := s.publisher.Publish(kafka.InventoryTopic, event); err != nil {
		s.log.Warn("publish event", zap.String("type", string(typ)), zap.Error(err))
	}
}
