package service_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bookvault/inventory-service/internal/errs"
	"github.com/bookvault/inventory-service/internal/model"
	"github.com/bookvault/inventory-service/internal/service"
	mock_service "github.com/bookvault/inventory-service/internal/service/mocks"
	"github.com/bookvault/inventory-service/pkg/kafka"
)

func ptr[T any](v T) *T { return &v }

func newService(t *testing.T) (*service.Service, *mock_service.MockRepository, *mock_service.MockUploader, *mock_service.MockPublisher) {
	t.Helper()
	c := gomock.NewController(t)
	t.Cleanup(c.Finish)
	repo := mock_service.NewMockRepository(c)
	up := mock_service.NewMockUploader(c)
	pub := mock_service.NewMockPublisher(c)
	svc := service.NewService(repo, up, pub, zap.NewNop())
	return svc, repo, up, pub
}

func stageTempFiles(t *testing.T, n int) []string {
	t.Helper()
	dir := t.TempDir()
	paths := make([]string, 0, n)
	for i := 0; i < n; i++ {
		f, err := os.CreateTemp(dir, "cover-*.png")
		require.NoError(t, err)
		_, err = f.WriteString("png bytes")
		require.NoError(t, err)
		require.NoError(t, f.Close())
		paths = append(paths, f.Name())
	}
	return paths
}

func createReq() model.CreateBookRequest {
	return model.CreateBookRequest{
		BookName:      "The Go Programming Language",
		AuthorName:    "Alan Donovan",
		Year:          ptr(2015),
		Price:         ptr(39.99),
		NumberOfPages: ptr(380),
		Condition:     "new",
	}
}

func TestService_CreateBook_NoFiles(t *testing.T) {
	t.Parallel()
	svc, repo, _, pub := newService(t)

	repo.EXPECT().
		CreateBook(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, book model.Book) (model.Book, error) {
			require.Equal(t, model.Images{}, book.CoverImages)
			require.Zero(t, book.Discount)
			require.False(t, book.CreatedAt.IsZero())
			require.Equal(t, book.CreatedAt, book.UpdatedAt)
			book.BookUid = "7e04aa3f-5a51-41a7-9af5-5ed409eb4f45"
			return book, nil
		})
	pub.EXPECT().Publish(kafka.InventoryTopic, gomock.Any()).Return(nil)

	book, err := svc.CreateBook(context.Background(), createReq(), nil)
	require.NoError(t, err)
	require.Equal(t, "7e04aa3f-5a51-41a7-9af5-5ed409eb4f45", book.BookUid)
	require.Empty(t, book.CoverImages)
}

func TestService_CreateBook_PartialUploadFailure(t *testing.T) {
	t.Parallel()
	svc, repo, up, pub := newService(t)

	up.EXPECT().Upload(gomock.Any(), "/tmp/cover-a.png").Return("https://cdn.example.com/a.png", nil)
	up.EXPECT().Upload(gomock.Any(), "/tmp/cover-b.png").Return("", errors.New("upstream 500"))
	up.EXPECT().Upload(gomock.Any(), "/tmp/cover-c.png").Return("https://cdn.example.com/c.png", nil)

	repo.EXPECT().
		CreateBook(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, book model.Book) (model.Book, error) {
			require.Equal(t, model.Images{"https://cdn.example.com/a.png", "https://cdn.example.com/c.png"}, book.CoverImages)
			book.BookUid = "uid-1"
			return book, nil
		})
	pub.EXPECT().Publish(kafka.InventoryTopic, gomock.Any()).Return(nil)

	book, err := svc.CreateBook(context.Background(), createReq(),
		[]string{"/tmp/cover-a.png", "/tmp/cover-b.png", "/tmp/cover-c.png"})
	require.NoError(t, err)
	require.Len(t, book.CoverImages, 2)
}

func TestService_CreateBook_RemovesTempFiles(t *testing.T) {
	t.Parallel()
	svc, repo, up, pub := newService(t)

	files := stageTempFiles(t, 3)

	// the uploader owns the local file once it runs: it removes the file
	// whether the upload succeeded or not
	up.EXPECT().Upload(gomock.Any(), gomock.Any()).Times(3).
		DoAndReturn(func(_ context.Context, path string) (string, error) {
			require.NoError(t, os.Remove(path))
			if path == files[1] {
				return "", errors.New("upstream 500")
			}
			return "https://cdn.example.com/" + filepath.Base(path), nil
		})

	repo.EXPECT().
		CreateBook(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, book model.Book) (model.Book, error) {
			require.Equal(t, model.Images{
				"https://cdn.example.com/" + filepath.Base(files[0]),
				"https://cdn.example.com/" + filepath.Base(files[2]),
			}, book.CoverImages)
			book.BookUid = "uid-1"
			return book, nil
		})
	pub.EXPECT().Publish(kafka.InventoryTopic, gomock.Any()).Return(nil)

	book, err := svc.CreateBook(context.Background(), createReq(), files)
	require.NoError(t, err)
	require.Len(t, book.CoverImages, 2)
	for _, path := range files {
		require.NoFileExists(t, path)
	}
}

func TestService_CreateBook_StoreError(t *testing.T) {
	t.Parallel()
	svc, repo, _, _ := newService(t)

	repo.EXPECT().
		CreateBook(gomock.Any(), gomock.Any()).
		Return(model.Book{}, errors.New("db down"))

	_, err := svc.CreateBook(context.Background(), createReq(), nil)
	require.Error(t, err)
}

func TestService_UpdateBook_Partial(t *testing.T) {
	t.Parallel()
	svc, repo, _, pub := newService(t)

	createdAt := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	existing := model.Book{
		BookUid:       "uid-1",
		BookName:      "Old Name",
		AuthorName:    "Old Author",
		CoverImages:   model.Images{"https://cdn.example.com/old.png"},
		Year:          1999,
		Price:         10,
		Discount:      5,
		NumberOfPages: 100,
		Condition:     model.ConditionUsed,
		Description:   "old",
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
	}

	repo.EXPECT().GetBook(gomock.Any(), "uid-1").Return(existing, nil)
	repo.EXPECT().
		UpdateBook(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, book model.Book) (model.Book, error) {
			require.Equal(t, 25.5, book.Price)
			require.Equal(t, existing.BookName, book.BookName)
			require.Equal(t, existing.AuthorName, book.AuthorName)
			require.Equal(t, existing.CoverImages, book.CoverImages)
			require.Equal(t, existing.Year, book.Year)
			require.Equal(t, existing.Discount, book.Discount)
			require.Equal(t, existing.NumberOfPages, book.NumberOfPages)
			require.Equal(t, existing.Condition, book.Condition)
			require.Equal(t, existing.Description, book.Description)
			require.True(t, book.UpdatedAt.After(existing.UpdatedAt))
			return book, nil
		})
	pub.EXPECT().Publish(kafka.InventoryTopic, gomock.Any()).Return(nil)

	book, err := svc.UpdateBook(context.Background(), "uid-1",
		model.UpdateBookRequest{Price: ptr(25.5)}, nil)
	require.NoError(t, err)
	require.Equal(t, 25.5, book.Price)
}

func TestService_UpdateBook_NotFound(t *testing.T) {
	t.Parallel()
	svc, repo, _, _ := newService(t)

	repo.EXPECT().GetBook(gomock.Any(), "missing").Return(model.Book{}, errs.ErrNotFound)

	_, err := svc.UpdateBook(context.Background(), "missing",
		model.UpdateBookRequest{Price: ptr(25.5)}, nil)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestService_UpdateBook_NotFoundRemovesStagedFiles(t *testing.T) {
	t.Parallel()
	svc, repo, _, _ := newService(t)

	files := stageTempFiles(t, 2)

	repo.EXPECT().GetBook(gomock.Any(), "missing").Return(model.Book{}, errs.ErrNotFound)

	_, err := svc.UpdateBook(context.Background(), "missing",
		model.UpdateBookRequest{}, files)
	require.ErrorIs(t, err, errs.ErrNotFound)
	// the uploader never ran, the service cleans the staged files up itself
	for _, path := range files {
		require.NoFileExists(t, path)
	}
}

func TestService_UpdateBook_ReplacesImages(t *testing.T) {
	t.Parallel()
	svc, repo, up, pub := newService(t)

	existing := model.Book{
		BookUid:     "uid-1",
		BookName:    "Name",
		AuthorName:  "Author",
		CoverImages: model.Images{"https://cdn.example.com/old-1.png", "https://cdn.example.com/old-2.png"},
		Condition:   model.ConditionNew,
	}

	repo.EXPECT().GetBook(gomock.Any(), "uid-1").Return(existing, nil)
	up.EXPECT().Upload(gomock.Any(), "/tmp/new-1.png").Return("", errors.New("boom"))
	up.EXPECT().Upload(gomock.Any(), "/tmp/new-2.png").Return("", errors.New("boom"))
	repo.EXPECT().
		UpdateBook(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, book model.Book) (model.Book, error) {
			// replacement is unconditional: old images are gone even if
			// every new upload failed
			require.Equal(t, model.Images{}, book.CoverImages)
			return book, nil
		})
	pub.EXPECT().Publish(kafka.InventoryTopic, gomock.Any()).Return(nil)

	book, err := svc.UpdateBook(context.Background(), "uid-1",
		model.UpdateBookRequest{}, []string{"/tmp/new-1.png", "/tmp/new-2.png"})
	require.NoError(t, err)
	require.Empty(t, book.CoverImages)
}

func TestService_DeleteBook(t *testing.T) {
	t.Parallel()
	svc, repo, _, pub := newService(t)

	repo.EXPECT().DeleteBook(gomock.Any(), "uid-1").Return(nil)
	pub.EXPECT().Publish(kafka.InventoryTopic, gomock.Any()).Return(nil)

	require.NoError(t, svc.DeleteBook(context.Background(), "uid-1"))
}

func TestService_DeleteBook_NotFound(t *testing.T) {
	t.Parallel()
	svc, repo, _, _ := newService(t)

	repo.EXPECT().DeleteBook(gomock.Any(), "missing").Return(errs.ErrNotFound)

	require.ErrorIs(t, svc.DeleteBook(context.Background(), "missing"), errs.ErrNotFound)
}

func TestService_GetBook(t *testing.T) {
	t.Parallel()
	svc, repo, _, _ := newService(t)

	want := model.Book{BookUid: "uid-1", BookName: "Name"}
	repo.EXPECT().GetBook(gomock.Any(), "uid-1").Return(want, nil)

	got, err := svc.GetBook(context.Background(), "uid-1")
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestService_ListBooks_Paging(t *testing.T) {
	t.Parallel()
	svc, repo, _, _ := newService(t)

	q := model.ListBooksQuery{Page: 2, Limit: 10, SortBy: "bookName", Order: "asc"}
	items := make([]model.Book, 10)

	repo.EXPECT().ListBooks(gomock.Any(), q).Return(items, nil)
	repo.EXPECT().CountBooks(gomock.Any(), q).Return(25, nil)

	list, err := svc.ListBooks(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, list.Items, 10)
	require.Equal(t, model.Paging{Total: 25, Page: 2, Limit: 10, TotalPages: 3}, list.Paging)
}

func TestService_ListBooks_CountError(t *testing.T) {
	t.Parallel()
	svc, repo, _, _ := newService(t)

	q := model.ListBooksQuery{Page: 1, Limit: 10}
	repo.EXPECT().ListBooks(gomock.Any(), q).Return([]model.Book{}, nil).AnyTimes()
	repo.EXPECT().CountBooks(gomock.Any(), q).Return(0, errors.New("db down"))

	_, err := svc.ListBooks(context.Background(), q)
	require.Error(t, err)
}
