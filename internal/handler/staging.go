package handler

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/bookvault/inventory-service/pkg/validate"
)

const (
	coverImagesField = "coverImages"
	maxCoverImages   = 5
)

// stageCoverImages writes the attached cover images to temp files and
// returns their paths. From here on the uploader owns the files; if
// staging itself fails, everything staged so far is removed.
func (h *Handler) stageCoverImages(c echo.Context) ([]string, error) {
	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) || errors.Is(err, http.ErrMissingBoundary) {
			return nil, nil
		}
		return nil, err
	}

	files := form.File[coverImagesField]
	if len(files) == 0 {
		return nil, nil
	}
	if len(files) > maxCoverImages {
		return nil, validate.NewError(coverImagesField, fmt.Sprintf("at most %d images are allowed", maxCoverImages))
	}

	paths := make([]string, 0, len(files))
	for _, fh := range files {
		path, err := stageFile(fh)
		if err != nil {
			removeStaged(paths)
			return nil, errors.Wrap(err, "stage file")
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func stageFile(fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	dst, err := os.CreateTemp("", "cover-*"+filepath.Ext(fh.Filename))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		_ = os.Remove(dst.Name())
		return "", err
	}
	return dst.Name(), nil
}

func removeStaged(paths []string) {
	for _, p := range paths {
		_ = os.Remove(p)
	}
}
