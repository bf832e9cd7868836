package transport

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/ds124wfegd/instafilter/internal/entity"
	"github.com/ds124wfegd/instafilter/internal/pkg/filter"
	"github.com/gin-gonic/gin"
)

func (h *FilterHandler) ListFilters(c *gin.Context) {
	c.JSON(http.StatusOK, entity.FilterListResponse{Filters: h.service.Filters()})
}

// ApplyFilter returns the filtered image as an attachment, or as a JSON data
// URI with ?output=datauri.
func (h *FilterHandler) ApplyFilter(c *gin.Context) {
	name := c.PostForm("filter")
	c.Set("filter", name)

	file, err := c.FormFile("image")
	if err != nil {
		respondError(c, uploadError(err))
		return
	}

	data, err := readUpload(file, h.config.MaxUploadSize)
	if err != nil {
		respondError(c, err)
		return
	}

	out, err := h.service.Apply(c.Request.Context(), name, data)
	if err != nil {
		respondError(c, err)
		return
	}

	if c.Query("output") == "datauri" {
		c.JSON(http.StatusOK, entity.DataURIResponse{
			Name:    file.Filename,
			Filter:  name,
			DataURI: h.dataURI(out),
		})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", resultName(file.Filename, name, h.config.Format.Extension())))
	c.Data(http.StatusOK, h.config.Format.ContentType(), out)
}

// ApplyBatch filters every file of the images field with one filter.
func (h *FilterHandler) ApplyBatch(c *gin.Context) {
	name := c.PostForm("filter")
	c.Set("filter", name)

	form, err := c.MultipartForm()
	if err != nil {
		respondError(c, uploadError(err))
		return
	}

	var files []*multipart.FileHeader
	files = append(files, form.File["images"]...)
	files = append(files, form.File["images[]"]...)
	if len(files) == 0 {
		respondError(c, entity.ErrEmptyUpload)
		return
	}
	if h.config.MaxBatchSize > 0 && len(files) > h.config.MaxBatchSize {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("too many files: %d, limit %d", len(files), h.config.MaxBatchSize),
		})
		return
	}

	items := make([]filter.BatchItem, 0, len(files))
	for _, f := range files {
		data, err := readUpload(f, h.config.MaxUploadSize)
		if err != nil {
			respondError(c, fmt.Errorf("%s: %w", f.Filename, err))
			return
		}
		items = append(items, filter.BatchItem{Name: f.Filename, Data: data})
	}

	results, err := h.service.ApplyBatch(c.Request.Context(), name, items)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := entity.BatchResponse{Filter: name, Results: make([]entity.DataURIResponse, 0, len(results))}
	for _, r := range results {
		item := entity.DataURIResponse{Name: r.Name, Filter: name}
		if r.Err != nil {
			item.Error = r.Err.Error()
		} else {
			item.DataURI = h.dataURI(r.Data)
		}
		resp.Results = append(resp.Results, item)
	}
	c.JSON(http.StatusOK, resp)
}

func (h *FilterHandler) dataURI(data []byte) string {
	return "data:" + h.config.Format.ContentType() + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func readUpload(file *multipart.FileHeader, limit int64) ([]byte, error) {
	if limit > 0 && file.Size > limit {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", errTooLarge, file.Size, limit)
	}
	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, entity.ErrEmptyUpload
	}
	return data, nil
}

func uploadError(err error) error {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return fmt.Errorf("%w: limit %d", errTooLarge, tooLarge.Limit)
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		return fmt.Errorf("%w: no image file provided", entity.ErrEmptyUpload)
	default:
		return fmt.Errorf("%w: %v", entity.ErrEmptyUpload, err)
	}
}

// resultName turns "holiday.png" and "pencil sketch" into
// "holiday_pencil-sketch.jpg".
func resultName(original, filterName, ext string) string {
	base := strings.TrimSuffix(filepath.Base(original), filepath.Ext(original))
	if base == "" || base == "." || base == "/" {
		base = "image"
	}
	slug := filterName
	if k, err := filter.Parse(filterName); err == nil {
		slug = k.Slug()
	}
	return base + "_" + slug + ext
}
