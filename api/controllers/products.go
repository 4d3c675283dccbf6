package controllers

import (
	"errors"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/shopcase-backend/api/responses"
	"github.com/angelmondragon/shopcase-backend/api/validators"
	productsvc "github.com/angelmondragon/shopcase-backend/internal/products"
	pkgerrors "github.com/angelmondragon/shopcase-backend/pkg/errors"
	"github.com/angelmondragon/shopcase-backend/pkg/logger"
)

// parseFormMemory caps how much of a multipart body is buffered in memory
// before spilling to temp files.
const parseFormMemory = 4 << 20

// ListProducts returns all products, newest first.
func ListProducts(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		list, err := svc.ListProducts(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

// GetProduct returns a single product by id.
func GetProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		id, err := validators.ParsePathID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.GetProduct(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

// CreateProduct handles the multipart create payload: name, price, image.
func CreateProduct(svc productsvc.Service, logg *logger.Logger, maxBodyBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		input, cleanup, err := decodeProductPayload(w, r, maxBodyBytes)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer cleanup()

		if input.Image == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "image is required").
				WithDetails(map[string]string{"image": "is required"}))
			return
		}

		product, err := svc.CreateProduct(r.Context(), productsvc.CreateProductInput{
			Name:  input.Name,
			Price: input.Price,
			Image: input.Image,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

// UpdateProduct handles the multipart update payload. The image part is
// optional; omitting it keeps the stored file.
func UpdateProduct(svc productsvc.Service, logg *logger.Logger, maxBodyBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		id, err := validators.ParsePathID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, cleanup, err := decodeProductPayload(w, r, maxBodyBytes)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer cleanup()

		product, err := svc.UpdateProduct(r.Context(), id, productsvc.UpdateProductInput{
			Name:  input.Name,
			Price: input.Price,
			Image: input.Image,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

// DeleteProduct removes a product row and its stored image.
func DeleteProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		id, err := validators.ParsePathID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.DeleteProduct(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

type productPayload struct {
	Name  string
	Price decimal.Decimal
	Image *productsvc.ImageUpload
}

func decodeProductPayload(w http.ResponseWriter, r *http.Request, maxBodyBytes int64) (*productPayload, func(), error) {
	noop := func() {}

	if maxBodyBytes > 0 {
		// headroom for the non-file fields and multipart framing
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes+(1<<20))
	}

	if err := r.ParseMultipartForm(parseFormMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, noop, pkgerrors.Wrap(pkgerrors.CodePayloadTooLarge, err, "request body too large")
		}
		return nil, noop, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "multipart form expected")
	}

	form, err := validators.DecodeProductForm(r)
	if err != nil {
		return nil, noop, err
	}

	price, err := validators.ParsePrice(form.Price)
	if err != nil {
		return nil, noop, err
	}

	payload := &productPayload{Name: form.Name, Price: price}

	header := validators.FormFile(r, "image")
	if header == nil {
		return payload, noop, nil
	}

	file, err := header.Open()
	if err != nil {
		return nil, noop, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unreadable image upload")
	}

	payload.Image = &productsvc.ImageUpload{
		Reader:   file,
		Filename: header.Filename,
		MimeType: header.Header.Get("Content-Type"),
	}
	return payload, func() { file.Close() }, nil
}
