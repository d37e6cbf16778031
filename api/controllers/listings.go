package controllers

import (
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nmarin/marketloop-backend/api/responses"
	"github.com/nmarin/marketloop-backend/api/validators"
	"github.com/nmarin/marketloop-backend/internal/categories"
	"github.com/nmarin/marketloop-backend/internal/listings"
	"github.com/nmarin/marketloop-backend/internal/media"
	"github.com/nmarin/marketloop-backend/pkg/enums"
	pkgerrors "github.com/nmarin/marketloop-backend/pkg/errors"
	"github.com/nmarin/marketloop-backend/pkg/logger"
)

const multipartMaxMemory = 32 << 20

// ListingBrowse serves the public marketplace feed.
func ListingBrowse(svc listings.Service, catSvc categories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "listings service unavailable"))
			return
		}

		filters := listings.ListFilters{
			Search: validators.ParseQueryString(r, "search"),
		}

		if raw := validators.ParseQueryString(r, "status"); raw != "" {
			status, err := enums.ParseListingStatus(raw)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter"))
				return
			}
			filters.Status = status
		}

		if raw := validators.ParseQueryString(r, "sort"); raw != "" {
			sort, err := enums.ParseListingSort(raw)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid sort option"))
				return
			}
			filters.Sort = sort
		}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, 1000)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		filters.Limit = limit

		if slug := validators.ParseQueryString(r, "category"); slug != "" {
			if catSvc == nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "categories service unavailable"))
				return
			}
			categoryID, err := catSvc.ResolveSlug(ctx, slug)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			if categoryID == nil {
				// Unknown category slug matches nothing.
				responses.WriteSuccess(w, []listings.ListingSummaryDTO{})
				return
			}
			filters.CategoryID = categoryID
		}

		items, err := svc.List(ctx, filters)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

// ListingDetail returns one listing's full payload.
func ListingDetail(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "listings service unavailable"))
			return
		}

		id, err := pathUUID(r, "listingId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		detail, err := svc.GetByID(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

// ListingCreate accepts a multipart form with the listing fields plus image
// files, stores the images, and creates the listing.
func ListingCreate(svc listings.Service, mediaSvc media.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil || mediaSvc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "listings service unavailable"))
			return
		}

		sellerID, err := currentUserID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := r.ParseMultipartForm(multipartMaxMemory); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart form"))
			return
		}

		input := listings.CreateListingInput{
			Title:       strings.TrimSpace(r.FormValue("title")),
			Description: strings.TrimSpace(r.FormValue("description")),
			Location:    strings.TrimSpace(r.FormValue("location")),
		}

		price, err := parsePriceField(r.FormValue("price"))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		input.Price = price

		categoryID, err := parseOptionalUUIDField(r.FormValue("category_id"))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		input.CategoryID = categoryID

		uploaded, closeFiles, err := uploadFormImages(r, mediaSvc, "images")
		defer closeFiles()
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		input.Images = uploaded

		detail, err := svc.Create(ctx, sellerID, input)
		if err != nil {
			// The listing never existed, so the stored images are orphans.
			mediaSvc.DeleteObjects(ctx, objectKeys(uploaded))
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, detail)
	}
}

// SellerListings returns the caller's own listings, any status.
func SellerListings(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "listings service unavailable"))
			return
		}

		sellerID, err := currentUserID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		items, err := svc.ListBySeller(ctx, sellerID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

// ListingUpdate applies a partial multipart update. Fields absent from the
// form stay untouched; keep_image_urls, when present, prunes existing images
// down to the listed URLs.
func ListingUpdate(svc listings.Service, mediaSvc media.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil || mediaSvc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "listings service unavailable"))
			return
		}

		sellerID, err := currentUserID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		listingID, err := pathUUID(r, "listingId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := r.ParseMultipartForm(multipartMaxMemory); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart form"))
			return
		}

		var input listings.UpdateListingInput

		if values, ok := r.MultipartForm.Value["title"]; ok && len(values) > 0 {
			title := strings.TrimSpace(values[0])
			input.Title = &title
		}
		if values, ok := r.MultipartForm.Value["description"]; ok && len(values) > 0 {
			description := strings.TrimSpace(values[0])
			input.Description = &description
		}
		if values, ok := r.MultipartForm.Value["location"]; ok && len(values) > 0 {
			location := strings.TrimSpace(values[0])
			input.Location = &location
		}
		if values, ok := r.MultipartForm.Value["price"]; ok && len(values) > 0 {
			price, err := parsePriceField(values[0])
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			input.Price = &price
		}
		if values, ok := r.MultipartForm.Value["category_id"]; ok && len(values) > 0 {
			categoryID, err := parseOptionalUUIDField(values[0])
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			input.CategoryID = categoryID
		}
		if values, ok := r.MultipartForm.Value["status"]; ok && len(values) > 0 {
			status, err := enums.ParseListingStatus(strings.TrimSpace(values[0]))
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid status"))
				return
			}
			input.Status = &status
		}
		if values, ok := r.MultipartForm.Value["keep_image_urls"]; ok {
			input.KeepImagesSet = true
			for _, v := range values {
				if trimmed := strings.TrimSpace(v); trimmed != "" {
					input.KeepImageURLs = append(input.KeepImageURLs, trimmed)
				}
			}
		}

		uploaded, closeFiles, err := uploadFormImages(r, mediaSvc, "images")
		defer closeFiles()
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		input.NewImages = uploaded

		detail, err := svc.Update(ctx, sellerID, listingID, input)
		if err != nil {
			mediaSvc.DeleteObjects(ctx, objectKeys(uploaded))
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

// ListingMarkSold transitions an active listing to sold.
func ListingMarkSold(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "listings service unavailable"))
			return
		}

		sellerID, err := currentUserID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		listingID, err := pathUUID(r, "listingId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		detail, err := svc.MarkSold(ctx, sellerID, listingID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

// ListingDelete removes a listing and schedules its images for deletion.
func ListingDelete(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "listings service unavailable"))
			return
		}

		sellerID, err := currentUserID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		listingID, err := pathUUID(r, "listingId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.Delete(ctx, sellerID, listingID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"deleted": true})
	}
}

func parsePriceField(raw string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "price is required")
	}
	price, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price")
	}
	return price, nil
}

func parseOptionalUUIDField(raw string) (*uuid.UUID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}
	id, err := uuid.Parse(trimmed)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category id")
	}
	return &id, nil
}

// uploadFormImages streams the multipart files under field to the media
// host. The returned closer must run even on error paths.
func uploadFormImages(r *http.Request, mediaSvc media.Service, field string) ([]media.UploadedObject, func(), error) {
	closeAll := func() {}
	if r.MultipartForm == nil {
		return nil, closeAll, nil
	}
	headers := r.MultipartForm.File[field]
	if len(headers) == 0 {
		return nil, closeAll, nil
	}

	var opened []multipart.File
	closeAll = func() {
		for _, f := range opened {
			f.Close()
		}
	}

	files := make([]media.UploadFile, 0, len(headers))
	for _, header := range headers {
		f, err := header.Open()
		if err != nil {
			return nil, closeAll, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "reading uploaded file")
		}
		opened = append(opened, f)
		files = append(files, media.UploadFile{
			FileName:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
			Body:        f,
		})
	}

	uploaded, err := mediaSvc.Upload(r.Context(), files)
	if err != nil {
		return nil, closeAll, err
	}
	return uploaded, closeAll, nil
}

func objectKeys(objects []media.UploadedObject) []string {
	keys := make([]string, 0, len(objects))
	for _, obj := range objects {
		keys = append(keys, obj.ObjectKey)
	}
	return keys
}
