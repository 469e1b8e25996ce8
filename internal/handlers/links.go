package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/miniurl/miniurl/internal/shortener"
	"go.uber.org/zap"
)

// LinkHandler exposes the shortener service over HTTP.
type LinkHandler struct {
	service *shortener.Service
	baseURL string
	logger  *zap.Logger
}

// NewLinkHandler creates a new link handler.
func NewLinkHandler(service *shortener.Service, baseURL string, logger *zap.Logger) *LinkHandler {
	return &LinkHandler{
		service: service,
		baseURL: baseURL,
		logger:  logger,
	}
}

func (h *LinkHandler) shortURL(code shortener.Code) string {
	return fmt.Sprintf("%s/%s", h.baseURL, code)
}

// CreateShortLink validates and shortens the submitted URL.
func (h *LinkHandler) CreateShortLink(ctx context.Context, req *CreateShortLinkRequest) (*CreateShortLinkResponse, error) {
	meta := RequestMetaFromContext(ctx)

	link, err := h.service.Create(ctx, req.Body.URL, meta.OwnerToken)
	if err != nil {
		var invalid *shortener.InvalidURLError
		if errors.As(err, &invalid) {
			return nil, huma.Error422UnprocessableEntity(invalid.Error())
		}

		h.logger.Error("failed to create short link", zap.Error(err))

		return nil, huma.Error500InternalServerError("failed to create short link")
	}

	resp := &CreateShortLinkResponse{}
	resp.Headers.Location = h.shortURL(link.Code)
	resp.Body.Code = string(link.Code)
	resp.Body.ShortURL = h.shortURL(link.Code)
	resp.Body.TargetURL = link.TargetURL
	resp.Body.Title = link.Title

	return resp, nil
}

// RedirectToTarget resolves the code and redirects the visitor. Visit
// recording happens inside the service and never blocks the redirect.
func (h *LinkHandler) RedirectToTarget(ctx context.Context, req *RedirectRequest) (*RedirectResponse, error) {
	meta := RequestMetaFromContext(ctx)

	target, err := h.service.Resolve(ctx, shortener.Code(req.Code), meta.ClientIP)
	if err != nil {
		if errors.Is(err, shortener.ErrNotFound) {
			return nil, huma.Error404NotFound("short link not found")
		}

		h.logger.Error("failed to resolve short link",
			zap.String("code", req.Code),
			zap.Error(err),
		)

		return nil, huma.Error500InternalServerError("failed to resolve short link")
	}

	resp := &RedirectResponse{
		Status: http.StatusMovedPermanently,
	}
	resp.Headers.Location = target

	return resp, nil
}

// ListMyLinks lists the caller's links, most recently created first.
func (h *LinkHandler) ListMyLinks(ctx context.Context, _ *struct{}) (*ListMyLinksResponse, error) {
	meta := RequestMetaFromContext(ctx)

	links, err := h.service.ListOwnerLinks(ctx, meta.OwnerToken)
	if err != nil {
		h.logger.Error("failed to list owner links", zap.Error(err))

		return nil, huma.Error500InternalServerError("failed to list links")
	}

	resp := &ListMyLinksResponse{}
	resp.Body.Links = make([]LinkSummary, 0, len(links))

	for _, link := range links {
		resp.Body.Links = append(resp.Body.Links, LinkSummary{
			Code:      string(link.Code),
			ShortURL:  h.shortURL(link.Code),
			TargetURL: link.TargetURL,
			Title:     link.Title,
			CreatedAt: link.CreatedAt,
		})
	}

	return resp, nil
}

// ListVisits lists the visits of an owned link. A foreign owner token is an
// access failure, not a not-found.
func (h *LinkHandler) ListVisits(ctx context.Context, req *ListVisitsRequest) (*ListVisitsResponse, error) {
	meta := RequestMetaFromContext(ctx)

	visits, err := h.service.ListVisits(ctx, shortener.Code(req.Code), meta.OwnerToken)
	if err != nil {
		switch {
		case errors.Is(err, shortener.ErrNotFound):
			return nil, huma.Error404NotFound("short link not found")
		case errors.Is(err, shortener.ErrAccessDenied):
			return nil, huma.Error403Forbidden("not the owner of this link")
		default:
			h.logger.Error("failed to list visits",
				zap.String("code", req.Code),
				zap.Error(err),
			)

			return nil, huma.Error500InternalServerError("failed to list visits")
		}
	}

	resp := &ListVisitsResponse{}
	resp.Body.Code = req.Code
	resp.Body.Visits = make([]VisitSummary, 0, len(visits))

	for _, visit := range visits {
		resp.Body.Visits = append(resp.Body.Visits, VisitSummary{
			City:      visit.City,
			Region:    visit.Region,
			Country:   visit.Country,
			CreatedAt: visit.CreatedAt,
		})
	}

	return resp, nil
}
