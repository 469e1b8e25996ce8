package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// RegisterRoutes registers all short link routes.
func RegisterRoutes(api huma.API, h *LinkHandler) {
	huma.Register(api, huma.Operation{
		Method:      http.MethodPost,
		Path:        "/shorten",
		Summary:     "Create short link",
		Description: "Validates and shortens the submitted URL, then best-effort fetches its page title.",
		Tags:        []string{"Links"},
	}, h.CreateShortLink)

	huma.Register(api, huma.Operation{
		Method:      http.MethodGet,
		Path:        "/myurls",
		Summary:     "List my links",
		Description: "Lists the links created with the caller's owner token, most recent first.",
		Tags:        []string{"Links"},
	}, h.ListMyLinks)

	huma.Register(api, huma.Operation{
		Method:      http.MethodGet,
		Path:        "/myurls/{code}/visits",
		Summary:     "List visits for a link",
		Description: "Lists recorded visits for a link the caller owns.",
		Tags:        []string{"Visits"},
	}, h.ListVisits)

	huma.Register(api, huma.Operation{
		Method:      http.MethodGet,
		Path:        "/{code}",
		Summary:     "Redirect to target URL",
		Description: "Redirects to the target URL associated with the short code and records the visit.",
		Tags:        []string{"Links"},
	}, h.RedirectToTarget)
}
