package handlers

import "time"

// CreateShortLinkRequest is the request body for creating a short link.
type CreateShortLinkRequest struct {
	Body struct {
		URL string `doc:"The URL to shorten" example:"https://example.com/very/long/path" json:"url"`
	}
}

// CreateShortLinkResponse is the response for a successfully created short link.
type CreateShortLinkResponse struct {
	Headers struct {
		Location string `doc:"The short URL location" header:"Location"`
	}
	Body struct {
		Code      string `doc:"The short code"         example:"Ab3kZ9Qx"                            json:"code"`
		ShortURL  string `doc:"The full short URL"     example:"http://localhost:8888/Ab3kZ9Qx"      json:"shortUrl"`
		TargetURL string `doc:"The normalized target"  example:"https://example.com/very/long/path"  json:"targetUrl"`
		Title     string `doc:"The fetched page title" example:"Example Domain"                      json:"title"`
	}
}

// RedirectRequest is the request for redirecting a short link.
type RedirectRequest struct {
	Code string `doc:"The short code" example:"Ab3kZ9Qx" path:"code"`
}

// RedirectResponse redirects the visitor to the target URL.
type RedirectResponse struct {
	Status  int
	Headers struct {
		Location string `doc:"The redirect target" header:"Location"`
	}
}

// LinkSummary is one owned link in a listing.
type LinkSummary struct {
	Code      string    `doc:"The short code"         json:"code"`
	ShortURL  string    `doc:"The full short URL"     json:"shortUrl"`
	TargetURL string    `doc:"The target URL"         json:"targetUrl"`
	Title     string    `doc:"The fetched page title" json:"title"`
	CreatedAt time.Time `doc:"Creation time"          json:"createdAt"`
}

// ListMyLinksResponse lists the caller's links, most recently created first.
type ListMyLinksResponse struct {
	Body struct {
		Links []LinkSummary `json:"links"`
	}
}

// VisitSummary is one recorded visit in a listing.
type VisitSummary struct {
	City      string    `doc:"Visitor city"    json:"city"`
	Region    string    `doc:"Visitor region"  json:"region"`
	Country   string    `doc:"Visitor country" json:"country"`
	CreatedAt time.Time `doc:"Click time"      json:"createdAt"`
}

// ListVisitsRequest asks for the visits of an owned link.
type ListVisitsRequest struct {
	Code string `doc:"The short code" example:"Ab3kZ9Qx" path:"code"`
}

// ListVisitsResponse lists the visits recorded for a link.
type ListVisitsResponse struct {
	Body struct {
		Code   string         `json:"code"`
		Visits []VisitSummary `json:"visits"`
	}
}
