package response

import (
	"math"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100

	// MaxPage keeps Offset within int32 for any page size.
	MaxPage = math.MaxInt32 / MaxPageSize
)

// Page is the paginated list body.
type Page struct {
	Count    int         `json:"count"`
	Next     *string     `json:"next"`
	Previous *string     `json:"previous"`
	Results  interface{} `json:"results"`
}

// PageRequest is a parsed page/page_size pair.
type PageRequest struct {
	Page int
	Size int
}

// Offset returns the number of rows to skip.
func (p PageRequest) Offset() int { return (p.Page - 1) * p.Size }

// ParsePage reads page and page_size from the query string.
// ok is false when page is not a positive integer. Pages above MaxPage are clamped.
func ParsePage(c *gin.Context) (PageRequest, bool) {
	req := PageRequest{Page: 1, Size: DefaultPageSize}
	if v := c.Query("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return req, false
		}
		req.Page = min(n, MaxPage)
	}
	if v := c.Query("page_size"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			req.Size = n
		}
	}
	if req.Size > MaxPageSize {
		req.Size = MaxPageSize
	}
	return req, true
}

// InRange reports whether the requested page exists for total rows. Page 1 always exists.
func (p PageRequest) InRange(total int) bool {
	if p.Page == 1 {
		return true
	}
	if p.Size <= 0 {
		return false
	}
	return p.Page <= (total+p.Size-1)/p.Size
}

// Paginated sends a 200 page body with next/previous links built from the request URL.
func Paginated(c *gin.Context, req PageRequest, total int, results interface{}) {
	page := Page{Count: total, Results: results}
	if req.Offset()+req.Size < total {
		next := pageLink(c, req.Page+1)
		page.Next = &next
	}
	if req.Page > 1 {
		prev := pageLink(c, req.Page-1)
		page.Previous = &prev
	}
	OK(c, page)
}

func pageLink(c *gin.Context, page int) string {
	u := url.URL{Path: c.Request.URL.Path}
	q := c.Request.URL.Query()
	if page == 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(page))
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// PathID parses the named path parameter as a positive integer id.
// On failure it answers 404 and returns false.
func PathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id < 1 {
		NotFound(c, "Not found.")
		return 0, false
	}
	return id, true
}
