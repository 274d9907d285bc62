package fuelfinder

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/tidwall/gjson"
)

// batchItemPaths is the ordered chain of envelope shapes a page may arrive
// in. The first matching array wins.
var batchItemPaths = []string{"data", "data.items", "data.records", "items", "records"}

// FetchAllBatches fetches every page of a paginated endpoint, requesting
// batch-number 1, 2, ... until the provider signals the last page. Explicit
// pagination metadata is preferred; without it, a batch shorter than the
// fixed page size of 500 is treated as the last one.
func (c *Client) FetchAllBatches(ctx context.Context, token, path string, params url.Values) ([][]byte, error) {
	headers := map[string]string{"Authorization": "Bearer " + token}

	var all [][]byte
	for batch := 1; ; batch++ {
		query := url.Values{}
		for k, vs := range params {
			query[k] = vs
		}
		query.Set("batch-number", strconv.Itoa(batch))

		body, err := c.requestJSON(ctx, http.MethodGet, path, headers, query, nil, fetchRetries)
		if err != nil {
			return nil, fmt.Errorf("fetching batch %d: %w", batch, err)
		}

		items, hasMore := extractBatchItems(body)
		all = append(all, items...)

		if hasMore != nil {
			if !*hasMore {
				break
			}
		} else if len(items) < pageSize {
			// Older API versions return a short batch at the end.
			break
		}
	}

	c.logger.Debug().
		Str("path", path).
		Int("records", len(all)).
		Msg("fetched all batches")
	return all, nil
}

// extractBatchItems pulls the record array out of a page response. Supported
// shapes: a top-level array, {"data": [...]}, {"data": {"items"|"records":
// [...]}}, and bare {"items"|"records": [...]}. The second return value is
// the explicit has-more signal, nil when the response carries none.
func extractBatchItems(body []byte) ([][]byte, *bool) {
	root := gjson.ParseBytes(body)
	if root.IsArray() {
		return rawObjects(root), nil
	}
	if !root.IsObject() {
		return nil, nil
	}
	for _, path := range batchItemPaths {
		if arr := root.Get(path); arr.IsArray() {
			return rawObjects(arr), extractPagination(root)
		}
	}
	return nil, extractPagination(root)
}

// extractPagination reads the explicit continuation flag from a pagination
// object at the top level or under "data".
func extractPagination(root gjson.Result) *bool {
	pg := root.Get("pagination")
	if !pg.IsObject() {
		pg = root.Get("data.pagination")
	}
	if !pg.IsObject() {
		return nil
	}
	if v := pg.Get("has_next"); v.Exists() {
		b := v.Bool()
		return &b
	}
	if v := pg.Get("has_next_page"); v.Exists() {
		b := v.Bool()
		return &b
	}
	page, total := pg.Get("page"), pg.Get("total_pages")
	if page.Exists() && total.Exists() {
		b := page.Int() < total.Int()
		return &b
	}
	return nil
}

// rawObjects returns the raw JSON of each object element, dropping anything
// that is not an object.
func rawObjects(arr gjson.Result) [][]byte {
	elems := arr.Array()
	out := make([][]byte, 0, len(elems))
	for _, e := range elems {
		if e.IsObject() {
			out = append(out, []byte(e.Raw))
		}
	}
	return out
}
