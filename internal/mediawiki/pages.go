package mediawiki

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"strconv"
	"strings"

	"github.com/nao1215/wikibots/internal/model"
)

type listResponse struct {
	Continue map[string]any             `json:"continue"`
	Query    map[string]json.RawMessage `json:"query"`
}

type listEntry struct {
	PageID int64  `json:"pageid"`
	NS     int    `json:"ns"`
	Title  string `json:"title"`
}

// Search yields the pages matching a CirrusSearch query in namespace ns.
func (c *Client) Search(ctx context.Context, query string, ns int) iter.Seq2[*model.Page, error] {
	return c.list(ctx, "search", map[string]string{
		"action":      "query",
		"list":        "search",
		"srsearch":    query,
		"srnamespace": strconv.Itoa(ns),
		"srlimit":     "max",
		"srinfo":      "",
		"srprop":      "",
	})
}

// CategoryMembers yields the members of category in namespace ns.
// The "Category:" prefix is optional.
func (c *Client) CategoryMembers(ctx context.Context, category string, ns int) iter.Seq2[*model.Page, error] {
	if !strings.HasPrefix(category, "Category:") {
		category = "Category:" + category
	}
	return c.list(ctx, "categorymembers", map[string]string{
		"action":      "query",
		"list":        "categorymembers",
		"cmtitle":     category,
		"cmnamespace": strconv.Itoa(ns),
		"cmlimit":     "max",
		"cmprop":      "ids|title",
	})
}

// list pages through a list module, following continuation until the
// consumer stops or the list is exhausted.
func (c *Client) list(ctx context.Context, module string, params map[string]string) iter.Seq2[*model.Page, error] {
	return func(yield func(*model.Page, error) bool) {
		next := make(map[string]string, len(params))
		for k, v := range params {
			next[k] = v
		}

		for {
			var resp listResponse
			if err := c.get(ctx, next, &resp); err != nil {
				yield(nil, fmt.Errorf("list %s: %w", module, err))
				return
			}

			var entries []listEntry
			if raw, ok := resp.Query[module]; ok {
				if err := json.Unmarshal(raw, &entries); err != nil {
					yield(nil, fmt.Errorf("decode %s entries: %w", module, err))
					return
				}
			}

			for _, e := range entries {
				page := &model.Page{PageID: e.PageID, Title: e.Title, Namespace: e.NS}
				if !yield(page, nil) {
					return
				}
			}

			if len(resp.Continue) == 0 {
				return
			}
			for k, v := range resp.Continue {
				next[k] = continueValue(v)
			}
		}
	}
}

func continueValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

type pageQueryResponse struct {
	Continue map[string]any `json:"continue"`
	Query    struct {
		Pages []struct {
			PageID    int64  `json:"pageid"`
			NS        int    `json:"ns"`
			Title     string `json:"title"`
			Missing   bool   `json:"missing"`
			Invalid   bool   `json:"invalid"`
			FullURL   string `json:"fullurl"`
			Revisions []struct {
				User  string `json:"user"`
				Slots struct {
					Main struct {
						Content string `json:"content"`
					} `json:"main"`
				} `json:"slots"`
			} `json:"revisions"`
			Categories []struct {
				Title string `json:"title"`
			} `json:"categories"`
			ImageInfo []struct {
				SHA1 string `json:"sha1"`
			} `json:"imageinfo"`
			Contributors []struct {
				UserID int64  `json:"userid"`
				Name   string `json:"name"`
			} `json:"contributors"`
		} `json:"pages"`
	} `json:"query"`
}

// LoadPage fetches the latest wikitext, categories, URL and file SHA-1 of
// the page called title. Category continuation is followed so that pages
// with more categories than one response holds are complete.
func (c *Client) LoadPage(ctx context.Context, title string) (*model.Page, error) {
	params := map[string]string{
		"action":  "query",
		"titles":  title,
		"prop":    "revisions|categories|imageinfo|info",
		"rvprop":  "content",
		"rvslots": "main",
		"cllimit": "max",
		"iiprop":  "sha1",
		"inprop":  "url",
	}

	var page *model.Page
	for {
		var resp pageQueryResponse
		if err := c.get(ctx, params, &resp); err != nil {
			return nil, fmt.Errorf("load %s: %w", title, err)
		}
		if len(resp.Query.Pages) == 0 || resp.Query.Pages[0].Missing || resp.Query.Pages[0].Invalid {
			return nil, fmt.Errorf("%w: %s", ErrPageNotFound, title)
		}

		p := resp.Query.Pages[0]
		if page == nil {
			page = &model.Page{
				PageID:    p.PageID,
				Title:     p.Title,
				Namespace: p.NS,
				URL:       p.FullURL,
				Loaded:    true,
			}
		}
		if len(p.Revisions) > 0 && page.Text == "" {
			page.Text = p.Revisions[0].Slots.Main.Content
		}
		for _, cat := range p.Categories {
			page.Categories = append(page.Categories, strings.TrimPrefix(cat.Title, "Category:"))
		}
		if len(p.ImageInfo) > 0 && page.SHA1 == "" {
			page.SHA1 = p.ImageInfo[0].SHA1
		}

		if len(resp.Continue) == 0 {
			return page, nil
		}
		for k, v := range resp.Continue {
			params[k] = continueValue(v)
		}
	}
}

// Contributors returns the names of all registered users who edited the
// page.
func (c *Client) Contributors(ctx context.Context, title string) ([]string, error) {
	params := map[string]string{
		"action":  "query",
		"titles":  title,
		"prop":    "contributors",
		"pclimit": "max",
	}

	var names []string
	for {
		var resp pageQueryResponse
		if err := c.get(ctx, params, &resp); err != nil {
			return nil, fmt.Errorf("contributors of %s: %w", title, err)
		}
		if len(resp.Query.Pages) == 0 || resp.Query.Pages[0].Missing {
			return nil, fmt.Errorf("%w: %s", ErrPageNotFound, title)
		}
		for _, u := range resp.Query.Pages[0].Contributors {
			names = append(names, u.Name)
		}
		if len(resp.Continue) == 0 {
			return names, nil
		}
		for k, v := range resp.Continue {
			params[k] = continueValue(v)
		}
	}
}

// OldestRevisionUser returns the user who created the page.
func (c *Client) OldestRevisionUser(ctx context.Context, title string) (string, error) {
	var resp pageQueryResponse
	err := c.get(ctx, map[string]string{
		"action":  "query",
		"titles":  title,
		"prop":    "revisions",
		"rvprop":  "user",
		"rvdir":   "newer",
		"rvlimit": "1",
	}, &resp)
	if err != nil {
		return "", fmt.Errorf("oldest revision of %s: %w", title, err)
	}
	if len(resp.Query.Pages) == 0 || resp.Query.Pages[0].Missing || len(resp.Query.Pages[0].Revisions) == 0 {
		return "", fmt.Errorf("%w: %s", ErrPageNotFound, title)
	}
	return resp.Query.Pages[0].Revisions[0].User, nil
}
