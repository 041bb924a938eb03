package mediawiki

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nao1215/wikibots/internal/wikibase"
)

// BotTag is the change tag applied to structured data edits.
const BotTag = "BotSDC"

type entitiesResponse struct {
	Entities map[string]struct {
		ID         string                   `json:"id"`
		Missing    *string                  `json:"missing"`
		Statements wikibase.ClaimCollection `json:"statements"`
	} `json:"entities"`
}

// Entity returns the statements of the media info entity mid. A file
// without structured data yields an empty collection.
func (c *Client) Entity(ctx context.Context, mid string) (wikibase.ClaimCollection, error) {
	var resp entitiesResponse
	if err := c.get(ctx, map[string]string{"action": "wbgetentities", "ids": mid}, &resp); err != nil {
		return nil, fmt.Errorf("get entity %s: %w", mid, err)
	}

	e, ok := resp.Entities[mid]
	if !ok || e.Missing != nil || e.Statements == nil {
		return wikibase.ClaimCollection{}, nil
	}
	return e.Statements, nil
}

// EditRequest describes a wbeditentity call that adds or updates
// statements.
type EditRequest struct {
	// ID is the media info entity id, e.g. "M12345".
	ID string

	// Claims are the statements to submit. Statements with an id replace
	// the existing statement.
	Claims []*wikibase.Statement

	// Summary is the edit summary.
	Summary string

	// Tags are change tags to apply.
	Tags []string

	// Bot marks the edit as a bot edit.
	Bot bool
}

type editResponse struct {
	Success int `json:"success"`
	Entity  struct {
		LastRevID int64 `json:"lastrevid"`
	} `json:"entity"`
}

// EditEntity submits the statements in req and returns the new revision
// id. A stale CSRF token is refreshed and the edit retried once.
func (c *Client) EditEntity(ctx context.Context, req EditRequest) (int64, error) {
	data, err := json.Marshal(map[string]any{"claims": req.Claims})
	if err != nil {
		return 0, fmt.Errorf("encode claims: %w", err)
	}

	params := map[string]string{
		"action":  "wbeditentity",
		"id":      req.ID,
		"data":    string(data),
		"summary": req.Summary,
	}
	if len(req.Tags) > 0 {
		params["tags"] = strings.Join(req.Tags, "|")
	}
	if req.Bot {
		params["bot"] = "1"
	}

	for attempt := 0; attempt < 2; attempt++ {
		token, err := c.CSRFToken(ctx)
		if err != nil {
			return 0, err
		}
		params["token"] = token

		var resp editResponse
		err = c.post(ctx, params, &resp)
		if IsCode(err, "badtoken") && attempt == 0 {
			c.logger.Debug("csrf token expired, refreshing", "id", req.ID)
			c.resetCSRFToken()
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("edit %s: %w", req.ID, err)
		}
		if resp.Success != 1 {
			return 0, fmt.Errorf("edit %s: unsuccessful response", req.ID)
		}
		return resp.Entity.LastRevID, nil
	}
	return 0, fmt.Errorf("edit %s: csrf token rejected twice", req.ID)
}
