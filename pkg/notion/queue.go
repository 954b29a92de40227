package notion

import (
	"context"
	"strings"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
)

// QueuedCompany is a research-queue row pulled from the Notion database.
type QueuedCompany struct {
	PageID   string
	Name     string
	Domain   string
	Location string
}

// QueryAll fetches all pages from a Notion database, handling pagination.
// Rate limiting is enforced by the Client (3 req/s by default).
func QueryAll(ctx context.Context, c Client, dbID string, filter *notionapi.DatabaseQueryRequest) ([]notionapi.Page, error) {
	var all []notionapi.Page

	req := &notionapi.DatabaseQueryRequest{}
	if filter != nil {
		req.Filter = filter.Filter
		req.Sorts = filter.Sorts
		req.PageSize = filter.PageSize
	}

	for {
		resp, err := c.QueryDatabase(ctx, dbID, req)
		if err != nil {
			return nil, eris.Wrap(err, "notion: query all page")
		}

		all = append(all, resp.Results...)

		if !resp.HasMore {
			break
		}
		req = &notionapi.DatabaseQueryRequest{StartCursor: resp.NextCursor}
		if filter != nil {
			req.Filter = filter.Filter
			req.Sorts = filter.Sorts
			req.PageSize = filter.PageSize
		}
	}

	return all, nil
}

// QueryQueuedCompanies fetches all rows with Status = "Queued" and converts
// them into QueuedCompany values. Rows with an empty Name property are
// skipped.
func QueryQueuedCompanies(ctx context.Context, c Client, dbID string) ([]QueuedCompany, error) {
	filter := &notionapi.DatabaseQueryRequest{
		Filter: notionapi.PropertyFilter{
			Property: "Status",
			Status: &notionapi.StatusFilterCondition{
				Equals: "Queued",
			},
		},
	}
	pages, err := QueryAll(ctx, c, dbID, filter)
	if err != nil {
		return nil, eris.Wrap(err, "notion: query queued companies")
	}

	companies := make([]QueuedCompany, 0, len(pages))
	for _, p := range pages {
		qc := QueuedCompany{
			PageID:   string(p.ID),
			Name:     titleProp(p, "Name"),
			Domain:   urlProp(p, "Website"),
			Location: textProp(p, "Location"),
		}
		if qc.Name == "" {
			continue
		}
		companies = append(companies, qc)
	}
	return companies, nil
}

// MarkStatus updates the Status property of a queue row.
func MarkStatus(ctx context.Context, c Client, pageID, status string) error {
	_, err := c.UpdatePage(ctx, pageID, &notionapi.PageUpdateRequest{
		Properties: notionapi.Properties{
			"Status": notionapi.StatusProperty{
				Status: notionapi.Option{Name: status},
			},
		},
	})
	if err != nil {
		return eris.Wrap(err, "notion: mark status")
	}
	return nil
}

func titleProp(p notionapi.Page, name string) string {
	prop, ok := p.Properties[name].(*notionapi.TitleProperty)
	if !ok {
		return ""
	}
	var sb strings.Builder
	for _, rt := range prop.Title {
		sb.WriteString(rt.PlainText)
	}
	return strings.TrimSpace(sb.String())
}

func textProp(p notionapi.Page, name string) string {
	prop, ok := p.Properties[name].(*notionapi.RichTextProperty)
	if !ok {
		return ""
	}
	var sb strings.Builder
	for _, rt := range prop.RichText {
		sb.WriteString(rt.PlainText)
	}
	return strings.TrimSpace(sb.String())
}

func urlProp(p notionapi.Page, name string) string {
	prop, ok := p.Properties[name].(*notionapi.URLProperty)
	if !ok {
		return ""
	}
	return strings.TrimSpace(prop.URL)
}
