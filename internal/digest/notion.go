package digest

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"
)

// notionRichTextLimit is Notion's per-field rich text length limit
const notionRichTextLimit = 2000

// NotionArchiver saves produced summaries to a Notion database
type NotionArchiver struct {
	client *notionapi.Client
	dbID   notionapi.DatabaseID
}

// NewNotionArchiver creates a new Notion archiver
func NewNotionArchiver(token string, databaseID string) (*NotionArchiver, error) {
	if token == "" {
		return nil, fmt.Errorf("NOTION_TOKEN is required")
	}

	na := &NotionArchiver{
		client: notionapi.NewClient(notionapi.Token(token)),
	}

	if databaseID != "" {
		na.dbID = notionapi.DatabaseID(databaseID)
	}

	return na, nil
}

// CreateDatabase creates a new Notion database for archived summaries
// and returns its ID. The archiver uses the new database from then on.
func (na *NotionArchiver) CreateDatabase(ctx context.Context, pageID string) (string, error) {
	if pageID == "" {
		return "", fmt.Errorf("a parent page ID is required to create a new database")
	}

	dbRequest := &notionapi.DatabaseCreateRequest{
		Parent: notionapi.Parent{
			Type:   notionapi.ParentTypePageID,
			PageID: notionapi.PageID(pageID),
		},
		Title: []notionapi.RichText{
			{
				Text: &notionapi.Text{
					Content: "Feed Digest Archive",
				},
			},
		},
		Properties: notionapi.PropertyConfigs{
			"Title": notionapi.TitlePropertyConfig{
				Type: notionapi.PropertyConfigTypeTitle,
			},
			"URL": notionapi.URLPropertyConfig{
				Type: notionapi.PropertyConfigTypeURL,
			},
			"Published": notionapi.RichTextPropertyConfig{
				Type: notionapi.PropertyConfigTypeRichText,
			},
			"Summary": notionapi.RichTextPropertyConfig{
				Type: notionapi.PropertyConfigTypeRichText,
			},
		},
	}

	db, err := na.client.Database.Create(ctx, dbRequest)
	if err != nil {
		return "", fmt.Errorf("failed to create Notion database: %w", err)
	}

	na.dbID = notionapi.DatabaseID(db.ID)
	return string(db.ID), nil
}

// ArchiveSummaries creates one database page per summary.
// A failed page does not stop the remaining ones; the failures are
// reported in a single combined error at the end.
func (na *NotionArchiver) ArchiveSummaries(ctx context.Context, summaries []ArticleSummary) error {
	if na.dbID == "" {
		return fmt.Errorf("database ID not set")
	}

	failed := 0
	for _, s := range summaries {
		if err := na.archiveSummary(ctx, s); err != nil {
			warnf("failed to archive summary '%s': %v", s.Title, err)
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("failed to archive %d of %d summaries", failed, len(summaries))
	}
	return nil
}

// archiveSummary creates a single database page for one summary
func (na *NotionArchiver) archiveSummary(ctx context.Context, s ArticleSummary) error {
	properties := notionapi.Properties{
		"Title": notionapi.TitleProperty{
			Type: notionapi.PropertyTypeTitle,
			Title: []notionapi.RichText{
				{
					Text: &notionapi.Text{
						Content: s.Title,
					},
				},
			},
		},
		"URL": notionapi.URLProperty{
			Type: notionapi.PropertyTypeURL,
			URL:  s.Link,
		},
		"Published": notionapi.RichTextProperty{
			Type: notionapi.PropertyTypeRichText,
			RichText: []notionapi.RichText{
				{
					Text: &notionapi.Text{
						Content: s.Published,
					},
				},
			},
		},
		"Summary": notionapi.RichTextProperty{
			Type: notionapi.PropertyTypeRichText,
			RichText: []notionapi.RichText{
				{
					Text: &notionapi.Text{
						Content: truncateString(s.Summary, notionRichTextLimit),
					},
				},
			},
		},
	}

	pageRequest := &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: na.dbID,
		},
		Properties: properties,
	}

	_, err := na.client.Page.Create(ctx, pageRequest)
	return err
}
