package console

import (
	"fmt"

	"github.com/JaimeStill/console/pkg/table"
)

type navItem struct {
	Name   string
	Label  string
	Active bool
}

type columnView struct {
	Field     string
	Header    string
	Indicator string
}

type attachmentView struct {
	URL      string
	Filename string
	Size     string
	Pages    int
}

type rowView struct {
	ID         int
	Cells      []string
	Attachment *attachmentView
}

type tableView struct {
	Nav            []navItem
	Name           string
	Label          string
	Singular       string
	SearchLabel    string
	Query          string
	Columns        []columnView
	Rows           []rowView
	HasAttachments bool
	Span           int
	PageLabel      string
	PageSize       int
	MaxPageSize    int
	Total          int
	CanPrevious    bool
	CanNext        bool
	Loading        bool
}

type fieldView struct {
	Name     string
	Label    string
	Type     string
	Value    string
	Options  []string
	Accept   string
	Hint     string
	Required bool
	Error    string
}

type formView struct {
	Nav       []navItem
	Name      string
	Heading   string
	EditingID int
	Multipart bool
	Fields    []fieldView
	Error     string
}

type loginView struct {
	Email    string
	Error    string
	Provider string
}

// sortIndicator marks the active sort column.
func sortIndicator(sort *table.SortSpec, field string) string {
	if sort == nil || sort.Field != field {
		return ""
	}
	if sort.Descending {
		return "🔽"
	}
	return "🔼"
}

func pageLabel(index, count int) string {
	if count <= 1 {
		return fmt.Sprintf("Page %d", index+1)
	}
	return fmt.Sprintf("Page %d of %d", index+1, count)
}
