// Package sdc builds the structured data statements the bots add to
// Commons files.
//
// Every builder queues at most one statement on a task and does nothing
// when the file already has, or the task already queued, a statement for
// the same property.
package sdc

import (
	"strings"

	"github.com/nao1215/wikibots/internal/model"
	"github.com/nao1215/wikibots/internal/wikibase"
	"golang.org/x/text/unicode/norm"
)

// AddID queues an external identifier statement.
func AddID(task *model.Task, property, value string) bool {
	value = strings.TrimSpace(value)
	if value == "" || task.Has(property) {
		return false
	}
	task.AddClaim(wikibase.NewStatement(wikibase.NewSnak(property, wikibase.StringValue(value))))
	return true
}

// AddCreator queues an "unknown value" creator statement qualified with the
// author name and profile URL. Empty name or URL qualifiers are left out.
// Extra qualifiers, such as platform user ids, follow in order.
func AddCreator(task *model.Task, author, url string, extra ...wikibase.Snak) bool {
	if task.Has(wikibase.PropertyCreator) {
		return false
	}

	s := wikibase.NewStatement(wikibase.SomeValue(wikibase.PropertyCreator))
	if name := AuthorName(author); name != "" {
		s.AddQualifier(wikibase.NewSnak(wikibase.PropertyAuthorNameString, wikibase.StringValue(name)))
	}
	if url != "" {
		s.AddQualifier(wikibase.NewSnak(wikibase.PropertyURL, wikibase.StringValue(url)))
	}
	for _, q := range extra {
		s.AddQualifier(q)
	}

	task.AddClaim(s)
	return true
}

// AddSource queues a "file available on the internet" source statement
// with the page it was described at and the operator of the website.
func AddSource(task *model.Task, url, operator string) bool {
	if url == "" || task.Has(wikibase.PropertySourceOfFile) {
		return false
	}

	s := wikibase.NewStatement(wikibase.NewSnak(wikibase.PropertySourceOfFile, wikibase.ItemValue(wikibase.EntityFileAvailableOnInternet))).
		AddQualifier(wikibase.NewSnak(wikibase.PropertyDescribedAtURL, wikibase.StringValue(url))).
		AddQualifier(wikibase.NewSnak(wikibase.PropertyOperator, wikibase.ItemValue(operator)))

	task.AddClaim(s)
	return true
}

// AddDepicts queues a depicts statement for item with an optional
// reference block.
func AddDepicts(task *model.Task, item string, reference ...wikibase.Snak) bool {
	if item == "" || task.Has(wikibase.PropertyDepicts) {
		return false
	}

	s := wikibase.NewStatement(wikibase.NewSnak(wikibase.PropertyDepicts, wikibase.ItemValue(item)))
	s.AddReference(reference...)

	task.AddClaim(s)
	return true
}

// AddPublishedIn queues a "published in" statement qualified with the
// publication date.
func AddPublishedIn(task *model.Task, item string, date wikibase.WbTime) bool {
	if task.Has(wikibase.PropertyPublishedIn) {
		return false
	}

	s := wikibase.NewStatement(wikibase.NewSnak(wikibase.PropertyPublishedIn, wikibase.ItemValue(item))).
		AddQualifier(wikibase.NewSnak(wikibase.PropertyPublicationDate, wikibase.TimeValue(date)))

	task.AddClaim(s)
	return true
}

// AddInception queues an inception statement. Approximate dates carry a
// "circa" sourcing circumstances qualifier.
func AddInception(task *model.Task, date wikibase.WbTime, circa bool) bool {
	if task.Has(wikibase.PropertyInception) {
		return false
	}

	s := wikibase.NewStatement(wikibase.NewSnak(wikibase.PropertyInception, wikibase.TimeValue(date)))
	if circa {
		s.AddQualifier(wikibase.NewSnak(wikibase.PropertySourcingCircumstances, wikibase.ItemValue(wikibase.EntityCirca)))
	}

	task.AddClaim(s)
	return true
}

// AddCoordinates queues the coordinates of the point of view, the camera
// position. Null island (0, 0) is never written.
func AddCoordinates(task *model.Task, latitude, longitude, precision float64) bool {
	if latitude == 0 && longitude == 0 {
		return false
	}
	if task.Has(wikibase.PropertyCoordinatesOfThePointOfView) {
		return false
	}

	task.AddClaim(wikibase.NewStatement(wikibase.NewSnak(wikibase.PropertyCoordinatesOfThePointOfView,
		wikibase.CoordinateValue(latitude, longitude, precision))))
	return true
}

// AuthorName trims and NFC-normalises an author name.
func AuthorName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}
