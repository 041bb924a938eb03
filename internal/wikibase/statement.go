package wikibase

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

// SnakType distinguishes known values from unknown ("somevalue") and
// absent ("novalue") ones.
type SnakType string

// Snak types.
const (
	SnakValue     SnakType = "value"
	SnakSomeValue SnakType = "somevalue"
	SnakNoValue   SnakType = "novalue"
)

// Snak is a property/value pair.
type Snak struct {
	SnakType  SnakType   `json:"snaktype"`
	Property  string     `json:"property"`
	Hash      string     `json:"hash,omitempty"`
	DataValue *DataValue `json:"datavalue,omitempty"`
	DataType  string     `json:"datatype,omitempty"`
}

// NewSnak returns a value snak.
func NewSnak(property string, value DataValue) Snak {
	return Snak{SnakType: SnakValue, Property: property, DataValue: &value}
}

// SomeValue returns an "unknown value" snak.
func SomeValue(property string) Snak {
	return Snak{SnakType: SnakSomeValue, Property: property}
}

// Reference is a block of snaks supporting a statement.
type Reference struct {
	Hash       string            `json:"hash,omitempty"`
	Snaks      map[string][]Snak `json:"snaks"`
	SnaksOrder []string          `json:"snaks-order"`
}

// Statement is a main snak with qualifiers and references.
// A statement with an ID updates the existing statement when submitted.
type Statement struct {
	ID              string            `json:"id,omitempty"`
	MainSnak        Snak              `json:"mainsnak"`
	Type            string            `json:"type"`
	Rank            string            `json:"rank"`
	Qualifiers      map[string][]Snak `json:"qualifiers,omitempty"`
	QualifiersOrder []string          `json:"qualifiers-order,omitempty"`
	References      []Reference       `json:"references,omitempty"`
}

// NewStatement returns a normal-rank statement for the main snak.
func NewStatement(main Snak) *Statement {
	return &Statement{
		MainSnak: main,
		Type:     "statement",
		Rank:     "normal",
	}
}

// Property returns the property of the main snak.
func (s *Statement) Property() string {
	return s.MainSnak.Property
}

// AddQualifier appends q and records its property in qualifiers-order.
func (s *Statement) AddQualifier(q Snak) *Statement {
	if s.Qualifiers == nil {
		s.Qualifiers = make(map[string][]Snak)
	}
	if _, ok := s.Qualifiers[q.Property]; !ok {
		s.QualifiersOrder = append(s.QualifiersOrder, q.Property)
	}
	s.Qualifiers[q.Property] = append(s.Qualifiers[q.Property], q)
	return s
}

// HasQualifier reports whether the statement has a qualifier for property.
func (s *Statement) HasQualifier(property string) bool {
	return len(s.Qualifiers[property]) > 0
}

// AddReference appends a reference made of the given snaks.
func (s *Statement) AddReference(snaks ...Snak) *Statement {
	if len(snaks) == 0 {
		return s
	}
	ref := Reference{Snaks: make(map[string][]Snak)}
	for _, snak := range snaks {
		if _, ok := ref.Snaks[snak.Property]; !ok {
			ref.SnaksOrder = append(ref.SnaksOrder, snak.Property)
		}
		ref.Snaks[snak.Property] = append(ref.Snaks[snak.Property], snak)
	}
	s.References = append(s.References, ref)
	return s
}

// Clone returns a deep copy of the statement.
func (s *Statement) Clone() *Statement {
	data, err := json.Marshal(s)
	if err != nil {
		panic(fmt.Sprintf("wikibase: clone statement: %v", err))
	}
	var c Statement
	if err := json.Unmarshal(data, &c); err != nil {
		panic(fmt.Sprintf("wikibase: clone statement: %v", err))
	}
	return &c
}

// ClaimCollection maps property ids to the statements of an entity.
type ClaimCollection map[string][]*Statement

// Has reports whether at least one statement exists for property.
func (c ClaimCollection) Has(property string) bool {
	return len(c[property]) > 0
}

// Get returns the statements for property.
func (c ClaimCollection) Get(property string) []*Statement {
	return c[property]
}

// Properties returns the sorted list of properties with statements.
func (c ClaimCollection) Properties() []string {
	props := make([]string, 0, len(c))
	for p, stmts := range c {
		if len(stmts) > 0 {
			props = append(props, p)
		}
	}
	slices.Sort(props)
	return props
}

// UnmarshalJSON decodes a statements object. The API serialises an entity
// without statements as an empty JSON array, which decodes to an empty
// collection.
func (c *ClaimCollection) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*c = ClaimCollection{}
		return nil
	}
	if trimmed[0] == '[' {
		var list []json.RawMessage
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return err
		}
		if len(list) > 0 {
			return fmt.Errorf("wikibase: unexpected non-empty statements array")
		}
		*c = ClaimCollection{}
		return nil
	}

	m := make(map[string][]*Statement)
	if err := json.Unmarshal(trimmed, &m); err != nil {
		return err
	}
	*c = m
	return nil
}
