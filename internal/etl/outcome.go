package etl

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/BartekS5/contentmigrate/internal/record"
	"github.com/BartekS5/contentmigrate/pkg/models"
	"github.com/BartekS5/contentmigrate/pkg/utils"
)

// Outcome is the reported result of one row.
type Outcome struct {
	Migration  string    `json:"migration" bson:"migration"`
	SrcTable   string    `json:"srcTable" bson:"srcTable"`
	SrcUID     int64     `json:"srcUid" bson:"srcUid"`
	SrcType    string    `json:"srcType" bson:"srcType"`
	DstType    string    `json:"dstType" bson:"dstType"`
	Updated    bool      `json:"updated" bson:"updated"`
	References int       `json:"references" bson:"references"`
	Errors     []string  `json:"errors,omitempty" bson:"errors,omitempty"`
	At         time.Time `json:"at" bson:"at"`
}

// NewOutcome summarizes it. The destination type is taken from the change
// payload and falls back to the source type.
func NewOutcome(def models.Definition, it *record.Item) Outcome {
	typeField := def.Source.TypeField
	srcType := utils.ToString(it.Source[typeField])
	dstType := srcType
	if v, ok := it.Destination.Change[typeField]; ok && v != nil {
		dstType = utils.ToString(v)
	}
	return Outcome{
		Migration:  def.Description,
		SrcTable:   it.SrcTable,
		SrcUID:     it.SrcUID,
		SrcType:    srcType,
		DstType:    dstType,
		Updated:    it.Updated,
		References: len(it.Destination.References),
		Errors:     append([]string(nil), it.ErrorLog...),
		At:         time.Now().UTC(),
	}
}

// Line renders the transcript line of the outcome.
func (o Outcome) Line() string {
	marker := "I"
	message := "not-updated"
	if o.Updated {
		message = "updated"
	}
	if len(o.Errors) > 0 {
		marker = "E"
		b, _ := json.Marshal(o.Errors)
		message = "failed : " + string(b)
	}
	return fmt.Sprintf("[%s][ContentUID: %7d][%s => %s] %s", marker, o.SrcUID, o.SrcType, o.DstType, message)
}
